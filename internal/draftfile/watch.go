package draftfile

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"plancraft/pkg/logging"
)

// DefaultDebounce is used when Watch is given a zero debounce interval.
const DefaultDebounce = 200 * time.Millisecond

// Watch calls onChange whenever path is written, created or replaced, until
// ctx is done. Bursts of events within debounce collapse into one call.
//
// The containing directory is watched rather than the file, so editors that
// save by renaming a temporary file over the original are still seen.
// onChange runs on the watcher goroutine; calls never overlap.
func Watch(ctx context.Context, path string, debounce time.Duration, onChange func()) error {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return err
	}
	logging.Info("DraftFile", "Watching %s for changes", abs)

	var (
		mu      sync.Mutex
		timer   *time.Timer
		pending = make(chan struct{}, 1)
	)
	defer func() {
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-pending:
			onChange()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			logging.Debug("DraftFile", "Change event %s on %s", event.Op, event.Name)

			mu.Lock()
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounce, func() {
				select {
				case pending <- struct{}{}:
				default:
				}
			})
			mu.Unlock()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logging.Error("DraftFile", err, "Draft watcher error")
		}
	}
}
