// Package reference caches the reference lists (test suites, test plans) the
// wizards offer as choices.
//
// A Loader only talks to the execution service while it is open, which
// mirrors a wizard dialog: lists are fetched when the dialog opens and the
// cached copies serve option pickers and membership validation until it
// closes.
package reference

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"plancraft/internal/client"
	"plancraft/internal/validation"
	"plancraft/pkg/logging"
)

// ErrInactive is returned by fetches attempted while the loader is closed.
var ErrInactive = errors.New("reference loader is not active")

// Fetcher retrieves one reference list. *client.Client implements it.
type Fetcher interface {
	FetchReferenceList(ctx context.Context, kind string) ([]client.Reference, error)
}

type entry struct {
	items     []client.Reference
	fetchedAt time.Time
}

// Loader fetches and caches reference lists by kind.
type Loader struct {
	fetcher Fetcher

	mu     sync.RWMutex
	active bool
	lists  map[string]*entry

	// collapses concurrent fetches of the same kind
	group singleflight.Group
}

// NewLoader creates an inactive loader.
func NewLoader(f Fetcher) *Loader {
	return &Loader{fetcher: f, lists: make(map[string]*entry)}
}

// Open activates the loader and refreshes every kind concurrently. The
// loader stays active when a fetch fails; the first error is returned.
func (l *Loader) Open(ctx context.Context, kinds ...string) error {
	l.mu.Lock()
	l.active = true
	l.mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)
	for _, kind := range kinds {
		kind := kind
		g.Go(func() error {
			_, err := l.Refresh(gctx, kind)
			return err
		})
	}
	return g.Wait()
}

// Close deactivates the loader. Cached lists remain readable.
func (l *Loader) Close() {
	l.mu.Lock()
	l.active = false
	l.mu.Unlock()
}

// Active reports whether the loader may fetch.
func (l *Loader) Active() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.active
}

// Refresh fetches kind and replaces its cached list. A result that arrives
// after Close is returned but not cached.
func (l *Loader) Refresh(ctx context.Context, kind string) ([]client.Reference, error) {
	if !l.Active() {
		return nil, ErrInactive
	}

	result, err, shared := l.group.Do(kind, func() (interface{}, error) {
		items, err := l.fetcher.FetchReferenceList(ctx, kind)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch %s: %w", kind, err)
		}

		l.mu.Lock()
		defer l.mu.Unlock()
		if l.active {
			l.lists[kind] = &entry{items: items, fetchedAt: time.Now()}
		}
		return items, nil
	})
	if err != nil {
		logging.Warn("Reference", "Refreshing %s failed: %v", kind, err)
		return nil, err
	}
	if shared {
		logging.Debug("Reference", "Shared in-flight fetch of %s", kind)
	}
	return copyRefs(result.([]client.Reference)), nil
}

// Options returns a copy of the cached list for kind, or nil if it was never
// loaded.
func (l *Loader) Options(kind string) []client.Reference {
	l.mu.RLock()
	defer l.mu.RUnlock()
	e, ok := l.lists[kind]
	if !ok {
		return nil
	}
	return copyRefs(e.items)
}

// FetchedAt reports when kind was last cached.
func (l *Loader) FetchedAt(kind string) (time.Time, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	e, ok := l.lists[kind]
	if !ok {
		return time.Time{}, false
	}
	return e.fetchedAt, true
}

// ValidationContext exposes the cached IDs per kind for option-membership
// rules. Kinds that were never loaded are absent, which those rules treat as
// "not loaded yet".
func (l *Loader) ValidationContext() *validation.Context {
	l.mu.RLock()
	defer l.mu.RUnlock()
	opts := make(map[string][]string, len(l.lists))
	for kind, e := range l.lists {
		ids := make([]string, 0, len(e.items))
		for _, ref := range e.items {
			ids = append(ids, string(ref.ID))
		}
		opts[kind] = ids
	}
	return &validation.Context{Options: opts}
}

func copyRefs(in []client.Reference) []client.Reference {
	if in == nil {
		return []client.Reference{}
	}
	out := make([]client.Reference, len(in))
	copy(out, in)
	return out
}
