package notify

import (
	"sync"

	"plancraft/pkg/logging"
)

// Kind classifies a notification.
type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
)

// Notifier receives user-facing notifications.
type Notifier interface {
	Notify(kind Kind, title, message string)
}

// Func adapts a function to Notifier.
type Func func(kind Kind, title, message string)

// Notify calls f.
func (f Func) Notify(kind Kind, title, message string) { f(kind, title, message) }

// Multi fans a notification out to every notifier in order.
type Multi []Notifier

// Notify forwards to each non-nil notifier.
func (m Multi) Notify(kind Kind, title, message string) {
	for _, n := range m {
		if n != nil {
			n.Notify(kind, title, message)
		}
	}
}

// LogNotifier writes notifications to the Notify subsystem log.
type LogNotifier struct{}

// Notify logs successes at info and failures at warn.
func (LogNotifier) Notify(kind Kind, title, message string) {
	if kind == KindError {
		logging.Warn("Notify", "%s: %s", title, message)
		return
	}
	logging.Info("Notify", "%s: %s", title, message)
}

// Entry is one recorded notification.
type Entry struct {
	Kind    Kind
	Title   string
	Message string
}

// Recorder stores notifications in memory.
type Recorder struct {
	mu      sync.Mutex
	entries []Entry
}

// Notify records the notification.
func (r *Recorder) Notify(kind Kind, title, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, Entry{Kind: kind, Title: title, Message: message})
}

// Entries returns a copy of what has been recorded so far.
func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Reset drops all recorded entries.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.entries = nil
	r.mu.Unlock()
}
