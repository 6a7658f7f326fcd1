package wizard

import (
	"context"
	"time"
)

// Mode distinguishes creating a new entity from updating an existing one.
type Mode string

const (
	ModeCreate Mode = "create"
	ModeUpdate Mode = "update"
)

// SubmitRequest is handed to the Submitter once the draft has validated and
// transformed.
type SubmitRequest struct {
	// Kind is the entity collection, e.g. "test-plans".
	Kind    string
	Mode    Mode
	ID      string
	Payload interface{}
}

// SubmitResult carries what the execution service returned.
type SubmitResult struct {
	ID string
}

// Submitter sends a payload to the execution service.
type Submitter interface {
	Submit(ctx context.Context, req SubmitRequest) (SubmitResult, error)
}

// SubmitterFunc adapts a function to Submitter.
type SubmitterFunc func(ctx context.Context, req SubmitRequest) (SubmitResult, error)

// Submit calls f.
func (f SubmitterFunc) Submit(ctx context.Context, req SubmitRequest) (SubmitResult, error) {
	return f(ctx, req)
}

// Observer is told about every dispatched event and every submit.
// Implementations must be fast and must not call back into the engine.
type Observer interface {
	ObserveEvent(wizard, event, outcome string)
	ObserveSubmit(wizard, outcome string, took time.Duration)
}

// Outcome labels passed to an Observer.
const (
	OutcomeOK       = "ok"
	OutcomeInvalid  = "invalid"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
	OutcomeStale    = "stale"
)

type nopObserver struct{}

func (nopObserver) ObserveEvent(string, string, string)         {}
func (nopObserver) ObserveSubmit(string, string, time.Duration) {}
