// Package history summarizes completed test-plan runs into dashboard KPIs.
package history

import (
	"strings"
	"time"
)

// Run statuses reported by the execution service.
const (
	StatusPassed    = "passed"
	StatusFailed    = "failed"
	StatusError     = "error"
	StatusRunning   = "running"
	StatusQueued    = "queued"
	StatusCancelled = "cancelled"
)

// Run is one execution of a test plan.
type Run struct {
	ID         string    `json:"id"`
	PlanID     string    `json:"testPlanId"`
	Status     string    `json:"status"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt,omitempty"`
	DurationMs int64     `json:"durationMs,omitempty"`
}

// Completed reports whether the run reached a verdict.
func (r Run) Completed() bool {
	switch strings.ToLower(r.Status) {
	case StatusPassed, StatusFailed, StatusError:
		return true
	}
	return false
}

// Passed reports whether the run passed.
func (r Run) Passed() bool { return strings.EqualFold(r.Status, StatusPassed) }

// Duration prefers the service-reported duration and falls back to the
// timestamps.
func (r Run) Duration() time.Duration {
	if r.DurationMs > 0 {
		return time.Duration(r.DurationMs) * time.Millisecond
	}
	if !r.FinishedAt.IsZero() && r.FinishedAt.After(r.StartedAt) {
		return r.FinishedAt.Sub(r.StartedAt)
	}
	return 0
}

// KPIs are the headline numbers shown for a plan.
type KPIs struct {
	Total       int           `json:"total"`
	Passed      int           `json:"passed"`
	Failed      int           `json:"failed"`
	PassRate    float64       `json:"passRate"`
	AvgDuration time.Duration `json:"avgDuration"`
	LastRunAt   time.Time     `json:"lastRunAt,omitempty"`
}

// Summarize computes KPIs over completed runs. Runs still queued, running or
// cancelled are ignored. Errors count as failures. PassRate is a percentage.
func Summarize(runs []Run) KPIs {
	var k KPIs
	var total time.Duration
	var timed int
	for _, r := range runs {
		if !r.Completed() {
			continue
		}
		k.Total++
		if r.Passed() {
			k.Passed++
		} else {
			k.Failed++
		}
		if d := r.Duration(); d > 0 {
			total += d
			timed++
		}
		at := r.FinishedAt
		if at.IsZero() {
			at = r.StartedAt
		}
		if at.After(k.LastRunAt) {
			k.LastRunAt = at
		}
	}
	if k.Total > 0 {
		k.PassRate = float64(k.Passed) * 100 / float64(k.Total)
	}
	if timed > 0 {
		k.AvgDuration = total / time.Duration(timed)
	}
	return k
}
