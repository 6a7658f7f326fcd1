package wizard

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"plancraft/internal/assertion"
	"plancraft/internal/notify"
	"plancraft/internal/validation"
)

// A small three-step wizard: a name, a count with tags, and an extras JSON
// blob alongside an assertion list.
func fixtureDefaults() Draft {
	return Draft{
		"name":   "",
		"count":  "30",
		"tags":   []string{},
		"extras": "",
		"checks": assertion.List{},
	}
}

func fixtureSteps() *StepSet {
	return NewStepSet(fixtureDefaults(),
		StepDefinition{
			Index:  1,
			Title:  "Basics",
			Fields: []Field{{Name: "name", Label: "Name", Kind: KindText}},
			Validate: func(d Draft, ctx *validation.Context) ErrorMap {
				errs := ErrorMap{}
				if r := validation.Validate("name", d["name"], ctx, validation.Required("Name")); !r.Valid {
					errs["name"] = r.Message
				}
				return errs
			},
		},
		StepDefinition{
			Index: 2,
			Title: "Sizing",
			Fields: []Field{
				{Name: "count", Label: "Count", Kind: KindText},
				{Name: "tags", Label: "Tags", Kind: KindTextList},
			},
			Mirrors: []string{"name"},
			Validate: func(d Draft, ctx *validation.Context) ErrorMap {
				errs := ErrorMap{}
				if r := validation.Validate("count", d["count"], ctx, validation.PositiveInteger("Count")); !r.Valid {
					errs["count"] = r.Message
				}
				return errs
			},
		},
		StepDefinition{
			Index: 3,
			Title: "Extras",
			Fields: []Field{
				{Name: "extras", Label: "Extras", Kind: KindText},
				{Name: "checks", Label: "Checks", Kind: KindStructured, Decode: DecodeAs[assertion.List]()},
			},
			Validate: func(d Draft, _ *validation.Context) ErrorMap {
				var problems []string
				for i, r := range d.Assertions("checks") {
					for _, p := range assertion.Check(r) {
						problems = append(problems, fmt.Sprintf("assertion %d: %s", i+1, p))
					}
				}
				if len(problems) > 0 {
					return ErrorMap{"checks": strings.Join(problems, "; ")}
				}
				return nil
			},
		},
	)
}

type fixturePayload struct {
	Name   string                 `json:"name"`
	Count  int64                  `json:"count"`
	Tags   []string               `json:"tags"`
	Extras map[string]interface{} `json:"extras,omitempty"`
	Checks []assertion.Wire       `json:"checks"`
}

func fixtureTransform(d Draft) (interface{}, error) {
	count, _ := validation.ParseIntPrefix(d.String("count"))
	p := fixturePayload{
		Name:   strings.TrimSpace(d.String("name")),
		Count:  count,
		Tags:   d.Strings("tags"),
		Checks: []assertion.Wire{},
	}
	if text := strings.TrimSpace(d.String("extras")); text != "" {
		if err := json.Unmarshal([]byte(text), &p.Extras); err != nil {
			return nil, &TransformError{Field: "extras", Reason: "invalid JSON", Err: err}
		}
	}
	for _, r := range d.Assertions("checks") {
		p.Checks = append(p.Checks, assertion.ToWire(r))
	}
	return p, nil
}

func fixtureDefinition() Definition {
	return Definition{
		Kind:           "widgets",
		Title:          "Widget",
		NameField:      "name",
		AssertionField: "checks",
		Steps:          fixtureSteps(),
		Defaults:       fixtureDefaults,
		Transform:      fixtureTransform,
	}
}

// countingSubmitter records every request and answers with err.
type countingSubmitter struct {
	mu   sync.Mutex
	reqs []SubmitRequest
	id   string
	err  error
}

func (s *countingSubmitter) Submit(_ context.Context, req SubmitRequest) (SubmitResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reqs = append(s.reqs, req)
	if s.err != nil {
		return SubmitResult{}, s.err
	}
	return SubmitResult{ID: s.id}, nil
}

func (s *countingSubmitter) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.reqs)
}

// gateSubmitter blocks until the test releases it.
type gateSubmitter struct {
	started chan SubmitRequest
	release chan error
}

func newGateSubmitter() *gateSubmitter {
	return &gateSubmitter{started: make(chan SubmitRequest, 1), release: make(chan error, 1)}
}

func (s *gateSubmitter) Submit(_ context.Context, req SubmitRequest) (SubmitResult, error) {
	s.started <- req
	if err := <-s.release; err != nil {
		return SubmitResult{}, err
	}
	return SubmitResult{ID: "gate-1"}, nil
}

type observed struct {
	event, outcome string
}

type recordingObserver struct {
	mu      sync.Mutex
	events  []observed
	submits []string
}

func (o *recordingObserver) ObserveEvent(_, event, outcome string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, observed{event, outcome})
}

func (o *recordingObserver) ObserveSubmit(_, outcome string, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.submits = append(o.submits, outcome)
}

func newFixtureEngine(opts ...Option) (*Engine, *notify.Recorder) {
	rec := &notify.Recorder{}
	return New(fixtureDefinition(), append([]Option{WithNotifier(rec)}, opts...)...), rec
}

// fillValid sets every field so all steps validate.
func fillValid(ctx context.Context, e *Engine) error {
	for _, ev := range []Event{
		SetField{Name: "name", Value: "Nightly"},
		Next{},
		SetField{Name: "tags", Value: "a, b"},
		Next{},
	} {
		if err := e.Dispatch(ctx, ev); err != nil {
			return err
		}
	}
	return nil
}
