package wizard

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"plancraft/internal/assertion"
	"plancraft/internal/notify"
	"plancraft/internal/validation"
	"plancraft/pkg/logging"
)

// ErrSuperseded is returned by a Submit whose result arrived after a Reset.
// The result is dropped and the reset state is left untouched.
var ErrSuperseded = errors.New("submit result discarded after reset")

// ErrNoSubmitter is returned by Submit on an engine built without one.
var ErrNoSubmitter = errors.New("wizard has no submitter")

// Definition binds a step layout to its defaults and payload transformer.
type Definition struct {
	// Kind is the entity collection the wizard submits to, e.g. "test-plans".
	Kind string
	// Title names the entity in notifications, e.g. "Test plan".
	Title string
	// NameField is the draft field quoted in notifications.
	NameField string
	// AssertionField is the draft field holding an assertion.List, if any.
	AssertionField string

	Steps     *StepSet
	Defaults  func() Draft
	Transform func(Draft) (interface{}, error)
}

// Option configures an Engine.
type Option func(*Engine)

// WithSubmitter sets the collaborator called on Submit.
func WithSubmitter(s Submitter) Option {
	return func(e *Engine) { e.submitter = s }
}

// WithNotifier replaces the default LogNotifier.
func WithNotifier(n notify.Notifier) Option {
	return func(e *Engine) { e.notifier = n }
}

// WithObserver attaches an event observer such as the metrics collector.
func WithObserver(o Observer) Option {
	return func(e *Engine) { e.observer = o }
}

// WithValidationContext supplies reference data for option-membership rules.
func WithValidationContext(ctx *validation.Context) Option {
	return func(e *Engine) { e.vctx = ctx }
}

// WithEntity opens the wizard in edit mode for entity id, seeded from draft.
// Reset returns to this seed rather than the defaults.
func WithEntity(id string, seed Draft) Option {
	return func(e *Engine) {
		e.mode = ModeUpdate
		e.entityID = id
		e.seed = seed.Clone()
	}
}

// Engine drives one wizard instance.
type Engine struct {
	def       Definition
	submitter Submitter
	notifier  notify.Notifier
	observer  Observer

	mu         sync.Mutex
	vctx       *validation.Context
	mode       Mode
	entityID   string
	seed       Draft
	generation uint64
	state      State
}

// New opens a wizard. A Definition missing its steps, defaults or
// transformer panics.
func New(def Definition, opts ...Option) *Engine {
	if def.Steps == nil || def.Defaults == nil || def.Transform == nil {
		panic(fmt.Sprintf("wizard: definition %q is incomplete", def.Kind))
	}
	if def.AssertionField != "" {
		if _, ok := def.Steps.Field(def.AssertionField); !ok {
			panic(fmt.Sprintf("wizard: assertion field %q is not owned by any step", def.AssertionField))
		}
	}
	e := &Engine{
		def:      def,
		notifier: notify.LogNotifier{},
		observer: nopObserver{},
		mode:     ModeCreate,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.observer == nil {
		e.observer = nopObserver{}
	}
	e.state = e.fresh()
	logging.Debug("Wizard", "Opened %s wizard in %s mode", def.Kind, e.mode)
	return e
}

func (e *Engine) fresh() State {
	draft := e.def.Defaults()
	for k, v := range e.seed {
		if _, ok := e.def.Steps.Field(k); ok {
			draft[k] = cloneValue(v)
		}
	}
	return State{
		Status:     StatusEditing,
		Step:       1,
		TotalSteps: e.def.Steps.Len(),
		Draft:      draft,
		Errors:     ErrorMap{},
		Mode:       e.mode,
		EntityID:   e.entityID,
	}
}

// Definition returns the wizard's definition.
func (e *Engine) Definition() Definition { return e.def }

// GetState returns a snapshot of the current state.
func (e *Engine) GetState() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.clone()
}

// SetValidationContext replaces the reference data used by validators, for
// example once lists fetched on open have arrived.
func (e *Engine) SetValidationContext(ctx *validation.Context) {
	e.mu.Lock()
	e.vctx = ctx
	e.mu.Unlock()
}

// Dispatch applies ev. It is the only way to mutate the wizard.
func (e *Engine) Dispatch(ctx context.Context, ev Event) error {
	var err error
	name := "unknown"
	switch ev := ev.(type) {
	case SetField:
		err = e.setField(ev.Name, ev.Value)
	case Next:
		err = e.next()
	case Previous:
		err = e.previous()
	case Submit:
		err = e.submit(ctx)
	case Reset:
		e.reset()
	case Close:
		err = e.close()
	default:
		err = fmt.Errorf("%w: unsupported event %T", ErrIllegalTransition, ev)
	}
	if ev != nil {
		name = ev.eventName()
	}
	e.observer.ObserveEvent(e.def.Kind, name, outcomeOf(err))
	return err
}

func outcomeOf(err error) string {
	var sve *StepValidationError
	var se *SubmitError
	switch {
	case err == nil:
		return OutcomeOK
	case errors.As(err, &sve):
		return OutcomeInvalid
	case errors.As(err, &se):
		return OutcomeFailed
	case errors.Is(err, ErrSuperseded):
		return OutcomeStale
	default:
		return OutcomeRejected
	}
}

// editable reports why the draft cannot change right now. Caller holds mu.
func (e *Engine) editable() error {
	switch e.state.Status {
	case StatusSubmitting:
		return ErrBusy
	case StatusClosed:
		return ErrClosed
	}
	return nil
}

// touched moves a failed submit back to plain editing. The submit error
// stays visible until the next Submit or Reset.
func (e *Engine) touched() {
	if e.state.Status == StatusSubmitFailed {
		e.state.Status = StatusEditing
	}
}

func (e *Engine) setField(name string, value interface{}) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.editable(); err != nil {
		return err
	}
	f, ok := e.def.Steps.Field(name)
	if !ok {
		return fmt.Errorf("%w %q", ErrUnknownField, name)
	}
	v, err := f.Coerce(value)
	if err != nil {
		return err
	}
	e.state.Draft[name] = v
	delete(e.state.Errors, name)
	e.touched()
	return nil
}

func (e *Engine) next() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.editable(); err != nil {
		return err
	}
	step := e.state.Step
	if e.def.Steps.IsLastStep(step) {
		return fmt.Errorf("%w: step %d is the last step", ErrIllegalTransition, step)
	}
	errs := e.def.Steps.ValidateStep(step, e.state.Draft, e.vctx)
	for _, name := range e.def.Steps.StepFor(step).FieldNames() {
		delete(e.state.Errors, name)
	}
	if len(errs) > 0 {
		for k, v := range errs {
			e.state.Errors[k] = v
		}
		return &StepValidationError{Step: step, Errors: errs.Clone()}
	}
	e.state.Step = step + 1
	e.touched()
	return nil
}

func (e *Engine) previous() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.editable(); err != nil {
		return err
	}
	if e.def.Steps.IsFirstStep(e.state.Step) {
		return fmt.Errorf("%w: already at the first step", ErrIllegalTransition)
	}
	e.state.Step--
	e.touched()
	return nil
}

func (e *Engine) submit(ctx context.Context) error {
	e.mu.Lock()
	if err := e.editable(); err != nil {
		e.mu.Unlock()
		return err
	}
	if e.submitter == nil {
		e.mu.Unlock()
		return ErrNoSubmitter
	}
	if !e.def.Steps.IsLastStep(e.state.Step) {
		step := e.state.Step
		e.mu.Unlock()
		return fmt.Errorf("%w: submit from step %d", ErrIllegalTransition, step)
	}

	payload, err := e.prepare(e.state.Draft)
	if err != nil {
		var sve *StepValidationError
		if errors.As(err, &sve) {
			e.state.Step = sve.Step
			e.state.Errors = sve.Errors.Clone()
			e.state.Status = StatusEditing
		}
		e.mu.Unlock()
		return err
	}

	gen := e.generation
	name := e.state.Draft.String(e.def.NameField)
	req := SubmitRequest{Kind: e.def.Kind, Mode: e.mode, ID: e.entityID, Payload: payload}
	e.state.Status = StatusSubmitting
	e.state.IsSubmitting = true
	e.state.Errors = ErrorMap{}
	e.state.SubmitError = ""
	e.mu.Unlock()

	logging.Debug("Wizard", "Submitting %s %q (%s)", e.def.Kind, name, req.Mode)
	start := time.Now()
	result, err := e.submitter.Submit(ctx, req)
	took := time.Since(start)

	e.mu.Lock()
	if gen != e.generation {
		e.mu.Unlock()
		logging.Debug("Wizard", "Discarding %s submit result after reset", e.def.Kind)
		e.observer.ObserveSubmit(e.def.Kind, OutcomeStale, took)
		return ErrSuperseded
	}
	e.state.IsSubmitting = false
	if err != nil {
		e.state.Status = StatusSubmitFailed
		e.state.SubmitError = err.Error()
	} else {
		e.state.Status = StatusClosed
		e.state.Draft = nil
		if result.ID != "" {
			e.state.EntityID = result.ID
		}
	}
	e.mu.Unlock()

	if err != nil {
		logging.Error("Wizard", err, "Submit of %s %q failed", e.def.Kind, name)
		e.observer.ObserveSubmit(e.def.Kind, OutcomeFailed, took)
		e.notify(notify.KindError, fmt.Sprintf("Failed to %s %s", req.Mode, strings.ToLower(e.def.Title)), err.Error())
		return &SubmitError{Kind: e.def.Kind, Err: err}
	}
	logging.Info("Wizard", "Saved %s %q as %s in %s", e.def.Kind, name, result.ID, took)
	e.observer.ObserveSubmit(e.def.Kind, OutcomeOK, took)
	e.notify(notify.KindSuccess, fmt.Sprintf("%s %sd", e.def.Title, req.Mode), fmt.Sprintf("%q was %sd successfully", name, req.Mode))
	return nil
}

func (e *Engine) notify(kind notify.Kind, title, message string) {
	if e.notifier != nil {
		e.notifier.Notify(kind, title, message)
	}
}

// prepare re-validates every step, then transforms. Failures come back as a
// *StepValidationError naming the step to return to.
func (e *Engine) prepare(d Draft) (interface{}, error) {
	if errs, first := e.def.Steps.ValidateAll(d, e.vctx); first != 0 {
		return nil, &StepValidationError{Step: first, Errors: errs.Clone()}
	}
	payload, err := e.def.Transform(d.Clone())
	if err != nil {
		var te *TransformError
		if !errors.As(err, &te) {
			return nil, fmt.Errorf("transform %s draft: %w", e.def.Kind, err)
		}
		step, ok := e.def.Steps.OwnerOf(te.Field)
		if !ok {
			panic(fmt.Sprintf("wizard: transformer reported unknown field %q", te.Field))
		}
		return nil, &StepValidationError{Step: step, Errors: ErrorMap{te.Field: te.Reason}, Cause: err}
	}
	return payload, nil
}

// Preview validates and transforms the current draft without changing any
// state. It returns the payload a Submit would send.
func (e *Engine) Preview() (interface{}, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state.Status == StatusClosed {
		return nil, ErrClosed
	}
	return e.prepare(e.state.Draft)
}

// Check runs the validator of the step owning name against the current
// draft and returns that field's message, or "" when it passes. State is
// not changed.
func (e *Engine) Check(name string) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state.Status == StatusClosed {
		return "", ErrClosed
	}
	step, ok := e.def.Steps.OwnerOf(name)
	if !ok {
		return "", fmt.Errorf("%w %q", ErrUnknownField, name)
	}
	return e.def.Steps.ValidateStep(step, e.state.Draft, e.vctx)[name], nil
}

func (e *Engine) reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.generation++
	e.state = e.fresh()
}

func (e *Engine) close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	switch e.state.Status {
	case StatusSubmitting:
		return ErrBusy
	case StatusClosed:
		return nil
	}
	e.state.Status = StatusClosed
	e.state.Draft = nil
	e.state.Errors = ErrorMap{}
	return nil
}

// AddAssertion appends a default assertion row and returns its id.
func (e *Engine) AddAssertion() (string, error) {
	var id string
	err := e.editAssertions("add_assertion", func(l assertion.List) (assertion.List, error) {
		var out assertion.List
		out, id = l.Add()
		return out, nil
	})
	return id, err
}

// RemoveAssertion drops the row with id.
func (e *Engine) RemoveAssertion(id string) error {
	return e.editAssertions("remove_assertion", func(l assertion.List) (assertion.List, error) {
		return l.Remove(id)
	})
}

// ChangeAssertionField edits one field of row id. Changing the source
// repairs the comparison and property.
func (e *Engine) ChangeAssertionField(id, field, value string) error {
	return e.editAssertions("change_assertion", func(l assertion.List) (assertion.List, error) {
		return l.ChangeField(id, field, value)
	})
}

func (e *Engine) editAssertions(event string, fn func(assertion.List) (assertion.List, error)) error {
	err := func() error {
		e.mu.Lock()
		defer e.mu.Unlock()
		if err := e.editable(); err != nil {
			return err
		}
		field := e.def.AssertionField
		if field == "" {
			return ErrNoAssertions
		}
		updated, err := fn(e.state.Draft.Assertions(field))
		if err != nil {
			return err
		}
		e.state.Draft[field] = updated
		delete(e.state.Errors, field)
		e.touched()
		return nil
	}()
	e.observer.ObserveEvent(e.def.Kind, event, outcomeOf(err))
	return err
}
