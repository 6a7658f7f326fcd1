package wizard

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"plancraft/internal/assertion"
	"plancraft/internal/notify"
	"plancraft/internal/validation"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestNewStartsAtFirstStepWithDefaults(t *testing.T) {
	eng, _ := newFixtureEngine()
	st := eng.GetState()

	assert.Equal(t, StatusEditing, st.Status)
	assert.Equal(t, 1, st.Step)
	assert.Equal(t, 3, st.TotalSteps)
	assert.Equal(t, ModeCreate, st.Mode)
	assert.Equal(t, fixtureDefaults(), st.Draft)
	assert.Empty(t, st.Errors)
	assert.False(t, st.IsSubmitting)
}

func TestNewPanicsOnIncompleteDefinition(t *testing.T) {
	def := fixtureDefinition()
	def.Transform = nil
	assert.Panics(t, func() { New(def) })

	def = fixtureDefinition()
	def.AssertionField = "nope"
	assert.Panics(t, func() { New(def) })
}

func TestNextIsGatedByStepValidation(t *testing.T) {
	ctx := context.Background()

	t.Run("step 1 invalid", func(t *testing.T) {
		eng, _ := newFixtureEngine()
		require.NoError(t, eng.Dispatch(ctx, SetField{Name: "name", Value: "   "}))

		err := eng.Dispatch(ctx, Next{})
		var sve *StepValidationError
		require.ErrorAs(t, err, &sve)
		assert.Equal(t, 1, sve.Step)

		st := eng.GetState()
		assert.Equal(t, 1, st.Step)
		assert.Equal(t, "Name is required", st.Errors["name"])
	})

	t.Run("step 2 invalid for every bad count", func(t *testing.T) {
		for _, bad := range []string{"0", "-5", "", "abc"} {
			eng, _ := newFixtureEngine()
			require.NoError(t, eng.Dispatch(ctx, SetField{Name: "name", Value: "ok"}))
			require.NoError(t, eng.Dispatch(ctx, Next{}))
			require.NoError(t, eng.Dispatch(ctx, SetField{Name: "count", Value: bad}))

			err := eng.Dispatch(ctx, Next{})
			assert.Error(t, err, bad)
			st := eng.GetState()
			assert.Equal(t, 2, st.Step, bad)
			assert.NotEmpty(t, st.Errors["count"], bad)
		}
	})

	t.Run("valid steps advance", func(t *testing.T) {
		eng, _ := newFixtureEngine()
		require.NoError(t, fillValid(ctx, eng))
		assert.Equal(t, 3, eng.GetState().Step)
	})

	t.Run("next at last step is illegal", func(t *testing.T) {
		eng, _ := newFixtureEngine()
		require.NoError(t, fillValid(ctx, eng))
		assert.ErrorIs(t, eng.Dispatch(ctx, Next{}), ErrIllegalTransition)
		assert.Equal(t, 3, eng.GetState().Step)
	})
}

func TestSetFieldClearsThatFieldsError(t *testing.T) {
	ctx := context.Background()
	eng, _ := newFixtureEngine()

	require.Error(t, eng.Dispatch(ctx, Next{}))
	require.Contains(t, eng.GetState().Errors, "name")

	require.NoError(t, eng.Dispatch(ctx, SetField{Name: "name", Value: "x"}))
	assert.NotContains(t, eng.GetState().Errors, "name")
}

func TestSetFieldRejectsUnknownAndMistypedValues(t *testing.T) {
	ctx := context.Background()
	eng, _ := newFixtureEngine()

	assert.ErrorIs(t, eng.Dispatch(ctx, SetField{Name: "nope", Value: "x"}), ErrUnknownField)
	assert.Error(t, eng.Dispatch(ctx, SetField{Name: "tags", Value: 12}))
	assert.Equal(t, []string{}, eng.GetState().Draft["tags"])
}

func TestPreviousIsUnconditional(t *testing.T) {
	ctx := context.Background()
	eng, _ := newFixtureEngine()
	require.NoError(t, fillValid(ctx, eng))

	// Corrupt every step, then walk back.
	require.NoError(t, eng.Dispatch(ctx, SetField{Name: "name", Value: ""}))
	require.NoError(t, eng.Dispatch(ctx, SetField{Name: "count", Value: "-1"}))

	require.NoError(t, eng.Dispatch(ctx, Previous{}))
	assert.Equal(t, 2, eng.GetState().Step)
	require.NoError(t, eng.Dispatch(ctx, Previous{}))
	assert.Equal(t, 1, eng.GetState().Step)
	assert.Empty(t, eng.GetState().Errors)

	assert.ErrorIs(t, eng.Dispatch(ctx, Previous{}), ErrIllegalTransition)
	assert.Equal(t, 1, eng.GetState().Step)
}

func TestSubmitRevalidatesEveryStep(t *testing.T) {
	ctx := context.Background()
	sub := &countingSubmitter{id: "1"}
	eng, rec := newFixtureEngine(WithSubmitter(sub))
	require.NoError(t, fillValid(ctx, eng))

	// Step 1 passed earlier and is broken again from the last step.
	require.NoError(t, eng.Dispatch(ctx, SetField{Name: "name", Value: ""}))

	err := eng.Dispatch(ctx, Submit{})
	var sve *StepValidationError
	require.ErrorAs(t, err, &sve)
	assert.Equal(t, 1, sve.Step)

	st := eng.GetState()
	assert.Equal(t, StatusEditing, st.Status)
	assert.Equal(t, 1, st.Step)
	assert.Equal(t, "Name is required", st.Errors["name"])
	assert.Zero(t, sub.calls())
	assert.Empty(t, rec.Entries())
}

func TestSubmitOnlyFromLastStep(t *testing.T) {
	eng, _ := newFixtureEngine(WithSubmitter(&countingSubmitter{}))
	assert.ErrorIs(t, eng.Dispatch(context.Background(), Submit{}), ErrIllegalTransition)
}

func TestSubmitWithoutSubmitter(t *testing.T) {
	ctx := context.Background()
	eng, _ := newFixtureEngine()
	require.NoError(t, fillValid(ctx, eng))
	assert.ErrorIs(t, eng.Dispatch(ctx, Submit{}), ErrNoSubmitter)
	assert.Equal(t, StatusEditing, eng.GetState().Status)
}

func TestSubmitRoutesTransformErrorToOwningStep(t *testing.T) {
	ctx := context.Background()
	sub := &countingSubmitter{}
	eng, _ := newFixtureEngine(WithSubmitter(sub))
	require.NoError(t, fillValid(ctx, eng))

	// Malformed JSON is accepted while typing.
	require.NoError(t, eng.Dispatch(ctx, SetField{Name: "extras", Value: `{"a":`}))
	require.NoError(t, eng.Dispatch(ctx, Previous{}))
	require.NoError(t, eng.Dispatch(ctx, Next{}))

	err := eng.Dispatch(ctx, Submit{})
	var sve *StepValidationError
	require.ErrorAs(t, err, &sve)
	assert.True(t, IsTransformError(err))
	assert.Equal(t, 3, sve.Step)

	st := eng.GetState()
	assert.Equal(t, StatusEditing, st.Status)
	assert.Equal(t, "invalid JSON", st.Errors["extras"])
	assert.Empty(t, st.SubmitError)
	assert.Zero(t, sub.calls())
}

func TestSubmitSuccessClosesAndNotifies(t *testing.T) {
	ctx := context.Background()
	sub := &countingSubmitter{id: "w-7"}
	obs := &recordingObserver{}
	eng, rec := newFixtureEngine(WithSubmitter(sub), WithObserver(obs))
	require.NoError(t, fillValid(ctx, eng))
	require.NoError(t, eng.Dispatch(ctx, SetField{Name: "extras", Value: `{"region":"eu"}`}))

	require.NoError(t, eng.Dispatch(ctx, Submit{}))

	st := eng.GetState()
	assert.Equal(t, StatusClosed, st.Status)
	assert.Nil(t, st.Draft)
	assert.Equal(t, "w-7", st.EntityID)

	require.Equal(t, 1, sub.calls())
	req := sub.reqs[0]
	assert.Equal(t, "widgets", req.Kind)
	assert.Equal(t, ModeCreate, req.Mode)
	assert.Equal(t, fixturePayload{
		Name:   "Nightly",
		Count:  30,
		Tags:   []string{"a", "b"},
		Extras: map[string]interface{}{"region": "eu"},
		Checks: []assertion.Wire{},
	}, req.Payload)

	assert.Equal(t, []notify.Entry{{Kind: notify.KindSuccess, Title: "Widget created", Message: `"Nightly" was created successfully`}}, rec.Entries())
	assert.Equal(t, []string{OutcomeOK}, obs.submits)
	assert.Contains(t, obs.events, observed{"submit", OutcomeOK})

	assert.ErrorIs(t, eng.Dispatch(ctx, SetField{Name: "name", Value: "x"}), ErrClosed)
	assert.ErrorIs(t, eng.Dispatch(ctx, Next{}), ErrClosed)
}

func TestSubmitFailureKeepsWizardOpenForRetry(t *testing.T) {
	ctx := context.Background()
	sub := &countingSubmitter{err: errors.New("503 service unavailable")}
	obs := &recordingObserver{}
	eng, rec := newFixtureEngine(WithSubmitter(sub), WithObserver(obs))
	require.NoError(t, fillValid(ctx, eng))

	err := eng.Dispatch(ctx, Submit{})
	var se *SubmitError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "widgets", se.Kind)

	st := eng.GetState()
	assert.Equal(t, StatusSubmitFailed, st.Status)
	assert.Equal(t, 3, st.Step)
	assert.Equal(t, "503 service unavailable", st.SubmitError)
	assert.Equal(t, "Nightly", st.Draft.String("name"))
	assert.Equal(t, []notify.Entry{{Kind: notify.KindError, Title: "Failed to create widget", Message: "503 service unavailable"}}, rec.Entries())
	assert.Contains(t, obs.events, observed{"submit", OutcomeFailed})

	// Behaves like the last editing step: fields can change and submit retries.
	require.NoError(t, eng.Dispatch(ctx, SetField{Name: "count", Value: "12"}))
	assert.Equal(t, StatusEditing, eng.GetState().Status)
	assert.Equal(t, "503 service unavailable", eng.GetState().SubmitError)

	sub.mu.Lock()
	sub.err = nil
	sub.id = "w-8"
	sub.mu.Unlock()
	require.NoError(t, eng.Dispatch(ctx, Submit{}))
	assert.Equal(t, StatusClosed, eng.GetState().Status)
	assert.Equal(t, 2, sub.calls())
}

func TestSubmitFailedAllowsNavigatingBack(t *testing.T) {
	ctx := context.Background()
	eng, _ := newFixtureEngine(WithSubmitter(&countingSubmitter{err: errors.New("boom")}))
	require.NoError(t, fillValid(ctx, eng))
	require.Error(t, eng.Dispatch(ctx, Submit{}))

	require.NoError(t, eng.Dispatch(ctx, Previous{}))
	assert.Equal(t, 2, eng.GetState().Step)
	assert.Equal(t, StatusEditing, eng.GetState().Status)
}

func TestEventsAreRejectedWhileSubmitting(t *testing.T) {
	ctx := context.Background()
	sub := newGateSubmitter()
	eng, rec := newFixtureEngine(WithSubmitter(sub))
	require.NoError(t, fillValid(ctx, eng))

	done := make(chan error, 1)
	go func() { done <- eng.Dispatch(ctx, Submit{}) }()
	<-sub.started

	st := eng.GetState()
	assert.Equal(t, StatusSubmitting, st.Status)
	assert.True(t, st.IsSubmitting)

	for _, ev := range []Event{SetField{Name: "name", Value: "x"}, Next{}, Previous{}, Submit{}, Close{}} {
		assert.ErrorIs(t, eng.Dispatch(ctx, ev), ErrBusy, "%T", ev)
	}
	_, err := eng.AddAssertion()
	assert.ErrorIs(t, err, ErrBusy)

	sub.release <- nil
	require.NoError(t, <-done)
	assert.Equal(t, StatusClosed, eng.GetState().Status)
	assert.Equal(t, "gate-1", eng.GetState().EntityID)
	assert.Len(t, rec.Entries(), 1)
}

func TestResetDuringSubmitDiscardsResult(t *testing.T) {
	ctx := context.Background()
	sub := newGateSubmitter()
	obs := &recordingObserver{}
	eng, rec := newFixtureEngine(WithSubmitter(sub), WithObserver(obs))
	require.NoError(t, fillValid(ctx, eng))

	done := make(chan error, 1)
	go func() { done <- eng.Dispatch(ctx, Submit{}) }()
	<-sub.started

	require.NoError(t, eng.Dispatch(ctx, Reset{}))
	sub.release <- errors.New("late failure")
	assert.ErrorIs(t, <-done, ErrSuperseded)

	st := eng.GetState()
	assert.Equal(t, StatusEditing, st.Status)
	assert.Equal(t, 1, st.Step)
	assert.Equal(t, fixtureDefaults(), st.Draft)
	assert.Empty(t, st.SubmitError)
	assert.Empty(t, rec.Entries())
	assert.Equal(t, []string{OutcomeStale}, obs.submits)
}

func TestResetFromAnyState(t *testing.T) {
	ctx := context.Background()

	eng, _ := newFixtureEngine(WithSubmitter(&countingSubmitter{err: errors.New("boom")}))
	require.NoError(t, fillValid(ctx, eng))
	require.Error(t, eng.Dispatch(ctx, Submit{}))
	require.NoError(t, eng.Dispatch(ctx, Reset{}))

	st := eng.GetState()
	assert.Equal(t, StatusEditing, st.Status)
	assert.Equal(t, 1, st.Step)
	assert.Empty(t, st.SubmitError)
	assert.Equal(t, fixtureDefaults(), st.Draft)

	require.NoError(t, eng.Dispatch(ctx, Close{}))
	require.NoError(t, eng.Dispatch(ctx, Reset{}))
	assert.Equal(t, StatusEditing, eng.GetState().Status)
}

func TestCloseDiscardsDraft(t *testing.T) {
	ctx := context.Background()
	eng, _ := newFixtureEngine()
	require.NoError(t, eng.Dispatch(ctx, SetField{Name: "name", Value: "x"}))

	require.NoError(t, eng.Dispatch(ctx, Close{}))
	st := eng.GetState()
	assert.Equal(t, StatusClosed, st.Status)
	assert.Nil(t, st.Draft)

	assert.NoError(t, eng.Dispatch(ctx, Close{}))
	_, err := eng.Preview()
	assert.ErrorIs(t, err, ErrClosed)
}

func TestEditModeSeedsAndResetsToEntity(t *testing.T) {
	ctx := context.Background()
	seed := Draft{"name": "Existing", "count": "7", "tags": []string{"x"}}
	sub := &countingSubmitter{id: "ignored"}
	eng, rec := newFixtureEngine(WithEntity("42", seed), WithSubmitter(sub))

	st := eng.GetState()
	assert.Equal(t, ModeUpdate, st.Mode)
	assert.Equal(t, "42", st.EntityID)
	assert.Equal(t, "Existing", st.Draft.String("name"))
	assert.Equal(t, "", st.Draft.String("extras"))

	require.NoError(t, eng.Dispatch(ctx, SetField{Name: "name", Value: "Changed"}))
	require.NoError(t, eng.Dispatch(ctx, Reset{}))
	assert.Equal(t, "Existing", eng.GetState().Draft.String("name"))

	// The seed is copied; mutating the caller's map has no effect.
	seed.Strings("tags")[0] = "mutated"
	assert.Equal(t, []string{"x"}, eng.GetState().Draft.Strings("tags"))

	require.NoError(t, eng.Dispatch(ctx, Next{}))
	require.NoError(t, eng.Dispatch(ctx, Next{}))
	require.NoError(t, eng.Dispatch(ctx, Submit{}))
	assert.Equal(t, ModeUpdate, sub.reqs[0].Mode)
	assert.Equal(t, "42", sub.reqs[0].ID)
	assert.Equal(t, "Widget updated", rec.Entries()[0].Title)
}

func TestGetStateReturnsACopy(t *testing.T) {
	ctx := context.Background()
	eng, _ := newFixtureEngine()
	require.NoError(t, eng.Dispatch(ctx, SetField{Name: "tags", Value: []string{"a"}}))

	st := eng.GetState()
	st.Draft["name"] = "hacked"
	st.Draft.Strings("tags")[0] = "hacked"
	st.Errors["name"] = "hacked"

	again := eng.GetState()
	assert.Equal(t, "", again.Draft.String("name"))
	assert.Equal(t, []string{"a"}, again.Draft.Strings("tags"))
	assert.Empty(t, again.Errors)
}

func TestHiddenFieldsKeepTheirValues(t *testing.T) {
	ctx := context.Background()
	eng, _ := newFixtureEngine()
	require.NoError(t, eng.Dispatch(ctx, SetField{Name: "extras", Value: `{"kept":true}`}))
	require.NoError(t, eng.Dispatch(ctx, SetField{Name: "name", Value: "a"}))
	require.NoError(t, eng.Dispatch(ctx, SetField{Name: "name", Value: "b"}))
	assert.Equal(t, `{"kept":true}`, eng.GetState().Draft.String("extras"))
}

func TestAssertionSubAPI(t *testing.T) {
	ctx := context.Background()
	obs := &recordingObserver{}
	eng, _ := newFixtureEngine(WithObserver(obs))

	id, err := eng.AddAssertion()
	require.NoError(t, err)
	require.NotEmpty(t, id)

	checks := eng.GetState().Draft.Assertions("checks")
	require.Len(t, checks, 1)
	assert.Equal(t, assertion.New().Source, checks[0].Source)

	require.NoError(t, eng.ChangeAssertionField(id, assertion.FieldSource, "response_time"))
	r, _ := eng.GetState().Draft.Assertions("checks").Find(id)
	assert.Equal(t, assertion.SourceResponseTime, r.Source)
	assert.Equal(t, assertion.GreaterThan, r.Comparison)

	require.NoError(t, eng.ChangeAssertionField(id, assertion.FieldSource, "header"))
	r, _ = eng.GetState().Draft.Assertions("checks").Find(id)
	assert.Equal(t, assertion.Equals, r.Comparison)
	assert.Equal(t, "", r.Property)

	// A header assertion without a name blocks submit at the owning step.
	require.NoError(t, fillValid(ctx, eng))
	eng.submitter = &countingSubmitter{}
	err = eng.Dispatch(ctx, Submit{})
	var sve *StepValidationError
	require.ErrorAs(t, err, &sve)
	assert.Equal(t, 3, sve.Step)
	assert.Contains(t, eng.GetState().Errors["checks"], "header name is required")

	// Editing the list clears its error.
	require.NoError(t, eng.ChangeAssertionField(id, assertion.FieldProperty, "X-Trace"))
	assert.NotContains(t, eng.GetState().Errors, "checks")

	assert.Error(t, eng.ChangeAssertionField("missing", assertion.FieldSource, "header"))
	assert.Error(t, eng.ChangeAssertionField(id, assertion.FieldSource, "carrier_pigeon"))
	require.NoError(t, eng.RemoveAssertion(id))
	assert.Empty(t, eng.GetState().Draft.Assertions("checks"))
	assert.Error(t, eng.RemoveAssertion(id))

	assert.Contains(t, obs.events, observed{"add_assertion", OutcomeOK})
	assert.Contains(t, obs.events, observed{"remove_assertion", OutcomeRejected})
}

func TestAssertionSubAPIWithoutAssertionField(t *testing.T) {
	def := fixtureDefinition()
	def.AssertionField = ""
	eng := New(def, WithNotifier(&notify.Recorder{}))

	_, err := eng.AddAssertion()
	assert.ErrorIs(t, err, ErrNoAssertions)
}

func TestPreviewDoesNotChangeState(t *testing.T) {
	ctx := context.Background()
	eng, _ := newFixtureEngine()

	_, err := eng.Preview()
	var sve *StepValidationError
	require.ErrorAs(t, err, &sve)
	assert.Equal(t, 1, sve.Step)
	assert.Empty(t, eng.GetState().Errors)

	require.NoError(t, fillValid(ctx, eng))
	payload, err := eng.Preview()
	require.NoError(t, err)
	assert.Equal(t, "Nightly", payload.(fixturePayload).Name)
	assert.Equal(t, StatusEditing, eng.GetState().Status)
}

func TestCheckReportsSingleField(t *testing.T) {
	ctx := context.Background()
	eng, _ := newFixtureEngine()

	msg, err := eng.Check("name")
	require.NoError(t, err)
	assert.Equal(t, "Name is required", msg)

	require.NoError(t, eng.Dispatch(ctx, SetField{Name: "count", Value: "30.5"}))
	msg, err = eng.Check("count")
	require.NoError(t, err)
	assert.Empty(t, msg)

	_, err = eng.Check("nope")
	assert.ErrorIs(t, err, ErrUnknownField)
}

func TestValidationContextIsPassedToValidators(t *testing.T) {
	var seen *validation.Context
	def := fixtureDefinition()
	def.Steps = NewStepSet(fixtureDefaults(),
		StepDefinition{Index: 1, Fields: []Field{{Name: "name", Kind: KindText}}, Validate: func(_ Draft, ctx *validation.Context) ErrorMap {
			seen = ctx
			return nil
		}},
		StepDefinition{Index: 2, Fields: []Field{{Name: "count", Kind: KindText}, {Name: "tags", Kind: KindTextList}}},
		StepDefinition{Index: 3, Fields: []Field{{Name: "extras", Kind: KindText}, {Name: "checks", Kind: KindStructured, Decode: DecodeAs[assertion.List]()}}},
	)
	vctx := &validation.Context{Options: map[string][]string{"plans": {"1"}}}
	eng := New(def, WithNotifier(&notify.Recorder{}))
	eng.SetValidationContext(vctx)

	require.NoError(t, eng.Dispatch(context.Background(), Next{}))
	assert.Same(t, vctx, seen)
}

func TestObserverSeesEveryDispatch(t *testing.T) {
	ctx := context.Background()
	obs := &recordingObserver{}
	eng, _ := newFixtureEngine(WithObserver(obs))

	_ = eng.Dispatch(ctx, Next{})
	_ = eng.Dispatch(ctx, Previous{})
	_ = eng.Dispatch(ctx, SetField{Name: "name", Value: "a"})
	_ = eng.Dispatch(ctx, nil)

	assert.Equal(t, []observed{
		{"next", OutcomeInvalid},
		{"previous", OutcomeRejected},
		{"set_field", OutcomeOK},
		{"unknown", OutcomeRejected},
	}, obs.events)
}
