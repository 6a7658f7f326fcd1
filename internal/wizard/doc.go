// Package wizard implements the multi-step form engine behind the test-plan
// and schedule wizards.
//
// A wizard is described by a Definition: an ordered StepSet whose steps each
// own a subset of the draft's fields and validate them, a defaults factory,
// and a transformer that turns a finished draft into the canonical request
// payload. The Engine holds the live State and is mutated only through
// Dispatch:
//
//	eng := wizard.New(testplan.Definition(), wizard.WithSubmitter(apiClient))
//	_ = eng.Dispatch(ctx, wizard.SetField{Name: "name", Value: "Checkout Flow"})
//	if err := eng.Dispatch(ctx, wizard.Next{}); err != nil {
//	    // *StepValidationError: the step did not validate, Errors is populated
//	}
//
// # State machine
//
//   - editing(i): SetField always; Next when i < last and step i validates;
//     Previous when i > 1, without validation; Submit only at the last step.
//   - submitting: the submit collaborator is running. SetField, Next,
//     Previous, Submit and Close return ErrBusy. Reset is accepted and the
//     in-flight outcome is discarded when it arrives.
//   - submit_failed: behaves like editing(last) and keeps SubmitError.
//   - closed: terminal until Reset.
//
// Submit re-validates every step, returns to the first failing one, and only
// then runs the transformer. A TransformError (malformed free-text JSON) is
// reported against the step owning the field, like a field error.
//
// Fields hidden by a conditional branch keep their draft values; the
// transformer decides which branch feeds the payload.
//
// # Concurrency
//
// An Engine is safe for concurrent use. The submit collaborator is called
// with the engine lock released and the state pinned to submitting, so a
// host UI can keep rendering GetState while a request is in flight. There is
// no cancellation of an issued submit.
package wizard
