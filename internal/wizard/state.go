package wizard

// Status is the engine's lifecycle state.
type Status string

const (
	StatusEditing      Status = "editing"
	StatusSubmitting   Status = "submitting"
	StatusSubmitFailed Status = "submit_failed"
	StatusClosed       Status = "closed"
)

// State is a read-only snapshot for rendering. Each GetState call returns
// an independent copy.
type State struct {
	Status       Status   `json:"status"`
	Step         int      `json:"step"`
	TotalSteps   int      `json:"totalSteps"`
	Draft        Draft    `json:"draft,omitempty"`
	Errors       ErrorMap `json:"errors,omitempty"`
	IsSubmitting bool     `json:"isSubmitting"`
	SubmitError  string   `json:"submitError,omitempty"`
	Mode         Mode     `json:"mode"`
	EntityID     string   `json:"entityId,omitempty"`
}

func (s State) clone() State {
	s.Draft = s.Draft.Clone()
	s.Errors = s.Errors.Clone()
	return s
}

// Event is one of SetField, Next, Previous, Submit, Reset or Close.
type Event interface {
	eventName() string
}

// SetField stores Value under Name after coercing it to the field's kind.
type SetField struct {
	Name  string
	Value interface{}
}

// Next validates the current step and advances.
type Next struct{}

// Previous moves back one step without validating.
type Previous struct{}

// Submit validates every step, transforms the draft and hands the payload to
// the Submitter.
type Submit struct{}

// Reset returns to step 1 with the defaults or the edit-mode seed.
type Reset struct{}

// Close discards the draft.
type Close struct{}

func (SetField) eventName() string { return "set_field" }
func (Next) eventName() string     { return "next" }
func (Previous) eventName() string { return "previous" }
func (Submit) eventName() string   { return "submit" }
func (Reset) eventName() string    { return "reset" }
func (Close) eventName() string    { return "close" }
