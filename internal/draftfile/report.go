package draftfile

import (
	"context"
	"sort"
	"strconv"

	"plancraft/internal/validation"
	"plancraft/internal/wizard"
)

// Report is the outcome of checking a draft against every step.
type Report struct {
	Valid            bool            `json:"valid"`
	FirstInvalidStep int             `json:"firstInvalidStep,omitempty"`
	StepTitle        string          `json:"stepTitle,omitempty"`
	Errors           wizard.ErrorMap `json:"errors,omitempty"`
	// Problems are input values that could not be applied at all.
	Problems []string `json:"problems,omitempty"`
}

// Check applies values to a fresh engine for def and validates every step
// against vctx. The engine is returned so callers can go on to preview or
// submit the same draft.
func Check(ctx context.Context, def wizard.Definition, values map[string]interface{}, vctx *validation.Context, opts ...wizard.Option) (*wizard.Engine, Report) {
	opts = append([]wizard.Option{wizard.WithValidationContext(vctx)}, opts...)
	eng := wizard.New(def, opts...)

	var report Report
	if err := Apply(ctx, eng, values); err != nil {
		if joined, ok := err.(interface{ Unwrap() []error }); ok {
			for _, e := range joined.Unwrap() {
				report.Problems = append(report.Problems, e.Error())
			}
		} else {
			report.Problems = append(report.Problems, err.Error())
		}
	}

	errs, first := def.Steps.ValidateAll(eng.GetState().Draft, vctx)
	report.Errors = errs.Clone()
	report.FirstInvalidStep = first
	if first != 0 {
		report.StepTitle = def.Steps.StepFor(first).Title
	}
	report.Valid = first == 0 && len(report.Problems) == 0
	return eng, report
}

// Rows lists the report as STEP, FIELD, ERROR rows ordered by step, then by
// field position. Problems come first with an empty step.
func (r Report) Rows(steps *wizard.StepSet) [][]string {
	rows := make([][]string, 0, len(r.Problems)+len(r.Errors))
	for _, p := range r.Problems {
		rows = append(rows, []string{"", "", p})
	}

	order := map[string]int{}
	for i, name := range steps.FieldNames() {
		order[name] = i
	}
	fields := make([]string, 0, len(r.Errors))
	for name := range r.Errors {
		fields = append(fields, name)
	}
	sort.Slice(fields, func(i, j int) bool { return order[fields[i]] < order[fields[j]] })

	for _, name := range fields {
		step := ""
		if i, ok := steps.OwnerOf(name); ok {
			step = strconv.Itoa(i)
		}
		rows = append(rows, []string{step, name, r.Errors[name]})
	}
	return rows
}
