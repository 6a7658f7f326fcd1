package schedule

import (
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"plancraft/internal/assertion"
	"plancraft/internal/validation"
	"plancraft/internal/wizard"
)

// PlanOptions is the reference list the selected test plan is checked
// against.
const PlanOptions = "test-plans"

var steps = wizard.NewStepSet(Defaults(),
	wizard.StepDefinition{
		Index: 1,
		Title: "Plan and name",
		Fields: []wizard.Field{
			{Name: FieldTestPlanID, Label: "Test plan", Kind: wizard.KindText},
			{Name: FieldName, Label: "Schedule name", Kind: wizard.KindText},
			{Name: FieldEnvironment, Label: "Environment", Kind: wizard.KindText},
		},
		Validate: func(d wizard.Draft, ctx *validation.Context) wizard.ErrorMap {
			return wizard.CheckFields(d, ctx, validation.Set{
				FieldTestPlanID:  {validation.Required("Test plan"), validation.OneOfOptions("Test plan", PlanOptions)},
				FieldName:        {validation.Required("Schedule name")},
				FieldEnvironment: {validation.OneOf("Environment", Environments...)},
			})
		},
	},
	wizard.StepDefinition{
		Index: 2,
		Title: "Browsers",
		Fields: []wizard.Field{
			{Name: FieldBrowsers, Label: "Browsers", Kind: wizard.KindTextList},
		},
		Validate: func(d wizard.Draft, ctx *validation.Context) wizard.ErrorMap {
			return wizard.CheckFields(d, ctx, validation.Set{
				FieldBrowsers: {validation.MinItems("browsers", 1), validation.OneOf("Browsers", Browsers...)},
			})
		},
	},
	wizard.StepDefinition{
		Index: 3,
		Title: "Frequency",
		Fields: []wizard.Field{
			{Name: FieldFrequency, Label: "Frequency", Kind: wizard.KindText},
			{Name: FieldOnceDate, Label: "Date", Kind: wizard.KindText},
			{Name: FieldOnceTime, Label: "Time", Kind: wizard.KindText},
			{Name: FieldDailyTime, Label: "Time", Kind: wizard.KindText},
			{Name: FieldWeeklyDay, Label: "Day of week", Kind: wizard.KindText},
			{Name: FieldWeeklyTime, Label: "Time", Kind: wizard.KindText},
			{Name: FieldMonthlyDay, Label: "Day of month", Kind: wizard.KindText},
			{Name: FieldMonthlyTime, Label: "Time", Kind: wizard.KindText},
			{Name: FieldCronExpression, Label: "Cron expression", Kind: wizard.KindText},
			{Name: FieldTimezone, Label: "Timezone", Kind: wizard.KindText},
		},
		Validate: validateFrequency,
	},
	wizard.StepDefinition{
		Index: 4,
		Title: "Notifications",
		Fields: []wizard.Field{
			{Name: FieldRecipients, Label: "Recipients", Kind: wizard.KindTextList},
			{Name: FieldNotifyOnSuccess, Label: "Notify on success", Kind: wizard.KindBool},
			{Name: FieldNotifyOnFailure, Label: "Notify on failure", Kind: wizard.KindBool},
		},
		Validate: func(d wizard.Draft, ctx *validation.Context) wizard.ErrorMap {
			errs := wizard.CheckFields(d, ctx, validation.Set{
				FieldRecipients: {validation.Emails("Recipients")},
			})
			if len(d.Strings(FieldRecipients)) == 0 && (d.Bool(FieldNotifyOnSuccess) || d.Bool(FieldNotifyOnFailure)) {
				errs[FieldRecipients] = "Add at least one recipient or turn notifications off"
			}
			return errs
		},
	},
	wizard.StepDefinition{
		Index: 5,
		Title: "Execution",
		Fields: []wizard.Field{
			{Name: FieldExecutionParameters, Label: "Execution parameters", Kind: wizard.KindText},
			{Name: FieldRetryEnabled, Label: "Retry failed runs", Kind: wizard.KindBool},
			{Name: FieldMaxRetries, Label: "Max retries", Kind: wizard.KindText},
			{Name: FieldIsActive, Label: "Active", Kind: wizard.KindBool},
			{Name: FieldAssertions, Label: "Assertions", Kind: wizard.KindStructured, Decode: wizard.DecodeAs[assertion.List]()},
		},
		Validate: validateExecution,
	},
	wizard.StepDefinition{
		Index:   6,
		Title:   "Summary",
		Mirrors: []string{FieldTestPlanID, FieldName, FieldEnvironment, FieldBrowsers, FieldFrequency, FieldTimezone, FieldRecipients, FieldIsActive},
	},
)

func validateFrequency(d wizard.Draft, ctx *validation.Context) wizard.ErrorMap {
	freq := Frequency(d.String(FieldFrequency))
	rules := validation.Set{
		FieldFrequency: {validation.OneOf("Frequency", Frequencies...)},
		FieldTimezone:  {validation.Required("Timezone"), timezone},
	}
	switch freq {
	case Once:
		rules[FieldOnceDate] = []validation.Rule{validation.Required("Date"), validation.CalendarDate("Date")}
		rules[FieldOnceTime] = []validation.Rule{validation.TimeOfDay("Time")}
	case Daily:
		rules[FieldDailyTime] = []validation.Rule{validation.TimeOfDay("Time")}
	case Weekly:
		rules[FieldWeeklyDay] = []validation.Rule{validation.OneOf("Day of week", Weekdays...)}
		rules[FieldWeeklyTime] = []validation.Rule{validation.TimeOfDay("Time")}
	case Monthly:
		rules[FieldMonthlyDay] = []validation.Rule{validation.IntegerRange("Day of month", 1, 31)}
		rules[FieldMonthlyTime] = []validation.Rule{validation.TimeOfDay("Time")}
	case CustomCron:
		rules[FieldCronExpression] = []validation.Rule{validation.Required("Cron expression"), cronExpression}
	}
	return wizard.CheckFields(d, ctx, rules)
}

func timezone(field string, value interface{}, _ *validation.Context) error {
	s, _ := value.(string)
	if _, err := time.LoadLocation(strings.TrimSpace(s)); err != nil {
		return validation.ValidationError{Field: field, Value: value, Message: fmt.Sprintf("Unknown timezone %q", s)}
	}
	return nil
}

func cronExpression(field string, value interface{}, _ *validation.Context) error {
	s, _ := value.(string)
	if _, err := cron.ParseStandard(strings.TrimSpace(s)); err != nil {
		return validation.ValidationError{Field: field, Value: value, Message: fmt.Sprintf("Cron expression is invalid: %v", err)}
	}
	return nil
}

func validateExecution(d wizard.Draft, ctx *validation.Context) wizard.ErrorMap {
	rules := validation.Set{
		FieldExecutionParameters: {validation.SoftJSON()},
	}
	if d.Bool(FieldRetryEnabled) {
		rules[FieldMaxRetries] = []validation.Rule{validation.IntegerRange("Max retries", 1, MaxRetries)}
	}
	errs := wizard.CheckFields(d, ctx, rules)

	var problems []string
	for i, r := range d.Assertions(FieldAssertions) {
		for _, p := range assertion.Check(r) {
			problems = append(problems, fmt.Sprintf("Assertion %d: %s", i+1, p))
		}
	}
	if len(problems) > 0 {
		errs[FieldAssertions] = strings.Join(problems, "; ")
	}
	return errs
}

// Steps returns the schedule step layout.
func Steps() *wizard.StepSet { return steps }

// Definition returns the wizard definition for schedules.
func Definition() wizard.Definition {
	return wizard.Definition{
		Kind:           Kind,
		Title:          "Schedule",
		NameField:      FieldName,
		AssertionField: FieldAssertions,
		Steps:          steps,
		Defaults:       Defaults,
		Transform:      func(d wizard.Draft) (interface{}, error) { return ToPayload(d) },
	}
}
