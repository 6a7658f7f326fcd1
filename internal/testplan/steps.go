package testplan

import (
	"fmt"
	"strconv"
	"strings"

	"plancraft/internal/validation"
	"plancraft/internal/wizard"
)

// SuiteOptions is the reference list selected suites are checked against.
const SuiteOptions = "test-suites"

var steps = wizard.NewStepSet(Defaults(),
	wizard.StepDefinition{
		Index: 1,
		Title: "Plan details",
		Fields: []wizard.Field{
			{Name: FieldName, Label: "Plan name", Kind: wizard.KindText},
			{Name: FieldDescription, Label: "Description", Kind: wizard.KindText},
			{Name: FieldTestLab, Label: "Test lab", Kind: wizard.KindText},
			{Name: FieldTestingType, Label: "Testing type", Kind: wizard.KindText},
		},
		Validate: func(d wizard.Draft, ctx *validation.Context) wizard.ErrorMap {
			return wizard.CheckFields(d, ctx, validation.Set{
				FieldName:        {validation.Required("Plan name")},
				FieldTestLab:     {validation.OneOf("Test lab", TestLabs...)},
				FieldTestingType: {validation.OneOf("Testing type", TestingTypes...)},
			})
		},
	},
	wizard.StepDefinition{
		Index: 2,
		Title: "Machines and suites",
		Fields: []wizard.Field{
			{Name: FieldMachineConfigs, Label: "Machine configurations", Kind: wizard.KindStructured, Decode: wizard.DecodeAs[[]MachineConfig]()},
			{Name: FieldSelectedTests, Label: "Test suites", Kind: wizard.KindStructured, Decode: wizard.DecodeAs[[]SuiteRef]()},
		},
		Validate: validateResources,
	},
	wizard.StepDefinition{
		Index: 3,
		Title: "Execution settings",
		Fields: []wizard.Field{
			{Name: FieldScreenshotPolicy, Label: "Screenshot policy", Kind: wizard.KindText},
			{Name: FieldVisualTesting, Label: "Visual testing", Kind: wizard.KindBool},
			{Name: FieldPageLoadTimeout, Label: "Page load timeout", Kind: wizard.KindText},
			{Name: FieldElementTimeout, Label: "Element timeout", Kind: wizard.KindText},
			{Name: FieldOnStepFailure, Label: "On step failure", Kind: wizard.KindText},
			{Name: FieldOnElementNotFound, Label: "On element not found", Kind: wizard.KindText},
			{Name: FieldOnTimeout, Label: "On timeout", Kind: wizard.KindText},
			{Name: FieldOnAssertionFailure, Label: "On assertion failure", Kind: wizard.KindText},
			{Name: FieldOnBrowserCrash, Label: "On browser crash", Kind: wizard.KindText},
			{Name: FieldRerunPolicy, Label: "Re-run policy", Kind: wizard.KindText},
			{Name: FieldNotifyOnStart, Label: "Notify on start", Kind: wizard.KindBool},
			{Name: FieldNotifyOnSuccess, Label: "Notify on success", Kind: wizard.KindBool},
			{Name: FieldNotifyOnFailure, Label: "Notify on failure", Kind: wizard.KindBool},
			{Name: FieldNotifyOnCompletion, Label: "Notify on completion", Kind: wizard.KindBool},
			{Name: FieldNotificationOverrides, Label: "Notification overrides", Kind: wizard.KindText},
		},
		Mirrors: []string{FieldDescription},
		Validate: func(d wizard.Draft, ctx *validation.Context) wizard.ErrorMap {
			return wizard.CheckFields(d, ctx, validation.Set{
				FieldScreenshotPolicy:      {validation.OneOf("Screenshot policy", ScreenshotPolicies...)},
				FieldPageLoadTimeout:       {validation.PositiveInteger("Page load timeout")},
				FieldElementTimeout:        {validation.PositiveInteger("Element timeout")},
				FieldOnStepFailure:         {validation.OneOf("On step failure", StepFailureActions...)},
				FieldOnElementNotFound:     {validation.OneOf("On element not found", ElementNotFound...)},
				FieldOnTimeout:             {validation.OneOf("On timeout", TimeoutActions...)},
				FieldOnAssertionFailure:    {validation.OneOf("On assertion failure", AssertionActions...)},
				FieldOnBrowserCrash:        {validation.OneOf("On browser crash", BrowserCrash...)},
				FieldRerunPolicy:           {validation.OneOf("Re-run policy", RerunPolicies...)},
				FieldNotificationOverrides: {validation.SoftJSON()},
			})
		},
	},
)

func validateResources(d wizard.Draft, ctx *validation.Context) wizard.ErrorMap {
	errs := wizard.ErrorMap{}
	machines, suites := machineConfigs(d), selectedTests(d)
	if err := validation.AtLeastOneOf(FieldMachineConfigs, machines, FieldSelectedTests, suites,
		"Select at least one machine configuration or test suite"); err != nil {
		errs[FieldMachineConfigs] = err.(validation.ValidationError).Message
		return errs
	}
	for i, m := range machines {
		if strings.TrimSpace(m.OS) == "" || strings.TrimSpace(m.Browser) == "" {
			errs[FieldMachineConfigs] = fmt.Sprintf("Machine configuration %d needs an operating system and a browser", i+1)
			break
		}
	}
	if opts, ok := ctx.OptionsFor(SuiteOptions); ok {
		for _, s := range suites {
			id := strconv.Itoa(s.ID)
			if !contains(opts, id) {
				errs[FieldSelectedTests] = fmt.Sprintf("Test suite %d is not available", s.ID)
				break
			}
		}
	}
	return errs
}

func contains(haystack []string, needle string) bool {
	for _, v := range haystack {
		if v == needle {
			return true
		}
	}
	return false
}

// Steps returns the test-plan step layout.
func Steps() *wizard.StepSet { return steps }

// Definition returns the wizard definition for test plans.
func Definition() wizard.Definition {
	return wizard.Definition{
		Kind:      Kind,
		Title:     "Test plan",
		NameField: FieldName,
		Steps:     steps,
		Defaults:  Defaults,
		Transform: func(d wizard.Draft) (interface{}, error) { return ToPayload(d) },
	}
}
