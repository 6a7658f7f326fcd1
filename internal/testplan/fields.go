package testplan

import (
	"github.com/google/uuid"

	"plancraft/internal/wizard"
)

// Kind is the entity collection test plans are submitted to.
const Kind = "test-plans"

// Draft field names.
const (
	FieldName        = "name"
	FieldDescription = "description"
	FieldTestLab     = "testLab"
	FieldTestingType = "testingType"

	FieldMachineConfigs = "machineConfigs"
	FieldSelectedTests  = "selectedTests"

	FieldScreenshotPolicy      = "screenshotPolicy"
	FieldVisualTesting         = "visualTesting"
	FieldPageLoadTimeout       = "pageLoadTimeout"
	FieldElementTimeout        = "elementTimeout"
	FieldOnStepFailure         = "onStepFailure"
	FieldOnElementNotFound     = "onElementNotFound"
	FieldOnTimeout             = "onTimeout"
	FieldOnAssertionFailure    = "onAssertionFailure"
	FieldOnBrowserCrash        = "onBrowserCrash"
	FieldRerunPolicy           = "rerunPolicy"
	FieldNotifyOnStart         = "notifyOnStart"
	FieldNotifyOnSuccess       = "notifyOnSuccess"
	FieldNotifyOnFailure       = "notifyOnFailure"
	FieldNotifyOnCompletion    = "notifyOnCompletion"
	FieldNotificationOverrides = "notificationOverrides"
)

// Choices for the enum fields. The first entry of each is the default.
var (
	TestLabs           = []string{"cloud"}
	TestingTypes       = []string{"functional"}
	ScreenshotPolicies = []string{"on_failure", "always", "never"}
	StepFailureActions = []string{"stop_test", "continue", "retry_step"}
	ElementNotFound    = []string{"fail", "wait_and_retry", "skip"}
	TimeoutActions     = []string{"fail", "retry", "skip"}
	AssertionActions   = []string{"fail", "continue", "screenshot_and_continue"}
	BrowserCrash       = []string{"restart_and_retry", "fail"}
	RerunPolicies      = []string{"none", "failed_only", "all"}
)

// DefaultTimeout is the initial text of both timeout fields.
const DefaultTimeout = "30"

// MachineConfig is one row of the machine-configuration list. RowID only
// keys the row in the UI and never reaches the payload.
type MachineConfig struct {
	RowID          string `json:"rowId,omitempty"`
	OS             string `json:"os"`
	OSVersion      string `json:"osVersion,omitempty"`
	Browser        string `json:"browser"`
	BrowserVersion string `json:"browserVersion,omitempty"`
	Resolution     string `json:"resolution,omitempty"`
}

// NewMachineConfig returns a row with a fresh RowID.
func NewMachineConfig(os, browser string) MachineConfig {
	return MachineConfig{RowID: uuid.NewString(), OS: os, Browser: browser}
}

// SuiteRef is a selected pre-existing test suite. Name is display-only.
type SuiteRef struct {
	ID   int    `json:"id"`
	Name string `json:"name,omitempty"`
	Type string `json:"type"`
}

// Defaults returns a fresh draft for a new test plan.
func Defaults() wizard.Draft {
	return wizard.Draft{
		FieldName:        "",
		FieldDescription: "",
		FieldTestLab:     TestLabs[0],
		FieldTestingType: TestingTypes[0],

		FieldMachineConfigs: []MachineConfig{},
		FieldSelectedTests:  []SuiteRef{},

		FieldScreenshotPolicy:      ScreenshotPolicies[0],
		FieldVisualTesting:         false,
		FieldPageLoadTimeout:       DefaultTimeout,
		FieldElementTimeout:        DefaultTimeout,
		FieldOnStepFailure:         StepFailureActions[0],
		FieldOnElementNotFound:     ElementNotFound[0],
		FieldOnTimeout:             TimeoutActions[0],
		FieldOnAssertionFailure:    AssertionActions[0],
		FieldOnBrowserCrash:        BrowserCrash[0],
		FieldRerunPolicy:           RerunPolicies[0],
		FieldNotifyOnStart:         false,
		FieldNotifyOnSuccess:       false,
		FieldNotifyOnFailure:       true,
		FieldNotifyOnCompletion:    false,
		FieldNotificationOverrides: "",
	}
}

func machineConfigs(d wizard.Draft) []MachineConfig {
	m, _ := d[FieldMachineConfigs].([]MachineConfig)
	return m
}

func selectedTests(d wizard.Draft) []SuiteRef {
	s, _ := d[FieldSelectedTests].([]SuiteRef)
	return s
}
