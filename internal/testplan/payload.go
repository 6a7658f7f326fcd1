package testplan

import (
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"plancraft/internal/validation"
	"plancraft/internal/wizard"
)

// Payload is the canonical request body for a test plan.
type Payload struct {
	Name               string          `json:"name"`
	Description        string          `json:"description"`
	TestLab            string          `json:"testLab"`
	TestingType        string          `json:"testingType"`
	TestMachinesConfig []MachineSpec   `json:"testMachinesConfig"`
	SelectedTests      []TestRef       `json:"selectedTests"`
	ScreenshotPolicy   string          `json:"screenshotPolicy"`
	VisualTesting      bool            `json:"visualTesting"`
	PageLoadTimeout    int             `json:"pageLoadTimeout"`
	ElementTimeout     int             `json:"elementTimeout"`
	FailureHandling    FailureHandling `json:"failureHandling"`
	RerunPolicy        string          `json:"rerunPolicy"`
	Notifications      Notifications   `json:"notifications"`
}

// MachineSpec is a machine configuration as the execution service sees it.
type MachineSpec struct {
	OS             string `json:"os"`
	OSVersion      string `json:"osVersion,omitempty"`
	Browser        string `json:"browser"`
	BrowserVersion string `json:"browserVersion,omitempty"`
	Resolution     string `json:"resolution,omitempty"`
}

// TestRef references an existing test suite.
type TestRef struct {
	ID   int    `json:"id"`
	Type string `json:"type"`
}

// FailureHandling groups the five failure-handling choices.
type FailureHandling struct {
	OnStepFailure      string `json:"onStepFailure"`
	OnElementNotFound  string `json:"onElementNotFound"`
	OnTimeout          string `json:"onTimeout"`
	OnAssertionFailure string `json:"onAssertionFailure"`
	OnBrowserCrash     string `json:"onBrowserCrash"`
}

// Notifications holds the notification toggles and free-form overrides.
type Notifications struct {
	OnStart      bool                   `json:"onStart"`
	OnSuccess    bool                   `json:"onSuccess"`
	OnFailure    bool                   `json:"onFailure"`
	OnCompletion bool                   `json:"onCompletion"`
	Overrides    map[string]interface{} `json:"overrides,omitempty"`
}

// Entity is a persisted test plan: the payload plus server-assigned fields.
type Entity struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
	UpdatedAt time.Time `json:"updatedAt,omitempty"`
	Payload
}

// ToPayload converts a draft. Numeric text is parsed with the same
// truncating rule the validators use; overrides text must be a JSON object.
func ToPayload(d wizard.Draft) (Payload, error) {
	pageLoad, err := timeout(d, FieldPageLoadTimeout)
	if err != nil {
		return Payload{}, err
	}
	element, err := timeout(d, FieldElementTimeout)
	if err != nil {
		return Payload{}, err
	}
	overrides, err := jsonObject(d, FieldNotificationOverrides)
	if err != nil {
		return Payload{}, err
	}

	machines := make([]MachineSpec, 0, len(machineConfigs(d)))
	for _, m := range machineConfigs(d) {
		machines = append(machines, MachineSpec{
			OS:             m.OS,
			OSVersion:      m.OSVersion,
			Browser:        m.Browser,
			BrowserVersion: m.BrowserVersion,
			Resolution:     m.Resolution,
		})
	}
	tests := make([]TestRef, 0, len(selectedTests(d)))
	for _, s := range selectedTests(d) {
		tests = append(tests, TestRef{ID: s.ID, Type: s.Type})
	}

	return Payload{
		Name:               strings.TrimSpace(d.String(FieldName)),
		Description:        d.String(FieldDescription),
		TestLab:            d.String(FieldTestLab),
		TestingType:        d.String(FieldTestingType),
		TestMachinesConfig: machines,
		SelectedTests:      tests,
		ScreenshotPolicy:   d.String(FieldScreenshotPolicy),
		VisualTesting:      d.Bool(FieldVisualTesting),
		PageLoadTimeout:    pageLoad,
		ElementTimeout:     element,
		FailureHandling: FailureHandling{
			OnStepFailure:      d.String(FieldOnStepFailure),
			OnElementNotFound:  d.String(FieldOnElementNotFound),
			OnTimeout:          d.String(FieldOnTimeout),
			OnAssertionFailure: d.String(FieldOnAssertionFailure),
			OnBrowserCrash:     d.String(FieldOnBrowserCrash),
		},
		RerunPolicy: d.String(FieldRerunPolicy),
		Notifications: Notifications{
			OnStart:      d.Bool(FieldNotifyOnStart),
			OnSuccess:    d.Bool(FieldNotifyOnSuccess),
			OnFailure:    d.Bool(FieldNotifyOnFailure),
			OnCompletion: d.Bool(FieldNotifyOnCompletion),
			Overrides:    overrides,
		},
	}, nil
}

func timeout(d wizard.Draft, field string) (int, error) {
	n, ok := validation.ParseIntPrefix(d.String(field))
	if !ok {
		return 0, &wizard.TransformError{Field: field, Reason: "must be a whole number"}
	}
	return int(n), nil
}

func jsonObject(d wizard.Draft, field string) (map[string]interface{}, error) {
	text := strings.TrimSpace(d.String(field))
	if text == "" {
		return nil, nil
	}
	var obj map[string]interface{}
	if err := json.Unmarshal([]byte(text), &obj); err != nil {
		return nil, &wizard.TransformError{Field: field, Reason: "invalid JSON", Err: err}
	}
	return obj, nil
}

// FromEntity seeds a draft for editing e. Suite names are not part of the
// payload and come back empty; machine rows get fresh row ids.
func FromEntity(e Entity) wizard.Draft {
	d := Defaults()
	p := e.Payload

	d[FieldName] = p.Name
	d[FieldDescription] = p.Description
	d[FieldTestLab] = p.TestLab
	d[FieldTestingType] = p.TestingType

	machines := make([]MachineConfig, 0, len(p.TestMachinesConfig))
	for _, m := range p.TestMachinesConfig {
		machines = append(machines, MachineConfig{
			RowID:          uuid.NewString(),
			OS:             m.OS,
			OSVersion:      m.OSVersion,
			Browser:        m.Browser,
			BrowserVersion: m.BrowserVersion,
			Resolution:     m.Resolution,
		})
	}
	d[FieldMachineConfigs] = machines

	suites := make([]SuiteRef, 0, len(p.SelectedTests))
	for _, t := range p.SelectedTests {
		suites = append(suites, SuiteRef{ID: t.ID, Type: t.Type})
	}
	d[FieldSelectedTests] = suites

	d[FieldScreenshotPolicy] = p.ScreenshotPolicy
	d[FieldVisualTesting] = p.VisualTesting
	d[FieldPageLoadTimeout] = strconv.Itoa(p.PageLoadTimeout)
	d[FieldElementTimeout] = strconv.Itoa(p.ElementTimeout)
	d[FieldOnStepFailure] = p.FailureHandling.OnStepFailure
	d[FieldOnElementNotFound] = p.FailureHandling.OnElementNotFound
	d[FieldOnTimeout] = p.FailureHandling.OnTimeout
	d[FieldOnAssertionFailure] = p.FailureHandling.OnAssertionFailure
	d[FieldOnBrowserCrash] = p.FailureHandling.OnBrowserCrash
	d[FieldRerunPolicy] = p.RerunPolicy
	d[FieldNotifyOnStart] = p.Notifications.OnStart
	d[FieldNotifyOnSuccess] = p.Notifications.OnSuccess
	d[FieldNotifyOnFailure] = p.Notifications.OnFailure
	d[FieldNotifyOnCompletion] = p.Notifications.OnCompletion
	d[FieldNotificationOverrides] = ""
	if p.Notifications.Overrides != nil {
		if text, err := json.Marshal(p.Notifications.Overrides); err == nil {
			d[FieldNotificationOverrides] = string(text)
		}
	}
	return d
}
