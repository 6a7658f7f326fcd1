package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPositiveInteger(t *testing.T) {
	rule := PositiveInteger("Page load timeout")

	tests := []struct {
		value string
		valid bool
	}{
		{"30", true},
		{" 45 ", true},
		{"1", true},
		{"0", false},
		{"-5", false},
		{"", false},
		{"   ", false},
		{"abc", false},
		// Decimal input is truncated by the integer parse: 30.5 -> 30.
		{"30.5", true},
		{"0.9", false},
		{"12abc", true},
		{"+7", true},
		{"99999999999999999999", false},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			res := Validate("pageLoadTimeout", tt.value, nil, rule)
			assert.Equal(t, tt.valid, res.Valid)
			if !tt.valid {
				assert.NotEmpty(t, res.Message)
			}
		})
	}
}

func TestParseIntPrefix(t *testing.T) {
	tests := []struct {
		in   string
		want int64
		ok   bool
	}{
		{"30", 30, true},
		{"30.5", 30, true},
		{"-5", -5, true},
		{"  8 ", 8, true},
		{"x1", 0, false},
		{"-", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseIntPrefix(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestRequired(t *testing.T) {
	rule := Required("Plan name")

	assert.True(t, Validate("name", "Checkout Flow", nil, rule).Valid)

	res := Validate("name", "   ", nil, rule)
	assert.False(t, res.Valid)
	assert.Equal(t, "Plan name is required", res.Message)

	assert.False(t, Validate("name", nil, nil, rule).Valid)
}

func TestAtLeastOneOf(t *testing.T) {
	const msg = "Add a machine configuration or select a test suite"

	tests := []struct {
		name     string
		machines []string
		suites   []int
		valid    bool
	}{
		{"both empty", nil, nil, false},
		{"one machine", []string{"m1"}, nil, true},
		{"one suite", nil, []int{5}, true},
		{"both", []string{"m1"}, []int{5}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := AtLeastOneOf("testMachinesConfig", tt.machines, "selectedTests", tt.suites, msg)
			if tt.valid {
				assert.NoError(t, err)
				return
			}
			ve, ok := err.(ValidationError)
			if assert.True(t, ok) {
				assert.Equal(t, "testMachinesConfig", ve.Field)
				assert.Equal(t, msg, ve.Message)
			}
		})
	}
}

func TestOneOf(t *testing.T) {
	rule := OneOf("Screenshot policy", "always", "on_failure", "never")

	assert.True(t, Validate("screenshotPolicy", "never", nil, rule).Valid)
	assert.False(t, Validate("screenshotPolicy", "sometimes", nil, rule).Valid)

	browsers := OneOf("Browser", "chrome", "firefox")
	assert.True(t, Validate("browsers", []string{"chrome", "firefox"}, nil, browsers).Valid)
	assert.False(t, Validate("browsers", []string{"chrome", "lynx"}, nil, browsers).Valid)
}

func TestOneOfOptions(t *testing.T) {
	rule := OneOfOptions("Test plan", "test-plans")

	// No reference data loaded: accepted.
	assert.True(t, Validate("testPlanId", "42", nil, rule).Valid)

	ctx := &Context{Options: map[string][]string{"test-plans": {"1", "2"}}}
	assert.True(t, Validate("testPlanId", "2", ctx, rule).Valid)
	assert.False(t, Validate("testPlanId", "42", ctx, rule).Valid)
}

func TestIntegerRange(t *testing.T) {
	rule := IntegerRange("Day of month", 1, 31)

	assert.True(t, Validate("monthlyDay", "31", nil, rule).Valid)
	res := Validate("monthlyDay", "32", nil, rule)
	assert.False(t, res.Valid)
	assert.Equal(t, "Day of month must be between 1 and 31", res.Message)

	assert.True(t, Validate("maxRetries", "0", nil, NonNegativeInteger("Max retries")).Valid)
	assert.False(t, Validate("maxRetries", "-1", nil, NonNegativeInteger("Max retries")).Valid)
}

func TestTimeAndDate(t *testing.T) {
	assert.True(t, Validate("dailyTime", "09:30", nil, TimeOfDay("Time")).Valid)
	assert.True(t, Validate("dailyTime", "23:59", nil, TimeOfDay("Time")).Valid)
	assert.False(t, Validate("dailyTime", "24:00", nil, TimeOfDay("Time")).Valid)
	assert.False(t, Validate("dailyTime", "9am", nil, TimeOfDay("Time")).Valid)

	assert.True(t, Validate("onceDate", "2026-11-01", nil, CalendarDate("Date")).Valid)
	assert.False(t, Validate("onceDate", "2026-02-30", nil, CalendarDate("Date")).Valid)

	h, m, err := ParseTimeOfDay("07:05")
	assert.NoError(t, err)
	assert.Equal(t, 7, h)
	assert.Equal(t, 5, m)
}

func TestEmailsAndMinItems(t *testing.T) {
	assert.True(t, Validate("recipients", []string{"qa@example.com"}, nil, Emails("Recipients")).Valid)
	assert.False(t, Validate("recipients", []string{"qa@example.com", "nope"}, nil, Emails("Recipients")).Valid)

	assert.False(t, Validate("browsers", []string{}, nil, MinItems("browsers", 1)).Valid)
	assert.True(t, Validate("browsers", []string{"chrome"}, nil, MinItems("browsers", 1)).Valid)
}

func TestSoftJSONAcceptsMalformedInput(t *testing.T) {
	assert.True(t, Validate("executionParameters", `{"env": `, nil, SoftJSON()).Valid)
}

func TestSetValidate(t *testing.T) {
	set := Set{
		"name":            {Required("Plan name")},
		"pageLoadTimeout": {Required("Page load timeout"), PositiveInteger("Page load timeout")},
	}

	assert.True(t, set.Validate("description", "", nil).Valid)
	assert.False(t, set.Validate("name", "", nil).Valid)

	res := set.Validate("pageLoadTimeout", "", nil)
	assert.Equal(t, "Page load timeout is required", res.Message)
}

func TestValidationErrors(t *testing.T) {
	var errs ValidationErrors
	assert.False(t, errs.HasErrors())
	assert.Equal(t, "no validation errors", errs.Error())

	errs.Add("name", "is required")
	assert.Equal(t, "field 'name': is required", errs.Error())

	errs.Add("name", "second message")
	errs.Add("elementTimeout", "must be positive", "0")
	assert.True(t, errs.HasErrors())
	assert.Contains(t, errs.Error(), "validation failed:")
	assert.Equal(t, map[string]string{"name": "is required", "elementTimeout": "must be positive"}, errs.Messages())
}
