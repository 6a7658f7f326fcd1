package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"plancraft/internal/assertion"
	"plancraft/internal/validation"
	"plancraft/internal/wizard"
	"plancraft/pkg/logging"
)

// Payload is the canonical request body for a schedule.
type Payload struct {
	TestPlanID          string                 `json:"testPlanId"`
	Name                string                 `json:"name"`
	Environment         string                 `json:"environment"`
	Browsers            []string               `json:"browsers"`
	Schedule            Descriptor             `json:"schedule"`
	Notifications       Notifications          `json:"notifications"`
	ExecutionParameters map[string]interface{} `json:"executionParameters,omitempty"`
	RetryPolicy         RetryPolicy            `json:"retryPolicy"`
	IsActive            bool                   `json:"isActive"`
	Assertions          []assertion.Wire       `json:"assertions"`
}

// Descriptor is the normalized schedule: a cron expression for recurring
// runs or a local timestamp for a single run.
type Descriptor struct {
	Frequency Frequency `json:"frequency"`
	Cron      string    `json:"cron,omitempty"`
	RunAt     string    `json:"runAt,omitempty"`
	Timezone  string    `json:"timezone"`
}

// Notifications lists who is told about run outcomes.
type Notifications struct {
	Recipients []string `json:"recipients"`
	OnSuccess  bool     `json:"onSuccess"`
	OnFailure  bool     `json:"onFailure"`
}

// RetryPolicy controls automatic re-runs. MaxRetries is zero when disabled.
type RetryPolicy struct {
	Enabled    bool `json:"enabled"`
	MaxRetries int  `json:"maxRetries"`
}

// Entity is a persisted schedule.
type Entity struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
	UpdatedAt time.Time `json:"updatedAt,omitempty"`
	NextRunAt time.Time `json:"nextRunAt,omitempty"`
	Payload
}

const runAtLayout = "2006-01-02T15:04:05"

// ToPayload converts a draft. Only the active frequency branch is read.
func ToPayload(d wizard.Draft) (Payload, error) {
	desc, err := descriptor(d)
	if err != nil {
		return Payload{}, err
	}

	params, err := jsonObject(d, FieldExecutionParameters)
	if err != nil {
		return Payload{}, err
	}

	retry := RetryPolicy{Enabled: d.Bool(FieldRetryEnabled)}
	if retry.Enabled {
		n, ok := validation.ParseIntPrefix(d.String(FieldMaxRetries))
		if !ok {
			return Payload{}, &wizard.TransformError{Field: FieldMaxRetries, Reason: "must be a whole number"}
		}
		retry.MaxRetries = int(n)
	}

	wires := make([]assertion.Wire, 0, len(d.Assertions(FieldAssertions)))
	for _, r := range d.Assertions(FieldAssertions) {
		wires = append(wires, assertion.ToWire(r))
	}

	return Payload{
		TestPlanID:  strings.TrimSpace(d.String(FieldTestPlanID)),
		Name:        strings.TrimSpace(d.String(FieldName)),
		Environment: d.String(FieldEnvironment),
		Browsers:    nonNil(d.Strings(FieldBrowsers)),
		Schedule:    desc,
		Notifications: Notifications{
			Recipients: nonNil(d.Strings(FieldRecipients)),
			OnSuccess:  d.Bool(FieldNotifyOnSuccess),
			OnFailure:  d.Bool(FieldNotifyOnFailure),
		},
		ExecutionParameters: params,
		RetryPolicy:         retry,
		IsActive:            d.Bool(FieldIsActive),
		Assertions:          wires,
	}, nil
}

func nonNil(s []string) []string {
	out := make([]string, len(s))
	copy(out, s)
	return out
}

func descriptor(d wizard.Draft) (Descriptor, error) {
	freq := Frequency(d.String(FieldFrequency))
	desc := Descriptor{Frequency: freq, Timezone: strings.TrimSpace(d.String(FieldTimezone))}

	switch freq {
	case Once:
		h, m, err := clock(d, FieldOnceTime)
		if err != nil {
			return desc, err
		}
		date, err := time.Parse(time.DateOnly, strings.TrimSpace(d.String(FieldOnceDate)))
		if err != nil {
			return desc, &wizard.TransformError{Field: FieldOnceDate, Reason: "must be a date in YYYY-MM-DD format", Err: err}
		}
		desc.RunAt = time.Date(date.Year(), date.Month(), date.Day(), h, m, 0, 0, time.UTC).Format(runAtLayout)
	case Daily:
		h, m, err := clock(d, FieldDailyTime)
		if err != nil {
			return desc, err
		}
		desc.Cron = fmt.Sprintf("%d %d * * *", m, h)
	case Weekly:
		h, m, err := clock(d, FieldWeeklyTime)
		if err != nil {
			return desc, err
		}
		day := weekdayNumber(d.String(FieldWeeklyDay))
		if day < 0 {
			return desc, &wizard.TransformError{Field: FieldWeeklyDay, Reason: "must be a day of the week"}
		}
		desc.Cron = fmt.Sprintf("%d %d * * %d", m, h, day)
	case Monthly:
		h, m, err := clock(d, FieldMonthlyTime)
		if err != nil {
			return desc, err
		}
		dom, ok := validation.ParseIntPrefix(d.String(FieldMonthlyDay))
		if !ok || dom < 1 || dom > 31 {
			return desc, &wizard.TransformError{Field: FieldMonthlyDay, Reason: "must be between 1 and 31"}
		}
		desc.Cron = fmt.Sprintf("%d %d %d * *", m, h, dom)
	case CustomCron:
		desc.Cron = d.String(FieldCronExpression)
	default:
		return desc, &wizard.TransformError{Field: FieldFrequency, Reason: fmt.Sprintf("unknown frequency %q", freq)}
	}
	return desc, nil
}

func clock(d wizard.Draft, field string) (hour, minute int, err error) {
	hour, minute, err = validation.ParseTimeOfDay(d.String(field))
	if err != nil {
		return 0, 0, &wizard.TransformError{Field: field, Reason: "must be a time in HH:MM format", Err: err}
	}
	return hour, minute, nil
}

func weekdayNumber(name string) int {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, day := range Weekdays {
		if day == name {
			return i
		}
	}
	return -1
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

// FromEntity seeds a draft for editing e, splitting the cron descriptor back
// into the branch fields. A cron that does not have the shape its frequency
// produces is opened as a custom expression.
func FromEntity(e Entity) wizard.Draft {
	d := Defaults()
	p := e.Payload

	d[FieldTestPlanID] = p.TestPlanID
	d[FieldName] = p.Name
	d[FieldEnvironment] = p.Environment
	d[FieldBrowsers] = nonNil(p.Browsers)

	d[FieldTimezone] = p.Schedule.Timezone
	d[FieldFrequency] = string(p.Schedule.Frequency)
	if !splitDescriptor(d, p.Schedule) {
		logging.Warn("Wizard", "Schedule %s has a %s cron %q that does not match its frequency, opening as custom", e.ID, p.Schedule.Frequency, p.Schedule.Cron)
		d[FieldFrequency] = string(CustomCron)
		d[FieldCronExpression] = p.Schedule.Cron
	}

	d[FieldRecipients] = nonNil(p.Notifications.Recipients)
	d[FieldNotifyOnSuccess] = p.Notifications.OnSuccess
	d[FieldNotifyOnFailure] = p.Notifications.OnFailure

	d[FieldExecutionParameters] = ""
	if p.ExecutionParameters != nil {
		if text, err := json.Marshal(p.ExecutionParameters); err == nil {
			d[FieldExecutionParameters] = string(text)
		}
	}
	d[FieldRetryEnabled] = p.RetryPolicy.Enabled
	if p.RetryPolicy.Enabled {
		d[FieldMaxRetries] = strconv.Itoa(p.RetryPolicy.MaxRetries)
	}
	d[FieldIsActive] = p.IsActive

	list := make(assertion.List, 0, len(p.Assertions))
	for _, w := range p.Assertions {
		list = append(list, assertion.FromWire(w))
	}
	d[FieldAssertions] = list
	return d
}

func splitDescriptor(d wizard.Draft, desc Descriptor) bool {
	switch desc.Frequency {
	case Once:
		t, err := time.Parse(runAtLayout, desc.RunAt)
		if err != nil {
			return false
		}
		d[FieldOnceDate] = t.Format(time.DateOnly)
		d[FieldOnceTime] = t.Format("15:04")
		return true
	case CustomCron:
		d[FieldCronExpression] = desc.Cron
		return true
	}

	f := strings.Fields(desc.Cron)
	if len(f) != 5 {
		return false
	}
	minute, errM := strconv.Atoi(f[0])
	hour, errH := strconv.Atoi(f[1])
	if errM != nil || errH != nil || minute < 0 || minute > 59 || hour < 0 || hour > 23 {
		return false
	}
	at := fmt.Sprintf("%02d:%02d", hour, minute)

	switch desc.Frequency {
	case Daily:
		if f[2] != "*" || f[3] != "*" || f[4] != "*" {
			return false
		}
		d[FieldDailyTime] = at
	case Weekly:
		day, err := strconv.Atoi(f[4])
		if f[2] != "*" || f[3] != "*" || err != nil || day < 0 || day > 6 {
			return false
		}
		d[FieldWeeklyDay] = Weekdays[day]
		d[FieldWeeklyTime] = at
	case Monthly:
		dom, err := strconv.Atoi(f[2])
		if f[3] != "*" || f[4] != "*" || err != nil || dom < 1 || dom > 31 {
			return false
		}
		d[FieldMonthlyDay] = strconv.Itoa(dom)
		d[FieldMonthlyTime] = at
	default:
		return false
	}
	return true
}
