package schedule

import (
	"fmt"
	"strings"

	"plancraft/internal/wizard"
)

// SummaryLine is one row of the read-only review step.
type SummaryLine struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Summary renders the draft for review. Only the active frequency branch is
// described.
func Summary(d wizard.Draft) []SummaryLine {
	lines := []SummaryLine{
		{"Test plan", orNone(d.String(FieldTestPlanID))},
		{"Name", orNone(strings.TrimSpace(d.String(FieldName)))},
		{"Environment", d.String(FieldEnvironment)},
		{"Browsers", orNone(strings.Join(d.Strings(FieldBrowsers), ", "))},
		{"Runs", describeFrequency(d)},
		{"Timezone", d.String(FieldTimezone)},
		{"Recipients", orNone(strings.Join(d.Strings(FieldRecipients), ", "))},
		{"Notify", notifyText(d)},
		{"Retries", retryText(d)},
		{"Assertions", fmt.Sprintf("%d", len(d.Assertions(FieldAssertions)))},
		{"Active", yesNo(d.Bool(FieldIsActive))},
	}
	return lines
}

func describeFrequency(d wizard.Draft) string {
	switch Frequency(d.String(FieldFrequency)) {
	case Once:
		return fmt.Sprintf("Once on %s at %s", d.String(FieldOnceDate), d.String(FieldOnceTime))
	case Daily:
		return fmt.Sprintf("Daily at %s", d.String(FieldDailyTime))
	case Weekly:
		day := d.String(FieldWeeklyDay)
		if day != "" {
			day = strings.ToUpper(day[:1]) + day[1:]
		}
		return fmt.Sprintf("Every %s at %s", day, d.String(FieldWeeklyTime))
	case Monthly:
		return fmt.Sprintf("Monthly on day %s at %s", d.String(FieldMonthlyDay), d.String(FieldMonthlyTime))
	case CustomCron:
		return fmt.Sprintf("Cron %q", d.String(FieldCronExpression))
	default:
		return "(not set)"
	}
}

func notifyText(d wizard.Draft) string {
	var on []string
	if d.Bool(FieldNotifyOnSuccess) {
		on = append(on, "success")
	}
	if d.Bool(FieldNotifyOnFailure) {
		on = append(on, "failure")
	}
	if len(on) == 0 {
		return "never"
	}
	return "on " + strings.Join(on, " and ")
}

func retryText(d wizard.Draft) string {
	if !d.Bool(FieldRetryEnabled) {
		return "off"
	}
	return fmt.Sprintf("up to %s", d.String(FieldMaxRetries))
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
