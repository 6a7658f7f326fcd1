package schedule

import (
	_ "time/tzdata"

	"plancraft/internal/assertion"
	"plancraft/internal/wizard"
)

// Kind is the entity collection schedules are submitted to.
const Kind = "schedules"

// Draft field names.
const (
	FieldTestPlanID  = "testPlanId"
	FieldName        = "name"
	FieldEnvironment = "environment"

	FieldBrowsers = "browsers"

	FieldFrequency      = "frequency"
	FieldOnceDate       = "onceDate"
	FieldOnceTime       = "onceTime"
	FieldDailyTime      = "dailyTime"
	FieldWeeklyDay      = "weeklyDay"
	FieldWeeklyTime     = "weeklyTime"
	FieldMonthlyDay     = "monthlyDay"
	FieldMonthlyTime    = "monthlyTime"
	FieldCronExpression = "cronExpression"
	FieldTimezone       = "timezone"

	FieldRecipients      = "recipients"
	FieldNotifyOnSuccess = "notifyOnSuccess"
	FieldNotifyOnFailure = "notifyOnFailure"

	FieldExecutionParameters = "executionParameters"
	FieldRetryEnabled        = "retryEnabled"
	FieldMaxRetries          = "maxRetries"
	FieldIsActive            = "isActive"
	FieldAssertions          = "assertions"
)

// Frequency selects the schedule branch.
type Frequency string

const (
	Once       Frequency = "once"
	Daily      Frequency = "daily"
	Weekly     Frequency = "weekly"
	Monthly    Frequency = "monthly"
	CustomCron Frequency = "custom_cron"
)

// Frequencies lists the branches in display order.
var Frequencies = []string{string(Once), string(Daily), string(Weekly), string(Monthly), string(CustomCron)}

// Weekdays are indexed by their cron day number.
var Weekdays = []string{"sunday", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday"}

// Environments and Browsers are the fixed choices on steps 1 and 2.
var (
	Environments = []string{"staging", "production", "development"}
	Browsers     = []string{"chrome", "firefox", "safari", "edge"}
)

// MaxRetries bounds the retry count.
const MaxRetries = 5

// Defaults returns a fresh draft for a new schedule.
func Defaults() wizard.Draft {
	return wizard.Draft{
		FieldTestPlanID:  "",
		FieldName:        "",
		FieldEnvironment: Environments[0],

		FieldBrowsers: []string{},

		FieldFrequency:      string(Daily),
		FieldOnceDate:       "",
		FieldOnceTime:       "09:00",
		FieldDailyTime:      "09:00",
		FieldWeeklyDay:      "monday",
		FieldWeeklyTime:     "09:00",
		FieldMonthlyDay:     "1",
		FieldMonthlyTime:    "09:00",
		FieldCronExpression: "",
		FieldTimezone:       "UTC",

		FieldRecipients:      []string{},
		FieldNotifyOnSuccess: false,
		FieldNotifyOnFailure: true,

		FieldExecutionParameters: "",
		FieldRetryEnabled:        false,
		FieldMaxRetries:          "1",
		FieldIsActive:            true,
		FieldAssertions:          assertion.List{},
	}
}

// branchFields lists the frequency-dependent fields of each branch.
var branchFields = map[Frequency][]string{
	Once:       {FieldOnceDate, FieldOnceTime},
	Daily:      {FieldDailyTime},
	Weekly:     {FieldWeeklyDay, FieldWeeklyTime},
	Monthly:    {FieldMonthlyDay, FieldMonthlyTime},
	CustomCron: {FieldCronExpression},
}

// BranchFields returns the fields shown for frequency f.
func BranchFields(f Frequency) []string {
	return append([]string(nil), branchFields[f]...)
}
