// Package schedule defines the six-step Schedule wizard, its payload
// transformer and the read-only summary shown on the last step.
//
// The frequency step keeps a field set per branch (once, daily, weekly,
// monthly, custom_cron). Only the active branch is validated and fed to the
// payload; the others keep whatever was typed so switching back restores it.
//
// Cron descriptors use the five-field form:
//
//	daily    "M H * * *"
//	weekly   "M H * * D"    D is 0..6, sunday is 0
//	monthly  "M H DOM * *"
//
// A one-off run is sent as runAt "YYYY-MM-DDTHH:MM:00" with no cron, and a
// custom expression is passed through unchanged.
package schedule
