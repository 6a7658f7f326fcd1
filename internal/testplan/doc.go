// Package testplan defines the three-step Create Test Plan wizard and its
// payload transformer.
//
// Step 1 names the plan and shows the fixed lab and testing type. Step 2
// selects machine configurations and existing test suites; at least one of
// the two lists must be non-empty. Step 3 holds execution settings: the
// screenshot policy, visual testing, the page-load and element timeouts,
// five failure-handling choices, the re-run policy and the notification
// toggles with an optional JSON overrides blob.
//
// ToPayload turns a finished draft into the request body for
// POST /api/v1/test-plans. FromEntity is its inverse for edit mode.
package testplan
