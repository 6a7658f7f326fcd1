// Package formatting renders wizard state, payloads, reference lists and run
// KPIs for the CLI and the interactive wizard.
//
// Every formatter returns text; callers decide where it goes. Table output
// is meant for people, JSON and YAML output for scripts.
package formatting

import (
	"fmt"
	"strings"

	"plancraft/internal/history"
	"plancraft/internal/wizard"
)

// OutputFormat represents the desired output format
type OutputFormat string

const (
	FormatJSON  OutputFormat = "json"  // JSON output
	FormatYAML  OutputFormat = "yaml"  // YAML output
	FormatTable OutputFormat = "table" // Rich table output
)

// ParseFormat accepts "table", "json" or "yaml", case-insensitively.
func ParseFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatJSON, FormatYAML, FormatTable:
		return f, nil
	case "":
		return FormatTable, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want table, json or yaml)", s)
	}
}

// Options configures the formatter behavior
type Options struct {
	Format OutputFormat
	Color  bool // Enable colored output
}

// StateView is a wizard snapshot plus what is needed to label it.
type StateView struct {
	Wizard    string   // e.g. "Test plan"
	StepTitle string   // title of State.Step
	Fields    []string // fields of the current step, in display order
	State     wizard.State
}

// Formatter renders plancraft's outputs in one format.
type Formatter interface {
	FormatState(view StateView) string
	// FormatValue renders a payload or any other JSON-tagged value.
	FormatValue(v interface{}) string
	FormatRows(headers []string, rows [][]string) string
	FormatKPIs(planID string, k history.KPIs) string

	SetOptions(options Options)
	GetOptions() Options
}

// New returns the formatter for options.Format, defaulting to table.
func New(options Options) Formatter {
	switch options.Format {
	case FormatJSON:
		return NewJSONFormatter(options)
	case FormatYAML:
		return NewYAMLFormatter(options)
	default:
		return NewTableFormatter(options)
	}
}
