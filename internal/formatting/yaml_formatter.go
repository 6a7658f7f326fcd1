package formatting

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"plancraft/internal/history"
)

// YAMLFormatter provides YAML output formatting
type YAMLFormatter struct {
	options Options
}

// NewYAMLFormatter creates a new YAML formatter
func NewYAMLFormatter(options Options) Formatter {
	return &YAMLFormatter{
		options: options,
	}
}

// FormatState formats the state snapshot as YAML.
func (f *YAMLFormatter) FormatState(view StateView) string {
	return f.marshal(stateDoc(view))
}

// FormatValue formats v as YAML using its JSON field names.
func (f *YAMLFormatter) FormatValue(v interface{}) string {
	return f.marshal(v)
}

// FormatRows formats rows as a YAML sequence of mappings keyed by header.
func (f *YAMLFormatter) FormatRows(headers []string, rows [][]string) string {
	return f.marshal(rowsAsMaps(headers, rows))
}

// FormatKPIs formats KPIs as YAML.
func (f *YAMLFormatter) FormatKPIs(planID string, k history.KPIs) string {
	return f.marshal(kpiDoc(planID, k))
}

// SetOptions updates the formatter options
func (f *YAMLFormatter) SetOptions(options Options) {
	f.options = options
}

// GetOptions returns the current formatter options
func (f *YAMLFormatter) GetOptions() Options {
	return f.options
}

func (f *YAMLFormatter) marshal(v interface{}) string {
	generic, err := toGeneric(v)
	if err != nil {
		return fmt.Sprintf("error: %q\n", err.Error())
	}
	out, err := yaml.Marshal(generic)
	if err != nil {
		return fmt.Sprintf("error: %q\n", err.Error())
	}
	return string(out)
}
