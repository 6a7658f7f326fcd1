package formatting

import (
	"plancraft/internal/history"
)

// JSONFormatter provides structured JSON output formatting
type JSONFormatter struct {
	options Options
}

// NewJSONFormatter creates a new JSON formatter
func NewJSONFormatter(options Options) Formatter {
	return &JSONFormatter{
		options: options,
	}
}

// stateDocument is the machine-readable form of a StateView.
type stateDocument struct {
	Wizard    string      `json:"wizard"`
	StepTitle string      `json:"stepTitle,omitempty"`
	Fields    []string    `json:"fields"`
	State     interface{} `json:"state"`
}

func stateDoc(view StateView) stateDocument {
	fields := view.Fields
	if fields == nil {
		fields = []string{}
	}
	return stateDocument{Wizard: view.Wizard, StepTitle: view.StepTitle, Fields: fields, State: view.State}
}

// FormatState formats the state snapshot as JSON.
func (f *JSONFormatter) FormatState(view StateView) string {
	return PrettyJSON(stateDoc(view))
}

// FormatValue formats v as JSON.
func (f *JSONFormatter) FormatValue(v interface{}) string {
	return PrettyJSON(v)
}

// FormatRows formats rows as a JSON array of objects keyed by header.
func (f *JSONFormatter) FormatRows(headers []string, rows [][]string) string {
	return PrettyJSON(rowsAsMaps(headers, rows))
}

// FormatKPIs formats KPIs as JSON.
func (f *JSONFormatter) FormatKPIs(planID string, k history.KPIs) string {
	return PrettyJSON(kpiDoc(planID, k))
}

// SetOptions updates the formatter options
func (f *JSONFormatter) SetOptions(options Options) {
	f.options = options
}

// GetOptions returns the current formatter options
func (f *JSONFormatter) GetOptions() Options {
	return f.options
}

type kpiDocument struct {
	PlanID string `json:"planId"`
	history.KPIs
	AvgDurationSeconds float64 `json:"avgDurationSeconds"`
}

func kpiDoc(planID string, k history.KPIs) kpiDocument {
	return kpiDocument{PlanID: planID, KPIs: k, AvgDurationSeconds: k.AvgDuration.Seconds()}
}
