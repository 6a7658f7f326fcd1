package formatting

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"plancraft/internal/history"
	"plancraft/internal/wizard"
)

// TableFormatter provides rich table output formatting
type TableFormatter struct {
	options Options
}

// NewTableFormatter creates a new table formatter
func NewTableFormatter(options Options) Formatter {
	return &TableFormatter{
		options: options,
	}
}

// FormatState renders the current step's fields with their errors, followed
// by a status line.
func (f *TableFormatter) FormatState(view StateView) string {
	st := view.State
	var b strings.Builder

	fmt.Fprintf(&b, "%s (step %d/%d)", view.Wizard, st.Step, st.TotalSteps)
	if view.StepTitle != "" {
		fmt.Fprintf(&b, ": %s", view.StepTitle)
	}
	b.WriteString("\n")

	t := f.createTable()
	t.AppendHeader(table.Row{f.header("FIELD"), f.header("VALUE"), f.header("ERROR")})
	for _, name := range view.Fields {
		msg := st.Errors[name]
		if msg != "" {
			msg = f.paint(text.FgRed, msg)
		}
		t.AppendRow(table.Row{name, valueText(st.Draft[name]), msg})
	}
	b.WriteString(t.Render())
	b.WriteString("\n")

	// Errors on fields of other steps, e.g. after a failed submit jumped here.
	var stray []string
	for _, name := range sortedKeys(st.Errors) {
		if !contains(view.Fields, name) {
			stray = append(stray, fmt.Sprintf("%s: %s", name, st.Errors[name]))
		}
	}
	if len(stray) > 0 {
		b.WriteString(f.paint(text.FgRed, strings.Join(stray, "\n")))
		b.WriteString("\n")
	}

	status := string(st.Status)
	if st.Mode == wizard.ModeUpdate && st.EntityID != "" {
		status += fmt.Sprintf(" (editing %s)", st.EntityID)
	}
	fmt.Fprintf(&b, "%s %s\n", f.paint(text.FgHiBlue, "Status:"), status)
	if st.SubmitError != "" {
		fmt.Fprintf(&b, "%s %s\n", f.paint(text.FgRed, "Submit failed:"), st.SubmitError)
	}
	return b.String()
}

// FormatValue renders maps as key/value tables and everything else as JSON.
func (f *TableFormatter) FormatValue(v interface{}) string {
	generic, err := toGeneric(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	obj, ok := generic.(map[string]interface{})
	if !ok {
		return PrettyJSON(generic)
	}

	t := f.createTable()
	t.AppendHeader(table.Row{f.header("KEY"), f.header("VALUE")})
	flat := make(map[string]string, len(obj))
	for key, value := range obj {
		flat[key] = valueText(value)
	}
	for _, key := range sortedKeys(flat) {
		t.AppendRow(table.Row{key, flat[key]})
	}
	return t.Render() + "\n"
}

// FormatRows renders rows under headers.
func (f *TableFormatter) FormatRows(headers []string, rows [][]string) string {
	if len(rows) == 0 {
		return f.paint(text.FgYellow, "No items found") + "\n"
	}

	t := f.createTable()
	header := make(table.Row, 0, len(headers))
	for _, h := range headers {
		header = append(header, f.header(strings.ToUpper(h)))
	}
	t.AppendHeader(header)
	for _, row := range rows {
		r := make(table.Row, 0, len(row))
		for _, cell := range row {
			r = append(r, cell)
		}
		t.AppendRow(r)
	}
	t.AppendFooter(table.Row{fmt.Sprintf("Total: %d", len(rows))})
	return t.Render() + "\n"
}

// FormatKPIs renders the headline numbers of a plan's runs.
func (f *TableFormatter) FormatKPIs(planID string, k history.KPIs) string {
	t := f.createTable()
	t.SetTitle("Test plan %s", planID)
	for _, row := range kpiRows(k) {
		t.AppendRow(table.Row{f.header(row[0]), row[1]})
	}
	return t.Render() + "\n"
}

// SetOptions updates the formatter options
func (f *TableFormatter) SetOptions(options Options) {
	f.options = options
}

// GetOptions returns the current formatter options
func (f *TableFormatter) GetOptions() Options {
	return f.options
}

// createTable creates a new table with standard styling
func (f *TableFormatter) createTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	return t
}

func (f *TableFormatter) header(s string) string {
	return f.paint(text.FgHiCyan, s)
}

func (f *TableFormatter) paint(c text.Color, s string) string {
	if !f.options.Color {
		return s
	}
	return c.Sprint(s)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
