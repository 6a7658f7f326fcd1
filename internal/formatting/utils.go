package formatting

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"plancraft/internal/assertion"
	"plancraft/internal/history"
	pkgstrings "plancraft/pkg/strings"
)

// PrettyJSON formats any value as indented JSON for human-readable display.
// It handles marshaling errors gracefully by falling back to fmt.Sprintf.
//
// Example:
//
//	data := map[string]interface{}{"name": "test", "value": 42}
//	fmt.Println(formatting.PrettyJSON(data))
//	// Output:
//	// {
//	//   "name": "test",
//	//   "value": 42
//	// }
func PrettyJSON(v interface{}) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}

// toGeneric converts v to maps, slices and scalars through its JSON form so
// that YAML output uses the same keys as JSON output.
func toGeneric(v interface{}) (interface{}, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out interface{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// rowsAsMaps keys every row by its lower-cased header.
func rowsAsMaps(headers []string, rows [][]string) []map[string]string {
	out := make([]map[string]string, 0, len(rows))
	for _, row := range rows {
		m := make(map[string]string, len(headers))
		for i, h := range headers {
			key := strings.ToLower(strings.ReplaceAll(h, " ", "_"))
			if i < len(row) {
				m[key] = row[i]
			} else {
				m[key] = ""
			}
		}
		out = append(out, m)
	}
	return out
}

// valueText renders one draft value for a table cell.
func valueText(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		if val {
			return "yes"
		}
		return "no"
	case []string:
		return strings.Join(val, ", ")
	case assertion.List:
		enabled := 0
		for _, r := range val {
			if r.Enabled {
				enabled++
			}
		}
		return fmt.Sprintf("%d rule(s), %d enabled", len(val), enabled)
	default:
		return pkgstrings.Truncate(PrettyJSON(val), pkgstrings.DefaultCellMaxLen)
	}
}

func kpiRows(k history.KPIs) [][]string {
	last := "never"
	if !k.LastRunAt.IsZero() {
		last = k.LastRunAt.UTC().Format(time.RFC3339)
	}
	return [][]string{
		{"Runs", strconv.Itoa(k.Total)},
		{"Passed", strconv.Itoa(k.Passed)},
		{"Failed", strconv.Itoa(k.Failed)},
		{"Pass rate", strconv.FormatFloat(k.PassRate, 'f', 1, 64) + "%"},
		{"Avg duration", k.AvgDuration.Round(time.Second).String()},
		{"Last run", last},
	}
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
