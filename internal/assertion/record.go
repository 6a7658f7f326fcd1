package assertion

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Record is one assertion row as edited in a wizard. ID is a UI-only row
// token and is stripped by Wire.
type Record struct {
	ID          string     `json:"id"`
	Source      Source     `json:"source"`
	Property    string     `json:"property"`
	Comparison  Comparison `json:"comparison"`
	TargetValue string     `json:"targetValue"`
	Enabled     bool       `json:"enabled"`
}

// New returns a fresh record with the default "status code equals 200" check.
func New() Record {
	return Record{
		ID:          uuid.NewString(),
		Source:      SourceStatusCode,
		Property:    "",
		Comparison:  Equals,
		TargetValue: "200",
		Enabled:     true,
	}
}

// Repair returns r moved to newSource with its comparison and property made
// consistent with it. Repair(Repair(r, s), s) == Repair(r, s).
func Repair(r Record, newSource Source) Record {
	r.Source = newSource
	if !IsLegal(newSource, r.Comparison) {
		legal := legalComparisons[newSource]
		if len(legal) > 0 {
			r.Comparison = legal[0]
		} else {
			r.Comparison = Equals
		}
	}
	if !PropertyRequired(newSource) {
		r.Property = ""
	}
	return r
}

// Field names accepted by ChangeField.
const (
	FieldSource      = "source"
	FieldProperty    = "property"
	FieldComparison  = "comparison"
	FieldTargetValue = "targetValue"
	FieldEnabled     = "enabled"
)

// ChangeField applies a text edit to one field of r. Changing the source runs
// Repair. A comparison that is illegal for the current source is corrected
// by Repair rather than rejected. Errors are only returned for text that does
// not name a known source, comparison, boolean or field.
func ChangeField(r Record, field, value string) (Record, error) {
	switch field {
	case FieldSource:
		src, err := ParseSource(value)
		if err != nil {
			return r, err
		}
		return Repair(r, src), nil
	case FieldComparison:
		cmp, err := ParseComparison(value)
		if err != nil {
			return r, err
		}
		r.Comparison = cmp
		return Repair(r, r.Source), nil
	case FieldProperty:
		r.Property = value
		return Repair(r, r.Source), nil
	case FieldTargetValue:
		r.TargetValue = value
		return r, nil
	case FieldEnabled:
		enabled, err := strconv.ParseBool(strings.TrimSpace(value))
		if err != nil {
			return r, fmt.Errorf("enabled must be true or false: %w", err)
		}
		r.Enabled = enabled
		return r, nil
	default:
		return r, fmt.Errorf("unknown assertion field %q", field)
	}
}

// Check reports the presence problems a record has at submit time: a missing
// property for header/JSON path sources and a missing target value for
// comparisons that need one. The target value's shape is left to the
// execution service.
func Check(r Record) []string {
	var problems []string
	if !IsLegal(r.Source, r.Comparison) {
		problems = append(problems, fmt.Sprintf("comparison %s is not allowed for source %s", r.Comparison, r.Source))
	}
	if PropertyRequired(r.Source) && strings.TrimSpace(r.Property) == "" {
		switch r.Source {
		case SourceHeader:
			problems = append(problems, "header name is required")
		default:
			problems = append(problems, "JSON path is required")
		}
	}
	if TargetValueRequired(r.Comparison) && strings.TrimSpace(r.TargetValue) == "" {
		problems = append(problems, "target value is required")
	}
	return problems
}

// Wire is the canonical form sent to the execution service.
type Wire struct {
	Source      Source     `json:"source"`
	Property    string     `json:"property,omitempty"`
	Comparison  Comparison `json:"comparison"`
	TargetValue string     `json:"targetValue,omitempty"`
	Enabled     bool       `json:"enabled"`
}

// ToWire strips the row id. A target value is only carried for comparisons
// that use one.
func ToWire(r Record) Wire {
	w := Wire{
		Source:     r.Source,
		Property:   r.Property,
		Comparison: r.Comparison,
		Enabled:    r.Enabled,
	}
	if TargetValueRequired(r.Comparison) {
		w.TargetValue = r.TargetValue
	}
	return w
}

// FromWire rebuilds an editable record with a new row id.
func FromWire(w Wire) Record {
	return Record{
		ID:          uuid.NewString(),
		Source:      w.Source,
		Property:    w.Property,
		Comparison:  w.Comparison,
		TargetValue: w.TargetValue,
		Enabled:     w.Enabled,
	}
}
