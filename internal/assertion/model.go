package assertion

import (
	"fmt"
	"strings"
)

// Source is the part of the HTTP response an assertion inspects.
type Source string

const (
	SourceStatusCode   Source = "status_code"
	SourceHeader       Source = "header"
	SourceBodyJSONPath Source = "body_json_path"
	SourceBodyText     Source = "body_text"
	SourceResponseTime Source = "response_time"
)

// Sources lists every source in display order.
var Sources = []Source{
	SourceStatusCode,
	SourceHeader,
	SourceBodyJSONPath,
	SourceBodyText,
	SourceResponseTime,
}

// Comparison is the operator applied between the inspected value and the
// target value.
type Comparison string

const (
	Equals              Comparison = "equals"
	NotEquals           Comparison = "not_equals"
	GreaterThan         Comparison = "greater_than"
	LessThan            Comparison = "less_than"
	GreaterThanOrEquals Comparison = "greater_than_or_equals"
	LessThanOrEquals    Comparison = "less_than_or_equals"
	Contains            Comparison = "contains"
	NotContains         Comparison = "not_contains"
	Exists              Comparison = "exists"
	NotExists           Comparison = "not_exists"
	IsEmpty             Comparison = "is_empty"
	IsNotEmpty          Comparison = "is_not_empty"
	MatchesRegex        Comparison = "matches_regex"
	NotMatchesRegex     Comparison = "not_matches_regex"
)

// Comparisons lists every comparison kind.
var Comparisons = []Comparison{
	Equals, NotEquals,
	GreaterThan, LessThan, GreaterThanOrEquals, LessThanOrEquals,
	Contains, NotContains,
	Exists, NotExists,
	IsEmpty, IsNotEmpty,
	MatchesRegex, NotMatchesRegex,
}

// Order matters: defaults always pick the first legal entry.
var legalComparisons = map[Source][]Comparison{
	SourceStatusCode: {
		Equals, NotEquals, GreaterThan, LessThan, GreaterThanOrEquals, LessThanOrEquals,
	},
	SourceHeader: {
		Equals, NotEquals, Contains, NotContains, Exists, NotExists, IsEmpty, IsNotEmpty,
	},
	SourceBodyJSONPath: {
		Equals, NotEquals, Contains, NotContains, Exists, NotExists, IsEmpty, IsNotEmpty,
		GreaterThan, LessThan, GreaterThanOrEquals, LessThanOrEquals,
	},
	SourceBodyText: {
		Equals, NotEquals, Contains, NotContains, IsEmpty, IsNotEmpty, MatchesRegex, NotMatchesRegex,
	},
	SourceResponseTime: {
		GreaterThan, LessThan, GreaterThanOrEquals, LessThanOrEquals,
	},
}

// LegalComparisons returns the ordered comparisons allowed for source. The
// returned slice is a copy.
func LegalComparisons(source Source) []Comparison {
	legal := legalComparisons[source]
	out := make([]Comparison, len(legal))
	copy(out, legal)
	return out
}

// IsLegal reports whether comparison is allowed for source.
func IsLegal(source Source, comparison Comparison) bool {
	for _, c := range legalComparisons[source] {
		if c == comparison {
			return true
		}
	}
	return false
}

// PropertyRequired reports whether source needs a property (header name or
// JSON path).
func PropertyRequired(source Source) bool {
	return source == SourceHeader || source == SourceBodyJSONPath
}

// TargetValueRequired reports whether comparison needs a target value.
func TargetValueRequired(comparison Comparison) bool {
	switch comparison {
	case Exists, NotExists, IsEmpty, IsNotEmpty:
		return false
	default:
		return true
	}
}

// ParseSource converts text input into a Source.
func ParseSource(s string) (Source, error) {
	s = strings.TrimSpace(s)
	for _, src := range Sources {
		if string(src) == s {
			return src, nil
		}
	}
	return "", fmt.Errorf("unknown assertion source %q", s)
}

// ParseComparison converts text input into a Comparison.
func ParseComparison(s string) (Comparison, error) {
	s = strings.TrimSpace(s)
	for _, c := range Comparisons {
		if string(c) == s {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown assertion comparison %q", s)
}
