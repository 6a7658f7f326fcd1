package validation

import (
	"fmt"
	"math"
	"net/mail"
	"reflect"
	"strconv"
	"strings"
	"time"
)

func asString(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}

func asStrings(value interface{}) []string {
	switch v := value.(type) {
	case nil:
		return nil
	case []string:
		return v
	case string:
		return []string{v}
	default:
		rv := reflect.ValueOf(value)
		if rv.Kind() != reflect.Slice {
			return []string{asString(value)}
		}
		out := make([]string, rv.Len())
		for i := range out {
			out[i] = asString(rv.Index(i).Interface())
		}
		return out
	}
}

// lengthOf reports the length of a slice, array or map value. Anything else
// has length zero.
func lengthOf(value interface{}) int {
	if value == nil {
		return 0
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return rv.Len()
	default:
		return 0
	}
}

// ParseIntPrefix parses the leading base-10 integer of s the way a browser's
// parseInt does: surrounding whitespace is ignored, an optional sign is
// accepted, and parsing stops at the first non-digit. "30.5" yields 30 and
// "12abc" yields 12. ok is false when no digits lead the string or the value
// overflows int64.
func ParseIntPrefix(s string) (n int64, ok bool) {
	s = strings.TrimSpace(s)
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digitsStart := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digitsStart {
		return 0, false
	}
	n, err := strconv.ParseInt(s[:end], 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Required checks that the trimmed value is non-empty.
func Required(label string) Rule {
	return func(field string, value interface{}, _ *Context) error {
		if strings.TrimSpace(asString(value)) == "" {
			return ValidationError{Field: field, Value: value, Message: fmt.Sprintf("%s is required", label)}
		}
		return nil
	}
}

// PositiveInteger checks that the value parses as a base-10 integer greater
// than zero. Decimal input is truncated, not rejected.
func PositiveInteger(label string) Rule {
	return IntegerRange(label, 1, math.MaxInt64)
}

// NonNegativeInteger checks that the value parses as a base-10 integer of
// zero or more.
func NonNegativeInteger(label string) Rule {
	return IntegerRange(label, 0, math.MaxInt64)
}

// IntegerRange checks that the value parses as a base-10 integer within
// [min, max].
func IntegerRange(label string, min, max int64) Rule {
	return func(field string, value interface{}, _ *Context) error {
		n, ok := ParseIntPrefix(asString(value))
		if !ok {
			return ValidationError{Field: field, Value: value, Message: fmt.Sprintf("%s must be a whole number", label)}
		}
		if n < min || n > max {
			var msg string
			switch {
			case min == 1 && max == math.MaxInt64:
				msg = fmt.Sprintf("%s must be a positive whole number", label)
			case max == math.MaxInt64:
				msg = fmt.Sprintf("%s must be at least %d", label, min)
			default:
				msg = fmt.Sprintf("%s must be between %d and %d", label, min, max)
			}
			return ValidationError{Field: field, Value: value, Message: msg}
		}
		return nil
	}
}

// OneOf checks enum membership. For list values every element must be a
// member.
func OneOf(label string, allowed ...string) Rule {
	return func(field string, value interface{}, _ *Context) error {
		for _, v := range asStrings(value) {
			if !contains(allowed, v) {
				return ValidationError{
					Field:   field,
					Value:   value,
					Message: fmt.Sprintf("%s must be one of: %s", label, strings.Join(allowed, ", ")),
				}
			}
		}
		return nil
	}
}

// OneOfOptions checks membership against a context option set. The rule
// passes when the context has no such option set loaded, so drafts can be
// validated offline.
func OneOfOptions(label, optionSet string) Rule {
	return func(field string, value interface{}, ctx *Context) error {
		opts, ok := ctx.OptionsFor(optionSet)
		if !ok {
			return nil
		}
		v := strings.TrimSpace(asString(value))
		if v == "" || contains(opts, v) {
			return nil
		}
		return ValidationError{Field: field, Value: value, Message: fmt.Sprintf("%s %q is not available", label, v)}
	}
}

// MinItems checks that a collection holds at least n entries.
func MinItems(label string, n int) Rule {
	return func(field string, value interface{}, _ *Context) error {
		if lengthOf(value) < n {
			noun := "items"
			if n == 1 {
				noun = "item"
			}
			return ValidationError{Field: field, Value: value, Message: fmt.Sprintf("Select at least %d %s for %s", n, noun, label)}
		}
		return nil
	}
}

// AtLeastOneOf passes if collection a or collection b is non-empty. The error
// is attributed to fieldA.
func AtLeastOneOf(fieldA string, a interface{}, fieldB string, b interface{}, message string) error {
	if lengthOf(a) > 0 || lengthOf(b) > 0 {
		return nil
	}
	return ValidationError{Field: fieldA, Value: a, Message: message}
}

// TimeOfDay checks a 24h "HH:MM" value.
func TimeOfDay(label string) Rule {
	return func(field string, value interface{}, _ *Context) error {
		if _, _, err := ParseTimeOfDay(asString(value)); err != nil {
			return ValidationError{Field: field, Value: value, Message: fmt.Sprintf("%s must be a time in HH:MM format", label)}
		}
		return nil
	}
}

// ParseTimeOfDay splits "HH:MM" into hour and minute.
func ParseTimeOfDay(s string) (hour, minute int, err error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return 0, 0, err
	}
	return t.Hour(), t.Minute(), nil
}

// CalendarDate checks a "YYYY-MM-DD" value.
func CalendarDate(label string) Rule {
	return func(field string, value interface{}, _ *Context) error {
		if _, err := time.Parse(time.DateOnly, strings.TrimSpace(asString(value))); err != nil {
			return ValidationError{Field: field, Value: value, Message: fmt.Sprintf("%s must be a date in YYYY-MM-DD format", label)}
		}
		return nil
	}
}

// Emails checks that every entry parses as an email address.
func Emails(label string) Rule {
	return func(field string, value interface{}, _ *Context) error {
		for _, addr := range asStrings(value) {
			if _, err := mail.ParseAddress(strings.TrimSpace(addr)); err != nil {
				return ValidationError{Field: field, Value: value, Message: fmt.Sprintf("%s contains an invalid address: %q", label, addr)}
			}
		}
		return nil
	}
}

// SoftJSON accepts any text. Free-text JSON is only parsed when the payload is
// built, so typing half an object never raises a field error.
func SoftJSON() Rule {
	return func(string, interface{}, *Context) error {
		return nil
	}
}

func contains(haystack []string, needle string) bool {
	for _, v := range haystack {
		if v == needle {
			return true
		}
	}
	return false
}
