package validation

import (
	"fmt"
	"strings"
)

// ValidationError represents a validation error with context
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

// Error implements the error interface
func (ve ValidationError) Error() string {
	if ve.Field == "" {
		return ve.Message
	}
	return fmt.Sprintf("field '%s': %s", ve.Field, ve.Message)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for multiple validation errors
func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "no validation errors"
	}
	if len(ve) == 1 {
		return ve[0].Error()
	}

	var messages []string
	for _, err := range ve {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(messages, "; "))
}

// HasErrors returns true if there are any validation errors
func (ve ValidationErrors) HasErrors() bool {
	return len(ve) > 0
}

// Add adds a new validation error
func (ve *ValidationErrors) Add(field, message string, value ...interface{}) {
	var val interface{}
	if len(value) > 0 {
		val = value[0]
	}
	*ve = append(*ve, ValidationError{
		Field:   field,
		Value:   val,
		Message: message,
	})
}

// Messages flattens the collection into field -> first message.
func (ve ValidationErrors) Messages() map[string]string {
	out := make(map[string]string, len(ve))
	for _, err := range ve {
		if _, exists := out[err.Field]; !exists {
			out[err.Field] = err.Message
		}
	}
	return out
}

// Context carries read-only data a rule may consult, such as the IDs of the
// reference lists fetched when the wizard opened. A nil Context is valid.
type Context struct {
	// Options maps an option-set name (e.g. "test-plans") to its allowed values.
	Options map[string][]string
}

// OptionsFor returns the allowed values for name and whether any were loaded.
func (c *Context) OptionsFor(name string) ([]string, bool) {
	if c == nil || c.Options == nil {
		return nil, false
	}
	opts, ok := c.Options[name]
	return opts, ok
}

// Result is the outcome of validating one field.
type Result struct {
	Valid   bool
	Message string
}

// Rule checks a single field value. It returns nil or a ValidationError.
type Rule func(field string, value interface{}, ctx *Context) error

// Validate runs rules in order and reports the first failure.
func Validate(field string, value interface{}, ctx *Context, rules ...Rule) Result {
	for _, rule := range rules {
		if err := rule(field, value, ctx); err != nil {
			if ve, ok := err.(ValidationError); ok {
				return Result{Valid: false, Message: ve.Message}
			}
			return Result{Valid: false, Message: err.Error()}
		}
	}
	return Result{Valid: true}
}

// Set binds rules to field names.
type Set map[string][]Rule

// Validate runs the rules registered for field. Fields without rules pass.
func (s Set) Validate(field string, value interface{}, ctx *Context) Result {
	return Validate(field, value, ctx, s[field]...)
}
