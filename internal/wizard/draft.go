package wizard

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"plancraft/internal/assertion"
)

// Draft maps field names to their in-progress values. Values are strings
// (including numbers typed as text), []string, bool, or a structured slice
// such as assertion.List.
type Draft map[string]interface{}

// String returns the text value of name, or "" when unset.
func (d Draft) String(name string) string {
	s, _ := d[name].(string)
	return s
}

// Strings returns the list value of name.
func (d Draft) Strings(name string) []string {
	s, _ := d[name].([]string)
	return s
}

// Bool returns the boolean value of name.
func (d Draft) Bool(name string) bool {
	b, _ := d[name].(bool)
	return b
}

// Assertions returns the assertion rows stored under name.
func (d Draft) Assertions(name string) assertion.List {
	l, _ := d[name].(assertion.List)
	return l
}

// Clone copies the draft. Slice and map values are copied one level deep,
// which is enough for the value types drafts hold.
func (d Draft) Clone() Draft {
	if d == nil {
		return nil
	}
	out := make(Draft, len(d))
	for k, v := range d {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v interface{}) interface{} {
	if v == nil {
		return nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice:
		if rv.IsNil() {
			return v
		}
		cp := reflect.MakeSlice(rv.Type(), rv.Len(), rv.Len())
		reflect.Copy(cp, rv)
		return cp.Interface()
	case reflect.Map:
		if rv.IsNil() {
			return v
		}
		cp := reflect.MakeMapWithSize(rv.Type(), rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			cp.SetMapIndex(iter.Key(), iter.Value())
		}
		return cp.Interface()
	default:
		return v
	}
}

// Kind tells the engine how to coerce loosely typed input for a field.
type Kind string

const (
	KindText       Kind = "text"
	KindBool       Kind = "bool"
	KindTextList   Kind = "text_list"
	KindStructured Kind = "structured"
)

// Field describes one draft field.
type Field struct {
	Name  string
	Label string
	Kind  Kind
	// Decode converts raw input into the field's Go type. Required for
	// KindStructured, ignored otherwise.
	Decode func(raw interface{}) (interface{}, error)
}

// Coerce converts raw input (CLI text, decoded YAML/JSON, or an already typed
// value) into the value stored in the draft.
func (f Field) Coerce(raw interface{}) (interface{}, error) {
	switch f.Kind {
	case KindText:
		switch v := raw.(type) {
		case nil:
			return "", nil
		case string:
			return v, nil
		case bool, int, int32, int64, float32, float64, json.Number:
			return fmt.Sprintf("%v", v), nil
		default:
			return nil, fmt.Errorf("%s expects text, got %T", f.Name, raw)
		}
	case KindBool:
		switch v := raw.(type) {
		case bool:
			return v, nil
		case string:
			b, err := strconv.ParseBool(strings.TrimSpace(v))
			if err != nil {
				return nil, fmt.Errorf("%s expects true or false, got %q", f.Name, v)
			}
			return b, nil
		default:
			return nil, fmt.Errorf("%s expects true or false, got %T", f.Name, raw)
		}
	case KindTextList:
		switch v := raw.(type) {
		case nil:
			return []string{}, nil
		case []string:
			out := make([]string, len(v))
			copy(out, v)
			return out, nil
		case string:
			return splitList(v), nil
		case []interface{}:
			out := make([]string, 0, len(v))
			for _, item := range v {
				s, ok := item.(string)
				if !ok {
					return nil, fmt.Errorf("%s expects a list of text, got element %T", f.Name, item)
				}
				out = append(out, s)
			}
			return out, nil
		default:
			return nil, fmt.Errorf("%s expects a list of text, got %T", f.Name, raw)
		}
	case KindStructured:
		if s, ok := raw.(string); ok {
			var generic interface{}
			if err := json.Unmarshal([]byte(s), &generic); err != nil {
				return nil, fmt.Errorf("%s expects a JSON value: %w", f.Name, err)
			}
			raw = generic
		}
		return f.Decode(raw)
	default:
		return nil, fmt.Errorf("field %s has unknown kind %q", f.Name, f.Kind)
	}
}

func splitList(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// DecodeAs returns a Decode function for values of type T. Input already of
// type T is copied through; anything else (maps and slices from YAML or
// JSON) is round-tripped through JSON into T.
func DecodeAs[T any]() func(raw interface{}) (interface{}, error) {
	return func(raw interface{}) (interface{}, error) {
		if v, ok := raw.(T); ok {
			return cloneValue(v), nil
		}
		data, err := json.Marshal(raw)
		if err != nil {
			return nil, err
		}
		var out T
		if err := json.Unmarshal(data, &out); err != nil {
			return nil, err
		}
		return out, nil
	}
}
