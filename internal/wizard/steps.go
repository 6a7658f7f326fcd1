package wizard

import (
	"fmt"
	"strings"

	"plancraft/internal/validation"
)

// ErrorMap maps field names to a human-readable error. An empty message is
// the same as no entry.
type ErrorMap map[string]string

// Clone copies the map, dropping empty messages.
func (m ErrorMap) Clone() ErrorMap {
	out := make(ErrorMap, len(m))
	for k, v := range m {
		if v != "" {
			out[k] = v
		}
	}
	return out
}

// StepDefinition describes one wizard screen.
type StepDefinition struct {
	Index  int
	Title  string
	Fields []Field
	// Mirrors lists fields owned by another step and shown read-only here.
	Mirrors []string
	// Validate checks the owned fields. Nil means the step always passes.
	Validate func(d Draft, ctx *validation.Context) ErrorMap
}

// Owns reports whether the step owns field name.
func (s StepDefinition) Owns(name string) bool {
	for _, f := range s.Fields {
		if f.Name == name {
			return true
		}
	}
	return false
}

// FieldNames returns the owned field names in declaration order.
func (s StepDefinition) FieldNames() []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}

// StepSet is an ordered, 1-indexed list of steps whose owned fields
// partition the draft.
type StepSet struct {
	steps  []StepDefinition
	owner  map[string]int
	fields map[string]Field
}

// NewStepSet checks the step layout against the defaults draft and panics on
// any construction bug: indices that are not 1..n in order, a field owned
// twice, an owned field absent from defaults, a default field nobody owns, a
// mirror naming an unknown field, or a structured field without a decoder.
func NewStepSet(defaults Draft, steps ...StepDefinition) *StepSet {
	if len(steps) == 0 {
		panic("wizard: step set needs at least one step")
	}
	set := &StepSet{
		steps:  make([]StepDefinition, len(steps)),
		owner:  make(map[string]int),
		fields: make(map[string]Field),
	}
	copy(set.steps, steps)

	for i, step := range steps {
		if step.Index != i+1 {
			panic(fmt.Sprintf("wizard: step %q has index %d, want %d", step.Title, step.Index, i+1))
		}
		for _, f := range step.Fields {
			if prev, dup := set.owner[f.Name]; dup {
				panic(fmt.Sprintf("wizard: field %q owned by steps %d and %d", f.Name, prev, step.Index))
			}
			if _, ok := defaults[f.Name]; !ok {
				panic(fmt.Sprintf("wizard: step %d owns field %q which has no default", step.Index, f.Name))
			}
			if f.Kind == KindStructured && f.Decode == nil {
				panic(fmt.Sprintf("wizard: structured field %q has no decoder", f.Name))
			}
			set.owner[f.Name] = step.Index
			set.fields[f.Name] = f
		}
	}
	for name := range defaults {
		if _, ok := set.owner[name]; !ok {
			panic(fmt.Sprintf("wizard: default field %q is not owned by any step", name))
		}
	}
	for _, step := range steps {
		for _, m := range step.Mirrors {
			if _, ok := set.owner[m]; !ok {
				panic(fmt.Sprintf("wizard: step %d mirrors unknown field %q", step.Index, m))
			}
		}
	}
	return set
}

// Len returns the number of steps.
func (s *StepSet) Len() int { return len(s.steps) }

// StepFor returns step i. Out-of-range indices panic.
func (s *StepSet) StepFor(i int) StepDefinition {
	if i < 1 || i > len(s.steps) {
		panic(fmt.Sprintf("wizard: step %d out of range 1..%d", i, len(s.steps)))
	}
	return s.steps[i-1]
}

// IsFirstStep reports whether i is the first step.
func (s *StepSet) IsFirstStep(i int) bool { return i == 1 }

// IsLastStep reports whether i is the last step.
func (s *StepSet) IsLastStep(i int) bool { return i == len(s.steps) }

// OwnerOf returns the index of the step owning field name.
func (s *StepSet) OwnerOf(name string) (int, bool) {
	i, ok := s.owner[name]
	return i, ok
}

// Field returns the definition of field name.
func (s *StepSet) Field(name string) (Field, bool) {
	f, ok := s.fields[name]
	return f, ok
}

// FieldNames returns all owned fields in step order.
func (s *StepSet) FieldNames() []string {
	var names []string
	for _, step := range s.steps {
		names = append(names, step.FieldNames()...)
	}
	return names
}

// ValidateStep runs step i's validator. Messages keyed by a field the step
// does not own are a construction bug and panic.
func (s *StepSet) ValidateStep(i int, d Draft, ctx *validation.Context) ErrorMap {
	step := s.StepFor(i)
	if step.Validate == nil {
		return ErrorMap{}
	}
	errs := step.Validate(d, ctx)
	out := make(ErrorMap, len(errs))
	for field, msg := range errs {
		if !step.Owns(field) {
			panic(fmt.Sprintf("wizard: step %d reported an error for field %q it does not own", i, field))
		}
		if strings.TrimSpace(msg) != "" {
			out[field] = msg
		}
	}
	return out
}

// ValidateAll runs every step and returns the merged errors and the first
// failing step, or 0 when all pass.
func (s *StepSet) ValidateAll(d Draft, ctx *validation.Context) (ErrorMap, int) {
	all := ErrorMap{}
	first := 0
	for i := 1; i <= len(s.steps); i++ {
		errs := s.ValidateStep(i, d, ctx)
		if len(errs) > 0 && first == 0 {
			first = i
		}
		for k, v := range errs {
			all[k] = v
		}
	}
	return all, first
}

// CheckFields runs the rules registered for each field against d and
// collects the failures. It is the usual body of a step's Validate.
func CheckFields(d Draft, ctx *validation.Context, rules validation.Set) ErrorMap {
	errs := ErrorMap{}
	for field := range rules {
		if r := rules.Validate(field, d[field], ctx); !r.Valid {
			errs[field] = r.Message
		}
	}
	return errs
}
