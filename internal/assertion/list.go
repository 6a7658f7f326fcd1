package assertion

import "fmt"

// List is an ordered sequence of assertion rows.
type List []Record

// Add appends a new default record and returns the list and the record's id.
func (l List) Add() (List, string) {
	r := New()
	return append(l.clone(), r), r.ID
}

// Remove drops the record with id.
func (l List) Remove(id string) (List, error) {
	for i, r := range l {
		if r.ID == id {
			out := make(List, 0, len(l)-1)
			out = append(out, l[:i]...)
			return append(out, l[i+1:]...), nil
		}
	}
	return l, fmt.Errorf("assertion %q not found", id)
}

// ChangeField edits one field of the record with id.
func (l List) ChangeField(id, field, value string) (List, error) {
	for i, r := range l {
		if r.ID != id {
			continue
		}
		updated, err := ChangeField(r, field, value)
		if err != nil {
			return l, err
		}
		out := l.clone()
		out[i] = updated
		return out, nil
	}
	return l, fmt.Errorf("assertion %q not found", id)
}

// Find returns the record with id.
func (l List) Find(id string) (Record, bool) {
	for _, r := range l {
		if r.ID == id {
			return r, true
		}
	}
	return Record{}, false
}

func (l List) clone() List {
	out := make(List, len(l))
	copy(out, l)
	return out
}
