package types

import "strings"

// Type is a single concrete value type, identified by name.
type Type string

// Any is the top type. An expectation of Any accepts every value.
const Any Type = "*"

// Name returns the display name of t.
func (t Type) Name() string {
	if t == Any {
		return "value"
	}
	return string(t)
}

// Descriptor is the type of one stack slot: a single Type, or the union of
// candidates that disagreeing control-flow paths left in that slot.
//
// The zero Descriptor has no candidates and is only a placeholder; every
// descriptor on a stack is built with Of or Union.
type Descriptor struct {
	candidates []Type
}

// Of returns a descriptor holding exactly t.
func Of(t Type) Descriptor {
	return Descriptor{candidates: []Type{t}}
}

// OfAll returns one single-type descriptor per name, in order.
func OfAll(ts ...Type) []Descriptor {
	out := make([]Descriptor, len(ts))
	for i, t := range ts {
		out[i] = Of(t)
	}
	return out
}

// Union returns a descriptor whose candidates are the union of ds.
// Candidates keep first-seen order and appear once. With no candidates at
// all the result is Of(Any), so a slot is never left empty.
func Union(ds ...Descriptor) Descriptor {
	var out []Type
	for _, d := range ds {
		for _, c := range d.candidates {
			if !contains(out, c) {
				out = append(out, c)
			}
		}
	}
	if len(out) == 0 {
		return Of(Any)
	}
	return Descriptor{candidates: out}
}

// Candidates returns a copy of the admissible types.
func (d Descriptor) Candidates() []Type {
	out := make([]Type, len(d.candidates))
	copy(out, d.candidates)
	return out
}

// Len returns the number of candidates.
func (d Descriptor) Len() int {
	return len(d.candidates)
}

// Ambiguous reports whether more than one type may occupy the slot.
func (d Descriptor) Ambiguous() bool {
	return len(d.candidates) > 1
}

// Contains reports whether t is one of the candidates.
func (d Descriptor) Contains(t Type) bool {
	return contains(d.candidates, t)
}

// AssignableTo reports whether any candidate of d satisfies any candidate of
// expected under rel. A nil rel means exact equality.
func (d Descriptor) AssignableTo(expected Descriptor, rel Relation) bool {
	if rel == nil {
		rel = Exact{}
	}
	for _, want := range expected.candidates {
		if want == Any {
			return len(d.candidates) > 0
		}
		for _, have := range d.candidates {
			if have == want || have == Any || rel.IsSubtype(have, want) {
				return true
			}
		}
	}
	return false
}

// Name renders the descriptor for diagnostics: "int32", or "int32, or string"
// for an ambiguous slot.
func (d Descriptor) Name() string {
	names := make([]string, len(d.candidates))
	for i, c := range d.candidates {
		names[i] = c.Name()
	}
	return strings.Join(names, ", or ")
}

// String implements fmt.Stringer.
func (d Descriptor) String() string {
	return d.Name()
}

// Equal reports whether a and b hold the same candidates, ignoring order.
func Equal(a, b Descriptor) bool {
	if len(a.candidates) != len(b.candidates) {
		return false
	}
	for _, c := range a.candidates {
		if !contains(b.candidates, c) {
			return false
		}
	}
	return true
}

// Compatible reports whether two arrivals at the same slot can be merged:
// one must be assignable to the other.
func Compatible(a, b Descriptor, rel Relation) bool {
	return a.AssignableTo(b, rel) || b.AssignableTo(a, rel)
}

func contains(ts []Type, t Type) bool {
	for _, c := range ts {
		if c == t {
			return true
		}
	}
	return false
}
