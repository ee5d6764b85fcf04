package stack

import (
	"fmt"
	"strings"

	"github.com/wippyai/stack-verifier/types"
)

// UnderflowError is returned by Pop when fewer values are present than
// requested. Want is the number the caller asked for.
type UnderflowError struct {
	Want int
	Have int
}

func (e *UnderflowError) Error() string {
	return fmt.Sprintf("stack underflow: want %d values, have %d", e.Want, e.Have)
}

type node struct {
	next *node
	slot types.Descriptor
}

// State is a simulated operand stack, top first.
//
// States are persistent: Push and Pop return new values sharing the untouched
// tail, so a snapshot held by an earlier transition never changes. The zero
// State is the empty stack.
type State struct {
	top  *node
	size int
}

// Empty returns the empty stack.
func Empty() State {
	return State{}
}

// Of builds a state from slots given top first.
func Of(slots ...types.Descriptor) State {
	var s State
	for i := len(slots) - 1; i >= 0; i-- {
		s = s.Push(slots[i])
	}
	return s
}

// OfTypes builds a state of single-type slots given top first.
func OfTypes(ts ...types.Type) State {
	return Of(types.OfAll(ts...)...)
}

// Len returns the number of simulated values.
func (s State) Len() int {
	return s.size
}

// Push returns s with d on top.
func (s State) Push(d types.Descriptor) State {
	return State{top: &node{slot: d, next: s.top}, size: s.size + 1}
}

// PushAll pushes ds in order; the last element ends on top.
func (s State) PushAll(ds ...types.Descriptor) State {
	for _, d := range ds {
		s = s.Push(d)
	}
	return s
}

// Pop removes n values. The popped slots are returned top first.
// A negative n is an error and leaves s unchanged.
func (s State) Pop(n int) ([]types.Descriptor, State, error) {
	if n < 0 {
		return nil, s, fmt.Errorf("stack: negative pop count %d", n)
	}
	if n > s.size {
		return nil, s, &UnderflowError{Want: n, Have: s.size}
	}
	popped := make([]types.Descriptor, n)
	cur := s.top
	for i := 0; i < n; i++ {
		popped[i] = cur.slot
		cur = cur.next
	}
	return popped, State{top: cur, size: s.size - n}, nil
}

// Slot returns the descriptor at index i, where 0 is the top.
// It panics if i is out of range.
func (s State) Slot(i int) types.Descriptor {
	if i < 0 || i >= s.size {
		panic(fmt.Sprintf("stack: slot %d out of range (len %d)", i, s.size))
	}
	cur := s.top
	for ; i > 0; i-- {
		cur = cur.next
	}
	return cur.slot
}

// Slots returns all slots top first.
func (s State) Slots() []types.Descriptor {
	out := make([]types.Descriptor, 0, s.size)
	for cur := s.top; cur != nil; cur = cur.next {
		out = append(out, cur.slot)
	}
	return out
}

// Equivalent reports whether both states have the same length and equal
// candidate sets slot by slot.
func (s State) Equivalent(other State) bool {
	if s.size != other.size {
		return false
	}
	a, b := s.top, other.top
	for a != nil {
		if a == b {
			return true
		}
		if !types.Equal(a.slot, b.slot) {
			return false
		}
		a, b = a.next, b.next
	}
	return true
}

// Compatible reports whether other can be merged into s: same length and
// each slot pair related under rel.
func (s State) Compatible(other State, rel types.Relation) bool {
	if s.size != other.size {
		return false
	}
	for a, b := s.top, other.top; a != nil; a, b = a.next, b.next {
		if a == b {
			return true
		}
		if !types.Compatible(a.slot, b.slot, rel) {
			return false
		}
	}
	return true
}

// Merge returns the slot-wise union of s and other. It reports false when
// the lengths differ; deciding which side was expected is up to the caller.
func (s State) Merge(other State) (State, bool) {
	if s.size != other.size {
		return State{}, false
	}
	if s.top == other.top {
		return s, true
	}
	a, b := s.Slots(), other.Slots()
	merged := make([]types.Descriptor, len(a))
	for i := range a {
		merged[i] = types.Union(a[i], b[i])
	}
	return Of(merged...), true
}

// String renders the state top first, e.g. "[int32, string]".
func (s State) String() string {
	parts := make([]string, 0, s.size)
	for cur := s.top; cur != nil; cur = cur.next {
		parts = append(parts, cur.slot.Name())
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
