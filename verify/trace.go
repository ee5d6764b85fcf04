package verify

import "github.com/wippyai/stack-verifier/stack"

// Transition is one simulated step: the stack before and after an
// instruction's effect was applied.
type Transition struct {
	Before      stack.State
	After       stack.State
	Index       int
	Instruction int
}

// Trace is the transition history of one verification run. It is complete
// once Verify returns and is never modified afterwards, so results may keep
// it after the Verifier is gone.
//
// Every transition index maps to the instruction that produced it. The step
// that failed also owns an index, but has no recorded Transition.
type Trace struct {
	transitions []Transition
	owners      []int
}

func (t *Trace) record(instr int, before, after stack.State) Transition {
	tr := Transition{
		Index:       len(t.owners),
		Instruction: instr,
		Before:      before,
		After:       after,
	}
	t.owners = append(t.owners, instr)
	t.transitions = append(t.transitions, tr)
	return tr
}

func (t *Trace) reserve(instr int) int {
	t.owners = append(t.owners, instr)
	return len(t.owners) - 1
}

// Len returns the number of recorded transitions.
func (t *Trace) Len() int {
	return len(t.transitions)
}

// At returns the transition with the given index.
func (t *Trace) At(i int) Transition {
	return t.transitions[i]
}

// Transitions returns a copy of the recorded history.
func (t *Trace) Transitions() []Transition {
	return append([]Transition(nil), t.transitions...)
}

// InstructionIndexOf maps a transition index back to its instruction.
func (t *Trace) InstructionIndexOf(transitionIndex int) (int, bool) {
	if transitionIndex < 0 || transitionIndex >= len(t.owners) {
		return 0, false
	}
	return t.owners[transitionIndex], true
}

// ForInstruction returns every transition recorded for instr, in order.
// An instruction revisited after a merge has more than one.
func (t *Trace) ForInstruction(instr int) []Transition {
	var out []Transition
	for _, tr := range t.transitions {
		if tr.Instruction == instr {
			out = append(out, tr)
		}
	}
	return out
}
