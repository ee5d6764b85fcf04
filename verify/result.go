package verify

import (
	"github.com/wippyai/stack-verifier/stack"
	"github.com/wippyai/stack-verifier/types"
)

// Kind names a verification outcome.
type Kind string

const (
	KindSuccess          Kind = "success"
	KindStackUnderflow   Kind = "stack_underflow"
	KindTypeMismatch     Kind = "type_mismatch"
	KindStackMismatch    Kind = "stack_mismatch"
	KindStackSizeFailure Kind = "stack_size_failure"
)

// Result is the outcome of one verification run: Success or exactly one of
// the failure variants. The set of variants is closed.
type Result interface {
	Kind() Kind
	sealed()
}

// Failed is implemented by every failure variant.
type Failed interface {
	Result
	Base() *Failure
}

// Success means every reachable instruction was simulated without a finding.
type Success struct{}

func (Success) Kind() Kind { return KindSuccess }
func (Success) sealed()    {}

// Failure holds what every failure variant carries.
type Failure struct {
	trace *Trace
	// Stack is the simulated stack when the failure was detected.
	Stack stack.State
	// TransitionIndex is the index the failing step was assigned.
	TransitionIndex int
	// Instruction is the instruction that owns TransitionIndex.
	Instruction int
}

func (*Failure) sealed() {}

// Base returns the shared failure fields.
func (f *Failure) Base() *Failure { return f }

// Trace returns the run history the failure was found in.
func (f *Failure) Trace() *Trace { return f.trace }

// InstructionIndexOf resolves any transition index of the run.
func (f *Failure) InstructionIndexOf(transitionIndex int) (int, bool) {
	return f.trace.InstructionIndexOf(transitionIndex)
}

// StackUnderflow: the instruction needed more values than were present.
type StackUnderflow struct {
	Failure
	ExpectedStackSize int
}

func (*StackUnderflow) Kind() Kind { return KindStackUnderflow }

// TypeMismatch: a value on the stack is not assignable to the operand type
// the instruction expects. StackIndex is the first failing slot from the top.
type TypeMismatch struct {
	ExpectedAtStackIndex types.Descriptor
	Failure
	StackIndex int
}

func (*TypeMismatch) Kind() Kind { return KindTypeMismatch }

// Found returns the descriptor that failed the check.
func (m *TypeMismatch) Found() types.Descriptor {
	return m.Stack.Slot(m.StackIndex)
}

// StackMismatch: two control-flow paths reached the same instruction with
// stacks that cannot be merged. ExpectedStack is the first arrival at Target;
// the failure belongs to the instruction whose outgoing edge delivered
// IncomingStack.
type StackMismatch struct {
	ExpectedStack stack.State
	IncomingStack stack.State
	Failure
	// Target is the join point both stacks arrived at.
	Target int
}

func (*StackMismatch) Kind() Kind { return KindStackMismatch }

// StackSizeFailure: the instruction requires an exact stack size.
type StackSizeFailure struct {
	Failure
	ExpectedStackSize int
}

func (*StackSizeFailure) Kind() Kind { return KindStackSizeFailure }

// IsSuccess reports whether r is Success.
func IsSuccess(r Result) bool {
	_, ok := r.(Success)
	return ok
}

// AsFailure returns the shared failure fields, or false for Success.
func AsFailure(r Result) (*Failure, bool) {
	f, ok := r.(Failed)
	if !ok {
		return nil, false
	}
	return f.Base(), true
}
