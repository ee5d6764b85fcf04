package diag

import (
	"fmt"

	"github.com/wippyai/stack-verifier/verify"
)

// Error reports a failed verification as a Go error. Error() is the
// one-line summary; Details() is the full dump.
type Error struct {
	Result   verify.Failed
	Method   string
	Listing  []string
	Renderer Renderer
}

// NewError wraps a failed result. It panics when res is verify.Success.
func NewError(method string, res verify.Result, listing []string) *Error {
	f, ok := res.(verify.Failed)
	if !ok {
		panic(fmt.Sprintf("diag: cannot build an error from %T", res))
	}
	return &Error{
		Result:  f,
		Method:  method,
		Listing: listing,
	}
}

// Error implements the error interface.
func (e *Error) Error() string {
	return Message(e.Method, e.Result)
}

// Details returns the debug dump.
func (e *Error) Details() string {
	return e.Renderer.Dump(e.Result, e.Listing)
}

// Kind returns the failure kind.
func (e *Error) Kind() verify.Kind {
	return e.Result.Kind()
}

// Instruction returns the index of the instruction the failure belongs to.
func (e *Error) Instruction() int {
	return e.Result.Base().Instruction
}

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Result != nil && t.Result.Kind() == e.Result.Kind()
}
