package diag

import (
	"fmt"

	"github.com/wippyai/stack-verifier/types"
	"github.com/wippyai/stack-verifier/verify"
)

// Message returns the one-line summary for a failed verification. method
// names the code being verified.
//
// Message panics when res is verify.Success; a successful run has nothing to
// explain.
func Message(method string, res verify.Result) string {
	switch f := res.(type) {
	case *verify.StackUnderflow:
		if f.ExpectedStackSize == 1 {
			return fmt.Sprintf("%s expects a value on the stack, but it was empty", method)
		}
		return fmt.Sprintf("%s expects %d values on the stack", method, f.ExpectedStackSize)

	case *verify.TypeMismatch:
		return fmt.Sprintf("%s expected %s; found %s",
			method, types.WithArticle(f.ExpectedAtStackIndex.Name()), f.Found().Name())

	case *verify.StackMismatch:
		return fmt.Sprintf("%s resulted in stack mismatches", method)

	case *verify.StackSizeFailure:
		switch f.ExpectedStackSize {
		case 0:
			return fmt.Sprintf("%s expected the stack to be empty", method)
		case 1:
			return fmt.Sprintf("%s expected the stack to have 1 value", method)
		default:
			return fmt.Sprintf("%s expected the stack to have %d values", method, f.ExpectedStackSize)
		}
	}
	panic(fmt.Sprintf("diag: no message for %T", res))
}
