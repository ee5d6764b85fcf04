// Package errors provides structured error types for the stack-verifier module.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type carries the location path, the instruction mnemonic involved and the
// cause chain.
//
// These are operational errors: bad arguments, unreadable input, provider failures.
// A stream that fails verification is not an error; it produces a verify.Result.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseParse, errors.KindInvalidData).
//		Path("instructions", "7").
//		Op("br").
//		Detail("label depth %d exceeds nesting %d", 3, 1).
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.NotFound(errors.PhaseParse, "label", "L9")
//	err := errors.OutOfBounds(errors.PhaseVerify, path, 10, 5)
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
