// Package diag turns a failed verify.Result into text for people.
//
// Message gives the one-line summary ("Sum expects 2 values on the stack").
// Dump gives the extended report: the relevant stack(s), top to bottom, then
// the instruction listing with the failing line marked:
//
//	Stack
//	=====
//	int32  // bad value
//	string
//
//	Instructions
//	============
//	ldc.i4 1
//	call Concat // relevant instruction
//
// Error wraps both behind the error interface. Asking for a message or dump
// of verify.Success is a programming error and panics.
package diag
