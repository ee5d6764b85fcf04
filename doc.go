// Package stackverifier checks that a linear instruction stream uses its
// operand stack consistently.
//
// Each instruction declares a stack effect: the operand types it pops, the
// types it pushes, where control may go next and, optionally, the exact
// stack size it requires. The verifier simulates every reachable path,
// merges the stacks that meet at join points and stops at the first
// problem: an underflow, a value of the wrong type, two paths arriving with
// incompatible stacks, or a wrong stack size.
//
// # Packages
//
//	stackverifier/       Check and Verify entry points
//	├── types/           Type descriptors and subtype relations
//	├── stack/           Persistent stack states
//	├── verify/          The verifier, its trace and result variants
//	├── diag/            Messages and debug dumps for failures
//	├── program/         YAML instruction streams
//	├── wasmfx/          Flat WebAssembly text function bodies
//	├── errors/          Structured operational errors
//	└── cmd/stackcheck/  Command line front end
//
// # Quick Start
//
//	fn, err := wasmfx.Compile("add", wasmfx.Signature{}, src)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := stackverifier.CheckSource("add", fn); err != nil {
//	    var de *diag.Error
//	    if errors.As(err, &de) {
//	        fmt.Println(de.Details())
//	    }
//	    log.Fatal(err)
//	}
//
// # Results
//
// A finding is a value, not an error: verify.Verify returns a verify.Result
// that is either verify.Success or one of StackUnderflow, TypeMismatch,
// StackMismatch and StackSizeFailure. Every failure keeps a handle to the
// run's trace so its transition index can be mapped back to an
// instruction. Check converts findings into *diag.Error for callers that
// only want an error.
package stackverifier
