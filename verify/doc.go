// Package verify checks an instruction stream against the stack discipline
// each instruction declares.
//
// The instruction set is not known here. A Provider hands the Verifier one
// Effect per instruction: the operand types it pops (top first), the result
// types it pushes, its branch targets, whether it falls through, and
// optionally the exact stack size it requires.
//
// Simulation:
//  1. Instruction 0 receives Options.Entry.
//  2. The lowest pending instruction is simulated: underflow check, operand
//     type check from the top, required-size check, then pop/push. Every
//     successful step is recorded as a Transition.
//  3. The output state is delivered to the fallthrough successor, then to
//     each branch target. The first state to reach an instruction is its
//     expected state; later arrivals must be compatible with it, and the
//     instruction is re-simulated whenever the union of arrivals grows.
//  4. The first finding ends the run.
//
// The outcome is a Result: Success, or one of StackUnderflow, TypeMismatch,
// StackMismatch and StackSizeFailure. Failures carry the read-only Trace of
// their run, so transition indices can be resolved to instructions after the
// Verifier itself is gone:
//
//	v, err := verify.New(provider, verify.DefaultOptions())
//	if err != nil {
//	    return err
//	}
//	res, err := v.Verify()
//	if err != nil {
//	    return err
//	}
//	if f, ok := verify.AsFailure(res); ok {
//	    instr, _ := f.InstructionIndexOf(f.TransitionIndex)
//	    ...
//	}
package verify
