// Package wasmfx verifies WebAssembly function bodies written as flat text,
// one instruction per line:
//
//	param i32 i32
//	result i32
//	local.get 0
//	local.get 1
//	i32.add
//
// Value types use wazero's api vocabulary. Plain instructions take their
// operand types from Table. Structured control is lowered to explicit
// branch edges: a branch to a block or if lands on its end, a branch to a
// loop lands on its header, and if branches past its else. The function's
// final end and return require the stack to hold exactly the results.
//
// A branch carries the whole operand stack to its target; values below a
// block's results are not discarded.
package wasmfx
