package verify

import "github.com/wippyai/stack-verifier/types"

// Effect is the stack discipline one instruction declares.
type Effect struct {
	// RequireStack, when set, is the exact number of values that must be on
	// the stack before the instruction runs (method exit, scope boundary).
	RequireStack *int
	// Pops are the expected operands, top first.
	Pops []types.Descriptor
	// Pushes are the results in push order; the last one ends on top.
	Pushes []types.Descriptor
	// Branches are explicit successor instructions in declaration order.
	Branches []int
	// Terminal instructions do not fall through to the next instruction.
	Terminal bool
}

// Provider supplies the stack effect of every instruction in a stream.
// Verification treats it as read-only.
type Provider interface {
	Len() int
	Effect(i int) (Effect, error)
}

// Effects is a Provider backed by a slice.
type Effects []Effect

// Len implements Provider.
func (e Effects) Len() int { return len(e) }

// Effect implements Provider.
func (e Effects) Effect(i int) (Effect, error) { return e[i], nil }

// Require returns a pointer to n, for Effect.RequireStack literals.
func Require(n int) *int {
	return &n
}

// Op builds a straight-line effect from type names: pops top first, pushes
// in push order.
func Op(pops []types.Type, pushes ...types.Type) Effect {
	return Effect{Pops: types.OfAll(pops...), Pushes: types.OfAll(pushes...)}
}
