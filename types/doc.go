// Package types describes what may occupy a simulated stack slot.
//
// A Descriptor is an immutable set of candidate Types. Straight-line code only
// ever produces single-candidate descriptors; a union appears when two
// control-flow paths reach the same instruction with related but different
// types in a slot, and that ambiguity is kept rather than collapsed.
//
// Assignability is delegated to a Relation. Exact allows identity only;
// Hierarchy adds covariance along declared parent links:
//
//	h := types.NewHierarchy().
//		Declare("string", "object").
//		Declare("object")
//	types.Of("string").AssignableTo(types.Of("object"), h) // true
package types
