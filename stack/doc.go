// Package stack models the operand stack seen by the verifier at one program
// point.
//
// A State is an immutable, top-first sequence of slots, each holding a
// types.Descriptor. It is implemented as a shared-tail linked list: pushing
// is O(1) and never copies, which lets every recorded transition keep its own
// snapshot for diagnostics.
package stack
