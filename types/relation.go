package types

// Relation decides covariance between concrete types.
type Relation interface {
	// IsSubtype reports whether a value of type sub may be used where super
	// is expected. Identity is handled by the caller.
	IsSubtype(sub, super Type) bool
}

// Exact is the relation with no subtyping: only identical types match.
type Exact struct{}

// IsSubtype implements Relation.
func (Exact) IsSubtype(sub, super Type) bool {
	return false
}

// Hierarchy is a declared nominal subtype graph. A type is a subtype of every
// ancestor reachable through its parent links.
//
// Declare returns a new Hierarchy, so a value handed to a Verifier never
// changes underneath a running verification.
type Hierarchy struct {
	parents map[Type][]Type
}

// NewHierarchy returns an empty hierarchy.
func NewHierarchy() Hierarchy {
	return Hierarchy{}
}

// Declare records parents as direct supertypes of t.
func (h Hierarchy) Declare(t Type, parents ...Type) Hierarchy {
	next := make(map[Type][]Type, len(h.parents)+1)
	for k, v := range h.parents {
		next[k] = v
	}
	merged := append([]Type(nil), next[t]...)
	for _, p := range parents {
		if !contains(merged, p) {
			merged = append(merged, p)
		}
	}
	next[t] = merged
	return Hierarchy{parents: next}
}

// Parents returns the direct supertypes of t.
func (h Hierarchy) Parents(t Type) []Type {
	return append([]Type(nil), h.parents[t]...)
}

// IsSubtype implements Relation with a breadth-first walk of parent links.
func (h Hierarchy) IsSubtype(sub, super Type) bool {
	if sub == super {
		return true
	}
	seen := map[Type]bool{sub: true}
	queue := []Type{sub}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, p := range h.parents[cur] {
			if p == super {
				return true
			}
			if !seen[p] {
				seen[p] = true
				queue = append(queue, p)
			}
		}
	}
	return false
}
