package verify

import "math/bits"

// BitSet is a compact set of instruction indices.
type BitSet struct {
	bits []uint64
}

// NewBitSet creates a BitSet sized for indices up to maxVal.
func NewBitSet(maxVal int) *BitSet {
	words := (maxVal + 64) / 64
	return &BitSet{bits: make([]uint64, words)}
}

// Set adds i to the set.
func (b *BitSet) Set(i int) {
	word := i / 64
	if word >= len(b.bits) {
		b.grow(word + 1)
	}
	b.bits[word] |= 1 << (uint(i) % 64)
}

// Clear removes i from the set.
func (b *BitSet) Clear(i int) {
	word := i / 64
	if i >= 0 && word < len(b.bits) {
		b.bits[word] &^= 1 << (uint(i) % 64)
	}
}

// First returns the smallest element of the set.
func (b *BitSet) First() (int, bool) {
	for w, word := range b.bits {
		if word != 0 {
			return w*64 + bits.TrailingZeros64(word), true
		}
	}
	return 0, false
}

// Has reports whether i is in the set.
func (b *BitSet) Has(i int) bool {
	if i < 0 {
		return false
	}
	word := i / 64
	if word >= len(b.bits) {
		return false
	}
	return b.bits[word]&(1<<(uint(i)%64)) != 0
}

// Count returns the number of elements in the set.
func (b *BitSet) Count() int {
	count := 0
	for _, word := range b.bits {
		count += bits.OnesCount64(word)
	}
	return count
}

// Missing returns, in order, every index below n that is not in the set.
func (b *BitSet) Missing(n int) []int {
	var out []int
	for i := 0; i < n; i++ {
		if !b.Has(i) {
			out = append(out, i)
		}
	}
	return out
}

// grow expands the bitset to n words.
// Callers guarantee n > len(b.bits).
func (b *BitSet) grow(n int) {
	newBits := make([]uint64, n)
	copy(newBits, b.bits)
	b.bits = newBits
}
