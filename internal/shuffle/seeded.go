// Package shuffle provides a reproducible permutation keyed by a seed string.
package shuffle

import "unicode/utf16"

// Seed folds a seed string into a 32-bit state: seed = seed*31 + c (mod 2^32),
// where c walks the UTF-16 code units of s.
func Seed(s string) uint32 {
	var seed uint32
	for _, c := range utf16.Encode([]rune(s)) {
		seed = seed*31 + uint32(c)
	}
	return seed
}

// Source is an xorshift32 generator. Not suitable for anything security related.
type Source struct {
	state uint32
}

// NewSource returns a generator seeded from s.
func NewSource(s string) *Source {
	return &Source{state: Seed(s)}
}

// Float returns the next value in [0, 1).
func (src *Source) Float() float64 {
	x := src.state
	x ^= x << 13
	x ^= x >> 17
	x ^= x << 5
	src.state = x
	return float64(x) / 4294967296
}

// Seeded returns a Fisher-Yates permutation of items driven by seed.
// The same seed always yields the same order. items is not modified.
func Seeded[T any](items []T, seed string) []T {
	out := make([]T, len(items))
	copy(out, items)

	src := NewSource(seed)
	for i := len(out) - 1; i > 0; i-- {
		j := int(src.Float() * float64(i+1))
		out[i], out[j] = out[j], out[i]
	}
	return out
}
