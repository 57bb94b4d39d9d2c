// Package entropy provides the deterministic pseudo-random stream used by the
// simulation. The generator holds no state of its own: callers thread a
// uint32 that lives inside the colony state, so cloning or saving the state
// also captures the exact position in the stream.
package entropy

// LCG constants (Numerical Recipes).
const (
	multiplier = 1664525
	increment  = 1013904223
	twoPow32   = 4294967296.0
)

// FNV-1a 32-bit parameters.
const (
	fnvOffset = 2166136261
	fnvPrime  = 16777619
)

// SeedFromString hashes an arbitrary seed string into an initial stream state.
func SeedFromString(seed string) uint32 {
	h := uint32(fnvOffset)
	for i := 0; i < len(seed); i++ {
		h ^= uint32(seed[i])
		h *= fnvPrime
	}
	return h
}

// Next advances the stream and returns a float in [0, 1).
// uint32 arithmetic wraps, which is the mod 2^32 step.
func Next(state *uint32) float64 {
	*state = multiplier*(*state) + increment
	return float64(*state) / twoPow32
}

// Range returns a float in [lo, hi).
func Range(state *uint32, lo, hi float64) float64 {
	return lo + Next(state)*(hi-lo)
}

// Intn returns an int in [0, n). Returns 0 when n <= 0 without advancing.
func Intn(state *uint32, n int) int {
	if n <= 0 {
		return 0
	}
	i := int(Next(state) * float64(n))
	if i >= n {
		i = n - 1
	}
	return i
}

// Pick returns a uniformly chosen element of items.
func Pick[T any](state *uint32, items []T) T {
	var zero T
	if len(items) == 0 {
		return zero
	}
	return items[Intn(state, len(items))]
}
