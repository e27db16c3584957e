package entropy

import "math/rand"

// Source is the random stream consumed by dice rolls and personality sampling.
// *rand.Rand satisfies it.
type Source interface {
	Intn(n int) int
	Float64() float64
}

// New returns a deterministic stream for the given seed.
func New(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

// Derive returns an independent sub-stream keyed by seed and the given parts
// (tick, nation index, war number...). The same inputs always yield the same
// stream, regardless of the order in which sub-streams are created.
func Derive(seed int64, parts ...uint64) *rand.Rand {
	h := splitmix(uint64(seed))
	for _, p := range parts {
		h = splitmix(h ^ p)
	}
	return New(int64(h >> 1))
}

// splitmix is the SplitMix64 finalizer.
func splitmix(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}
