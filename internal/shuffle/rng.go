package shuffle

import "math/rand"

// NewRand returns a generator whose draws are fully determined by seed.
// Two generators built from the same seed produce identical streams,
// regardless of process state or what other generators have drawn.
func NewRand(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

// ambientSeed draws a one-off seed from the process-global source. The global
// source is only touched for this single draw; the resulting generator is
// owned by exactly one rewrite pass, so concurrent candidates never share
// mutable RNG state.
func ambientSeed() int64 {
	return rand.Int63()
}

// Strings returns a uniformly random permutation of parts using rng
// (Fisher–Yates). The input slice is left untouched; empty and single-element
// inputs come back as copies in original order.
func Strings(parts []string, rng *rand.Rand) []string {
	out := make([]string, len(parts))
	copy(out, parts)
	for i := len(out) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		out[i], out[j] = out[j], out[i]
	}
	return out
}
