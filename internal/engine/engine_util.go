package engine

import "math/rand/v2"

// ShuffledChoices returns a fresh random permutation of Choices.
// The global math/rand/v2 source is seeded per process, so calls are independent.
func ShuffledChoices() []Choice {
	out := make([]Choice, len(Choices))
	copy(out, Choices)
	rand.Shuffle(len(out), func(i, j int) {
		out[i], out[j] = out[j], out[i]
	})
	return out
}
