package bayesopt

import (
	"math"
	"sort"

	"golang.org/x/exp/constraints"
)

//////
// Helper functions.
//////

// clip bounds v to the inclusive range [lo, hi].
func clip[T constraints.Ordered](v, lo, hi T) T {
	if v < lo {
		return lo
	}

	if v > hi {
		return hi
	}

	return v
}

// softmax returns the probability vector proportional to exp(eta * g) for
// each gain g. The maximum is subtracted before exponentiation for
// numerical stability.
//
// Returns:
// - Probabilities summing to 1, one per input gain.
func softmax(eta float64, gains []float64) []float64 {
	probs := make([]float64, len(gains))

	maxGain := math.Inf(-1)
	for _, g := range gains {
		if eta*g > maxGain {
			maxGain = eta * g
		}
	}

	var sum float64

	for i, g := range gains {
		probs[i] = math.Exp(eta*g - maxGain)
		sum += probs[i]
	}

	for i := range probs {
		probs[i] /= sum
	}

	return probs
}

// sampleIndex draws an index from the categorical distribution described
// by probs using a single uniform draw from the shared generator.
func sampleIndex(u float64, probs []float64) int {
	var cum float64

	for i, p := range probs {
		cum += p
		if u < cum {
			return i
		}
	}

	// Guard against cumulative rounding leaving u just above the total.
	return len(probs) - 1
}

// argsortAsc returns the indices that would sort values ascending, without
// touching the input slice.
func argsortAsc(values []float64) []int {
	idx := make([]int, len(values))
	for i := range idx {
		idx[i] = i
	}

	sort.SliceStable(idx, func(a, b int) bool {
		return values[idx[a]] < values[idx[b]]
	})

	return idx
}

// encodePoints maps decoded points into the space's numeric representation
// for surrogate training.
func encodePoints(space Space, xs []Point) [][]float64 {
	encoded := make([][]float64, len(xs))
	for i, x := range xs {
		encoded[i] = space.Encode(x)
	}

	return encoded
}

// logCosts returns the element-wise natural log of the observed evaluation
// times, flooring each cost at a small positive value so instantaneous
// evaluations do not produce infinities.
func logCosts(costs []float64) []float64 {
	out := make([]float64, len(costs))
	for i, c := range costs {
		out[i] = math.Log(math.Max(c, 1e-9))
	}

	return out
}
