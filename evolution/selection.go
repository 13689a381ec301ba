package evolution

import "math"

// ClampRate limits a reproduction rate to [0, 1].
func ClampRate(rate float64) float64 {
	if math.IsNaN(rate) || rate < 0 {
		return 0
	}
	if rate > 1 {
		return 1
	}
	return rate
}

// ReplacementCount returns how many of the lowest-ranked individuals are
// overwritten each generation: floor(rate*size), never more than half the
// population.
func ReplacementCount(size int, rate float64) int {
	if size <= 0 {
		return 0
	}
	n := int(math.Floor(ClampRate(rate) * float64(size)))
	return min(n, size/2)
}

// Replace overwrites the first n individuals of a population sorted by
// ascending fitness with the mirrored top ranks: position i receives a copy
// of position size-1-i. Copies are independent when the strategy can clone
// itself.
func Replace(individuals []*Individual, n int) {
	size := len(individuals)
	n = min(n, size/2)
	for i := 0; i < n; i++ {
		individuals[i] = individuals[size-1-i].Clone()
	}
}
