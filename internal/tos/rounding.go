package tos

import "math"

// LargestRemainder allocates total units across weighted shares so the
// result sums to total exactly. Each share is floored first, then the
// leftover units go one at a time to the shares with the largest
// fractional remainder, ties broken by input order. Independent rounding
// would drift by several units on realistic inputs; this never does.
//
// A non-positive weight sum yields an all-zero allocation.
func LargestRemainder(weights []float64, total int) []int {
	counts := make([]int, len(weights))
	if total <= 0 || len(weights) == 0 {
		return counts
	}

	var sum float64
	for _, w := range weights {
		if w > 0 {
			sum += w
		}
	}
	if sum <= 0 {
		return counts
	}

	remainders := make([]float64, len(weights))
	assigned := 0
	for i, w := range weights {
		if w <= 0 {
			continue
		}
		exact := float64(total) * w / sum
		counts[i] = int(math.Floor(exact))
		remainders[i] = exact - float64(counts[i])
		assigned += counts[i]
	}

	// Hand out the leftover units by descending remainder. A stable
	// scan keeps ties in input order.
	for leftover := total - assigned; leftover > 0; leftover-- {
		best := -1
		for i := range weights {
			if weights[i] <= 0 {
				continue
			}
			if best == -1 || remainders[i] > remainders[best] {
				best = i
			}
		}
		if best == -1 {
			break
		}
		counts[best]++
		remainders[best] = -1
	}

	return counts
}
