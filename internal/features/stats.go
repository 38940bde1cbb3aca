package features

import (
	"math"
	"sort"
)

// percentileRank returns each value's rank divided by the number of defined
// values, averaging ranks across ties. NaN inputs stay NaN.
func percentileRank(values []float64) []float64 {
	idx := make([]int, 0, len(values))
	for i, v := range values {
		if !math.IsNaN(v) {
			idx = append(idx, i)
		}
	}
	sort.SliceStable(idx, func(a, b int) bool { return values[idx[a]] < values[idx[b]] })

	out := make([]float64, len(values))
	for i := range out {
		out[i] = math.NaN()
	}

	n := float64(len(idx))
	for start := 0; start < len(idx); {
		end := start
		for end+1 < len(idx) && values[idx[end+1]] == values[idx[start]] {
			end++
		}
		// 1-based ranks start+1..end+1 share their mean
		avg := float64(start+end+2) / 2
		for k := start; k <= end; k++ {
			out[idx[k]] = avg / n
		}
		start = end + 1
	}
	return out
}

// quantile interpolates linearly between the closest ranks of the defined
// values, so q=0.9 over ten values lands between the ninth and tenth.
func quantile(values []float64, q float64) float64 {
	sorted := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			sorted = append(sorted, v)
		}
	}
	if len(sorted) == 0 {
		return math.NaN()
	}
	sort.Float64s(sorted)

	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	return sorted[lo] + (pos-float64(lo))*(sorted[hi]-sorted[lo])
}

// nanMean averages the defined values, NaN when there are none.
func nanMean(values []float64) float64 {
	var sum float64
	var n int
	for _, v := range values {
		if !math.IsNaN(v) {
			sum += v
			n++
		}
	}
	if n == 0 {
		return math.NaN()
	}
	return sum / float64(n)
}

func nanToZero(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func boolFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
