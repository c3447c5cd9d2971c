package benchmark

import "sort"

// percentileFractions are the buckets a Benchmark carries.
var percentileFractions = map[string]float64{
	"p10": 0.10,
	"p25": 0.25,
	"p50": 0.50,
	"p75": 0.75,
	"p90": 0.90,
}

// percentiles computes the linear-interpolated percentile map over scores.
// An empty input returns an empty map, matching domain.Benchmark.Rank's
// "empty map means unknown" contract.
func percentiles(scores []int) map[string]float64 {
	if len(scores) == 0 {
		return map[string]float64{}
	}
	sorted := make([]int, len(scores))
	copy(sorted, scores)
	sort.Ints(sorted)

	out := make(map[string]float64, len(percentileFractions))
	for name, frac := range percentileFractions {
		out[name] = interpolate(sorted, frac)
	}
	return out
}

// median is percentile(0.5), split out since Benchmark carries it as its
// own field alongside the percentile map.
func median(scores []int) float64 {
	if len(scores) == 0 {
		return 0
	}
	sorted := make([]int, len(scores))
	copy(sorted, scores)
	sort.Ints(sorted)
	return interpolate(sorted, 0.5)
}

func mean(scores []int) float64 {
	if len(scores) == 0 {
		return 0
	}
	sum := 0
	for _, s := range scores {
		sum += s
	}
	return float64(sum) / float64(len(scores))
}

// interpolate returns the frac-th percentile of an already-sorted slice
// using the nearest-rank-with-linear-interpolation method.
func interpolate(sorted []int, frac float64) float64 {
	if len(sorted) == 1 {
		return float64(sorted[0])
	}
	pos := frac * float64(len(sorted)-1)
	lo := int(pos)
	hi := lo + 1
	if hi >= len(sorted) {
		return float64(sorted[lo])
	}
	frac2 := pos - float64(lo)
	return float64(sorted[lo]) + frac2*float64(sorted[hi]-sorted[lo])
}

func meanByCategory(categoryScores []map[string]int) map[string]float64 {
	sums := make(map[string]int)
	counts := make(map[string]int)
	for _, cs := range categoryScores {
		for cat, score := range cs {
			sums[cat] += score
			counts[cat]++
		}
	}
	out := make(map[string]float64, len(sums))
	for cat, sum := range sums {
		out[cat] = float64(sum) / float64(counts[cat])
	}
	return out
}

// topOccurrences ranks issue codes by how many analyses exhibited them,
// breaking ties alphabetically for determinism, and returns at most limit.
func topOccurrences(codeSets []map[string]struct{}, sampleSize, limit int) []topIssueCount {
	counts := make(map[string]int)
	for _, codes := range codeSets {
		for code := range codes {
			counts[code]++
		}
	}
	out := make([]topIssueCount, 0, len(counts))
	for code, n := range counts {
		out = append(out, topIssueCount{Code: code, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Code < out[j].Code
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

type topIssueCount struct {
	Code  string
	Count int
}
