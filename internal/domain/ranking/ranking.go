// Package ranking computes the weighted composite score used to order
// candidates.
package ranking

import (
	"sort"

	"github.com/sinhau/pixelbliss/internal/domain/model"
)

// neutralScore is used when a metric range is degenerate or a metric is
// absent, so that it neither rewards nor penalizes any candidate.
const neutralScore = 0.5

// Rescore normalizes brightness and entropy across the batch and fills in
// each candidate's final score in place. The transform is pure and
// order-independent; running it twice without metric mutation yields
// identical results. Batch order is preserved.
func Rescore(candidates []*model.Candidate, weights model.ScoreWeights) {
	if len(candidates) == 0 {
		return
	}

	bMin, bMax := metricRange(candidates, func(m model.Metrics) model.Metric { return m.Brightness })
	eMin, eMax := metricRange(candidates, func(m model.Metrics) model.Metric { return m.Entropy })

	for _, c := range candidates {
		bNorm := normalize(c.Metrics.Brightness.Or(0), bMin, bMax)
		eNorm := normalize(c.Metrics.Entropy.Or(0), eMin, eMax)

		final := weights.Brightness*bNorm +
			weights.Entropy*eNorm +
			weights.Aesthetic*c.Metrics.Aesthetic.Or(neutralScore) +
			weights.LocalQuality*c.Metrics.LocalQuality.Or(neutralScore)

		c.Metrics.Final = model.Score(final)
	}
}

// SortByFinal returns a new slice sorted by final score descending.
// Candidates with equal scores keep their relative batch order.
func SortByFinal(candidates []*model.Candidate) []*model.Candidate {
	sorted := make([]*model.Candidate, len(candidates))
	copy(sorted, candidates)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Metrics.Final.Or(0) > sorted[j].Metrics.Final.Or(0)
	})
	return sorted
}

func metricRange(candidates []*model.Candidate, get func(model.Metrics) model.Metric) (float64, float64) {
	lo, hi := 0.0, 0.0
	first := true
	for _, c := range candidates {
		v := get(c.Metrics).Or(0)
		if first {
			lo, hi = v, v
			first = false
			continue
		}
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}

// normalize maps v linearly from [lo, hi] to [0, 1]; a degenerate range
// yields the neutral score for every candidate.
func normalize(v, lo, hi float64) float64 {
	if hi <= lo {
		return neutralScore
	}
	return (v - lo) / (hi - lo)
}
