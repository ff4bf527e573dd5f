package chart

import (
	"time"

	"github.com/jgoulah/bandwidthscraper/pkg/models"
	"github.com/samber/lo"
)

// segment is a contiguous run of present values
type segment[X any] struct {
	xs []X
	ys []float64
}

// segments splits a line at missing values so gaps stay visible
func segments[X any](xs []X, values []models.Measure) []segment[X] {
	var out []segment[X]
	var cur segment[X]
	for idx, m := range values {
		if !m.Valid {
			if len(cur.ys) > 0 {
				out = append(out, cur)
				cur = segment[X]{}
			}
			continue
		}
		cur.xs = append(cur.xs, xs[idx])
		cur.ys = append(cur.ys, m.Value)
	}
	if len(cur.ys) > 0 {
		out = append(out, cur)
	}
	return out
}

// withOrigin returns copies of the line prefixed with a zero point at the earliest date
func withOrigin(days []time.Time, values []models.Measure) ([]time.Time, []models.Measure) {
	if len(days) == 0 {
		return nil, nil
	}
	origin := lo.MinBy(days, func(a, b time.Time) bool { return a.Before(b) })

	xs := make([]time.Time, 0, len(days)+1)
	xs = append(xs, origin)
	xs = append(xs, days...)

	ys := make([]models.Measure, 0, len(values)+1)
	ys = append(ys, models.Present(0))
	ys = append(ys, values...)

	return xs, ys
}

// peak returns the largest present value across both directions
func peak(samples []models.Sample) (float64, bool) {
	present := lo.Filter(append(outs(samples), ins(samples)...), func(m models.Measure, _ int) bool {
		return m.Valid
	})
	if len(present) == 0 {
		return 0, false
	}
	return lo.MaxBy(present, func(a, b models.Measure) bool { return a.Value > b.Value }).Value, true
}

func outs(samples []models.Sample) []models.Measure {
	return lo.Map(samples, func(s models.Sample, _ int) models.Measure { return s.Out })
}

func ins(samples []models.Sample) []models.Measure {
	return lo.Map(samples, func(s models.Sample, _ int) models.Measure { return s.In })
}
