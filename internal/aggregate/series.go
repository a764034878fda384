package aggregate

import (
	"fmt"
	"sort"

	"chartsync/internal/core"
)

// DefaultMaxPoints is the series window used when none is configured.
const DefaultMaxPoints = 24

// SeriesOptions names the record properties a cumulative chart reads.
type SeriesOptions struct {
	DateProperty  string
	ValueProperty string
	MaxPoints     int
}

// Series buckets records by date key, sums each bucket without changing
// sign, then replaces every bucket with the running total rounded at each
// step. Only the latest MaxPoints buckets are kept.
func Series(records []core.Record, opts SeriesOptions) (core.Series, error) {
	maxPoints := opts.MaxPoints
	if maxPoints <= 0 {
		maxPoints = DefaultMaxPoints
	}

	buckets := make(map[string]float64)
	for i, r := range records {
		measure, err := Value(r, opts.ValueProperty)
		if err != nil {
			return nil, fmt.Errorf("record %s: %w", recordRef(r, i), err)
		}
		key, err := DateKey(r, opts.DateProperty)
		if err != nil {
			return nil, fmt.Errorf("record %s: %w", recordRef(r, i), err)
		}
		buckets[key] += measure
	}

	keys := make([]string, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	series := make(core.Series, len(keys))
	var acc float64
	for i, k := range keys {
		acc += buckets[k]
		series[i] = core.Point{Key: k, Value: core.Round2(acc)}
	}

	if len(series) > maxPoints {
		series = series[len(series)-maxPoints:]
	}
	return series, nil
}
