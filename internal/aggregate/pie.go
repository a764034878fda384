package aggregate

import (
	"fmt"

	"chartsync/internal/core"
)

// PieOptions names the record properties a category chart reads.
type PieOptions struct {
	CategoryProperty string
	ValueProperty    string
	Ignore           []string
}

// Pie sums records per category into the declared domain.
//
// Every domain label starts at zero so undeclared-but-empty categories still
// show up. Stored expense values are negative outflows, so each measure is
// negated before accumulation (total += -measure). Ignored labels are removed
// from the result, not zeroed, and the remaining totals are rounded with
// core.Round2. Order follows the domain.
func Pie(domain []string, records []core.Record, opts PieOptions) (core.PieAggregate, error) {
	totals := make(map[string]float64, len(domain))
	order := make([]string, 0, len(domain))
	for _, label := range domain {
		if _, seen := totals[label]; seen {
			continue
		}
		totals[label] = 0
		order = append(order, label)
	}

	for i, r := range records {
		measure, err := Value(r, opts.ValueProperty)
		if err != nil {
			return nil, fmt.Errorf("record %s: %w", recordRef(r, i), err)
		}
		label, err := CategoryLabel(r, opts.CategoryProperty)
		if err != nil {
			return nil, fmt.Errorf("record %s: %w", recordRef(r, i), err)
		}
		if _, ok := totals[label]; !ok {
			return nil, fmt.Errorf("record %s: %w", recordRef(r, i),
				&core.UnknownCategoryError{Property: opts.CategoryProperty, Label: label})
		}
		totals[label] += -measure
	}

	ignored := make(map[string]struct{}, len(opts.Ignore))
	for _, label := range opts.Ignore {
		ignored[label] = struct{}{}
	}

	out := make(core.PieAggregate, 0, len(order))
	for _, label := range order {
		if _, skip := ignored[label]; skip {
			continue
		}
		out = append(out, core.Slice{Label: label, Value: core.Round2(totals[label])})
	}
	return out, nil
}

func recordRef(r core.Record, i int) string {
	if r.ID != "" {
		return r.ID
	}
	return fmt.Sprintf("#%d", i)
}
