package core

type (
	// Slice is one category of a pie aggregate.
	Slice struct {
		Label string
		Value float64
	}

	// PieAggregate is ordered by the schema-declared option order.
	PieAggregate []Slice

	// Point is one bucket of a cumulative series.
	Point struct {
		Key   string
		Value float64
	}

	// Series is ordered by ascending date key.
	Series []Point
)

// Value returns the total for label and whether it is present.
func (p PieAggregate) Value(label string) (float64, bool) {
	for _, s := range p {
		if s.Label == label {
			return s.Value, true
		}
	}
	return 0, false
}

// Labels returns the category labels in order.
func (p PieAggregate) Labels() []string {
	out := make([]string, len(p))
	for i, s := range p {
		out[i] = s.Label
	}
	return out
}
