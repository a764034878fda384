package core

import "time"

// DateLayout is the ISO 8601 calendar date layout used for date keys.
const DateLayout = "2006-01-02"

// MonthRange returns the first and last day of the month offset months away
// from the month containing now. Offset 0 is the current month, -1 the
// previous one.
func MonthRange(now time.Time, offset int) (first, last time.Time) {
	y, m, _ := now.Date()
	first = time.Date(y, m+time.Month(offset), 1, 0, 0, 0, 0, now.Location())
	last = first.AddDate(0, 1, -1)
	return first, last
}

// DateRangeFilter matches records whose date property lies within
// [from, to], both ends inclusive.
func DateRangeFilter(property string, from, to time.Time) *Filter {
	return &Filter{
		And: []Filter{
			{Property: property, Date: &DateCondition{OnOrAfter: from.Format(DateLayout)}},
			{Property: property, Date: &DateCondition{OnOrBefore: to.Format(DateLayout)}},
		},
	}
}

// NewDate returns midnight UTC of the given calendar day.
func NewDate(year, month, day int) time.Time {
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}
