package core

import "time"

const (
	ChartPie  ChartKind = "pie"
	ChartLine ChartKind = "line"

	PeriodAll       Period = "all"
	PeriodThisMonth Period = "this_month"
	PeriodLastMonth Period = "last_month"
)

type (
	ChartKind string

	// Period restricts the records of a chart to a calendar window relative
	// to the time of the run.
	Period string

	// ChartDefinition describes one chart to refresh: where its placeholder
	// lives, which data source feeds it and how records are read.
	ChartDefinition struct {
		Title            string    `yaml:"title"`
		Kind             ChartKind `yaml:"kind"`
		ContainerID      string    `yaml:"container_id"`
		DataSourceID     string    `yaml:"data_source_id"`
		CategoryProperty string    `yaml:"category_property"`
		ValueProperty    string    `yaml:"value_property"`
		DateProperty     string    `yaml:"date_property"`
		Ignore           []string  `yaml:"ignore"`
		Period           Period    `yaml:"period"`
		MaxPoints        int       `yaml:"max_points"`
		Filter           *Filter   `yaml:"filter"`
	}
)

// FilterAt returns the record filter of the chart for a run at now: the
// period's date range ANDed with any explicit filter. Nil means all records.
func (d ChartDefinition) FilterAt(now time.Time) *Filter {
	var period *Filter
	switch d.Period {
	case PeriodThisMonth:
		first, last := MonthRange(now, 0)
		period = DateRangeFilter(d.DateProperty, first, last)
	case PeriodLastMonth:
		first, last := MonthRange(now, -1)
		period = DateRangeFilter(d.DateProperty, first, last)
	}

	switch {
	case period == nil && d.Filter.IsZero():
		return nil
	case period == nil:
		return d.Filter
	case d.Filter.IsZero():
		return period
	default:
		return &Filter{And: []Filter{*period, *d.Filter}}
	}
}
