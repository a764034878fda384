package core

import (
	"testing"
	"time"
)

func TestMonthRange(t *testing.T) {
	cases := []struct {
		now         time.Time
		offset      int
		first, last string
	}{
		{time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC), 0, "2025-03-01", "2025-03-31"},
		{time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC), -1, "2025-02-01", "2025-02-28"},
		{time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), -1, "2024-02-01", "2024-02-29"},
		{time.Date(2025, 12, 31, 23, 0, 0, 0, time.UTC), 0, "2025-12-01", "2025-12-31"},
		{time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC), -1, "2024-12-01", "2024-12-31"},
	}
	for i, tc := range cases {
		first, last := MonthRange(tc.now, tc.offset)
		if got := first.Format(DateLayout); got != tc.first {
			t.Fatalf("case %d expected first %s, got %s", i, tc.first, got)
		}
		if got := last.Format(DateLayout); got != tc.last {
			t.Fatalf("case %d expected last %s, got %s", i, tc.last, got)
		}
	}
}

func TestDateRangeFilter(t *testing.T) {
	f := DateRangeFilter("Date", NewDate(2025, 2, 1), NewDate(2025, 2, 28))
	if len(f.And) != 2 {
		t.Fatalf("expected two conditions, got %d", len(f.And))
	}
	if f.And[0].Date.OnOrAfter != "2025-02-01" || f.And[1].Date.OnOrBefore != "2025-02-28" {
		t.Fatalf("unexpected bounds: %+v %+v", f.And[0].Date, f.And[1].Date)
	}
}

func TestChartDefinitionFilterAt(t *testing.T) {
	now := time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)

	all := ChartDefinition{DateProperty: "Date"}
	if f := all.FilterAt(now); f != nil {
		t.Fatalf("expected nil filter, got %+v", f)
	}

	last := ChartDefinition{DateProperty: "Date", Period: PeriodLastMonth}
	f := last.FilterAt(now)
	if f == nil || f.And[0].Date.OnOrAfter != "2025-02-01" || f.And[1].Date.OnOrBefore != "2025-02-28" {
		t.Fatalf("unexpected last month filter: %+v", f)
	}

	extra := &Filter{Property: "Category", Select: &SelectCondition{DoesNotEqual: "Transfer"}}
	combined := ChartDefinition{DateProperty: "Date", Period: PeriodThisMonth, Filter: extra}.FilterAt(now)
	if combined == nil || len(combined.And) != 2 || combined.And[1].Select == nil {
		t.Fatalf("expected period ANDed with explicit filter, got %+v", combined)
	}
	if got := (ChartDefinition{Filter: extra}).FilterAt(now); got != extra {
		t.Fatalf("expected explicit filter, got %+v", got)
	}
}
