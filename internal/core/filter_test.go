package core

import (
	"encoding/json"
	"testing"
)

func record(date, category string) Record {
	return Record{Properties: map[string]Property{
		"Date":     DateProperty(date),
		"Category": SelectProperty(category),
	}}
}

func TestFilterMatch(t *testing.T) {
	feb := DateRangeFilter("Date", NewDate(2025, 2, 1), NewDate(2025, 2, 28))
	cases := []struct {
		name string
		f    *Filter
		r    Record
		ok   bool
	}{
		{"nil filter", nil, record("2025-01-01", "Food"), true},
		{"inside range", feb, record("2025-02-10", "Food"), true},
		{"first day", feb, record("2025-02-01", "Food"), true},
		{"last day with time", feb, record("2025-02-28T23:00:00.000+00:00", "Food"), true},
		{"before range", feb, record("2025-01-31", "Food"), false},
		{"after range", feb, record("2025-03-01", "Food"), false},
		{"missing property", feb, Record{Properties: map[string]Property{}}, false},
		{"or", &Filter{Or: []Filter{
			{Property: "Category", Select: &SelectCondition{Equals: "Rent"}},
			{Property: "Category", Select: &SelectCondition{Equals: "Food"}},
		}}, record("2025-02-10", "Food"), true},
		{"or none", &Filter{Or: []Filter{
			{Property: "Category", Select: &SelectCondition{Equals: "Rent"}},
		}}, record("2025-02-10", "Food"), false},
		{"does not equal", &Filter{Property: "Category", Select: &SelectCondition{DoesNotEqual: "Food"}}, record("2025-02-10", "Food"), false},
		{"strict before", &Filter{Property: "Date", Date: &DateCondition{Before: "2025-02-10"}}, record("2025-02-10", "Food"), false},
		{"strict after", &Filter{Property: "Date", Date: &DateCondition{After: "2025-02-09"}}, record("2025-02-10", "Food"), true},
		{"equals", &Filter{Property: "Date", Date: &DateCondition{Equals: "2025-02-10"}}, record("2025-02-10", "Food"), true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.f.Match(tc.r); got != tc.ok {
				t.Errorf("Match() = %v, want %v", got, tc.ok)
			}
		})
	}
}

func TestFilterJSON(t *testing.T) {
	f := DateRangeFilter("Date", NewDate(2025, 2, 1), NewDate(2025, 2, 28))
	b, err := json.Marshal(f)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"and":[{"property":"Date","date":{"on_or_after":"2025-02-01"}},{"property":"Date","date":{"on_or_before":"2025-02-28"}}]}`
	if string(b) != want {
		t.Fatalf("unexpected json:\n got %s\nwant %s", b, want)
	}
}
