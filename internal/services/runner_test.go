package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"chartsync/internal/core"
)

func definitions() []core.ChartDefinition {
	pie := func(title string, period core.Period) core.ChartDefinition {
		return core.ChartDefinition{
			Title:            title,
			Kind:             core.ChartPie,
			ContainerID:      "page",
			DataSourceID:     "expenses",
			CategoryProperty: "Category",
			ValueProperty:    "Amount",
			DateProperty:     "Date",
			Period:           period,
		}
	}
	return []core.ChartDefinition{
		pie("This Month Expenses", core.PeriodThisMonth),
		pie("Missing Chart", core.PeriodThisMonth),
		pie("Last Month Expenses", core.PeriodLastMonth),
	}
}

func newTestRunner(t *testing.T) (*Runner, func(string) string) {
	t.Helper()
	s := seededStore()
	r := NewRunner(NewChartUpdater(s, s, quietLogger()), definitions())
	r.now = func() time.Time { return time.Date(2025, 3, 20, 8, 0, 0, 0, time.UTC) }
	return r, func(id string) string {
		text, _ := s.Text(id)
		return text
	}
}

func TestRunAllStopsAtFirstFailureKeepingEarlierWrites(t *testing.T) {
	r, text := newTestRunner(t)

	results, err := r.RunAll(context.Background())
	if !errors.Is(err, core.ErrChartBlockNotFound) {
		t.Fatalf("expected chart block not found, got %v", err)
	}
	if len(results) != 1 || results[0].BlockID != "this-month" {
		t.Fatalf("expected only the first chart committed, got %+v", results)
	}
	if got := text("this-month"); got == "pie showData title This Month Expenses" {
		t.Fatal("first chart write was reverted")
	}
	if got := text("last-month"); got != "pie showData title Last Month Expenses" {
		t.Fatalf("chart after the failure must be untouched, got %q", got)
	}
}

func TestRunSingleChart(t *testing.T) {
	r, text := newTestRunner(t)

	res, err := r.Run(context.Background(), "Last Month Expenses")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// All seeded records are dated March, so February is empty.
	if res.Records != 0 {
		t.Fatalf("expected no records last month, got %d", res.Records)
	}
	want := "%%{init: {'theme':'default'}}%%\n" +
		"pie showData title Last Month Expenses\n" +
		"    \"Food\": 0\n" +
		"    \"Rent\": 0\n"
	if got := text("last-month"); got != want {
		t.Fatalf("unexpected text:\n got %q\nwant %q", got, want)
	}

	if _, err := r.Run(context.Background(), "Nope"); !errors.Is(err, ErrUnknownChart) {
		t.Fatalf("expected unknown chart error, got %v", err)
	}
}

func TestRunAllHonoursCancellation(t *testing.T) {
	r, _ := newTestRunner(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := r.RunAll(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context canceled, got %v", err)
	}
}

func TestRunnerCharts(t *testing.T) {
	r, _ := newTestRunner(t)
	got := r.Charts()
	if len(got) != 3 || got[0] != "This Month Expenses" || got[2] != "Last Month Expenses" {
		t.Fatalf("unexpected chart order: %v", got)
	}
}

func TestRunUnsupportedKind(t *testing.T) {
	s := seededStore()
	r := NewRunner(NewChartUpdater(s, s, quietLogger()), []core.ChartDefinition{{Title: "X", Kind: "bar"}})
	if _, err := r.RunAll(context.Background()); err == nil {
		t.Fatal("expected error for unsupported kind")
	}
}

func TestRunnerSetCharts(t *testing.T) {
	r, _ := newTestRunner(t)
	defs := definitions()
	r.SetCharts([]core.ChartDefinition{defs[2]})

	if got := r.Charts(); len(got) != 1 || got[0] != "Last Month Expenses" {
		t.Fatalf("unexpected charts after replace: %v", got)
	}
	results, err := r.RunAll(context.Background())
	if err != nil || len(results) != 1 {
		t.Fatalf("expected one committed chart, got %+v err=%v", results, err)
	}
	if _, err := r.Run(context.Background(), "This Month Expenses"); !errors.Is(err, ErrUnknownChart) {
		t.Fatalf("removed chart should be unknown, got %v", err)
	}
}
