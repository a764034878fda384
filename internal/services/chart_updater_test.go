package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"chartsync/internal/core"
	applog "chartsync/internal/log"
	"chartsync/internal/store"
	"chartsync/internal/store/memory"
)

func quietLogger() *applog.Logger {
	return applog.New(applog.Config{Component: applog.ComponentUpdater, Handler: slog.NewTextHandler(io.Discard, nil)})
}

func expense(id, category string, value float64) core.Record {
	return core.Record{ID: id, Properties: map[string]core.Property{
		"Category": core.SelectProperty(category),
		"Amount":   core.NumberProperty(value),
		"Date":     core.DateProperty("2025-03-10"),
	}}
}

func seededStore() *memory.Store {
	s := memory.New()
	s.AddBlocks("page",
		core.Block{ID: "intro", Type: "paragraph", Text: "This Month Expenses"},
		core.Block{ID: "this-month", Type: "code", Text: "pie showData title This Month Expenses"},
		core.Block{ID: "toggle", Type: "toggle"},
	)
	s.AddBlocks("toggle",
		core.Block{ID: "last-month", Type: "code", Text: "pie showData title Last Month Expenses"},
		core.Block{ID: "balance", Type: "code", Text: "xychart title \"Balance\""},
	)
	s.SetCategoryDomain("expenses", "Category", "Food", "Rent")
	s.AddRecords("expenses",
		expense("r1", "Food", -10),
		expense("r2", "Rent", -20),
		expense("r3", "Food", -5),
	)
	return s
}

func pieRequest(title string) PieRequest {
	return PieRequest{
		Title:            title,
		ContainerID:      "page",
		DataSourceID:     "expenses",
		CategoryProperty: "Category",
		ValueProperty:    "Amount",
	}
}

func TestUpdatePieWritesChart(t *testing.T) {
	s := seededStore()
	u := NewChartUpdater(s, s, quietLogger())

	res, err := u.UpdatePie(context.Background(), pieRequest("This Month Expenses"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.BlockID != "this-month" || res.Records != 3 || res.Points != 2 {
		t.Fatalf("unexpected result: %+v", res)
	}
	want := "%%{init: {'theme':'default'}}%%\n" +
		"pie showData title This Month Expenses\n" +
		"    \"Food\": 15\n" +
		"    \"Rent\": 20\n"
	if text, _ := s.Text("this-month"); text != want {
		t.Fatalf("unexpected block text:\n got %q\nwant %q", text, want)
	}
}

func TestUpdatePieIgnoresCategories(t *testing.T) {
	s := seededStore()
	u := NewChartUpdater(s, s, quietLogger())

	req := pieRequest("Last Month Expenses")
	req.Ignore = []string{"Rent"}
	if _, err := u.UpdatePie(context.Background(), req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	text, _ := s.Text("last-month")
	if strings.Contains(text, "Rent") || !strings.Contains(text, `"Food": 15`) {
		t.Fatalf("unexpected block text: %q", text)
	}
}

func TestUpdatePieMissingBlock(t *testing.T) {
	s := seededStore()
	u := NewChartUpdater(s, s, quietLogger())

	_, err := u.UpdatePie(context.Background(), pieRequest("Yearly Expenses"))
	if !errors.Is(err, core.ErrChartBlockNotFound) {
		t.Fatalf("expected chart block not found, got %v", err)
	}
	var nf *core.ChartBlockNotFoundError
	if !errors.As(err, &nf) || nf.Title != "Yearly Expenses" {
		t.Fatalf("expected title in error, got %v", err)
	}
	if len(s.Writes()) != 0 {
		t.Fatalf("expected no writes, got %v", s.Writes())
	}
}

func TestUpdatePieSchemaMismatchWritesNothing(t *testing.T) {
	s := seededStore()
	s.AddRecords("expenses", core.Record{ID: "bad", Properties: map[string]core.Property{
		"Category": core.SelectProperty("Food"),
		"Amount":   {Type: "rollup"},
	}})
	u := NewChartUpdater(s, s, quietLogger())

	_, err := u.UpdatePie(context.Background(), pieRequest("This Month Expenses"))
	var sm *core.SchemaMismatchError
	if !errors.As(err, &sm) || sm.Property != "Amount" || sm.Actual != "rollup" {
		t.Fatalf("expected schema mismatch with context, got %v", err)
	}
	if len(s.Writes()) != 0 {
		t.Fatalf("expected no writes, got %v", s.Writes())
	}
}

func TestUpdatePieUnknownCategoryWritesNothing(t *testing.T) {
	s := seededStore()
	s.AddRecords("expenses", expense("r4", "Travel", -1))
	u := NewChartUpdater(s, s, quietLogger())

	if _, err := u.UpdatePie(context.Background(), pieRequest("This Month Expenses")); !errors.Is(err, core.ErrUnknownCategory) {
		t.Fatalf("expected unknown category, got %v", err)
	}
	if len(s.Writes()) != 0 {
		t.Fatalf("expected no writes, got %v", s.Writes())
	}
}

func TestUpdatePieAppliesFilter(t *testing.T) {
	s := seededStore()
	s.AddRecords("expenses", core.Record{ID: "old", Properties: map[string]core.Property{
		"Category": core.SelectProperty("Rent"),
		"Amount":   core.NumberProperty(-999),
		"Date":     core.DateProperty("2025-02-01"),
	}})
	u := NewChartUpdater(s, s, quietLogger())

	req := pieRequest("This Month Expenses")
	req.Filter = core.DateRangeFilter("Date", core.NewDate(2025, 3, 1), core.NewDate(2025, 3, 31))
	res, err := u.UpdatePie(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Records != 3 || !strings.Contains(res.Text, `"Rent": 20`) {
		t.Fatalf("filter not applied: %+v", res)
	}
}

func TestUpdatePieWriteFailurePropagates(t *testing.T) {
	s := seededStore()
	boom := errors.New("503 service unavailable")
	s.FailWrites("this-month", boom)
	u := NewChartUpdater(s, s, quietLogger())

	if _, err := u.UpdatePie(context.Background(), pieRequest("This Month Expenses")); !errors.Is(err, boom) {
		t.Fatalf("expected transport error, got %v", err)
	}
}

func TestUpdateLineWritesChart(t *testing.T) {
	s := seededStore()
	s.AddRecords("balance",
		core.Record{ID: "b1", Properties: map[string]core.Property{"Date": core.DateProperty("2024-01-01"), "Amount": core.NumberProperty(10)}},
		core.Record{ID: "b2", Properties: map[string]core.Property{"Date": core.DateProperty("2024-02-01"), "Amount": core.FormulaProperty(-5)}},
		core.Record{ID: "b3", Properties: map[string]core.Property{"Date": core.DateProperty("2024-03-01"), "Amount": core.NumberProperty(20)}},
	)
	u := NewChartUpdater(s, s, quietLogger())

	res, err := u.UpdateLine(context.Background(), LineRequest{
		Title:         "Balance",
		ContainerID:   "page",
		DataSourceID:  "balance",
		DateProperty:  "Date",
		ValueProperty: "Amount",
		MaxPoints:     2,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.BlockID != "balance" || res.Points != 2 {
		t.Fatalf("unexpected result: %+v", res)
	}
	text, _ := s.Text("balance")
	for _, line := range []string{`    x-axis ["24-02", "24-03"]`, `    line [5, 25]`} {
		if !strings.Contains(text, line+"\n") {
			t.Fatalf("expected %q in %q", line, text)
		}
	}
}

func TestUpdateLineEmptySeries(t *testing.T) {
	s := seededStore()
	u := NewChartUpdater(s, s, quietLogger())

	res, err := u.UpdateLine(context.Background(), LineRequest{
		Title: "Balance", ContainerID: "page", DataSourceID: "nothing", DateProperty: "Date", ValueProperty: "Amount",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(res.Text, "x-axis []") || !strings.Contains(res.Text, "line []") {
		t.Fatalf("unexpected empty chart: %q", res.Text)
	}
}

func TestDryRunPrintsInsteadOfWriting(t *testing.T) {
	s := seededStore()
	var out bytes.Buffer
	u := NewChartUpdater(store.DryRun(s, &out), s, quietLogger())

	if _, err := u.UpdatePie(context.Background(), pieRequest("This Month Expenses")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(s.Writes()) != 0 {
		t.Fatalf("dry run must not write, got %v", s.Writes())
	}
	if !strings.HasPrefix(out.String(), "--- block this-month\n") || !strings.Contains(out.String(), `"Food": 15`) {
		t.Fatalf("unexpected dry run output: %q", out.String())
	}
}

func TestIsChartError(t *testing.T) {
	if !IsChartError(&core.ChartBlockNotFoundError{Title: "x"}) {
		t.Error("expected chart error for missing block")
	}
	if IsChartError(errors.New("timeout")) {
		t.Error("transport error classified as chart error")
	}
}

func TestUpdateRetraversesTreeEachTime(t *testing.T) {
	s := seededStore()
	u := NewChartUpdater(s, s, quietLogger())
	ctx := context.Background()

	if _, err := u.UpdatePie(ctx, pieRequest("Last Month Expenses")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	first := s.ListCalls()
	if first == 0 {
		t.Fatal("expected the tree to be listed")
	}
	if _, err := u.UpdatePie(ctx, pieRequest("Last Month Expenses")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := s.ListCalls(); got != 2*first {
		t.Fatalf("expected %d listings after two updates, got %d", 2*first, got)
	}
}
