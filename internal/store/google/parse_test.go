package google

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/google/go-cmp/cmp"

	"chartsync/internal/core"
)

func TestNewFromEnv_MissingSpreadsheetID(t *testing.T) {
	t.Setenv("GOOGLE_SPREADSHEET_ID", "")

	_, err := NewFromEnv(context.Background())
	if err == nil {
		t.Fatal("expected error for missing GOOGLE_SPREADSHEET_ID")
	}
	if err.Error() != "missing GOOGLE_SPREADSHEET_ID" {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestNewFromEnv_MissingCredentials(t *testing.T) {
	t.Setenv("GOOGLE_SPREADSHEET_ID", "sheet")
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_JSON", "")
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_FILE", "")
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")

	if _, err := NewFromEnv(context.Background()); err == nil {
		t.Fatal("expected credentials error")
	}
}

func TestNewFromEnv_UnreadableCredentialsFile(t *testing.T) {
	t.Setenv("GOOGLE_SPREADSHEET_ID", "sheet")
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_JSON", "")
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_FILE", t.TempDir()+"/missing.json")

	_, err := NewFromEnv(context.Background())
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not exist error, got %v", err)
	}
}

func TestClient_NotInitialized(t *testing.T) {
	c := &Client{spreadsheetID: "test"}
	if _, err := c.QueryRecords(context.Background(), "Expenses", nil); err == nil {
		t.Fatal("expected error with nil service")
	}
	if _, err := c.CategoryDomain(context.Background(), "Expenses", "Category"); err == nil {
		t.Fatal("expected error with nil service")
	}
}

func TestParseRecords(t *testing.T) {
	values := [][]any{
		{"Name", "Category", "Amount", "Date"},
		{"Lunch", "Food", -12.5, "2025-03-02"},
		{},
		{"", "", "", ""},
		{"Rent", "Rent", "-800,00", "2025-03-01"},
		{"Refund", "", 40.0},
	}

	got := parseRecords("Expenses", values, nil)
	want := []core.Record{
		{ID: "Expenses!A2", Properties: map[string]core.Property{
			"Name":     core.SelectProperty("Lunch"),
			"Category": core.SelectProperty("Food"),
			"Amount":   core.NumberProperty(-12.5),
			"Date":     core.DateProperty("2025-03-02"),
		}},
		{ID: "Expenses!A5", Properties: map[string]core.Property{
			"Name":     core.SelectProperty("Rent"),
			"Category": core.SelectProperty("Rent"),
			"Amount":   core.NumberProperty(-800),
			"Date":     core.DateProperty("2025-03-01"),
		}},
		{ID: "Expenses!A6", Properties: map[string]core.Property{
			"Name":     core.SelectProperty("Refund"),
			"Category": {Type: core.PropertySelect},
			"Amount":   core.NumberProperty(40),
			"Date":     {Type: core.PropertySelect},
		}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("records mismatch (-want +got):\n%s", diff)
	}
}

func TestParseRecordsEmpty(t *testing.T) {
	if got := parseRecords("Expenses", nil, nil); got != nil {
		t.Fatalf("expected nil, got %v", got)
	}
	if got := parseRecords("Expenses", [][]any{{"Amount"}}, nil); len(got) != 0 {
		t.Fatalf("expected no records, got %v", got)
	}
}

func TestInferProperty(t *testing.T) {
	tests := []struct {
		name string
		cell any
		want core.Property
	}{
		{"float", 3.5, core.NumberProperty(3.5)},
		{"int", 7, core.NumberProperty(7)},
		{"numeric string", " 12.25 ", core.NumberProperty(12.25)},
		{"currency string", "£15", core.NumberProperty(15)},
		{"grouped thousands", "1,234.56", core.NumberProperty(1234.56)},
		{"european grouping", "-1.234,56", core.NumberProperty(-1234.56)},
		{"bad grouping", "1,2,3", core.SelectProperty("1,2,3")},
		{"not a number", "NaN", core.SelectProperty("NaN")},
		{"iso date", "2024-12-31", core.DateProperty("2024-12-31")},
		{"date time", "2024-12-31 08:30:00", core.DateProperty("2024-12-31")},
		{"text", "Travel", core.SelectProperty("Travel")},
		{"nil", nil, core.Property{Type: core.PropertySelect}},
		{"blank", "  ", core.Property{Type: core.PropertySelect}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, inferProperty(tt.cell)); diff != "" {
				t.Fatalf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestColumnValues(t *testing.T) {
	values := [][]any{
		{"Account", "category"},
		{"Main", "Food"},
		{"Main", "Rent"},
		{"Savings"},
		{"", "# archived"},
		{"", "Food"},
		{"", " Fun "},
	}

	got, ok := columnValues(values, "Category")
	if !ok {
		t.Fatal("expected header to be found case-insensitively")
	}
	if diff := cmp.Diff([]string{"Food", "Rent", "Fun"}, got); diff != "" {
		t.Fatalf("domain mismatch (-want +got):\n%s", diff)
	}

	if _, ok := columnValues(values, "Missing"); ok {
		t.Fatal("expected missing header")
	}
	if _, ok := columnValues(nil, "Category"); ok {
		t.Fatal("expected missing header on empty sheet")
	}
}

func TestParsedRecordsFilterLocally(t *testing.T) {
	values := [][]any{
		{"Category", "Amount", "Date"},
		{"Food", -1.0, "2025-02-28"},
		{"Food", -2.0, "2025-03-01"},
		{"Rent", -3.0, "2025-03-31"},
		{"Fun", -4.0, "2025-04-01"},
	}
	filter := core.DateRangeFilter("Date", core.NewDate(2025, 3, 1), core.NewDate(2025, 3, 31))

	var ids []string
	for _, r := range parseRecords("Expenses", values, nil) {
		if filter.Match(r) {
			ids = append(ids, r.ID)
		}
	}
	if diff := cmp.Diff([]string{"Expenses!A3", "Expenses!A4"}, ids); diff != "" {
		t.Fatalf("filtered ids mismatch (-want +got):\n%s", diff)
	}
}

func TestParseRecordsKeepsCategoryColumnsAsSelects(t *testing.T) {
	values := [][]any{
		{"Year", "Code", "Amount"},
		{2024.0, "401", "1,234.56"},
		{"2025", 402.0, ""},
	}

	got := parseRecords("Ledger", values, newColumnSet([]string{" year ", "CODE"}))
	want := []core.Record{
		{ID: "Ledger!A2", Properties: map[string]core.Property{
			"Year":   core.SelectProperty("2024"),
			"Code":   core.SelectProperty("401"),
			"Amount": core.NumberProperty(1234.56),
		}},
		{ID: "Ledger!A3", Properties: map[string]core.Property{
			"Year":   core.SelectProperty("2025"),
			"Code":   core.SelectProperty("402"),
			"Amount": {Type: core.PropertySelect},
		}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("records mismatch (-want +got):\n%s", diff)
	}

	filter := &core.Filter{Property: "Year", Select: &core.SelectCondition{Equals: "2024"}}
	var ids []string
	for _, r := range got {
		if filter.Match(r) {
			ids = append(ids, r.ID)
		}
	}
	if diff := cmp.Diff([]string{"Ledger!A2"}, ids); diff != "" {
		t.Fatalf("numeric label filter mismatch (-want +got):\n%s", diff)
	}
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"12", 12, true},
		{"-800,00", -800, true},
		{"12,5", 12.5, true},
		{"1,234", 1234, true},
		{"1,234,567", 1234567, true},
		{"1.234.567", 1234567, true},
		{"1,234.56", 1234.56, true},
		{"1.234,56", 1234.56, true},
		{"€ 1.234,56", 1234.56, true},
		{".5", 0.5, true},
		{"12,34.5", 0, false},
		{"1.234,5,6", 0, false},
		{"12.", 0, false},
		{"-", 0, false},
		{"1e5", 0, false},
		{"Inf", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := parseNumber(tt.in)
			if ok != tt.ok || got != tt.want {
				t.Fatalf("parseNumber(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.ok)
			}
		})
	}
}
