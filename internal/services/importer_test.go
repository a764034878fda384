package services

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"chartsync/internal/core"
	"chartsync/internal/storage"
	"chartsync/internal/store/memory"
)

func TestImportDataSourcesIntoSQLite(t *testing.T) {
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "charts.db"), nil)
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	defer repo.Close()

	src := memory.New()
	src.SetCategoryDomain("expenses", "Category", "Food", "Rent")
	src.AddRecords("expenses",
		expense("r1", "Food", 12.5),
		expense("r2", "Rent", 700),
	)

	ctx := context.Background()
	stats, err := ImportDataSources(ctx, repo, src.DataSources())
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if want := (ImportStats{DataSources: 1, Domains: 1, Records: 2}); stats != want {
		t.Fatalf("stats = %+v, want %+v", stats, want)
	}

	// Importing twice must not duplicate records.
	if _, err := ImportDataSources(ctx, repo, src.DataSources()); err != nil {
		t.Fatalf("second import: %v", err)
	}

	domain, err := repo.CategoryDomain(ctx, "expenses", "Category")
	if err != nil {
		t.Fatalf("domain: %v", err)
	}
	if diff := cmp.Diff([]string{"Food", "Rent"}, domain); diff != "" {
		t.Errorf("domain mismatch (-want +got):\n%s", diff)
	}

	records, err := repo.QueryRecords(ctx, "expenses", nil)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
}

type failingTarget struct{ err error }

func (f failingTarget) SetCategoryDomain(context.Context, string, string, ...string) error {
	return nil
}

func (f failingTarget) UpsertRecords(context.Context, string, ...core.Record) error {
	return f.err
}

func TestImportDataSourcesStopsOnError(t *testing.T) {
	boom := errors.New("disk full")
	sources := []memory.DataSource{
		{ID: "a", Records: []core.Record{expense("r1", "Food", 1)}},
		{ID: "b", Records: []core.Record{expense("r2", "Food", 1)}},
	}

	stats, err := ImportDataSources(context.Background(), failingTarget{err: boom}, sources)
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
	if !strings.Contains(err.Error(), "records of a") {
		t.Errorf("error should name the data source: %v", err)
	}
	if stats.DataSources != 0 || stats.Records != 0 {
		t.Errorf("nothing should be counted, got %+v", stats)
	}
}
