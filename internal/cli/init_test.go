package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigChartsOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "charts.yaml")
	charts := `
charts:
  - title: Spend
    kind: pie
    container_id: page
    data_source_id: expenses
    category_property: Category
    value_property: Amount
`
	if err := os.WriteFile(path, []byte(charts), 0o600); err != nil {
		t.Fatalf("write charts: %v", err)
	}
	t.Setenv("CHARTS_FILE", "")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cfg.Charts) != 1 || cfg.Charts[0].Title != "Spend" {
		t.Fatalf("expected charts from override file, got %+v", cfg.Charts)
	}
	if cfg.ChartsFile != path {
		t.Errorf("ChartsFile = %q, want %q", cfg.ChartsFile, path)
	}
}

func TestLoadConfigMissingChartsFile(t *testing.T) {
	t.Setenv("CHARTS_FILE", "")
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "none.yaml")); err == nil {
		t.Fatal("expected error for missing charts file")
	}
}

func TestSetupLoggerUnknownLevel(t *testing.T) {
	logger := SetupLogger("verbose")
	if logger == nil || logger.Component() != "app" {
		t.Fatalf("unexpected logger: %+v", logger)
	}
}

func TestGracefulShutdownCancel(t *testing.T) {
	ctx, cancel := GracefulShutdown(context.Background(), SetupLogger("error"))
	cancel()
	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("context should be cancelled")
	}
}
