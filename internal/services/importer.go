package services

import (
	"context"
	"fmt"
	"sort"

	"chartsync/internal/core"
	applog "chartsync/internal/log"
	"chartsync/internal/store/memory"
)

// ImportTarget is a writable record source, implemented by the SQLite
// repository.
type ImportTarget interface {
	SetCategoryDomain(ctx context.Context, dataSourceID, property string, options ...string) error
	UpsertRecords(ctx context.Context, dataSourceID string, records ...core.Record) error
}

// ImportStats counts what an import wrote.
type ImportStats struct {
	DataSources int
	Domains     int
	Records     int
}

// ImportDataSources copies schemas and records into target. Domains are
// replaced and records upserted by id, so re-running an import is safe.
func ImportDataSources(ctx context.Context, target ImportTarget, sources []memory.DataSource) (ImportStats, error) {
	logger := applog.FromContext(ctx).WithComponent(applog.ComponentStorage)
	var stats ImportStats
	for _, ds := range sources {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		props := make([]string, 0, len(ds.Schema))
		for prop := range ds.Schema {
			props = append(props, prop)
		}
		sort.Strings(props)

		for _, prop := range props {
			if err := target.SetCategoryDomain(ctx, ds.ID, prop, ds.Schema[prop]...); err != nil {
				return stats, fmt.Errorf("import domain %s.%s: %w", ds.ID, prop, err)
			}
			stats.Domains++
		}

		if len(ds.Records) > 0 {
			if err := target.UpsertRecords(ctx, ds.ID, ds.Records...); err != nil {
				return stats, fmt.Errorf("import records of %s: %w", ds.ID, err)
			}
			stats.Records += len(ds.Records)
		}

		stats.DataSources++
		logger.InfoContext(ctx, "Imported data source",
			"data_source", ds.ID,
			"domains", len(props),
			"records", len(ds.Records))
	}
	return stats, nil
}
