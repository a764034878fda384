package store

import (
	"context"

	"chartsync/internal/core"
)

// Ports for outbound adapters.
type (
	BlockReader interface {
		// ListChildren returns the immediate children of a block, all pages.
		ListChildren(ctx context.Context, blockID string) ([]core.Block, error)
	}

	BlockWriter interface {
		// ReplaceContent overwrites the whole text payload of a code block.
		ReplaceContent(ctx context.Context, blockID, text string) error
	}

	// SchemaReader exposes the declared options of a select property.
	SchemaReader interface {
		CategoryDomain(ctx context.Context, dataSourceID, property string) ([]string, error)
	}

	// RecordQuerier runs a filtered read against a data source. A nil filter
	// returns every record.
	RecordQuerier interface {
		QueryRecords(ctx context.Context, dataSourceID string, filter *core.Filter) ([]core.Record, error)
	}

	BlockStore interface {
		BlockReader
		BlockWriter
	}

	RecordSource interface {
		SchemaReader
		RecordQuerier
	}
)
