// Package backend wires the block store and the record source selected by
// configuration.
package backend

import (
	"context"

	"chartsync/internal/notion"
	"chartsync/internal/store"
	gsheet "chartsync/internal/store/google"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult holds the stores a chart run needs. Cleanup is never nil.
type BackendResult struct {
	Blocks  store.BlockStore
	Records store.RecordSource
	Cleanup CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	// Record source type. Blocks always come from Notion except for the
	// memory backend, which serves both.
	Type BackendType

	Notion notion.Config

	// SQLite specific
	SQLiteDBPath string

	// Google Sheets specific
	Google gsheet.Config

	// Memory backend specific
	MemorySeedFile string
}

// BackendType represents the type of backend
type BackendType string

const (
	NotionBackend BackendType = "notion"
	SQLiteBackend BackendType = "sqlite"
	SheetsBackend BackendType = "sheets"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case NotionBackend, SQLiteBackend, SheetsBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
