package backend

import (
	"context"
	"fmt"

	applog "chartsync/internal/log"
	"chartsync/internal/notion"
	gsheet "chartsync/internal/store/google"
	"chartsync/internal/store/memory"
	"chartsync/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *applog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *applog.Logger) Factory {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &DefaultFactory{
		logger: logger.WithComponent(applog.ComponentBackend),
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if config.Type == MemoryBackend {
		return f.createMemoryBackend(ctx, config)
	}

	if config.Notion.Logger == nil {
		config.Notion.Logger = f.logger
	}
	blocks, err := notion.New(config.Notion)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Notion client: %w", err)
	}

	switch config.Type {
	case NotionBackend:
		f.logger.InfoContext(ctx, "Initialized Notion backend", applog.FieldOperation, applog.OpStartup)
		return &BackendResult{Blocks: blocks, Records: blocks, Cleanup: noCleanup}, nil
	case SQLiteBackend:
		return f.createSQLiteBackend(ctx, config, blocks)
	case SheetsBackend:
		return f.createSheetsBackend(ctx, config, blocks)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createSQLiteBackend(ctx context.Context, config Config, blocks *notion.Client) (*BackendResult, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath, f.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	f.logger.InfoContext(ctx, "Initialized SQLite backend",
		applog.FieldOperation, applog.OpStartup,
		"db_path", config.SQLiteDBPath)

	return &BackendResult{Blocks: blocks, Records: repo, Cleanup: repo.Close}, nil
}

func (f *DefaultFactory) createSheetsBackend(ctx context.Context, config Config, blocks *notion.Client) (*BackendResult, error) {
	if config.Google.Logger == nil {
		config.Google.Logger = f.logger
	}
	cli, err := gsheet.New(ctx, config.Google)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}

	f.logger.InfoContext(ctx, "Initialized Google Sheets backend",
		applog.FieldOperation, applog.OpStartup,
		"spreadsheet_id", config.Google.SpreadsheetID)

	return &BackendResult{Blocks: blocks, Records: cli, Cleanup: noCleanup}, nil
}

func (f *DefaultFactory) createMemoryBackend(ctx context.Context, config Config) (*BackendResult, error) {
	s, err := memory.NewFromFile(config.MemorySeedFile)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize memory backend: %w", err)
	}

	f.logger.InfoContext(ctx, "Initialized memory backend",
		applog.FieldOperation, applog.OpStartup,
		"seed_file", config.MemorySeedFile)

	return &BackendResult{Blocks: s, Records: s, Cleanup: noCleanup}, nil
}

func noCleanup() error { return nil }
