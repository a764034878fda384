// Package storage is a SQLite record source. Records are stored as JSON
// property maps and filtered in process.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"chartsync/internal/core"
	applog "chartsync/internal/log"
	"chartsync/internal/store"

	_ "modernc.org/sqlite"
)

// Ensure interface conformance
var _ store.RecordSource = (*SQLiteRepository)(nil)

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
	logger  *applog.Logger
}

func NewSQLiteRepository(dbPath string, logger *applog.Logger) (*SQLiteRepository, error) {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	logger = logger.WithComponent(applog.ComponentStorage)

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	version, err := RunMigrations(dbPath)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Debug("SQLite record store ready",
		"db_path", dbPath,
		"schema_version", version)

	return &SQLiteRepository{db: db, queries: New(db), logger: logger}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// CategoryDomain implements store.SchemaReader
func (r *SQLiteRepository) CategoryDomain(ctx context.Context, dataSourceID, property string) ([]string, error) {
	options, err := r.queries.ListCategoryOptions(ctx, dataSourceID, property)
	if err != nil {
		return nil, fmt.Errorf("list category options: %w", err)
	}
	if len(options) == 0 {
		return nil, &core.SchemaMismatchError{Property: property, Expected: "select", Actual: "missing"}
	}
	return options, nil
}

// QueryRecords implements store.RecordQuerier
func (r *SQLiteRepository) QueryRecords(ctx context.Context, dataSourceID string, filter *core.Filter) ([]core.Record, error) {
	rows, err := r.queries.ListRecords(ctx, dataSourceID)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	out := make([]core.Record, 0, len(rows))
	for _, row := range rows {
		rec, err := decodeRecord(row)
		if err != nil {
			return nil, err
		}
		if filter.Match(rec) {
			out = append(out, rec)
		}
	}
	return out, nil
}

// SetCategoryDomain replaces the declared options of a select property.
func (r *SQLiteRepository) SetCategoryDomain(ctx context.Context, dataSourceID, property string, options ...string) error {
	return r.withTx(ctx, func(q *Queries) error {
		if err := q.DeleteCategoryOptions(ctx, dataSourceID, property); err != nil {
			return fmt.Errorf("clear category options: %w", err)
		}
		for i, name := range options {
			err := q.InsertCategoryOption(ctx, InsertCategoryOptionParams{
				DataSource: dataSourceID,
				Property:   property,
				Position:   int64(i),
				Name:       name,
			})
			if err != nil {
				return fmt.Errorf("insert category option %s: %w", name, err)
			}
		}
		return nil
	})
}

// UpsertRecords inserts or replaces records by id.
func (r *SQLiteRepository) UpsertRecords(ctx context.Context, dataSourceID string, records ...core.Record) error {
	err := r.withTx(ctx, func(q *Queries) error {
		for _, rec := range records {
			props, err := encodeProperties(rec.Properties)
			if err != nil {
				return fmt.Errorf("encode record %s: %w", rec.ID, err)
			}
			err = q.UpsertRecord(ctx, UpsertRecordParams{DataSource: dataSourceID, ID: rec.ID, Properties: props})
			if err != nil {
				return fmt.Errorf("upsert record %s: %w", rec.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	r.logger.DebugContext(ctx, "Records saved to SQLite",
		"data_source", dataSourceID,
		"records", len(records))
	return nil
}

// DeleteRecord removes one record. Deleting an unknown record is not an error.
func (r *SQLiteRepository) DeleteRecord(ctx context.Context, dataSourceID, id string) error {
	if _, err := r.queries.DeleteRecord(ctx, dataSourceID, id); err != nil {
		return fmt.Errorf("delete record %s: %w", id, err)
	}
	return nil
}

func (r *SQLiteRepository) withTx(ctx context.Context, fn func(*Queries) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(r.queries.WithTx(tx)); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

type (
	storedProperty struct {
		Type    string         `json:"type"`
		Number  *float64       `json:"number,omitempty"`
		Formula *storedFormula `json:"formula,omitempty"`
		Select  *string        `json:"select,omitempty"`
		Date    *storedDate    `json:"date,omitempty"`
	}

	storedFormula struct {
		Type   string   `json:"type"`
		Number *float64 `json:"number,omitempty"`
	}

	storedDate struct {
		Start string `json:"start"`
		End   string `json:"end,omitempty"`
	}
)

func encodeProperties(props map[string]core.Property) (string, error) {
	out := make(map[string]storedProperty, len(props))
	for name, p := range props {
		sp := storedProperty{Type: string(p.Type), Number: p.Number, Select: p.Select}
		if p.Formula != nil {
			sp.Formula = &storedFormula{Type: p.Formula.Type, Number: p.Formula.Number}
		}
		if p.Date != nil {
			sp.Date = &storedDate{Start: p.Date.Start, End: p.Date.End}
		}
		out[name] = sp
	}
	data, err := json.Marshal(out)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func decodeRecord(row RecordRow) (core.Record, error) {
	var stored map[string]storedProperty
	if err := json.Unmarshal([]byte(row.Properties), &stored); err != nil {
		return core.Record{}, fmt.Errorf("decode record %s: %w", row.ID, err)
	}
	rec := core.Record{ID: row.ID, Properties: make(map[string]core.Property, len(stored))}
	for name, sp := range stored {
		p := core.Property{Type: core.PropertyType(sp.Type), Number: sp.Number, Select: sp.Select}
		if sp.Formula != nil {
			p.Formula = &core.Formula{Type: sp.Formula.Type, Number: sp.Formula.Number}
		}
		if sp.Date != nil {
			p.Date = &core.DateValue{Start: sp.Date.Start, End: sp.Date.End}
		}
		rec.Properties[name] = p
	}
	return rec, nil
}
