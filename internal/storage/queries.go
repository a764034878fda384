package storage

import (
	"context"
	"database/sql"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
}

// Queries holds the statements of the record store.
type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

const listCategoryOptions = `SELECT name FROM category_options
WHERE data_source = ? AND property = ?
ORDER BY position`

func (q *Queries) ListCategoryOptions(ctx context.Context, dataSource, property string) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, listCategoryOptions, dataSource, property)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		items = append(items, name)
	}
	return items, rows.Err()
}

const deleteCategoryOptions = `DELETE FROM category_options WHERE data_source = ? AND property = ?`

func (q *Queries) DeleteCategoryOptions(ctx context.Context, dataSource, property string) error {
	_, err := q.db.ExecContext(ctx, deleteCategoryOptions, dataSource, property)
	return err
}

const insertCategoryOption = `INSERT INTO category_options (data_source, property, position, name)
VALUES (?, ?, ?, ?)
ON CONFLICT (data_source, property, name) DO NOTHING`

type InsertCategoryOptionParams struct {
	DataSource string
	Property   string
	Position   int64
	Name       string
}

func (q *Queries) InsertCategoryOption(ctx context.Context, arg InsertCategoryOptionParams) error {
	_, err := q.db.ExecContext(ctx, insertCategoryOption, arg.DataSource, arg.Property, arg.Position, arg.Name)
	return err
}

const upsertRecord = `INSERT INTO records (data_source, id, properties)
VALUES (?, ?, ?)
ON CONFLICT (data_source, id) DO UPDATE SET
    properties = excluded.properties,
    updated_at = CURRENT_TIMESTAMP`

type UpsertRecordParams struct {
	DataSource string
	ID         string
	Properties string
}

func (q *Queries) UpsertRecord(ctx context.Context, arg UpsertRecordParams) error {
	_, err := q.db.ExecContext(ctx, upsertRecord, arg.DataSource, arg.ID, arg.Properties)
	return err
}

const listRecords = `SELECT id, properties FROM records
WHERE data_source = ?
ORDER BY rowid`

type RecordRow struct {
	ID         string
	Properties string
}

func (q *Queries) ListRecords(ctx context.Context, dataSource string) ([]RecordRow, error) {
	rows, err := q.db.QueryContext(ctx, listRecords, dataSource)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []RecordRow
	for rows.Next() {
		var i RecordRow
		if err := rows.Scan(&i.ID, &i.Properties); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const deleteRecord = `DELETE FROM records WHERE data_source = ? AND id = ?`

func (q *Queries) DeleteRecord(ctx context.Context, dataSource, id string) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteRecord, dataSource, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
