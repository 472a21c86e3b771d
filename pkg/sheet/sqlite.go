package sheet

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"

	// use the sqlite db driver.
	_ "github.com/mattn/go-sqlite3"
)

//go:embed sqlite.sql
var sqliteSQL string

// SQLiteStore keeps every sheet in a local sqlite file. A sheet is a header row plus its data
// rows serialized as JSON arrays, so the spreadsheet's loose, additive schema survives as is.
type SQLiteStore struct {
	conn *sql.DB
}

// NewSQLiteStore opens (or creates) the sqlite file and its tables.
func NewSQLiteStore(ctx context.Context, filename string) (*SQLiteStore, error) {
	conn, err := sql.Open("sqlite3", filename)
	if err != nil {
		return nil, fmt.Errorf("error connecting to sqlite db at %s: %w", filename, err)
	}

	// one writer at a time; sqlite would otherwise report SQLITE_BUSY under parallel loads
	conn.SetMaxOpenConns(1)

	if _, err := conn.ExecContext(ctx, sqliteSQL); err != nil {
		conn.Close()

		return nil, fmt.Errorf("error running base sql: %w", err)
	}

	return &SQLiteStore{conn: conn}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.conn.Close()
}

// EnsureSheet implements Store.
func (s *SQLiteStore) EnsureSheet(ctx context.Context, name string, header []string) error {
	encoded, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("error encoding header for %s: %w", name, err)
	}

	_, err = s.conn.ExecContext(ctx,
		`INSERT INTO sheet (name, header) VALUES ($1, $2) ON CONFLICT(name) DO NOTHING`,
		name, string(encoded),
	)
	if err != nil {
		return fmt.Errorf("error creating sheet %s: %w", name, err)
	}

	return nil
}

// ReadSheet implements Store.
func (s *SQLiteStore) ReadSheet(ctx context.Context, name string) (*Table, error) {
	var header string

	err := s.conn.QueryRowContext(ctx, `SELECT header FROM sheet WHERE name = $1`, name).Scan(&header)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", name, ErrSheetNotFound)
	}

	if err != nil {
		return nil, fmt.Errorf("error loading sheet %s: %w", name, err)
	}

	table := &Table{Name: name, Rows: [][]string{}}
	if err := json.Unmarshal([]byte(header), &table.Header); err != nil {
		return nil, fmt.Errorf("error decoding header of %s: %w", name, err)
	}

	rows, err := s.conn.QueryContext(ctx,
		`SELECT cells FROM sheet_row WHERE sheet_name = $1 ORDER BY row_index`, name)
	if err != nil {
		return nil, fmt.Errorf("error loading rows of %s: %w", name, err)
	}
	defer rows.Close()

	for rows.Next() {
		var cells string

		if err := rows.Scan(&cells); err != nil {
			return nil, fmt.Errorf("error scanning rows of %s: %w", name, err)
		}

		var row []string
		if err := json.Unmarshal([]byte(cells), &row); err != nil {
			return nil, fmt.Errorf("error decoding row of %s: %w", name, err)
		}

		table.Rows = append(table.Rows, row)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error scanning rows of %s: %w", name, err)
	}

	return table, nil
}

// WriteSheet implements Store. The header and all rows are replaced in one transaction.
func (s *SQLiteStore) WriteSheet(ctx context.Context, table *Table) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error starting write of %s: %w", table.Name, err)
	}

	if err := writeRows(ctx, tx, table); err != nil {
		tx.Rollback()

		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error committing write of %s: %w", table.Name, err)
	}

	return nil
}

func writeRows(ctx context.Context, tx *sql.Tx, table *Table) error {
	header, err := json.Marshal(table.Header)
	if err != nil {
		return fmt.Errorf("error encoding header for %s: %w", table.Name, err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO sheet (name, header) VALUES ($1, $2)
		     ON CONFLICT(name) DO UPDATE SET header = excluded.header`,
		table.Name, string(header),
	); err != nil {
		return fmt.Errorf("error writing header of %s: %w", table.Name, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM sheet_row WHERE sheet_name = $1`, table.Name); err != nil {
		return fmt.Errorf("error clearing rows of %s: %w", table.Name, err)
	}

	for i, row := range table.Rows {
		cells, err := json.Marshal(row)
		if err != nil {
			return fmt.Errorf("error encoding row %d of %s: %w", i, table.Name, err)
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO sheet_row (sheet_name, row_index, cells) VALUES ($1, $2, $3)`,
			table.Name, i, string(cells),
		); err != nil {
			return fmt.Errorf("error writing row %d of %s: %w", i, table.Name, err)
		}
	}

	return nil
}

// ResetSheet implements Store.
func (s *SQLiteStore) ResetSheet(ctx context.Context, name string, header []string) error {
	return s.WriteSheet(ctx, NewTable(name, header))
}
