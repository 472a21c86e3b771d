package sheet

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrRowNotFound is returned when no row matches a key.
var ErrRowNotFound = errors.New("row not found")

// Codec describes how a row type maps onto a sheet.
type Codec[T any] struct {
	Sheet string
	// Key is the column rows are matched on. Empty means the sheet has no key (a join table).
	Key string
	// IntKey marks Key as an integer id allocated as max(existing)+1.
	IntKey bool
	Decode func(Record) T
	Encode func(T) Record
	// KeyOf and SetKey read and assign the key of a row; SetKey is only used for IntKey sheets.
	KeyOf  func(T) string
	SetKey func(*T, int)
}

// Repo is a whole-table repository: every call reads the entire sheet, changes it in memory
// and writes the entire sheet back. Concurrent writers are last-writer-wins.
type Repo[T any] struct {
	store Store
	codec Codec[T]
}

// NewRepo creates a repository for the codec's sheet.
func NewRepo[T any](store Store, codec Codec[T]) *Repo[T] {
	return &Repo[T]{store: store, codec: codec}
}

// Sheet returns the name of the backing sheet.
func (r *Repo[T]) Sheet() string {
	return r.codec.Sheet
}

func (r *Repo[T]) read(ctx context.Context) (*Table, error) {
	return ReadOrEmpty(ctx, r.store, r.codec.Sheet)
}

func (r *Repo[T]) matches(rec Record, key string) bool {
	if r.codec.IntKey {
		// non-numeric ids never match
		return rec.Int(r.codec.Key, -1) == ParseInt(key, -2)
	}

	return strings.EqualFold(strings.TrimSpace(rec[r.codec.Key]), strings.TrimSpace(key))
}

// List returns every row in sheet order.
func (r *Repo[T]) List(ctx context.Context) ([]T, error) {
	table, err := r.read(ctx)
	if err != nil {
		return nil, err
	}

	rows := []T{}
	for _, rec := range table.Records() {
		rows = append(rows, r.codec.Decode(rec))
	}

	return rows, nil
}

// Get returns the first row matching key.
func (r *Repo[T]) Get(ctx context.Context, key string) (T, error) {
	var zero T

	table, err := r.read(ctx)
	if err != nil {
		return zero, err
	}

	for _, rec := range table.Records() {
		if r.matches(rec, key) {
			return r.codec.Decode(rec), nil
		}
	}

	return zero, fmt.Errorf("%s %s=%s: %w", r.codec.Sheet, r.codec.Key, key, ErrRowNotFound)
}

// NextID returns max(existing ids)+1, or 1 for an empty sheet.
func NextID(table *Table, col string) int {
	return table.MaxInt(col) + 1
}

// Append adds rows to the end of the sheet. For integer-keyed sheets each row is given the next
// id, starting at max(existing)+1. The returned rows carry their assigned ids.
func (r *Repo[T]) Append(ctx context.Context, rows ...T) ([]T, error) {
	if len(rows) == 0 {
		return rows, nil
	}

	table, err := r.read(ctx)
	if err != nil {
		return nil, err
	}

	next := 0
	if r.codec.IntKey {
		next = NextID(table, r.codec.Key)
	}

	out := make([]T, 0, len(rows))

	for _, row := range rows {
		if r.codec.IntKey && r.codec.SetKey != nil {
			r.codec.SetKey(&row, next)
			next++
		}

		table.Append(r.codec.Encode(row))
		out = append(out, row)
	}

	if err := r.store.WriteSheet(ctx, table); err != nil {
		return nil, fmt.Errorf("error writing sheet %s: %w", r.codec.Sheet, err)
	}

	return out, nil
}

// Upsert replaces every column of the rows matching the row's key, or appends the row when no
// row matches. Columns the encoded row does not carry are left untouched.
func (r *Repo[T]) Upsert(ctx context.Context, row T) error {
	table, err := r.read(ctx)
	if err != nil {
		return err
	}

	rec := r.codec.Encode(row)
	if r.apply(table, r.codec.KeyOf(row), rec) == 0 {
		table.Append(rec)
	}

	if err := r.store.WriteSheet(ctx, table); err != nil {
		return fmt.Errorf("error writing sheet %s: %w", r.codec.Sheet, err)
	}

	return nil
}

// Patch sets only the given columns on the rows matching key. Nothing is written when no row
// matches.
func (r *Repo[T]) Patch(ctx context.Context, key string, fields Record) (int, error) {
	table, err := r.read(ctx)
	if err != nil {
		return 0, err
	}

	matched := r.apply(table, key, fields)
	if matched == 0 {
		return 0, fmt.Errorf("%s %s=%s: %w", r.codec.Sheet, r.codec.Key, key, ErrRowNotFound)
	}

	if len(fields) == 0 {
		return matched, nil
	}

	if err := r.store.WriteSheet(ctx, table); err != nil {
		return 0, fmt.Errorf("error writing sheet %s: %w", r.codec.Sheet, err)
	}

	return matched, nil
}

func (r *Repo[T]) apply(table *Table, key string, fields Record) int {
	matched := 0

	for i, row := range table.Rows {
		if len(row) == 0 || strings.TrimSpace(row[0]) == "" {
			continue
		}

		if !r.matches(table.record(row), key) {
			continue
		}

		for _, col := range fields.Columns() {
			table.Set(i, col, fields[col])
		}

		matched++
	}

	return matched
}
