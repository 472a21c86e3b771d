package sheet

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/xuri/excelize/v2"
)

const defaultWorkbookSheet = "Sheet1"

// WorkbookStore keeps every sheet as a worksheet of a local .xlsx file, which is the offline
// equivalent of the shared spreadsheet. The file is saved after every write.
type WorkbookStore struct {
	mu   sync.Mutex
	path string
	file *excelize.File
}

// NewWorkbookStore opens the workbook at path, creating it when it does not exist.
func NewWorkbookStore(path string) (*WorkbookStore, error) {
	file, err := excelize.OpenFile(path)
	if errors.Is(err, os.ErrNotExist) {
		file = excelize.NewFile()
		err = nil
	}

	if err != nil {
		return nil, fmt.Errorf("error opening workbook %s: %w", path, err)
	}

	return &WorkbookStore{path: path, file: file}, nil
}

func (w *WorkbookStore) has(name string) bool {
	for _, s := range w.file.GetSheetList() {
		if s == name {
			return true
		}
	}

	return false
}

// EnsureSheet implements Store.
func (w *WorkbookStore) EnsureSheet(_ context.Context, name string, header []string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.has(name) {
		return nil
	}

	if _, err := w.file.NewSheet(name); err != nil {
		return fmt.Errorf("error creating worksheet %s: %w", name, err)
	}

	if err := w.setRow(name, 1, header); err != nil {
		return err
	}

	// a fresh workbook starts with a placeholder sheet that is not part of the schema
	if name != defaultWorkbookSheet && w.has(defaultWorkbookSheet) {
		if err := w.file.DeleteSheet(defaultWorkbookSheet); err != nil {
			return fmt.Errorf("error removing placeholder worksheet: %w", err)
		}
	}

	return w.save()
}

// ReadSheet implements Store.
func (w *WorkbookStore) ReadSheet(_ context.Context, name string) (*Table, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.has(name) {
		return nil, fmt.Errorf("%s: %w", name, ErrSheetNotFound)
	}

	rows, err := w.file.GetRows(name)
	if err != nil {
		return nil, fmt.Errorf("error reading worksheet %s: %w", name, err)
	}

	table := &Table{Name: name, Header: []string{}, Rows: [][]string{}}
	if len(rows) == 0 {
		return table, nil
	}

	table.Header = rows[0]
	table.Rows = rows[1:]

	return table, nil
}

// WriteSheet implements Store.
func (w *WorkbookStore) WriteSheet(_ context.Context, table *Table) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.has(table.Name) {
		if _, err := w.file.NewSheet(table.Name); err != nil {
			return fmt.Errorf("error creating worksheet %s: %w", table.Name, err)
		}
	}

	if err := w.replace(table); err != nil {
		return err
	}

	return w.save()
}

// ResetSheet implements Store.
func (w *WorkbookStore) ResetSheet(ctx context.Context, name string, header []string) error {
	return w.WriteSheet(ctx, NewTable(name, header))
}

// Close implements Store.
func (w *WorkbookStore) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.file.Close()
}

func (w *WorkbookStore) replace(table *Table) error {
	existing, err := w.file.GetRows(table.Name)
	if err != nil {
		return fmt.Errorf("error reading worksheet %s: %w", table.Name, err)
	}

	// drop every old row from the bottom up, a narrower header must not leave stale columns
	for r := len(existing); r >= 1; r-- {
		if err := w.file.RemoveRow(table.Name, r); err != nil {
			return fmt.Errorf("error trimming worksheet %s: %w", table.Name, err)
		}
	}

	width := len(table.Header)

	if err := w.setRow(table.Name, 1, table.Header); err != nil {
		return err
	}

	for i, row := range table.Rows {
		padded := make([]string, width)
		copy(padded, row)

		if err := w.setRow(table.Name, i+2, padded); err != nil {
			return err
		}
	}

	return nil
}

func (w *WorkbookStore) setRow(name string, rowNum int, cells []string) error {
	cell, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return fmt.Errorf("error addressing row %d of %s: %w", rowNum, name, err)
	}

	values := make([]interface{}, len(cells))
	for i, c := range cells {
		values[i] = c
	}

	if err := w.file.SetSheetRow(name, cell, &values); err != nil {
		return fmt.Errorf("error writing row %d of %s: %w", rowNum, name, err)
	}

	return nil
}

func (w *WorkbookStore) save() error {
	if err := w.file.SaveAs(w.path); err != nil {
		return fmt.Errorf("error saving workbook %s: %w", w.path, err)
	}

	return nil
}
