package db

import (
	"context"
	"fmt"
	"io"

	"github.com/matt-steen/kanban-sheets/pkg/sheet"
	"github.com/xuri/excelize/v2"
)

// exportTabs maps the task sheets onto the worksheet names of an export workbook.
var exportTabs = []struct {
	sheet string
	tab   string
}{
	{sheet.SheetTasks, "Tareas"},
	{sheet.SheetCollaborators, "Colaboradores"},
	{sheet.SheetInteractions, "Interacciones"},
	{sheet.SheetItems, "Items"},
}

// ExportTabs lists the worksheet names of an export, in order.
func ExportTabs() []string {
	tabs := make([]string, 0, len(exportTabs))
	for _, t := range exportTabs {
		tabs = append(tabs, t.tab)
	}

	return tabs
}

// Export writes an xlsx workbook with one worksheet per task sheet. Empty sheets are exported
// with just their header row.
func (d *Database) Export(ctx context.Context, w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	for i, t := range exportTabs {
		table, err := sheet.ReadOrEmpty(ctx, d.store, t.sheet)
		if err != nil {
			return fmt.Errorf("error reading %s for export: %w", t.sheet, err)
		}

		if len(table.Header) == 0 {
			table.Header = sheet.Schema()[t.sheet]
		}

		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), t.tab); err != nil {
				return fmt.Errorf("error naming export tab %s: %w", t.tab, err)
			}
		} else if _, err := f.NewSheet(t.tab); err != nil {
			return fmt.Errorf("error adding export tab %s: %w", t.tab, err)
		}

		if err := writeTab(f, t.tab, table); err != nil {
			return err
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("error writing export: %w", err)
	}

	return nil
}

func writeTab(f *excelize.File, tab string, table *sheet.Table) error {
	rows := append([][]string{table.Header}, table.Rows...)

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}

		values := make([]interface{}, len(row))
		for j, v := range row {
			values[j] = v
		}

		if err := f.SetSheetRow(tab, cell, &values); err != nil {
			return fmt.Errorf("error writing export tab %s: %w", tab, err)
		}
	}

	return nil
}
