package controller

import (
	"fmt"
	"hash/fnv"
	"regexp"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/matt-steen/kanban-sheets/pkg/db"
	"github.com/rivo/tview"
)

const progressBarWidth = 10

// responsibleColors is a list of colors to alternate through so that tasks sharing a responsible
// are easier to spot.
func responsibleColors() []string {
	return []string{
		"#FF5555",
		"#55FF55",
		"#5599FF",
		"#FFFF55",
		"#FF55FF",
		"#55FFFF",
		"#FFAA00",
		"#AAAAFF",
	}
}

func colorFor(name string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(strings.ToLower(name)))

	colors := responsibleColors()

	return colors[h.Sum32()%uint32(len(colors))]
}

func dueColor(s db.DueState) tcell.Color {
	switch s {
	case db.DueOverdue:
		return tcell.ColorRed
	case db.DueSoon:
		return tcell.ColorYellow
	case db.DueDone:
		return tcell.ColorGreen
	default:
		return tcell.ColorWhite
	}
}

// progressBar renders 0-100 as a fixed-width bar followed by the percentage.
func progressBar(progress int) string {
	if progress < 0 {
		progress = 0
	}

	if progress > 100 {
		progress = 100
	}

	filled := progress * progressBarWidth / 100

	return fmt.Sprintf("%s%s %3d%%", strings.Repeat("█", filled), strings.Repeat("░", progressBarWidth-filled), progress)
}

var colorTag = regexp.MustCompile(`\[[^\[\]]*\]`)

// stripTags removes tview color tags.
func stripTags(s string) string {
	return colorTag.ReplaceAllString(s, "")
}

// ColumnContent implements tview.TableContent, which tview.Table uses to update data.
type ColumnContent struct {
	tview.TableContentReadOnly
	column *db.Column
	today  time.Time
}

// NewColumnContent shows one board column as of today.
func NewColumnContent(column *db.Column, today time.Time) *ColumnContent {
	return &ColumnContent{column: column, today: today}
}

// Task returns the task shown on a row, or nil for the header and out of range rows.
func (s *ColumnContent) Task(row int) *db.Task {
	if s.column == nil || row < 1 || row > len(s.column.Tasks) {
		return nil
	}

	return s.column.Tasks[row-1]
}

// GetCell returns the cell at the given position or nil if no cell.
func (s *ColumnContent) GetCell(row, col int) *tview.TableCell {
	if row == 0 {
		switch col {
		case 0:
			return tview.NewTableCell("task").SetExpansion(descTitleRatio).
				SetTextColor(tcell.ColorYellow).SetSelectable(false)
		case 1:
			return tview.NewTableCell("progress").SetExpansion(1).
				SetTextColor(tcell.ColorYellow).SetSelectable(false)
		case 2:
			return tview.NewTableCell("due").SetExpansion(1).
				SetTextColor(tcell.ColorYellow).SetSelectable(false)
		case 3:
			return tview.NewTableCell("responsible").SetExpansion(1).
				SetTextColor(tcell.ColorYellow).SetSelectable(false)
		}
	}

	task := s.Task(row)
	if task == nil {
		return nil
	}

	color := dueColor(task.DueState(s.today))

	switch col {
	case 0:
		return tview.NewTableCell(tview.Escape(task.Name)).SetExpansion(descTitleRatio).
			SetTextColor(color).SetReference(task)
	case 1:
		return tview.NewTableCell(progressBar(task.Progress)).SetExpansion(1)
	case 2:
		due := "-"
		if task.DueDate != nil {
			due = task.DueDate.Format(db.DateLayout)
		}

		return tview.NewTableCell(due).SetExpansion(1).SetTextColor(color)
	case 3:
		names := []string{}
		for _, n := range task.Collaborators {
			names = append(names, fmt.Sprintf("[%s]%s", colorFor(n), tview.Escape(n)))
		}

		return tview.NewTableCell(strings.Join(names, "[white], ")).SetExpansion(1)
	}

	return nil
}

// GetRowCount returns the number of rows in the table.
func (s *ColumnContent) GetRowCount() int {
	if s.column != nil {
		return len(s.column.Tasks) + 1
	}

	return 1
}

// GetColumnCount returns the number of columns in the table.
func (s *ColumnContent) GetColumnCount() int {
	return 4
}
