package controller

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/matt-steen/kanban-sheets/pkg/db"
	"github.com/rivo/tview"
	"github.com/rs/zerolog/log"
)

// getBoardGrid returns the board page: the header with the key bindings above one table per
// status column.
func (c *Controller) getBoardGrid() *tview.Grid {
	c.boardHeader = c.getPageHeader("Board", c.events)
	c.columns = []*tview.Table{}
	c.columnContents = []*ColumnContent{}

	flex := tview.NewFlex()

	for i, s := range db.Statuses() {
		table := c.getColumnTable(i)
		table.SetBorder(true).SetTitle(s.String())

		c.columns = append(c.columns, table)
		c.columnContents = append(c.columnContents, NewColumnContent(nil, c.session.DB.Today()))

		flex.AddItem(table, 0, 1, i == 0)
	}

	grid := tview.NewGrid().SetRows(headerRows(c.events), 0).SetBorders(true)

	grid.AddItem(c.boardHeader, 0, 0, 1, 1, 0, 0, false)
	grid.AddItem(flex, 1, 0, 1, 1, 0, 0, true)

	return grid
}

func (c *Controller) getColumnTable(idx int) *tview.Table {
	table := tview.NewTable().SetBorders(false)

	table.SetSelectable(true, false)
	table.SetFixed(1, 0)

	table.SetSelectionChangedFunc(func(row, col int) {
		c.setCurrentRow(idx, row)
	})

	return table
}

// when the row selection changes in the focused column, update the selected Task.
func (c *Controller) setCurrentRow(idx, row int) {
	if idx != c.selectedColumn || idx >= len(c.columnContents) {
		return
	}

	c.setSelectedTask(row, c.columnContents[idx].Task(row))
}

func (c *Controller) setSelectedTask(row int, task *db.Task) {
	c.selectedTask = task

	name := "nil"
	if task != nil {
		name = task.Name
	}

	log.Debug().
		Int("column", c.selectedColumn).
		Int("row", row).
		Msgf("setting selectedTask to '%s'", name)

	if c.boardHeader != nil {
		c.setShortcuts(c.boardHeader, c.events)
	}
}

// canReport is whether the selected task still takes progress reports.
func (c *Controller) canReport() bool {
	return c.selectedTask != nil && c.session != nil && c.session.CanReport(c.selectedTask)
}

// selectColumn moves the focus to the column and selects the task under its cursor.
func (c *Controller) selectColumn(idx int) {
	if idx < 0 || idx >= len(c.columns) {
		return
	}

	c.selectedColumn = idx

	for i, table := range c.columns {
		color := tcell.ColorWhite
		if i == idx {
			color = tcell.ColorOrange
		}

		table.SetBorderColor(color)
	}

	c.app.SetFocus(c.columns[idx])

	row, _ := c.columns[idx].GetSelection()
	c.setSelectedTask(row, c.columnContents[idx].Task(row))
}

// showBoard reloads the columns from the session's snapshot and switches to the board.
func (c *Controller) showBoard() {
	if c.session == nil || c.session.DB == nil {
		return
	}

	board := c.session.DB.Board().FilterByResponsible(c.filter)
	today := c.session.DB.Today()

	for i, s := range db.Statuses() {
		column := board.Column(s)
		content := NewColumnContent(column, today)

		c.columnContents[i] = content
		c.columns[i].SetContent(content)
		c.columns[i].SetTitle(fmt.Sprintf(" %s (%d) ", s, len(column.Tasks)))

		row, _ := c.columns[i].GetSelection()
		if row < 1 || row >= content.GetRowCount() {
			row = 1
		}

		if content.GetRowCount() > 1 {
			c.columns[i].Select(row, 0)
		}
	}

	filter := "all"
	if c.filter != "" {
		filter = c.filter
	}

	c.boardHeader.SetCell(0, 1, tview.NewTableCell(fmt.Sprintf("[grey]responsible: [white]%s", tview.Escape(filter))))
	c.boardHeader.SetCell(0, 2, tview.NewTableCell(fmt.Sprintf("[grey]user: [white]%s", tview.Escape(c.session.Username()))))

	c.switchTo(pageBoard, c.handleKeys, nil)
	c.selectColumn(c.selectedColumn)
}

// cycleFilter steps the responsible filter through every collaborator on the board, then back
// to showing everyone.
func (c *Controller) cycleFilter() {
	options := append([]string{""}, c.session.DB.Board().Responsibles()...)

	next := 0

	for i, o := range options {
		if o == c.filter {
			next = (i + 1) % len(options)

			break
		}
	}

	c.filter = options[next]

	log.Debug().Str("filter", c.filter).Msg("changed responsible filter")

	c.showBoard()
}
