package controller

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/matt-steen/kanban-sheets/pkg/db"
	"github.com/rivo/tview"
)

const machineMarker = '●'

// plantMap draws the plant areas scaled to the available space with a marker per machine.
type plantMap struct {
	*tview.Box
	views []db.MachineView
}

func newPlantMap() *plantMap {
	box := tview.NewBox()
	box.SetBorder(true).SetTitle(" Plant ")

	return &plantMap{Box: box}
}

// scale maps a plant coordinate onto one of size cells.
func scale(v, size int) int {
	cell := v * size / db.MapSize

	if cell >= size {
		cell = size - 1
	}

	if cell < 0 {
		cell = 0
	}

	return cell
}

func areaAt(x, y int) (db.Area, bool) {
	for _, a := range db.Areas() {
		if a.Contains(x, y) {
			return a, true
		}
	}

	return db.Area{}, false
}

// Draw implements tview.Primitive.
func (m *plantMap) Draw(screen tcell.Screen) {
	m.Box.DrawForSubclass(screen, m)

	x, y, width, height := m.GetInnerRect()
	if width <= 0 || height <= 0 {
		return
	}

	for _, a := range db.Areas() {
		style := tcell.StyleDefault.Background(tcell.GetColor(a.Color)).Foreground(tcell.ColorBlack)

		x0, x1 := scale(a.MinX, width), scale(a.MaxX, width)
		y0, y1 := scale(a.MinY, height), scale(a.MaxY, height)

		for row := y0; row <= y1; row++ {
			for col := x0; col <= x1; col++ {
				screen.SetContent(x+col, y+row, ' ', nil, style)
			}
		}

		tview.Print(screen, tview.Escape(a.Name), x+x0, y+y0, x1-x0+1, tview.AlignLeft, tcell.ColorBlack)
	}

	for _, v := range m.views {
		style := tcell.StyleDefault.Foreground(tcell.GetColor(string(v.Indicator)))
		if a, ok := areaAt(v.X, v.Y); ok {
			style = style.Background(tcell.GetColor(a.Color))
		}

		screen.SetContent(x+scale(v.X, width), y+scale(v.Y, height), machineMarker, nil, style)
	}
}

func (c *Controller) getMapGrid() *tview.Grid {
	c.mapView = newPlantMap()

	c.machines = tview.NewTable().SetBorders(false).SetSelectable(false, false)
	c.machines.SetBorder(true).SetTitle(" Machines ")

	c.mapFilter = tview.NewForm().
		AddDropDown("Area", append([]string{"All"}, areaNames()...), 0, nil).
		AddDropDown("Status", append([]string{"All"}, labels(db.MachineStatuses())...), 0, nil)

	for _, label := range []string{"Area", "Status"} {
		dropDown(c.mapFilter, label).SetSelectedFunc(func(string, int) {
			c.renderMachines()
		})
	}

	header := c.getPageHeader("Plant map", c.formEvents)
	header.SetCell(0, 1, tview.NewTableCell(fmt.Sprintf("[red]%c[white] has tasks  [green]%c[white] operational  [yellow]%c[white] maintenance  [gray]%c[white] inactive",
		machineMarker, machineMarker, machineMarker, machineMarker)))

	side := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(c.mapFilter, 5, 0, true).
		AddItem(c.machines, 0, 1, false)

	flex := tview.NewFlex().
		AddItem(c.mapView, 0, 2, false).
		AddItem(side, 0, 1, true)

	grid := tview.NewGrid().SetRows(header.GetRowCount(), 0).SetBorders(true)

	grid.AddItem(header, 0, 0, 1, 1, 0, 0, false)
	grid.AddItem(flex, 1, 0, 1, 1, 0, 0, true)

	return grid
}

func (c *Controller) showMap() {
	machines, err := c.session.DB.ListMachines(c.ctx)
	if err != nil {
		c.showError(err)

		return
	}

	c.machineList = machines
	c.renderMachines()

	c.switchTo(pageMap, c.handleFormKeys, c.mapFilter)
}

// renderMachines applies the area and status filters to the map and the machine table.
func (c *Controller) renderMachines() {
	if c.mapFilter == nil || c.session == nil || c.session.DB == nil {
		return
	}

	area := ""
	if idx, _ := dropDown(c.mapFilter, "Area").GetCurrentOption(); idx > 0 {
		area = db.Areas()[idx-1].Name
	}

	status := db.MachineStatusNone
	if idx, _ := dropDown(c.mapFilter, "Status").GetCurrentOption(); idx > 0 {
		status = db.MachineStatuses()[idx-1]
	}

	views := db.MachineMap(db.FilterMachines(c.machineList, area, status), c.session.DB.Board())
	c.mapView.views = views

	c.machines.Clear()

	for col, title := range []string{"machine", "area", "x,y", "type", "status", "tasks"} {
		c.machines.SetCell(0, col, tview.NewTableCell("[yellow]"+title).SetExpansion(1))
	}

	for i, v := range views {
		tasks := []string{}
		for _, t := range v.Tasks {
			tasks = append(tasks, fmt.Sprintf("#%d", t.ID))
		}

		row := i + 1
		c.machines.SetCell(row, 0, tview.NewTableCell(tview.Escape(v.Name)).SetTextColor(tcell.GetColor(string(v.Indicator))))
		c.machines.SetCell(row, 1, tview.NewTableCell(tview.Escape(v.Area)))
		c.machines.SetCell(row, 2, tview.NewTableCell(fmt.Sprintf("%d,%d", v.X, v.Y)))
		c.machines.SetCell(row, 3, tview.NewTableCell(tview.Escape(orDash(v.Type))))
		c.machines.SetCell(row, 4, tview.NewTableCell(orDash(v.Status.String())))
		c.machines.SetCell(row, 5, tview.NewTableCell(orDash(strings.Join(tasks, " "))))
	}

	c.machines.SetTitle(fmt.Sprintf(" Machines (%d/%d) ", len(views), len(c.machineList)))
}
