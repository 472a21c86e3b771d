package db

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Area is a fixed rectangular zone of the plant floor, in map pixels. The map is 1000x1000.
type Area struct {
	Name  string
	MinX  int
	MaxX  int
	MinY  int
	MaxY  int
	Color string
}

// Contains reports whether the point lies inside the area, edges included.
func (a Area) Contains(x, y int) bool {
	return x >= a.MinX && x <= a.MaxX && y >= a.MinY && y <= a.MaxY
}

// MapSize is the width and height of the plant map.
const MapSize = 1000

// Areas returns the plant zones in display order.
func Areas() []Area {
	return []Area{
		{"Fabricación", 0, 600, 0, 400, "lightblue"},
		{"Soldadoras (Rotays)", 600, 1000, 0, 400, "lightgreen"},
		{"Ensamble Final", 0, 400, 400, 800, "lightyellow"},
		{"Almacén MP", 400, 800, 400, 800, "lightcoral"},
		{"Oficinas Técnicas", 800, 1000, 400, 600, "lavender"},
		{"Taller Mantenimiento", 800, 1000, 600, 800, "wheat"},
		{"Vestidores", 0, 200, 800, 1000, "lightgray"},
		{"Laboratorio", 200, 600, 800, 1000, "lightpink"},
	}
}

// AreaByName looks an area up case-insensitively.
func AreaByName(name string) (Area, bool) {
	for _, a := range Areas() {
		if strings.EqualFold(a.Name, strings.TrimSpace(name)) {
			return a, true
		}
	}

	return Area{}, false
}

// NewMachine holds the fields of the add-machine form.
type NewMachine struct {
	Name            string
	Area            string
	X               int
	Y               int
	Type            string
	Status          MachineStatus
	NextMaintenance *time.Time
}

// ListMachines returns every machine in sheet order.
func (d *Database) ListMachines(ctx context.Context) ([]Machine, error) {
	machines, err := d.machines.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("error loading machines: %w", err)
	}

	return machines, nil
}

// AddMachine appends a machine with the next machine_id. The coordinates must lie inside the
// chosen area and the last maintenance date is set to today.
func (d *Database) AddMachine(ctx context.Context, nm NewMachine) (*Machine, error) {
	nm.Name = strings.TrimSpace(nm.Name)
	if nm.Name == "" {
		return nil, fmt.Errorf("%w: machine name is required", ErrInvalidInput)
	}

	area, ok := AreaByName(nm.Area)
	if !ok {
		return nil, fmt.Errorf("%w: unknown area %q", ErrInvalidInput, nm.Area)
	}

	if !area.Contains(nm.X, nm.Y) {
		return nil, fmt.Errorf("%w: (%d, %d) is outside %s (%d-%d, %d-%d)", ErrInvalidInput,
			nm.X, nm.Y, area.Name, area.MinX, area.MaxX, area.MinY, area.MaxY)
	}

	if nm.Status == MachineStatusNone {
		return nil, fmt.Errorf("%w: machine status is required", ErrInvalidInput)
	}

	today := d.Today()
	m := Machine{
		Name:            nm.Name,
		Area:            area.Name,
		X:               nm.X,
		Y:               nm.Y,
		Type:            nm.Type,
		Status:          nm.Status,
		LastMaintenance: &today,
		NextMaintenance: nm.NextMaintenance,
	}

	rows, err := d.machines.Append(ctx, m)
	if err != nil {
		return nil, fmt.Errorf("error adding machine %s: %w", nm.Name, err)
	}

	return &rows[0], nil
}

// LinkedTasks returns the tasks whose name or description contains the machine's name,
// case-insensitively. A machine without a name links nothing.
func LinkedTasks(m Machine, tasks []*Task) []*Task {
	linked := []*Task{}

	name := strings.ToLower(strings.TrimSpace(m.Name))
	if name == "" {
		return linked
	}

	for _, t := range tasks {
		if strings.Contains(strings.ToLower(t.Name), name) || strings.Contains(strings.ToLower(t.Description), name) {
			linked = append(linked, t)
		}
	}

	return linked
}

// Indicator is the colour a machine is drawn with on the map.
type Indicator string

// These constants are the machine indicators.
const (
	IndicatorBusy        Indicator = "red"
	IndicatorOperational Indicator = "green"
	IndicatorMaintenance Indicator = "yellow"
	IndicatorIdle        Indicator = "gray"
)

// MachineView is a machine with the tasks linked to it.
type MachineView struct {
	Machine
	Tasks     []*Task
	Indicator Indicator
}

// MachineMap links every machine to the board's tasks. Any linked task turns a machine red;
// otherwise the colour follows its status.
func MachineMap(machines []Machine, board *Board) []MachineView {
	views := make([]MachineView, 0, len(machines))

	for _, m := range machines {
		v := MachineView{Machine: m, Tasks: LinkedTasks(m, board.Tasks)}

		switch {
		case len(v.Tasks) > 0:
			v.Indicator = IndicatorBusy
		case m.Status == MachineOperational:
			v.Indicator = IndicatorOperational
		case m.Status == MachineMaintenance:
			v.Indicator = IndicatorMaintenance
		default:
			v.Indicator = IndicatorIdle
		}

		views = append(views, v)
	}

	return views
}

// FilterMachines keeps the machines in the area with the status. An empty area or a
// MachineStatusNone status matches everything.
func FilterMachines(machines []Machine, area string, status MachineStatus) []Machine {
	out := []Machine{}

	for _, m := range machines {
		if area != "" && !strings.EqualFold(m.Area, area) {
			continue
		}

		if status != MachineStatusNone && m.Status != status {
			continue
		}

		out = append(out, m)
	}

	return out
}
