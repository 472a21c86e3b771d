package db_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/matt-steen/kanban-sheets/pkg/db"
	"github.com/matt-steen/kanban-sheets/pkg/sheet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddMachine(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)
	ctx := context.Background()
	store := getStore(t)

	seed(t, store, sheet.SheetMachines, sheet.Record{"machine_id": "12", "machine_name": "Lathe", "area": "Fabricación"})

	database := getDB(t, store)

	next := time.Date(2024, time.June, 9, 0, 0, 0, 0, time.Local)
	m, err := database.AddMachine(ctx, db.NewMachine{
		Name: "Press-1", Area: "almacén mp", X: 450, Y: 500, Type: "Producción",
		Status: db.MachineOperational, NextMaintenance: &next,
	})
	require.NoError(t, err)
	assert.Equal(13, m.ID)
	assert.Equal("Almacén MP", m.Area)

	machines, err := database.ListMachines(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, len(machines))

	got := machines[1]
	assert.Equal("Press-1", got.Name)
	assert.Equal(450, got.X)
	assert.Equal(500, got.Y)
	assert.Equal(db.MachineOperational, got.Status)
	assert.Equal("2024-05-10", got.LastMaintenance.Format(db.DateLayout))
	assert.Equal("2024-06-09", got.NextMaintenance.Format(db.DateLayout))
}

func TestAddMachineValidation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	database := getDB(t, getStore(t))

	tests := []struct {
		name    string
		machine db.NewMachine
	}{
		{"blank name", db.NewMachine{Area: "Laboratorio", X: 300, Y: 900, Status: db.MachineInactive}},
		{"unknown area", db.NewMachine{Name: "m", Area: "Roof", X: 1, Y: 1, Status: db.MachineInactive}},
		{"outside area", db.NewMachine{Name: "m", Area: "Laboratorio", X: 100, Y: 900, Status: db.MachineInactive}},
		{"no status", db.NewMachine{Name: "m", Area: "Laboratorio", X: 300, Y: 900}},
	}

	for _, tc := range tests {
		tc := tc

		t.Run(tc.name, func(t *testing.T) {
			_, err := database.AddMachine(ctx, tc.machine)
			assert.True(t, errors.Is(err, db.ErrInvalidInput))
		})
	}

	machines, err := database.ListMachines(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, len(machines))
}

func TestLinkedTasksIgnoresLoadOrder(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)
	ctx := context.Background()

	press := db.NewMachine{Name: "Press-1", Area: "Fabricación", X: 10, Y: 10, Status: db.MachineOperational}

	// machines first
	first := getDB(t, getStore(t))
	_, err := first.AddMachine(ctx, press)
	require.NoError(t, err)
	addTask(t, first, "Fix press-1 belt")

	// tasks first
	second := getDB(t, getStore(t))
	addTask(t, second, "Fix press-1 belt")
	_, err = second.AddMachine(ctx, press)
	require.NoError(t, err)

	for _, database := range []*db.Database{first, second} {
		machines, err := database.ListMachines(ctx)
		require.NoError(t, err)

		linked := db.LinkedTasks(machines[0], database.Board().Tasks)
		assert.Equal(1, len(linked))
	}
}

func TestLinkedTasksMatchesDescription(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)

	tasks := []*db.Task{
		{ID: 1, Name: "weekly check", Description: "inspect the WELDER-2 torch"},
		{ID: 2, Name: "welder-3 cleanup"},
		{ID: 3, Name: "unrelated"},
	}

	assert.Equal([]*db.Task{tasks[0]}, db.LinkedTasks(db.Machine{Name: "Welder-2"}, tasks))
	assert.Equal(0, len(db.LinkedTasks(db.Machine{Name: " "}, tasks)))
}

func TestMachineMapIndicators(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)
	database := getDB(t, getStore(t))
	addTask(t, database, "repair Saw")

	machines := []db.Machine{
		{Name: "saw", Status: db.MachineInactive},
		{Name: "drill", Status: db.MachineOperational},
		{Name: "mill", Status: db.MachineMaintenance},
		{Name: "lift", Status: db.MachineInactive},
	}

	views := db.MachineMap(machines, database.Board())
	require.Equal(t, 4, len(views))

	assert.Equal(db.IndicatorBusy, views[0].Indicator)
	assert.Equal(1, len(views[0].Tasks))
	assert.Equal(db.IndicatorOperational, views[1].Indicator)
	assert.Equal(db.IndicatorMaintenance, views[2].Indicator)
	assert.Equal(db.IndicatorIdle, views[3].Indicator)
}

func TestFilterMachines(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)

	machines := []db.Machine{
		{Name: "a", Area: "Fabricación", Status: db.MachineOperational},
		{Name: "b", Area: "Fabricación", Status: db.MachineInactive},
		{Name: "c", Area: "Laboratorio", Status: db.MachineOperational},
	}

	assert.Equal(3, len(db.FilterMachines(machines, "", db.MachineStatusNone)))
	assert.Equal(2, len(db.FilterMachines(machines, "fabricación", db.MachineStatusNone)))
	assert.Equal(2, len(db.FilterMachines(machines, "", db.MachineOperational)))
	assert.Equal("a", db.FilterMachines(machines, "Fabricación", db.MachineOperational)[0].Name)
}

func TestAreas(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)

	assert.Equal(8, len(db.Areas()))

	lab, ok := db.AreaByName("LABORATORIO")
	assert.True(ok)
	assert.True(lab.Contains(200, 800))
	assert.True(lab.Contains(600, 1000))
	assert.False(lab.Contains(199, 900))

	for _, a := range db.Areas() {
		assert.True(a.MaxX <= db.MapSize && a.MaxY <= db.MapSize, a.Name)
	}
}
