package controller_test

import (
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/matt-steen/kanban-sheets/pkg/controller"
	"github.com/matt-steen/kanban-sheets/pkg/db"
	"github.com/stretchr/testify/assert"
)

var today = time.Date(2024, time.May, 10, 9, 30, 0, 0, time.Local)

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.Local)

	return &t
}

func TestColumnContent(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)

	overdue := &db.Task{ID: 1, Name: "fix press", DueDate: date(2024, time.May, 9), Progress: 40, Collaborators: []string{"alice"}}
	soon := &db.Task{ID: 2, Name: "oil lathe", DueDate: date(2024, time.May, 12), Collaborators: []string{"alice", "bob"}}
	open := &db.Task{ID: 3, Name: "paint wall"}

	content := controller.NewColumnContent(&db.Column{Status: db.StatusTodo, Tasks: []*db.Task{overdue, soon, open}}, today)

	assert.Equal(4, content.GetRowCount())
	assert.Equal(4, content.GetColumnCount())

	assert.Nil(content.Task(0))
	assert.Nil(content.Task(4))
	assert.Equal(overdue, content.Task(1))

	header := content.GetCell(0, 0)
	assert.Equal("task", header.Text)
	assert.True(header.NotSelectable)

	name := content.GetCell(1, 0)
	assert.Equal("fix press", name.Text)
	assert.Equal(overdue, name.GetReference())
	assert.Equal(tcell.ColorRed, name.Color)

	assert.Equal("2024-05-09", content.GetCell(1, 2).Text)
	assert.Contains(content.GetCell(1, 1).Text, "40%")
	assert.Equal(tcell.ColorYellow, content.GetCell(2, 0).Color)
	assert.Contains(content.GetCell(2, 3).Text, "bob")

	assert.Equal(tcell.ColorWhite, content.GetCell(3, 0).Color)
	assert.Equal("-", content.GetCell(3, 2).Text)

	assert.Nil(content.GetCell(4, 0))
	assert.Nil(content.GetCell(1, 4))
}

func TestColumnContentEmpty(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)

	content := controller.NewColumnContent(nil, today)

	assert.Equal(1, content.GetRowCount())
	assert.Nil(content.Task(1))
	assert.Nil(content.GetCell(1, 0))
}

func TestAsKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		evt  *tcell.EventKey
		key  tcell.Key
	}{
		{"bound rune", tcell.NewEventKey(tcell.KeyRune, 'q', tcell.ModNone), controller.KeyQ},
		{"shifted rune", tcell.NewEventKey(tcell.KeyRune, 'X', tcell.ModNone), controller.KeyShiftX},
		{"unbound rune", tcell.NewEventKey(tcell.KeyRune, 'z', tcell.ModNone), tcell.KeyRune},
		{"special key", tcell.NewEventKey(tcell.KeyEnter, 0, tcell.ModNone), tcell.KeyEnter},
	}

	for _, tc := range tests {
		tc := tc

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tc.key, controller.AsKey(tc.evt))
		})
	}
}
