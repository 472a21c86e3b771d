package controller

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/matt-steen/kanban-sheets/pkg/db"
	"github.com/matt-steen/kanban-sheets/pkg/session"
	"github.com/matt-steen/kanban-sheets/pkg/sheet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitList(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)

	assert.Equal([]string{"alice", "bob", "carol"}, splitList(" alice, bob ,\ncarol,, "))
	assert.Equal([]string{}, splitList("  "))
}

func TestParseDateField(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)

	d, err := parseDateField("due date", "")
	assert.Nil(err)
	assert.Nil(d)

	d, err = parseDateField("due date", " 2024-05-10 ")
	assert.Nil(err)
	assert.Equal(time.Date(2024, time.May, 10, 0, 0, 0, 0, time.Local), *d)

	_, err = parseDateField("due date", "10/05/2024")
	assert.True(errors.Is(err, db.ErrInvalidInput))
}

func TestParsePercent(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)

	n, err := parsePercent("75")
	assert.Nil(err)
	assert.Equal(75, n)

	for _, bad := range []string{"", "abc", "-1", "101"} {
		_, err := parsePercent(bad)
		assert.True(errors.Is(err, db.ErrInvalidInput), bad)
	}
}

func TestProgressBar(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)

	assert.Equal("░░░░░░░░░░   0%", progressBar(0))
	assert.Equal("██████░░░░  60%", progressBar(60))
	assert.Equal("██████████ 100%", progressBar(100))
	assert.Equal("██████████ 100%", progressBar(150))
}

func TestStripTags(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "<q> Exit", stripTags("[orange]<q>[white] Exit"))
}

func TestScale(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)

	assert.Equal(0, scale(0, 50))
	assert.Equal(25, scale(500, 50))
	assert.Equal(49, scale(db.MapSize, 50))
	assert.Equal(0, scale(-10, 50))
}

func TestRenderTask(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)

	due := time.Date(2024, time.May, 9, 0, 0, 0, 0, time.Local)
	progress := 50
	status := db.StatusInProgress

	task := &db.Task{
		ID:            7,
		Name:          "fix press",
		Description:   "the [big] one",
		Status:        db.StatusInProgress,
		RawStatus:     "En proceso",
		DueDate:       &due,
		Collaborators: []string{"alice"},
		Links:         "www.example.com/doc\nnot a link",
		Items:         []*db.Item{{ID: 3, Name: "bolts", Status: db.StatusTodo}},
		Interactions: []*db.Interaction{{
			Timestamp: "2024-05-09 10:00:00", Username: "alice", Action: db.ActionStatusChange,
			NewStatus: &status, ProgressValue: &progress, Comment: "started", Image: "abc",
		}},
	}

	out := renderTask(task, time.Date(2024, time.May, 10, 0, 0, 0, 0, time.Local))

	assert.Contains(out, "#7 fix press")
	assert.Contains(out, "(overdue)")
	assert.Contains(out, "https://www.example.com/doc")
	assert.NotContains(out, "not a link")
	assert.Contains(out, "bolts")
	assert.Contains(out, "status_change -> En proceso 50%: started")
	assert.Contains(out, "photo attached")
	assert.NotContains(out, "stored as")
	assert.True(strings.Contains(out, "[big[]"), "description is escaped")
}

func TestRenderStats(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)

	out := renderStats(&db.Stats{
		Total:    3,
		ByStatus: map[db.Status]int{db.StatusTodo: 2, db.StatusDone: 1},
		Overdue:  1,
		ByResponsible: map[string]map[db.Status]int{
			"alice": {db.StatusTodo: 2},
		},
		ByPriority: map[db.Priority]int{db.PriorityHigh: 3},
	})

	assert.Contains(out, "tasks[white]       3")
	assert.Contains(out, "Alta")
	assert.Contains(out, "alice")
}

func TestReportShortcutFollowsSelection(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)
	ctx := context.Background()

	s, err := session.Start(ctx, sheet.NewMemoryStore(), db.Options{},
		&db.User{Username: "alice", Role: db.RoleCollaborator})
	require.NoError(t, err)

	c := &Controller{session: s}
	c.initEvents()

	hasReport := func() bool {
		for _, text := range c.shortcuts(c.events) {
			if strings.Contains(stripTags(text), "Report progress") {
				return true
			}
		}

		return false
	}

	assert.False(hasReport())

	c.selectedTask = &db.Task{ID: 1, Status: db.StatusInProgress, Collaborators: []string{"alice"}}
	assert.True(hasReport())

	c.selectedTask = &db.Task{ID: 2, Status: db.StatusDone, Collaborators: []string{"alice"}}
	assert.False(hasReport())
	assert.False(c.events[KeyP].available())
	assert.True(c.events[tcell.KeyEnter].available())
}
