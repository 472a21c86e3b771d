package db_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/matt-steen/kanban-sheets/pkg/db"
	"github.com/matt-steen/kanban-sheets/pkg/sheet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var testNow = time.Date(2024, time.May, 10, 9, 30, 0, 0, time.Local)

func testOptions() db.Options {
	return db.Options{
		Now:      func() time.Time { return testNow },
		HashCost: bcrypt.MinCost,
	}
}

func getStore(t *testing.T) *sheet.MemoryStore {
	t.Helper()

	store := sheet.NewMemoryStore()
	require.NoError(t, sheet.EnsureSchema(context.Background(), store))

	return store
}

func getDB(t *testing.T, store sheet.Store) *db.Database {
	t.Helper()

	database, err := db.Open(context.Background(), store, testOptions())
	require.NoError(t, err)
	require.NotNil(t, database)

	return database
}

func seed(t *testing.T, store sheet.Store, name string, records ...sheet.Record) {
	t.Helper()

	ctx := context.Background()

	table, err := sheet.ReadOrEmpty(ctx, store, name)
	require.NoError(t, err)

	table.Append(records...)
	require.NoError(t, store.WriteSheet(ctx, table))
}

func addTask(t *testing.T, database *db.Database, name string, collaborators ...string) *db.Task {
	t.Helper()

	if len(collaborators) == 0 {
		collaborators = []string{"alice"}
	}

	task, err := database.CreateTask(context.Background(), "boss",
		db.NewTask{Name: name, Description: "details of " + name, Priority: db.PriorityHigh, Shift: db.ShiftFirst},
		db.StatusTodo, collaborators)
	require.NoError(t, err)

	return task
}

func TestOpenEmpty(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)

	database := getDB(t, getStore(t))
	board := database.Board()

	assert.Equal(0, len(board.Tasks))
	assert.Equal(3, len(board.Columns))
	assert.Equal(db.StatusTodo, board.Columns[0].Status)
	assert.Equal(db.StatusInProgress, board.Columns[1].Status)
	assert.Equal(db.StatusDone, board.Columns[2].Status)
	assert.Equal(testNow, board.LoadedAt)
}

func TestOpenSQLitePersists(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)
	ctx := context.Background()
	filename := filepath.Join(t.TempDir(), "board.sqlite")

	store, err := sheet.Open(ctx, sheet.Options{Backend: sheet.BackendSQLite, Path: filename})
	require.NoError(t, err)

	database := getDB(t, store)
	task := addTask(t, database, "grease the press")
	assert.Nil(database.Close())

	store2, err := sheet.Open(ctx, sheet.Options{Backend: sheet.BackendSQLite, Path: filename})
	require.NoError(t, err)

	database2 := getDB(t, store2)
	defer database2.Close()

	got := database2.Board().Task(task.ID)
	if assert.NotNil(got) {
		assert.Equal("grease the press", got.Name)
		assert.Equal([]string{"alice"}, got.Collaborators)
	}
}

func TestListTasksBucketsUnknownStatus(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)
	store := getStore(t)

	seed(t, store, sheet.SheetTasks,
		sheet.Record{"id": "1", "task": "a", "status": "Por hacer"},
		sheet.Record{"id": "2", "task": "b", "status": "En proceso"},
		sheet.Record{"id": "3", "task": "c", "status": "Hecho"},
		sheet.Record{"id": "4", "task": "d", "status": "Bloqueada"},
		sheet.Record{"id": "5", "task": "e", "status": ""},
	)

	board := getDB(t, store).Board()

	assert.Equal(5, len(board.Tasks))
	assert.Equal(3, len(board.Column(db.StatusTodo).Tasks))
	assert.Equal(1, len(board.Column(db.StatusInProgress).Tasks))
	assert.Equal(1, len(board.Column(db.StatusDone).Tasks))

	blocked := board.Task(4)
	assert.Equal(db.StatusTodo, blocked.Status)
	assert.Equal("Bloqueada", blocked.RawStatus)

	total := 0
	for _, c := range board.Columns {
		total += len(c.Tasks)
	}

	assert.Equal(len(board.Tasks), total)
}

func TestListTasksSkipsBlankRowsAndBadKeys(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)
	store := getStore(t)

	seed(t, store, sheet.SheetTasks,
		sheet.Record{"id": "1", "task": "real"},
		sheet.Record{"id": "", "task": "placeholder"},
		sheet.Record{"id": "2.0", "task": "float id"},
	)
	seed(t, store, sheet.SheetCollaborators,
		sheet.Record{"task_id": "1", "username": "alice"},
		sheet.Record{"task_id": "abc", "username": "nobody"},
		sheet.Record{"task_id": "2", "username": "bob"},
	)
	seed(t, store, sheet.SheetItems,
		sheet.Record{"id": "1", "task_id": "x", "item_name": "orphan"},
	)

	board := getDB(t, store).Board()

	assert.Equal(2, len(board.Tasks))
	assert.Equal([]string{"alice"}, board.Task(1).Collaborators)
	assert.Equal([]string{"bob"}, board.Task(2).Collaborators)
	assert.Equal(0, len(board.Task(1).Items))
	assert.Equal([]string{"alice", "bob"}, board.Responsibles())
}

func TestReloadSeesOutsideWrites(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)
	store := getStore(t)
	database := getDB(t, store)

	seed(t, store, sheet.SheetTasks, sheet.Record{"id": "9", "task": "written elsewhere", "status": "Hecho"})
	assert.Nil(database.Board().Task(9))

	assert.Nil(database.Reload(context.Background()))
	assert.NotNil(database.Board().Task(9))
}

func TestFilterByResponsible(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)
	database := getDB(t, getStore(t))

	addTask(t, database, "one", "alice")
	addTask(t, database, "two", "Bob")
	addTask(t, database, "three", "alice", "bob")

	board := database.Board()

	assert.Equal(board, board.FilterByResponsible(""))
	assert.Equal(2, len(board.FilterByResponsible("alice").Tasks))
	assert.Equal(2, len(board.FilterByResponsible("BOB").Tasks))
	assert.Equal(0, len(board.FilterByResponsible("carol").Tasks))
}
