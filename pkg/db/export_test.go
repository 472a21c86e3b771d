package db_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/matt-steen/kanban-sheets/pkg/db"
	"github.com/matt-steen/kanban-sheets/pkg/sheet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestExport(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)
	ctx := context.Background()
	database := getDB(t, getStore(t))

	task := addTask(t, database, "export me", "alice", "bob")
	require.NoError(t, database.RecordProgress(ctx, "alice", task.ID, db.ProgressReport{Progress: 10}))

	var buf bytes.Buffer
	require.NoError(t, database.Export(ctx, &buf))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(db.ExportTabs(), f.GetSheetList())

	tasks, err := f.GetRows("Tareas")
	require.NoError(t, err)
	require.Equal(t, 2, len(tasks))
	assert.Equal(sheet.Schema()[sheet.SheetTasks], tasks[0])
	assert.Equal("export me", tasks[1][1])

	collaborators, err := f.GetRows("Colaboradores")
	require.NoError(t, err)
	assert.Equal(3, len(collaborators))

	interactions, err := f.GetRows("Interacciones")
	require.NoError(t, err)
	assert.Equal(2, len(interactions))

	items, err := f.GetRows("Items")
	require.NoError(t, err)
	require.Equal(t, 1, len(items))
	assert.Equal(sheet.Schema()[sheet.SheetItems], items[0])
}

func TestClearAll(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)
	ctx := context.Background()
	store := getStore(t)
	database := getDB(t, store)

	addTask(t, database, "doomed")
	_, err := database.CreateUser(ctx, "root", "pw", "pw", db.RoleAdminPrincipal)
	require.NoError(t, err)

	err = database.ClearAll(ctx, false)
	assert.True(errors.Is(err, db.ErrNotConfirmed))
	assert.Equal(1, len(database.Board().Tasks))

	assert.Nil(database.ClearAll(ctx, true))
	assert.Equal(0, len(database.Board().Tasks))

	for _, name := range sheet.SheetOrder() {
		table, err := store.ReadSheet(ctx, name)
		require.NoError(t, err)
		assert.Equal(sheet.Schema()[name], table.Header, name)
		assert.Equal(0, len(table.Rows), name)
	}

	assert.Equal(1, addTask(t, database, "fresh start").ID)
}
