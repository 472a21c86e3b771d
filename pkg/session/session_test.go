package session_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/matt-steen/kanban-sheets/pkg/db"
	"github.com/matt-steen/kanban-sheets/pkg/session"
	"github.com/matt-steen/kanban-sheets/pkg/sheet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var opts = db.Options{HashCost: bcrypt.MinCost}

func newStore(t *testing.T) sheet.Store {
	t.Helper()

	ctx := context.Background()

	store, err := sheet.Open(ctx, sheet.Options{Backend: sheet.BackendMemory})
	require.NoError(t, err)

	database, err := db.Open(ctx, store, opts)
	require.NoError(t, err)

	for _, u := range [][2]string{{"boss", db.RoleSupervisor}, {"alice", db.RoleCollaborator}, {"bob", db.RoleCollaborator}} {
		_, err := database.CreateUser(ctx, u[0], "pw", "pw", u[1])
		require.NoError(t, err)
	}

	return store
}

func TestLogin(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)
	ctx := context.Background()
	store := newStore(t)

	s, err := session.Login(ctx, store, opts, "Boss", "pw")
	require.NoError(t, err)
	assert.True(s.IsAdmin())
	assert.Equal("boss", s.Username())

	_, err = session.Login(ctx, store, opts, "boss", "bad")
	assert.Equal(db.ErrInvalidCredentials, err)

	other, err := session.Login(ctx, store, opts, "alice", "pw")
	require.NoError(t, err)
	assert.NotEqual(s.ID, other.ID)
	assert.False(other.IsAdmin())
}

func TestSessionsHaveOwnSnapshots(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)
	ctx := context.Background()
	store := newStore(t)

	admin, err := session.Login(ctx, store, opts, "boss", "pw")
	require.NoError(t, err)

	alice, err := session.Login(ctx, store, opts, "alice", "pw")
	require.NoError(t, err)

	_, err = admin.CreateTask(ctx, db.NewTask{Name: "shared"}, db.StatusTodo, []string{"alice"})
	require.NoError(t, err)

	assert.Equal(1, len(admin.DB.Board().Tasks))
	assert.Equal(0, len(alice.DB.Board().Tasks))

	assert.Nil(alice.Refresh(ctx))
	assert.Equal(1, len(alice.DB.Board().Tasks))
	assert.Equal("alice", alice.DefaultFilter())
	assert.Equal("", admin.DefaultFilter())
}

func TestRoleChecks(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)
	ctx := context.Background()
	store := newStore(t)

	admin, err := session.Login(ctx, store, opts, "boss", "pw")
	require.NoError(t, err)

	task, err := admin.CreateTask(ctx, db.NewTask{Name: "alice's job"}, db.StatusTodo, []string{"alice"})
	require.NoError(t, err)

	alice, err := session.Start(ctx, store, opts, &db.User{Username: "alice", Role: db.RoleCollaborator})
	require.NoError(t, err)

	bob, err := session.Start(ctx, store, opts, &db.User{Username: "bob", Role: db.RoleCollaborator})
	require.NoError(t, err)

	_, err = alice.CreateTask(ctx, db.NewTask{Name: "x"}, db.StatusTodo, []string{"alice"})
	assert.True(errors.Is(err, session.ErrForbidden))

	_, err = alice.Stats()
	assert.True(errors.Is(err, session.ErrForbidden))

	assert.True(errors.Is(alice.ClearAll(ctx, true), session.ErrForbidden))
	assert.True(errors.Is(alice.Export(ctx, &bytes.Buffer{}), session.ErrForbidden))
	assert.True(errors.Is(alice.ChangePassword(ctx, "bob", "x", "x"), session.ErrForbidden))
	assert.Nil(alice.ChangePassword(ctx, "alice", "new", "new"))

	assert.True(alice.CanEdit(alice.DB.Board().Task(task.ID)))
	assert.False(bob.CanEdit(bob.DB.Board().Task(task.ID)))

	assert.Nil(alice.RecordProgress(ctx, task.ID, db.ProgressReport{Progress: 20}))
	assert.True(errors.Is(bob.RecordProgress(ctx, task.ID, db.ProgressReport{Progress: 30}), session.ErrForbidden))
	assert.True(errors.Is(bob.RecordProgress(ctx, 404, db.ProgressReport{Progress: 30}), db.ErrNotFound))

	stats, err := admin.Stats()
	assert.Nil(err)
	assert.Equal(1, stats.Total)
}

func TestDoneTaskClosedToReports(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)
	ctx := context.Background()
	store := newStore(t)

	admin, err := session.Login(ctx, store, opts, "boss", "pw")
	require.NoError(t, err)

	task, err := admin.CreateTask(ctx, db.NewTask{Name: "seal leak"}, db.StatusInProgress, []string{"alice"})
	require.NoError(t, err)

	alice, err := session.Login(ctx, store, opts, "alice", "pw")
	require.NoError(t, err)

	assert.True(alice.CanReport(alice.DB.Board().Task(task.ID)))
	assert.Nil(alice.RecordProgress(ctx, task.ID, db.ProgressReport{Complete: true}))

	done := alice.DB.Board().Task(task.ID)
	assert.True(alice.CanEdit(done))
	assert.False(alice.CanReport(done))

	err = alice.RecordProgress(ctx, task.ID, db.ProgressReport{Progress: 10})
	assert.True(errors.Is(err, db.ErrInvalidInput))
	assert.Equal(db.StatusDone, alice.DB.Board().Task(task.ID).Status)
	assert.Equal(100, alice.DB.Board().Task(task.ID).Progress)
}

func TestEnd(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	s, err := session.Login(ctx, newStore(t), opts, "boss", "pw")
	require.NoError(t, err)

	s.End()
	s.End()

	assert.Nil(t, s.DB)
	assert.True(t, errors.Is(s.Refresh(ctx), session.ErrEnded))
	assert.True(t, errors.Is(s.ClearAll(ctx, true), session.ErrEnded))
}

func TestRecordItemProgressChecksOwnership(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)
	ctx := context.Background()
	store := newStore(t)

	admin, err := session.Login(ctx, store, opts, "boss", "pw")
	require.NoError(t, err)

	mine, err := admin.CreateTask(ctx, db.NewTask{Name: "mine", Items: []string{"a", "b"}}, db.StatusTodo, []string{"alice"})
	require.NoError(t, err)

	theirs, err := admin.CreateTask(ctx, db.NewTask{Name: "theirs", Items: []string{"c"}}, db.StatusTodo, []string{"bob"})
	require.NoError(t, err)

	alice, err := session.Login(ctx, store, opts, "alice", "pw")
	require.NoError(t, err)

	err = alice.RecordItemProgress(ctx, mine.ID, theirs.Items[0].ID, 50, "", "")
	assert.True(errors.Is(err, db.ErrNotFound))

	assert.Nil(alice.RecordItemProgress(ctx, mine.ID, mine.Items[0].ID, 50, "half", ""))
	assert.Equal(25, alice.DB.Board().Task(mine.ID).Progress)

	added, err := alice.AddItems(ctx, mine.ID, []string{"d"})
	assert.Nil(err)
	assert.Equal(1, len(added))

	_, err = alice.AddItems(ctx, theirs.ID, []string{"e"})
	assert.True(errors.Is(err, session.ErrForbidden))
}
