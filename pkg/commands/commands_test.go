package commands_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/matt-steen/kanban-sheets/pkg/commands"
	"github.com/matt-steen/kanban-sheets/pkg/config"
	"github.com/matt-steen/kanban-sheets/pkg/db"
	"github.com/matt-steen/kanban-sheets/pkg/session"
	"github.com/matt-steen/kanban-sheets/pkg/sheet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var testNow = time.Date(2024, time.May, 10, 9, 30, 0, 0, time.Local)

type testApp struct {
	*commands.App
	out       *bytes.Buffer
	passwords []string
}

func newApp(t *testing.T) *testApp {
	t.Helper()

	store, err := sheet.Open(context.Background(), sheet.Options{Backend: sheet.BackendMemory})
	require.NoError(t, err)

	cfg := config.Default()
	cfg.Store.Backend = sheet.BackendMemory
	cfg.Log.File = ""
	cfg.Export.Path = filepath.Join(t.TempDir(), "export", "board.xlsx")

	ta := &testApp{out: &bytes.Buffer{}}
	ta.App = &commands.App{
		ConfigPath: filepath.Join(t.TempDir(), "kanban.yaml"),
		Config:     cfg,
		Store:      store,
		DB:         db.Options{HashCost: bcrypt.MinCost, Now: func() time.Time { return testNow }},
		Out:        ta.out,
		Err:        ta.out,
		Password:   ta.password,
	}

	return ta
}

func (ta *testApp) password(string) (string, error) {
	if len(ta.passwords) == 0 {
		return "", errors.New("no more passwords")
	}

	p := ta.passwords[0]
	ta.passwords = ta.passwords[1:]

	return p, nil
}

// run executes the command line as user, answering password prompts in order.
func (ta *testApp) run(user string, passwords []string, args ...string) (string, error) {
	ta.out.Reset()
	ta.passwords = passwords
	ta.Username = ""

	if user != "" {
		args = append(args, "--user", user)
	}

	cmd := commands.NewRootCmd(ta.App)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(context.Background())

	return ta.out.String(), err
}

// bootstrap creates boss (admin) and alice (collaborator).
func bootstrap(t *testing.T, ta *testApp) {
	t.Helper()

	out, err := ta.run("", []string{"pw", "pw"}, "user", "add", "boss")
	require.NoError(t, err)
	require.Contains(t, out, "created user boss (Admin Principal)")

	_, err = ta.run("boss", []string{"pw", "pw", "pw"}, "user", "add", "alice")
	require.NoError(t, err)
}

func TestUserCommands(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)
	ta := newApp(t)

	bootstrap(t, ta)

	_, err := ta.run("", []string{"pw", "pw"}, "user", "add", "mallory")
	assert.NotNil(err)

	_, err = ta.run("boss", []string{"wrong"}, "user", "add", "mallory")
	assert.True(errors.Is(err, db.ErrInvalidCredentials))

	out, err := ta.run("boss", []string{"pw"}, "user", "list")
	assert.Nil(err)
	assert.Contains(out, "alice")
	assert.Contains(out, "Colaborador")

	_, err = ta.run("alice", []string{"pw"}, "user", "list")
	assert.True(errors.Is(err, session.ErrForbidden))

	_, err = ta.run("alice", []string{"pw", "new", "new"}, "user", "passwd")
	assert.Nil(err)

	_, err = ta.run("alice", []string{"new", "x", "x"}, "user", "passwd", "boss")
	assert.True(errors.Is(err, session.ErrForbidden))

	_, err = ta.run("alice", []string{"new"}, "user", "list")
	assert.True(errors.Is(err, session.ErrForbidden))
}

func TestTaskCommands(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)
	ta := newApp(t)

	bootstrap(t, ta)

	out, err := ta.run("boss", []string{"pw"}, "task", "add", "fix press",
		"--responsible", "alice", "--item", "bolts", "--item", "oil", "--due", "2024-05-12", "--priority", "high", "--created", "2024-05-01")
	assert.Nil(err)
	assert.Contains(out, "created task #1 fix press")

	_, err = ta.run("alice", []string{"pw"}, "task", "add", "mine", "--responsible", "alice")
	assert.True(errors.Is(err, session.ErrForbidden))

	_, err = ta.run("boss", []string{"pw"}, "task", "add", "bad date", "--responsible", "alice", "--due", "12/05/2024")
	assert.True(errors.Is(err, db.ErrInvalidInput))

	out, err = ta.run("alice", []string{"pw"}, "task", "item", "1", "1", "--value", "100")
	assert.Nil(err)
	assert.Contains(out, "is at 50%")

	out, err = ta.run("alice", []string{"pw"}, "task", "list")
	assert.Nil(err)
	assert.Contains(out, "Por hacer (1)")
	assert.Contains(out, "fix press")
	assert.Contains(out, "2024-05-12")

	_, err = ta.run("alice", []string{"pw"}, "task", "progress", "1")
	assert.True(errors.Is(err, db.ErrInvalidInput))

	out, err = ta.run("alice", []string{"pw"}, "task", "progress", "1", "--complete", "--comment", "done")
	assert.Nil(err)
	assert.Contains(out, "Hecho at 100%")

	_, err = ta.run("alice", []string{"pw"}, "task", "progress", "1", "--value", "10")
	assert.True(errors.Is(err, db.ErrInvalidInput))

	_, err = ta.run("alice", []string{"pw"}, "task", "progress", "x", "--value", "10")
	assert.True(errors.Is(err, db.ErrInvalidInput))
}

func TestMachineCommands(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)
	ta := newApp(t)

	bootstrap(t, ta)

	_, err := ta.run("boss", []string{"pw"}, "task", "add", "grease Torno 3", "--responsible", "alice")
	require.NoError(t, err)

	out, err := ta.run("boss", []string{"pw"}, "machine", "add", "Torno 3", "--area", "fabricación", "--x", "100", "--y", "100")
	assert.Nil(err)
	assert.Contains(out, "added machine #1 Torno 3 in Fabricación")

	_, err = ta.run("boss", []string{"pw"}, "machine", "add", "Outside", "--area", "Vestidores", "--x", "900", "--y", "900")
	assert.True(errors.Is(err, db.ErrInvalidInput))

	_, err = ta.run("alice", []string{"pw"}, "machine", "add", "Mine", "--area", "Vestidores", "--x", "10", "--y", "900")
	assert.True(errors.Is(err, session.ErrForbidden))

	out, err = ta.run("alice", []string{"pw"}, "machine", "list")
	assert.Nil(err)
	assert.Contains(out, "Torno 3")
	assert.Contains(out, "#1")

	out, err = ta.run("alice", []string{"pw"}, "machine", "list", "--status", "inactive")
	assert.Nil(err)
	assert.NotContains(out, "Torno 3")

	out, err = ta.run("", nil, "machine", "areas")
	assert.Nil(err)
	assert.Contains(out, "Laboratorio")
}

func TestAdminCommands(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)
	ta := newApp(t)

	bootstrap(t, ta)

	_, err := ta.run("boss", []string{"pw"}, "task", "add", "fix press", "--responsible", "alice", "--due", "2024-05-01")
	require.NoError(t, err)

	out, err := ta.run("boss", []string{"pw"}, "stats")
	assert.Nil(err)
	assert.Contains(out, "Overdue")
	assert.Contains(out, "alice")

	_, err = ta.run("alice", []string{"pw"}, "stats")
	assert.True(errors.Is(err, session.ErrForbidden))

	out, err = ta.run("boss", []string{"pw"}, "export")
	assert.Nil(err)
	assert.Contains(out, "Tareas")

	info, err := os.Stat(ta.Config.Export.Path)
	require.NoError(t, err)
	assert.True(info.Size() > 0)

	_, err = ta.run("boss", []string{"pw"}, "clear")
	assert.True(errors.Is(err, db.ErrNotConfirmed))

	_, err = ta.run("boss", []string{"pw"}, "clear", "--confirm")
	assert.Nil(err)

	out, err = ta.run("", []string{"pw", "pw"}, "user", "add", "boss")
	assert.Nil(err)
	assert.Contains(out, "Admin Principal")
}

func TestVersionAndConfigInit(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)
	ta := newApp(t)

	out, err := ta.run("", nil, "version")
	assert.Nil(err)
	assert.Contains(out, "kanban dev")

	_, err = ta.run("", nil, "config", "init")
	assert.Nil(err)

	cfg, err := config.Load(ta.ConfigPath)
	require.NoError(t, err)
	assert.Equal(config.Default(), cfg)

	_, err = ta.run("", nil, "config", "init")
	assert.NotNil(err)
}
