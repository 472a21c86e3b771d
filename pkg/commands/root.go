// Package commands is the kanban command line: the interactive board plus scripted admin tasks.
package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/matt-steen/kanban-sheets/pkg/config"
	"github.com/matt-steen/kanban-sheets/pkg/db"
	"github.com/matt-steen/kanban-sheets/pkg/session"
	"github.com/matt-steen/kanban-sheets/pkg/sheet"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// SetVersion sets the version information.
func SetVersion(v, c, d string) {
	version = v
	commit = c
	date = d
}

// App carries the settings and connections shared by every command.
type App struct {
	ConfigPath string
	Username   string

	// Config and Store are loaded on first use unless already set.
	Config *config.Config
	Store  sheet.Store
	DB     db.Options

	Out io.Writer
	Err io.Writer

	// Password prompts for a secret.
	Password func(prompt string) (string, error)

	ownsStore bool
	logFile   io.Closer
}

// NewApp returns an App that talks to the terminal.
func NewApp() *App {
	return &App{
		ConfigPath: config.DefaultFile,
		Out:        os.Stdout,
		Err:        os.Stderr,
		Password:   promptPassword,
	}
}

// NewRootCmd builds the command tree around app.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:   "kanban",
		Short: "A shared kanban board kept in spreadsheet tabs",
		Long: `kanban tracks plant tasks, their checklists and progress reports in a spreadsheet
shared by the whole team. Run it without a command to open the board.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          app.withStore(app.runBoard),
	}

	root.PersistentFlags().StringVarP(&app.ConfigPath, "config", "c", app.ConfigPath, "config file")
	root.PersistentFlags().StringVarP(&app.Username, "user", "u", "", "user to authenticate as")

	root.AddCommand(
		newBoardCmd(app),
		newUserCmd(app),
		newMachineCmd(app),
		newTaskCmd(app),
		newStatsCmd(app),
		newExportCmd(app),
		newClearCmd(app),
		newConfigCmd(app),
		newVersionCmd(app),
	)

	root.SetOut(app.Out)
	root.SetErr(app.Err)

	return root
}

// Execute runs the command line.
func Execute(ctx context.Context) error {
	app := NewApp()
	defer app.Close()

	err := NewRootCmd(app).ExecuteContext(ctx)
	if err != nil {
		printError(app.Err, err)
	}

	return err
}

func (a *App) loadConfig() error {
	if a.Config != nil {
		return nil
	}

	cfg, err := config.Load(a.ConfigPath)
	if err != nil {
		return err
	}

	a.Config = cfg

	return a.setupLogging()
}

// withStore wraps a command function to load the config and open the store first.
func (a *App) withStore(fn func(*cobra.Command, []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if err := a.loadConfig(); err != nil {
			return err
		}

		if a.Store == nil {
			store, err := sheet.Open(cmd.Context(), a.Config.StoreOptions())
			if err != nil {
				return err
			}

			a.Store = store
			a.ownsStore = true
		}

		log.Debug().Str("command", cmd.CommandPath()).Msg("running command")

		return fn(cmd, args)
	}
}

// Close releases the store and log file the App opened itself.
func (a *App) Close() {
	if a.ownsStore && a.Store != nil {
		if err := a.Store.Close(); err != nil {
			log.Warn().Err(err).Msg("error closing store")
		}

		a.Store = nil
	}

	if a.logFile != nil {
		a.logFile.Close()
		a.logFile = nil
	}
}

// login authenticates the --user with a prompted password.
func (a *App) login(ctx context.Context) (*session.Session, error) {
	if a.Username == "" {
		return nil, errors.New("this command needs --user")
	}

	password, err := a.Password(fmt.Sprintf("password for %s: ", a.Username))
	if err != nil {
		return nil, err
	}

	return session.Login(ctx, a.Store, a.DB, a.Username, password)
}

// adminLogin is login for commands without a session-level check of their own.
func (a *App) adminLogin(ctx context.Context, action string) (*session.Session, error) {
	s, err := a.login(ctx)
	if err != nil {
		return nil, err
	}

	if !s.IsAdmin() {
		s.End()

		return nil, fmt.Errorf("%s: %w", action, session.ErrForbidden)
	}

	return s, nil
}

// newPassword prompts for a password and its confirmation.
func (a *App) newPassword() (string, string, error) {
	password, err := a.Password("new password: ")
	if err != nil {
		return "", "", err
	}

	confirm, err := a.Password("confirm password: ")
	if err != nil {
		return "", "", err
	}

	return password, confirm, nil
}

var stdin = bufio.NewReader(os.Stdin)

// promptPassword reads a secret without echo, or a plain line when stdin is not a terminal.
func promptPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)

	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		line, err := stdin.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("error reading password: %w", err)
		}

		return strings.TrimRight(line, "\r\n"), nil
	}

	b, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)

	if err != nil {
		return "", fmt.Errorf("error reading password: %w", err)
	}

	return string(b), nil
}
