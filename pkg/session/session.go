// Package session holds what one logged-in user carries through the board: who they are and
// their own snapshot of the task sheets.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/matt-steen/kanban-sheets/pkg/db"
	"github.com/matt-steen/kanban-sheets/pkg/sheet"
	"github.com/rs/zerolog/log"
)

// ErrForbidden is returned when a user attempts an action their role does not allow.
var ErrForbidden = errors.New("not allowed for this role")

// ErrEnded is returned by a session that has been ended.
var ErrEnded = errors.New("session ended")

// Session is one user's interactive session. Its Database and snapshot are not shared.
type Session struct {
	ID        uuid.UUID
	User      *db.User
	StartedAt time.Time
	DB        *db.Database
}

// Login verifies the credentials against the store and starts a session for the user.
func Login(ctx context.Context, store sheet.Store, opts db.Options, username, password string) (*Session, error) {
	database, err := db.Open(ctx, store, opts)
	if err != nil {
		return nil, err
	}

	user, err := database.VerifyLogin(ctx, username, password)
	if err != nil {
		return nil, err
	}

	return start(database, user), nil
}

// Start begins a session for an already verified user with a fresh snapshot.
func Start(ctx context.Context, store sheet.Store, opts db.Options, user *db.User) (*Session, error) {
	database, err := db.Open(ctx, store, opts)
	if err != nil {
		return nil, err
	}

	return start(database, user), nil
}

func start(database *db.Database, user *db.User) *Session {
	s := &Session{
		ID:        uuid.New(),
		User:      user,
		StartedAt: time.Now(),
		DB:        database,
	}

	log.Info().Str("session", s.ID.String()).Str("user", user.Username).Str("role", user.Role).Msg("session started")

	return s
}

// End drops the session's snapshot. The store stays open; it belongs to the caller.
func (s *Session) End() {
	if s.DB == nil {
		return
	}

	log.Info().Str("session", s.ID.String()).Dur("duration", time.Since(s.StartedAt)).Msg("session ended")

	s.DB = nil
}

// Username returns the session's user name.
func (s *Session) Username() string {
	return s.User.Username
}

// IsAdmin reports whether the session's user holds an admin role.
func (s *Session) IsAdmin() bool {
	return s.User.IsAdmin()
}

// CanEdit reports whether the user may report progress on the task: admins always can,
// everyone else only on tasks they collaborate on.
func (s *Session) CanEdit(t *db.Task) bool {
	return s.IsAdmin() || t.HasCollaborator(s.User.Username)
}

// CanReport reports whether the user may still report progress on the task; Done tasks are
// closed to further reports.
func (s *Session) CanReport(t *db.Task) bool {
	return s.CanEdit(t) && t.Status != db.StatusDone
}

// DefaultFilter is the responsible filter a board opens with. Plain collaborators who have
// tasks start on their own; everyone else sees every task.
func (s *Session) DefaultFilter() string {
	if s.IsAdmin() || s.DB == nil {
		return ""
	}

	for _, name := range s.DB.Board().Responsibles() {
		if name == s.User.Username {
			return name
		}
	}

	return ""
}

func (s *Session) check(admin bool, action string) error {
	if s.DB == nil {
		return ErrEnded
	}

	if admin && !s.IsAdmin() {
		return fmt.Errorf("%s: %w", action, ErrForbidden)
	}

	return nil
}

func (s *Session) checkTask(id int, action string) error {
	if err := s.check(false, action); err != nil {
		return err
	}

	t := s.DB.Board().Task(id)
	if t == nil {
		return fmt.Errorf("%s: task %d: %w", action, id, db.ErrNotFound)
	}

	if !s.CanEdit(t) {
		return fmt.Errorf("%s on task %d: %w", action, id, ErrForbidden)
	}

	return nil
}

// CreateTask creates a task as the session's user. Admins only.
func (s *Session) CreateTask(ctx context.Context, nt db.NewTask, initial db.Status, collaborators []string) (*db.Task, error) {
	if err := s.check(true, "create task"); err != nil {
		return nil, err
	}

	return s.DB.CreateTask(ctx, s.Username(), nt, initial, collaborators)
}

// RecordProgress reports progress on a task the user may edit.
func (s *Session) RecordProgress(ctx context.Context, taskID int, r db.ProgressReport) error {
	if err := s.checkTask(taskID, "record progress"); err != nil {
		return err
	}

	return s.DB.RecordProgress(ctx, s.Username(), taskID, r)
}

// RecordItemProgress reports progress on an item of a task the user may edit.
func (s *Session) RecordItemProgress(ctx context.Context, taskID, itemID, progress int, comment, image string) error {
	if err := s.checkTask(taskID, "update item"); err != nil {
		return err
	}

	return s.DB.RecordItemProgress(ctx, s.Username(), taskID, itemID, progress, comment, image)
}

// AddItems adds checklist lines to a task the user may edit.
func (s *Session) AddItems(ctx context.Context, taskID int, names []string) ([]db.Item, error) {
	if err := s.checkTask(taskID, "add items"); err != nil {
		return nil, err
	}

	return s.DB.AddItems(ctx, taskID, names)
}

// Stats computes the statistics page. Admins only.
func (s *Session) Stats() (*db.Stats, error) {
	if err := s.check(true, "statistics"); err != nil {
		return nil, err
	}

	return db.ComputeStats(s.DB.Board(), s.DB.Today()), nil
}

// AddMachine places a machine on the plant map. Admins only.
func (s *Session) AddMachine(ctx context.Context, nm db.NewMachine) (*db.Machine, error) {
	if err := s.check(true, "add machine"); err != nil {
		return nil, err
	}

	return s.DB.AddMachine(ctx, nm)
}

// CreateUser adds a user. Admins only.
func (s *Session) CreateUser(ctx context.Context, username, password, confirm, role string) (*db.User, error) {
	if err := s.check(true, "create user"); err != nil {
		return nil, err
	}

	return s.DB.CreateUser(ctx, username, password, confirm, role)
}

// ChangePassword sets a user's password. Admins may change anyone's; others only their own.
func (s *Session) ChangePassword(ctx context.Context, username, password, confirm string) error {
	own := username == s.Username()
	if err := s.check(!own, "change password"); err != nil {
		return err
	}

	return s.DB.ChangePassword(ctx, username, password, confirm)
}

// ClearAll wipes every sheet. Admins only, and only when confirmed.
func (s *Session) ClearAll(ctx context.Context, confirmed bool) error {
	if err := s.check(true, "clear all data"); err != nil {
		return err
	}

	log.Warn().Str("session", s.ID.String()).Str("user", s.Username()).Bool("confirmed", confirmed).Msg("clear all requested")

	return s.DB.ClearAll(ctx, confirmed)
}

// Export writes the task sheets as an xlsx workbook. Admins only.
func (s *Session) Export(ctx context.Context, w io.Writer) error {
	if err := s.check(true, "export"); err != nil {
		return err
	}

	return s.DB.Export(ctx, w)
}

// Refresh reloads the session's snapshot from the store.
func (s *Session) Refresh(ctx context.Context) error {
	if err := s.check(false, "refresh"); err != nil {
		return err
	}

	return s.DB.Reload(ctx)
}
