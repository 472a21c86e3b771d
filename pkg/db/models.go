package db

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// DateLayout is how calendar dates are written to the spreadsheet.
const DateLayout = "2006-01-02"

// TimestampLayout is how interaction timestamps are written: local wall-clock, second precision.
const TimestampLayout = "2006-01-02 15:04:05"

// dueSoonDays is how close a due date must be to count as "due soon".
const dueSoonDays = 3

// Task is a unit of work on the board, joined with its collaborators, interactions and items.
type Task struct {
	ID          int
	Name        string
	Description string
	Date        *time.Time
	Priority    Priority
	Shift       Shift
	StartDate   *time.Time
	DueDate     *time.Time
	Status      Status
	// RawStatus is the status cell as stored; it differs from Status when the stored value was
	// not recognized and the task was bucketed into Todo.
	RawStatus      string
	CompletionDate *time.Time
	// Progress is 0-100. It is set directly or recomputed from the items' average.
	Progress      int
	CreatedBy     string
	Links         string
	Collaborators []string
	Interactions  []*Interaction
	Items         []*Item
}

// Collaborator assigns a user to a task. Duplicate pairs are not prevented.
type Collaborator struct {
	TaskID   int
	Username string
}

// Item is a checklist line under a task.
type Item struct {
	ID             int
	TaskID         int
	Name           string
	Status         Status
	Progress       int
	CompletionDate *time.Time
}

// Interaction is an append-only audit record attached to a task.
type Interaction struct {
	ID        int
	TaskID    int
	Username  string
	Action    ActionType
	Timestamp string
	Comment   string
	// Image is a base64 JPEG produced by the evidence package.
	Image         string
	NewStatus     *Status
	ProgressValue *int
}

// User is an account from the users sheet.
type User struct {
	Username     string
	PasswordHash string
	Role         string
}

// IsAdmin reports whether the user holds an admin-capable role.
func (u *User) IsAdmin() bool {
	return u != nil && IsAdminRole(u.Role)
}

// Machine is a plant machine placed on the floor map.
type Machine struct {
	ID              int
	Name            string
	Area            string
	X               int
	Y               int
	Type            string
	Status          MachineStatus
	LastMaintenance *time.Time
	NextMaintenance *time.Time
}

// DueState summarizes a task's due date for display.
type DueState int

// These constants are the due states, in increasing urgency.
const (
	DueNone DueState = iota
	DueDone
	DueSoon
	DueOverdue
)

// DueState returns how urgent the task is relative to today. A task due today is overdue.
func (t *Task) DueState(today time.Time) DueState {
	if t.Status == StatusDone {
		return DueDone
	}

	if t.DueDate == nil {
		return DueNone
	}

	due := dayOf(*t.DueDate)
	day := dayOf(today)

	switch {
	case !due.After(day):
		return DueOverdue
	case !due.After(day.AddDate(0, 0, dueSoonDays)):
		return DueSoon
	default:
		return DueNone
	}
}

// DocumentLinks returns the URL-shaped lines of the task's document links. Other lines are
// kept in storage but never shown. Bare "www." links are given an https scheme.
func (t *Task) DocumentLinks() []string {
	links := []string{}

	for _, line := range strings.Split(t.Links, "\n") {
		line = strings.TrimSpace(line)

		switch {
		case strings.HasPrefix(line, "http://"), strings.HasPrefix(line, "https://"):
			links = append(links, line)
		case strings.HasPrefix(line, "www."):
			links = append(links, "https://"+line)
		}
	}

	return links
}

// HasCollaborator reports whether username is assigned to the task, case-insensitively.
func (t *Task) HasCollaborator(username string) bool {
	for _, c := range t.Collaborators {
		if strings.EqualFold(strings.TrimSpace(c), strings.TrimSpace(username)) {
			return true
		}
	}

	return false
}

// Column is one status bucket of the board.
type Column struct {
	Status Status
	Tasks  []*Task
}

// Board is the read model the presentation layer consumes: every task with its children,
// bucketed into the three status columns.
type Board struct {
	Columns  []*Column
	Tasks    []*Task
	LoadedAt time.Time
}

func newBoard() *Board {
	b := &Board{Tasks: []*Task{}}

	for _, s := range Statuses() {
		b.Columns = append(b.Columns, &Column{Status: s, Tasks: []*Task{}})
	}

	return b
}

func (b *Board) add(t *Task) {
	b.Tasks = append(b.Tasks, t)

	col := b.Column(t.Status)
	col.Tasks = append(col.Tasks, t)
}

// Column returns the bucket for a status.
func (b *Board) Column(s Status) *Column {
	for _, c := range b.Columns {
		if c.Status == s {
			return c
		}
	}

	return nil
}

// Task returns the task with the id, or nil.
func (b *Board) Task(id int) *Task {
	for _, t := range b.Tasks {
		if t.ID == id {
			return t
		}
	}

	return nil
}

// Responsibles returns every collaborator name on the board, sorted and without duplicates.
func (b *Board) Responsibles() []string {
	seen := map[string]bool{}
	names := []string{}

	for _, t := range b.Tasks {
		for _, c := range t.Collaborators {
			if c == "" || seen[c] {
				continue
			}

			seen[c] = true
			names = append(names, c)
		}
	}

	sort.Strings(names)

	return names
}

// FilterByResponsible returns a board with only the tasks assigned to username. An empty
// username returns the board unchanged.
func (b *Board) FilterByResponsible(username string) *Board {
	if username == "" {
		return b
	}

	filtered := newBoard()
	filtered.LoadedAt = b.LoadedAt

	for _, t := range b.Tasks {
		if t.HasCollaborator(username) {
			filtered.add(t)
		}
	}

	return filtered
}

func dayOf(t time.Time) time.Time {
	y, m, d := t.Date()

	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}

// parseDate reads a stored date. Both plain dates and full timestamps are accepted because
// spreadsheet clients rewrite dates in either shape.
func parseDate(v string) *time.Time {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}

	for _, layout := range []string{DateLayout, TimestampLayout, time.RFC3339, "02/01/2006"} {
		if t, err := time.ParseInLocation(layout, v, time.Local); err == nil {
			return &t
		}
	}

	return nil
}

// ParseDay reads a YYYY-MM-DD date typed by a user. An empty string is no date.
func ParseDay(v string) (*time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil, nil
	}

	t, err := time.ParseInLocation(DateLayout, v, time.Local)
	if err != nil {
		return nil, fmt.Errorf("%w: %q is not a YYYY-MM-DD date", ErrInvalidInput, v)
	}

	return &t, nil
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}

	return t.Format(DateLayout)
}
