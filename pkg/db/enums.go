package db

import (
	"fmt"
	"strings"
)

// enumEntry is one row of an enum's canonical mapping table: the Go value, a stable identifier
// accepted from flags and forms, and the label stored in the spreadsheet.
type enumEntry[T comparable] struct {
	value T
	id    string
	label string
}

func parseEnum[T comparable](kind string, entries []enumEntry[T], v string) (T, error) {
	v = strings.TrimSpace(v)

	for _, e := range entries {
		if strings.EqualFold(v, e.label) || strings.EqualFold(v, e.id) {
			return e.value, nil
		}
	}

	var zero T

	return zero, fmt.Errorf("%w: unknown %s %q", ErrInvalidInput, kind, v)
}

func labelOf[T comparable](entries []enumEntry[T], v T) string {
	for _, e := range entries {
		if e.value == v {
			return e.label
		}
	}

	return ""
}

func idOf[T comparable](entries []enumEntry[T], v T) string {
	for _, e := range entries {
		if e.value == v {
			return e.id
		}
	}

	return ""
}

// Status is the kanban column of a task or item.
type Status int

// These constants are the three board columns.
const (
	StatusTodo Status = iota
	StatusInProgress
	StatusDone
)

var statusTable = []enumEntry[Status]{
	{StatusTodo, "todo", "Por hacer"},
	{StatusInProgress, "in_progress", "En proceso"},
	{StatusDone, "done", "Hecho"},
}

// Statuses returns the columns in board order.
func Statuses() []Status {
	return []Status{StatusTodo, StatusInProgress, StatusDone}
}

// ParseStatus accepts either the stored label or the identifier, case-insensitively.
func ParseStatus(v string) (Status, error) {
	return parseEnum("status", statusTable, v)
}

// BucketStatus maps a stored status onto a column. Values outside the enum land in Todo; the
// second return value reports whether the stored value was recognized.
func BucketStatus(v string) (Status, bool) {
	s, err := ParseStatus(v)
	if err != nil {
		return StatusTodo, false
	}

	return s, true
}

// String returns the stored label.
func (s Status) String() string {
	return labelOf(statusTable, s)
}

// ID returns the identifier used on the command line.
func (s Status) ID() string {
	return idOf(statusTable, s)
}

// StatusForProgress derives a checklist item's status from its progress.
func StatusForProgress(progress int) Status {
	switch {
	case progress >= 100:
		return StatusDone
	case progress > 0:
		return StatusInProgress
	default:
		return StatusTodo
	}
}

// Priority of a task. The zero value means blank or unrecognized.
type Priority int

// These constants are the supported priorities.
const (
	PriorityNone Priority = iota
	PriorityHigh
	PriorityMedium
	PriorityLow
)

var priorityTable = []enumEntry[Priority]{
	{PriorityHigh, "high", "Alta"},
	{PriorityMedium, "medium", "Media"},
	{PriorityLow, "low", "Baja"},
}

// Priorities lists the selectable priorities.
func Priorities() []Priority {
	return []Priority{PriorityHigh, PriorityMedium, PriorityLow}
}

// ParsePriority accepts the stored label or identifier.
func ParsePriority(v string) (Priority, error) {
	return parseEnum("priority", priorityTable, v)
}

func (p Priority) String() string {
	return labelOf(priorityTable, p)
}

// Shift is the work shift a task belongs to. The zero value means blank or unrecognized.
type Shift int

// These constants are the three shifts.
const (
	ShiftNone Shift = iota
	ShiftFirst
	ShiftSecond
	ShiftThird
)

var shiftTable = []enumEntry[Shift]{
	{ShiftFirst, "1st", "1er Turno"},
	{ShiftSecond, "2nd", "2do Turno"},
	{ShiftThird, "3rd", "3er Turno"},
}

// Shifts lists the selectable shifts.
func Shifts() []Shift {
	return []Shift{ShiftFirst, ShiftSecond, ShiftThird}
}

// ParseShift accepts the stored label or identifier.
func ParseShift(v string) (Shift, error) {
	return parseEnum("shift", shiftTable, v)
}

func (s Shift) String() string {
	return labelOf(shiftTable, s)
}

// Role names. Roles are stored as free text and compared case-insensitively.
const (
	RoleAdminPrincipal = "Admin Principal"
	RoleSupervisor     = "Supervisor"
	RoleCoordinator    = "Coordinador"
	RoleCollaborator   = "Colaborador"
)

var roleTable = []enumEntry[string]{
	{RoleAdminPrincipal, "admin", RoleAdminPrincipal},
	{RoleSupervisor, "supervisor", RoleSupervisor},
	{RoleCoordinator, "coordinator", RoleCoordinator},
	{RoleCollaborator, "collaborator", RoleCollaborator},
}

// Roles lists the roles a user can be given.
func Roles() []string {
	return []string{RoleAdminPrincipal, RoleSupervisor, RoleCoordinator, RoleCollaborator}
}

// ParseRole returns the canonical spelling of a role.
func ParseRole(v string) (string, error) {
	return parseEnum("role", roleTable, v)
}

// IsAdminRole reports whether the role may create tasks, see statistics and manage users and
// the plant map. Every other role is a plain collaborator.
func IsAdminRole(role string) bool {
	switch strings.ToLower(strings.TrimSpace(role)) {
	case "admin principal", "supervisor", "coordinador":
		return true
	}

	return false
}

// IsAssignableRole reports whether users with the role can be made task collaborators.
func IsAssignableRole(role string) bool {
	switch strings.ToLower(strings.TrimSpace(role)) {
	case "colaborador", "coordinador", "supervisor":
		return true
	}

	return false
}

// ActionType classifies an interaction.
type ActionType string

// These constants are the recorded interaction kinds.
const (
	ActionStatusChange   ActionType = "status_change"
	ActionProgressUpdate ActionType = "progress_update"
	ActionItemUpdate     ActionType = "item_update"
)

// ParseActionType rejects unknown action types.
func ParseActionType(v string) (ActionType, error) {
	switch a := ActionType(strings.TrimSpace(v)); a {
	case ActionStatusChange, ActionProgressUpdate, ActionItemUpdate:
		return a, nil
	}

	return "", fmt.Errorf("%w: unknown action type %q", ErrInvalidInput, v)
}

// MachineStatus is the operational state of a plant machine. The zero value means blank or
// unrecognized.
type MachineStatus int

// These constants are the machine states.
const (
	MachineStatusNone MachineStatus = iota
	MachineOperational
	MachineMaintenance
	MachineInactive
)

var machineStatusTable = []enumEntry[MachineStatus]{
	{MachineOperational, "operational", "Operativa"},
	{MachineMaintenance, "maintenance", "Mantenimiento"},
	{MachineInactive, "inactive", "Inactiva"},
}

// MachineStatuses lists the selectable machine states.
func MachineStatuses() []MachineStatus {
	return []MachineStatus{MachineOperational, MachineMaintenance, MachineInactive}
}

// ParseMachineStatus accepts the stored label or identifier.
func ParseMachineStatus(v string) (MachineStatus, error) {
	return parseEnum("machine status", machineStatusTable, v)
}

func (m MachineStatus) String() string {
	return labelOf(machineStatusTable, m)
}

// MachineTypes lists the machine categories offered when adding a machine.
func MachineTypes() []string {
	return []string{"Producción", "Ensamblaje", "Control", "Almacenamiento", "Otro"}
}
