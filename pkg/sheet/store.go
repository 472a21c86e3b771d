package sheet

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
)

// ErrSheetNotFound is returned when a named sheet does not exist in the store.
var ErrSheetNotFound = errors.New("sheet not found")

// Store is a spreadsheet-shaped backend. Every read returns a whole sheet and every write
// replaces a whole sheet; there is no row-level API.
type Store interface {
	// EnsureSheet creates the sheet with the given header row if it does not exist yet.
	EnsureSheet(ctx context.Context, name string, header []string) error
	// ReadSheet returns a copy of the whole sheet.
	ReadSheet(ctx context.Context, name string) (*Table, error)
	// WriteSheet replaces the whole sheet with the given table in a single call.
	WriteSheet(ctx context.Context, table *Table) error
	// ResetSheet wipes the sheet back to just the header row.
	ResetSheet(ctx context.Context, name string, header []string) error
	Close() error
}

// These constants name the sheets of the backing spreadsheet.
const (
	SheetTasks         = "tasks"
	SheetCollaborators = "task_collaborators"
	SheetInteractions  = "task_interactions"
	SheetItems         = "task_items"
	SheetUsers         = "users"
	SheetMachines      = "plant_machines"
)

// Schema maps every sheet to the header row it is created with.
func Schema() map[string][]string {
	return map[string][]string{
		SheetTasks: {
			"id", "task", "description", "date", "priority", "shift", "start_date", "due_date",
			"status", "completion_date", "progress", "created_by", "document_links",
		},
		SheetCollaborators: {"task_id", "username"},
		SheetInteractions: {
			"id", "task_id", "username", "action_type", "timestamp", "comment_text",
			"image_base64", "new_status", "progress_value",
		},
		SheetItems: {"id", "task_id", "item_name", "status", "progress", "completion_date"},
		SheetUsers: {"username", "password_hash", "role"},
		SheetMachines: {
			"machine_id", "machine_name", "area", "coord_x", "coord_y", "machine_type", "status",
			"last_maintenance", "next_maintenance",
		},
	}
}

// SheetOrder lists the sheets in the order they are created and cleared.
func SheetOrder() []string {
	return []string{SheetTasks, SheetCollaborators, SheetInteractions, SheetUsers, SheetItems, SheetMachines}
}

// EnsureSchema creates any missing sheet with its header row.
func EnsureSchema(ctx context.Context, store Store) error {
	schema := Schema()

	for _, name := range SheetOrder() {
		if err := store.EnsureSheet(ctx, name, schema[name]); err != nil {
			return fmt.Errorf("error ensuring sheet %s: %w", name, err)
		}
	}

	return nil
}

// ReadOrEmpty reads the sheet and drops blank rows. A missing sheet yields an empty table with
// the schema header so callers never need to special-case a fresh spreadsheet.
func ReadOrEmpty(ctx context.Context, store Store, name string) (*Table, error) {
	table, err := store.ReadSheet(ctx, name)
	if errors.Is(err, ErrSheetNotFound) {
		log.Warn().Str("sheet", name).Msg("sheet missing, treating as empty")

		return NewTable(name, Schema()[name]), nil
	}

	if err != nil {
		return nil, fmt.Errorf("error reading sheet %s: %w", name, err)
	}

	table.Compact()

	if len(table.Header) == 0 {
		table.Header = append([]string{}, Schema()[name]...)
	}

	return table, nil
}

// MemoryStore keeps sheets in process memory. It is used by tests and for throwaway boards.
type MemoryStore struct {
	mu     sync.Mutex
	sheets map[string]*Table
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sheets: map[string]*Table{}}
}

// EnsureSheet implements Store.
func (m *MemoryStore) EnsureSheet(_ context.Context, name string, header []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sheets[name]; !ok {
		m.sheets[name] = NewTable(name, header)
	}

	return nil
}

// ReadSheet implements Store.
func (m *MemoryStore) ReadSheet(_ context.Context, name string) (*Table, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	table, ok := m.sheets[name]
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, ErrSheetNotFound)
	}

	return table.Clone(), nil
}

// WriteSheet implements Store.
func (m *MemoryStore) WriteSheet(_ context.Context, table *Table) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sheets[table.Name] = table.Clone()

	return nil
}

// ResetSheet implements Store.
func (m *MemoryStore) ResetSheet(_ context.Context, name string, header []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sheets[name] = NewTable(name, header)

	return nil
}

// Close implements Store.
func (m *MemoryStore) Close() error {
	return nil
}
