package db

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/matt-steen/kanban-sheets/pkg/sheet"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"
)

// Options tunes a Database. The zero value is usable.
type Options struct {
	// Now returns the current time; tests pin it.
	Now func() time.Time
	// HashCost is the bcrypt cost for new password hashes.
	HashCost int
}

// Database is the domain layer over a spreadsheet store. It keeps one Board snapshot, which is
// reloaded after every write so callers always read their own writes.
type Database struct {
	store sheet.Store
	now   func() time.Time
	cost  int

	tasks         *sheet.Repo[Task]
	collaborators *sheet.Repo[Collaborator]
	interactions  *sheet.Repo[Interaction]
	items         *sheet.Repo[Item]
	users         *sheet.Repo[User]
	machines      *sheet.Repo[Machine]

	mu    sync.RWMutex
	board *Board
}

// Open builds a Database on the store and loads the first snapshot.
func Open(ctx context.Context, store sheet.Store, opts Options) (*Database, error) {
	if opts.Now == nil {
		opts.Now = time.Now
	}

	if opts.HashCost == 0 {
		opts.HashCost = bcrypt.DefaultCost
	}

	d := &Database{
		store:         store,
		now:           opts.Now,
		cost:          opts.HashCost,
		tasks:         sheet.NewRepo(store, taskCodec()),
		collaborators: sheet.NewRepo(store, collaboratorCodec()),
		interactions:  sheet.NewRepo(store, interactionCodec()),
		items:         sheet.NewRepo(store, itemCodec()),
		users:         sheet.NewRepo(store, userCodec()),
		machines:      sheet.NewRepo(store, machineCodec()),
	}

	if err := d.Reload(ctx); err != nil {
		return nil, err
	}

	return d, nil
}

// Close closes the underlying store.
func (d *Database) Close() error {
	return d.store.Close()
}

// Board returns the current snapshot. Callers must not mutate it.
func (d *Database) Board() *Board {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return d.board
}

// Today returns the current date at midnight.
func (d *Database) Today() time.Time {
	return dayOf(d.now())
}

// Reload discards the snapshot and reads the four task sheets again.
func (d *Database) Reload(ctx context.Context) error {
	board, err := d.ListTasks(ctx)
	if err != nil {
		return err
	}

	d.mu.Lock()
	d.board = board
	d.mu.Unlock()

	return nil
}

// refresh is called at the end of every write. A failed reload keeps the previous snapshot; the
// write itself has already happened, so the error is reported to the caller.
func (d *Database) refresh(ctx context.Context) error {
	if err := d.Reload(ctx); err != nil {
		return fmt.Errorf("error reloading board after write: %w", err)
	}

	return nil
}

// ListTasks reads tasks, collaborators, interactions and items in full and joins them into a
// board. Sheets are read in parallel; children with ids that match no task are ignored.
func (d *Database) ListTasks(ctx context.Context) (*Board, error) {
	var (
		tasks         []Task
		collaborators []Collaborator
		interactions  []Interaction
		items         []Item
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		tasks, err = d.tasks.List(gctx)

		return wrapLoad(sheet.SheetTasks, err)
	})
	g.Go(func() (err error) {
		collaborators, err = d.collaborators.List(gctx)

		return wrapLoad(sheet.SheetCollaborators, err)
	})
	g.Go(func() (err error) {
		interactions, err = d.interactions.List(gctx)

		return wrapLoad(sheet.SheetInteractions, err)
	})
	g.Go(func() (err error) {
		items, err = d.items.List(gctx)

		return wrapLoad(sheet.SheetItems, err)
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	board := newBoard()
	board.LoadedAt = d.now()

	byID := make(map[int]*Task, len(tasks))

	for i := range tasks {
		t := &tasks[i]
		t.Collaborators = []string{}
		t.Interactions = []*Interaction{}
		t.Items = []*Item{}

		if _, dup := byID[t.ID]; !dup {
			byID[t.ID] = t
		}

		board.add(t)
	}

	for _, c := range collaborators {
		if t, ok := byID[c.TaskID]; ok && c.Username != "" {
			t.Collaborators = append(t.Collaborators, c.Username)
		}
	}

	for i := range interactions {
		if t, ok := byID[interactions[i].TaskID]; ok {
			t.Interactions = append(t.Interactions, &interactions[i])
		}
	}

	for i := range items {
		if t, ok := byID[items[i].TaskID]; ok {
			t.Items = append(t.Items, &items[i])
		}
	}

	log.Debug().Msgf("loaded %d tasks, %d interactions, %d items", len(tasks), len(interactions), len(items))

	return board, nil
}

func wrapLoad(name string, err error) error {
	if err != nil {
		return fmt.Errorf("error loading %s: %w", name, err)
	}

	return nil
}

func (d *Database) timestamp() string {
	return d.now().Format(TimestampLayout)
}
