package db

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/matt-steen/kanban-sheets/pkg/sheet"
	"github.com/rs/zerolog/log"
)

// NewTask holds the fields an admin fills in when creating a task.
type NewTask struct {
	Name        string
	Description string
	// Date is the creation date; nil means today.
	Date      *time.Time
	Priority  Priority
	Shift     Shift
	StartDate *time.Time
	DueDate   *time.Time
	Links     string
	// Items are checklist lines added right after the task.
	Items []string
}

// TaskUpdate is a partial update: nil fields are left untouched.
type TaskUpdate struct {
	Status         *Status
	CompletionDate *time.Time
	Progress       *int
}

func (u TaskUpdate) record() sheet.Record {
	fields := sheet.Record{}

	if u.Status != nil {
		fields["status"] = u.Status.String()
	}

	if u.CompletionDate != nil {
		fields["completion_date"] = formatDate(u.CompletionDate)
	}

	if u.Progress != nil {
		fields["progress"] = strconv.Itoa(*u.Progress)
	}

	return fields
}

// ProgressReport is a collaborator's update from the progress form.
type ProgressReport struct {
	Progress int
	Comment  string
	// Image is an already processed evidence image, or empty.
	Image string
	// Complete marks the task done at 100%; otherwise the status is kept.
	Complete bool
}

func validProgress(p int) error {
	if p < 0 || p > 100 {
		return fmt.Errorf("%w: progress %d out of range 0-100", ErrInvalidInput, p)
	}

	return nil
}

// CreateTask appends a task with the next id, one collaborator row per username and the
// optional checklist items. The status is fixed to initial, progress starts at 0 and there is
// no completion date.
func (d *Database) CreateTask(ctx context.Context, actor string, nt NewTask, initial Status, collaborators []string) (*Task, error) {
	nt.Name = strings.TrimSpace(nt.Name)
	if nt.Name == "" {
		return nil, fmt.Errorf("%w: task name is required", ErrInvalidInput)
	}

	names := []string{}
	for _, c := range collaborators {
		if c = strings.TrimSpace(c); c != "" {
			names = append(names, c)
		}
	}

	if len(names) == 0 {
		return nil, fmt.Errorf("%w: at least one collaborator is required", ErrInvalidInput)
	}

	if initial != StatusTodo && initial != StatusInProgress {
		return nil, fmt.Errorf("%w: a new task must start in %q or %q", ErrInvalidInput, StatusTodo, StatusInProgress)
	}

	created := nt.Date
	if created == nil {
		today := d.Today()
		created = &today
	}

	task := Task{
		Name:        nt.Name,
		Description: nt.Description,
		Date:        created,
		Priority:    nt.Priority,
		Shift:       nt.Shift,
		StartDate:   nt.StartDate,
		DueDate:     nt.DueDate,
		Status:      initial,
		Progress:    0,
		CreatedBy:   actor,
		Links:       nt.Links,
	}

	rows, err := d.tasks.Append(ctx, task)
	if err != nil {
		return nil, fmt.Errorf("error creating task: %w", err)
	}

	task = rows[0]

	collabs := make([]Collaborator, 0, len(names))
	for _, n := range names {
		collabs = append(collabs, Collaborator{TaskID: task.ID, Username: n})
	}

	if _, err := d.collaborators.Append(ctx, collabs...); err != nil {
		return nil, fmt.Errorf("error assigning collaborators to task %d: %w", task.ID, err)
	}

	if _, err := d.addItems(ctx, task.ID, nt.Items); err != nil {
		return nil, err
	}

	log.Info().Int("task", task.ID).Str("by", actor).Msgf("created task %q", task.Name)

	if err := d.refresh(ctx); err != nil {
		return nil, err
	}

	if t := d.Board().Task(task.ID); t != nil {
		return t, nil
	}

	return &task, nil
}

// UpdateTaskStatus applies a partial update to the task with the id.
func (d *Database) UpdateTaskStatus(ctx context.Context, id int, u TaskUpdate) error {
	if err := d.updateTask(ctx, id, u); err != nil {
		return err
	}

	return d.refresh(ctx)
}

func (d *Database) updateTask(ctx context.Context, id int, u TaskUpdate) error {
	if u.Progress != nil {
		if err := validProgress(*u.Progress); err != nil {
			return err
		}
	}

	if _, err := d.tasks.Patch(ctx, strconv.Itoa(id), u.record()); err != nil {
		return fmt.Errorf("error updating task %d: %w", id, err)
	}

	return nil
}

// RecordProgress is the progress form workflow: update the task, then log what happened.
// Completing moves the task to Done at 100% with today's completion date and records a
// status_change; a plain save keeps the status and records a progress_update carrying it.
// Tasks already Done take no further reports.
func (d *Database) RecordProgress(ctx context.Context, actor string, id int, r ProgressReport) error {
	if err := validProgress(r.Progress); err != nil {
		return err
	}

	current, err := d.tasks.Get(ctx, strconv.Itoa(id))
	if err != nil {
		return fmt.Errorf("error recording progress on task %d: %w", id, err)
	}

	if current.Status == StatusDone {
		return fmt.Errorf("%w: task %d is already %q", ErrInvalidInput, id, StatusDone)
	}

	in := Interaction{TaskID: id, Username: actor, Comment: strings.TrimSpace(r.Comment), Image: r.Image}

	var u TaskUpdate

	if r.Complete {
		done, full, today := StatusDone, 100, d.Today()
		u = TaskUpdate{Status: &done, Progress: &full, CompletionDate: &today}
		in.Action = ActionStatusChange
		in.NewStatus = &done
		in.ProgressValue = &full
	} else {
		progress, status := r.Progress, current.Status
		u = TaskUpdate{Progress: &progress}
		in.Action = ActionProgressUpdate
		in.NewStatus = &status
		in.ProgressValue = &progress
	}

	if err := d.updateTask(ctx, id, u); err != nil {
		return err
	}

	if _, err := d.appendInteraction(ctx, in); err != nil {
		return err
	}

	return d.refresh(ctx)
}
