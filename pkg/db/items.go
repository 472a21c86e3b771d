package db

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/matt-steen/kanban-sheets/pkg/sheet"
)

// ItemUpdate is a partial update of a checklist item.
type ItemUpdate struct {
	Status         *Status
	Progress       *int
	CompletionDate *time.Time
}

// AddItems appends one Todo item at 0% per non-blank name.
func (d *Database) AddItems(ctx context.Context, taskID int, names []string) ([]Item, error) {
	items, err := d.addItems(ctx, taskID, names)
	if err != nil {
		return nil, err
	}

	return items, d.refresh(ctx)
}

func (d *Database) addItems(ctx context.Context, taskID int, names []string) ([]Item, error) {
	rows := []Item{}

	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			rows = append(rows, Item{TaskID: taskID, Name: n, Status: StatusTodo})
		}
	}

	items, err := d.items.Append(ctx, rows...)
	if err != nil {
		return nil, fmt.Errorf("error adding items to task %d: %w", taskID, err)
	}

	return items, nil
}

// UpdateItemProgress applies a partial update to the item with the id.
func (d *Database) UpdateItemProgress(ctx context.Context, itemID int, u ItemUpdate) error {
	if err := d.updateItem(ctx, itemID, u); err != nil {
		return err
	}

	return d.refresh(ctx)
}

func (d *Database) updateItem(ctx context.Context, itemID int, u ItemUpdate) error {
	fields := sheet.Record{}

	if u.Status != nil {
		fields["status"] = u.Status.String()
	}

	if u.Progress != nil {
		if err := validProgress(*u.Progress); err != nil {
			return err
		}

		fields["progress"] = strconv.Itoa(*u.Progress)
	}

	if u.CompletionDate != nil {
		fields["completion_date"] = formatDate(u.CompletionDate)
	}

	if _, err := d.items.Patch(ctx, strconv.Itoa(itemID), fields); err != nil {
		return fmt.Errorf("error updating item %d: %w", itemID, err)
	}

	return nil
}

// RecalcTaskProgress sets the task's progress to the truncated mean of its items' progress,
// leaving the status alone. It returns false without writing when the task has no items.
func (d *Database) RecalcTaskProgress(ctx context.Context, taskID int) (bool, error) {
	changed, err := d.recalcTaskProgress(ctx, taskID)
	if err != nil || !changed {
		return changed, err
	}

	return true, d.refresh(ctx)
}

func (d *Database) recalcTaskProgress(ctx context.Context, taskID int) (bool, error) {
	items, err := d.items.List(ctx)
	if err != nil {
		return false, fmt.Errorf("error loading items of task %d: %w", taskID, err)
	}

	sum, n := 0, 0

	for _, it := range items {
		if it.TaskID == taskID {
			sum += it.Progress
			n++
		}
	}

	if n == 0 {
		return false, nil
	}

	mean := sum / n
	if err := d.updateTask(ctx, taskID, TaskUpdate{Progress: &mean}); err != nil {
		return false, err
	}

	return true, nil
}

// RecordItemProgress is the item form workflow. The item's status follows its progress and it
// gets today's completion date at 100%. An item_update interaction is logged and the task's
// progress is recomputed from its items.
//
// A task's progress set directly through RecordProgress stays as written until the next item
// update triggers this recompute. An item of another task is reported as not found.
func (d *Database) RecordItemProgress(ctx context.Context, actor string, taskID, itemID, progress int, comment, image string) error {
	if err := validProgress(progress); err != nil {
		return err
	}

	item, err := d.items.Get(ctx, strconv.Itoa(itemID))
	if err != nil {
		return fmt.Errorf("error updating item %d: %w", itemID, err)
	}

	if item.TaskID != taskID {
		return fmt.Errorf("item %d of task %d: %w", itemID, taskID, ErrNotFound)
	}

	status := StatusForProgress(progress)
	u := ItemUpdate{Status: &status, Progress: &progress}

	if status == StatusDone {
		today := d.Today()
		u.CompletionDate = &today
	}

	if err := d.updateItem(ctx, itemID, u); err != nil {
		return err
	}

	in := Interaction{
		TaskID:        taskID,
		Username:      actor,
		Action:        ActionItemUpdate,
		Comment:       strings.TrimSpace(comment),
		Image:         image,
		ProgressValue: &progress,
	}

	if _, err := d.appendInteraction(ctx, in); err != nil {
		return err
	}

	if _, err := d.recalcTaskProgress(ctx, taskID); err != nil {
		return err
	}

	return d.refresh(ctx)
}
