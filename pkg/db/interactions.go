package db

import (
	"context"
	"fmt"
)

// AppendInteraction adds an audit record stamped with the current local time. The task id is
// not checked against the tasks sheet; interactions are never changed once written.
func (d *Database) AppendInteraction(ctx context.Context, in Interaction) (Interaction, error) {
	in, err := d.appendInteraction(ctx, in)
	if err != nil {
		return in, err
	}

	return in, d.refresh(ctx)
}

func (d *Database) appendInteraction(ctx context.Context, in Interaction) (Interaction, error) {
	if _, err := ParseActionType(string(in.Action)); err != nil {
		return in, err
	}

	if in.ProgressValue != nil {
		if err := validProgress(*in.ProgressValue); err != nil {
			return in, err
		}
	}

	in.Timestamp = d.timestamp()

	rows, err := d.interactions.Append(ctx, in)
	if err != nil {
		return in, fmt.Errorf("error logging %s on task %d: %w", in.Action, in.TaskID, err)
	}

	return rows[0], nil
}

// Interactions returns the task's interactions in the order they were appended.
func (d *Database) Interactions(ctx context.Context, taskID int) ([]Interaction, error) {
	all, err := d.interactions.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("error loading interactions of task %d: %w", taskID, err)
	}

	out := []Interaction{}

	for _, in := range all {
		if in.TaskID == taskID {
			out = append(out, in)
		}
	}

	return out, nil
}
