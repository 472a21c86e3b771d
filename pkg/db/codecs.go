package db

import (
	"strconv"

	"github.com/matt-steen/kanban-sheets/pkg/sheet"
	"github.com/rs/zerolog/log"
)

// Primary ids that fail to parse read as 0; foreign keys read as -1 so they never join.
const (
	badPrimaryID = 0
	badForeignID = -1
)

func taskCodec() sheet.Codec[Task] {
	return sheet.Codec[Task]{
		Sheet:  sheet.SheetTasks,
		Key:    "id",
		IntKey: true,
		Decode: decodeTask,
		Encode: encodeTask,
		KeyOf:  func(t Task) string { return strconv.Itoa(t.ID) },
		SetKey: func(t *Task, id int) { t.ID = id },
	}
}

func decodeTask(r sheet.Record) Task {
	raw := r.String("status")

	status, ok := BucketStatus(raw)
	if !ok && raw != "" {
		log.Warn().Str("status", raw).Str("task", r.String("id")).Msg("unknown task status, bucketing into todo")
	}

	priority, _ := ParsePriority(r.String("priority"))
	shift, _ := ParseShift(r.String("shift"))

	return Task{
		ID:             r.Int("id", badPrimaryID),
		Name:           r.String("task"),
		Description:    r.String("description"),
		Date:           parseDate(r.String("date")),
		Priority:       priority,
		Shift:          shift,
		StartDate:      parseDate(r.String("start_date")),
		DueDate:        parseDate(r.String("due_date")),
		Status:         status,
		RawStatus:      raw,
		CompletionDate: parseDate(r.String("completion_date")),
		Progress:       r.Int("progress", 0),
		CreatedBy:      r.String("created_by"),
		Links:          r.String("document_links"),
	}
}

func encodeTask(t Task) sheet.Record {
	return sheet.Record{
		"id":              strconv.Itoa(t.ID),
		"task":            t.Name,
		"description":     t.Description,
		"date":            formatDate(t.Date),
		"priority":        t.Priority.String(),
		"shift":           t.Shift.String(),
		"start_date":      formatDate(t.StartDate),
		"due_date":        formatDate(t.DueDate),
		"status":          t.Status.String(),
		"completion_date": formatDate(t.CompletionDate),
		"progress":        strconv.Itoa(t.Progress),
		"created_by":      t.CreatedBy,
		"document_links":  t.Links,
	}
}

func collaboratorCodec() sheet.Codec[Collaborator] {
	return sheet.Codec[Collaborator]{
		Sheet: sheet.SheetCollaborators,
		Key:   "task_id",
		Decode: func(r sheet.Record) Collaborator {
			return Collaborator{TaskID: r.Int("task_id", badForeignID), Username: r.String("username")}
		},
		Encode: func(c Collaborator) sheet.Record {
			return sheet.Record{"task_id": strconv.Itoa(c.TaskID), "username": c.Username}
		},
		KeyOf: func(c Collaborator) string { return strconv.Itoa(c.TaskID) },
	}
}

func itemCodec() sheet.Codec[Item] {
	return sheet.Codec[Item]{
		Sheet:  sheet.SheetItems,
		Key:    "id",
		IntKey: true,
		Decode: func(r sheet.Record) Item {
			status, _ := BucketStatus(r.String("status"))

			return Item{
				ID:             r.Int("id", badPrimaryID),
				TaskID:         r.Int("task_id", badForeignID),
				Name:           r.String("item_name"),
				Status:         status,
				Progress:       r.Int("progress", 0),
				CompletionDate: parseDate(r.String("completion_date")),
			}
		},
		Encode: func(i Item) sheet.Record {
			return sheet.Record{
				"id":              strconv.Itoa(i.ID),
				"task_id":         strconv.Itoa(i.TaskID),
				"item_name":       i.Name,
				"status":          i.Status.String(),
				"progress":        strconv.Itoa(i.Progress),
				"completion_date": formatDate(i.CompletionDate),
			}
		},
		KeyOf:  func(i Item) string { return strconv.Itoa(i.ID) },
		SetKey: func(i *Item, id int) { i.ID = id },
	}
}

func interactionCodec() sheet.Codec[Interaction] {
	return sheet.Codec[Interaction]{
		Sheet:  sheet.SheetInteractions,
		Key:    "id",
		IntKey: true,
		Decode: func(r sheet.Record) Interaction {
			in := Interaction{
				ID:        r.Int("id", badPrimaryID),
				TaskID:    r.Int("task_id", badForeignID),
				Username:  r.String("username"),
				Action:    ActionType(r.String("action_type")),
				Timestamp: r.String("timestamp"),
				Comment:   r.String("comment_text"),
				Image:     r.String("image_base64"),
			}

			if s, err := ParseStatus(r.String("new_status")); err == nil {
				in.NewStatus = &s
			}

			if v := r.Int("progress_value", -1); v >= 0 {
				in.ProgressValue = &v
			}

			return in
		},
		Encode: func(in Interaction) sheet.Record {
			rec := sheet.Record{
				"id":             strconv.Itoa(in.ID),
				"task_id":        strconv.Itoa(in.TaskID),
				"username":       in.Username,
				"action_type":    string(in.Action),
				"timestamp":      in.Timestamp,
				"comment_text":   in.Comment,
				"image_base64":   in.Image,
				"new_status":     "",
				"progress_value": "",
			}

			if in.NewStatus != nil {
				rec["new_status"] = in.NewStatus.String()
			}

			if in.ProgressValue != nil {
				rec["progress_value"] = strconv.Itoa(*in.ProgressValue)
			}

			return rec
		},
		KeyOf:  func(in Interaction) string { return strconv.Itoa(in.ID) },
		SetKey: func(in *Interaction, id int) { in.ID = id },
	}
}

func userCodec() sheet.Codec[User] {
	return sheet.Codec[User]{
		Sheet: sheet.SheetUsers,
		Key:   "username",
		Decode: func(r sheet.Record) User {
			return User{
				Username:     r.String("username"),
				PasswordHash: r.String("password_hash"),
				Role:         r.String("role"),
			}
		},
		Encode: func(u User) sheet.Record {
			return sheet.Record{"username": u.Username, "password_hash": u.PasswordHash, "role": u.Role}
		},
		KeyOf: func(u User) string { return u.Username },
	}
}

func machineCodec() sheet.Codec[Machine] {
	return sheet.Codec[Machine]{
		Sheet:  sheet.SheetMachines,
		Key:    "machine_id",
		IntKey: true,
		Decode: func(r sheet.Record) Machine {
			status, _ := ParseMachineStatus(r.String("status"))

			return Machine{
				ID:              r.Int("machine_id", badPrimaryID),
				Name:            r.String("machine_name"),
				Area:            r.String("area"),
				X:               r.Int("coord_x", 0),
				Y:               r.Int("coord_y", 0),
				Type:            r.String("machine_type"),
				Status:          status,
				LastMaintenance: parseDate(r.String("last_maintenance")),
				NextMaintenance: parseDate(r.String("next_maintenance")),
			}
		},
		Encode: func(m Machine) sheet.Record {
			return sheet.Record{
				"machine_id":       strconv.Itoa(m.ID),
				"machine_name":     m.Name,
				"area":             m.Area,
				"coord_x":          strconv.Itoa(m.X),
				"coord_y":          strconv.Itoa(m.Y),
				"machine_type":     m.Type,
				"status":           m.Status.String(),
				"last_maintenance": formatDate(m.LastMaintenance),
				"next_maintenance": formatDate(m.NextMaintenance),
			}
		},
		KeyOf:  func(m Machine) string { return strconv.Itoa(m.ID) },
		SetKey: func(m *Machine, id int) { m.ID = id },
	}
}
