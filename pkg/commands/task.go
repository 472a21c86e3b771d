package commands

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/matt-steen/kanban-sheets/pkg/db"
	"github.com/spf13/cobra"
)

func newTaskCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "List tasks and report progress",
	}

	cmd.AddCommand(newTaskListCmd(app), newTaskAddCmd(app), newTaskProgressCmd(app), newTaskItemCmd(app))

	return cmd
}

func newTaskListCmd(app *App) *cobra.Command {
	var (
		responsible string
		all         bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show the board column by column",
		Args:  cobra.NoArgs,
	}

	cmd.Flags().StringVarP(&responsible, "responsible", "r", "", "only tasks assigned to this user")
	cmd.Flags().BoolVarP(&all, "all", "a", false, "show every task, not just your own")

	cmd.RunE = app.withStore(func(cmd *cobra.Command, args []string) error {
		s, err := app.login(cmd.Context())
		if err != nil {
			return err
		}
		defer s.End()

		filter := responsible

		if filter == "" && !all {
			filter = s.DefaultFilter()
		}

		board := s.DB.Board().FilterByResponsible(filter)
		today := s.DB.Today()

		w := tabwriter.NewWriter(app.Out, 0, 0, 2, ' ', 0)

		for _, col := range board.Columns {
			fmt.Fprintf(w, "%s\n", cyan(fmt.Sprintf("%s (%d)", col.Status, len(col.Tasks))))

			for _, t := range col.Tasks {
				fmt.Fprintf(w, "  #%d\t%s\t%3d%%\t%s\t%s\n",
					t.ID, t.Name, t.Progress, dueText(t, t.DueState(today)), strings.Join(t.Collaborators, ", "))
			}
		}

		return w.Flush()
	})

	return cmd
}

func newTaskAddCmd(app *App) *cobra.Command {
	var (
		nt                      db.NewTask
		priority, shift, status string
		created, start, due     string
		collaborators, links    []string
	)

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Create a task (admins only)",
		Args:  cobra.ExactArgs(1),
	}

	cmd.Flags().StringVarP(&nt.Description, "description", "d", "", "what needs doing")
	cmd.Flags().StringVarP(&priority, "priority", "p", "medium", "high, medium or low")
	cmd.Flags().StringVar(&shift, "shift", "1st", "1st, 2nd or 3rd")
	cmd.Flags().StringVar(&status, "status", "todo", "todo or in_progress")
	cmd.Flags().StringVar(&created, "created", "", "creation date, YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&start, "start", "", "start date, YYYY-MM-DD")
	cmd.Flags().StringVar(&due, "due", "", "due date, YYYY-MM-DD")
	cmd.Flags().StringSliceVarP(&collaborators, "responsible", "r", nil, "assigned users, repeat or separate with commas")
	cmd.Flags().StringArrayVarP(&nt.Items, "item", "i", nil, "checklist item, repeatable")
	cmd.Flags().StringArrayVar(&links, "link", nil, "document link, repeatable")

	cmd.RunE = app.withStore(func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		var err error

		nt.Name = args[0]
		nt.Links = strings.Join(links, "\n")

		if nt.Priority, err = db.ParsePriority(priority); err != nil {
			return err
		}

		if nt.Shift, err = db.ParseShift(shift); err != nil {
			return err
		}

		initial, err := db.ParseStatus(status)
		if err != nil {
			return err
		}

		if nt.Date, err = db.ParseDay(created); err != nil {
			return err
		}

		if nt.StartDate, err = db.ParseDay(start); err != nil {
			return err
		}

		if nt.DueDate, err = db.ParseDay(due); err != nil {
			return err
		}

		s, err := app.login(ctx)
		if err != nil {
			return err
		}
		defer s.End()

		t, err := s.CreateTask(ctx, nt, initial, collaborators)
		if err != nil {
			return err
		}

		printDone(app.Out, "created task #%d %s", t.ID, t.Name)

		return nil
	})

	return cmd
}

func newTaskProgressCmd(app *App) *cobra.Command {
	var (
		report db.ProgressReport
		photo  string
	)

	cmd := &cobra.Command{
		Use:   "progress <task-id>",
		Short: "Report progress on a task you work on",
		Args:  cobra.ExactArgs(1),
	}

	cmd.Flags().IntVarP(&report.Progress, "value", "v", 0, "progress, 0-100")
	cmd.Flags().StringVarP(&report.Comment, "comment", "m", "", "comment")
	cmd.Flags().StringVar(&photo, "photo", "", "photo to attach as evidence")
	cmd.Flags().BoolVar(&report.Complete, "complete", false, "mark the task done at 100%")

	cmd.RunE = app.withStore(func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		id, err := parseID("task", args[0])
		if err != nil {
			return err
		}

		if !report.Complete && !cmd.Flags().Changed("value") {
			return fmt.Errorf("%w: give --value or --complete", db.ErrInvalidInput)
		}

		if report.Image, err = app.loadPhoto(photo); err != nil {
			return err
		}

		s, err := app.login(ctx)
		if err != nil {
			return err
		}
		defer s.End()

		if err := s.RecordProgress(ctx, id, report); err != nil {
			return err
		}

		t := s.DB.Board().Task(id)
		printDone(app.Out, "task #%d %s is %s at %d%%", t.ID, t.Name, t.Status, t.Progress)

		return nil
	})

	return cmd
}

func newTaskItemCmd(app *App) *cobra.Command {
	var (
		progress       int
		comment, photo string
	)

	cmd := &cobra.Command{
		Use:   "item <task-id> <item-id>",
		Short: "Report progress on a checklist item",
		Args:  cobra.ExactArgs(2),
	}

	cmd.Flags().IntVarP(&progress, "value", "v", 0, "progress, 0-100")
	cmd.Flags().StringVarP(&comment, "comment", "m", "", "comment")
	cmd.Flags().StringVar(&photo, "photo", "", "photo to attach as evidence")
	_ = cmd.MarkFlagRequired("value")

	cmd.RunE = app.withStore(func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		taskID, err := parseID("task", args[0])
		if err != nil {
			return err
		}

		itemID, err := parseID("item", args[1])
		if err != nil {
			return err
		}

		image, err := app.loadPhoto(photo)
		if err != nil {
			return err
		}

		s, err := app.login(ctx)
		if err != nil {
			return err
		}
		defer s.End()

		if err := s.RecordItemProgress(ctx, taskID, itemID, progress, comment, image); err != nil {
			return err
		}

		t := s.DB.Board().Task(taskID)
		printDone(app.Out, "task #%d %s is at %d%%", t.ID, t.Name, t.Progress)

		return nil
	})

	return cmd
}
