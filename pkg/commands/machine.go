package commands

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/matt-steen/kanban-sheets/pkg/db"
	"github.com/spf13/cobra"
)

func newMachineCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "machine",
		Short: "Manage the plant map",
	}

	cmd.AddCommand(newMachineAddCmd(app), newMachineListCmd(app), newAreasCmd(app))

	return cmd
}

func newMachineAddCmd(app *App) *cobra.Command {
	var (
		nm     db.NewMachine
		status string
		next   string
	)

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Place a machine on the plant map",
		Args:  cobra.ExactArgs(1),
	}

	cmd.Flags().StringVar(&nm.Area, "area", "", "plant area (see 'machine areas')")
	cmd.Flags().IntVar(&nm.X, "x", 0, "x coordinate, 0-1000")
	cmd.Flags().IntVar(&nm.Y, "y", 0, "y coordinate, 0-1000")
	cmd.Flags().StringVar(&nm.Type, "type", db.MachineTypes()[0], "machine type")
	cmd.Flags().StringVar(&status, "status", "operational", "operational, maintenance or inactive")
	cmd.Flags().StringVar(&next, "next-maintenance", "", "next maintenance date, YYYY-MM-DD")
	_ = cmd.MarkFlagRequired("area")

	cmd.RunE = app.withStore(func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		var err error

		nm.Name = args[0]

		if nm.Status, err = db.ParseMachineStatus(status); err != nil {
			return err
		}

		if nm.NextMaintenance, err = db.ParseDay(next); err != nil {
			return err
		}

		s, err := app.login(ctx)
		if err != nil {
			return err
		}
		defer s.End()

		m, err := s.AddMachine(ctx, nm)
		if err != nil {
			return err
		}

		printDone(app.Out, "added machine #%d %s in %s at %d,%d", m.ID, m.Name, m.Area, m.X, m.Y)

		return nil
	})

	return cmd
}

func newMachineListCmd(app *App) *cobra.Command {
	var area, status string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List machines with their linked tasks",
		Args:  cobra.NoArgs,
	}

	cmd.Flags().StringVar(&area, "area", "", "only machines in this area")
	cmd.Flags().StringVar(&status, "status", "", "only machines with this status")

	cmd.RunE = app.withStore(func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		filter := db.MachineStatusNone

		if status != "" {
			var err error
			if filter, err = db.ParseMachineStatus(status); err != nil {
				return err
			}
		}

		s, err := app.login(ctx)
		if err != nil {
			return err
		}
		defer s.End()

		machines, err := s.DB.ListMachines(ctx)
		if err != nil {
			return err
		}

		views := db.MachineMap(db.FilterMachines(machines, area, filter), s.DB.Board())

		w := tabwriter.NewWriter(app.Out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, strings.Join([]string{"", cyan("ID"), cyan("MACHINE"), cyan("AREA"), cyan("X,Y"), cyan("STATUS"), cyan("TASKS")}, "\t"))

		for _, v := range views {
			tasks := []string{}
			for _, t := range v.Tasks {
				tasks = append(tasks, fmt.Sprintf("#%d", t.ID))
			}

			fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%d,%d\t%s\t%s\n",
				indicatorText(v.Indicator), v.ID, v.Name, v.Area, v.X, v.Y, v.Status, strings.Join(tasks, " "))
		}

		return w.Flush()
	})

	return cmd
}

func newAreasCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "areas",
		Short: "List the plant areas and their bounds",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			w := tabwriter.NewWriter(app.Out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, cyan("AREA")+"\t"+cyan("X")+"\t"+cyan("Y"))

			for _, a := range db.Areas() {
				fmt.Fprintf(w, "%s\t%d-%d\t%d-%d\n", a.Name, a.MinX, a.MaxX, a.MinY, a.MaxY)
			}

			w.Flush()
		},
	}
}
