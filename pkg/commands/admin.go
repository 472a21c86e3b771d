package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/matt-steen/kanban-sheets/pkg/db"
	"github.com/spf13/cobra"
)

func newStatsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show board statistics (admins only)",
		Args:  cobra.NoArgs,
		RunE: app.withStore(func(cmd *cobra.Command, args []string) error {
			s, err := app.login(cmd.Context())
			if err != nil {
				return err
			}
			defer s.End()

			stats, err := s.Stats()
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(app.Out, 0, 0, 2, ' ', 0)

			fmt.Fprintf(w, "%s\t%d\n", cyan("Tasks"), stats.Total)

			for _, st := range db.Statuses() {
				fmt.Fprintf(w, "  %s\t%d\n", st, stats.ByStatus[st])
			}

			fmt.Fprintf(w, "%s\t%d\n", red("Overdue"), stats.Overdue)
			fmt.Fprintf(w, "%s\t%d\n", yellow("Due soon"), stats.DueSoon)

			fmt.Fprintf(w, "\n%s\n", cyan("By priority"))

			for _, p := range append(db.Priorities(), db.PriorityNone) {
				if n := stats.ByPriority[p]; n > 0 || p != db.PriorityNone {
					label := p.String()
					if label == "" {
						label = "-"
					}

					fmt.Fprintf(w, "  %s\t%d\n", label, n)
				}
			}

			fmt.Fprintf(w, "\n%s", cyan("By responsible"))

			for _, st := range db.Statuses() {
				fmt.Fprintf(w, "\t%s", st)
			}

			fmt.Fprintln(w)

			for _, name := range stats.Responsibles() {
				fmt.Fprintf(w, "  %s", name)

				for _, st := range db.Statuses() {
					fmt.Fprintf(w, "\t%d", stats.ByResponsible[name][st])
				}

				fmt.Fprintln(w)
			}

			return w.Flush()
		}),
	}
}

func newExportCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "export [file.xlsx]",
		Short: "Write the task sheets to an Excel workbook (admins only)",
		Args:  cobra.MaximumNArgs(1),
		RunE: app.withStore(func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			path := app.Config.Export.Path
			if len(args) == 1 {
				path = args[0]
			}

			s, err := app.login(ctx)
			if err != nil {
				return err
			}
			defer s.End()

			if dir := filepath.Dir(path); dir != "." {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return err
				}
			}

			f, err := os.Create(path)
			if err != nil {
				return fmt.Errorf("error creating export file: %w", err)
			}
			defer f.Close()

			if err := s.Export(ctx, f); err != nil {
				return err
			}

			printDone(app.Out, "exported %v to %s", db.ExportTabs(), path)

			return nil
		}),
	}
}

func newClearCmd(app *App) *cobra.Command {
	var confirm bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Erase every sheet, users included (admins only)",
		Args:  cobra.NoArgs,
	}

	cmd.Flags().BoolVar(&confirm, "confirm", false, "really erase everything")

	cmd.RunE = app.withStore(func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		s, err := app.login(ctx)
		if err != nil {
			return err
		}
		defer s.End()

		if err := s.ClearAll(ctx, confirm); err != nil {
			return err
		}

		printDone(app.Out, "all sheets cleared")

		return nil
	})

	return cmd
}
