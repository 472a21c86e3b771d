package commands

import (
	"fmt"

	"github.com/matt-steen/kanban-sheets/pkg/config"
	"github.com/spf13/cobra"
)

func newVersionCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(app.Out, "kanban %s (commit %s, built %s)\n", version, commit, date)
		},
	}
}

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the config file",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Write a commented default config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.WriteDefault(app.ConfigPath); err != nil {
				return err
			}

			printDone(app.Out, "wrote %s", app.ConfigPath)

			return nil
		},
	})

	return cmd
}
