package commands

import (
	"github.com/matt-steen/kanban-sheets/pkg/controller"
	"github.com/matt-steen/kanban-sheets/pkg/evidence"
	"github.com/spf13/cobra"
)

func newBoardCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "board",
		Short: "Open the interactive board (default)",
		Args:  cobra.NoArgs,
		RunE:  app.withStore(app.runBoard),
	}
}

func (a *App) runBoard(cmd *cobra.Command, args []string) error {
	images := evidence.NewProcessor(a.Config.Images.MaxWidth, a.Config.Images.MaxHeight, a.Config.Images.Quality)

	c, err := controller.NewController(cmd.Context(), a.Store, controller.Options{
		DB:         a.DB,
		Images:     images,
		ExportPath: a.Config.Export.Path,
	})
	if err != nil {
		return err
	}

	return c.Go()
}
