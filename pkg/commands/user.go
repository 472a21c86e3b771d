package commands

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/matt-steen/kanban-sheets/pkg/db"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newUserCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage users",
	}

	cmd.AddCommand(newUserAddCmd(app), newUserPasswdCmd(app), newUserListCmd(app))

	return cmd
}

func newUserAddCmd(app *App) *cobra.Command {
	var role string

	cmd := &cobra.Command{
		Use:   "add <username>",
		Short: "Create a user",
		Long: `Create a user. An admin must authenticate with --user, except while the users sheet is
empty: the first user can be created without logging in and defaults to the admin role.`,
		Args: cobra.ExactArgs(1),
	}

	cmd.Flags().StringVarP(&role, "role", "r", "collaborator", "admin, supervisor, coordinator or collaborator")

	cmd.RunE = app.withStore(func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		database, err := db.Open(ctx, app.Store, app.DB)
		if err != nil {
			return err
		}

		users, err := database.ListUsers(ctx)
		if err != nil {
			return err
		}

		var user *db.User

		if len(users) == 0 {
			if !cmd.Flags().Changed("role") {
				role = db.RoleAdminPrincipal
			}

			user, err = app.createFirstUser(ctx, database, args[0], role)
		} else {
			user, err = app.createUser(ctx, args[0], role)
		}

		if err != nil {
			return err
		}

		printDone(app.Out, "created user %s (%s)", user.Username, user.Role)

		return nil
	})

	return cmd
}

func (a *App) createFirstUser(ctx context.Context, database *db.Database, username, role string) (*db.User, error) {
	password, confirm, err := a.newPassword()
	if err != nil {
		return nil, err
	}

	log.Warn().Str("username", username).Msg("users sheet is empty; creating the first user without authentication")

	return database.CreateUser(ctx, username, password, confirm, role)
}

func (a *App) createUser(ctx context.Context, username, role string) (*db.User, error) {
	s, err := a.login(ctx)
	if err != nil {
		return nil, err
	}
	defer s.End()

	password, confirm, err := a.newPassword()
	if err != nil {
		return nil, err
	}

	return s.CreateUser(ctx, username, password, confirm, role)
}

func newUserPasswdCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "passwd [username]",
		Short: "Change a password; admins may change anyone's",
		Args:  cobra.MaximumNArgs(1),
		RunE: app.withStore(func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			s, err := app.login(ctx)
			if err != nil {
				return err
			}
			defer s.End()

			username := s.Username()
			if len(args) == 1 {
				username = args[0]
			}

			password, confirm, err := app.newPassword()
			if err != nil {
				return err
			}

			if err := s.ChangePassword(ctx, username, password, confirm); err != nil {
				return err
			}

			printDone(app.Out, "password changed for %s", username)

			return nil
		}),
	}
}

func newUserListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List users and their roles",
		Args:  cobra.NoArgs,
		RunE: app.withStore(func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			s, err := app.adminLogin(ctx, "list users")
			if err != nil {
				return err
			}
			defer s.End()

			users, err := s.DB.ListUsers(ctx)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(app.Out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, cyan("USERNAME")+"\t"+cyan("ROLE"))

			for _, u := range users {
				role := u.Role
				if db.IsAdminRole(role) {
					role = yellow(role)
				}

				fmt.Fprintf(w, "%s\t%s\n", u.Username, role)
			}

			return w.Flush()
		}),
	}
}
