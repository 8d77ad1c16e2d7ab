package main

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/kaizencycle/mobius-browser-shell/internal/db"
	"github.com/kaizencycle/mobius-browser-shell/internal/integrity"
	"github.com/kaizencycle/mobius-browser-shell/internal/models"
)

func newMigrateCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			url := db.MigrateURL(c.settings().DatabaseURL)
			log := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), nil))
			if err := db.Migrate(url, log); err != nil {
				return err
			}
			version, dirty, err := db.Version(url)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema at version %d (dirty=%t)\n", version, dirty)
			return nil
		},
	}
}

func newGIICmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gii",
		Short: "Inspect or override the Global Integrity Index",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "get",
		Short: "Show the current index and circuit breaker state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withEnv(cmd, func(ctx context.Context, e *env) error {
				st, err := e.ledger.Status(ctx)
				if err != nil {
					return err
				}
				return c.printer(cmd).status(st)
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "set <value>",
		Short: "Record a manual index snapshot in [0, 1]",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return fmt.Errorf("value %q is not a number", args[0])
			}
			if err := integrity.Validate(value); err != nil {
				return err
			}
			return c.withEnv(cmd, func(ctx context.Context, e *env) error {
				snap, err := e.snapshots.Record(ctx, value, integrity.SourceManual)
				if err != nil {
					return err
				}
				return c.printer(cmd).snapshot(snap)
			})
		},
	})
	return cmd
}

func newUserCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage users",
	}
	var role string
	promote := &cobra.Command{
		Use:   "promote <email>",
		Short: "Change a user's role (admin by default)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if role != models.RoleAdmin && role != models.RoleLearner {
				return fmt.Errorf("unknown role %q", role)
			}
			return c.withEnv(cmd, func(ctx context.Context, e *env) error {
				u, err := e.users.SetRole(ctx, args[0], role)
				if err != nil {
					return err
				}
				return c.printer(cmd).user(u)
			})
		},
	}
	promote.Flags().StringVar(&role, "role", models.RoleAdmin, "role to assign: admin or learner")
	cmd.AddCommand(promote)
	return cmd
}
