package cli

import (
	"fmt"
	"strconv"

	"github.com/robostorm/robostorm/internal/adapters/postgres"
	"github.com/robostorm/robostorm/internal/config"
	"github.com/spf13/cobra"
)

// NewMigrateCommand creates the migrate command and its subcommands.
func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the PostgreSQL schema",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withPostgres(cmd, rootOpts, func(pg *postgres.Store) error {
				applied, err := pg.MigrateUp()
				if err != nil {
					return err
				}
				if applied {
					fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
				} else {
					fmt.Fprintln(cmd.OutOrStdout(), "no change")
				}
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "down [steps]",
		Short: "Roll back migrations (default 1 step)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			steps := 1
			if len(args) == 1 {
				n, err := strconv.Atoi(args[0])
				if err != nil || n < 1 {
					return fmt.Errorf("steps must be a positive integer, got %q", args[0])
				}
				steps = n
			}
			return withPostgres(cmd, rootOpts, func(pg *postgres.Store) error {
				if err := pg.MigrateDown(steps); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "rolled back %d step(s)\n", steps)
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withPostgres(cmd, rootOpts, func(pg *postgres.Store) error {
				v, dirty, err := pg.MigrationVersion()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "version %d (dirty: %t)\n", v, dirty)
				return nil
			})
		},
	})

	return cmd
}

// withPostgres opens the configured PostgreSQL store for the duration of fn.
func withPostgres(cmd *cobra.Command, rootOpts *RootOptions, fn func(*postgres.Store) error) error {
	cfg := rootOpts.Config()
	if cfg.Store != config.StorePostgres {
		return ErrPostgresRequired
	}
	pg, err := postgres.Open(cmd.Context(), cfg.DatabaseDSN)
	if err != nil {
		return err
	}
	defer pg.Close()
	return fn(pg)
}
