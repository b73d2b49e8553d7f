package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"tableside/internal/config"
	"tableside/internal/connections/database"
)

func NewDBCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Manage the database schema and demo data",
	}
	cmd.AddCommand(
		dbSubcommand(rootOpts, "create", "Create all tables", func(cmd *cobra.Command, db *database.DB) error {
			if err := db.Migrate(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Created all tables")
			return nil
		}),
		dbSubcommand(rootOpts, "drop", "Drop all tables", func(cmd *cobra.Command, db *database.DB) error {
			if err := db.Drop(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Dropped all tables")
			return nil
		}),
		dbSubcommand(rootOpts, "seed", "Insert an admin employee, a table and two products", func(cmd *cobra.Command, db *database.DB) error {
			if err := db.Migrate(cmd.Context()); err != nil {
				return err
			}
			res, err := db.Seed(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Seeded employee %d, table %d, products %v\n", res.EmployeeID, res.TableID, res.ProductIDs)
			return nil
		}),
	)
	return cmd
}

func dbSubcommand(rootOpts *RootOptions, use, short string, run func(*cobra.Command, *database.DB) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(rootOpts.ConfigPath)
			if err != nil {
				return err
			}
			if err := cfg.ValidateDatabase(); err != nil {
				return err
			}
			db, err := database.ConnectDB(cmd.Context(), cfg.Database)
			if err != nil {
				return err
			}
			defer db.Close()
			return run(cmd, db)
		},
	}
}
