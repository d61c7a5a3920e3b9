package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newMigrateCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := ctx.openDatabase(true)
			if err != nil {
				return err
			}
			defer db.Close()
			return printVersion(cmd, db.Version)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := ctx.openDatabase(false)
			if err != nil {
				return err
			}
			defer db.Close()
			if err := db.MigrateDown(); err != nil {
				return err
			}
			return printVersion(cmd, db.Version)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show the current schema version",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := ctx.openDatabase(false)
			if err != nil {
				return err
			}
			defer db.Close()
			return printVersion(cmd, db.Version)
		},
	})

	return cmd
}

func printVersion(cmd *cobra.Command, version func() (int64, error)) error {
	v, err := version()
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "schema version: %d\n", v)
	return nil
}
