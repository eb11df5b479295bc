package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"tasknest/internal/storage"
)

func newMigrateCmd() *cobra.Command {
	var dbPath string
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending SQLite schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := storage.RunMigrations(dbPath); err != nil {
				return err
			}
			version, dirty, err := storage.MigrationVersion(dbPath)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s at schema version %d (dirty=%t)\n", dbPath, version, dirty)
			return nil
		},
	}
	defaultPath := os.Getenv("SQLITE_DB_PATH")
	if defaultPath == "" {
		defaultPath = "./data/tasknest.db"
	}
	cmd.Flags().StringVar(&dbPath, "db", defaultPath, "SQLite database path")
	return cmd
}
