package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/redmonkez12/eventhub-auth/internal/config"
	"github.com/redmonkez12/eventhub-auth/internal/database"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the database schema",
		Long:  "Create the users table in the database selected by DB_DRIVER. Safe to run more than once.",
		RunE:  runMigrate,
	}
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if cfg.Database.Driver == config.DriverMemory {
		cmd.Println("DB_DRIVER=memory has no schema, nothing to do")
		return nil
	}

	db, err := database.Open(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	cmd.Println("Running migrations...")
	if err := database.Migrate(cmd.Context(), db); err != nil {
		return err
	}

	cmd.Println("Migrations completed successfully")
	return nil
}
