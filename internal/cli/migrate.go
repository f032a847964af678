package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/quiz-mastro/quizmastro/internal/config"
	"github.com/quiz-mastro/quizmastro/internal/db"
)

func newMigrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(cmd.Context(), *configPath)
		},
	}
}

func runMigrate(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cfg.StoreDriver != "sqlite" && cfg.StoreDriver != "postgres" {
		return fmt.Errorf("store driver %q has no schema to migrate", cfg.StoreDriver)
	}
	openCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	// Open ensures the schema as a side effect; running it is the migration.
	dbh, err := db.Open(openCtx, db.Driver(cfg.StoreDriver), cfg.DBDSN)
	if err != nil {
		return err
	}
	defer dbh.Close()
	fmt.Println("schema up to date")
	return nil
}
