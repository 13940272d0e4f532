package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"hunt-event-service/internal/config"
	"hunt-event-service/internal/infra/sqlstore"
	"hunt-event-service/internal/infra/sqlstore/migrations"
	"hunt-event-service/internal/logging"
)

// NewMigrateCmd applies database migrations.
func NewMigrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrations(cmd.Context(), *configPath)
		},
	}
}

func runMigrations(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	return runMigrationsWithConfig(ctx, cfg)
}

func runMigrationsWithConfig(ctx context.Context, cfg config.Config) error {
	if cfg.Database.Driver == config.DriverMemory {
		return fmt.Errorf("migrations need a sql database, got driver %q", cfg.Database.Driver)
	}
	log := logging.New(serviceName, cfg.Log.Level)

	db, err := sqlstore.Open(cfg.Database.Driver, cfg.Database.URL)
	if err != nil {
		return err
	}
	defer db.Close()

	group, err := migrations.Apply(ctx, db)
	if err != nil {
		return err
	}
	if group.IsZero() {
		log.Info("no new migrations")
		return nil
	}
	log.WithField("group", group.String()).Info("migrations applied")
	return nil
}
