package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"hunt-event-service/internal/config"
	"hunt-event-service/internal/logging"
)

// NewSeedCmd imports a question catalog into the configured database.
func NewSeedCmd(configPath *string) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Import a YAML question catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd.Context(), *configPath, file)
		},
	}
	cmd.Flags().StringVar(&file, "file", "config/questions.yaml", "catalog file to import")
	return cmd
}

func runSeed(ctx context.Context, configPath, file string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cfg.Database.Driver == config.DriverMemory {
		return fmt.Errorf("seeding the in-memory store has no lasting effect; set game.catalog_file instead")
	}
	log := logging.New(serviceName, cfg.Log.Level)

	b, err := openBackend(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer b.Close()
	return importCatalog(ctx, cfg, b, file, log)
}
