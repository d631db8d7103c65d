package main

import (
	"fmt"

	"github.com/kubev2v/transcript-drainer/internal/store"
	"github.com/kubev2v/transcript-drainer/pkg/migrations"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var migrateCmd = &cobra.Command{
	Use:          "migrate",
	Short:        "Migrate the db",
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, done, err := setup()
		defer done()
		if err != nil {
			return err
		}

		db, err := store.InitDB(cfg)
		if err != nil {
			return fmt.Errorf("initializing data store: %w", err)
		}

		s := store.NewStore(db)
		defer s.Close()

		if cfg.Database.Type == "sqlite" {
			if err := s.InitialMigration(); err != nil {
				return fmt.Errorf("running initial migration: %w", err)
			}
			zap.S().Info("db migrated")
			return nil
		}

		if err := migrations.MigrateStore(db, cfg.Service.MigrationFolder); err != nil {
			return fmt.Errorf("running migrations: %w", err)
		}

		version, err := migrations.Version(db)
		if err != nil {
			return err
		}
		zap.S().Infow("db migrated", "version", version)

		return nil
	},
}
