package main

import (
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/jrsteele09/jobboard-auth/internal/config"
	"github.com/jrsteele09/jobboard-auth/internal/store"
)

// NewMigrateCmd creates the migrate subcommand and its up, down and version
// children.
func NewMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage database migrations",
		Long:  `Apply or roll back the embedded PostgreSQL schema migrations.`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: withMigrator(func(cmd *cobra.Command, m *store.Migrator) error {
			if err := m.Up(); err != nil {
				return err
			}
			cmd.Println("Migrations completed successfully")
			return nil
		}),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back all migrations",
		RunE: withMigrator(func(cmd *cobra.Command, m *store.Migrator) error {
			if err := m.Down(); err != nil {
				return err
			}
			cmd.Println("Migrations rolled back")
			return nil
		}),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		RunE: withMigrator(func(cmd *cobra.Command, m *store.Migrator) error {
			version, dirty, err := m.Version()
			if err != nil {
				return err
			}
			cmd.Printf("version %d (dirty: %t)\n", version, dirty)
			return nil
		}),
	})

	return cmd
}

func withMigrator(run func(cmd *cobra.Command, m *store.Migrator) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadStorageConfig(cmd)
		if err != nil {
			return err
		}
		databaseURL, err := requireDatabaseURL(cfg)
		if err != nil {
			return err
		}

		m, err := store.NewMigrator(databaseURL)
		if err != nil {
			return err
		}
		defer func() { _ = m.Close() }()
		return run(cmd, m)
	}
}

func requireDatabaseURL(cfg config.StorageConfig) (string, error) {
	if cfg.GetDatabaseURL() == "" {
		return "", oops.Code("CONFIG_INVALID").Errorf("DATABASE_URL environment variable is required")
	}
	return cfg.GetDatabaseURL(), nil
}
