package main

import (
	"github.com/spf13/cobra"

	"github.com/jrsteele09/jobboard-auth/server"
	"github.com/jrsteele09/jobboard-auth/users"
)

// NewSeedCmd creates the seed subcommand.
func NewSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Seed permissions, roles and the initial identities",
		Long: `Create the permission catalog, the admin and default roles and the
initial admin identity in the configured database. Existing data is left alone.`,
		RunE: runSeed,
	}
}

func runSeed(cmd *cobra.Command, _ []string) error {
	cfg, err := loadStorageConfig(cmd)
	if err != nil {
		return err
	}
	if _, err := requireDatabaseURL(cfg); err != nil {
		return err
	}

	d, err := openRepos(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer d.Close()

	generated, err := server.InitialiseSystem(cmd.Context(), d.repos, users.NewBcryptHasher(cfg.GetBcryptCost()), cfg)
	if err != nil {
		return err
	}
	if generated != "" {
		cmd.Printf("Seeded %s with password: %s\n", server.DefaultAdminEmail, generated)
	}
	cmd.Println("Seed completed")
	return nil
}
