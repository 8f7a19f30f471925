package main

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/jrsteele09/jobboard-auth/internal/config"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the jobboard-auth CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobboard-auth",
		Short: "Authentication and session service for the job platform",
		Long: `jobboard-auth verifies credentials, issues access and refresh tokens,
rotates sessions and resolves role permissions for the job platform API.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (YAML)")
	config.RegisterFlags(cmd.PersistentFlags())

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewSeedCmd())

	return cmd
}

// loadConfig reads and validates the configuration for cmd and configures the
// global logger.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return nil, err
	}
	setupLogger(cfg)
	return cfg, nil
}

// loadStorageConfig is loadConfig without validation, for commands that only
// touch the database.
func loadStorageConfig(cmd *cobra.Command) (config.Config, error) {
	v, err := config.Read(configFile, cmd.Flags())
	if err != nil {
		return nil, err
	}
	cfg := config.New(v)
	setupLogger(cfg)
	return cfg, nil
}

func setupLogger(cfg config.EnvConfig) {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.GetLogLevel()))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.IsProduction() {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Str("app", cfg.GetAppName()).Logger()
		return
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
}
