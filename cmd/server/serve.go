package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/jrsteele09/jobboard-auth/auth"
	"github.com/jrsteele09/jobboard-auth/metrics"
	"github.com/jrsteele09/jobboard-auth/server"
	"github.com/jrsteele09/jobboard-auth/token"
	"github.com/jrsteele09/jobboard-auth/users"
)

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Bytes("stack", debug.Stack()).Msg("Recovered from panic")
			returnError = errors.New("panic recovered")
		}
	}()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	displayAppname(cfg.GetAppName())

	ctx := cmd.Context()

	d, err := openDeps(ctx, cfg)
	if err != nil {
		return err
	}
	defer d.Close()

	codec, err := token.NewCodec(cfg)
	if err != nil {
		return err
	}
	hasher := users.NewBcryptHasher(cfg.GetBcryptCost())

	if cfg.GetSeedOnStart() || d.inMemory {
		generated, err := server.InitialiseSystem(ctx, d.repos, hasher, cfg)
		if err != nil {
			return err
		}
		if generated != "" {
			fmt.Printf("Seeded %s with password: %s\n", server.DefaultAdminEmail, generated)
		}
	}

	service := auth.NewAuthService(d.repos, codec, hasher, cfg)
	httpServer := &http.Server{
		Addr:              cfg.GetPort(),
		Handler:           server.New(cfg, service, d.limiter, metrics.New()),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- listenAndServe(httpServer)
	}()

	select {
	case err := <-errCh:
		return err
	case <-waitForStopSignal():
	}
	return shutdown(httpServer)
}

func listenAndServe(server *http.Server) error {
	log.Info().Str("addr", server.Addr).Msg("Server listening")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func waitForStopSignal() <-chan os.Signal {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	return stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	log.Info().Msg("Server stopped")
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
