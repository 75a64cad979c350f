package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/intentguard/intentguard/internal/api"
	"github.com/intentguard/intentguard/internal/config"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "run the HTTP API server",
	Long: `serve exposes POST /api/analyze and GET /api/analysis/{id} (plus the
patterns, feedback, listing, and stats endpoints) over a plain
net/http server. The config file is watched for changes, so updated
provider credentials and sandbox limits apply without a restart.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8420", "listen address")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	watcher, err := config.NewWatcher(resolveConfigPath(), func(cfg *config.Config) {
		a.orc.UpdateConfig(cfg)
		logger.Sugar().Infow("config reloaded", "path", resolveConfigPath())
	})
	if err != nil {
		// A missing or unwatchable config file is not fatal; the server
		// keeps the config bootstrap already loaded.
		logger.Sugar().Warnw("config watch disabled", "error", err)
	} else {
		defer watcher.Close()
	}

	srv := api.New(serveAddr, a.orc, a.store)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	logger.Sugar().Infow("serving", "addr", serveAddr)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		logger.Sugar().Infow("shutting down", "signal", sig.String())
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
}
