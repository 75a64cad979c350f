package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/intentguard/intentguard/internal/config"
	"github.com/intentguard/intentguard/internal/linguistic/reasoner"
	"github.com/intentguard/intentguard/internal/orchestrator"
	"github.com/intentguard/intentguard/internal/store"
)

// app bundles the pieces every subcommand needs once config is loaded
// and the pipeline is wired together.
type app struct {
	cfg   *config.Config
	store *store.Store
	orc   *orchestrator.Orchestrator
}

// resolveConfigPath applies the --config flag, falling back to
// <workspace>/.intentguard/config.yaml.
func resolveConfigPath() string {
	if configFile != "" {
		return configFile
	}
	return filepath.Join(workspace, ".intentguard", "config.yaml")
}

// bootstrap loads config, opens the store, builds the Tier-3
// reasoner, and wires the orchestrator, the same sequence every
// subcommand that touches the pipeline needs.
func bootstrap(ctx context.Context) (*app, error) {
	cfg, err := config.Load(resolveConfigPath())
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	dbPath := filepath.Join(workspace, ".intentguard", "intentguard.db")
	st, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	rsn, err := reasoner.New(ctx, cfg.LLM)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("build reasoner: %w", err)
	}
	if !cfg.LLM.HasCredentials() {
		logIfLogger("no linguistic-layer model credentials configured; every analysis will use fallback verdicts")
	}

	orc := orchestrator.New(cfg, st, rsn)
	return &app{cfg: cfg, store: st, orc: orc}, nil
}

func (a *app) Close() error {
	return a.store.Close()
}

func logIfLogger(msg string) {
	if logger != nil {
		logger.Sugar().Warn(msg)
	}
}
