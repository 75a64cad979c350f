package config

import (
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Name != "intentguard" {
		t.Errorf("expected Name=intentguard, got %s", cfg.Name)
	}
	if cfg.Sandbox.Backend != BackendSubprocess {
		t.Errorf("expected default backend=subprocess, got %s", cfg.Sandbox.Backend)
	}
	if cfg.Limits.MaxOutboundModelCallsPerAnalysis != 4 {
		t.Errorf("expected 4 outbound model calls per analysis, got %d", cfg.Limits.MaxOutboundModelCallsPerAnalysis)
	}
}

func TestConfig_SaveLoad(t *testing.T) {
	t.Setenv("INTENTGUARD_GEMINI_API_KEY", "")
	t.Setenv("INTENTGUARD_OPENAI_API_KEY", "")

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	cfg := DefaultConfig()
	cfg.LLM.PrimaryProvider = "gemini"
	cfg.LLM.PrimaryAPIKey = "test-key"

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.LLM.PrimaryAPIKey != "test-key" {
		t.Errorf("expected PrimaryAPIKey=test-key, got %s", loaded.LLM.PrimaryAPIKey)
	}
}

func TestConfig_EnvOverride(t *testing.T) {
	t.Setenv("INTENTGUARD_GEMINI_API_KEY", "env-key")
	defer t.Setenv("INTENTGUARD_GEMINI_API_KEY", "")

	dir := t.TempDir()
	path := filepath.Join(dir, "missing.yaml")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.LLM.PrimaryAPIKey != "env-key" {
		t.Errorf("expected env override to apply, got %s", cfg.LLM.PrimaryAPIKey)
	}
}

func TestLimits_Validate(t *testing.T) {
	l := DefaultConfig().Limits
	if err := l.Validate(); err != nil {
		t.Fatalf("expected valid defaults, got %v", err)
	}
	l.MaxConcurrentAnalyses = 0
	if err := l.Validate(); err == nil {
		t.Fatal("expected error for MaxConcurrentAnalyses=0")
	}
}
