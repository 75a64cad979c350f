// Package config holds intentguard's configuration, one file per
// concern (llm.go, sandbox.go, execution.go, limits.go, logging.go),
// loaded from YAML with environment-variable overrides.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds all intentguard configuration.
type Config struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	LLM       LLMConfig       `yaml:"llm"`
	Sandbox   SandboxConfig   `yaml:"sandbox"`
	Execution ExecutionConfig `yaml:"execution"`
	Logging   LoggingConfig   `yaml:"logging"`
	Limits    Limits          `yaml:"limits"`
}

// DefaultConfig returns production-safe defaults.
func DefaultConfig() *Config {
	return &Config{
		Name:    "intentguard",
		Version: "0.1.0",

		LLM: LLMConfig{
			PrimaryProvider:  "gemini",
			PrimaryModel:     "gemini-2.5-flash",
			FallbackProvider: "openai-compatible",
			FallbackModel:    "gpt-4o-mini",
			FallbackBaseURL:  "https://api.openai.com/v1",
			Timeout:          "30s",
			MaxRetries:       2,
		},

		Sandbox: SandboxConfig{
			Backend:      BackendSubprocess,
			WallTimeoutS: 10,
			MemoryBytes:  128 * 1024 * 1024,
			Network:      false,
		},

		Execution: ExecutionConfig{
			PhaseABudgetS: 2,
			PhaseBBudgetS: 120,
		},

		Logging: LoggingConfig{
			DebugMode: false,
		},

		Limits: Limits{
			MaxConcurrentAnalyses:            8,
			MaxConcurrentModelCalls:          4,
			MaxOutboundModelCallsPerAnalysis: 4,
		},
	}
}

// Load reads a YAML config file, falling back to defaults for unset
// fields, then applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			applyEnvOverrides(cfg)
			return cfg, nil
		}
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	applyEnvOverrides(cfg)
	return cfg, nil
}

// Save writes cfg as YAML to path.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}
