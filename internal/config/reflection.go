package config

import "os"

// applyEnvOverrides lets environment variables override file/default
// values, at precedence env > file > default.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("INTENTGUARD_GEMINI_API_KEY"); v != "" {
		cfg.LLM.PrimaryAPIKey = v
	}
	if v := os.Getenv("INTENTGUARD_OPENAI_API_KEY"); v != "" {
		cfg.LLM.FallbackAPIKey = v
	}
	if v := os.Getenv("INTENTGUARD_SANDBOX_BACKEND"); v != "" {
		cfg.Sandbox.Backend = Backend(v)
	}
	if v := os.Getenv("INTENTGUARD_DEBUG"); v == "1" || v == "true" {
		cfg.Logging.DebugMode = true
	}
}
