package config

// LoggingConfig toggles the category file logger (internal/logging).
type LoggingConfig struct {
	DebugMode bool   `yaml:"debug_mode"`
	Level     string `yaml:"level"` // debug, info, warn, error
}
