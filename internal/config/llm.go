package config

// LLMConfig configures the Tier-3 reasoner's two providers, tried in
// fallback order.
type LLMConfig struct {
	PrimaryProvider string `yaml:"primary_provider"` // "gemini"
	PrimaryAPIKey   string `yaml:"primary_api_key"`
	PrimaryModel    string `yaml:"primary_model"`

	FallbackProvider string `yaml:"fallback_provider"` // "openai-compatible"
	FallbackAPIKey   string `yaml:"fallback_api_key"`
	FallbackModel    string `yaml:"fallback_model"`
	FallbackBaseURL  string `yaml:"fallback_base_url"`

	Timeout    string `yaml:"timeout"`     // per-call timeout, e.g. "30s"
	MaxRetries int    `yaml:"max_retries"` // attempts per provider
}

// HasCredentials reports whether at least one provider has an API key
// configured. When false, the linguistic layer operates in fallback
// mode for every request.
func (l LLMConfig) HasCredentials() bool {
	return l.PrimaryAPIKey != "" || l.FallbackAPIKey != ""
}
