package config

// Backend selects the sandbox executor's isolation policy.
type Backend string

const (
	BackendContainer  Backend = "container"
	BackendSubprocess Backend = "subprocess"
	BackendDisabled   Backend = "disabled"
)

// SandboxConfig configures the sandbox executor.
type SandboxConfig struct {
	Backend      Backend `yaml:"backend"`
	WallTimeoutS int     `yaml:"wall_timeout_s"`
	MemoryBytes  int64   `yaml:"memory_bytes"`
	Network      bool    `yaml:"network"`

	// ContainerImage is the base image used by the container back-end.
	ContainerImage string `yaml:"container_image"`
}
