package config

// GlobalConfig represents the global dock configuration.
type GlobalConfig struct {
	Runtime    string `mapstructure:"runtime" yaml:"runtime"`         // docker or podman
	LogLevel   string `mapstructure:"log_level" yaml:"log_level"`     // debug, info, warn or error
	LogFormat  string `mapstructure:"log_format" yaml:"log_format"`   // text or json
	Shell      string `mapstructure:"shell" yaml:"shell"`             // Default attach command
	DetachKeys string `mapstructure:"detach_keys" yaml:"detach_keys"` // Key sequence that detaches from a container
	ConfigName string `mapstructure:"config_name" yaml:"config_name"` // Project config file name at the repository root
}

// Defaults seeds a new Store with values that do not come from the project file.
type Defaults struct {
	ProjectRoot string   // Absolute path of the repository root
	Shell       string   // Default attach command
	Mounts      []string // Mounts every container receives, e.g. the runtime executable
	Labels      []Label  // Labels every container receives
}

// Label is a single key=value container label.
type Label struct {
	Key   string
	Value string
}

// String renders the label as key=value.
func (l Label) String() string {
	return l.Key + "=" + l.Value
}

// Source identifies which image source is authoritative at compile time.
type Source int

const (
	// SourceNone means neither an image nor a dockerfile has been set.
	SourceNone Source = iota
	// SourceImage means the image is pulled or used as is.
	SourceImage
	// SourceDockerfile means the image is built from a dockerfile.
	SourceDockerfile
)

const (
	// DefaultWorkspaceDir is where the project root is mounted.
	DefaultWorkspaceDir = "/workspace"
	// DefaultShell is used as the attach command when nothing else is configured.
	DefaultShell = "sh"
	// DefaultDetachKeys is the sequence passed to --detach-keys.
	DefaultDetachKeys = "ctrl-q,ctrl-q"
	// DefaultConfigName is the project config file name.
	DefaultConfigName = ".dock"
)
