package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/skorokithakis/dock/internal/versioning"
)

// LabelManaged marks every container created by dock.
const LabelManaged = "io.dock.managed"

var composeCandidates = []string{"compose.yaml", "compose.yml", "docker-compose.yml", "docker-compose.yaml"}

// Loader handles configuration loading.
type Loader struct {
	configHome string
	env        Environ
	log        logrus.FieldLogger
}

// NewLoader creates a new configuration loader.
func NewLoader() *Loader {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, _ := os.UserHomeDir()
		configHome = filepath.Join(home, ".config")
	}
	return &Loader{
		configHome: configHome,
		env:        OSEnviron,
		log:        logrus.StandardLogger(),
	}
}

// WithEnviron replaces the environment used for $VAR expansion.
func (l *Loader) WithEnviron(env Environ) *Loader {
	l.env = env
	return l
}

// WithLogger replaces the logger used while evaluating project files.
func (l *Loader) WithLogger(log logrus.FieldLogger) *Loader {
	l.log = log
	return l
}

// GlobalConfigPath returns the global config file location.
func (l *Loader) GlobalConfigPath() string {
	return filepath.Join(l.configHome, "dock", "config.yaml")
}

// LoadGlobalConfig loads the global dock configuration.
func (l *Loader) LoadGlobalConfig() (*GlobalConfig, error) {
	globalViper := viper.New()
	globalViper.SetConfigFile(l.GlobalConfigPath())
	globalViper.SetEnvPrefix("dock")
	globalViper.AutomaticEnv()
	globalViper.SetDefault("runtime", "docker")
	globalViper.SetDefault("log_level", "info")
	globalViper.SetDefault("log_format", "text")
	globalViper.SetDefault("shell", DefaultShell)
	globalViper.SetDefault("detach_keys", DefaultDetachKeys)
	globalViper.SetDefault("config_name", DefaultConfigName)

	if err := globalViper.ReadInConfig(); err != nil {
		// A missing global config just means defaults.
		if !errors.Is(err, os.ErrNotExist) {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("failed to read global config: %w", err)
			}
		}
	}

	config := &GlobalConfig{}
	if err := globalViper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal global config: %w", err)
	}

	return config, nil
}

// ProjectOptions selects the project config to load.
type ProjectOptions struct {
	Dir        string // Directory the search starts from, usually the working directory
	ConfigPath string // Explicit config file; missing is fatal when set
	ConfigName string // File name looked up at the project root
	Defaults   Defaults
}

// Project is an evaluated project configuration.
type Project struct {
	Name        string
	Root        string
	ConfigPath  string // Empty when the project has no config file
	ComposePath string // Empty when the project has no compose file
	Store       *Store
}

// LoadProject locates the project root, evaluates the project file and
// returns the populated store.
func (l *Loader) LoadProject(opts ProjectOptions) (*Project, error) {
	dir := opts.Dir
	if dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		dir = cwd
	}

	root, err := FindProjectRoot(dir)
	if err != nil {
		return nil, err
	}

	configPath, err := l.resolveConfigPath(root, opts)
	if err != nil {
		return nil, err
	}

	defaults := opts.Defaults
	defaults.ProjectRoot = root
	defaults.Labels = append(slices.Clone(defaults.Labels), Label{Key: LabelManaged, Value: "true"})
	if configPath != "" {
		hash, err := versioning.CalculateFileHash(configPath)
		if err != nil {
			return nil, err
		}
		defaults.Labels = append(defaults.Labels, Label{Key: versioning.LabelConfigHash, Value: hash})
	}

	store := NewStore(defaults)
	if configPath != "" {
		if err := l.evaluateFile(store, configPath); err != nil {
			return nil, err
		}
	}

	if store.Source() == SourceNone {
		dockerfile := filepath.Join(root, "Dockerfile")
		if _, err := os.Stat(dockerfile); err == nil {
			l.log.Debugf("Using %s as the build source", dockerfile)
			_ = store.SetDockerfile(dockerfile)
		}
	}

	return &Project{
		Name:        SanitizeName(filepath.Base(root)),
		Root:        root,
		ConfigPath:  configPath,
		ComposePath: findComposeFile(store),
		Store:       store,
	}, nil
}

func (l *Loader) resolveConfigPath(root string, opts ProjectOptions) (string, error) {
	if opts.ConfigPath != "" {
		p, err := filepath.Abs(opts.ConfigPath)
		if err != nil {
			return "", fmt.Errorf("failed to resolve %s: %w", opts.ConfigPath, err)
		}
		if _, err := os.Stat(p); err != nil {
			return "", fmt.Errorf("%w: %s", ErrConfigNotFound, p)
		}
		return p, nil
	}

	name := opts.ConfigName
	if name == "" {
		name = DefaultConfigName
	}
	p := filepath.Join(root, name)
	info, err := os.Stat(p)
	if err != nil || info.IsDir() {
		l.log.Debugf("No %s at %s, using defaults", name, root)
		return "", nil
	}
	return p, nil
}

func (l *Loader) evaluateFile(store *Store, configPath string) error {
	f, err := os.Open(configPath)
	if err != nil {
		return fmt.Errorf("failed to open config: %w", err)
	}
	defer f.Close()

	statements, err := Parse(f, l.env)
	if err != nil {
		return fmt.Errorf("%s: %w", configPath, err)
	}
	return Evaluate(store, configPath, statements, l.log)
}

// FindProjectRoot walks up from dir to the nearest directory containing .git.
// Without one, dir itself is the root.
func FindProjectRoot(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", dir, err)
	}

	for current := abs; ; {
		if _, err := os.Stat(filepath.Join(current, ".git")); err == nil {
			return current, nil
		}
		parent := filepath.Dir(current)
		if parent == current {
			return abs, nil
		}
		current = parent
	}
}

func findComposeFile(store *Store) string {
	if p := store.ComposeFile(); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
		return ""
	}
	for _, name := range composeCandidates {
		p := filepath.Join(store.ProjectRoot(), name)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
