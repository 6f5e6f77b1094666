package config

import (
	"path"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
)

var (
	containerNamePattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_.-]*$`)
	envNamePattern       = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	illegalNameRunes     = regexp.MustCompile(`[^a-zA-Z0-9_.-]`)
)

// Store accumulates the session state produced by evaluating a project file.
// A Store is created per invocation and handed to the compiler once populated.
type Store struct {
	projectRoot string

	containerName     string
	containerHostname string

	image      string
	dockerfile string
	buildTag   string
	source     Source

	workspaceDir string
	volumes      []string

	entrypoint    string
	attachCommand []string
	launchCommand []string

	requiredEnv []string
	optionalEnv []string
	literalEnv  []string

	exposedPorts []string
	labels       []Label

	detach     bool
	privileged bool
	pullLatest bool
	dockInDock bool
	forceTty   bool

	buildArgs    []string
	buildFlags   []string
	buildContext string

	runFlags        []string
	composeFile     string
	startupServices []string
}

// NewStore creates a Store with defaults derived from the project root.
func NewStore(d Defaults) *Store {
	shell := d.Shell
	if shell == "" {
		shell = DefaultShell
	}

	s := &Store{
		projectRoot:   d.ProjectRoot,
		containerName: SanitizeName(filepath.Base(d.ProjectRoot)),
		workspaceDir:  DefaultWorkspaceDir,
		volumes:       slices.Clone(d.Mounts),
		attachCommand: []string{shell},
		labels:        slices.Clone(d.Labels),
		buildContext:  d.ProjectRoot,
	}
	return s
}

// SanitizeName maps an arbitrary identifier onto the runtime's legal container
// name set, replacing every other character with an underscore.
func SanitizeName(id string) string {
	name := illegalNameRunes.ReplaceAllString(id, "_")
	name = strings.TrimLeft(name, "_.-")
	if name == "" {
		return "dock"
	}
	return name
}

// ProjectRoot returns the repository root the store was created for.
func (s *Store) ProjectRoot() string { return s.projectRoot }

// ContainerName returns the name of the container to manage.
func (s *Store) ContainerName() string { return s.containerName }

// SetContainerName sets the container name.
func (s *Store) SetContainerName(name string) error {
	if name == "" {
		return &ValidationError{Primitive: "container_name", Err: ErrEmptyValue}
	}
	if !containerNamePattern.MatchString(name) {
		return invalid("container_name", ErrInvalidValue, "%q contains characters the runtime rejects", name)
	}
	s.containerName = name
	return nil
}

// ContainerHostname returns the hostname override, if any.
func (s *Store) ContainerHostname() string { return s.containerHostname }

// SetContainerHostname sets the hostname of the container.
func (s *Store) SetContainerHostname(hostname string) error {
	if hostname == "" {
		return &ValidationError{Primitive: "container_hostname", Err: ErrEmptyValue}
	}
	s.containerHostname = hostname
	return nil
}

// Image returns the configured image reference.
func (s *Store) Image() string { return s.image }

// SetImage sets the image and makes it the authoritative source.
func (s *Store) SetImage(image string) error {
	s.image = image
	s.source = SourceImage
	return nil
}

// UseImage makes image authoritative without clearing a configured dockerfile.
func (s *Store) UseImage(image string) {
	s.image = image
	s.source = SourceImage
}

// Dockerfile returns the configured dockerfile path.
func (s *Store) Dockerfile() string { return s.dockerfile }

// SetDockerfile sets the dockerfile path and makes it the authoritative source.
// Relative paths are resolved against the project root.
func (s *Store) SetDockerfile(p string) error {
	if p != "" && !filepath.IsAbs(p) {
		p = filepath.Join(s.projectRoot, p)
	}
	s.dockerfile = p
	s.source = SourceDockerfile
	return nil
}

// BuildTag returns the tag a dockerfile build is written to, if overridden.
func (s *Store) BuildTag() string { return s.buildTag }

// SetBuildTag overrides the tag a dockerfile build is written to.
func (s *Store) SetBuildTag(tag string) { s.buildTag = tag }

// Source reports which of image and dockerfile is authoritative.
func (s *Store) Source() Source { return s.source }

// WorkspaceDir returns the in-container working directory.
func (s *Store) WorkspaceDir() string { return s.workspaceDir }

// SetWorkspaceDir sets the in-container directory the project root is mounted at.
func (s *Store) SetWorkspaceDir(dir string) error {
	if dir == "" {
		return &ValidationError{Primitive: "workspace_dir", Err: ErrEmptyValue}
	}
	if !path.IsAbs(dir) {
		return invalid("workspace_dir", ErrInvalidValue, "%q is not an absolute path", dir)
	}
	s.workspaceDir = dir
	return nil
}

// Volumes returns the declared volumes in declaration order.
func (s *Store) Volumes() []string { return slices.Clone(s.volumes) }

// AddVolume appends a host:container[:mode] mount.
func (s *Store) AddVolume(volume string) error {
	if volume == "" {
		return &ValidationError{Primitive: "mount", Err: ErrMissingArgument}
	}
	parts := strings.Split(volume, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return invalid("mount", ErrInvalidValue, "%q is not host:container[:mode]", volume)
	}
	for _, part := range parts {
		if part == "" {
			return invalid("mount", ErrInvalidValue, "%q has an empty component", volume)
		}
	}
	s.volumes = append(s.volumes, volume)
	return nil
}

// Entrypoint returns the entrypoint override, if any.
func (s *Store) Entrypoint() string { return s.entrypoint }

// SetEntrypoint overrides the image entrypoint.
func (s *Store) SetEntrypoint(entrypoint string) error {
	s.entrypoint = entrypoint
	return nil
}

// AttachCommand returns the command used when attaching to a running container.
func (s *Store) AttachCommand() []string { return slices.Clone(s.attachCommand) }

// SetAttachCommand replaces the attach command.
func (s *Store) SetAttachCommand(tokens ...string) error {
	if len(tokens) == 0 {
		return &ValidationError{Primitive: "attach_command", Err: ErrMissingArgument}
	}
	s.attachCommand = slices.Clone(tokens)
	return nil
}

// LaunchCommand returns the command the container is started with.
func (s *Store) LaunchCommand() []string { return slices.Clone(s.launchCommand) }

// SetLaunchCommand replaces the launch command.
func (s *Store) SetLaunchCommand(tokens ...string) error {
	if len(tokens) == 0 {
		return &ValidationError{Primitive: "launch_command", Err: ErrMissingArgument}
	}
	s.launchCommand = slices.Clone(tokens)
	return nil
}

// RequiredEnv returns the names that must be present in the environment.
func (s *Store) RequiredEnv() []string { return slices.Clone(s.requiredEnv) }

// RequireEnv adds names that must be set in the invoking environment.
func (s *Store) RequireEnv(names ...string) error {
	merged, err := addEnvNames("require_env", s.requiredEnv, names)
	if err != nil {
		return err
	}
	s.requiredEnv = merged
	return nil
}

// OptionalEnv returns the names passed through when present.
func (s *Store) OptionalEnv() []string { return slices.Clone(s.optionalEnv) }

// AddOptionalEnv adds names passed through when set in the invoking environment.
func (s *Store) AddOptionalEnv(names ...string) error {
	merged, err := addEnvNames("optional_env", s.optionalEnv, names)
	if err != nil {
		return err
	}
	s.optionalEnv = merged
	return nil
}

func addEnvNames(primitive string, set, names []string) ([]string, error) {
	if len(names) == 0 {
		return nil, &ValidationError{Primitive: primitive, Err: ErrMissingArgument}
	}
	for _, name := range names {
		if !envNamePattern.MatchString(name) {
			return nil, invalid(primitive, ErrInvalidValue, "%q is not a valid environment variable name", name)
		}
	}
	merged := slices.Clone(set)
	for _, name := range names {
		if !slices.Contains(merged, name) {
			merged = append(merged, name)
		}
	}
	return merged, nil
}

// LiteralEnv returns the NAME=value pairs in declaration order.
func (s *Store) LiteralEnv() []string { return slices.Clone(s.literalEnv) }

// AddEnv appends a literal NAME=value pair.
func (s *Store) AddEnv(name, value string) error {
	if !envNamePattern.MatchString(name) {
		return invalid("env", ErrInvalidValue, "%q is not a valid environment variable name", name)
	}
	s.literalEnv = append(s.literalEnv, name+"="+value)
	return nil
}

// ExposedPorts returns the raw port specifications in declaration order.
func (s *Store) ExposedPorts() []string { return slices.Clone(s.exposedPorts) }

// ExposePort appends raw port specifications. They are classified at compile time.
func (s *Store) ExposePort(specs ...string) error {
	if len(specs) == 0 {
		return &ValidationError{Primitive: "expose", Err: ErrMissingArgument}
	}
	for _, spec := range specs {
		if spec == "" {
			return &ValidationError{Primitive: "expose", Err: ErrEmptyValue}
		}
	}
	s.exposedPorts = append(s.exposedPorts, specs...)
	return nil
}

// Labels returns the labels in declaration order, duplicates included.
func (s *Store) Labels() []Label { return slices.Clone(s.labels) }

// AddLabel appends a label. Keys are not deduplicated.
func (s *Store) AddLabel(key, value string) error {
	if key == "" {
		return &ValidationError{Primitive: "label", Err: ErrEmptyValue}
	}
	s.labels = append(s.labels, Label{Key: key, Value: value})
	return nil
}

// Detach reports whether the container runs in the background.
func (s *Store) Detach() bool { return s.detach }

// SetDetach sets whether the container runs in the background.
func (s *Store) SetDetach(v bool) { s.detach = v }

// Privileged reports whether the container runs privileged.
func (s *Store) Privileged() bool { return s.privileged }

// SetPrivileged sets whether the container runs privileged.
func (s *Store) SetPrivileged(v bool) { s.privileged = v }

// PullLatest reports whether the image is pulled before every launch.
func (s *Store) PullLatest() bool { return s.pullLatest }

// SetPullLatest sets whether the image is pulled before every launch.
func (s *Store) SetPullLatest(v bool) { s.pullLatest = v }

// DockInDock reports whether nested dock invocations may create containers.
func (s *Store) DockInDock() bool { return s.dockInDock }

// SetDockInDock sets whether nested dock invocations may create containers.
func (s *Store) SetDockInDock(v bool) { s.dockInDock = v }

// ForceTty reports whether a TTY is allocated even without a terminal.
func (s *Store) ForceTty() bool { return s.forceTty }

// SetForceTty sets whether a TTY is allocated even without a terminal.
func (s *Store) SetForceTty(v bool) { s.forceTty = v }

// BuildArgs returns the --build-arg values.
func (s *Store) BuildArgs() []string { return slices.Clone(s.buildArgs) }

// AddBuildArg appends --build-arg values.
func (s *Store) AddBuildArg(args ...string) error {
	if len(args) == 0 {
		return &ValidationError{Primitive: "build_arg", Err: ErrMissingArgument}
	}
	s.buildArgs = append(s.buildArgs, args...)
	return nil
}

// BuildFlags returns extra tokens passed to the build.
func (s *Store) BuildFlags() []string { return slices.Clone(s.buildFlags) }

// AddBuildFlag appends raw build tokens.
func (s *Store) AddBuildFlag(flags ...string) error {
	if len(flags) == 0 {
		return &ValidationError{Primitive: "build_flag", Err: ErrMissingArgument}
	}
	s.buildFlags = append(s.buildFlags, flags...)
	return nil
}

// BuildContext returns the build context directory.
func (s *Store) BuildContext() string { return s.buildContext }

// SetBuildContext sets the build context. Relative paths are resolved against the project root.
func (s *Store) SetBuildContext(dir string) error {
	if dir == "" {
		return &ValidationError{Primitive: "build_context", Err: ErrEmptyValue}
	}
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(s.projectRoot, dir)
	}
	s.buildContext = dir
	return nil
}

// RunFlags returns extra tokens passed to the run invocation.
func (s *Store) RunFlags() []string { return slices.Clone(s.runFlags) }

// AddRunFlag appends raw run tokens.
func (s *Store) AddRunFlag(flags ...string) error {
	if len(flags) == 0 {
		return &ValidationError{Primitive: "run_flag", Err: ErrMissingArgument}
	}
	s.runFlags = append(s.runFlags, flags...)
	return nil
}

// ComposeFile returns the compose file explicitly set for the project.
func (s *Store) ComposeFile() string { return s.composeFile }

// SetComposeFile sets the project's compose file. Relative paths are resolved against the project root.
func (s *Store) SetComposeFile(p string) error {
	if p == "" {
		return &ValidationError{Primitive: "compose_file", Err: ErrEmptyValue}
	}
	if !filepath.IsAbs(p) {
		p = filepath.Join(s.projectRoot, p)
	}
	s.composeFile = p
	return nil
}

// StartupServices returns the compose services this project starts on terraform.
func (s *Store) StartupServices() []string { return slices.Clone(s.startupServices) }

// AddStartupServices declares compose services to start on terraform.
func (s *Store) AddStartupServices(services ...string) error {
	if len(services) == 0 {
		return &ValidationError{Primitive: "startup_services", Err: ErrMissingArgument}
	}
	for _, svc := range services {
		if svc == "" {
			return &ValidationError{Primitive: "startup_services", Err: ErrEmptyValue}
		}
		if !slices.Contains(s.startupServices, svc) {
			s.startupServices = append(s.startupServices, svc)
		}
	}
	return nil
}
