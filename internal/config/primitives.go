package config

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// primitive pairs the command and query forms of a configuration statement.
type primitive struct {
	command func(s *Store, args []string) error
	query   func(s *Store) string
}

var primitives = map[string]primitive{
	"image":              single("image", (*Store).SetImage, (*Store).Image),
	"dockerfile":         single("dockerfile", (*Store).SetDockerfile, (*Store).Dockerfile),
	"container_name":     single("container_name", (*Store).SetContainerName, (*Store).ContainerName),
	"container_hostname": single("container_hostname", (*Store).SetContainerHostname, (*Store).ContainerHostname),
	"workspace_dir":      single("workspace_dir", (*Store).SetWorkspaceDir, (*Store).WorkspaceDir),
	"entrypoint":         single("entrypoint", (*Store).SetEntrypoint, (*Store).Entrypoint),
	"build_context":      single("build_context", (*Store).SetBuildContext, (*Store).BuildContext),
	"compose_file":       single("compose_file", (*Store).SetComposeFile, (*Store).ComposeFile),

	"attach_command":   variadic("attach_command", (*Store).SetAttachCommand, (*Store).AttachCommand),
	"launch_command":   variadic("launch_command", (*Store).SetLaunchCommand, (*Store).LaunchCommand),
	"require_env":      variadic("require_env", (*Store).RequireEnv, (*Store).RequiredEnv),
	"optional_env":     variadic("optional_env", (*Store).AddOptionalEnv, (*Store).OptionalEnv),
	"expose":           variadic("expose", (*Store).ExposePort, (*Store).ExposedPorts),
	"build_arg":        variadic("build_arg", (*Store).AddBuildArg, (*Store).BuildArgs),
	"build_flag":       variadic("build_flag", (*Store).AddBuildFlag, (*Store).BuildFlags),
	"run_flag":         variadic("run_flag", (*Store).AddRunFlag, (*Store).RunFlags),
	"startup_services": variadic("startup_services", (*Store).AddStartupServices, (*Store).StartupServices),

	"detach":       flag("detach", (*Store).SetDetach, (*Store).Detach),
	"privileged":   flag("privileged", (*Store).SetPrivileged, (*Store).Privileged),
	"pull_latest":  flag("pull_latest", (*Store).SetPullLatest, (*Store).PullLatest),
	"dock_in_dock": flag("dock_in_dock", (*Store).SetDockInDock, (*Store).DockInDock),
	"force_tty":    flag("force_tty", (*Store).SetForceTty, (*Store).ForceTty),

	"mount": {
		command: func(s *Store, args []string) error {
			if len(args) == 0 {
				return &ValidationError{Primitive: "mount", Err: ErrMissingArgument}
			}
			for _, volume := range args {
				if err := s.AddVolume(expandHostPath(s.projectRoot, volume)); err != nil {
					return err
				}
			}
			return nil
		},
		query: func(s *Store) string { return strings.Join(s.Volumes(), " ") },
	},
	"label": {
		command: func(s *Store, args []string) error {
			key, value, err := pairArgs("label", args)
			if err != nil {
				return err
			}
			return s.AddLabel(key, value)
		},
		query: func(s *Store) string {
			labels := s.Labels()
			rendered := make([]string, 0, len(labels))
			for _, l := range labels {
				rendered = append(rendered, l.String())
			}
			return strings.Join(rendered, " ")
		},
	},
	"env": {
		command: func(s *Store, args []string) error {
			name, value, err := pairArgs("env", args)
			if err != nil {
				return err
			}
			return s.AddEnv(name, value)
		},
		query: func(s *Store) string { return strings.Join(s.LiteralEnv(), " ") },
	},
}

func single(name string, set func(*Store, string) error, get func(*Store) string) primitive {
	return primitive{
		command: func(s *Store, args []string) error {
			switch len(args) {
			case 0:
				return &ValidationError{Primitive: name, Err: ErrMissingArgument}
			case 1:
				return set(s, args[0])
			default:
				return invalid(name, ErrInvalidValue, "takes one argument, got %d", len(args))
			}
		},
		query: get,
	}
}

func variadic(name string, set func(*Store, ...string) error, get func(*Store) []string) primitive {
	return primitive{
		command: func(s *Store, args []string) error {
			if len(args) == 0 {
				return &ValidationError{Primitive: name, Err: ErrMissingArgument}
			}
			return set(s, args...)
		},
		query: func(s *Store) string { return strings.Join(get(s), " ") },
	}
}

func flag(name string, set func(*Store, bool), get func(*Store) bool) primitive {
	return primitive{
		command: func(s *Store, args []string) error {
			if len(args) == 0 {
				return &ValidationError{Primitive: name, Err: ErrMissingArgument}
			}
			if len(args) > 1 {
				return invalid(name, ErrInvalidValue, "takes one argument, got %d", len(args))
			}
			v, err := strconv.ParseBool(args[0])
			if err != nil {
				return invalid(name, ErrInvalidValue, "%q is not a boolean", args[0])
			}
			set(s, v)
			return nil
		},
		query: func(s *Store) string { return strconv.FormatBool(get(s)) },
	}
}

// pairArgs accepts either "key=value" or "key value".
func pairArgs(name string, args []string) (string, string, error) {
	switch len(args) {
	case 0:
		return "", "", &ValidationError{Primitive: name, Err: ErrMissingArgument}
	case 1:
		key, value, ok := strings.Cut(args[0], "=")
		if !ok {
			return "", "", &ValidationError{Primitive: name, Detail: "value for " + args[0], Err: ErrMissingArgument}
		}
		return key, value, nil
	case 2:
		return args[0], args[1], nil
	default:
		return "", "", invalid(name, ErrInvalidValue, "takes key=value or key value, got %d arguments", len(args))
	}
}

// expandHostPath resolves "~" and relative host paths of a mount string.
func expandHostPath(root, volume string) string {
	host, rest, ok := strings.Cut(volume, ":")
	if !ok {
		return volume
	}

	switch {
	case host == "~" || strings.HasPrefix(host, "~/"):
		home, err := os.UserHomeDir()
		if err == nil {
			host = filepath.Join(home, strings.TrimPrefix(host, "~"))
		}
	case host == "." || strings.HasPrefix(host, "./") || strings.HasPrefix(host, "../"):
		host = filepath.Join(root, host)
	}
	return host + ":" + rest
}

// Apply invokes the command form of the named primitive.
func (s *Store) Apply(name string, args ...string) error {
	p, ok := primitives[name]
	if !ok {
		return &ValidationError{Primitive: name, Err: ErrUnknownPrimitive}
	}
	return p.command(s, args)
}

// Query returns the current value of the named primitive.
// List values are joined with single spaces.
func (s *Store) Query(name string) (string, error) {
	p, ok := primitives[name]
	if !ok {
		return "", &ValidationError{Primitive: name, Err: ErrUnknownPrimitive}
	}
	return p.query(s), nil
}

// Primitives returns the names of every known primitive, sorted.
func Primitives() []string {
	names := make([]string, 0, len(primitives))
	for name := range primitives {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
