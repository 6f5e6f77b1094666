package runtime

import (
	"context"
	"errors"
	"io"
	"os"
)

// ErrRuntimeUnavailable is returned when the container runtime cannot be reached.
var ErrRuntimeUnavailable = errors.New("container runtime unavailable")

// Status is the live state of a named container.
type Status int

const (
	// Absent means no container with the name exists.
	Absent Status = iota
	// Stopped means the container exists but is not running.
	Stopped
	// Running means the container is running.
	Running
)

func (s Status) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Running:
		return "running"
	default:
		return "absent"
	}
}

// Gateway defines the interface for container runtimes.
type Gateway interface {
	// Ping checks that the runtime is reachable.
	Ping(ctx context.Context) error

	// Status queries the live state of a container.
	Status(ctx context.Context, name string) (Status, error)

	// Exists reports whether a container with the name exists.
	Exists(ctx context.Context, name string) (bool, error)

	// Labels returns a container's labels, or an empty map if it does not exist.
	Labels(ctx context.Context, name string) (map[string]string, error)

	// Run starts a container from compiled run arguments, excluding the verb.
	Run(ctx context.Context, args []string, stdio Stdio) (int, error)

	// Build builds an image.
	Build(ctx context.Context, spec BuildSpec, stdio Stdio) (int, error)

	// Pull pulls an image.
	Pull(ctx context.Context, image string) (int, error)

	// Rename renames a container.
	Rename(ctx context.Context, oldName, newName string) error

	// Commit saves a container's filesystem as an image tag.
	Commit(ctx context.Context, name, tag string) error

	// Stop stops a container. A missing container is not an error.
	Stop(ctx context.Context, name string) error

	// Kill kills a container. A missing or stopped container is not an error.
	Kill(ctx context.Context, name string) error

	// Remove removes a container. A missing container is not an error.
	Remove(ctx context.Context, name string, force bool) error

	// Exec runs a command inside a running container.
	Exec(ctx context.Context, name string, cmd []string, opts ExecOptions) (int, error)

	// List lists containers matching the filter.
	List(ctx context.Context, filter ListFilter) ([]Container, error)

	// Binary returns the runtime executable name, e.g. docker.
	Binary() string

	// Mounts returns the mounts that give a container access to the runtime itself.
	Mounts() []string
}

// Stdio is the set of streams relayed to a launched process.
type Stdio struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// ProcessStdio relays the streams of the current process.
func ProcessStdio() Stdio {
	return Stdio{Stdin: os.Stdin, Stdout: os.Stdout, Stderr: os.Stderr}
}

// BuildSpec describes an image build.
type BuildSpec struct {
	Dockerfile string
	Tag        string
	Context    string
	ExtraArgs  []string
}

// Args renders the build as CLI tokens, excluding the verb.
func (b BuildSpec) Args() []string {
	args := []string{"--file", b.Dockerfile, "--tag", b.Tag}
	args = append(args, b.ExtraArgs...)
	return append(args, b.Context)
}

// ExecOptions configures Exec.
type ExecOptions struct {
	Interactive bool
	TTY         bool
	WorkDir     string
	Stdio       Stdio
}

// ListFilter selects containers by label and name substring.
type ListFilter struct {
	Label string
	Name  string
}

// Container is a summary of a container returned by List.
type Container struct {
	Name   string
	Image  string
	Status Status
	Labels map[string]string
}
