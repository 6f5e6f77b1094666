package runtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
	"github.com/sirupsen/logrus"
)

const defaultDockerSocket = "/var/run/docker.sock"

// DockerRuntime implements the Gateway interface for Docker. Metadata
// operations go through the Engine API; run, build and exec go through the
// docker client so stdio and terminal handling match a plain docker run.
type DockerRuntime struct {
	client *client.Client
	cli    cliDriver
	out    io.Writer
}

// NewDockerRuntime creates a new Docker runtime.
func NewDockerRuntime(log logrus.FieldLogger) (*DockerRuntime, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("failed to create Docker client: %w", err)
	}

	return &DockerRuntime{
		client: cli,
		cli:    cliDriver{binary: "docker", log: log},
		out:    os.Stderr,
	}, nil
}

// Close releases the Engine API connection.
func (r *DockerRuntime) Close() error {
	return r.client.Close()
}

// Ping checks if Docker daemon is available.
func (r *DockerRuntime) Ping(ctx context.Context) error {
	if _, err := r.client.Ping(ctx); err != nil {
		return fmt.Errorf("%w: Docker daemon not responding. Is Docker running?", ErrRuntimeUnavailable)
	}
	return nil
}

// Status queries the live state of a container.
func (r *DockerRuntime) Status(ctx context.Context, name string) (Status, error) {
	resp, err := r.client.ContainerInspect(ctx, name)
	if err != nil {
		if client.IsErrNotFound(err) {
			return Absent, nil
		}
		return Absent, fmt.Errorf("failed to inspect container %s: %w", name, err)
	}
	if resp.ContainerJSONBase != nil && resp.State != nil && resp.State.Running {
		return Running, nil
	}
	return Stopped, nil
}

// Exists reports whether a container exists.
func (r *DockerRuntime) Exists(ctx context.Context, name string) (bool, error) {
	status, err := r.Status(ctx, name)
	if err != nil {
		return false, err
	}
	return status != Absent, nil
}

// Labels returns a container's labels.
func (r *DockerRuntime) Labels(ctx context.Context, name string) (map[string]string, error) {
	resp, err := r.client.ContainerInspect(ctx, name)
	if err != nil {
		if client.IsErrNotFound(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("failed to inspect container %s: %w", name, err)
	}
	labels := map[string]string{}
	if resp.Config != nil {
		for k, v := range resp.Config.Labels {
			labels[k] = v
		}
	}
	return labels, nil
}

// Run starts a container through the docker client.
func (r *DockerRuntime) Run(ctx context.Context, args []string, stdio Stdio) (int, error) {
	return r.cli.run(ctx, args, stdio)
}

// Build builds an image through the docker client.
func (r *DockerRuntime) Build(ctx context.Context, spec BuildSpec, stdio Stdio) (int, error) {
	return r.cli.build(ctx, spec, stdio)
}

// Pull pulls a Docker image.
func (r *DockerRuntime) Pull(ctx context.Context, imageName string) (int, error) {
	reader, err := r.client.ImagePull(ctx, imageName, image.PullOptions{})
	if err != nil {
		return 1, fmt.Errorf("failed to pull image %s: %w", imageName, err)
	}
	defer reader.Close()

	// Stream the pull output while reading it.
	decoder := json.NewDecoder(reader)
	for {
		var msg map[string]interface{}
		if err := decoder.Decode(&msg); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return 1, fmt.Errorf("failed to decode pull output: %w", err)
		}

		if status, ok := msg["status"].(string); ok {
			if id, ok := msg["id"].(string); ok && id != "" {
				fmt.Fprintf(r.out, "%s: %s\n", id, status)
			} else {
				fmt.Fprintln(r.out, status)
			}
		}

		if errorMsg, ok := msg["error"].(string); ok && errorMsg != "" {
			return 1, fmt.Errorf("pull error: %s", errorMsg)
		}
	}
	return 0, nil
}

// Rename renames a container.
func (r *DockerRuntime) Rename(ctx context.Context, oldName, newName string) error {
	if err := r.client.ContainerRename(ctx, oldName, newName); err != nil {
		return fmt.Errorf("failed to rename container %s to %s: %w", oldName, newName, err)
	}
	return nil
}

// Commit saves a container's filesystem as tag.
func (r *DockerRuntime) Commit(ctx context.Context, name, tag string) error {
	if _, err := r.client.ContainerCommit(ctx, name, container.CommitOptions{Reference: tag}); err != nil {
		return fmt.Errorf("failed to commit container %s as %s: %w", name, tag, err)
	}
	return nil
}

// Stop stops a container.
func (r *DockerRuntime) Stop(ctx context.Context, name string) error {
	if err := r.client.ContainerStop(ctx, name, container.StopOptions{}); err != nil {
		if client.IsErrNotFound(err) {
			return nil
		}
		return fmt.Errorf("failed to stop container %s: %w", name, err)
	}
	return nil
}

// Kill kills a container.
func (r *DockerRuntime) Kill(ctx context.Context, name string) error {
	if err := r.client.ContainerKill(ctx, name, "KILL"); err != nil {
		if client.IsErrNotFound(err) || strings.Contains(err.Error(), "is not running") {
			return nil
		}
		return fmt.Errorf("failed to kill container %s: %w", name, err)
	}
	return nil
}

// Remove removes a container.
func (r *DockerRuntime) Remove(ctx context.Context, name string, force bool) error {
	if err := r.client.ContainerRemove(ctx, name, container.RemoveOptions{Force: force}); err != nil {
		if client.IsErrNotFound(err) || strings.Contains(err.Error(), "is already in progress") {
			return nil
		}
		return fmt.Errorf("failed to remove container %s: %w", name, err)
	}
	return nil
}

// Exec runs a command in a running container through the docker client.
func (r *DockerRuntime) Exec(ctx context.Context, name string, cmd []string, opts ExecOptions) (int, error) {
	return r.cli.exec(ctx, name, cmd, opts)
}

// List lists containers matching filter, stopped ones included.
func (r *DockerRuntime) List(ctx context.Context, filter ListFilter) ([]Container, error) {
	args := filters.NewArgs()
	if filter.Label != "" {
		args.Add("label", filter.Label)
	}
	if filter.Name != "" {
		args.Add("name", filter.Name)
	}

	containers, err := r.client.ContainerList(ctx, container.ListOptions{All: true, Filters: args})
	if err != nil {
		return nil, fmt.Errorf("failed to list containers: %w", err)
	}

	result := make([]Container, 0, len(containers))
	for _, c := range containers {
		name := ""
		if len(c.Names) > 0 {
			name = strings.TrimPrefix(c.Names[0], "/")
		}
		status := Stopped
		if c.State == "running" {
			status = Running
		}
		result = append(result, Container{
			Name:   name,
			Image:  c.Image,
			Status: status,
			Labels: c.Labels,
		})
	}
	return result, nil
}

// Binary returns "docker".
func (r *DockerRuntime) Binary() string {
	return r.cli.binary
}

// Mounts returns the docker client and socket mounts.
func (r *DockerRuntime) Mounts() []string {
	var mounts []string
	if m, ok := executableMount(r.cli.binary); ok {
		mounts = append(mounts, m)
	}
	if socket := dockerSocket(os.Getenv("DOCKER_HOST")); socket != "" {
		mounts = append(mounts, socket+":"+defaultDockerSocket)
	}
	return mounts
}

// dockerSocket returns the host path of the daemon socket, or "" when the
// daemon is reached over the network.
func dockerSocket(host string) string {
	if host == "" {
		return defaultDockerSocket
	}
	if path, ok := strings.CutPrefix(host, "unix://"); ok {
		return path
	}
	return ""
}
