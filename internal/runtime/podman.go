package runtime

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
)

// PodmanRuntime implements the Gateway interface for Podman.
type PodmanRuntime struct {
	cli cliDriver
}

// NewPodmanRuntime creates a new Podman runtime.
func NewPodmanRuntime(log logrus.FieldLogger) (*PodmanRuntime, error) {
	return &PodmanRuntime{cli: cliDriver{binary: "podman", log: log}}, nil
}

// Ping checks if Podman is available.
func (r *PodmanRuntime) Ping(ctx context.Context) error {
	if _, code, err := r.cli.output(ctx, "version"); err != nil || code != 0 {
		return fmt.Errorf("%w: Podman not available. Is Podman installed?", ErrRuntimeUnavailable)
	}
	return nil
}

// Status queries the live state of a container.
func (r *PodmanRuntime) Status(ctx context.Context, name string) (Status, error) {
	out, code, err := r.cli.output(ctx, "container", "inspect", "--format", "{{.State.Running}}", name)
	if err != nil {
		return Absent, err
	}
	if code != 0 {
		if isNoSuchContainer(out) {
			return Absent, nil
		}
		return Absent, fmt.Errorf("failed to inspect container %s: %s", name, bytes.TrimSpace(out))
	}
	if strings.TrimSpace(string(out)) == "true" {
		return Running, nil
	}
	return Stopped, nil
}

// Exists reports whether a container exists. `podman container exists`
// exits 1 for a missing container.
func (r *PodmanRuntime) Exists(ctx context.Context, name string) (bool, error) {
	out, code, err := r.cli.output(ctx, "container", "exists", name)
	if err != nil {
		return false, err
	}
	switch code {
	case 0:
		return true, nil
	case 1:
		return false, nil
	default:
		return false, fmt.Errorf("failed to check container %s: %s", name, bytes.TrimSpace(out))
	}
}

// Labels returns a container's labels.
func (r *PodmanRuntime) Labels(ctx context.Context, name string) (map[string]string, error) {
	out, code, err := r.cli.output(ctx, "container", "inspect", "--format", "{{json .Config.Labels}}", name)
	if err != nil {
		return nil, err
	}
	if code != 0 {
		if isNoSuchContainer(out) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("failed to inspect container %s: %s", name, bytes.TrimSpace(out))
	}
	return parseLabels(out)
}

// Run starts a container.
func (r *PodmanRuntime) Run(ctx context.Context, args []string, stdio Stdio) (int, error) {
	return r.cli.run(ctx, args, stdio)
}

// Build builds an image.
func (r *PodmanRuntime) Build(ctx context.Context, spec BuildSpec, stdio Stdio) (int, error) {
	return r.cli.build(ctx, spec, stdio)
}

// Pull pulls a Podman image.
func (r *PodmanRuntime) Pull(ctx context.Context, image string) (int, error) {
	return r.cli.stream(ctx, ProcessStdio(), "pull", image)
}

// Rename renames a container.
func (r *PodmanRuntime) Rename(ctx context.Context, oldName, newName string) error {
	return r.simple(ctx, fmt.Sprintf("rename container %s to %s", oldName, newName), "rename", oldName, newName)
}

// Commit saves a container's filesystem as tag.
func (r *PodmanRuntime) Commit(ctx context.Context, name, tag string) error {
	return r.simple(ctx, fmt.Sprintf("commit container %s as %s", name, tag), "commit", name, tag)
}

// Stop stops a container.
func (r *PodmanRuntime) Stop(ctx context.Context, name string) error {
	return r.simple(ctx, "stop container "+name, "stop", "--ignore", name)
}

// Kill kills a container.
func (r *PodmanRuntime) Kill(ctx context.Context, name string) error {
	out, code, err := r.cli.output(ctx, "kill", name)
	if err != nil {
		return err
	}
	if code != 0 && !isNoSuchContainer(out) && !bytes.Contains(out, []byte("not running")) {
		return fmt.Errorf("failed to kill container %s: %s", name, bytes.TrimSpace(out))
	}
	return nil
}

// Remove removes a container.
func (r *PodmanRuntime) Remove(ctx context.Context, name string, force bool) error {
	args := []string{"rm", "--ignore"}
	if force {
		args = append(args, "--force")
	}
	return r.simple(ctx, "remove container "+name, append(args, name)...)
}

// Exec runs a command in a running container.
func (r *PodmanRuntime) Exec(ctx context.Context, name string, cmd []string, opts ExecOptions) (int, error) {
	return r.cli.exec(ctx, name, cmd, opts)
}

// List lists containers matching filter, stopped ones included.
func (r *PodmanRuntime) List(ctx context.Context, filter ListFilter) ([]Container, error) {
	args := []string{"ps", "--all", "--format", "json"}
	if filter.Label != "" {
		args = append(args, "--filter", "label="+filter.Label)
	}
	if filter.Name != "" {
		args = append(args, "--filter", "name="+filter.Name)
	}

	out, code, err := r.cli.output(ctx, args...)
	if err != nil {
		return nil, err
	}
	if code != 0 {
		return nil, fmt.Errorf("failed to list containers: %s", bytes.TrimSpace(out))
	}
	return parsePodmanList(out)
}

// Binary returns "podman".
func (r *PodmanRuntime) Binary() string {
	return r.cli.binary
}

// Mounts returns the podman client mount.
func (r *PodmanRuntime) Mounts() []string {
	if m, ok := executableMount(r.cli.binary); ok {
		return []string{m}
	}
	return nil
}

func (r *PodmanRuntime) simple(ctx context.Context, what string, args ...string) error {
	out, code, err := r.cli.output(ctx, args...)
	if err != nil {
		return err
	}
	if code != 0 {
		return fmt.Errorf("failed to %s: %s", what, bytes.TrimSpace(out))
	}
	return nil
}

func isNoSuchContainer(out []byte) bool {
	return bytes.Contains(bytes.ToLower(out), []byte("no such container"))
}

func parseLabels(out []byte) (map[string]string, error) {
	labels := map[string]string{}
	trimmed := bytes.TrimSpace(out)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		return labels, nil
	}
	if err := json.Unmarshal(trimmed, &labels); err != nil {
		return nil, fmt.Errorf("failed to decode labels: %w", err)
	}
	return labels, nil
}

type podmanContainer struct {
	Names  []string          `json:"Names"`
	Image  string            `json:"Image"`
	State  string            `json:"State"`
	Labels map[string]string `json:"Labels"`
}

func parsePodmanList(out []byte) ([]Container, error) {
	var entries []podmanContainer
	if trimmed := bytes.TrimSpace(out); len(trimmed) > 0 {
		if err := json.Unmarshal(trimmed, &entries); err != nil {
			return nil, fmt.Errorf("failed to decode container list: %w", err)
		}
	}

	result := make([]Container, 0, len(entries))
	for _, e := range entries {
		name := ""
		if len(e.Names) > 0 {
			name = e.Names[0]
		}
		status := Stopped
		if strings.EqualFold(e.State, "running") {
			status = Running
		}
		result = append(result, Container{Name: name, Image: e.Image, Status: status, Labels: e.Labels})
	}
	return result, nil
}
