// Package terraform recomposes the services of every project merged into a
// shared container.
package terraform

import (
	"context"
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/skorokithakis/dock/internal/config"
	"github.com/skorokithakis/dock/internal/labels"
	"github.com/skorokithakis/dock/internal/lifecycle"
	"github.com/skorokithakis/dock/internal/runtime"
)

// Workspace is the directory inside the shared container holding the
// normalized compose files. It is recreated on every run.
const Workspace = "/tmp/dock-terraform"

// composeProjectLabel is set by compose on every container it creates.
const composeProjectLabel = "com.docker.compose.project"

// ErrNotRunning is returned when the shared container is not running.
var ErrNotRunning = errors.New("shared container is not running")

// Plan reports what a terraform run did.
type Plan struct {
	Name string
	// Cached holds the normalized compose file of each project, sorted by project.
	Cached []string
	// Services holds the services that were started.
	Services []string
}

// Options configures a Coordinator.
type Options struct {
	Stdio runtime.Stdio
	Log   logrus.FieldLogger
}

// Coordinator runs terraform against shared containers.
type Coordinator struct {
	rt    runtime.Gateway
	stdio runtime.Stdio
	log   logrus.FieldLogger
}

// New creates a Coordinator.
func New(rt runtime.Gateway, opts Options) *Coordinator {
	c := &Coordinator{rt: rt, stdio: opts.Stdio, log: opts.Log}
	if c.stdio == (runtime.Stdio{}) {
		c.stdio = runtime.ProcessStdio()
	}
	if c.log == nil {
		c.log = logrus.StandardLogger()
	}
	return c
}

// Terraform normalizes every merged project's compose file inside the shared
// container, removes the containers running in it and starts the merged
// composition restricted to the recorded startup services.
func (c *Coordinator) Terraform(ctx context.Context, sharedID string) (*Plan, error) {
	name := config.SanitizeName(sharedID)

	status, err := c.rt.Status(ctx, name)
	if err != nil {
		return nil, err
	}
	if status != runtime.Running {
		return nil, fmt.Errorf("%w: %s is %s", ErrNotRunning, name, status)
	}

	current, err := c.rt.Labels(ctx, name)
	if err != nil {
		return nil, err
	}
	files := labels.ComposeFiles(current)
	projects := make([]string, 0, len(files))
	for project := range files {
		projects = append(projects, project)
	}
	sort.Strings(projects)

	plan := &Plan{Name: name, Services: labels.ParseSet(current[labels.StartupServices])}
	binary := c.rt.Binary()

	if err := c.exec(ctx, name, "reset workspace", "rm", "-rf", Workspace); err != nil {
		return nil, err
	}
	if err := c.exec(ctx, name, "create workspace", "mkdir", "-p", Workspace); err != nil {
		return nil, err
	}

	for _, project := range projects {
		file := files[project]
		cached := path.Join(Workspace, project+".yml")
		c.log.Infof("Resolving compose file of %s", project)

		args := []string{binary, "compose", "--project-directory", filepath.Dir(file), "-f", file, "config", "--output", cached}
		if err := c.exec(ctx, name, "compose config for "+project, args...); err != nil {
			return nil, err
		}
		plan.Cached = append(plan.Cached, cached)
	}

	project := strings.ToLower(name)
	if err := c.exec(ctx, name, "remove containers", "sh", "-c", resetCommand(binary, project, name)); err != nil {
		return nil, err
	}

	if len(plan.Services) == 0 {
		c.log.Infof("No startup services recorded on %s, not starting anything", name)
		return plan, nil
	}
	if len(plan.Cached) == 0 {
		c.log.Warnf("No merged project contributed a compose file to %s", name)
		return plan, nil
	}

	up := []string{binary, "compose", "-p", project}
	for _, cached := range plan.Cached {
		up = append(up, "-f", cached)
	}
	up = append(up, "up", "--build", "--detach")
	up = append(up, plan.Services...)

	c.log.Infof("Starting %s in %s", strings.Join(plan.Services, " "), name)
	if err := c.exec(ctx, name, "compose up", up...); err != nil {
		return nil, err
	}
	return plan, nil
}

// resetCommand removes the containers of the embedded composition. The daemon
// socket is shared with the host, so the listing is limited to the compose
// project and never includes the shared container itself.
func resetCommand(binary, project, shared string) string {
	return fmt.Sprintf("%s ps -a --filter label=%s=%s --format '{{.Names}}' | grep -vxF %s | xargs -r %s rm -f",
		binary, composeProjectLabel, project, shared, binary)
}

func (c *Coordinator) exec(ctx context.Context, name, stage string, cmd ...string) error {
	code, err := c.rt.Exec(ctx, name, cmd, runtime.ExecOptions{Stdio: c.stdio})
	if err != nil {
		return fmt.Errorf("failed to %s: %w", stage, err)
	}
	if code != 0 {
		return &lifecycle.LaunchError{Stage: stage, Code: code}
	}
	return nil
}
