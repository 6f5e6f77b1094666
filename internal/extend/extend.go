// Package extend merges a project into a shared container.
package extend

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/skorokithakis/dock/internal/compiler"
	"github.com/skorokithakis/dock/internal/compose"
	"github.com/skorokithakis/dock/internal/config"
	"github.com/skorokithakis/dock/internal/labels"
	"github.com/skorokithakis/dock/internal/lifecycle"
	"github.com/skorokithakis/dock/internal/runtime"
)

// PlaceholderCommand keeps a shared container alive while it is assembled.
var PlaceholderCommand = []string{"sleep", "infinity"}

// ErrNoBuildSource is returned when a new shared container has neither a
// dockerfile nor an image to start from.
var ErrNoBuildSource = errors.New("no dockerfile or image to create the shared container from")

// SharedTag returns the image tag of a shared container.
func SharedTag(name string) string {
	return "dock-shared-" + strings.ToLower(name) + ":latest"
}

// TemporaryName returns the name a shared container is moved to while it is
// being replaced.
func TemporaryName(name string, now time.Time) string {
	return fmt.Sprintf("%s-dock-prev-%d", name, now.Unix())
}

// IsTemporaryName reports whether name was produced by TemporaryName.
func IsTemporaryName(name string) bool {
	return strings.Contains(name, "-dock-prev-")
}

// Request describes one project to merge.
type Request struct {
	SharedID    string
	Project     string
	ConfigPath  string
	ComposePath string
	Store       *config.Store
}

// Result reports what an extension did.
type Result struct {
	Name            string
	Image           string
	Projects        string
	StartupServices string
	// InPlace is set when the launch command ran in the current environment.
	InPlace bool
	// Previous is the temporary name of the replaced container, if any.
	Previous string
}

// Options configures a Coordinator.
type Options struct {
	Compiler  *compiler.Compiler
	Lifecycle *lifecycle.Controller
	Env       config.Environ
	Runner    Runner
	Stdio     runtime.Stdio
	LockDir   string
	Now       func() time.Time
	Log       logrus.FieldLogger
}

// Coordinator merges projects into shared containers.
type Coordinator struct {
	rt        runtime.Gateway
	compiler  *compiler.Compiler
	lifecycle *lifecycle.Controller
	env       config.Environ
	runner    Runner
	stdio     runtime.Stdio
	lockDir   string
	now       func() time.Time
	log       logrus.FieldLogger
}

// New creates a Coordinator.
func New(rt runtime.Gateway, opts Options) *Coordinator {
	c := &Coordinator{
		rt:        rt,
		compiler:  opts.Compiler,
		lifecycle: opts.Lifecycle,
		env:       opts.Env,
		runner:    opts.Runner,
		stdio:     opts.Stdio,
		lockDir:   opts.LockDir,
		now:       opts.Now,
		log:       opts.Log,
	}
	if c.log == nil {
		c.log = logrus.StandardLogger()
	}
	if c.env == nil {
		c.env = config.OSEnviron
	}
	if c.compiler == nil {
		c.compiler = compiler.New(compiler.Options{Env: c.env, Log: c.log})
	}
	if c.lifecycle == nil {
		c.lifecycle = lifecycle.New(rt, lifecycle.Options{Stdio: opts.Stdio, Log: c.log})
	}
	if c.runner == nil {
		c.runner = localRunner
	}
	if c.stdio == (runtime.Stdio{}) {
		c.stdio = runtime.ProcessStdio()
	}
	if c.lockDir == "" {
		c.lockDir = os.TempDir()
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c
}

// Extend merges req's project into the shared container named after req.SharedID.
func (c *Coordinator) Extend(ctx context.Context, req Request) (*Result, error) {
	s := req.Store
	name := config.SanitizeName(req.SharedID)
	tag := SharedTag(name)
	declared := s.LaunchCommand()

	if err := c.prepare(s, name, tag); err != nil {
		return nil, err
	}
	result := &Result{Name: name, Image: tag}

	if _, inside := c.env(compiler.SentinelEnv); inside {
		return c.runInPlace(ctx, result, declared)
	}

	l, err := acquireLease(c.lockDir, name, c.log)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := l.release(); err != nil {
			c.log.Warnf("Failed to release extension lock for %s: %v", name, err)
		}
	}()

	existing, err := c.rt.Labels(ctx, name)
	if err != nil {
		return nil, err
	}
	if err := c.writeLabels(ctx, s, req, existing, result); err != nil {
		return nil, err
	}

	exists, err := c.rt.Exists(ctx, name)
	if err != nil {
		return nil, err
	}

	pull := false
	if !exists {
		switch {
		case s.Source() == config.SourceDockerfile && s.Dockerfile() != "":
			c.log.Infof("Creating shared container %s from %s", name, s.Dockerfile())
		case s.Source() == config.SourceImage && s.Image() != "":
			c.log.Infof("Creating shared container %s from %s", name, s.Image())
			pull = s.PullLatest()
		default:
			return nil, ErrNoBuildSource
		}
	} else {
		result.Previous = TemporaryName(name, c.now())
		s.UseImage(tag)
		if err := s.AddRunFlag("--volumes-from", result.Previous); err != nil {
			return nil, err
		}
	}

	inv, err := c.compiler.Compile(s)
	if err != nil {
		return nil, err
	}

	if result.Previous != "" {
		c.log.Infof("Moving %s aside as %s", name, result.Previous)
		if err := c.rt.Rename(ctx, name, result.Previous); err != nil {
			return nil, err
		}
	}

	if err := c.lifecycle.Launch(ctx, inv, pull); err != nil {
		if result.Previous != "" {
			c.log.Errorf("Extension failed; the previous container is kept as %s, remove it with `dock clean`", result.Previous)
		}
		return result, err
	}

	if err := c.rt.Commit(ctx, name, tag); err != nil {
		if result.Previous != "" {
			c.log.Errorf("Commit failed; the previous container is kept as %s", result.Previous)
		}
		return result, err
	}

	if result.Previous != "" {
		if err := c.lifecycle.Destroy(ctx, result.Previous); err != nil {
			c.log.Warnf("Failed to remove previous container %s: %v", result.Previous, err)
		}
	}

	c.log.Infof("Extended %s with %s", name, req.Project)
	return result, nil
}

// prepare points the store at the shared container.
func (c *Coordinator) prepare(s *config.Store, name, tag string) error {
	if err := s.SetContainerName(name); err != nil {
		return err
	}
	if err := s.SetWorkspaceDir(s.ProjectRoot()); err != nil {
		return err
	}
	s.SetDetach(true)
	s.SetBuildTag(tag)
	return s.SetLaunchCommand(PlaceholderCommand...)
}

func (c *Coordinator) runInPlace(ctx context.Context, result *Result, declared []string) (*Result, error) {
	result.InPlace = true
	if len(declared) == 0 {
		c.log.Infof("Already inside a managed container and no launch command is declared")
		return result, nil
	}

	c.log.Infof("Already inside a managed container, running %s in place", strings.Join(declared, " "))
	code, err := c.runner(ctx, declared, c.stdio)
	if err != nil {
		return result, err
	}
	if code != 0 {
		return result, &lifecycle.LaunchError{Stage: "launch command", Code: code}
	}
	return result, nil
}

// writeLabels records the aggregate and per-project labels on the store,
// carrying over the entries of projects merged earlier.
func (c *Coordinator) writeLabels(ctx context.Context, s *config.Store, req Request, existing map[string]string, result *Result) error {
	result.Projects = labels.Union(existing[labels.Projects], req.Project)
	result.StartupServices = labels.Union(existing[labels.StartupServices], s.StartupServices()...)

	own := map[string]bool{
		labels.ProjectKey(req.Project): true,
		labels.ComposeKey(req.Project): true,
	}
	for _, project := range labels.ParseSet(existing[labels.Projects]) {
		for _, key := range []string{labels.ProjectKey(project), labels.ComposeKey(project)} {
			value, ok := existing[key]
			if !ok || own[key] {
				continue
			}
			if err := s.AddLabel(key, value); err != nil {
				return err
			}
		}
	}

	if err := s.AddLabel(labels.Projects, result.Projects); err != nil {
		return err
	}
	if err := s.AddLabel(labels.StartupServices, result.StartupServices); err != nil {
		return err
	}
	if err := s.AddLabel(labels.ProjectKey(req.Project), req.ConfigPath); err != nil {
		return err
	}

	if req.ComposePath == "" {
		c.log.Warnf("Project %s has no compose file; it contributes no services", req.Project)
		return nil
	}
	if _, err := os.Stat(req.ComposePath); err != nil {
		c.log.Warnf("Compose file %s not found; project %s contributes no services", req.ComposePath, req.Project)
		return nil
	}
	if err := s.AddLabel(labels.ComposeKey(req.Project), req.ComposePath); err != nil {
		return err
	}
	c.checkServices(ctx, req.ComposePath, s.StartupServices())
	return nil
}

func (c *Coordinator) checkServices(ctx context.Context, path string, declared []string) {
	available, err := compose.Services(ctx, path, environMap(os.Environ()))
	if err != nil {
		c.log.Warnf("Could not inspect %s: %v", path, err)
		return
	}
	for _, name := range compose.Missing(declared, available) {
		c.log.Warnf("Startup service %s is not defined in %s", name, path)
	}
}

func environMap(environ []string) map[string]string {
	env := make(map[string]string, len(environ))
	for _, kv := range environ {
		if k, v, ok := strings.Cut(kv, "="); ok {
			env[k] = v
		}
	}
	return env
}
