package compiler

import (
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/skorokithakis/dock/internal/config"
	"github.com/skorokithakis/dock/internal/runtime"
)

const (
	// SentinelEnv marks a process as already running inside a managed container.
	SentinelEnv = "DOCK_INSIDE"
	// WorkspaceEnv carries the in-container workspace directory.
	WorkspaceEnv = "DOCK_WORKSPACE"
)

// Invocation is the compiled form of a store.
type Invocation struct {
	// Build is set only when a dockerfile is the authoritative source.
	Build *runtime.BuildSpec
	// Run holds the run arguments, without the run verb itself.
	Run []string
	// Image is the image the container is started from.
	Image string
}

// Options configures a Compiler.
type Options struct {
	// Env looks up ambient variables. Defaults to the process environment.
	Env config.Environ
	// Probe checks host ports. Defaults to LocalProbe.
	Probe PortProbe
	// Terminal reports whether the invoking stdin is a terminal.
	Terminal bool
	// DetachKeys is the key sequence that detaches from the container.
	DetachKeys string
	Log        logrus.FieldLogger
}

// Compiler turns a populated store into runtime arguments.
type Compiler struct {
	env        config.Environ
	probe      PortProbe
	terminal   bool
	detachKeys string
	log        logrus.FieldLogger
}

// New creates a Compiler.
func New(opts Options) *Compiler {
	c := &Compiler{
		env:        opts.Env,
		probe:      opts.Probe,
		terminal:   opts.Terminal,
		detachKeys: opts.DetachKeys,
		log:        opts.Log,
	}
	if c.env == nil {
		c.env = config.OSEnviron
	}
	if c.probe == nil {
		c.probe = LocalProbe{}
	}
	if c.detachKeys == "" {
		c.detachKeys = config.DefaultDetachKeys
	}
	if c.log == nil {
		c.log = logrus.StandardLogger()
	}
	return c
}

// ImageTag returns the tag a project's dockerfile is built into.
func ImageTag(containerName string) string {
	return "dock-" + strings.ToLower(containerName) + ":latest"
}

// Compile resolves s into a build spec and run arguments. The store is not
// modified and the runtime is never contacted.
func (c *Compiler) Compile(s *config.Store) (*Invocation, error) {
	var run []string

	for _, name := range s.OptionalEnv() {
		if value, ok := c.env(name); ok {
			run = append(run, "--env", name+"="+value)
		}
	}
	for _, name := range s.RequiredEnv() {
		value, ok := c.env(name)
		if !ok {
			return nil, &MissingRequiredEnvError{Name: name}
		}
		run = append(run, "--env", name+"="+value)
	}

	run = append(run,
		"--name", s.ContainerName(),
		"--workdir", s.WorkspaceDir(),
		"--detach-keys", c.detachKeys,
	)
	if hostname := s.ContainerHostname(); hostname != "" {
		run = append(run, "--hostname", hostname)
	}
	if entrypoint := s.Entrypoint(); entrypoint != "" {
		run = append(run, "--entrypoint", entrypoint)
	}

	for _, pair := range s.LiteralEnv() {
		run = append(run, "--env", pair)
	}
	if !s.DockInDock() {
		run = append(run, "--env", SentinelEnv+"=1")
	}
	run = append(run, "--env", WorkspaceEnv+"="+s.WorkspaceDir())

	ports, err := c.resolvePorts(s.ExposedPorts())
	if err != nil {
		return nil, err
	}
	for _, port := range ports {
		run = append(run, "--publish", port)
	}

	// The project root goes last so earlier mounts cannot shadow it.
	volumes := append(s.Volumes(), s.ProjectRoot()+":"+s.WorkspaceDir())
	for _, volume := range volumes {
		run = append(run, "--volume", volume)
	}
	for _, label := range s.Labels() {
		run = append(run, "--label", label.String())
	}

	if s.Detach() {
		run = append(run, "--detach")
	} else {
		run = append(run, "--interactive", "--rm")
	}
	if s.ForceTty() || c.terminal {
		run = append(run, "--tty")
	}
	if s.Privileged() {
		run = append(run, "--privileged")
	}
	run = append(run, s.RunFlags()...)

	inv := &Invocation{}
	switch s.Source() {
	case config.SourceImage:
		inv.Image = s.Image()
	case config.SourceDockerfile:
		if s.Dockerfile() != "" {
			inv.Image = s.BuildTag()
			if inv.Image == "" {
				inv.Image = ImageTag(s.ContainerName())
			}
			inv.Build = c.buildSpec(s, inv.Image)
		}
	}
	if inv.Image == "" {
		return nil, ErrNoImageSource
	}

	run = append(run, inv.Image)
	inv.Run = append(run, s.LaunchCommand()...)

	c.log.Debugf("Compiled run arguments: %s", strings.Join(inv.Run, " "))
	return inv, nil
}

func (c *Compiler) buildSpec(s *config.Store, tag string) *runtime.BuildSpec {
	var extra []string
	for _, arg := range s.BuildArgs() {
		extra = append(extra, "--build-arg", arg)
	}
	extra = append(extra, s.BuildFlags()...)

	return &runtime.BuildSpec{
		Dockerfile: s.Dockerfile(),
		Tag:        tag,
		Context:    s.BuildContext(),
		ExtraArgs:  extra,
	}
}
