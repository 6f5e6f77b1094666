// Package lifecycle decides what happens to a possibly pre-existing project
// container and launches the compiled invocation.
package lifecycle

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/skorokithakis/dock/internal/compiler"
	"github.com/skorokithakis/dock/internal/runtime"
)

// Decision is the outcome of Resolve.
type Decision int

const (
	// Launch means a new container must be started.
	Launch Decision = iota
	// Attach means the running container should be entered.
	Attach
)

func (d Decision) String() string {
	if d == Attach {
		return "attach"
	}
	return "launch"
}

// ConfirmFunc asks a yes/no question and returns the answer, falling back to
// def when the user gives none.
type ConfirmFunc func(prompt string, def bool) bool

// Options configures a Controller.
type Options struct {
	// Confirm is used to ask the user. A nil Confirm means non-interactive.
	Confirm ConfirmFunc
	Stdio   runtime.Stdio
	Log     logrus.FieldLogger
}

// ResolveOptions configures a single Resolve call.
type ResolveOptions struct {
	// Force destroys any existing container without asking.
	Force bool
	// RecreateDefault answers the recreate prompt when the user just presses enter.
	RecreateDefault bool
	// AttachDefault answers the attach prompt when the user just presses enter.
	AttachDefault bool
}

// Controller manages the lifecycle of a named container.
type Controller struct {
	rt      runtime.Gateway
	confirm ConfirmFunc
	stdio   runtime.Stdio
	log     logrus.FieldLogger
}

// New creates a Controller.
func New(rt runtime.Gateway, opts Options) *Controller {
	c := &Controller{
		rt:      rt,
		confirm: opts.Confirm,
		stdio:   opts.Stdio,
		log:     opts.Log,
	}
	if c.stdio == (runtime.Stdio{}) {
		c.stdio = runtime.ProcessStdio()
	}
	if c.log == nil {
		c.log = logrus.StandardLogger()
	}
	return c
}

// Resolve inspects the live state of name and decides whether to launch a new
// container or attach to the running one.
func (c *Controller) Resolve(ctx context.Context, name string, opts ResolveOptions) (Decision, error) {
	if opts.Force {
		if err := c.Destroy(ctx, name); err != nil {
			return Launch, err
		}
		return Launch, nil
	}

	status, err := c.rt.Status(ctx, name)
	if err != nil {
		return Launch, err
	}

	switch status {
	case runtime.Stopped:
		conflict := &ConflictError{
			Name:   name,
			Status: status,
			Hint:   fmt.Sprintf("re-run with --force to recreate it, or remove it with `%s rm %s`", c.rt.Binary(), name),
		}
		if c.confirm == nil {
			return Launch, conflict
		}
		if !c.confirm(fmt.Sprintf("Container %s exists but is stopped. Remove it and start a new one?", name), opts.RecreateDefault) {
			conflict.Declined = true
			return Launch, conflict
		}
		if err := c.Destroy(ctx, name); err != nil {
			return Launch, err
		}
		return Launch, nil

	case runtime.Running:
		conflict := &ConflictError{
			Name:   name,
			Status: status,
			Hint:   fmt.Sprintf("re-run with --force to replace it, or enter it with `%s exec -it %s sh`", c.rt.Binary(), name),
		}
		if c.confirm == nil {
			return Launch, conflict
		}
		if !c.confirm(fmt.Sprintf("Container %s is already running. Attach to it?", name), opts.AttachDefault) {
			conflict.Declined = true
			return Launch, conflict
		}
		return Attach, nil

	default:
		return Launch, nil
	}
}

// Destroy stops, kills and removes name. A container that is already gone is
// not an error.
func (c *Controller) Destroy(ctx context.Context, name string) error {
	c.log.Infof("Removing container %s", name)
	if err := c.rt.Stop(ctx, name); err != nil {
		return err
	}
	if err := c.rt.Kill(ctx, name); err != nil {
		return err
	}
	return c.rt.Remove(ctx, name, true)
}

// Launch builds or pulls the image when needed and runs the invocation.
func (c *Controller) Launch(ctx context.Context, inv *compiler.Invocation, pullLatest bool) error {
	switch {
	case inv.Build != nil:
		c.log.Infof("Building image %s", inv.Build.Tag)
		code, err := c.rt.Build(ctx, *inv.Build, c.stdio)
		if err := check("build", code, err); err != nil {
			return err
		}
	case pullLatest:
		c.log.Infof("Pulling image %s", inv.Image)
		code, err := c.rt.Pull(ctx, inv.Image)
		if err := check("pull", code, err); err != nil {
			return err
		}
	}

	code, err := c.rt.Run(ctx, inv.Run, c.stdio)
	return check("run", code, err)
}

// Attach runs cmd interactively inside the running container name.
func (c *Controller) Attach(ctx context.Context, name string, cmd []string, tty bool) error {
	code, err := c.rt.Exec(ctx, name, cmd, runtime.ExecOptions{
		Interactive: true,
		TTY:         tty,
		Stdio:       c.stdio,
	})
	return check("attach", code, err)
}

func check(stage string, code int, err error) error {
	if err != nil {
		return err
	}
	if code != 0 {
		return &LaunchError{Stage: stage, Code: code}
	}
	return nil
}
