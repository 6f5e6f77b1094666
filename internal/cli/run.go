package cli

import (
	"context"
	"os"

	"github.com/skorokithakis/dock/internal/compiler"
	"github.com/skorokithakis/dock/internal/config"
	"github.com/skorokithakis/dock/internal/lifecycle"
	"github.com/skorokithakis/dock/internal/runtime"
	"github.com/skorokithakis/dock/internal/utils"
	"github.com/skorokithakis/dock/internal/versioning"
)

type launchOptions struct {
	force bool
	name  string
}

// launch starts the project container, or attaches to it when it is running.
func (a *app) launch(ctx context.Context, opts launchOptions, args []string) error {
	rt, closeFn, err := a.gateway()
	if err != nil {
		return err
	}
	defer closeFn()

	project, err := a.loadProject(rt)
	if err != nil {
		return err
	}
	s := project.Store
	if opts.name != "" {
		if err := s.SetContainerName(opts.name); err != nil {
			return err
		}
	}
	if len(args) > 0 {
		if err := s.SetLaunchCommand(args...); err != nil {
			return err
		}
	}

	if err := rt.Ping(ctx); err != nil {
		return err
	}

	return start(ctx, a.controller(rt), a.compiler(), s, opts.force, utils.IsTerminal(os.Stdin), func() {
		a.warnIfStale(ctx, rt, project)
	})
}

// start deals with an existing container before compiling, so ports held by
// a container that is being replaced are free when they are probed.
func start(ctx context.Context, controller *lifecycle.Controller, comp *compiler.Compiler, s *config.Store, force, tty bool, onAttach func()) error {
	decision, err := controller.Resolve(ctx, s.ContainerName(), lifecycle.ResolveOptions{
		Force:         force,
		AttachDefault: true,
	})
	if err != nil {
		return err
	}

	if decision == lifecycle.Attach {
		if onAttach != nil {
			onAttach()
		}
		return controller.Attach(ctx, s.ContainerName(), s.AttachCommand(), tty)
	}

	inv, err := comp.Compile(s)
	if err != nil {
		return err
	}
	return controller.Launch(ctx, inv, s.PullLatest())
}

// warnIfStale warns when the project file changed since the container was created.
func (a *app) warnIfStale(ctx context.Context, rt runtime.Gateway, project *config.Project) {
	if project.ConfigPath == "" {
		return
	}
	current, err := rt.Labels(ctx, project.Store.ContainerName())
	if err != nil {
		a.log.Debugf("Failed to read labels: %v", err)
		return
	}
	changed, err := versioning.HasConfigChanged(current, project.ConfigPath)
	if err != nil {
		a.log.Warnf("Failed to check config version: %v", err)
		return
	}
	if changed {
		a.log.Warnf("%s changed since %s was created; re-run with --force to recreate it", project.ConfigPath, project.Store.ContainerName())
	}
}
