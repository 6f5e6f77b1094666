package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/skorokithakis/dock/internal/compiler"
	"github.com/skorokithakis/dock/internal/config"
	"github.com/skorokithakis/dock/internal/lifecycle"
	"github.com/skorokithakis/dock/internal/logging"
	"github.com/skorokithakis/dock/internal/runtime"
	"github.com/skorokithakis/dock/internal/utils"
)

// app holds the state shared by every command of one invocation.
type app struct {
	log        *logrus.Logger
	loader     *config.Loader
	global     *config.GlobalConfig
	configPath string
}

func (a *app) init() error {
	a.loader = config.NewLoader().WithLogger(a.log)

	global, err := a.loader.LoadGlobalConfig()
	if err != nil {
		return fmt.Errorf("failed to load global config: %w", err)
	}
	a.global = global

	return logging.Setup(a.log, global.LogLevel, global.LogFormat, os.Stderr)
}

// gateway creates the configured runtime. It does not contact the runtime.
func (a *app) gateway() (runtime.Gateway, func(), error) {
	rt, err := runtime.New(a.global.Runtime, a.log)
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() {
		if c, ok := rt.(io.Closer); ok {
			_ = c.Close()
		}
	}
	return rt, closeFn, nil
}

// connect creates the runtime and checks that it is reachable.
func (a *app) connect(ctx context.Context) (runtime.Gateway, func(), error) {
	rt, closeFn, err := a.gateway()
	if err != nil {
		return nil, nil, err
	}
	if err := rt.Ping(ctx); err != nil {
		closeFn()
		return nil, nil, err
	}
	return rt, closeFn, nil
}

// loadProject evaluates the project config of the working directory.
func (a *app) loadProject(rt runtime.Gateway) (*config.Project, error) {
	return a.loader.LoadProject(config.ProjectOptions{
		ConfigPath: a.configPath,
		ConfigName: a.global.ConfigName,
		Defaults: config.Defaults{
			Shell:  a.global.Shell,
			Mounts: rt.Mounts(),
		},
	})
}

func (a *app) compiler() *compiler.Compiler {
	return compiler.New(compiler.Options{
		Terminal:   utils.IsTerminal(os.Stdin),
		DetachKeys: a.global.DetachKeys,
		Log:        a.log,
	})
}

func (a *app) controller(rt runtime.Gateway) *lifecycle.Controller {
	var confirm lifecycle.ConfirmFunc
	if utils.IsInteractive() {
		confirm = terminalConfirm(os.Stdin, os.Stderr)
	}
	return lifecycle.New(rt, lifecycle.Options{Confirm: confirm, Log: a.log})
}
