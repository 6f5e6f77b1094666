package extend

import (
	"context"
	"errors"
	"os/exec"

	"github.com/skorokithakis/dock/internal/runtime"
	"github.com/skorokithakis/dock/internal/utils"
)

// Runner runs a command as a local process and returns its exit code.
type Runner func(ctx context.Context, cmd []string, stdio runtime.Stdio) (int, error)

// localRunner runs cmd in the current environment, relaying signals to it.
func localRunner(ctx context.Context, cmd []string, stdio runtime.Stdio) (int, error) {
	c := exec.CommandContext(ctx, cmd[0], cmd[1:]...)
	c.Stdin = stdio.Stdin
	c.Stdout = stdio.Stdout
	c.Stderr = stdio.Stderr

	if err := c.Start(); err != nil {
		return 127, err
	}
	stop := utils.RelaySignals(c.Process)
	defer stop()

	var exitErr *exec.ExitError
	if err := c.Wait(); err != nil {
		if errors.As(err, &exitErr) {
			return exitErr.ExitCode(), nil
		}
		return 1, err
	}
	return 0, nil
}
