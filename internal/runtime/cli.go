package runtime

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/skorokithakis/dock/internal/utils"
)

// cliDriver runs a runtime's command line client.
type cliDriver struct {
	binary string
	log    logrus.FieldLogger
}

// stream runs the client with stdio relayed and returns its exit code.
func (d cliDriver) stream(ctx context.Context, stdio Stdio, args ...string) (int, error) {
	d.log.Debugf("Running %s %s", d.binary, strings.Join(args, " "))

	cmd := exec.CommandContext(ctx, d.binary, args...)
	cmd.Stdin = stdio.Stdin
	cmd.Stdout = stdio.Stdout
	cmd.Stderr = stdio.Stderr

	if err := cmd.Start(); err != nil {
		return 1, fmt.Errorf("failed to run %s: %w", d.binary, err)
	}
	stop := utils.RelaySignals(cmd.Process)
	defer stop()

	return exitCode(d.binary, cmd.Wait())
}

// output runs the client and returns its combined output.
func (d cliDriver) output(ctx context.Context, args ...string) ([]byte, int, error) {
	d.log.Debugf("Running %s %s", d.binary, strings.Join(args, " "))

	var buf bytes.Buffer
	cmd := exec.CommandContext(ctx, d.binary, args...)
	cmd.Stdout = &buf
	cmd.Stderr = &buf

	code, err := exitCode(d.binary, cmd.Run())
	return buf.Bytes(), code, err
}

// run executes a compiled run invocation.
func (d cliDriver) run(ctx context.Context, args []string, stdio Stdio) (int, error) {
	return d.stream(ctx, stdio, append([]string{"run"}, args...)...)
}

// build executes an image build.
func (d cliDriver) build(ctx context.Context, spec BuildSpec, stdio Stdio) (int, error) {
	return d.stream(ctx, stdio, append([]string{"build"}, spec.Args()...)...)
}

// exec runs a command in a container.
func (d cliDriver) exec(ctx context.Context, name string, cmd []string, opts ExecOptions) (int, error) {
	return d.stream(ctx, opts.Stdio, execArgs(name, cmd, opts)...)
}

func execArgs(name string, cmd []string, opts ExecOptions) []string {
	args := []string{"exec"}
	if opts.Interactive {
		args = append(args, "--interactive")
	}
	if opts.TTY {
		args = append(args, "--tty")
	}
	if opts.WorkDir != "" {
		args = append(args, "--workdir", opts.WorkDir)
	}
	args = append(args, name)
	return append(args, cmd...)
}

func exitCode(binary string, err error) (int, error) {
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	return 1, fmt.Errorf("failed to run %s: %w", binary, err)
}

// executableMount maps the host's runtime client into the container.
func executableMount(binary string) (string, bool) {
	path, err := exec.LookPath(binary)
	if err != nil {
		return "", false
	}
	return fmt.Sprintf("%s:/usr/bin/%s", path, binary), true
}
