package compiler

import (
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/skorokithakis/dock/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type boundPorts map[int]bool

func (b boundPorts) InUse(port int) bool { return b[port] }

func envOf(vars map[string]string) config.Environ {
	return func(name string) (string, bool) {
		v, ok := vars[name]
		return v, ok
	}
}

func newTestCompiler(t *testing.T, env map[string]string, bound boundPorts, terminal bool) (*Compiler, *logtest.Hook) {
	t.Helper()
	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	return New(Options{
		Env:      envOf(env),
		Probe:    bound,
		Terminal: terminal,
		Log:      logger,
	}), hook
}

func newTestStore(t *testing.T) *config.Store {
	t.Helper()
	return config.NewStore(config.Defaults{ProjectRoot: "/src/project"})
}

func warnings(hook *logtest.Hook) []string {
	var msgs []string
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel {
			msgs = append(msgs, e.Message)
		}
	}
	return msgs
}

func TestCompileAlpineScenario(t *testing.T) {
	tests := []struct {
		name     string
		terminal bool
		wantTTY  bool
	}{
		{name: "terminal", terminal: true, wantTTY: true},
		{name: "pipe", terminal: false, wantTTY: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStore(t)
			require.NoError(t, s.SetImage("alpine:latest"))
			require.NoError(t, s.SetLaunchCommand("echo", "hello", "world"))

			c, _ := newTestCompiler(t, nil, nil, tt.terminal)
			inv, err := c.Compile(s)
			require.NoError(t, err)

			assert.Nil(t, inv.Build)
			assert.Equal(t, "alpine:latest", inv.Image)
			assert.Contains(t, inv.Run, "--interactive")
			assert.Contains(t, inv.Run, "--rm")
			assert.NotContains(t, inv.Run, "--detach")
			assert.Equal(t, tt.wantTTY, contains(inv.Run, "--tty"))

			tail := inv.Run[len(inv.Run)-4:]
			assert.Equal(t, []string{"alpine:latest", "echo", "hello", "world"}, tail)
		})
	}
}

func TestCompileIsDeterministic(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.SetImage("alpine:latest"))
	require.NoError(t, s.AddOptionalEnv("EDITOR"))
	require.NoError(t, s.ExposePort("8080:80", "9090:90"))
	require.NoError(t, s.AddLabel("team", "infra"))
	require.NoError(t, s.AddVolume("/cache:/root/.cache"))

	c, _ := newTestCompiler(t, map[string]string{"EDITOR": "vim"}, nil, false)
	first, err := c.Compile(s)
	require.NoError(t, err)
	second, err := c.Compile(s)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, []string{"/cache:/root/.cache"}, s.Volumes(), "compile must not add to the store")
}

func TestCompileArgumentOrder(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.SetImage("golang:1.24"))
	require.NoError(t, s.SetContainerName("proj"))
	require.NoError(t, s.SetContainerHostname("devbox"))
	require.NoError(t, s.AddOptionalEnv("HOME", "UNSET"))
	require.NoError(t, s.RequireEnv("TOKEN"))
	require.NoError(t, s.AddEnv("MODE", "dev"))
	require.NoError(t, s.ExposePort("8080:80"))
	require.NoError(t, s.AddVolume("/data:/data:ro"))
	require.NoError(t, s.AddLabel("a", "1"))
	s.SetDetach(true)
	s.SetPrivileged(true)
	require.NoError(t, s.AddRunFlag("--network", "host"))

	c, _ := newTestCompiler(t, map[string]string{"HOME": "/home/me", "TOKEN": "s3cret"}, nil, false)
	inv, err := c.Compile(s)
	require.NoError(t, err)

	want := []string{
		"--env", "HOME=/home/me",
		"--env", "TOKEN=s3cret",
		"--name", "proj",
		"--workdir", "/workspace",
		"--detach-keys", config.DefaultDetachKeys,
		"--hostname", "devbox",
		"--env", "MODE=dev",
		"--env", "DOCK_INSIDE=1",
		"--env", "DOCK_WORKSPACE=/workspace",
		"--publish", "8080:80",
		"--volume", "/data:/data:ro",
		"--volume", "/src/project:/workspace",
		"--label", "a=1",
		"--detach",
		"--privileged",
		"--network", "host",
		"golang:1.24",
	}
	assert.Equal(t, want, inv.Run)
}

func TestCompileDockInDockOmitsSentinel(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.SetImage("alpine"))
	s.SetDockInDock(true)

	c, _ := newTestCompiler(t, nil, nil, false)
	inv, err := c.Compile(s)
	require.NoError(t, err)
	assert.NotContains(t, inv.Run, SentinelEnv+"=1")
	assert.Contains(t, inv.Run, WorkspaceEnv+"=/workspace")
}

func TestCompileMissingRequiredEnv(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.SetImage("alpine"))
	require.NoError(t, s.RequireEnv("FOO"))

	c, _ := newTestCompiler(t, nil, nil, false)
	inv, err := c.Compile(s)
	assert.Nil(t, inv)

	var missing *MissingRequiredEnvError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, "FOO", missing.Name)
}

func TestCompileRequiredEnvPresentButEmpty(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.SetImage("alpine"))
	require.NoError(t, s.RequireEnv("FOO"))

	c, _ := newTestCompiler(t, map[string]string{"FOO": ""}, nil, false)
	inv, err := c.Compile(s)
	require.NoError(t, err)
	assert.Contains(t, inv.Run, "FOO=")
}

func TestCompilePorts(t *testing.T) {
	tests := []struct {
		name      string
		spec      string
		bound     boundPorts
		published bool
		warned    bool
		invalid   bool
	}{
		{name: "free host port", spec: "8080:80", published: true},
		{name: "bound host port", spec: "8080:80", bound: boundPorts{8080: true}, warned: true},
		{name: "no separator", spec: "80", warned: true},
		{name: "explicit host address", spec: "127.0.0.1:8080:80", warned: true},
		{name: "too many separators", spec: "a:b:c:d", invalid: true},
		{name: "non-numeric", spec: "abc:80", invalid: true},
		{name: "udp", spec: "5353:53/udp", published: true},
		{name: "range with one bound", spec: "7000-7001:7000-7001", bound: boundPorts{7001: true}, warned: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStore(t)
			require.NoError(t, s.SetImage("alpine"))
			require.NoError(t, s.ExposePort(tt.spec))

			c, hook := newTestCompiler(t, nil, tt.bound, false)
			inv, err := c.Compile(s)

			if tt.invalid {
				var portErr *InvalidPortSpecError
				require.True(t, errors.As(err, &portErr), "got %v", err)
				assert.Equal(t, tt.spec, portErr.Spec)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.published, contains(inv.Run, "--publish"))
			assert.Equal(t, tt.warned, len(warnings(hook)) == 1)
		})
	}
}

func TestCompilePortsKeepOrder(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.SetImage("alpine"))
	require.NoError(t, s.ExposePort("9000:9000", "80", "8000:8000"))

	c, _ := newTestCompiler(t, nil, nil, false)
	inv, err := c.Compile(s)
	require.NoError(t, err)

	var published []string
	for i, arg := range inv.Run {
		if arg == "--publish" {
			published = append(published, inv.Run[i+1])
		}
	}
	assert.Equal(t, []string{"9000:9000", "8000:8000"}, published)
}

func TestCompileDockerfile(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.SetContainerName("MyProj"))
	require.NoError(t, s.SetDockerfile("docker/Dockerfile.dev"))
	require.NoError(t, s.AddBuildArg("VERSION=1.2"))
	require.NoError(t, s.AddBuildFlag("--no-cache"))

	c, _ := newTestCompiler(t, nil, nil, false)
	inv, err := c.Compile(s)
	require.NoError(t, err)

	require.NotNil(t, inv.Build)
	assert.Equal(t, "dock-myproj:latest", inv.Image)
	assert.Equal(t, "/src/project/docker/Dockerfile.dev", inv.Build.Dockerfile)
	assert.Equal(t, "/src/project", inv.Build.Context)
	assert.Equal(t, []string{"--build-arg", "VERSION=1.2", "--no-cache"}, inv.Build.ExtraArgs)
	assert.Equal(t, "dock-myproj:latest", inv.Run[len(inv.Run)-1])
}

func TestCompileBuildTagOverride(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.SetDockerfile("Dockerfile"))
	s.SetBuildTag("dock-shared-env:latest")

	c, _ := newTestCompiler(t, nil, nil, false)
	inv, err := c.Compile(s)
	require.NoError(t, err)
	assert.Equal(t, "dock-shared-env:latest", inv.Build.Tag)
}

func TestCompileLastSourceWins(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.SetDockerfile("Dockerfile"))
	require.NoError(t, s.SetImage("alpine"))

	c, _ := newTestCompiler(t, nil, nil, false)
	inv, err := c.Compile(s)
	require.NoError(t, err)
	assert.Nil(t, inv.Build)
	assert.Equal(t, "alpine", inv.Image)
}

func TestCompileNoSource(t *testing.T) {
	c, _ := newTestCompiler(t, nil, nil, false)
	_, err := c.Compile(newTestStore(t))
	assert.ErrorIs(t, err, ErrNoImageSource)
}

func TestImageTag(t *testing.T) {
	assert.Equal(t, "dock-web_app:latest", ImageTag("Web_App"))
}

func contains(args []string, want string) bool {
	for _, arg := range args {
		if arg == want {
			return true
		}
	}
	return false
}
