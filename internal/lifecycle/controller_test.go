package lifecycle

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/skorokithakis/dock/internal/compiler"
	"github.com/skorokithakis/dock/internal/runtime"
	"github.com/skorokithakis/dock/internal/runtime/runtimetest"
)

type prompt struct {
	answer bool
	asked  []string
	defs   []bool
}

func (p *prompt) confirm(question string, def bool) bool {
	p.asked = append(p.asked, question)
	p.defs = append(p.defs, def)
	return p.answer
}

func testStdio() runtime.Stdio {
	return runtime.Stdio{Stdin: &bytes.Buffer{}, Stdout: &bytes.Buffer{}, Stderr: &bytes.Buffer{}}
}

func newTestController(rt runtime.Gateway, confirm ConfirmFunc) *Controller {
	logger, _ := logtest.NewNullLogger()
	return New(rt, Options{Confirm: confirm, Stdio: testStdio(), Log: logger})
}

func expectDestroy(rt *runtimetest.MockGateway, name string) {
	rt.On("Stop", mock.Anything, name).Return(nil).Once()
	rt.On("Kill", mock.Anything, name).Return(nil).Once()
	rt.On("Remove", mock.Anything, name, true).Return(nil).Once()
}

func TestResolveAbsent(t *testing.T) {
	rt := &runtimetest.MockGateway{}
	rt.On("Status", mock.Anything, "proj").Return(runtime.Absent, nil)

	decision, err := newTestController(rt, nil).Resolve(context.Background(), "proj", ResolveOptions{})
	require.NoError(t, err)
	assert.Equal(t, Launch, decision)
	rt.AssertExpectations(t)
}

func TestResolveForceDestroysFirst(t *testing.T) {
	rt := &runtimetest.MockGateway{}
	expectDestroy(rt, "proj")

	decision, err := newTestController(rt, nil).Resolve(context.Background(), "proj", ResolveOptions{Force: true})
	require.NoError(t, err)
	assert.Equal(t, Launch, decision)
	rt.AssertExpectations(t)
	rt.AssertNotCalled(t, "Status", mock.Anything, mock.Anything)
}

func TestResolveNonInteractiveConflictHasNoSideEffects(t *testing.T) {
	for _, status := range []runtime.Status{runtime.Stopped, runtime.Running} {
		t.Run(status.String(), func(t *testing.T) {
			rt := &runtimetest.MockGateway{}
			rt.On("Status", mock.Anything, "proj").Return(status, nil)
			rt.On("Binary").Return("docker")

			_, err := newTestController(rt, nil).Resolve(context.Background(), "proj", ResolveOptions{})

			var conflict *ConflictError
			require.True(t, errors.As(err, &conflict))
			assert.Equal(t, status, conflict.Status)
			assert.False(t, conflict.Declined)
			assert.Contains(t, conflict.Hint, "--force")

			// Only the status query and the hint lookup may touch the runtime.
			for _, call := range rt.Calls {
				assert.Contains(t, []string{"Status", "Binary"}, call.Method)
			}
		})
	}
}

func TestResolveStoppedInteractive(t *testing.T) {
	tests := []struct {
		name     string
		answer   bool
		wantErr  bool
		destroys bool
	}{
		{name: "accepted", answer: true, destroys: true},
		{name: "declined", answer: false, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rt := &runtimetest.MockGateway{}
			rt.On("Status", mock.Anything, "proj").Return(runtime.Stopped, nil)
			rt.On("Binary").Return("docker")
			if tt.destroys {
				expectDestroy(rt, "proj")
			}
			p := &prompt{answer: tt.answer}

			decision, err := newTestController(rt, p.confirm).Resolve(context.Background(), "proj", ResolveOptions{RecreateDefault: true})

			require.Len(t, p.asked, 1)
			assert.Equal(t, []bool{true}, p.defs)
			if tt.wantErr {
				var conflict *ConflictError
				require.True(t, errors.As(err, &conflict))
				assert.True(t, conflict.Declined)
				rt.AssertNotCalled(t, "Remove", mock.Anything, mock.Anything, mock.Anything)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, Launch, decision)
			rt.AssertExpectations(t)
		})
	}
}

func TestResolveRunningInteractive(t *testing.T) {
	rt := &runtimetest.MockGateway{}
	rt.On("Status", mock.Anything, "proj").Return(runtime.Running, nil)
	rt.On("Binary").Return("podman")
	p := &prompt{answer: true}

	decision, err := newTestController(rt, p.confirm).Resolve(context.Background(), "proj", ResolveOptions{})
	require.NoError(t, err)
	assert.Equal(t, Attach, decision)
	rt.AssertNotCalled(t, "Stop", mock.Anything, mock.Anything)
}

func TestResolveStatusError(t *testing.T) {
	rt := &runtimetest.MockGateway{}
	rt.On("Status", mock.Anything, "proj").Return(runtime.Absent, errors.New("daemon exploded"))

	_, err := newTestController(rt, nil).Resolve(context.Background(), "proj", ResolveOptions{})
	assert.EqualError(t, err, "daemon exploded")
}

func TestDestroyPropagatesRuntimeErrors(t *testing.T) {
	rt := &runtimetest.MockGateway{}
	rt.On("Stop", mock.Anything, "proj").Return(nil)
	rt.On("Kill", mock.Anything, "proj").Return(errors.New("permission denied"))

	err := newTestController(rt, nil).Destroy(context.Background(), "proj")
	assert.EqualError(t, err, "permission denied")
	rt.AssertNotCalled(t, "Remove", mock.Anything, mock.Anything, mock.Anything)
}

func TestLaunch(t *testing.T) {
	build := &runtime.BuildSpec{Dockerfile: "/p/Dockerfile", Tag: "dock-p:latest", Context: "/p"}

	tests := []struct {
		name       string
		inv        *compiler.Invocation
		pullLatest bool
		setup      func(rt *runtimetest.MockGateway)
		wantStage  string
		wantCode   int
	}{
		{
			name: "image without pull",
			inv:  &compiler.Invocation{Image: "alpine", Run: []string{"alpine"}},
			setup: func(rt *runtimetest.MockGateway) {
				rt.On("Run", mock.Anything, []string{"alpine"}, mock.Anything).Return(0, nil)
			},
		},
		{
			name:       "image with pull",
			inv:        &compiler.Invocation{Image: "alpine", Run: []string{"alpine"}},
			pullLatest: true,
			setup: func(rt *runtimetest.MockGateway) {
				rt.On("Pull", mock.Anything, "alpine").Return(0, nil)
				rt.On("Run", mock.Anything, []string{"alpine"}, mock.Anything).Return(0, nil)
			},
		},
		{
			name:       "build skips pull",
			inv:        &compiler.Invocation{Image: "dock-p:latest", Build: build, Run: []string{"dock-p:latest"}},
			pullLatest: true,
			setup: func(rt *runtimetest.MockGateway) {
				rt.On("Build", mock.Anything, *build, mock.Anything).Return(0, nil)
				rt.On("Run", mock.Anything, []string{"dock-p:latest"}, mock.Anything).Return(0, nil)
			},
		},
		{
			name: "failed build",
			inv:  &compiler.Invocation{Image: "dock-p:latest", Build: build, Run: []string{"dock-p:latest"}},
			setup: func(rt *runtimetest.MockGateway) {
				rt.On("Build", mock.Anything, *build, mock.Anything).Return(2, nil)
			},
			wantStage: "build",
			wantCode:  2,
		},
		{
			name: "failed run",
			inv:  &compiler.Invocation{Image: "alpine", Run: []string{"alpine", "false"}},
			setup: func(rt *runtimetest.MockGateway) {
				rt.On("Run", mock.Anything, []string{"alpine", "false"}, mock.Anything).Return(1, nil)
			},
			wantStage: "run",
			wantCode:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rt := &runtimetest.MockGateway{}
			tt.setup(rt)

			err := newTestController(rt, nil).Launch(context.Background(), tt.inv, tt.pullLatest)
			rt.AssertExpectations(t)

			if tt.wantStage == "" {
				require.NoError(t, err)
				return
			}
			var launchErr *LaunchError
			require.True(t, errors.As(err, &launchErr))
			assert.Equal(t, tt.wantStage, launchErr.Stage)
			assert.Equal(t, tt.wantCode, launchErr.Code)
			if tt.wantStage == "build" {
				rt.AssertNotCalled(t, "Run", mock.Anything, mock.Anything, mock.Anything)
			}
		})
	}
}

func TestAttach(t *testing.T) {
	rt := &runtimetest.MockGateway{}
	rt.On("Exec", mock.Anything, "proj", []string{"bash"}, mock.MatchedBy(func(o runtime.ExecOptions) bool {
		return o.Interactive && o.TTY
	})).Return(130, nil)

	err := newTestController(rt, nil).Attach(context.Background(), "proj", []string{"bash"}, true)

	var launchErr *LaunchError
	require.True(t, errors.As(err, &launchErr))
	assert.Equal(t, 130, launchErr.Code)
}

func TestDestroyLogs(t *testing.T) {
	rt := &runtimetest.MockGateway{}
	expectDestroy(rt, "proj")
	logger, hook := logtest.NewNullLogger()

	c := New(rt, Options{Stdio: testStdio(), Log: logger})
	require.NoError(t, c.Destroy(context.Background(), "proj"))
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.InfoLevel, hook.LastEntry().Level)
}
