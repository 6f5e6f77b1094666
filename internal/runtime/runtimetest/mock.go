// Package runtimetest provides a testify mock of the runtime gateway.
package runtimetest

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/skorokithakis/dock/internal/runtime"
)

// MockGateway is a mock implementation of runtime.Gateway for testing.
type MockGateway struct {
	mock.Mock
}

var _ runtime.Gateway = (*MockGateway)(nil)

// Ping mocks the Ping method
func (m *MockGateway) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// Status mocks the Status method
func (m *MockGateway) Status(ctx context.Context, name string) (runtime.Status, error) {
	args := m.Called(ctx, name)
	return args.Get(0).(runtime.Status), args.Error(1)
}

// Exists mocks the Exists method
func (m *MockGateway) Exists(ctx context.Context, name string) (bool, error) {
	args := m.Called(ctx, name)
	return args.Bool(0), args.Error(1)
}

// Labels mocks the Labels method
func (m *MockGateway) Labels(ctx context.Context, name string) (map[string]string, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]string), args.Error(1)
}

// Run mocks the Run method
func (m *MockGateway) Run(ctx context.Context, runArgs []string, stdio runtime.Stdio) (int, error) {
	args := m.Called(ctx, runArgs, stdio)
	return args.Int(0), args.Error(1)
}

// Build mocks the Build method
func (m *MockGateway) Build(ctx context.Context, spec runtime.BuildSpec, stdio runtime.Stdio) (int, error) {
	args := m.Called(ctx, spec, stdio)
	return args.Int(0), args.Error(1)
}

// Pull mocks the Pull method
func (m *MockGateway) Pull(ctx context.Context, image string) (int, error) {
	args := m.Called(ctx, image)
	return args.Int(0), args.Error(1)
}

// Rename mocks the Rename method
func (m *MockGateway) Rename(ctx context.Context, oldName, newName string) error {
	args := m.Called(ctx, oldName, newName)
	return args.Error(0)
}

// Commit mocks the Commit method
func (m *MockGateway) Commit(ctx context.Context, name, tag string) error {
	args := m.Called(ctx, name, tag)
	return args.Error(0)
}

// Stop mocks the Stop method
func (m *MockGateway) Stop(ctx context.Context, name string) error {
	args := m.Called(ctx, name)
	return args.Error(0)
}

// Kill mocks the Kill method
func (m *MockGateway) Kill(ctx context.Context, name string) error {
	args := m.Called(ctx, name)
	return args.Error(0)
}

// Remove mocks the Remove method
func (m *MockGateway) Remove(ctx context.Context, name string, force bool) error {
	args := m.Called(ctx, name, force)
	return args.Error(0)
}

// Exec mocks the Exec method
func (m *MockGateway) Exec(ctx context.Context, name string, cmd []string, opts runtime.ExecOptions) (int, error) {
	args := m.Called(ctx, name, cmd, opts)
	if fn, ok := args.Get(0).(func(context.Context, string, []string, runtime.ExecOptions) (int, error)); ok {
		return fn(ctx, name, cmd, opts)
	}
	return args.Int(0), args.Error(1)
}

// List mocks the List method
func (m *MockGateway) List(ctx context.Context, filter runtime.ListFilter) ([]runtime.Container, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]runtime.Container), args.Error(1)
}

// Binary mocks the Binary method
func (m *MockGateway) Binary() string {
	args := m.Called()
	return args.String(0)
}

// Mounts mocks the Mounts method
func (m *MockGateway) Mounts() []string {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]string)
}
