package mock

import (
	"context"

	"github.com/linecard/edgepack/pkg/artifact"

	"github.com/stretchr/testify/mock"
)

// MockAdapter is a mock of a framework adapter
type MockAdapter struct {
	mock.Mock
}

func (m *MockAdapter) Name() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockAdapter) Detect(repoDir string) bool {
	args := m.Called(repoDir)
	return args.Bool(0)
}

func (m *MockAdapter) BuildCompute(ctx context.Context) ([]artifact.ComputeUnit, error) {
	args := m.Called(ctx)
	return args.Get(0).([]artifact.ComputeUnit), args.Error(1)
}

func (m *MockAdapter) BuildStatic(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *MockAdapter) Behaviors(ctx context.Context, mirroredStaticDir string) ([]artifact.RoutingBehavior, error) {
	args := m.Called(ctx, mirroredStaticDir)
	return args.Get(0).([]artifact.RoutingBehavior), args.Error(1)
}
