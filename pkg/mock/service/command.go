package mock

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockCommandService is a mock of the build command runner
type MockCommandService struct {
	mock.Mock
}

func (m *MockCommandService) Run(ctx context.Context, dir, command string) error {
	args := m.Called(ctx, dir, command)
	return args.Error(0)
}
