package mock

import (
	"context"

	"github.com/linecard/edgepack/pkg/service/storage"

	"github.com/stretchr/testify/mock"
)

// MockStorageService is a mock of the S3 mirror
type MockStorageService struct {
	mock.Mock
}

func (m *MockStorageService) Sync(ctx context.Context, localDir, remote string) (storage.Report, error) {
	args := m.Called(ctx, localDir, remote)
	return args.Get(0).(storage.Report), args.Error(1)
}
