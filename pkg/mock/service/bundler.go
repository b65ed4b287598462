package mock

import (
	"context"
	"os"
	"path/filepath"

	"github.com/linecard/edgepack/pkg/service/bundler"

	"github.com/stretchr/testify/mock"
)

// MockBundlerService is a mock of the esbuild wrapper
type MockBundlerService struct {
	mock.Mock
}

func (m *MockBundlerService) Bundle(ctx context.Context, input bundler.Input) error {
	args := m.Called(ctx, input)
	return args.Error(0)
}

// WriteOutput stands in for esbuild writing its result, for use with
// .Run on a Bundle expectation.
func WriteOutput(content string) func(args mock.Arguments) {
	return func(args mock.Arguments) {
		input := args.Get(1).(bundler.Input)

		target := input.Outfile
		if target == "" {
			target = filepath.Join(input.Outdir, "index.mjs")
		}

		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			panic(err)
		}
		if err := os.WriteFile(target, []byte(content), 0o644); err != nil {
			panic(err)
		}
	}
}
