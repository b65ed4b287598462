package command

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/linecard/edgepack/pkg/failure"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func service(t *testing.T) (Service, *bytes.Buffer) {
	t.Helper()

	s, err := FromPath(context.Background())
	require.NoError(t, err)

	var out bytes.Buffer
	s.Stdout = &out
	s.Stderr = &out
	return s, &out
}

func TestRunInDirectory(t *testing.T) {
	s, out := service(t)
	dir := t.TempDir()

	require.NoError(t, s.Run(context.Background(), dir, "echo built > marker && echo done"))

	assert.FileExists(t, filepath.Join(dir, "marker"))
	assert.Equal(t, "done\n", out.String())
}

func TestRunNonZeroExit(t *testing.T) {
	s, _ := service(t)

	err := s.Run(context.Background(), t.TempDir(), "exit 3")

	assert.ErrorIs(t, err, failure.ExternalToolFailure)
	assert.Contains(t, err.Error(), "exit 3")
}

func TestRunMissingDirectory(t *testing.T) {
	s, _ := service(t)

	err := s.Run(context.Background(), filepath.Join(os.TempDir(), "edgepack-does-not-exist"), "true")

	assert.ErrorIs(t, err, failure.ExternalToolFailure)
}
