package gitlib

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromDir(t *testing.T) {
	root := t.TempDir()
	repo, err := git.PlainInit(root, false)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(root, "package.json"), []byte("{}"), 0o644))

	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add("package.json")
	require.NoError(t, err)

	hash, err := wt.Commit("initial", &git.CommitOptions{
		Author: &object.Signature{Name: "ci", Email: "ci@example.com", When: time.Now()},
	})
	require.NoError(t, err)

	nested := filepath.Join(root, "app", "routes")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	found, err := FromDir(nested)
	assert.NoError(t, err)
	assert.Equal(t, hash.String(), found.Sha)
	assert.Equal(t, "master", found.Branch)
	assert.False(t, found.Dirty)

	require.NoError(t, os.WriteFile(filepath.Join(root, "package.json"), []byte(`{"name":"x"}`), 0o644))
	found, err = FromDir(root)
	assert.NoError(t, err)
	assert.True(t, found.Dirty)
}

func TestFromDirOutsideRepository(t *testing.T) {
	_, err := FromDir(t.TempDir())
	assert.Error(t, err)
}
