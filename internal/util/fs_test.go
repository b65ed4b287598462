package util

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureCleanDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "stale"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "stale", "old.zip"), []byte("x"), 0o644))

	assert.NoError(t, EnsureCleanDir(dir))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)

	assert.Error(t, EnsureCleanDir(""))
	assert.Error(t, EnsureCleanDir("/"))
}

func TestEnsureDirIsIdempotent(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	assert.NoError(t, EnsureDir(dir))
	assert.NoError(t, EnsureDir(dir))
	assert.True(t, IsDir(dir))
}

func TestCopyTree(t *testing.T) {
	src := t.TempDir()
	dst := filepath.Join(t.TempDir(), "s3")

	require.NoError(t, os.MkdirAll(filepath.Join(src, "assets", "img"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "index.html"), []byte("<html></html>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "assets", "img", "logo.svg"), []byte("<svg/>"), 0o644))

	require.NoError(t, CopyTree(src, dst))

	content, err := os.ReadFile(filepath.Join(dst, "index.html"))
	assert.NoError(t, err)
	assert.Equal(t, "<html></html>", string(content))
	assert.True(t, PathExists(filepath.Join(dst, "assets", "img", "logo.svg")))
}

func TestParseBucketUrl(t *testing.T) {
	cases := []struct {
		url    string
		bucket string
		prefix string
		ok     bool
	}{
		{"s3://bucket/some/prefix/", "bucket", "some/prefix", true},
		{"s3://bucket", "bucket", "", true},
		{"s3://", "", "", false},
		{"https://bucket/prefix", "", "", false},
	}

	for _, tc := range cases {
		bucket, prefix, ok := ParseBucketUrl(tc.url)
		assert.Equalf(t, tc.ok, ok, "ok for %s", tc.url)
		assert.Equalf(t, tc.bucket, bucket, "bucket for %s", tc.url)
		assert.Equalf(t, tc.prefix, prefix, "prefix for %s", tc.url)
	}
}
