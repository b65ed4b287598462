package mocks

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/linecard/edgepack/internal/gitlib"
	"github.com/linecard/edgepack/pkg/convention/config"
	mockfixture "github.com/linecard/edgepack/pkg/mock/fixture"
	mockumwelt "github.com/linecard/edgepack/pkg/mock/umwelt"
)

const (
	DeploymentId = "dep-1"
	TenantId     = "team-9"
	Token        = "00000000-0000-4000-8000-000000000000"
	Sha          = "0123456789abcdef0123456789abcdef01234567"
)

// MockWorkspace lays out a workspace with the given files under repo/ and
// returns a config pointing at it with fixed run parameters.
func MockWorkspace(t testing.TB, files map[string]string) config.Config {
	t.Helper()

	root := t.TempDir()
	here := mockumwelt.FromRoot(root, gitlib.DotGit{
		Branch: "main",
		Sha:    Sha,
		Root:   filepath.Join(root, "repo"),
	})

	if err := os.MkdirAll(here.Workspace.Repo, os.ModePerm); err != nil {
		t.Fatalf("failed to create repo directory: %v", err)
	}

	WriteFiles(t, here.Workspace.Repo, files)

	c := config.FromHere(here)
	c.Parameters.DeploymentId = DeploymentId
	c.Parameters.TenantId = TenantId
	c.Parameters.Token = Token

	return c
}

// WriteFiles creates files relative to root. A value beginning with
// "fixture:" is copied from the embedded fixtures instead.
func WriteFiles(t testing.TB, root string, files map[string]string) {
	t.Helper()

	for name, content := range files {
		dst := filepath.Join(root, filepath.FromSlash(name))

		if fixture, ok := cutFixture(content); ok {
			if err := mockfixture.Copy(fixture, dst); err != nil {
				t.Fatalf("failed to copy fixture %s: %v", fixture, err)
			}
			continue
		}

		if err := os.MkdirAll(filepath.Dir(dst), os.ModePerm); err != nil {
			t.Fatalf("failed to create directory for %s: %v", name, err)
		}

		if err := os.WriteFile(dst, []byte(content), 0o644); err != nil {
			t.Fatalf("failed to write %s: %v", name, err)
		}
	}
}

func cutFixture(content string) (string, bool) {
	const prefix = "fixture:"
	if len(content) > len(prefix) && content[:len(prefix)] == prefix {
		return content[len(prefix):], true
	}
	return "", false
}
