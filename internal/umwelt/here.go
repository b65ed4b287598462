package umwelt

import (
	"context"
	"path/filepath"

	"github.com/linecard/edgepack/internal/gitlib"

	"github.com/rs/zerolog/log"
)

// https://en.wikipedia.org/wiki/Umwelt
//
// Umwelt (German for "environment" or "surroundings") describes the workspace a run executes in.
// Then name was chosen out of a desire to unburden the term "Config" and more accurately describe the activity of the struct.

type ThisWorkspace struct {
	Root string
	Repo string
	Out  string
}

type Here struct {
	Workspace ThisWorkspace
	Git       gitlib.DotGit
	Versioned bool
}

// FromCwd resolves the project checkout and output tree relative to cwd.
// A checkout outside of git is allowed; the source revision is then empty.
func FromCwd(ctx context.Context, cwd, repoDir, outDir string) (here Here, err error) {
	if here.Workspace.Root, err = filepath.Abs(cwd); err != nil {
		return here, err
	}

	here.Workspace.Repo = Resolve(here.Workspace.Root, repoDir)
	here.Workspace.Out = Resolve(here.Workspace.Root, outDir)

	git, err := gitlib.FromDir(here.Workspace.Repo)
	if err != nil {
		log.Debug().Err(err).Str("repo", here.Workspace.Repo).Msg("source revision unavailable")
		return here, nil
	}

	here.Git = git
	here.Versioned = true

	return here, nil
}

func Resolve(root, dir string) string {
	if filepath.IsAbs(dir) {
		return filepath.Clean(dir)
	}
	return filepath.Join(root, dir)
}
