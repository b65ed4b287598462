package mock

import (
	"path/filepath"

	"github.com/linecard/edgepack/internal/gitlib"
	"github.com/linecard/edgepack/internal/umwelt"
)

func FromRoot(root string, gitMock gitlib.DotGit) umwelt.Here {
	return umwelt.Here{
		Workspace: umwelt.ThisWorkspace{
			Root: root,
			Repo: filepath.Join(root, "repo"),
			Out:  filepath.Join(root, "out"),
		},
		Git:       gitMock,
		Versioned: gitMock.Sha != "",
	}
}
