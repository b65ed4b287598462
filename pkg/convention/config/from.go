package config

import (
	"github.com/linecard/edgepack/internal/umwelt"

	"github.com/google/uuid"
)

func FromHere(here umwelt.Here) (c Config) {
	c.Workspace.Root = here.Workspace.Root
	c.Workspace.Repo = here.Workspace.Repo
	c.Workspace.Out = here.Workspace.Out

	c.Git.Branch = here.Git.Branch
	c.Git.Sha = here.Git.Sha
	c.Git.Root = here.Git.Root
	c.Git.Dirty = here.Git.Dirty

	c.Build.Framework = DefaultFramework
	c.Build.Command = DefaultBuildCommand

	c.Parameters.Token = uuid.NewString()

	if here.Versioned {
		c.Parameters.SourceRevision = here.Git.Sha
		if here.Git.Dirty {
			c.Parameters.SourceRevision += "-dirty"
		}
	}

	return
}
