package gitlib

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

type DotGit struct {
	Branch string
	Sha    string
	Root   string
	Dirty  bool
}

// FromDir describes the repository containing dir.
func FromDir(dir string) (found DotGit, err error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return DotGit{}, err
	}

	root, repo, err := FindDotGit(abs)
	if err != nil {
		return DotGit{}, err
	}

	if found.Branch, err = Branch(repo); err != nil {
		return DotGit{}, err
	}

	if found.Sha, err = Sha(repo); err != nil {
		return DotGit{}, err
	}

	if found.Dirty, err = Dirty(repo); err != nil {
		return DotGit{}, err
	}

	found.Root = root

	return found, nil
}

func FindDotGit(cwd string) (root string, repo *git.Repository, err error) {
	for {
		if _, err := os.Stat(filepath.Join(cwd, ".git")); err == nil {
			repo, err := git.PlainOpen(cwd)
			if err != nil {
				return "", nil, err
			}

			return cwd, repo, nil
		}

		parentDir := filepath.Dir(cwd)
		if parentDir == cwd {
			return cwd, nil, fmt.Errorf("this does not appear to be a git repository")
		}
		cwd = parentDir
	}
}

func Head(repo *git.Repository) (plumbing.Reference, error) {
	head, err := repo.Head()
	if err != nil {
		return plumbing.Reference{}, err
	}

	return *head, nil
}

func Branch(repo *git.Repository) (string, error) {
	head, err := Head(repo)
	if err != nil {
		return "", err
	}

	return head.Name().Short(), nil
}

func Sha(repo *git.Repository) (string, error) {
	head, err := Head(repo)
	if err != nil {
		return "", err
	}

	return head.Hash().String(), nil
}

func Dirty(repo *git.Repository) (bool, error) {
	wt, err := repo.Worktree()
	if err != nil {
		return false, err
	}

	status, err := wt.Status()
	if err != nil {
		return false, err
	}

	return !status.IsClean(), nil
}
