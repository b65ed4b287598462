package config

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"

	"github.com/linecard/edgepack/pkg/failure"
)

const (
	DefaultFramework    = "remix"
	DefaultBuildCommand = "npm run build"
	TemplateName        = "edgepack-deploy.yaml"
)

type Workspace struct {
	Root string
	Repo string
	Out  string
}

type Git struct {
	Branch string
	Sha    string
	Root   string
	Dirty  bool
}

type Build struct {
	Framework string
	Command   string
	Template  string
}

type Publish struct {
	Bucket string
}

type Metrics struct {
	Textfile string
}

// Parameters are the run-wide identifiers. They are read once at the CLI
// boundary and passed down; nothing below reads the environment.
type Parameters struct {
	DeploymentId   string
	TenantId       string
	Token          string
	SourceRevision string
}

type Config struct {
	Workspace  Workspace
	Git        Git
	Build      Build
	Publish    Publish
	Metrics    Metrics
	Parameters Parameters
	Version    string
}

func (p Parameters) Validate() error {
	if p.DeploymentId == "" {
		return failure.New(failure.ConfigurationError, "UUID", errors.New("deployment id is not set"))
	}

	if p.TenantId == "" {
		return failure.New(failure.ConfigurationError, "TEAM_ID", errors.New("tenant id is not set"))
	}

	return nil
}

func (c Config) Validate() error {
	if err := c.Parameters.Validate(); err != nil {
		return err
	}

	if c.Build.Command == "" {
		return failure.New(failure.ConfigurationError, "BUILD_COMMAND", errors.New("build command is empty"))
	}

	if c.Workspace.Out == "" {
		return failure.Newf(failure.ConfigurationError, "output directory", "output directory is not set")
	}

	// Clean removes the output tree, so it must not hold the workspace or the checkout.
	for _, owned := range []string{c.Workspace.Root, c.Workspace.Repo} {
		if owned != "" && contains(c.Workspace.Out, owned) {
			return failure.Newf(failure.ConfigurationError, c.Workspace.Out, "output directory must not contain %s", owned)
		}
	}

	return nil
}

// contains reports whether path is dir or lies beneath it.
func contains(dir, path string) bool {
	rel, err := filepath.Rel(filepath.Clean(dir), filepath.Clean(path))
	if err != nil {
		return true
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// derived information
func (c Config) LambdaDir() string {
	return filepath.Join(c.Workspace.Out, "lambda")
}

func (c Config) S3Dir() string {
	return filepath.Join(c.Workspace.Out, "s3")
}

func (c Config) CfnDir() string {
	return filepath.Join(c.Workspace.Out, "cfn")
}

func (c Config) CfnPath() string {
	return filepath.Join(c.CfnDir(), TemplateName)
}

// StagingDir holds intermediate bundles. It lives under the output root so
// Clean resets it, and is removed before anything is published.
func (c Config) StagingDir() string {
	return filepath.Join(c.Workspace.Out, ".staging")
}

func (c Config) ArchivePath(unitName string) string {
	return filepath.Join(c.LambdaDir(), unitName+".zip")
}

func (c Config) ArtifactBucket() string {
	if c.Publish.Bucket != "" {
		return c.Publish.Bucket
	}
	return "edgepack-" + c.Parameters.TenantId + "-artifacts"
}

func (c Config) RemoteUrl() string {
	return "s3://" + c.ArtifactBucket() + "/" + c.Parameters.DeploymentId + "/out"
}

// helper methods
func (c Config) Json(ctx context.Context) (string, error) {
	cJson, err := json.Marshal(c)
	if err != nil {
		return "", err
	}

	return string(cJson), nil
}
