package nextjs

import (
	"context"
	"path/filepath"

	"github.com/linecard/edgepack/internal/tracing"
	"github.com/linecard/edgepack/internal/umwelt"
	"github.com/linecard/edgepack/pkg/artifact"
	"github.com/linecard/edgepack/pkg/convention/config"
	"github.com/linecard/edgepack/pkg/convention/framework"

	"go.opentelemetry.io/otel"
)

const (
	BuildCommand = "npx open-next build"
	ManifestFile = "open-next.output.json"
	openNextDir  = ".open-next"
)

var configMarkers = []string{"next.config.js", "next.config.mjs", "next.config.ts"}

type Services struct {
	Command framework.CommandService
}

type Convention struct {
	Config  config.Config
	Service Services
}

func FromServices(c config.Config, cmd framework.CommandService) Convention {
	return Convention{
		Config: c,
		Service: Services{
			Command: cmd,
		},
	}
}

func (c Convention) Name() string {
	return framework.NextJs
}

func (c Convention) Detect(repoDir string) bool {
	return umwelt.Signature(repoDir, configMarkers...)
}

func (c Convention) dir(parts ...string) string {
	return filepath.Join(append([]string{c.Config.Workspace.Repo, openNextDir}, parts...)...)
}

// BuildCompute runs open-next, which bundles both functions itself.
func (c Convention) BuildCompute(ctx context.Context) ([]artifact.ComputeUnit, error) {
	ctx, span := otel.Tracer("").Start(ctx, "nextjs.BuildCompute")
	defer span.End()

	if err := c.Service.Command.Run(ctx, c.Config.Workspace.Repo, BuildCommand); err != nil {
		return nil, tracing.Fail(span, err)
	}

	units := []artifact.ComputeUnit{
		{Name: framework.ServerUnit, EntryDirectory: c.dir("server-functions", "default")},
		{Name: framework.ImageOptimizerUnit, EntryDirectory: c.dir("image-optimization-function")},
	}

	for _, unit := range units {
		if err := framework.RequireDir(unit.EntryDirectory); err != nil {
			return nil, tracing.Fail(span, err)
		}
	}

	return units, nil
}

func (c Convention) BuildStatic(ctx context.Context) (string, error) {
	assets := c.dir("assets")
	if err := framework.RequireDir(assets); err != nil {
		return "", err
	}
	return assets, nil
}

// Behaviors come from the open-next manifest rather than the mirrored tree.
func (c Convention) Behaviors(ctx context.Context, mirroredStaticDir string) ([]artifact.RoutingBehavior, error) {
	_, span := otel.Tracer("").Start(ctx, "nextjs.Behaviors")
	defer span.End()

	manifest, err := ReadManifest(c.dir(ManifestFile))
	if err != nil {
		return nil, tracing.Fail(span, err)
	}

	return manifest.Classify(), nil
}
