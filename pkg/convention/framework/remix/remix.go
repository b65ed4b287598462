package remix

import (
	"context"
	"embed"
	"os"
	"path/filepath"

	"github.com/linecard/edgepack/internal/tracing"
	"github.com/linecard/edgepack/internal/umwelt"
	"github.com/linecard/edgepack/pkg/artifact"
	"github.com/linecard/edgepack/pkg/convention/config"
	"github.com/linecard/edgepack/pkg/convention/framework"
	"github.com/linecard/edgepack/pkg/service/bundler"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
)

//go:embed embedded/*
var embedded embed.FS

const entryName = "index.js"

var (
	configMarkers = []string{"remix.config.js", "remix.config.mjs", "remix.config.cjs"}
	viteMarkers   = []string{"vite.config.ts", "vite.config.js", "vite.config.mjs"}
)

type Services struct {
	Command framework.CommandService
	Bundler framework.BundlerService
}

type Convention struct {
	Config  config.Config
	Service Services
}

// Layout is where a Remix build leaves its output. Vite builds split
// server and client under build/; the classic compiler writes the server
// to build/ and serves public/ as-is.
type Layout struct {
	Vite   bool
	Server string
	Client string
}

func FromServices(c config.Config, cmd framework.CommandService, b framework.BundlerService) Convention {
	return Convention{
		Config: c,
		Service: Services{
			Command: cmd,
			Bundler: b,
		},
	}
}

func (c Convention) Name() string {
	return framework.Remix
}

func (c Convention) Detect(repoDir string) bool {
	return umwelt.Signature(repoDir, append(configMarkers, viteMarkers...)...)
}

func (c Convention) Layout() Layout {
	repo := c.Config.Workspace.Repo

	if umwelt.Signature(repo, viteMarkers...) {
		return Layout{
			Vite:   true,
			Server: filepath.Join(repo, "build", "server"),
			Client: filepath.Join(repo, "build", "client"),
		}
	}

	return Layout{
		Server: filepath.Join(repo, "build"),
		Client: filepath.Join(repo, "public"),
	}
}

// BuildCompute runs the project build and bundles the server build behind a
// Lambda handler into one module, with the polyfill injected.
func (c Convention) BuildCompute(ctx context.Context) ([]artifact.ComputeUnit, error) {
	ctx, span := otel.Tracer("").Start(ctx, "remix.BuildCompute")
	defer span.End()

	if err := c.Service.Command.Run(ctx, c.Config.Workspace.Repo, c.Config.Build.Command); err != nil {
		return nil, tracing.Fail(span, err)
	}

	layout := c.Layout()
	if err := framework.RequireDir(layout.Server); err != nil {
		return nil, tracing.Fail(span, err)
	}

	handler := filepath.Join(layout.Server, "handler.js")
	polyfill := filepath.Join(layout.Server, "polyfill.js")

	for _, staged := range []string{handler, polyfill} {
		if err := stage(staged); err != nil {
			return nil, tracing.Fail(span, err)
		}
		defer os.Remove(staged)
	}

	outfile := filepath.Join(c.Config.StagingDir(), c.Name(), entryName)

	err := c.Service.Bundler.Bundle(ctx, bundler.Input{
		EntryPoints: []string{handler},
		Outfile:     outfile,
		Inject:      []string{polyfill},
		Minify:      true,
	})

	if err != nil {
		return nil, tracing.Fail(span, err)
	}

	log.Info().Bool("vite", layout.Vite).Str("bundle", outfile).Msg("bundled remix server")

	return []artifact.ComputeUnit{
		{
			Name:      framework.ServerUnit,
			EntryFile: outfile,
			EntryName: entryName,
		},
	}, nil
}

func (c Convention) BuildStatic(ctx context.Context) (string, error) {
	client := c.Layout().Client
	if err := framework.RequireDir(client); err != nil {
		return "", err
	}
	return client, nil
}

func (c Convention) Behaviors(ctx context.Context, mirroredStaticDir string) ([]artifact.RoutingBehavior, error) {
	return framework.EnumerateStatic(ctx, mirroredStaticDir)
}

func stage(destination string) error {
	content, err := embedded.ReadFile("embedded/" + filepath.Base(destination))
	if err != nil {
		return err
	}
	return os.WriteFile(destination, content, 0o644)
}
