package sveltekit

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"sync"

	"github.com/linecard/edgepack/internal/tracing"
	"github.com/linecard/edgepack/internal/umwelt"
	"github.com/linecard/edgepack/pkg/artifact"
	"github.com/linecard/edgepack/pkg/convention/config"
	"github.com/linecard/edgepack/pkg/convention/framework"
	"github.com/linecard/edgepack/pkg/failure"
	"github.com/linecard/edgepack/pkg/service/bundler"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
)

const (
	ConfigFile     = "svelte.config.js"
	AdapterImport  = "import adapter from 'svelte-kit-sst';"
	InstallAdapter = "npm install --save-dev svelte-kit-sst"

	outputDir = ".svelte-kit/svelte-kit-sst"
	banner    = "import { createRequire as topLevelCreateRequire } from 'module';" +
		"const require = topLevelCreateRequire(import.meta.url);"
)

var adapterImport = regexp.MustCompile(`import adapter from .*`)

type Services struct {
	Command framework.CommandService
	Bundler framework.BundlerService
}

type Convention struct {
	Config  config.Config
	Service Services

	rewrite *rewriteOnce
}

type rewriteOnce struct {
	once sync.Once
	err  error
}

func FromServices(c config.Config, cmd framework.CommandService, b framework.BundlerService) Convention {
	return Convention{
		Config: c,
		Service: Services{
			Command: cmd,
			Bundler: b,
		},
		rewrite: &rewriteOnce{},
	}
}

func (c Convention) Name() string {
	return framework.SvelteKit
}

func (c Convention) Detect(repoDir string) bool {
	return umwelt.Signature(repoDir, ConfigFile)
}

// SwapAdapter points svelte.config.js at svelte-kit-sst. The project file is
// left modified; the rewrite happens at most once per Convention built with
// FromServices. A zero Convention rewrites on every call.
func (c Convention) SwapAdapter() error {
	if c.rewrite == nil {
		return swapAdapter(filepath.Join(c.Config.Workspace.Repo, ConfigFile))
	}

	c.rewrite.once.Do(func() {
		c.rewrite.err = swapAdapter(filepath.Join(c.Config.Workspace.Repo, ConfigFile))
	})
	return c.rewrite.err
}

func swapAdapter(path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return failure.New(failure.SourceNotFound, path, err)
	}

	loc := adapterImport.FindIndex(content)
	if loc == nil {
		log.Warn().Str("config", path).Msg("no adapter import to replace")
		return nil
	}

	updated := make([]byte, 0, len(content))
	updated = append(updated, content[:loc[0]]...)
	updated = append(updated, AdapterImport...)
	updated = append(updated, content[loc[1]:]...)

	log.Info().Str("config", path).Msg("swapped sveltekit adapter")
	return os.WriteFile(path, updated, 0o644)
}

func (c Convention) BuildCompute(ctx context.Context) ([]artifact.ComputeUnit, error) {
	ctx, span := otel.Tracer("").Start(ctx, "sveltekit.BuildCompute")
	defer span.End()

	repo := c.Config.Workspace.Repo

	if err := c.SwapAdapter(); err != nil {
		return nil, tracing.Fail(span, err)
	}

	for _, command := range []string{InstallAdapter, c.Config.Build.Command} {
		if err := c.Service.Command.Run(ctx, repo, command); err != nil {
			return nil, tracing.Fail(span, err)
		}
	}

	entry := filepath.Join(repo, outputDir, "server", "lambda-handler", "index.js")
	if err := framework.RequireFile(entry); err != nil {
		return nil, tracing.Fail(span, err)
	}

	staging := filepath.Join(c.Config.StagingDir(), c.Name())

	err := c.Service.Bundler.Bundle(ctx, bundler.Input{
		EntryPoints:  []string{entry},
		Outdir:       staging,
		Format:       bundler.FormatESModule,
		Target:       "esnext",
		Minify:       true,
		OutExtension: map[string]string{".js": ".mjs"},
		Banner:       banner,
	})

	if err != nil {
		return nil, tracing.Fail(span, err)
	}

	return []artifact.ComputeUnit{
		{
			Name:                  framework.ServerUnit,
			EntryDirectory:        staging,
			ExtraAssetDirectories: []string{filepath.Join(repo, outputDir, "prerendered")},
		},
	}, nil
}

func (c Convention) BuildStatic(ctx context.Context) (string, error) {
	client := filepath.Join(c.Config.Workspace.Repo, outputDir, "client")
	if err := framework.RequireDir(client); err != nil {
		return "", err
	}
	return client, nil
}

func (c Convention) Behaviors(ctx context.Context, mirroredStaticDir string) ([]artifact.RoutingBehavior, error) {
	return framework.EnumerateStatic(ctx, mirroredStaticDir)
}
