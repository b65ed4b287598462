// Package framework holds what the framework adapters share: the adapter
// contract, the services they drive, and static tree enumeration for
// frameworks that do not emit a routing manifest.
package framework

import (
	"context"
	"os"
	"path/filepath"

	"github.com/linecard/edgepack/pkg/artifact"
	"github.com/linecard/edgepack/pkg/failure"
	"github.com/linecard/edgepack/pkg/service/bundler"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"
)

const (
	Remix     = "remix"
	SvelteKit = "sveltekit"
	NextJs    = "nextjs"
	Auto      = "auto"

	ServerUnit         = "server"
	ImageOptimizerUnit = "image-optimizer"
)

type Adapter interface {
	Name() string
	Detect(repoDir string) bool
	BuildCompute(ctx context.Context) ([]artifact.ComputeUnit, error)
	BuildStatic(ctx context.Context) (string, error)
	Behaviors(ctx context.Context, mirroredStaticDir string) ([]artifact.RoutingBehavior, error)
}

type CommandService interface {
	Run(ctx context.Context, dir, command string) error
}

type BundlerService interface {
	Bundle(ctx context.Context, input bundler.Input) error
}

// EnumerateStatic turns the top-level entries of dir into Static behaviors:
// a directory matches itself and everything beneath it, a file matches
// exactly. Entries are stat'ed concurrently but emitted in directory order.
func EnumerateStatic(ctx context.Context, dir string) ([]artifact.RoutingBehavior, error) {
	ctx, span := otel.Tracer("").Start(ctx, "framework.EnumerateStatic")
	defer span.End()

	entries, err := os.ReadDir(dir)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, failure.New(failure.SourceNotFound, dir, err)
	}

	behaviors := make([]artifact.RoutingBehavior, len(entries))

	g, gctx := errgroup.WithContext(ctx)
	for i, entry := range entries {
		i, name := i, entry.Name()
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			info, err := os.Lstat(filepath.Join(dir, name))
			if err != nil {
				return err
			}

			pattern := name
			if info.IsDir() {
				pattern = name + "/*"
			}

			behaviors[i] = artifact.RoutingBehavior{
				PathPattern: pattern,
				OriginKind:  artifact.Static,
				OriginRef:   artifact.StaticOriginRef,
			}

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	return behaviors, nil
}

// RequireDir fails with SourceNotFound when a directory the framework build
// should have produced is missing.
func RequireDir(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return failure.New(failure.SourceNotFound, dir, err)
	}

	if !info.IsDir() {
		return failure.Newf(failure.SourceNotFound, dir, "not a directory")
	}

	return nil
}

func RequireFile(file string) error {
	info, err := os.Stat(file)
	if err != nil {
		return failure.New(failure.SourceNotFound, file, err)
	}

	if info.IsDir() {
		return failure.Newf(failure.SourceNotFound, file, "is a directory")
	}

	return nil
}
