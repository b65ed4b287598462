package deployment

import (
	"context"
	"os"
	"time"

	"github.com/linecard/edgepack/internal/tracing"
	"github.com/linecard/edgepack/internal/util"
	"github.com/linecard/edgepack/pkg/artifact"
	"github.com/linecard/edgepack/pkg/convention/config"
	"github.com/linecard/edgepack/pkg/convention/framework"
	"github.com/linecard/edgepack/pkg/convention/routing"
	"github.com/linecard/edgepack/pkg/failure"
	"github.com/linecard/edgepack/pkg/service/storage"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

type Stage string

const (
	Init           Stage = "init"
	Clean          Stage = "clean"
	Adapt          Stage = "adapt"
	BuildCompute   Stage = "build-compute"
	PackageCompute Stage = "package-compute"
	BuildStatic    Stage = "build-static"
	MirrorStatic   Stage = "mirror-static"
	Synthesize     Stage = "synthesize"
	Publish        Stage = "publish"
)

type ArchiveService interface {
	PackageUnit(ctx context.Context, unit artifact.ComputeUnit, destination string) error
}

type StorageService interface {
	Sync(ctx context.Context, localDir, remote string) (storage.Report, error)
}

type MetricsRecorder interface {
	ObserveStage(stage string, started time.Time, err error)
	ObserveRun(framework string, err error)
}

type Services struct {
	Adapters []framework.Adapter
	Archive  ArchiveService
	Storage  StorageService
	Metrics  MetricsRecorder
}

type Convention struct {
	Config  config.Config
	Service Services
	Routing routing.Convention
}

type Options struct {
	Publish bool
}

// Result is what a run produced. Stages fill it in as they complete.
type Result struct {
	Framework string
	Artifact  artifact.BuildArtifact
	Archives  []string
	Template  string
	Remote    string
	Report    storage.Report
	Stages    []Stage
}

// FromServices takes adapters in auto-detection order.
func FromServices(c config.Config, adapters []framework.Adapter, a ArchiveService, s StorageService, m MetricsRecorder) Convention {
	return Convention{
		Config: c,
		Service: Services{
			Adapters: adapters,
			Archive:  a,
			Storage:  s,
			Metrics:  m,
		},
		Routing: routing.FromConfig(c),
	}
}

// Select resolves the configured framework to an adapter. "auto" takes the
// first adapter that recognizes the project checkout.
func (c Convention) Select() (framework.Adapter, error) {
	name := c.Config.Build.Framework
	repo := c.Config.Workspace.Repo

	if name == framework.Auto {
		for _, adapter := range c.Service.Adapters {
			if adapter.Detect(repo) {
				log.Info().Str("framework", adapter.Name()).Msg("detected framework")
				return adapter, nil
			}
		}
		return nil, failure.Newf(failure.ConfigurationError, repo, "no supported framework detected")
	}

	for _, adapter := range c.Service.Adapters {
		if adapter.Name() == name {
			return adapter, nil
		}
	}

	return nil, failure.Newf(failure.ConfigurationError, "FRAMEWORK", "unsupported framework %q", name)
}

type step struct {
	stage Stage
	run   func(ctx context.Context) error
}

// Run executes the pipeline stages strictly in order and stops at the first
// failure. Publish, the only remote stage, runs last and only when asked.
func (c Convention) Run(ctx context.Context, opts Options) (result Result, err error) {
	ctx, span := otel.Tracer("").Start(ctx, "deployment.Run")
	defer span.End()

	result.Framework = c.Config.Build.Framework
	defer func() {
		c.Service.Metrics.ObserveRun(result.Framework, err)
	}()

	var (
		adapter framework.Adapter
		units   []artifact.ComputeUnit
		static  string
	)

	steps := []step{
		{Init, func(ctx context.Context) error {
			return c.Config.Validate()
		}},
		{Clean, c.clean},
		{Adapt, func(ctx context.Context) (err error) {
			if adapter, err = c.Select(); err == nil {
				result.Framework = adapter.Name()
			}
			return err
		}},
		{BuildCompute, func(ctx context.Context) (err error) {
			units, err = adapter.BuildCompute(ctx)
			return err
		}},
		{PackageCompute, func(ctx context.Context) (err error) {
			result.Archives, err = c.packageUnits(ctx, units)
			return err
		}},
		{BuildStatic, func(ctx context.Context) (err error) {
			static, err = adapter.BuildStatic(ctx)
			return err
		}},
		{MirrorStatic, func(ctx context.Context) error {
			return util.CopyTree(static, c.Config.S3Dir())
		}},
		{Synthesize, func(ctx context.Context) (err error) {
			behaviors, err := adapter.Behaviors(ctx, c.Config.S3Dir())
			if err != nil {
				return err
			}

			if result.Artifact, err = artifact.New(units, c.Config.S3Dir(), behaviors); err != nil {
				return err
			}

			result.Template, err = c.Routing.Synthesize(ctx, adapter.Name(), result.Artifact)
			return err
		}},
	}

	if opts.Publish {
		steps = append(steps, step{Publish, func(ctx context.Context) (err error) {
			result.Remote = c.Config.RemoteUrl()
			result.Report, err = c.Service.Storage.Sync(ctx, c.Config.Workspace.Out, result.Remote)
			return err
		}})
	}

	for _, s := range steps {
		if err := c.stage(ctx, s); err != nil {
			return result, tracing.Fail(span, err)
		}
		result.Stages = append(result.Stages, s.stage)
	}

	return result, nil
}

func (c Convention) stage(ctx context.Context, s step) error {
	ctx, span := otel.Tracer("").Start(ctx, "deployment."+string(s.stage))
	defer span.End()

	span.SetAttributes(attribute.String("stage", string(s.stage)))
	log.Info().Str("stage", string(s.stage)).Msg("stage started")

	started := time.Now()
	err := s.run(ctx)
	c.Service.Metrics.ObserveStage(string(s.stage), started, err)

	if err != nil {
		err = failure.InStage(string(s.stage), err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	log.Info().Str("stage", string(s.stage)).Dur("elapsed", time.Since(started)).Msg("stage finished")
	return nil
}

func (c Convention) clean(ctx context.Context) error {
	if err := util.EnsureCleanDir(c.Config.Workspace.Out); err != nil {
		return err
	}

	for _, dir := range []string{c.Config.LambdaDir(), c.Config.S3Dir(), c.Config.CfnDir()} {
		if err := util.EnsureDir(dir); err != nil {
			return err
		}
	}

	return nil
}

// packageUnits archives each unit in order, then drops the staging tree so
// intermediate bundles never reach the published output.
func (c Convention) packageUnits(ctx context.Context, units []artifact.ComputeUnit) ([]string, error) {
	var archives []string

	for _, unit := range units {
		destination := c.Config.ArchivePath(unit.Name)
		if err := c.Service.Archive.PackageUnit(ctx, unit, destination); err != nil {
			return archives, err
		}
		archives = append(archives, destination)
	}

	return archives, os.RemoveAll(c.Config.StagingDir())
}
