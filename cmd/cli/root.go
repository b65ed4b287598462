package cli

import (
	"context"
	"os"

	"github.com/linecard/edgepack/cmd/cli/router"
	"github.com/linecard/edgepack/internal/umwelt"
	"github.com/linecard/edgepack/internal/util"
	"github.com/linecard/edgepack/pkg/convention/config"
	"github.com/linecard/edgepack/pkg/sdk"

	"github.com/alexflint/go-arg"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
)

// Set at link time.
var Version = "dev"

func Invoke(ctx context.Context) {
	ctx, span := otel.Tracer("").Start(ctx, "edgepack")
	defer span.End()

	var root router.Root
	arg.MustParse(&root)

	util.SetLogLevel()
	if root.Verbose {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr}).With().Caller().Logger()

	retryLogger := util.RetryLogger{
		Log: &log.Logger,
	}

	awsConfig, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithLogger(&retryLogger),
		awsconfig.WithClientLogMode(aws.LogRetries))

	if err != nil {
		log.Fatal().Err(err).Msg("failed to load AWS configuration")
	}

	cwd, err := os.Getwd()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to resolve working directory")
	}

	here, err := umwelt.FromCwd(ctx, cwd, root.RepoDir, root.OutDir)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to resolve workspace")
	}

	cfg := config.FromHere(here)
	cfg.Version = Version
	root.GlobalOpts.Apply(&cfg)

	api, err := sdk.Init(ctx, awsConfig, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize SDK")
	}

	root.Handle(ctx, api)
}
