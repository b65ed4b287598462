package method

import (
	"context"
	"fmt"
	"os"

	"github.com/linecard/edgepack/cmd/cli/param"
	"github.com/linecard/edgepack/cmd/cli/view"
	"github.com/linecard/edgepack/pkg/convention/deployment"
	"github.com/linecard/edgepack/pkg/sdk"

	"github.com/rs/zerolog/log"
)

func Deploy(ctx context.Context, api sdk.API, p *param.Deploy) {
	run(ctx, api, deployment.Options{Publish: true})
}

func Build(ctx context.Context, api sdk.API, p *param.Build) {
	run(ctx, api, deployment.Options{})
}

func run(ctx context.Context, api sdk.API, opts deployment.Options) {
	result, err := api.Deployment.Run(ctx, opts)

	if werr := api.Metrics.WriteTextfile(api.Config.Metrics.Textfile); werr != nil {
		log.Warn().Err(werr).Str("path", api.Config.Metrics.Textfile).Msg("failed to write metrics textfile")
	}

	if err != nil {
		log.Fatal().Err(err).Str("framework", result.Framework).Msg("pipeline failed")
	}

	view.SummaryTable(os.Stdout, result)
}

func Routes(ctx context.Context, api sdk.API, p *param.Routes) {
	adapter, err := api.Deployment.Select()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to select framework")
	}

	behaviors, err := adapter.Behaviors(ctx, api.Config.S3Dir())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to derive routing behaviors, has the project been built?")
	}

	if !p.Json {
		view.BehaviorsTable(os.Stdout, behaviors)
		return
	}

	j, err := view.BehaviorsJson(behaviors)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to encode routing behaviors")
	}

	fmt.Println(j)
}

func PrintConfig(ctx context.Context, api sdk.API, p *param.Config) {
	cJson, err := api.Config.Json(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to print configuration")
	}

	fmt.Println(cJson)
}
