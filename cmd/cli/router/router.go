package router

import (
	"context"
	"os"

	"github.com/linecard/edgepack/cmd/cli/method"
	"github.com/linecard/edgepack/cmd/cli/param"
	"github.com/linecard/edgepack/pkg/sdk"

	"github.com/alexflint/go-arg"
)

type Root struct {
	param.GlobalOpts
	Deploy *param.Deploy `arg:"subcommand:deploy" help:"Build, package, synthesize and publish"`
	Build  *param.Build  `arg:"subcommand:build" help:"Everything deploy does except publishing"`
	Routes *param.Routes `arg:"subcommand:routes" help:"Print routing behaviors of the current build tree"`
	Config *param.Config `arg:"subcommand:config" help:"Print configuration"`
}

func (r Root) Description() string {
	return "edgepack normalizes Remix, SvelteKit and Next.js builds into Lambda archives, a static mirror and a CDN template\n"
}

func (r Root) Handle(ctx context.Context, api sdk.API) {
	switch {
	case r.Deploy != nil:
		method.Deploy(ctx, api, r.Deploy)

	case r.Build != nil:
		method.Build(ctx, api, r.Build)

	case r.Routes != nil:
		method.Routes(ctx, api, r.Routes)

	case r.Config != nil:
		method.PrintConfig(ctx, api, r.Config)

	default:
		arg.MustParse(&r).WriteHelp(os.Stdout)
	}
}
