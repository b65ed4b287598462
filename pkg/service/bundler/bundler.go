package bundler

import (
	"context"
	"fmt"
	"strings"

	"github.com/linecard/edgepack/pkg/failure"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/rs/zerolog/log"
)

type Format string

const (
	FormatDefault  Format = ""
	FormatCommonJS Format = "cjs"
	FormatESModule Format = "esm"
)

// Input describes one bundle. Exactly one of Outfile or Outdir is set:
// Outfile for a single-file bundle, Outdir for a directory of modules.
type Input struct {
	EntryPoints  []string
	Outfile      string
	Outdir       string
	Inject       []string
	Format       Format
	Target       string
	Minify       bool
	OutExtension map[string]string
	Banner       string
}

type Service struct{}

func New() Service {
	return Service{}
}

func (s Service) Bundle(ctx context.Context, i Input) error {
	if (i.Outfile == "") == (i.Outdir == "") {
		return fmt.Errorf("bundle requires exactly one of outfile or outdir")
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	opts := api.BuildOptions{
		EntryPoints:       i.EntryPoints,
		Bundle:            true,
		Outfile:           i.Outfile,
		Outdir:            i.Outdir,
		Inject:            i.Inject,
		Platform:          api.PlatformNode,
		Format:            format(i.Format),
		Target:            target(i.Target),
		MinifyWhitespace:  i.Minify,
		MinifyIdentifiers: i.Minify,
		MinifySyntax:      i.Minify,
		OutExtension:      i.OutExtension,
		Write:             true,
		LogLevel:          api.LogLevelSilent,
	}

	if i.Banner != "" {
		opts.Banner = map[string]string{"js": i.Banner}
	}

	result := api.Build(opts)

	for _, warning := range result.Warnings {
		log.Warn().Str("entry", strings.Join(i.EntryPoints, ",")).Msg(warning.Text)
	}

	if len(result.Errors) > 0 {
		first := result.Errors[0]
		err := fmt.Errorf("%s", first.Text)
		if first.Location != nil {
			err = fmt.Errorf("%s:%d: %s", first.Location.File, first.Location.Line, first.Text)
		}
		if len(result.Errors) > 1 {
			err = fmt.Errorf("%w (and %d more errors)", err, len(result.Errors)-1)
		}
		return failure.New(failure.ExternalToolFailure, "esbuild "+strings.Join(i.EntryPoints, ","), err)
	}

	return nil
}

func format(f Format) api.Format {
	switch f {
	case FormatCommonJS:
		return api.FormatCommonJS
	case FormatESModule:
		return api.FormatESModule
	default:
		return api.FormatDefault
	}
}

func target(t string) api.Target {
	switch strings.ToLower(t) {
	case "es2020":
		return api.ES2020
	case "es2022":
		return api.ES2022
	case "esnext":
		return api.ESNext
	default:
		return api.DefaultTarget
	}
}
