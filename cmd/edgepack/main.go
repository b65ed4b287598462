package main

import (
	"context"

	"github.com/linecard/edgepack/cmd/cli"
	"github.com/linecard/edgepack/internal/tracing"
	"github.com/rs/zerolog"
)

func main() {
	zerolog.SetGlobalLevel(zerolog.WarnLevel)

	ctx := context.Background()
	_, shutdown := tracing.InitOtel(ctx)
	defer shutdown()

	cli.Invoke(ctx)
}
