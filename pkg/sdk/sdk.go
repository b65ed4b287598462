package sdk

import (
	"context"

	// config
	"github.com/linecard/edgepack/internal/metrics"
	"github.com/linecard/edgepack/pkg/convention/config"

	// services
	"github.com/linecard/edgepack/pkg/service/archive"
	"github.com/linecard/edgepack/pkg/service/bundler"
	"github.com/linecard/edgepack/pkg/service/command"
	"github.com/linecard/edgepack/pkg/service/storage"

	// conventions
	"github.com/linecard/edgepack/pkg/convention/deployment"
	"github.com/linecard/edgepack/pkg/convention/framework"
	"github.com/linecard/edgepack/pkg/convention/framework/nextjs"
	"github.com/linecard/edgepack/pkg/convention/framework/remix"
	"github.com/linecard/edgepack/pkg/convention/framework/sveltekit"
	"github.com/linecard/edgepack/pkg/convention/routing"

	// clients
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type Clients struct {
	S3Client *s3.Client
}

type Services struct {
	Command command.Service
	Bundler bundler.Service
	Archive archive.Service
	Storage storage.Service
}

type Conventions struct {
	NextJs     nextjs.Convention
	SvelteKit  sveltekit.Convention
	Remix      remix.Convention
	Deployment deployment.Convention
	Routing    routing.Convention
}

type API struct {
	Conventions
	Config  config.Config
	Metrics *metrics.Recorder
}

func Init(ctx context.Context, awsConfig aws.Config, config config.Config) (API, error) {
	recorder := metrics.New()

	clients, err := InitClients(ctx, awsConfig)
	if err != nil {
		return API{}, err
	}

	services, err := InitServices(ctx, clients)
	if err != nil {
		return API{}, err
	}

	conventions, err := InitConventions(ctx, config, services, recorder)
	if err != nil {
		return API{}, err
	}

	return API{
		Conventions: conventions,
		Config:      config,
		Metrics:     recorder,
	}, nil
}

// InitConventions wires the framework adapters in auto-detection order.
// SvelteKit projects carry a vite config too, so Remix goes last.
func InitConventions(ctx context.Context, config config.Config, services Services, recorder deployment.MetricsRecorder) (Conventions, error) {
	nextjsc := nextjs.FromServices(config, services.Command)
	sveltekitc := sveltekit.FromServices(config, services.Command, services.Bundler)
	remixc := remix.FromServices(config, services.Command, services.Bundler)

	adapters := []framework.Adapter{nextjsc, sveltekitc, remixc}

	return Conventions{
		NextJs:     nextjsc,
		SvelteKit:  sveltekitc,
		Remix:      remixc,
		Deployment: deployment.FromServices(config, adapters, services.Archive, services.Storage, recorder),
		Routing:    routing.FromConfig(config),
	}, nil
}

func InitServices(ctx context.Context, clients Clients) (Services, error) {
	cmd, err := command.FromPath(ctx)
	if err != nil {
		return Services{}, err
	}

	return Services{
		Command: cmd,
		Bundler: bundler.New(),
		Archive: archive.New(),
		Storage: storage.FromClients(clients.S3Client),
	}, nil
}

func InitClients(ctx context.Context, awsConfig aws.Config) (Clients, error) {
	return Clients{
		S3Client: s3.NewFromConfig(awsConfig),
	}, nil
}
