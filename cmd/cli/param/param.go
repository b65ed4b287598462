package param

import "github.com/linecard/edgepack/pkg/convention/config"

type GlobalOpts struct {
	Framework       string `arg:"-f,--framework,env:FRAMEWORK" help:"remix, sveltekit, nextjs or auto" default:"remix"`
	DeploymentId    string `arg:"-u,--deployment-id,env:UUID" help:"deployment id substituted into the template"`
	TenantId        string `arg:"-t,--tenant-id,env:TEAM_ID" help:"tenant id substituted into the template"`
	BuildCommand    string `arg:"-c,--build-command,env:BUILD_COMMAND" help:"project build command" default:"npm run build"`
	Bucket          string `arg:"--bucket,env:EDGEPACK_BUCKET" help:"artifact bucket, defaults to edgepack-<tenant>-artifacts"`
	Template        string `arg:"--template,env:EDGEPACK_TEMPLATE" help:"path to a base template overriding the built-in one"`
	MetricsTextfile string `arg:"--metrics-textfile,env:EDGEPACK_METRICS_TEXTFILE" help:"write run metrics to this node_exporter textfile"`
	RepoDir         string `arg:"--repo,env:EDGEPACK_REPO_DIR" help:"project checkout, relative to cwd" default:"repo"`
	OutDir          string `arg:"--out,env:EDGEPACK_OUT_DIR" help:"output tree, relative to cwd" default:"out"`
	Verbose         bool   `arg:"-v,--verbose" help:"log every stage"`
}

// Apply copies the options onto cfg. Empty values keep cfg's defaults.
func (g GlobalOpts) Apply(cfg *config.Config) {
	if g.Framework != "" {
		cfg.Build.Framework = g.Framework
	}

	if g.BuildCommand != "" {
		cfg.Build.Command = g.BuildCommand
	}

	cfg.Build.Template = g.Template
	cfg.Publish.Bucket = g.Bucket
	cfg.Metrics.Textfile = g.MetricsTextfile
	cfg.Parameters.DeploymentId = g.DeploymentId
	cfg.Parameters.TenantId = g.TenantId
}

type Deploy struct{}

type Build struct{}

type Routes struct {
	Json bool `arg:"-j,--json" help:"print behaviors as JSON"`
}

type Config struct{}
