package routing

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/template"

	"github.com/linecard/edgepack/internal/tracing"
	"github.com/linecard/edgepack/internal/util"
	"github.com/linecard/edgepack/pkg/artifact"
	"github.com/linecard/edgepack/pkg/convention/config"
	"github.com/linecard/edgepack/pkg/convention/framework"
	"github.com/linecard/edgepack/pkg/failure"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"gopkg.in/yaml.v3"
)

//go:embed embedded/*.yaml embedded/rules/*.tmpl
var embedded embed.FS

const (
	InsertionPoint = "{{ROUTING_RULES}}"

	DeploymentIdPlaceholder   = "{{DEPLOYMENT_ID}}"
	TenantIdPlaceholder       = "{{TENANT_ID}}"
	TokenPlaceholder          = "{{DEPLOYMENT_TOKEN}}"
	SourceRevisionPlaceholder = "{{SOURCE_REVISION}}"
	BucketPlaceholder         = "{{ARTIFACT_BUCKET}}"

	emptyRules = "          []"
)

// Rule shapes use [[ ]] so the {{PLACEHOLDER}} tokens inside them survive
// until parameter substitution.
var rules = template.Must(
	template.New("rules").
		Delims("[[", "]]").
		Funcs(template.FuncMap{"quote": strconv.Quote}).
		ParseFS(embedded, "embedded/rules/*.tmpl"),
)

type Convention struct {
	Config config.Config
}

func FromConfig(c config.Config) Convention {
	return Convention{
		Config: c,
	}
}

// DefaultTemplate is the embedded stack for a framework. Next.js carries an
// image optimizer function and origin; the others share one server stack.
func DefaultTemplate(frameworkName string) (string, error) {
	name := "embedded/ssr.yaml"
	if frameworkName == framework.NextJs {
		name = "embedded/nextjs.yaml"
	}

	content, err := embedded.ReadFile(name)
	if err != nil {
		return "", err
	}

	return string(content), nil
}

// Template returns the configured override, or the embedded default.
func (c Convention) Template(frameworkName string) (string, error) {
	if c.Config.Build.Template == "" {
		return DefaultTemplate(frameworkName)
	}

	content, err := os.ReadFile(c.Config.Build.Template)
	if err != nil {
		return "", failure.New(failure.SourceNotFound, c.Config.Build.Template, err)
	}

	return string(content), nil
}

func shape(kind artifact.OriginKind) (string, error) {
	switch kind {
	case artifact.Static:
		return "static.yaml.tmpl", nil
	case artifact.Compute, artifact.ImageOptimizer:
		return "server.yaml.tmpl", nil
	default:
		return "", fmt.Errorf("no rule shape for origin kind %s", kind)
	}
}

// Rules renders one block per behavior, in order.
func Rules(behaviors []artifact.RoutingBehavior) (string, error) {
	var b strings.Builder

	for _, behavior := range behaviors {
		name, err := shape(behavior.OriginKind)
		if err != nil {
			return "", failure.New(failure.MalformedArtifact, behavior.PathPattern, err)
		}

		if err := rules.ExecuteTemplate(&b, name, behavior); err != nil {
			return "", failure.New(failure.MalformedArtifact, behavior.PathPattern, err)
		}
	}

	if b.Len() == 0 {
		return emptyRules, nil
	}

	return strings.TrimSuffix(b.String(), "\n"), nil
}

func CheckParameters(p config.Parameters) error {
	if p.DeploymentId == "" {
		return failure.New(failure.MissingParameter, "deployment id", errors.New("required for synthesis"))
	}

	if p.TenantId == "" {
		return failure.New(failure.MissingParameter, "tenant id", errors.New("required for synthesis"))
	}

	return nil
}

// Render fills the insertion point with the rule blocks, then replaces every
// placeholder, including those the rule blocks introduced.
func Render(document string, behaviors []artifact.RoutingBehavior, p config.Parameters, bucket string) (string, error) {
	if err := CheckParameters(p); err != nil {
		return "", err
	}

	if !strings.Contains(document, InsertionPoint) {
		return "", failure.Newf(failure.MalformedArtifact, InsertionPoint, "template has no routing rules insertion point")
	}

	block, err := Rules(behaviors)
	if err != nil {
		return "", err
	}

	token := p.Token
	if token == "" {
		token = uuid.NewString()
	}

	rendered := strings.Replace(document, InsertionPoint, block, 1)
	rendered = strings.NewReplacer(
		DeploymentIdPlaceholder, p.DeploymentId,
		TenantIdPlaceholder, p.TenantId,
		TokenPlaceholder, token,
		SourceRevisionPlaceholder, p.SourceRevision,
		BucketPlaceholder, bucket,
	).Replace(rendered)

	if err := Validate(rendered); err != nil {
		return "", err
	}

	return rendered, nil
}

// Validate requires the rendered document to be a YAML mapping.
func Validate(rendered string) error {
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(rendered), &doc); err != nil {
		return failure.New(failure.MalformedArtifact, "rendered template", err)
	}

	if len(doc.Content) == 0 || doc.Content[0].Kind != yaml.MappingNode {
		return failure.Newf(failure.MalformedArtifact, "rendered template", "document is not a mapping")
	}

	return nil
}

// Synthesize renders the routing template for a build and writes it to the
// fixed template path, replacing whatever was there.
func (c Convention) Synthesize(ctx context.Context, frameworkName string, a artifact.BuildArtifact) (string, error) {
	_, span := otel.Tracer("").Start(ctx, "routing.Synthesize")
	defer span.End()

	if err := CheckParameters(c.Config.Parameters); err != nil {
		return "", tracing.Fail(span, err)
	}

	document, err := c.Template(frameworkName)
	if err != nil {
		return "", tracing.Fail(span, err)
	}

	rendered, err := Render(document, a.RoutingBehaviors, c.Config.Parameters, c.Config.ArtifactBucket())
	if err != nil {
		return "", tracing.Fail(span, err)
	}

	path := c.Config.CfnPath()

	if err := os.RemoveAll(path); err != nil {
		return "", tracing.Fail(span, err)
	}

	if err := util.EnsureDir(c.Config.CfnDir()); err != nil {
		return "", tracing.Fail(span, err)
	}

	if err := os.WriteFile(path, []byte(rendered), 0o644); err != nil {
		return "", tracing.Fail(span, err)
	}

	log.Info().Str("template", path).Int("rules", len(a.RoutingBehaviors)).Msg("synthesized routing")

	return path, nil
}
