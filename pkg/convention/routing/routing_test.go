package routing

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/linecard/edgepack/pkg/artifact"
	"github.com/linecard/edgepack/pkg/convention/config"
	"github.com/linecard/edgepack/pkg/failure"
	mockrepo "github.com/linecard/edgepack/pkg/mock/repo"

	"github.com/gkampitakis/go-snaps/snaps"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

var parameters = config.Parameters{
	DeploymentId:   "dep-1",
	TenantId:       "team-9",
	Token:          "00000000-0000-4000-8000-000000000000",
	SourceRevision: "0123456",
}

type behaviorDoc struct {
	PathPattern    string   `yaml:"PathPattern"`
	TargetOriginId string   `yaml:"TargetOriginId"`
	AllowedMethods []string `yaml:"AllowedMethods"`
	CachePolicyId  string   `yaml:"CachePolicyId"`
	Functions      []struct {
		EventType string `yaml:"EventType"`
	} `yaml:"FunctionAssociations"`
}

func cacheBehaviors(t *testing.T, rendered string) []behaviorDoc {
	t.Helper()

	var doc struct {
		Resources struct {
			Distribution struct {
				Properties struct {
					DistributionConfig struct {
						CacheBehaviors []behaviorDoc `yaml:"CacheBehaviors"`
					} `yaml:"DistributionConfig"`
				} `yaml:"Properties"`
			} `yaml:"Distribution"`
		} `yaml:"Resources"`
	}

	var node yaml.Node
	require.NoError(t, yaml.Unmarshal([]byte(rendered), &node))
	stripTags(&node)
	require.NoError(t, node.Decode(&doc))

	return doc.Resources.Distribution.Properties.DistributionConfig.CacheBehaviors
}

// stripTags drops CloudFormation intrinsic tags so the document decodes into
// plain structs.
func stripTags(n *yaml.Node) {
	if strings.HasPrefix(n.Tag, "!") && !strings.HasPrefix(n.Tag, "!!") {
		n.Tag = ""
		if n.Kind == yaml.SequenceNode {
			n.Kind = yaml.ScalarNode
			n.Style = 0
			n.Value = "intrinsic"
			n.Content = nil
		}
	}
	for _, child := range n.Content {
		stripTags(child)
	}
}

func TestRenderPreservesOrder(t *testing.T) {
	behaviors := []artifact.RoutingBehavior{
		{PathPattern: "/api/*", OriginKind: artifact.Compute, OriginRef: "server"},
		{PathPattern: "_next/image*", OriginKind: artifact.ImageOptimizer, OriginRef: "image-optimizer"},
		{PathPattern: "/assets/*", OriginKind: artifact.Static, OriginRef: "s3"},
	}

	document, err := DefaultTemplate("nextjs")
	require.NoError(t, err)

	rendered, err := Render(document, behaviors, parameters, "bucket")
	require.NoError(t, err)

	api := strings.Index(rendered, `PathPattern: "/api/*"`)
	image := strings.Index(rendered, `PathPattern: "_next/image*"`)
	assets := strings.Index(rendered, `PathPattern: "/assets/*"`)
	require.True(t, api > 0 && image > 0 && assets > 0)
	assert.Less(t, api, image)
	assert.Less(t, image, assets)

	got := cacheBehaviors(t, rendered)
	require.Len(t, got, 3)

	assert.Equal(t, "edgepack-dep-1-server", got[0].TargetOriginId)
	assert.Equal(t, []string{"DELETE", "GET", "HEAD", "OPTIONS", "PATCH", "POST", "PUT"}, got[0].AllowedMethods)
	require.Len(t, got[0].Functions, 1)
	assert.Equal(t, "viewer-request", got[0].Functions[0].EventType)

	assert.Equal(t, "edgepack-dep-1-image-optimizer", got[1].TargetOriginId)
	assert.Len(t, got[1].AllowedMethods, 7)

	assert.Equal(t, "edgepack-dep-1-s3", got[2].TargetOriginId)
	assert.Equal(t, []string{"GET", "HEAD", "OPTIONS"}, got[2].AllowedMethods)
	assert.Empty(t, got[2].Functions)
	assert.NotEqual(t, got[0].CachePolicyId, got[2].CachePolicyId)
}

func TestRenderSubstitutesEveryPlaceholder(t *testing.T) {
	for _, name := range []string{"remix", "sveltekit", "nextjs"} {
		t.Run(name, func(t *testing.T) {
			document, err := DefaultTemplate(name)
			require.NoError(t, err)
			require.Contains(t, document, DeploymentIdPlaceholder)

			rendered, err := Render(document, []artifact.RoutingBehavior{
				{PathPattern: "assets/*", OriginKind: artifact.Static, OriginRef: "s3"},
			}, parameters, "edgepack-team-9-artifacts")
			require.NoError(t, err)

			for _, token := range []string{InsertionPoint, DeploymentIdPlaceholder, TenantIdPlaceholder, TokenPlaceholder, SourceRevisionPlaceholder, BucketPlaceholder} {
				assert.NotContains(t, rendered, token)
			}

			assert.Contains(t, rendered, "dep-1")
			assert.Contains(t, rendered, "team-9")
			assert.Contains(t, rendered, parameters.Token)
			assert.Contains(t, rendered, "S3Bucket: edgepack-team-9-artifacts")
		})
	}
}

func TestRenderEmptyBehaviors(t *testing.T) {
	document, err := DefaultTemplate("remix")
	require.NoError(t, err)

	rendered, err := Render(document, nil, parameters, "bucket")
	require.NoError(t, err)
	assert.Empty(t, cacheBehaviors(t, rendered))
}

func TestRenderGeneratesTokenWhenUnset(t *testing.T) {
	p := parameters
	p.Token = ""

	rendered, err := Render("Token: {{DEPLOYMENT_TOKEN}}\nRules:\n{{ROUTING_RULES}}\n", nil, p, "bucket")
	require.NoError(t, err)
	assert.NotContains(t, rendered, TokenPlaceholder)
	assert.Regexp(t, `Token: [0-9a-f-]{36}`, rendered)
}

func TestRenderErrors(t *testing.T) {
	tests := []struct {
		name      string
		document  string
		behaviors []artifact.RoutingBehavior
		params    func(p *config.Parameters)
		kind      failure.Kind
	}{
		{
			name:     "missing tenant",
			document: "{{ROUTING_RULES}}",
			params:   func(p *config.Parameters) { p.TenantId = "" },
			kind:     failure.MissingParameter,
		},
		{
			name:     "missing deployment",
			document: "{{ROUTING_RULES}}",
			params:   func(p *config.Parameters) { p.DeploymentId = "" },
			kind:     failure.MissingParameter,
		},
		{
			name:     "no insertion point",
			document: "Resources: {}\n",
			params:   func(p *config.Parameters) {},
			kind:     failure.MalformedArtifact,
		},
		{
			name:      "unknown origin kind",
			document:  "Rules:\n{{ROUTING_RULES}}\n",
			behaviors: []artifact.RoutingBehavior{{PathPattern: "x", OriginKind: artifact.Unknown, OriginRef: "x"}},
			params:    func(p *config.Parameters) {},
			kind:      failure.MalformedArtifact,
		},
		{
			name:     "rendered document is not yaml",
			document: "Rules: [\n{{ROUTING_RULES}}\n",
			params:   func(p *config.Parameters) {},
			kind:     failure.MalformedArtifact,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := parameters
			tc.params(&p)

			_, err := Render(tc.document, tc.behaviors, p, "bucket")
			assert.ErrorIs(t, err, tc.kind)
		})
	}
}

func TestSynthesize(t *testing.T) {
	ctx := context.Background()
	a := artifact.BuildArtifact{
		ComputeUnits: []artifact.ComputeUnit{{Name: "server", EntryDirectory: "unused"}},
		RoutingBehaviors: []artifact.RoutingBehavior{
			{PathPattern: "/api/*", OriginKind: artifact.Compute, OriginRef: "server"},
			{PathPattern: "/assets/*", OriginKind: artifact.Static, OriginRef: "s3"},
		},
	}

	t.Run("replaces an existing directory at the template path", func(t *testing.T) {
		c := mockrepo.MockWorkspace(t, nil)
		require.NoError(t, os.MkdirAll(filepath.Join(c.CfnPath(), "stale"), 0o755))

		path, err := FromConfig(c).Synthesize(ctx, "remix", a)
		require.NoError(t, err)
		assert.Equal(t, c.CfnPath(), path)

		content, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Less(t, strings.Index(string(content), "/api/*"), strings.Index(string(content), "/assets/*"))

		snaps.MatchSnapshot(t, string(content))
	})

	t.Run("missing tenant writes nothing", func(t *testing.T) {
		c := mockrepo.MockWorkspace(t, nil)
		c.Parameters.TenantId = ""
		c.Build.Template = filepath.Join(c.Workspace.Root, "does-not-exist.yaml")

		_, err := FromConfig(c).Synthesize(ctx, "remix", a)
		assert.ErrorIs(t, err, failure.MissingParameter)
		assert.NoFileExists(t, c.CfnPath())
		assert.NoDirExists(t, c.CfnDir())
	})

	t.Run("template override", func(t *testing.T) {
		c := mockrepo.MockWorkspace(t, nil)
		c.Build.Template = filepath.Join(c.Workspace.Root, "custom.yaml")
		require.NoError(t, os.WriteFile(c.Build.Template, []byte("Stack: {{DEPLOYMENT_ID}}\nBehaviors:\n{{ROUTING_RULES}}\n"), 0o644))

		path, err := FromConfig(c).Synthesize(ctx, "remix", a)
		require.NoError(t, err)

		content, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(string(content), "Stack: dep-1\n"))
	})

	t.Run("missing template override", func(t *testing.T) {
		c := mockrepo.MockWorkspace(t, nil)
		c.Build.Template = filepath.Join(c.Workspace.Root, "missing.yaml")

		_, err := FromConfig(c).Synthesize(ctx, "remix", a)
		assert.ErrorIs(t, err, failure.SourceNotFound)
	})
}
