package artifact

import (
	"testing"

	"github.com/linecard/edgepack/pkg/failure"

	"github.com/stretchr/testify/assert"
)

func server() ComputeUnit {
	return ComputeUnit{Name: "server", EntryDirectory: "out/stage/server"}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name      string
		units     []ComputeUnit
		behaviors []RoutingBehavior
		valid     bool
	}{
		{
			name:  "compute then static",
			units: []ComputeUnit{server()},
			behaviors: []RoutingBehavior{
				{"/api/*", Compute, "server"},
				{"/assets/*", Static, StaticOriginRef},
			},
			valid: true,
		},
		{
			name:  "trailing catch-all",
			units: []ComputeUnit{server()},
			behaviors: []RoutingBehavior{
				{"_next/*", Static, StaticOriginRef},
				{"*", Compute, "server"},
			},
			valid: true,
		},
		{
			name:  "catch-all not last",
			units: []ComputeUnit{server()},
			behaviors: []RoutingBehavior{
				{"*", Compute, "server"},
				{"_next/*", Static, StaticOriginRef},
			},
		},
		{
			name:      "dangling compute reference",
			units:     []ComputeUnit{server()},
			behaviors: []RoutingBehavior{{"_next/image*", ImageOptimizer, "image-optimizer"}},
		},
		{
			name:      "static behavior pointing at compute",
			units:     []ComputeUnit{server()},
			behaviors: []RoutingBehavior{{"favicon.ico", Static, "server"}},
		},
		{
			name:  "duplicate pattern",
			units: []ComputeUnit{server()},
			behaviors: []RoutingBehavior{
				{"assets/*", Static, StaticOriginRef},
				{"assets/*", Static, StaticOriginRef},
			},
		},
		{
			name:      "unknown kind",
			units:     []ComputeUnit{server()},
			behaviors: []RoutingBehavior{{"api/*", Unknown, "server"}},
		},
		{
			name:  "duplicate unit",
			units: []ComputeUnit{server(), server()},
		},
		{
			name:  "single file unit without entry name",
			units: []ComputeUnit{{Name: "server", EntryFile: "out/stage/index.js"}},
		},
		{
			name:  "no behaviors",
			units: []ComputeUnit{{Name: "server", EntryFile: "out/stage/index.js", EntryName: "index.js"}},
			valid: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := New(tc.units, "out/s3", tc.behaviors)

			if tc.valid {
				assert.NoError(t, err)
				assert.Equal(t, tc.behaviors, got.RoutingBehaviors)
				return
			}

			assert.ErrorIs(t, err, failure.MalformedArtifact)
			assert.Equal(t, BuildArtifact{}, got)
		})
	}
}

func TestParseOriginKind(t *testing.T) {
	assert.Equal(t, Static, ParseOriginKind("s3"))
	assert.Equal(t, Compute, ParseOriginKind("default"))
	assert.Equal(t, ImageOptimizer, ParseOriginKind("imageOptimizer"))
	assert.Equal(t, Unknown, ParseOriginKind("revalidate"))
	assert.Equal(t, Unknown, ParseOriginKind(""))
}

func TestUnit(t *testing.T) {
	a := BuildArtifact{ComputeUnits: []ComputeUnit{server()}}

	unit, ok := a.Unit("server")
	assert.True(t, ok)
	assert.Equal(t, "out/stage/server", unit.EntryDirectory)

	_, ok = a.Unit("image-optimizer")
	assert.False(t, ok)
}
