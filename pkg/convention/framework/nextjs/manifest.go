package nextjs

import (
	"encoding/json"
	"os"

	"github.com/linecard/edgepack/pkg/artifact"
	"github.com/linecard/edgepack/pkg/convention/framework"
	"github.com/linecard/edgepack/pkg/failure"

	"github.com/rs/zerolog/log"
	"github.com/tidwall/jsonc"
)

// Manifest is the subset of open-next.output.json that drives routing.
// Everything else open-next writes there is ignored.
type Manifest struct {
	Behaviors []ManifestBehavior `json:"behaviors"`
}

type ManifestBehavior struct {
	Pattern      string `json:"pattern"`
	Origin       string `json:"origin"`
	EdgeFunction string `json:"edgeFunction,omitempty"`
}

// ReadManifest parses the open-next output manifest. Comments and trailing
// commas are tolerated.
func ReadManifest(path string) (Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, failure.New(failure.SourceNotFound, path, err)
	}

	var m Manifest
	if err := json.Unmarshal(jsonc.ToJSON(data), &m); err != nil {
		return Manifest{}, failure.New(failure.MalformedArtifact, path, err)
	}

	return m, nil
}

// Classify maps manifest entries onto routing behaviors in manifest order.
// The catch-all under the server origin is the distribution's default
// behavior and is not emitted. Entries with an unrecognized origin tag are
// dropped with a warning.
func (m Manifest) Classify() []artifact.RoutingBehavior {
	var behaviors []artifact.RoutingBehavior

	for _, entry := range m.Behaviors {
		if entry.Pattern == "" {
			log.Warn().Str("origin", entry.Origin).Msg("dropping open-next behavior without a pattern")
			continue
		}

		kind := artifact.ParseOriginKind(entry.Origin)

		var ref string
		switch kind {
		case artifact.Static:
			ref = artifact.StaticOriginRef
		case artifact.Compute:
			if entry.Pattern == artifact.CatchAll {
				continue
			}
			ref = framework.ServerUnit
		case artifact.ImageOptimizer:
			ref = framework.ImageOptimizerUnit
		default:
			log.Warn().
				Str("pattern", entry.Pattern).
				Str("origin", entry.Origin).
				Msg("dropping open-next behavior with unrecognized origin")
			continue
		}

		if entry.EdgeFunction != "" {
			log.Debug().Str("pattern", entry.Pattern).Str("edgeFunction", entry.EdgeFunction).Msg("edge function not deployed")
		}

		behaviors = append(behaviors, artifact.RoutingBehavior{
			PathPattern: entry.Pattern,
			OriginKind:  kind,
			OriginRef:   ref,
		})
	}

	return behaviors
}
