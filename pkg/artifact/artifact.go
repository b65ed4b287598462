// Package artifact is the framework-independent description of one build's
// deployable outputs: compute bundles, a static asset tree, and the ordered
// routing behaviors a CDN evaluates first-match.
package artifact

import (
	"fmt"

	"github.com/linecard/edgepack/pkg/failure"
)

const (
	StaticOriginRef = "s3"
	CatchAll        = "*"
)

type OriginKind int

const (
	Unknown OriginKind = iota
	Static
	Compute
	ImageOptimizer
)

func (k OriginKind) String() string {
	switch k {
	case Static:
		return "Static"
	case Compute:
		return "Compute"
	case ImageOptimizer:
		return "ImageOptimizer"
	default:
		return "Unknown"
	}
}

// ParseOriginKind maps the origin tags open-next writes into its output manifest.
func ParseOriginKind(tag string) OriginKind {
	switch tag {
	case "s3":
		return Static
	case "default":
		return Compute
	case "imageOptimizer":
		return ImageOptimizer
	default:
		return Unknown
	}
}

type ComputeUnit struct {
	Name                  string
	EntryDirectory        string
	ExtraAssetDirectories []string

	// EntryFile, when set, is a single bundled module that is archived alone
	// under EntryName. The packager owns and removes it.
	EntryFile string
	EntryName string
}

type RoutingBehavior struct {
	PathPattern string
	OriginKind  OriginKind
	OriginRef   string
}

type BuildArtifact struct {
	ComputeUnits     []ComputeUnit
	StaticAssetRoot  string
	RoutingBehaviors []RoutingBehavior
}

// New assembles a BuildArtifact and rejects anything that would render
// broken infrastructure.
func New(units []ComputeUnit, staticAssetRoot string, behaviors []RoutingBehavior) (BuildArtifact, error) {
	a := BuildArtifact{
		ComputeUnits:     units,
		StaticAssetRoot:  staticAssetRoot,
		RoutingBehaviors: behaviors,
	}

	if err := a.Validate(); err != nil {
		return BuildArtifact{}, err
	}

	return a, nil
}

func (a BuildArtifact) Validate() error {
	units := make(map[string]bool, len(a.ComputeUnits))
	for _, unit := range a.ComputeUnits {
		if unit.Name == "" {
			return malformed("compute unit", "compute unit has no name")
		}
		if units[unit.Name] {
			return malformed(unit.Name, "duplicate compute unit name")
		}
		if unit.EntryDirectory == "" && unit.EntryFile == "" {
			return malformed(unit.Name, "compute unit has neither an entry directory nor an entry file")
		}
		if unit.EntryFile != "" && unit.EntryName == "" {
			return malformed(unit.Name, "single file compute unit has no entry name")
		}
		units[unit.Name] = true
	}

	patterns := make(map[string]bool, len(a.RoutingBehaviors))
	last := len(a.RoutingBehaviors) - 1

	for i, behavior := range a.RoutingBehaviors {
		pattern := behavior.PathPattern

		if pattern == "" {
			return malformed(fmt.Sprintf("behavior %d", i), "empty path pattern")
		}

		if patterns[pattern] {
			return malformed(pattern, "duplicate path pattern")
		}
		patterns[pattern] = true

		if pattern == CatchAll && i != last {
			return malformed(pattern, "catch-all pattern must be the last behavior")
		}

		switch behavior.OriginKind {
		case Static:
			if behavior.OriginRef != StaticOriginRef {
				return malformed(pattern, "static behavior references %q, expected %q", behavior.OriginRef, StaticOriginRef)
			}
		case Compute, ImageOptimizer:
			if !units[behavior.OriginRef] {
				return malformed(pattern, "%s behavior references unknown compute unit %q", behavior.OriginKind, behavior.OriginRef)
			}
		default:
			return malformed(pattern, "behavior has unrecognized origin kind")
		}
	}

	return nil
}

func (a BuildArtifact) Unit(name string) (ComputeUnit, bool) {
	for _, unit := range a.ComputeUnits {
		if unit.Name == name {
			return unit, true
		}
	}
	return ComputeUnit{}, false
}

func malformed(subject, format string, args ...any) error {
	return failure.Newf(failure.MalformedArtifact, subject, format, args...)
}
