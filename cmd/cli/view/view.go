package view

import (
	"encoding/json"
	"io"
	"strings"

	"github.com/linecard/edgepack/pkg/artifact"
	"github.com/linecard/edgepack/pkg/convention/deployment"

	"github.com/jedib0t/go-pretty/v6/table"
)

type BehaviorView struct {
	PathPattern string
	Origin      string
	Ref         string
}

func Behaviors(behaviors []artifact.RoutingBehavior) []BehaviorView {
	views := make([]BehaviorView, 0, len(behaviors))
	for _, b := range behaviors {
		views = append(views, BehaviorView{
			PathPattern: b.PathPattern,
			Origin:      b.OriginKind.String(),
			Ref:         b.OriginRef,
		})
	}
	return views
}

func BehaviorsJson(behaviors []artifact.RoutingBehavior) (string, error) {
	j, err := json.Marshal(Behaviors(behaviors))
	return string(j), err
}

// BehaviorsTable prints behaviors in evaluation order.
func BehaviorsTable(w io.Writer, behaviors []artifact.RoutingBehavior) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"#", "Path Pattern", "Origin", "Ref"})

	for i, b := range Behaviors(behaviors) {
		t.AppendRow(table.Row{i + 1, b.PathPattern, b.Origin, b.Ref})
	}

	t.Render()
}

func SummaryTable(w io.Writer, result deployment.Result) {
	t := table.NewWriter()
	t.SetOutputMirror(w)

	stages := make([]string, 0, len(result.Stages))
	for _, s := range result.Stages {
		stages = append(stages, string(s))
	}

	t.AppendRows([]table.Row{
		{"Framework", result.Framework},
		{"Stages", strings.Join(stages, " > ")},
		{"Archives", strings.Join(result.Archives, "\n")},
		{"Static", result.Artifact.StaticAssetRoot},
		{"Behaviors", len(result.Artifact.RoutingBehaviors)},
		{"Template", result.Template},
	})

	if result.Remote != "" {
		t.AppendSeparator()
		t.AppendRows([]table.Row{
			{"Remote", result.Remote},
			{"Uploaded", len(result.Report.Uploaded)},
			{"Deleted", len(result.Report.Deleted)},
			{"Unchanged", len(result.Report.Unchanged)},
		})
	}

	t.Render()
}
