package validator

import (
	"fmt"
	"strings"

	"github.com/aretw0/threadbare/pkg/dsl"
)

// Report lists structural findings for a compiled story. Broken references
// never reach this point: the builder rejects them.
type Report struct {
	Reachable   []string
	Unreachable []string
	DeadEnds    []string
}

// ValidateStory crawls the story's transfers breadth-first from its start node.
// Nodes only mentioned by conditions or plural lines do not count as reachable.
func ValidateStory(story *dsl.Story) Report {
	out := make(map[string][]string)
	for _, e := range story.Edges {
		out[e.From] = append(out[e.From], e.To)
	}

	visited := make(map[string]bool)
	var report Report
	queue := []string{story.Start.Name}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if visited[current] {
			continue
		}
		visited[current] = true
		report.Reachable = append(report.Reachable, current)
		for _, target := range out[current] {
			if !visited[target] {
				queue = append(queue, target)
			}
		}
	}

	for _, name := range story.Nodes.Names() {
		if !visited[name] {
			report.Unreachable = append(report.Unreachable, name)
		}
		if len(out[name]) == 0 {
			report.DeadEnds = append(report.DeadEnds, name)
		}
	}
	return report
}

// Err reports unreachable nodes as an error.
func (r Report) Err() error {
	if len(r.Unreachable) == 0 {
		return nil
	}
	return fmt.Errorf("found %d unreachable nodes:\n- %s", len(r.Unreachable), strings.Join(r.Unreachable, "\n- "))
}
