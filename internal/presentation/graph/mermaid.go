package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/threadbare/pkg/dsl"
)

// Overlay contains session state to visualize on the graph.
type Overlay struct {
	VisitedNodes []string
	Stack        []string
}

// GenerateMermaid produces a Mermaid flowchart of a story.
// It applies semantic styling:
// - Start: ((Circle))
// - Dead end (no outgoing transfer): [/Parallelogram/]
// - Default: [Rectangle]
// Jumps are solid arrows, detours dotted, options labeled with their text.
// Options behind a condition carry a trailing "?".
func GenerateMermaid(story *dsl.Story, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	outgoing := make(map[string]bool)
	for _, e := range story.Edges {
		outgoing[e.From] = true
	}

	for _, name := range story.Nodes.Names() {
		safeID := sanitizeMermaidID(name)
		opener, closer := "[", "]"
		switch {
		case story.Start != nil && name == story.Start.Name:
			opener, closer = "((", "))"
		case !outgoing[name]:
			opener, closer = "[/", "/]"
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", safeID, opener, name, closer)
	}

	for _, e := range story.Edges {
		from, to := sanitizeMermaidID(e.From), sanitizeMermaidID(e.To)
		arrow := "-->"
		switch e.Kind {
		case dsl.EdgeDetour:
			arrow = "-.->"
		case dsl.EdgeGroup:
			arrow = "-. group .->"
			if e.Conditional {
				arrow = "-. group? .->"
			}
		case dsl.EdgeOption:
			label := strings.ReplaceAll(e.Label, "\"", "'")
			if e.Conditional {
				label += "?"
			}
			arrow = fmt.Sprintf("-- \"%s\" -->", label)
		}
		fmt.Fprintf(&sb, "    %s %s %s\n", from, arrow, to)
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef stacked fill:#fff3e0,stroke:#ef6c00,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		seen := make(map[string]bool)
		for _, id := range overlay.VisitedNodes {
			safeID := sanitizeMermaidID(id)
			if !seen[safeID] && safeID != "" {
				seen[safeID] = true
				fmt.Fprintf(&sb, "    class %s visited;\n", safeID)
			}
		}
		for i, id := range overlay.Stack {
			class := "stacked"
			if i == len(overlay.Stack)-1 {
				class = "current"
			}
			fmt.Fprintf(&sb, "    class %s %s;\n", sanitizeMermaidID(id), class)
		}
	}

	return sb.String()
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}
