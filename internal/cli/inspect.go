package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/threadbare/internal/config"
	"github.com/aretw0/threadbare/internal/presentation/graph"
	"github.com/aretw0/threadbare/internal/validator"
	"github.com/aretw0/threadbare/pkg/dsl"
	"github.com/aretw0/threadbare/pkg/script"
)

// Validate compiles a story and reports unreachable nodes. Dead ends are listed
// for information only.
func Validate(storyPath, configPath string, w io.Writer) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	story, err := dsl.LoadFile(storyPath, dsl.WithBaseLimits(cfg.Limits))
	if err != nil {
		return err
	}

	report := validator.ValidateStory(story)
	fmt.Fprintf(w, "Story '%s': %d nodes, %d transfers, start '%s'\n",
		story.Name, len(story.Nodes), len(story.Edges), story.Start.Name)
	fmt.Fprintf(w, "Limits: stack %d, line %d bytes, %d options of %d bytes, %d once keys\n",
		story.Limits.MaxStackDepth, story.Limits.LineBufferSize,
		story.Limits.MaxOptions, story.Limits.OptionBufferSize, story.Limits.OnceCount)
	if len(report.DeadEnds) > 0 {
		fmt.Fprintf(w, "Dead ends: %s\n", strings.Join(report.DeadEnds, ", "))
	}
	return report.Err()
}

// GraphOptions configures the Graph command.
type GraphOptions struct {
	StoryPath  string
	ConfigPath string
	// SaveID, when set, overlays the visited nodes and stack of that save.
	SaveID string
}

// Graph writes a Mermaid flowchart of the story to w.
func Graph(opts GraphOptions, w io.Writer) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return err
	}
	story, err := dsl.LoadFile(opts.StoryPath, dsl.WithBaseLimits(cfg.Limits))
	if err != nil {
		return err
	}

	var overlay *graph.Overlay
	if opts.SaveID != "" {
		be, err := openStore(cfg.Store)
		if err != nil {
			return err
		}
		defer be.close()

		snap, err := be.store.Load(context.Background(), opts.SaveID)
		if err != nil {
			return fmt.Errorf("failed to load save %s: %w", opts.SaveID, err)
		}
		r, err := script.New(story.RunnerOptions()...)
		if err != nil {
			return err
		}
		if err := r.Restore(snap, story.Nodes); err != nil {
			return fmt.Errorf("save %s does not match the story: %w", opts.SaveID, err)
		}
		overlay = &graph.Overlay{VisitedNodes: story.Visited(r)}
		for _, f := range r.Frames() {
			overlay.Stack = append(overlay.Stack, f.Node.Name)
		}
	}

	fmt.Fprint(w, graph.GenerateMermaid(story, overlay))
	return nil
}
