package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/aretw0/threadbare"
	"github.com/aretw0/threadbare/internal/config"
	"github.com/aretw0/threadbare/internal/presentation/tui"
	"github.com/aretw0/threadbare/pkg/host"
)

// DefaultSaveID is the autosave slot used when none is given.
const DefaultSaveID = "default"

// RunOptions contains all the configuration for the Run command.
type RunOptions struct {
	StoryPath  string
	ConfigPath string
	SaveID     string
	JSON       bool
	Headless   bool
	Fast       bool
	Fresh      bool
	Debug      bool

	// Input and Output default to the process stdio.
	Input  io.Reader
	Output io.Writer
}

// Run plays a story in the terminal until it ends or the user interrupts it.
func Run(opts RunOptions) error {
	if opts.Input == nil {
		opts.Input = os.Stdin
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.SaveID == "" {
		opts.SaveID = DefaultSaveID
	}
	quiet := opts.JSON || opts.Headless

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return err
	}
	logger, err := createLogger(cfg, opts.Debug)
	if err != nil {
		return err
	}

	setup, err := createEngine(opts.StoryPath, cfg, logger, opts.Debug, false)
	if err != nil {
		return err
	}
	defer setup.backend.close()
	engine := setup.engine

	sigCtx := NewSignalContext(context.Background())
	defer sigCtx.Cancel()

	if opts.Fresh {
		if err := engine.Store().Delete(sigCtx, opts.SaveID); err != nil {
			return fmt.Errorf("failed to reset save: %w", err)
		}
	}

	if !quiet {
		tui.PrintBanner(opts.Output, threadbare.Version)
		printSystemMessage(opts.Output, "Story '%s', save slot '%s'.", engine.Story().Name, opts.SaveID)
	}

	handler, err := createHandler(opts)
	if err != nil {
		return err
	}

	_, runErr := engine.Run(sigCtx, handler, opts.SaveID,
		host.WithRealtime(!opts.Fast),
		host.WithLogger(logger),
	)
	if sigCtx.Err() != nil && runErr == nil {
		runErr = sigCtx.Err()
	}
	logCompletion(opts.Output, runErr, quiet, sigCtx.Signal())
	return handleExecutionError(runErr)
}

func createHandler(opts RunOptions) (host.IOHandler, error) {
	if opts.JSON {
		return host.NewJSONHandler(opts.Input, opts.Output), nil
	}
	if opts.Headless || !tui.IsInteractive() {
		return host.NewTextHandler(opts.Input, opts.Output), nil
	}
	render, err := tui.NewRenderer(tui.Width())
	if err != nil {
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}
	return host.NewTextHandler(opts.Input, opts.Output,
		host.WithTextHandlerRenderer(render),
		host.WithLineAck(true),
	), nil
}
