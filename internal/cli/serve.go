package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/aretw0/threadbare/internal/config"
	httpadapter "github.com/aretw0/threadbare/pkg/adapters/http"
)

// ServeOptions configures the HTTP host.
type ServeOptions struct {
	StoryPath  string
	ConfigPath string
	Addr       string
	Debug      bool
	Output     io.Writer
}

// Serve exposes a story over HTTP until SIGINT or SIGTERM.
func Serve(opts ServeOptions) error {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return err
	}
	if opts.Addr != "" {
		cfg.HTTP.Addr = opts.Addr
	}
	logger, err := createLogger(cfg, opts.Debug)
	if err != nil {
		return err
	}

	setup, err := createEngine(opts.StoryPath, cfg, logger, opts.Debug, true)
	if err != nil {
		return err
	}
	defer setup.backend.close()

	engine := setup.engine
	handler := httpadapter.NewHandler(engine.Sessions(), engine.Story().Start.Name,
		httpadapter.WithMetrics(setup.metrics),
		httpadapter.WithLogger(logger),
	)
	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Channel to listen for errors coming from the listener.
	serverErrors := make(chan error, 1)
	go func() {
		fmt.Fprintf(opts.Output, "Starting Threadbare Server on %s\n", srv.Addr)
		fmt.Fprintf(opts.Output, "Serving story: %s (%s store)\n", engine.Story().Name, cfg.Store.Kind)
		serverErrors <- srv.ListenAndServe()
	}()

	sigCtx := NewSignalContext(context.Background())
	defer sigCtx.Cancel()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)

	case <-sigCtx.Done():
		fmt.Fprintf(opts.Output, "\nStart shutdown... Signal: %v\n", sigCtx.Signal())

		// Give outstanding requests a deadline for completion.
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			fmt.Fprintf(opts.Output, "Graceful shutdown did not complete in %v: %v\n", 5*time.Second, err)
			if err := srv.Close(); err != nil {
				return fmt.Errorf("error killing server: %w", err)
			}
		}
		fmt.Fprintln(opts.Output, "Threadbare Server stopped gracefully")
		return nil
	}
}
