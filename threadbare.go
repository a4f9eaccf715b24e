package threadbare

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/aretw0/threadbare/pkg/adapters/memory"
	"github.com/aretw0/threadbare/pkg/domain"
	"github.com/aretw0/threadbare/pkg/dsl"
	"github.com/aretw0/threadbare/pkg/host"
	"github.com/aretw0/threadbare/pkg/ports"
	"github.com/aretw0/threadbare/pkg/script"
	"github.com/aretw0/threadbare/pkg/session"
)

// Version is the release of the module, reported by the CLI and the HTTP adapter.
const Version = "0.3.0"

// Engine is the high-level entry point for the Threadbare library.
// It binds a compiled story to a save store and hands out runners and sessions.
type Engine struct {
	story    *dsl.Story
	store    ports.SaveStore
	locker   ports.DistributedLocker
	hooks    domain.LifecycleHooks
	tickRate float64
	logger   *slog.Logger
	sessions *session.Manager
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithStore sets where sessions and autosaves are kept (default: in memory).
func WithStore(store ports.SaveStore) Option {
	return func(e *Engine) {
		e.store = store
	}
}

// WithLocker serializes sessions across processes.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(e *Engine) {
		e.locker = locker
	}
}

// WithLifecycleHooks registers observers for node and state events.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = e.hooks.Merge(hooks)
	}
}

// WithTickRate overrides the default tick rate of every runner.
func WithTickRate(rate float64) Option {
	return func(e *Engine) {
		e.tickRate = rate
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// New initializes an Engine for a compiled story.
func New(story *dsl.Story, opts ...Option) (*Engine, error) {
	if story == nil || story.Start == nil {
		return nil, errors.New("story has no start node")
	}
	eng := &Engine{story: story, tickRate: domain.DefaultTickRate}
	for _, opt := range opts {
		opt(eng)
	}
	if eng.store == nil {
		eng.store = memory.NewStore()
	}
	if eng.logger == nil {
		eng.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if story.Name != "" {
		eng.logger = eng.logger.With("story", story.Name)
	}

	// Validate the runner options once so later calls cannot fail on them.
	if _, err := script.New(eng.runnerOptions()...); err != nil {
		return nil, err
	}

	sessOpts := []session.Option{
		session.WithLogger(eng.logger),
		session.WithRunnerOptions(eng.runnerOptions()...),
	}
	if eng.locker != nil {
		sessOpts = append(sessOpts, session.WithLocker(eng.locker))
	}
	eng.sessions = session.NewManager(eng.store, story.Nodes, sessOpts...)
	return eng, nil
}

// Open loads a YAML story from path and initializes an Engine for it.
func Open(path string, opts ...Option) (*Engine, error) {
	story, err := dsl.LoadFile(path)
	if err != nil {
		return nil, err
	}
	return New(story, opts...)
}

// Story returns the compiled story.
func (e *Engine) Story() *dsl.Story { return e.story }

// Sessions returns the manager for store-backed, host-driven sessions.
func (e *Engine) Sessions() *session.Manager { return e.sessions }

// Store returns the save store.
func (e *Engine) Store() ports.SaveStore { return e.store }

func (e *Engine) runnerOptions() []script.Option {
	return e.story.RunnerOptions(
		script.WithTickRate(e.tickRate),
		script.WithLogger(e.logger),
		script.WithLifecycleHooks(e.hooks),
	)
}

// NewRunner returns a runner positioned at the story's start node.
func (e *Engine) NewRunner() (*script.Runner, error) {
	r, err := script.New(e.runnerOptions()...)
	if err != nil {
		return nil, err
	}
	r.Jump(e.story.Start)
	return r, nil
}

// Run plays the story through handler until it ends or ctx is cancelled.
// Progress is autosaved under saveID; an existing save is resumed.
func (e *Engine) Run(ctx context.Context, handler host.IOHandler, saveID string, opts ...host.Option) (domain.State, error) {
	r, err := e.resume(ctx, saveID)
	if err != nil {
		return domain.StateOff, err
	}
	loopOpts := append([]host.Option{
		host.WithStore(e.store, saveID),
		host.WithLogger(e.logger),
	}, opts...)
	return host.New(handler, loopOpts...).Run(ctx, r)
}

func (e *Engine) resume(ctx context.Context, saveID string) (*script.Runner, error) {
	snap, err := e.store.Load(ctx, saveID)
	if errors.Is(err, domain.ErrSaveNotFound) {
		return e.NewRunner()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load save %s: %w", saveID, err)
	}

	r, err := script.New(e.runnerOptions()...)
	if err != nil {
		return nil, err
	}
	if err := r.Restore(snap, e.story.Nodes); err != nil {
		e.logger.Warn("discarding incompatible save", "save_id", saveID, "err", err)
		return e.NewRunner()
	}
	e.logger.Info("resuming save", "save_id", saveID, "node", snap.Top(), "state", snap.State)
	return r, nil
}
