package cli

import (
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/aretw0/threadbare"
	"github.com/aretw0/threadbare/internal/config"
	"github.com/aretw0/threadbare/pkg/adapters/file"
	"github.com/aretw0/threadbare/pkg/adapters/memory"
	"github.com/aretw0/threadbare/pkg/adapters/redis"
	"github.com/aretw0/threadbare/pkg/dsl"
	"github.com/aretw0/threadbare/pkg/observability"
	"github.com/aretw0/threadbare/pkg/persistence/middleware"
	"github.com/aretw0/threadbare/pkg/ports"
)

// backend bundles the save store selected by the config with its lock and cleanup.
type backend struct {
	store  ports.SaveStore
	locker ports.DistributedLocker
	close  func() error
}

// openStore builds the save store named by cfg.Kind and wraps it with the
// configured redaction and encryption. Only Redis provides a distributed lock;
// the other stores are single-process.
func openStore(cfg config.StoreConfig) (*backend, error) {
	be, err := openBaseStore(cfg)
	if err != nil {
		return nil, err
	}

	var mws []middleware.Middleware
	if len(cfg.Redact) > 0 {
		mws = append(mws, middleware.NewRedactionMiddleware(cfg.Redact))
	}
	if cfg.Encryption.Enabled() {
		active, fallback, err := cfg.Encryption.Keys()
		if err != nil {
			be.close()
			return nil, err
		}
		mws = append(mws, middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
			ActiveKey:    active,
			FallbackKeys: fallback,
		}))
	}
	be.store = middleware.Chain(be.store, mws...)
	return be, nil
}

func openBaseStore(cfg config.StoreConfig) (*backend, error) {
	switch cfg.Kind {
	case config.StoreMemory:
		return &backend{store: memory.NewStore(), close: func() error { return nil }}, nil
	case config.StoreFile:
		return &backend{store: file.New(cfg.Path), close: func() error { return nil }}, nil
	case config.StoreRedis:
		rc := cfg.Redis
		store := redis.New(rc.Addr, rc.Password, rc.DB,
			redis.WithPrefix(rc.Prefix+"save:"),
			redis.WithTTL(rc.TTL),
		)
		return &backend{
			store:  store,
			locker: redis.NewLocker(store.Client(), rc.Prefix),
			close:  store.Close,
		}, nil
	}
	return nil, fmt.Errorf("unknown store kind %q", cfg.Kind)
}

// engineSetup is everything a command needs to drive a story.
type engineSetup struct {
	engine  *threadbare.Engine
	backend *backend
	metrics *prometheus.Registry
}

// createEngine loads the story and wires store, hooks and logging from cfg.
// When metrics is true the engine reports to a fresh Prometheus registry.
func createEngine(storyPath string, cfg config.Config, logger *slog.Logger, debug, metrics bool) (*engineSetup, error) {
	story, err := dsl.LoadFile(storyPath, dsl.WithBaseLimits(cfg.Limits))
	if err != nil {
		return nil, fmt.Errorf("error loading story: %w", err)
	}

	be, err := openStore(cfg.Store)
	if err != nil {
		return nil, err
	}

	opts := []threadbare.Option{
		threadbare.WithStore(be.store),
		threadbare.WithLogger(logger),
		threadbare.WithTickRate(cfg.TickRate),
	}
	if be.locker != nil {
		opts = append(opts, threadbare.WithLocker(be.locker))
	}
	if debug {
		opts = append(opts, threadbare.WithLifecycleHooks(observability.LogHooks(logger)))
	}

	setup := &engineSetup{backend: be}
	if metrics {
		setup.metrics = prometheus.NewRegistry()
		m, err := observability.NewMetrics(setup.metrics)
		if err != nil {
			be.close()
			return nil, err
		}
		opts = append(opts, threadbare.WithLifecycleHooks(m.Hooks()))
	}

	setup.engine, err = threadbare.New(story, opts...)
	if err != nil {
		be.close()
		return nil, fmt.Errorf("error initializing engine: %w", err)
	}
	return setup, nil
}
