package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/aretw0/threadbare/internal/logging"
	"github.com/aretw0/threadbare/pkg/domain"
	"github.com/aretw0/threadbare/pkg/ports"
	"github.com/aretw0/threadbare/pkg/script"
)

// ErrSessionExists is returned by Start for an ID that already has a save.
var ErrSessionExists = errors.New("session already exists")

const defaultLockTTL = 30 * time.Second

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager orchestrates runner access, ensuring safe concurrent operations.
// It uses reference counting to garbage collect unused locks.
type Manager struct {
	store    ports.SaveStore
	registry script.Registry
	runnerOp []script.Option

	mu    sync.Mutex
	locks map[string]*lockEntry

	liveMu sync.Mutex
	live   map[string]*script.Runner

	locker  ports.DistributedLocker
	lockTTL time.Duration
	logger  *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking. Runners are then rebuilt from the
// store on every operation, since another replica may have advanced them.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL sets how long a distributed lock survives a crashed holder.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		m.lockTTL = ttl
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithRunnerOptions sets the options every session runner is built with.
func WithRunnerOptions(opts ...script.Option) Option {
	return func(m *Manager) {
		m.runnerOp = append(m.runnerOp, opts...)
	}
}

// NewManager creates a Manager for the nodes of reg, persisting to store.
func NewManager(store ports.SaveStore, reg script.Registry, opts ...Option) *Manager {
	m := &Manager{
		store:    store,
		registry: reg,
		locks:    make(map[string]*lockEntry),
		live:     make(map[string]*script.Runner),
		lockTTL:  defaultLockTTL,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(sessionID) after unlocking.
func (m *Manager) acquire(sessionID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		entry = &lockEntry{}
		m.locks[sessionID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, sessionID)
	}
}

// WithLock executes fn while holding the lock for the session.
func (m *Manager) WithLock(ctx context.Context, sessionID string, fn func(context.Context) error) error {
	entry := m.acquire(sessionID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(sessionID)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, sessionID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("failed to release distributed lock (will expire via TTL)",
					"session_id", sessionID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}

// Start creates a session that jumps to node and runs it to its first suspension.
func (m *Manager) Start(ctx context.Context, sessionID, node string) (View, error) {
	var view View
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		entry, err := m.registry.Lookup(node)
		if err != nil {
			return err
		}
		if _, err := m.store.Load(ctx, sessionID); err == nil {
			return fmt.Errorf("%w: %s", ErrSessionExists, sessionID)
		} else if !errors.Is(err, domain.ErrSaveNotFound) {
			return fmt.Errorf("failed to check session existence: %w", err)
		}

		r, err := script.New(m.runnerOp...)
		if err != nil {
			return fmt.Errorf("failed to create runner: %w", err)
		}
		if err := guard(func() {
			r.Jump(entry)
			r.Execute()
		}); err != nil {
			return err
		}
		m.logger.Info("session started", "session_id", sessionID, "node", node, "state", r.State())

		view = NewView(sessionID, r)
		return m.persist(ctx, sessionID, r)
	})
	return view, err
}

// Do runs fn against the session's runner, then saves the result.
// A contract violation raised inside fn is returned as an error and the
// in-memory runner is discarded; the last good save remains.
func (m *Manager) Do(ctx context.Context, sessionID string, fn func(r *script.Runner)) (View, error) {
	var view View
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		r, err := m.runner(ctx, sessionID)
		if err != nil {
			return err
		}
		if err := guard(func() { fn(r) }); err != nil {
			m.forget(sessionID)
			m.logger.Error("session operation failed", "session_id", sessionID, "err", err)
			return err
		}
		view = NewView(sessionID, r)
		return m.persist(ctx, sessionID, r)
	})
	return view, err
}

// Get returns the current view of a session without saving it.
func (m *Manager) Get(ctx context.Context, sessionID string) (View, error) {
	var view View
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		r, err := m.runner(ctx, sessionID)
		if err != nil {
			return err
		}
		view = NewView(sessionID, r)
		m.cache(sessionID, r)
		return nil
	})
	return view, err
}

// Delete removes the session from memory and from the store.
func (m *Manager) Delete(ctx context.Context, sessionID string) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		m.forget(sessionID)
		return m.store.Delete(ctx, sessionID)
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	ids, err := m.store.List(ctx)
	if err != nil {
		return nil, err
	}
	sort.Strings(ids)
	return ids, nil
}

// Store returns the underlying save store.
func (m *Manager) Store() ports.SaveStore {
	return m.store
}

// runner returns the live runner of a session, restoring it from the store
// when it is not cached. Callers hold the session lock.
func (m *Manager) runner(ctx context.Context, sessionID string) (*script.Runner, error) {
	if m.locker == nil {
		m.liveMu.Lock()
		r, ok := m.live[sessionID]
		m.liveMu.Unlock()
		if ok {
			return r, nil
		}
	}

	snap, err := m.store.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	r, err := script.New(m.runnerOp...)
	if err != nil {
		return nil, fmt.Errorf("failed to create runner: %w", err)
	}
	if err := r.Restore(snap, m.registry); err != nil {
		return nil, fmt.Errorf("failed to restore session %s: %w", sessionID, err)
	}
	m.logger.Debug("session restored", "session_id", sessionID, "node", snap.Top())
	return r, nil
}

func (m *Manager) persist(ctx context.Context, sessionID string, r *script.Runner) error {
	snap, err := r.Snapshot()
	if err != nil {
		return err
	}
	if err := m.store.Save(ctx, sessionID, snap); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	m.cache(sessionID, r)
	return nil
}

// cache keeps r live for the next call. With a distributed lock another
// process may move the session on, so nothing is cached.
func (m *Manager) cache(sessionID string, r *script.Runner) {
	if m.locker != nil {
		return
	}
	m.liveMu.Lock()
	m.live[sessionID] = r
	m.liveMu.Unlock()
}

func (m *Manager) forget(sessionID string) {
	m.liveMu.Lock()
	delete(m.live, sessionID)
	m.liveMu.Unlock()
}

// guard converts a contract violation panic into an error.
func guard(fn func()) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			cv, ok := rec.(*domain.ContractViolation)
			if !ok {
				panic(rec)
			}
			err = cv
		}
	}()
	fn()
	return nil
}
