package host

import (
	"log/slog"

	"github.com/aretw0/threadbare/pkg/ports"
)

// Option defines a functional option for configuring the Loop.
type Option func(*Loop)

// WithStore saves a snapshot under sessionID after every suspension.
func WithStore(store ports.SaveStore, sessionID string) Option {
	return func(l *Loop) {
		l.store = store
		l.sessionID = sessionID
	}
}

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loop) {
		l.logger = logger
	}
}

// WithRealtime paces timer ticks at the runner's tick rate. When false, timers
// are drained without sleeping.
func WithRealtime(realtime bool) Option {
	return func(l *Loop) {
		l.realtime = realtime
	}
}

// WithMaxRetries bounds how many invalid choices are tolerated in a row
// before Run gives up. Zero means unlimited.
func WithMaxRetries(n int) Option {
	return func(l *Loop) {
		l.maxRetries = n
	}
}
