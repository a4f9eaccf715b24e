package host

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/threadbare/internal/logging"
	"github.com/aretw0/threadbare/pkg/domain"
	"github.com/aretw0/threadbare/pkg/ports"
	"github.com/aretw0/threadbare/pkg/script"
)

// Loop handles the execution loop of a runner using the provided IO.
type Loop struct {
	handler    IOHandler
	store      ports.SaveStore
	sessionID  string
	logger     *slog.Logger
	realtime   bool
	maxRetries int
}

// New creates a Loop with realtime timers.
func New(handler IOHandler, opts ...Option) *Loop {
	l := &Loop{
		handler:  handler,
		logger:   logging.NewNop(),
		realtime: true,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Run drives r until it goes Off or ctx is done, and returns the last state.
// A runner that was just jumped (Working) or restored into any state can be
// passed in; an idle runner returns Off immediately.
func (l *Loop) Run(ctx context.Context, r *script.Runner) (domain.State, error) {
	state := r.State()
	if state == domain.StateWorking {
		state = r.Execute()
	}

	for {
		if err := ctx.Err(); err != nil {
			return state, err
		}
		if state != domain.StateOff {
			if err := l.save(ctx, r); err != nil {
				return state, err
			}
		}

		switch state {
		case domain.StateLine:
			if err := l.handler.Line(ctx, r.CurrentLine().String()); err != nil {
				return state, fmt.Errorf("output error: %w", err)
			}

		case domain.StateOptions:
			if err := l.choose(ctx, r); err != nil {
				return state, err
			}

		case domain.StateTimer:
			if err := l.handler.Wait(ctx, r.WaitTimer()); err != nil {
				return state, fmt.Errorf("output error: %w", err)
			}
			if err := l.tick(ctx, r); err != nil {
				return state, err
			}

		case domain.StatePaused:
			if err := l.handler.Paused(ctx); err != nil {
				return state, fmt.Errorf("input error: %w", err)
			}
			r.Resume()

		case domain.StateOff:
			l.logger.Debug("story finished", "session_id", l.sessionID)
			if l.store != nil && l.sessionID != "" {
				if err := l.store.Delete(ctx, l.sessionID); err != nil {
					return state, fmt.Errorf("failed to clear save: %w", err)
				}
			}
			return state, l.handler.End(ctx)

		default:
			return state, fmt.Errorf("unexpected runner state %s", state)
		}

		state = r.Execute()
	}
}

func (l *Loop) choose(ctx context.Context, r *script.Runner) error {
	choices := Choices(r)
	if !anyEnabled(choices) {
		l.logger.Debug("no enabled option, skipping round", "node", nodeName(r))
		r.SkipOptions()
		return nil
	}

	for attempt := 1; ; attempt++ {
		i, err := l.handler.Choose(ctx, choices)
		if err != nil {
			return fmt.Errorf("input error: %w", err)
		}
		if ValidChoice(choices, i) {
			r.ChooseOption(i)
			return nil
		}
		l.logger.Debug("rejected choice", "index", i, "options", len(choices))
		if l.maxRetries > 0 && attempt >= l.maxRetries {
			return fmt.Errorf("%w: %d attempts", ErrInvalidChoice, attempt)
		}
		if err := l.handler.SystemOutput(ctx, fmt.Sprintf("%v: %d", ErrInvalidChoice, i+1)); err != nil {
			return fmt.Errorf("output error: %w", err)
		}
	}
}

func (l *Loop) tick(ctx context.Context, r *script.Runner) error {
	if !l.realtime {
		for r.State() == domain.StateTimer {
			r.WaitTick()
		}
		return nil
	}

	ticker := time.NewTicker(time.Duration(float64(time.Second) / r.TickRate()))
	defer ticker.Stop()
	for r.State() == domain.StateTimer {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			r.WaitTick()
		}
	}
	return nil
}

func (l *Loop) save(ctx context.Context, r *script.Runner) error {
	if l.store == nil || l.sessionID == "" {
		return nil
	}
	snap, err := r.Snapshot()
	if err != nil {
		return err
	}
	if err := l.store.Save(ctx, l.sessionID, snap); err != nil {
		return fmt.Errorf("critical persistence error: %w", err)
	}
	l.logger.Debug("snapshot saved", "session_id", l.sessionID, "node", snap.Top(), "state", snap.State)
	return nil
}

func anyEnabled(choices []Choice) bool {
	for _, c := range choices {
		if c.Enabled {
			return true
		}
	}
	return false
}

func nodeName(r *script.Runner) string {
	if top := r.Top(); top != nil {
		return top.Node.Name
	}
	return ""
}
