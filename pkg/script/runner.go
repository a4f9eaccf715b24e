package script

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aretw0/threadbare/pkg/domain"
	"github.com/aretw0/threadbare/pkg/flags"
	"github.com/aretw0/threadbare/pkg/random"
	"github.com/aretw0/threadbare/pkg/text"
)

// Runner drives node procedures. It is not safe for concurrent use: a host
// must serialize every call on a given runner.
type Runner struct {
	state     domain.State
	waitTimer int
	tickRate  float64
	limits    domain.Limits

	currentLine *text.Buffer
	options     *text.OptionList
	flags       *flags.Storage
	frames      []NodeState
	varDecls    []VarDecl
	vars        *variables

	rng    random.Source
	logger *slog.Logger
	hooks  domain.LifecycleHooks
	now    func() time.Time

	// acted is set by every primitive that hands control somewhere; a node
	// returning with acted unset gets an implicit EndNode.
	acted bool
}

// Option defines a functional option for configuring the Runner.
type Option func(*Runner)

// WithLimits sets the fixed capacities the story was compiled against.
func WithLimits(l domain.Limits) Option {
	return func(r *Runner) {
		r.limits = l
	}
}

// WithTickRate sets the number of WaitTick calls per second of script time.
func WithTickRate(rate float64) Option {
	return func(r *Runner) {
		r.tickRate = rate
	}
}

// WithRandom injects the randomness stream used by Dice and Random.
func WithRandom(src random.Source) Option {
	return func(r *Runner) {
		r.rng = src
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(r *Runner) {
		r.hooks = r.hooks.Merge(hooks)
	}
}

// WithFlags shares existing flag storage instead of allocating new storage,
// so several runners of one story see the same flags. New rejects storage
// whose key counts differ from the limits.
func WithFlags(s *flags.Storage) Option {
	return func(r *Runner) {
		r.flags = s
	}
}

// New creates an idle runner (state Off, empty stack).
func New(opts ...Option) (*Runner, error) {
	r := &Runner{
		state:    domain.StateOff,
		tickRate: domain.DefaultTickRate,
		limits:   domain.DefaultLimits(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}

	if err := r.limits.Validate(); err != nil {
		return nil, fmt.Errorf("invalid limits: %w", err)
	}
	if r.tickRate <= 0 {
		return nil, fmt.Errorf("tick rate must be positive, got %v", r.tickRate)
	}
	if r.logger == nil {
		r.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if r.rng == nil {
		r.rng = random.New(uint64(r.now().UnixNano()))
	}
	if r.flags == nil {
		r.flags = flags.NewFromLimits(r.limits)
	} else if v, o, c := r.flags.Counts(); v != r.limits.VisitedNodeCount || o != r.limits.OnceCount || c != r.limits.VisitCountNodeCount {
		return nil, fmt.Errorf("flag storage holds %d/%d/%d keys, limits want %d/%d/%d",
			v, o, c, r.limits.VisitedNodeCount, r.limits.OnceCount, r.limits.VisitCountNodeCount)
	}

	vars, err := newVariables(r.varDecls, r.limits.LineBufferSize)
	if err != nil {
		return nil, err
	}
	r.vars = vars

	ml := r.limits.MarkupLimits()
	r.currentLine = text.NewBuffer(r.limits.LineBufferSize, ml)
	r.options = text.NewOptionList(r.limits.MaxOptions, r.limits.OptionBufferSize, ml)

	frames := make([]NodeState, r.limits.MaxStackDepth)
	for i := range frames {
		frames[i].Tags = make([]domain.NodeTag, 0, r.limits.MaxNodeTags)
		frames[i].TagParams = make([]int, 0, r.limits.MaxNodeTagParams)
	}
	r.frames = frames[:0]

	return r, nil
}

// Execute runs node procedures until the runner suspends or the stack empties,
// and returns the resulting state. It never returns StateWorking.
//
// Calling Execute while in StateLine acknowledges the line and resumes the top
// frame. In StateOptions, StateTimer or StatePaused the matching resume
// primitive (ChooseOption, WaitTick, Resume) must be called first; otherwise
// Execute does nothing and returns the current state.
func (r *Runner) Execute() domain.State {
	r.rng.Update()

	switch r.state {
	case domain.StateLine:
		r.state = domain.StateWorking
	case domain.StateOptions, domain.StateTimer, domain.StatePaused:
		r.logger.Warn("execute called while suspended, ignoring", "state", r.state, "node", r.topName())
		return r.state
	}

	for len(r.frames) > 0 {
		top := &r.frames[len(r.frames)-1]
		if top.Node == nil || top.Node.Run == nil {
			domain.Violate("Execute", domain.ErrNilNode, "frame %d", len(r.frames)-1)
		}

		r.acted = false
		top.Node.Run(r, top)
		if !r.acted {
			r.EndNode()
		}

		if r.state != domain.StateWorking {
			r.emitState()
			return r.state
		}
	}

	r.state = domain.StateOff
	r.emitState()
	return r.state
}

// State returns the current execution state.
func (r *Runner) State() domain.State { return r.state }

// Depth returns the number of frames on the stack.
func (r *Runner) Depth() int { return len(r.frames) }

// Top returns the active frame, or nil when the stack is empty.
func (r *Runner) Top() *NodeState {
	if len(r.frames) == 0 {
		return nil
	}
	return &r.frames[len(r.frames)-1]
}

// Frames returns the stack, bottom first. The slice aliases the runner's storage.
func (r *Runner) Frames() []NodeState { return r.frames }

// CurrentLine returns the line buffer node procedures write into.
func (r *Runner) CurrentLine() *text.Buffer { return r.currentLine }

// Options returns the option list of the current choice round.
func (r *Runner) Options() *text.OptionList { return r.options }

// Flags returns the persistent flag storage.
func (r *Runner) Flags() *flags.Storage { return r.flags }

// WaitTimer returns the ticks left before a timer suspension ends.
func (r *Runner) WaitTimer() int { return r.waitTimer }

// TickRate returns the ticks per second used by StartTimer.
func (r *Runner) TickRate() float64 { return r.tickRate }

// Limits returns the capacities the runner was built with.
func (r *Runner) Limits() domain.Limits { return r.limits }

// Dice returns an unbiased integer in [0, sides].
func (r *Runner) Dice(sides int) int {
	return r.rng.IntN(sides + 1)
}

// Random returns a value in [0, 1).
func (r *Runner) Random() float64 {
	return r.rng.Float64()
}

func (r *Runner) topName() string {
	if top := r.Top(); top != nil && top.Node != nil {
		return top.Node.Name
	}
	return ""
}

// top returns the active frame or panics on an empty stack.
func (r *Runner) top(op string) *NodeState {
	if len(r.frames) == 0 {
		domain.Violate(op, domain.ErrEmptyStack, "")
	}
	return &r.frames[len(r.frames)-1]
}

func (r *Runner) emitState() {
	if r.hooks.OnStateChange == nil {
		return
	}
	r.hooks.OnStateChange(&domain.StateEvent{
		Timestamp: r.now(),
		State:     r.state,
		Node:      r.topName(),
		Depth:     len(r.frames),
	})
}

func (r *Runner) emitNode(hook func(*domain.NodeEvent), node *Node, depth int) {
	if hook == nil {
		return
	}
	hook(&domain.NodeEvent{
		Timestamp: r.now(),
		Node:      node.Name,
		Depth:     depth,
	})
}
