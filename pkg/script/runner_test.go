package script_test

import (
	"testing"

	"github.com/aretw0/threadbare/pkg/domain"
	"github.com/aretw0/threadbare/pkg/flags"
	"github.com/aretw0/threadbare/pkg/random"
	"github.com/aretw0/threadbare/pkg/script"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunner_StartsOff(t *testing.T) {
	r := newRunner(t)
	assert.Equal(t, domain.StateOff, r.State())
	assert.Equal(t, domain.StateOff, r.Execute())
	assert.Zero(t, r.Depth())
	assert.Nil(t, r.Top())
}

func TestRunner_LineThenEnd(t *testing.T) {
	r := newRunner(t)
	var seen []int
	nodeA := node("NodeA", func(r *script.Runner, n *script.NodeState) {
		seen = append(seen, n.ResumeLabel)
		switch n.ResumeLabel {
		case 0:
			r.CurrentLine().StartNewLine()
			r.CurrentLine().Text("Hello")
			r.FinishLine(5)
		case 5:
			r.EndNode()
		default:
			n.InvalidStep()
		}
	})

	r.Jump(nodeA)
	assert.Equal(t, domain.StateWorking, r.State())

	assert.Equal(t, domain.StateLine, r.Execute())
	assert.Equal(t, "Hello", r.CurrentLine().String())
	assert.Equal(t, 5, r.Top().ResumeLabel)

	assert.Equal(t, domain.StateOff, r.Execute())
	assert.Zero(t, r.Depth())
	assert.Equal(t, []int{0, 5}, seen)
}

func TestRunner_DetourReturnsToCaller(t *testing.T) {
	r := newRunner(t)
	nodeB := node("NodeB", func(r *script.Runner, n *script.NodeState) {
		switch n.ResumeLabel {
		case 0:
			r.CurrentLine().StartNewLine()
			r.CurrentLine().Text("in B")
			r.FinishLine(1)
		case 1:
			r.EndNode()
		}
	})
	nodeA := node("NodeA", func(r *script.Runner, n *script.NodeState) {
		switch n.ResumeLabel {
		case 0:
			n.ResumeLabel = 7
			r.Detour(nodeB)
		case 7:
			r.CurrentLine().StartNewLine()
			r.CurrentLine().Text("back in A")
			r.FinishLine(8)
		case 8:
			r.EndNode()
		}
	})

	r.Jump(nodeA)
	require.Equal(t, domain.StateLine, r.Execute())
	assert.Equal(t, []string{"NodeA", "NodeB"}, names(r))
	assert.Equal(t, 7, r.Frames()[0].ResumeLabel)

	require.Equal(t, domain.StateLine, r.Execute())
	assert.Equal(t, []string{"NodeA"}, names(r))
	assert.Equal(t, "back in A", r.CurrentLine().String())

	assert.Equal(t, domain.StateOff, r.Execute())
}

func TestRunner_StackDepthAccounting(t *testing.T) {
	limits := domain.DefaultLimits()
	limits.MaxStackDepth = 3
	r := newRunner(t, script.WithLimits(limits))

	a, b, c := idle("a"), idle("b"), idle("c")

	r.Detour(a)
	r.Detour(b)
	assert.Equal(t, 2, r.Depth(), "detour adds exactly one frame")

	r.SafeJump(c)
	assert.Equal(t, []string{"a", "c"}, names(r), "safe jump replaces the top frame only")

	r.Top().ResumeLabel = 4
	r.Detour(b)
	assert.Equal(t, 3, r.Depth())

	requireViolation(t, domain.ErrStackOverflow, func() { r.Detour(a) })
	assert.Equal(t, []string{"a", "c", "b"}, names(r), "overflow must not touch existing frames")
	assert.Equal(t, 4, r.Frames()[1].ResumeLabel)

	r.EndNode()
	assert.Equal(t, 2, r.Depth(), "end node removes exactly one frame")
	assert.Equal(t, domain.StateWorking, r.State())

	r.EndNode()
	r.EndNode()
	assert.Equal(t, domain.StateOff, r.State())
	requireViolation(t, domain.ErrEmptyStack, func() { r.EndNode() })
	requireViolation(t, domain.ErrEmptyStack, func() { r.SafeJump(a) })
}

func TestRunner_JumpResetsStack(t *testing.T) {
	r := newRunner(t)
	a, b := idle("a"), idle("b")

	r.Detour(a)
	r.Detour(b)
	r.Detour(b)
	r.Jump(a)
	assert.Equal(t, []string{"a"}, names(r))

	r.Top().ResumeLabel = 9
	r.Jump(a)
	assert.Equal(t, []string{"a"}, names(r))
	assert.Zero(t, r.Top().ResumeLabel, "jump pushes a fresh frame")
}

func TestRunner_StopClearsEverything(t *testing.T) {
	r := newRunner(t)
	stopper := node("stopper", func(r *script.Runner, n *script.NodeState) { r.Stop() })
	r.Detour(idle("a"))
	r.Top().ResumeLabel = 1
	r.Detour(stopper)

	assert.Equal(t, domain.StateOff, r.Execute())
	assert.Zero(t, r.Depth())
}

func TestRunner_ImplicitEndNode(t *testing.T) {
	r := newRunner(t)
	calls := 0
	silent := node("silent", func(r *script.Runner, n *script.NodeState) { calls++ })

	r.Jump(silent)
	assert.Equal(t, domain.StateOff, r.Execute())
	assert.Equal(t, 1, calls)
}

func TestRunner_ReturnAndGotoReentersWithoutYield(t *testing.T) {
	r := newRunner(t)
	var seen []int
	loop := node("loop", func(r *script.Runner, n *script.NodeState) {
		seen = append(seen, n.ResumeLabel)
		if n.ResumeLabel < 3 {
			r.ReturnAndGoto(n.ResumeLabel + 1)
			return
		}
		r.EndNode()
	})

	r.Jump(loop)
	assert.Equal(t, domain.StateOff, r.Execute())
	assert.Equal(t, []int{0, 1, 2, 3}, seen)
}

func TestRunner_NilNodeIsViolation(t *testing.T) {
	r := newRunner(t)
	requireViolation(t, domain.ErrNilNode, func() { r.Jump(nil) })
	requireViolation(t, domain.ErrNilNode, func() { r.Detour(&script.Node{Name: "empty"}) })
}

func TestRunner_InvalidStepIsViolation(t *testing.T) {
	r := newRunner(t)
	strict := node("strict", func(r *script.Runner, n *script.NodeState) {
		switch n.ResumeLabel {
		case 0:
			r.FinishLine(42)
		default:
			n.InvalidStep()
		}
	})
	r.Jump(strict)
	require.Equal(t, domain.StateLine, r.Execute())
	requireViolation(t, domain.ErrInvalidStep, func() { r.Execute() })
}

func TestRunner_Hooks(t *testing.T) {
	var enters, leaves []string
	var states []domain.State
	hooks := domain.LifecycleHooks{
		OnNodeEnter:   func(e *domain.NodeEvent) { enters = append(enters, e.Node) },
		OnNodeLeave:   func(e *domain.NodeEvent) { leaves = append(leaves, e.Node) },
		OnStateChange: func(e *domain.StateEvent) { states = append(states, e.State) },
	}
	r := newRunner(t, script.WithLifecycleHooks(hooks))

	child := node("child", func(r *script.Runner, n *script.NodeState) {
		if n.ResumeLabel == 0 {
			r.FinishLine(1)
			return
		}
		r.EndNode()
	})
	parent := node("parent", func(r *script.Runner, n *script.NodeState) {
		if n.ResumeLabel == 0 {
			n.ResumeLabel = 1
			r.Detour(child)
			return
		}
		r.EndNode()
	})

	r.Jump(parent)
	r.Execute()
	r.Execute()

	assert.Equal(t, []string{"parent", "child"}, enters)
	assert.Equal(t, []string{"child", "parent"}, leaves)
	assert.Equal(t, []domain.State{domain.StateLine, domain.StateOff}, states)
}

func TestRunner_RandomRefreshedPerExecute(t *testing.T) {
	src := &random.Fixed{Ints: []int{4}, Floats: []float64{0.75}}
	r := newRunner(t, script.WithRandom(src))
	var dice int
	var roll float64
	r.Jump(node("dice", func(r *script.Runner, n *script.NodeState) {
		dice = r.Dice(6)
		roll = r.Random()
		r.EndNode()
	}))

	r.Execute()
	assert.Equal(t, 4, dice)
	assert.Equal(t, 0.75, roll)
	assert.Equal(t, 1, src.Updates)
}

func TestNew_RejectsBadConfiguration(t *testing.T) {
	limits := domain.DefaultLimits()
	limits.MaxStackDepth = 0
	_, err := script.New(script.WithLimits(limits))
	assert.Error(t, err)

	_, err = script.New(script.WithTickRate(0))
	assert.Error(t, err)
}

func TestNew_SharedFlags(t *testing.T) {
	limits := domain.DefaultLimits()
	shared := flags.NewFromLimits(limits)

	a, err := script.New(script.WithLimits(limits), script.WithFlags(shared))
	require.NoError(t, err)
	b, err := script.New(script.WithLimits(limits), script.WithFlags(shared))
	require.NoError(t, err)

	a.SetOnce(3)
	assert.True(t, b.Once(3))
	assert.Same(t, a.Flags(), b.Flags())

	_, err = script.New(script.WithLimits(limits), script.WithFlags(flags.New(1, 1, 1)))
	assert.ErrorContains(t, err, "flag storage holds 1/1/1 keys")
}
