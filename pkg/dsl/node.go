package dsl

import (
	"github.com/aretw0/threadbare/pkg/domain"
	"github.com/aretw0/threadbare/pkg/plural"
)

type stepKind int

const (
	stepLine stepKind = iota
	stepLineOnce
	stepPlural
	stepWait
	stepPause
	stepChoice
	stepJump
	stepDetour
	stepStop
	stepEnd
	stepSet
	stepAdd
	stepGroup
)

type step struct {
	kind    stepKind
	text    string
	cond    Cond
	forms   plural.Forms
	seconds float64
	target  string
	options []OptionSpec
	value   any
	delta   int
	members []string
}

// OptionSpec is one entry of a Choice.
type OptionSpec struct {
	Text   string
	Target string
	Cond   Cond
}

// Opt creates an option that jumps to target when chosen. An empty target
// continues with the step after the choice.
func Opt(text, target string) OptionSpec {
	return OptionSpec{Text: text, Target: target}
}

// If gates the option; a failed condition shows it disabled.
func (o OptionSpec) If(c Cond) OptionSpec {
	o.Cond = c
	return o
}

type nodeTag struct {
	tag    domain.NodeTag
	params []int
}

// NodeBuilder provides a fluent API for configuring a node.
type NodeBuilder struct {
	name    string
	steps   []step
	tags    []nodeTag
	when    Cond
	once    bool
	builder *Builder
}

func (n *NodeBuilder) add(s step) *NodeBuilder {
	n.steps = append(n.steps, s)
	return n
}

// Line shows a line of dialogue.
func (n *NodeBuilder) Line(text string) *NodeBuilder {
	return n.add(step{kind: stepLine, text: text})
}

// LineIf shows a line only when c holds.
func (n *NodeBuilder) LineIf(c Cond, text string) *NodeBuilder {
	return n.add(step{kind: stepLine, text: text, cond: c})
}

// LineOnce shows a line the first time the step is reached, and never again.
func (n *NodeBuilder) LineOnce(text string) *NodeBuilder {
	return n.add(step{kind: stepLineOnce, text: text})
}

// Plural shows the form matching how many times node was visited.
// "{n}" in the chosen form is replaced by the count.
func (n *NodeBuilder) Plural(node string, forms plural.Forms) *NodeBuilder {
	return n.add(step{kind: stepPlural, target: node, forms: forms})
}

// Wait suspends for the given number of seconds.
func (n *NodeBuilder) Wait(seconds float64) *NodeBuilder {
	return n.add(step{kind: stepWait, seconds: seconds})
}

// Pause suspends until the host resumes the story.
func (n *NodeBuilder) Pause() *NodeBuilder {
	return n.add(step{kind: stepPause})
}

// Choice presents options. When none is enabled the node continues with the
// next step.
func (n *NodeBuilder) Choice(opts ...OptionSpec) *NodeBuilder {
	return n.add(step{kind: stepChoice, options: opts})
}

// Jump abandons the whole stack and continues at target.
func (n *NodeBuilder) Jump(target string) *NodeBuilder {
	return n.add(step{kind: stepJump, target: target})
}

// Detour runs target as a subroutine, then continues with the next step.
func (n *NodeBuilder) Detour(target string) *NodeBuilder {
	return n.add(step{kind: stepDetour, target: target})
}

// Stop ends the story immediately.
func (n *NodeBuilder) Stop() *NodeBuilder {
	return n.add(step{kind: stepStop})
}

// End returns from the node. Steps after it are unreachable except through
// choice labels. A node ends by itself after its last step.
func (n *NodeBuilder) End() *NodeBuilder {
	return n.add(step{kind: stepEnd})
}

// Set assigns v (an int, bool or string) to a declared story variable.
func (n *NodeBuilder) Set(name string, v any) *NodeBuilder {
	return n.add(step{kind: stepSet, target: name, value: v})
}

// Add adds delta to a declared int variable.
func (n *NodeBuilder) Add(name string, delta int) *NodeBuilder {
	return n.add(step{kind: stepAdd, target: name, delta: delta})
}

// Group detours into one of members, picked without asking the host: of the
// members whose When condition holds (and, for Once members, that were never
// visited) the ones with the most complex condition win, and ties are drawn
// at random. With no eligible member the node continues with the next step.
func (n *NodeBuilder) Group(members ...string) *NodeBuilder {
	return n.add(step{kind: stepGroup, members: members})
}

// When sets the condition that makes the node eligible in a line group.
// Jumping to the node directly ignores it.
func (n *NodeBuilder) When(c Cond) *NodeBuilder {
	n.when = c
	return n
}

// Once makes the node eligible in a line group only until it is first visited.
func (n *NodeBuilder) Once() *NodeBuilder {
	n.once = true
	return n
}

// Tag attaches a node tag, recorded on the frame when the node is entered.
func (n *NodeBuilder) Tag(tag domain.NodeTag, params ...int) *NodeBuilder {
	n.tags = append(n.tags, nodeTag{tag: tag, params: params})
	return n
}
