package dsl

import (
	"errors"
	"fmt"
	"sort"

	"golang.org/x/text/language"

	"github.com/aretw0/threadbare/pkg/domain"
	"github.com/aretw0/threadbare/pkg/plural"
	"github.com/aretw0/threadbare/pkg/script"
)

// ErrEmptyStory is returned when building a story without nodes.
var ErrEmptyStory = errors.New("story has no nodes")

// Story is a compiled set of nodes, ready to run.
type Story struct {
	Name      string
	Start     *script.Node
	Nodes     script.Registry
	Limits    domain.Limits
	Variables []script.VarDecl
	Locale    language.Tag
	Edges     []Edge
}

// EdgeKind is how control reaches another node.
type EdgeKind string

const (
	EdgeJump   EdgeKind = "jump"
	EdgeDetour EdgeKind = "detour"
	EdgeOption EdgeKind = "option"
	EdgeGroup  EdgeKind = "group"
)

// Edge is a static transfer between two nodes, kept for inspection and graphs.
type Edge struct {
	From        string
	To          string
	Kind        EdgeKind
	Label       string
	Conditional bool
}

// NewRunner creates a runner sized for the story and jumps to its start node.
func (s *Story) NewRunner(opts ...script.Option) (*script.Runner, error) {
	r, err := script.New(s.RunnerOptions(opts...)...)
	if err != nil {
		return nil, err
	}
	r.Jump(s.Start)
	return r, nil
}

// RunnerOptions prepends the story's limits and variables to opts.
func (s *Story) RunnerOptions(opts ...script.Option) []script.Option {
	return append([]script.Option{
		script.WithLimits(s.Limits),
		script.WithVariables(s.Variables...),
	}, opts...)
}

// Builder manages the story construction.
type Builder struct {
	name   string
	start  string
	order  []string
	nodes  map[string]*NodeBuilder
	limits domain.Limits
	locale language.Tag
	vars   []varDecl
}

type varDecl struct {
	name    string
	initial any
}

// New creates a new story builder.
func New(name string) *Builder {
	return &Builder{
		name:   name,
		nodes:  make(map[string]*NodeBuilder),
		limits: domain.DefaultLimits(),
		locale: language.English,
	}
}

// Add creates a new node in the story.
// If the node already exists, it returns the existing builder.
// The first node added is the start node unless Start says otherwise.
func (b *Builder) Add(name string) *NodeBuilder {
	if nb, ok := b.nodes[name]; ok {
		return nb
	}
	nb := &NodeBuilder{name: name, builder: b}
	b.nodes[name] = nb
	b.order = append(b.order, name)
	return nb
}

// Start selects the entry node.
func (b *Builder) Start(name string) *Builder {
	b.start = name
	return b
}

// Limits sets the buffer and stack capacities. Key counts are always derived
// from the story and override whatever l says.
func (b *Builder) Limits(l domain.Limits) *Builder {
	b.limits = l
	return b
}

// Locale sets the language whose plural rules Plural steps follow.
// Stories default to English.
func (b *Builder) Locale(tag language.Tag) *Builder {
	b.locale = tag
	return b
}

// Declare adds a story variable with its initial value (an int, bool or
// string). The value's type is the variable's type for good.
func (b *Builder) Declare(name string, initial any) *Builder {
	b.vars = append(b.vars, varDecl{name: name, initial: initial})
	return b
}

func (b *Builder) declarations() ([]script.VarDecl, map[string]domain.Value, error) {
	decls := make([]script.VarDecl, 0, len(b.vars))
	byName := make(map[string]domain.Value, len(b.vars))
	for _, v := range b.vars {
		if v.name == "" {
			return nil, nil, fmt.Errorf("variable without a name")
		}
		if _, dup := byName[v.name]; dup {
			return nil, nil, fmt.Errorf("variable %q declared twice", v.name)
		}
		val, err := domain.ValueOf(v.initial)
		if err != nil {
			return nil, nil, fmt.Errorf("variable %q: %w", v.name, err)
		}
		if len(val.Str) > b.limits.LineBufferSize {
			return nil, nil, fmt.Errorf("variable %q starts with %d bytes, line buffer holds %d", v.name, len(val.Str), b.limits.LineBufferSize)
		}
		decls = append(decls, script.VarDecl{Name: v.name, Initial: val})
		byName[v.name] = val
	}
	return decls, byName, nil
}

// keys maps node names to flag keys. Nodes are numbered in sorted name order
// so the numbering is stable across builds of the same story.
type keys struct {
	nodes map[string]int
	vars  map[string]domain.Value
	once  int
}

func (k *keys) visited(idx int) domain.VisitedNodeKey { return domain.VisitedNodeKey(idx) }
func (k *keys) count(idx int) domain.VisitCountKey    { return domain.VisitCountKey(idx) }

func (k *keys) nextOnce() domain.OnceKey {
	key := domain.OnceKey(k.once)
	k.once++
	return key
}

// Build compiles every node. References to unknown nodes, text that cannot fit
// the buffers and over-long choices are reported here rather than at run time.
func (b *Builder) Build() (*Story, error) {
	if len(b.nodes) == 0 {
		return nil, ErrEmptyStory
	}
	start := b.start
	if start == "" {
		start = b.order[0]
	}
	if _, ok := b.nodes[start]; !ok {
		return nil, fmt.Errorf("start node %q is not defined", start)
	}

	names := make([]string, 0, len(b.nodes))
	for name := range b.nodes {
		names = append(names, name)
	}
	sort.Strings(names)

	decls, vars, err := b.declarations()
	if err != nil {
		return nil, err
	}

	k := &keys{nodes: make(map[string]int, len(names)), vars: vars}
	reg := make(script.Registry, len(names))
	for i, name := range names {
		k.nodes[name] = i
		reg[name] = &script.Node{Name: name}
	}

	limits := b.limits
	c := &compiler{
		keys:   k,
		nodes:  reg,
		defs:   b.nodes,
		limits: limits,
		plural: plural.NewSelector(b.locale),
	}
	for _, name := range names {
		run, err := c.node(b.nodes[name])
		if err != nil {
			return nil, fmt.Errorf("node %s: %w", name, err)
		}
		reg[name].Run = run
	}

	limits.VisitedNodeCount = len(names)
	limits.VisitCountNodeCount = len(names)
	limits.OnceCount = k.once
	if err := limits.Validate(); err != nil {
		return nil, err
	}

	return &Story{
		Name:      b.name,
		Start:     reg[start],
		Nodes:     reg,
		Limits:    limits,
		Variables: decls,
		Locale:    b.locale,
		Edges:     b.edges(),
	}, nil
}

// edges lists transfers in definition order.
func (b *Builder) edges() []Edge {
	var out []Edge
	for _, name := range b.order {
		for _, s := range b.nodes[name].steps {
			switch s.kind {
			case stepJump:
				out = append(out, Edge{From: name, To: s.target, Kind: EdgeJump})
			case stepDetour:
				out = append(out, Edge{From: name, To: s.target, Kind: EdgeDetour})
			case stepChoice:
				for _, o := range s.options {
					if o.Target == "" {
						continue
					}
					out = append(out, Edge{
						From:        name,
						To:          o.Target,
						Kind:        EdgeOption,
						Label:       o.Text,
						Conditional: o.Cond.Complexity() > 0,
					})
				}
			case stepGroup:
				for _, m := range s.members {
					def := b.nodes[m]
					out = append(out, Edge{
						From:        name,
						To:          m,
						Kind:        EdgeGroup,
						Conditional: def != nil && (def.once || def.when.Complexity() > 0),
					})
				}
			}
		}
	}
	return out
}

// Visited lists, in name order, the nodes r has entered at least once.
// r must run this story.
func (s *Story) Visited(r *script.Runner) []string {
	var out []string
	for i, name := range s.Nodes.Names() {
		if r.VisitedNode(domain.VisitedNodeKey(i)) {
			out = append(out, name)
		}
	}
	return out
}

// Visits returns how many times r entered node, or 0 for an unknown node.
func (s *Story) Visits(r *script.Runner, node string) int {
	for i, name := range s.Nodes.Names() {
		if name == node {
			return r.VisitedCountNode(domain.VisitCountKey(i))
		}
	}
	return 0
}
