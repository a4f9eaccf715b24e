package dsl

import (
	"fmt"

	"github.com/aretw0/threadbare/pkg/domain"
	"github.com/aretw0/threadbare/pkg/script"
)

type condKind int

const (
	condAlways condKind = iota
	condVisited
	condNotVisited
	condVisitsAtLeast
	condChance
	condVarEquals
	condVarAtLeast
	condVarAtMost
	condAll
)

// Cond gates a line, an option or a line group member. Node and variable
// names are resolved at build time.
type Cond struct {
	kind   condKind
	node   string
	count  int
	chance float64
	value  any
	parts  []Cond
}

// Visited holds once node has been entered at least once.
func Visited(node string) Cond { return Cond{kind: condVisited, node: node} }

// NotVisited holds until node is entered.
func NotVisited(node string) Cond { return Cond{kind: condNotVisited, node: node} }

// VisitsAtLeast holds once node has been entered n times.
func VisitsAtLeast(node string, n int) Cond {
	return Cond{kind: condVisitsAtLeast, node: node, count: n}
}

// Chance holds with probability p, drawn from the runner's random stream.
func Chance(p float64) Cond { return Cond{kind: condChance, chance: p} }

// VarEquals holds while the story variable name equals v (an int, bool or string).
func VarEquals(name string, v any) Cond { return Cond{kind: condVarEquals, node: name, value: v} }

// VarAtLeast holds while the int variable name is at least n.
func VarAtLeast(name string, n int) Cond { return Cond{kind: condVarAtLeast, node: name, count: n} }

// VarAtMost holds while the int variable name is at most n.
func VarAtMost(name string, n int) Cond { return Cond{kind: condVarAtMost, node: name, count: n} }

// All holds when every one of conds holds. Each part counts as one condition
// of an option.
func All(conds ...Cond) Cond { return Cond{kind: condAll, parts: conds} }

// leaves flattens the condition into its individual tests.
func (c Cond) leaves() []Cond {
	switch c.kind {
	case condAlways:
		return nil
	case condAll:
		var out []Cond
		for _, p := range c.parts {
			out = append(out, p.leaves()...)
		}
		return out
	}
	return []Cond{c}
}

// Complexity is the number of tests in the condition. Line groups prefer
// members with more complex conditions.
func (c Cond) Complexity() int { return len(c.leaves()) }

type test func(r *script.Runner) bool

// compile returns one predicate over all tests, or nil when c always holds.
func (c Cond) compile(k *keys) (test, error) {
	tests, err := c.compileTests(k)
	if err != nil {
		return nil, err
	}
	switch len(tests) {
	case 0:
		return nil, nil
	case 1:
		return tests[0], nil
	}
	return func(r *script.Runner) bool {
		for _, t := range tests {
			if !t(r) {
				return false
			}
		}
		return true
	}, nil
}

func (c Cond) compileTests(k *keys) ([]test, error) {
	leaves := c.leaves()
	tests := make([]test, 0, len(leaves))
	for _, l := range leaves {
		t, err := l.compileLeaf(k)
		if err != nil {
			return nil, err
		}
		tests = append(tests, t)
	}
	return tests, nil
}

func (c Cond) compileLeaf(k *keys) (test, error) {
	switch c.kind {
	case condChance:
		if c.chance < 0 || c.chance > 1 {
			return nil, fmt.Errorf("chance %v outside [0, 1]", c.chance)
		}
		p := c.chance
		return func(r *script.Runner) bool { return r.Random() < p }, nil
	case condVarEquals, condVarAtLeast, condVarAtMost:
		return c.compileVar(k)
	}

	idx, ok := k.nodes[c.node]
	if !ok {
		return nil, fmt.Errorf("condition refers to unknown node %q", c.node)
	}
	switch c.kind {
	case condVisited:
		key := k.visited(idx)
		return func(r *script.Runner) bool { return r.VisitedNode(key) }, nil
	case condNotVisited:
		key := k.visited(idx)
		return func(r *script.Runner) bool { return !r.VisitedNode(key) }, nil
	case condVisitsAtLeast:
		key, n := k.count(idx), c.count
		return func(r *script.Runner) bool { return r.VisitedCountNode(key) >= n }, nil
	}
	return nil, fmt.Errorf("unknown condition kind %d", c.kind)
}

func (c Cond) compileVar(k *keys) (test, error) {
	name := c.node
	decl, ok := k.vars[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownVariable, name)
	}
	if c.kind != condVarEquals {
		if decl.Kind != domain.KindInt {
			return nil, fmt.Errorf("%w: %q is %s, comparisons need int", domain.ErrVariableKind, name, decl.Kind)
		}
		n := c.count
		if c.kind == condVarAtLeast {
			return func(r *script.Runner) bool { return r.IntVar(name) >= n }, nil
		}
		return func(r *script.Runner) bool { return r.IntVar(name) <= n }, nil
	}

	want, err := domain.ValueOf(c.value)
	if err != nil {
		return nil, err
	}
	if want.Kind != decl.Kind {
		return nil, fmt.Errorf("%w: %q is %s, compared with %s", domain.ErrVariableKind, name, decl.Kind, want.Kind)
	}
	return func(r *script.Runner) bool { return r.Var(name) == want }, nil
}
