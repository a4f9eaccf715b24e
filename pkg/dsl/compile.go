package dsl

import (
	"fmt"

	"github.com/aretw0/threadbare/pkg/domain"
	"github.com/aretw0/threadbare/pkg/plural"
	"github.com/aretw0/threadbare/pkg/script"
)

// op is the body of one resume label.
type op func(r *script.Runner, n *script.NodeState)

type compiler struct {
	keys   *keys
	nodes  script.Registry
	defs   map[string]*NodeBuilder
	limits domain.Limits
	plural *plural.Selector
}

// program is the label table of one node under construction.
type program struct {
	ops []op
}

// emit appends the op for the next label. fn receives the label that follows it.
func (p *program) emit(fn func(next int) op) {
	p.ops = append(p.ops, fn(len(p.ops)+1))
}

func (c *compiler) target(name string) (*script.Node, error) {
	n, ok := c.nodes[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownNode, name)
	}
	return n, nil
}

func (c *compiler) fits(text string, capacity int) error {
	if len(text) > capacity {
		return fmt.Errorf("text %q is %d bytes, buffer holds %d", text, len(text), capacity)
	}
	return nil
}

func (c *compiler) node(nb *NodeBuilder) (script.NodeFunc, error) {
	idx := c.keys.nodes[nb.name]
	visited, count := c.keys.visited(idx), c.keys.count(idx)

	if len(nb.tags) > c.limits.MaxNodeTags {
		return nil, fmt.Errorf("%d node tags, limit is %d", len(nb.tags), c.limits.MaxNodeTags)
	}
	params := 0
	for _, t := range nb.tags {
		params += len(t.params)
	}
	if params > c.limits.MaxNodeTagParams {
		return nil, fmt.Errorf("%d node tag params, limit is %d", params, c.limits.MaxNodeTagParams)
	}
	tags := nb.tags

	p := &program{}
	p.emit(func(next int) op {
		return func(r *script.Runner, n *script.NodeState) {
			for _, t := range tags {
				n.AddTag(t.tag, t.params...)
			}
			r.SetVisitedState(visited)
			r.IncrementVisitCount(count)
			r.ReturnAndGoto(next)
		}
	})

	for i, s := range nb.steps {
		if err := c.step(p, s); err != nil {
			return nil, fmt.Errorf("step %d: %w", i+1, err)
		}
	}
	p.emit(func(int) op {
		return func(r *script.Runner, n *script.NodeState) { r.EndNode() }
	})

	ops := p.ops
	return func(r *script.Runner, n *script.NodeState) {
		if n.ResumeLabel < 0 || n.ResumeLabel >= len(ops) {
			n.InvalidStep()
			return
		}
		ops[n.ResumeLabel](r, n)
	}, nil
}

func (c *compiler) step(p *program, s step) error {
	switch s.kind {
	case stepLine:
		if err := c.fits(s.text, c.limits.LineBufferSize); err != nil {
			return err
		}
		cond, err := s.cond.compile(c.keys)
		if err != nil {
			return err
		}
		text := s.text
		p.emit(func(next int) op {
			return func(r *script.Runner, n *script.NodeState) {
				if cond != nil && !cond(r) {
					r.ReturnAndGoto(next)
					return
				}
				writeLine(r, text)
				r.FinishLine(next)
			}
		})

	case stepLineOnce:
		if err := c.fits(s.text, c.limits.LineBufferSize); err != nil {
			return err
		}
		key, text := c.keys.nextOnce(), s.text
		p.emit(func(next int) op {
			return func(r *script.Runner, n *script.NodeState) {
				if r.Once(key) {
					r.ReturnAndGoto(next)
					return
				}
				r.SetOnce(key)
				writeLine(r, text)
				r.FinishLine(next)
			}
		})

	case stepPlural:
		if s.forms.Other == "" {
			return fmt.Errorf("plural line needs an other form")
		}
		// "{n}" grows by at most the width of an int.
		if s.forms.Longest()+20 > c.limits.LineBufferSize {
			return fmt.Errorf("plural forms may not fit the %d byte line buffer", c.limits.LineBufferSize)
		}
		idx, ok := c.keys.nodes[s.target]
		if !ok {
			return fmt.Errorf("%w: %s", domain.ErrUnknownNode, s.target)
		}
		key, forms, sel := c.keys.count(idx), s.forms, c.plural
		p.emit(func(next int) op {
			return func(r *script.Runner, n *script.NodeState) {
				writeLine(r, forms.Format(sel, r.VisitedCountNode(key)))
				r.FinishLine(next)
			}
		})

	case stepWait:
		if s.seconds < 0 {
			return fmt.Errorf("negative wait %v", s.seconds)
		}
		seconds := s.seconds
		p.emit(func(next int) op {
			return func(r *script.Runner, n *script.NodeState) {
				r.StartTimerFraction(seconds, next)
			}
		})

	case stepPause:
		p.emit(func(next int) op {
			return func(r *script.Runner, n *script.NodeState) { r.Pause(next) }
		})

	case stepChoice:
		return c.choice(p, s.options)

	case stepGroup:
		return c.group(p, s.members)

	case stepSet, stepAdd:
		return c.assign(p, s)

	case stepJump, stepDetour:
		target, err := c.target(s.target)
		if err != nil {
			return err
		}
		detour := s.kind == stepDetour
		p.emit(func(next int) op {
			return func(r *script.Runner, n *script.NodeState) {
				if detour {
					n.ResumeLabel = next
					r.Detour(target)
					return
				}
				r.Jump(target)
			}
		})

	case stepStop:
		p.emit(func(int) op {
			return func(r *script.Runner, n *script.NodeState) { r.Stop() }
		})

	case stepEnd:
		p.emit(func(int) op {
			return func(r *script.Runner, n *script.NodeState) { r.EndNode() }
		})

	default:
		return fmt.Errorf("unknown step kind %d", s.kind)
	}
	return nil
}

// choice lays out one presenting label followed by one label per option.
// The label after the option labels is where the node continues when an
// option has no target or when no option is enabled.
func (c *compiler) choice(p *program, opts []OptionSpec) error {
	if len(opts) == 0 {
		return fmt.Errorf("choice without options")
	}
	if len(opts) > c.limits.MaxOptions {
		return fmt.Errorf("%d options, limit is %d", len(opts), c.limits.MaxOptions)
	}

	list := make([]gatedOption, len(opts))
	for i, o := range opts {
		if err := c.fits(o.Text, c.limits.OptionBufferSize); err != nil {
			return err
		}
		tests, err := o.Cond.compileTests(c.keys)
		if err != nil {
			return err
		}
		list[i] = gatedOption{text: o.Text, tests: tests, complexity: len(tests)}
		if o.Target != "" {
			if list[i].target, err = c.target(o.Target); err != nil {
				return err
			}
		}
	}

	first := len(p.ops) + 1
	after := first + len(list)
	p.emit(func(int) op {
		return func(r *script.Runner, n *script.NodeState) {
			r.ClearOptions()
			for i, o := range list {
				o.add(r, first+i)
			}
			r.SetNoValidOption(after)
			r.PresentOptions()
		}
	})
	for _, o := range list {
		target := o.target
		p.emit(func(int) op {
			return func(r *script.Runner, n *script.NodeState) {
				if target == nil {
					r.ReturnAndGoto(after)
					return
				}
				r.SafeJump(target)
			}
		})
	}
	return nil
}

// gatedOption is an option with its individual condition tests.
type gatedOption struct {
	text       string
	tests      []test
	complexity int
	target     *script.Node
}

// add appends the option and fills its condition counters. Every test runs so
// TrueConditionCount is exact even when an early one fails.
func (o gatedOption) add(r *script.Runner, label int) {
	opt := r.AddOption(label)
	opt.Text(o.text)
	opt.ConditionCount = len(o.tests)
	for _, t := range o.tests {
		if t(r) {
			opt.TrueConditionCount++
		}
	}
	opt.Complexity = o.complexity
	opt.Condition = opt.TrueConditionCount == opt.ConditionCount
}

// group lays out like a choice, but the runner settles the round itself.
// A member that is once gets an extra not-visited test.
func (c *compiler) group(p *program, members []string) error {
	if len(members) == 0 {
		return fmt.Errorf("group without members")
	}
	if len(members) > c.limits.MaxOptions {
		return fmt.Errorf("%d group members, limit is %d", len(members), c.limits.MaxOptions)
	}

	list := make([]gatedOption, len(members))
	for i, name := range members {
		target, err := c.target(name)
		if err != nil {
			return err
		}
		def := c.defs[name]
		tests, err := def.when.compileTests(c.keys)
		if err != nil {
			return fmt.Errorf("group member %s: %w", name, err)
		}
		if def.once {
			key := c.keys.visited(c.keys.nodes[name])
			tests = append(tests, func(r *script.Runner) bool { return !r.VisitedNode(key) })
		}
		list[i] = gatedOption{tests: tests, complexity: len(tests), target: target}
	}

	first := len(p.ops) + 1
	after := first + len(list)
	p.emit(func(int) op {
		return func(r *script.Runner, n *script.NodeState) {
			r.ClearOptions()
			for i, o := range list {
				o.add(r, first+i)
			}
			r.SetNoValidOption(after)
			r.SelectLineGroup()
		}
	})
	for _, o := range list {
		target := o.target
		p.emit(func(int) op {
			return func(r *script.Runner, n *script.NodeState) {
				n.ResumeLabel = after
				r.Detour(target)
			}
		})
	}
	return nil
}

// assign compiles Set and Add steps against the declared variables.
func (c *compiler) assign(p *program, s step) error {
	name := s.target
	decl, ok := c.keys.vars[name]
	if !ok {
		return fmt.Errorf("%w: %q", domain.ErrUnknownVariable, name)
	}

	var apply func(r *script.Runner)
	if s.kind == stepAdd {
		if decl.Kind != domain.KindInt {
			return fmt.Errorf("%w: cannot add to %s variable %q", domain.ErrVariableKind, decl.Kind, name)
		}
		delta := s.delta
		apply = func(r *script.Runner) { r.SetIntVar(name, r.IntVar(name)+delta) }
	} else {
		v, err := domain.ValueOf(s.value)
		if err != nil {
			return err
		}
		if v.Kind != decl.Kind {
			return fmt.Errorf("%w: %q is %s, set to %s", domain.ErrVariableKind, name, decl.Kind, v.Kind)
		}
		switch v.Kind {
		case domain.KindInt:
			apply = func(r *script.Runner) { r.SetIntVar(name, v.Int) }
		case domain.KindBool:
			apply = func(r *script.Runner) { r.SetBoolVar(name, v.Bool) }
		default:
			if err := c.fits(v.Str, c.limits.LineBufferSize); err != nil {
				return err
			}
			apply = func(r *script.Runner) { r.SetStringVar(name, v.Str) }
		}
	}
	p.emit(func(next int) op {
		return func(r *script.Runner, n *script.NodeState) {
			apply(r)
			r.ReturnAndGoto(next)
		}
	})
	return nil
}

func writeLine(r *script.Runner, text string) {
	buf := r.CurrentLine()
	buf.StartNewLine()
	buf.Text(text)
}
