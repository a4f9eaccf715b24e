package script

import (
	"fmt"

	"github.com/aretw0/threadbare/pkg/domain"
)

// VarDecl declares a story variable and the value it starts with.
type VarDecl struct {
	Name    string
	Initial domain.Value
}

// variables is the typed store behind the Runner's variable accessors.
// Values live in declaration order.
type variables struct {
	decls  []VarDecl
	index  map[string]int
	values []domain.Value
}

func newVariables(decls []VarDecl, maxString int) (*variables, error) {
	v := &variables{
		decls:  decls,
		index:  make(map[string]int, len(decls)),
		values: make([]domain.Value, len(decls)),
	}
	for i, d := range decls {
		if d.Name == "" {
			return nil, fmt.Errorf("variable %d has no name", i)
		}
		if _, dup := v.index[d.Name]; dup {
			return nil, fmt.Errorf("variable %q declared twice", d.Name)
		}
		if d.Initial.Kind > domain.KindString {
			return nil, fmt.Errorf("variable %q has unknown kind %s", d.Name, d.Initial.Kind)
		}
		if len(d.Initial.Str) > maxString {
			return nil, fmt.Errorf("variable %q starts with %d bytes, strings hold %d", d.Name, len(d.Initial.Str), maxString)
		}
		v.index[d.Name] = i
		v.values[i] = d.Initial
	}
	return v, nil
}

func (v *variables) slot(op, name string, kind domain.ValueKind) *domain.Value {
	i, ok := v.index[name]
	if !ok {
		domain.Violate(op, domain.ErrUnknownVariable, "%q", name)
	}
	if v.values[i].Kind != kind {
		domain.Violate(op, domain.ErrVariableKind, "%q is %s, want %s", name, v.values[i].Kind, kind)
	}
	return &v.values[i]
}

// WithVariables declares the story variables. They start at their initial
// values and travel with snapshots.
func WithVariables(decls ...VarDecl) Option {
	return func(r *Runner) {
		r.varDecls = append(r.varDecls, decls...)
	}
}

// Var returns the value of a declared variable.
func (r *Runner) Var(name string) domain.Value {
	i, ok := r.vars.index[name]
	if !ok {
		domain.Violate("Var", domain.ErrUnknownVariable, "%q", name)
	}
	return r.vars.values[i]
}

// Variables returns every variable in declaration order.
func (r *Runner) Variables() []domain.VariableSnapshot {
	out := make([]domain.VariableSnapshot, len(r.vars.decls))
	for i, d := range r.vars.decls {
		out[i] = domain.VariableSnapshot{Name: d.Name, Value: r.vars.values[i]}
	}
	return out
}

func (r *Runner) IntVar(name string) int {
	return r.vars.slot("IntVar", name, domain.KindInt).Int
}

func (r *Runner) SetIntVar(name string, v int) {
	r.vars.slot("SetIntVar", name, domain.KindInt).Int = v
}

func (r *Runner) BoolVar(name string) bool {
	return r.vars.slot("BoolVar", name, domain.KindBool).Bool
}

func (r *Runner) SetBoolVar(name string, v bool) {
	r.vars.slot("SetBoolVar", name, domain.KindBool).Bool = v
}

func (r *Runner) StringVar(name string) string {
	return r.vars.slot("StringVar", name, domain.KindString).Str
}

// SetStringVar stores v. Strings are bounded by the line buffer size.
func (r *Runner) SetStringVar(name string, v string) {
	slot := r.vars.slot("SetStringVar", name, domain.KindString)
	if len(v) > r.limits.LineBufferSize {
		domain.Violate("SetStringVar", domain.ErrBufferOverflow, "%q: %d bytes, strings hold %d", name, len(v), r.limits.LineBufferSize)
	}
	slot.Str = v
}

// checkVariables validates snapshot variables without touching the store.
func (r *Runner) checkVariables(snap []domain.VariableSnapshot) error {
	seen := make(map[string]bool, len(snap))
	for _, sv := range snap {
		i, ok := r.vars.index[sv.Name]
		if !ok {
			return fmt.Errorf("%w: %q", domain.ErrUnknownVariable, sv.Name)
		}
		if seen[sv.Name] {
			return fmt.Errorf("variable %q saved twice", sv.Name)
		}
		seen[sv.Name] = true
		if want := r.vars.decls[i].Initial.Kind; sv.Value.Kind != want {
			return fmt.Errorf("%w: %q saved as %s, declared %s", domain.ErrVariableKind, sv.Name, sv.Value.Kind, want)
		}
		if len(sv.Value.Str) > r.limits.LineBufferSize {
			return fmt.Errorf("variable %q is %d bytes, strings hold %d", sv.Name, len(sv.Value.Str), r.limits.LineBufferSize)
		}
	}
	return nil
}

// loadVariables resets every variable, then applies the saved values.
// Variables absent from the save keep their initial value.
func (r *Runner) loadVariables(snap []domain.VariableSnapshot) {
	for i, d := range r.vars.decls {
		r.vars.values[i] = d.Initial
	}
	for _, sv := range snap {
		r.vars.values[r.vars.index[sv.Name]] = sv.Value
	}
}
