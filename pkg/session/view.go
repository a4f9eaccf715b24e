package session

import (
	"github.com/aretw0/threadbare/pkg/domain"
	"github.com/aretw0/threadbare/pkg/script"
)

// OptionView is one presented choice.
type OptionView struct {
	Index   int    `json:"index"`
	Text    string `json:"text"`
	Enabled bool   `json:"enabled"`
}

// View is what a host needs to render a session after an operation.
type View struct {
	ID        string       `json:"id"`
	State     domain.State `json:"state"`
	Node      string       `json:"node,omitempty"`
	Depth     int          `json:"depth"`
	Line      string       `json:"line,omitempty"`
	Options   []OptionView `json:"options,omitempty"`
	WaitTimer int          `json:"wait_timer,omitempty"`

	Variables []domain.VariableSnapshot `json:"variables,omitempty"`
}

// NewView captures the host-facing parts of a runner.
func NewView(id string, r *script.Runner) View {
	v := View{
		ID:    id,
		State: r.State(),
		Depth: r.Depth(),
	}
	if vars := r.Variables(); len(vars) > 0 {
		v.Variables = vars
	}
	if top := r.Top(); top != nil {
		v.Node = top.Node.Name
	}
	switch v.State {
	case domain.StateLine:
		v.Line = r.CurrentLine().String()
	case domain.StateOptions:
		for i, o := range r.Options().All() {
			v.Options = append(v.Options, OptionView{Index: i, Text: o.String(), Enabled: o.Enabled()})
		}
	case domain.StateTimer:
		v.WaitTimer = r.WaitTimer()
	}
	return v
}
