package text

import "github.com/aretw0/threadbare/pkg/domain"

// Option is one selectable choice: its text, the resume label installed when
// it is chosen, and the counters generated code uses to decide whether the
// option is enabled.
type Option struct {
	Buffer
	NextStep           int
	ConditionCount     int
	TrueConditionCount int
	Complexity         int
}

// Reset prepares the option for reuse with a new resume label.
func (o *Option) Reset(nextStep int) {
	o.StartNewLine()
	o.NextStep = nextStep
	o.ConditionCount = 0
	o.TrueConditionCount = 0
	o.Complexity = 0
}

// Enabled reports whether every condition of the option held.
func (o *Option) Enabled() bool { return o.Condition }

// OptionList is a fixed pool of options reused across choice rounds.
type OptionList struct {
	pool []Option
	n    int
}

// NewOptionList preallocates max options of the given text capacity.
func NewOptionList(max, capacity int, ml domain.MarkupLimits) *OptionList {
	l := &OptionList{pool: make([]Option, max)}
	for i := range l.pool {
		l.pool[i].init(capacity, ml)
	}
	return l
}

// Clear empties the list. Option storage is kept for the next round.
func (l *OptionList) Clear() { l.n = 0 }

// Add hands out the next option slot, reset to nextStep.
func (l *OptionList) Add(nextStep int) *Option {
	if l.n == len(l.pool) {
		domain.Violate("AddOption", domain.ErrBufferOverflow, "option capacity %d", len(l.pool))
	}
	o := &l.pool[l.n]
	o.Reset(nextStep)
	l.n++
	return o
}

// Len returns the number of options in the current round.
func (l *OptionList) Len() int { return l.n }

// Cap returns the maximum number of options.
func (l *OptionList) Cap() int { return len(l.pool) }

// At returns option i. It panics when i is outside [0, Len()).
func (l *OptionList) At(i int) *Option {
	if i < 0 || i >= l.n {
		domain.Violate("Option", domain.ErrOptionOutOfRange, "index %d, %d options", i, l.n)
	}
	return &l.pool[i]
}

// All returns the options of the current round. The slice aliases the pool.
func (l *OptionList) All() []Option { return l.pool[:l.n] }

// Enabled returns the indices of options whose conditions held.
func (l *OptionList) Enabled() []int {
	idx := make([]int, 0, l.n)
	for i := range l.pool[:l.n] {
		if l.pool[i].Enabled() {
			idx = append(idx, i)
		}
	}
	return idx
}
