package domain

import "fmt"

// State is the execution state of a script runner as seen by the host loop.
type State int

const (
	// StateLine means a line of dialogue is ready to display.
	StateLine State = iota
	// StateOptions means a choice set is ready and awaits ChooseOption.
	StateOptions
	// StateTimer means the runner is suspended until WaitTick drains the remaining ticks.
	StateTimer
	// StatePaused means the runner is suspended until an external Resume.
	StatePaused
	// StateOff means nothing is running (empty frame stack).
	StateOff
	// StateWorking is internal: keep driving. Never returned by Execute.
	StateWorking
)

var stateNames = [...]string{
	StateLine:    "line",
	StateOptions: "options",
	StateTimer:   "timer",
	StatePaused:  "paused",
	StateOff:     "off",
	StateWorking: "working",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("state(%d)", int(s))
	}
	return stateNames[s]
}

// Suspended reports whether the state is a suspension point awaiting host action.
func (s State) Suspended() bool {
	switch s {
	case StateLine, StateOptions, StateTimer, StatePaused:
		return true
	}
	return false
}

// ParseState converts a state name back into a State.
func ParseState(name string) (State, error) {
	for i, n := range stateNames {
		if n == name {
			return State(i), nil
		}
	}
	return StateOff, fmt.Errorf("unknown state %q", name)
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *State) UnmarshalText(text []byte) error {
	st, err := ParseState(string(text))
	if err != nil {
		return err
	}
	*s = st
	return nil
}
