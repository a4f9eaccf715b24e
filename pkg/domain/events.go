package domain

import "time"

// NodeEvent represents entry into or exit from a node frame.
type NodeEvent struct {
	Timestamp time.Time `json:"timestamp"`
	Node      string    `json:"node"`
	Depth     int       `json:"depth"`
}

// StateEvent is emitted every time Execute hands control back to the host.
type StateEvent struct {
	Timestamp time.Time `json:"timestamp"`
	State     State     `json:"state"`
	Node      string    `json:"node,omitempty"`
	Depth     int       `json:"depth"`
}

// LifecycleHooks defines callbacks for runner observability.
// Hooks run synchronously on the runner's goroutine and must not call back into it.
type LifecycleHooks struct {
	OnNodeEnter   func(*NodeEvent)
	OnNodeLeave   func(*NodeEvent)
	OnStateChange func(*StateEvent)
}

// Merge returns hooks that call h first and then other.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnNodeEnter:   chainNode(h.OnNodeEnter, other.OnNodeEnter),
		OnNodeLeave:   chainNode(h.OnNodeLeave, other.OnNodeLeave),
		OnStateChange: chainState(h.OnStateChange, other.OnStateChange),
	}
}

func chainNode(a, b func(*NodeEvent)) func(*NodeEvent) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(e *NodeEvent) {
		a(e)
		b(e)
	}
}

func chainState(a, b func(*StateEvent)) func(*StateEvent) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(e *StateEvent) {
		a(e)
		b(e)
	}
}
