package script

import "github.com/aretw0/threadbare/pkg/domain"

// VisitedNode reports whether the node was ever entered.
func (r *Runner) VisitedNode(key domain.VisitedNodeKey) bool { return r.flags.Visited(key) }

// SetVisitedState marks the node as visited.
func (r *Runner) SetVisitedState(key domain.VisitedNodeKey) { r.flags.SetVisited(key) }

// Once reports whether the one-shot flag is set.
func (r *Runner) Once(key domain.OnceKey) bool { return r.flags.Once(key) }

// SetOnce sets the one-shot flag.
func (r *Runner) SetOnce(key domain.OnceKey) { r.flags.SetOnce(key) }

// VisitedCountNode returns how many times the node was entered.
func (r *Runner) VisitedCountNode(key domain.VisitCountKey) int { return r.flags.VisitCount(key) }

// IncrementVisitCount records one more visit.
func (r *Runner) IncrementVisitCount(key domain.VisitCountKey) { r.flags.IncrementVisitCount(key) }
