package script

import "github.com/aretw0/threadbare/pkg/domain"

// Jump discards the whole stack and starts node as the only frame.
func (r *Runner) Jump(node *Node) {
	checkNode("Jump", node)
	for len(r.frames) > 0 {
		r.pop()
	}
	r.push("Jump", node)
	r.transfer(domain.StateWorking)
}

// Detour calls node as a subroutine: the current frame stays beneath it and
// resumes from its own label once node ends.
func (r *Runner) Detour(node *Node) {
	checkNode("Detour", node)
	r.push("Detour", node)
	r.transfer(domain.StateWorking)
}

// SafeJump replaces the current frame with node without growing the stack.
func (r *Runner) SafeJump(node *Node) {
	checkNode("SafeJump", node)
	r.top("SafeJump")
	r.pop()
	r.push("SafeJump", node)
	r.transfer(domain.StateWorking)
}

// EndNode pops the current frame. Control returns to the caller frame, or the
// runner goes Off when none is left.
func (r *Runner) EndNode() {
	r.top("EndNode")
	r.pop()
	if len(r.frames) == 0 {
		r.transfer(domain.StateOff)
		return
	}
	r.transfer(domain.StateWorking)
}

// Stop clears the stack unconditionally.
func (r *Runner) Stop() {
	for len(r.frames) > 0 {
		r.pop()
	}
	r.transfer(domain.StateOff)
}

func (r *Runner) transfer(state domain.State) {
	r.state = state
	r.acted = true
}

func (r *Runner) push(op string, node *Node) {
	if len(r.frames) == cap(r.frames) {
		domain.Violate(op, domain.ErrStackOverflow, "depth %d pushing %s", cap(r.frames), node)
	}
	r.frames = r.frames[:len(r.frames)+1]
	r.frames[len(r.frames)-1].reset(node)

	r.logger.Debug("node enter", "node", node.Name, "depth", len(r.frames))
	r.emitNode(r.hooks.OnNodeEnter, node, len(r.frames))
}

func (r *Runner) pop() {
	f := &r.frames[len(r.frames)-1]
	node := f.Node
	depth := len(r.frames)
	f.Node = nil
	r.frames = r.frames[:len(r.frames)-1]

	if node != nil {
		r.logger.Debug("node leave", "node", node.Name, "depth", depth)
		r.emitNode(r.hooks.OnNodeLeave, node, depth)
	}
}

func checkNode(op string, node *Node) {
	if node == nil || node.Run == nil {
		domain.Violate(op, domain.ErrNilNode, "%s", node)
	}
}
