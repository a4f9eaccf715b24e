/*
Package script is the execution engine of the threadbare dialogue runtime.

A story is a graph of nodes. Each node is a native procedure (normally emitted
by the script compiler) that is re-entered from the top every time it runs and
dispatches on the resume label stored in its frame. The Runner owns the frame
stack, the current line, the option list, the flag storage and the wait timer,
and exposes the control-transfer and suspension primitives node procedures call.

# Host Loop

	r, _ := script.New(script.WithLimits(story.Limits))
	r.Jump(story.Start)
	for {
		switch r.Execute() {
		case domain.StateLine:
			show(r.CurrentLine())
		case domain.StateOptions:
			r.ChooseOption(pick(r.Options()))
		case domain.StateTimer:
			for r.State() == domain.StateTimer {
				waitFrame()
				r.WaitTick()
			}
		case domain.StatePaused:
			waitForTrigger()
			r.Resume()
		case domain.StateOff:
			return
		}
	}

# Node Procedures

	var Greet = &script.Node{Name: "Greet"}

	func init() { Greet.Run = greet }

	func greet(r *script.Runner, n *script.NodeState) {
		const (
			start = iota
			afterHello
		)
		switch n.ResumeLabel {
		case start:
			r.CurrentLine().StartNewLine()
			r.CurrentLine().Text("Hello!")
			r.FinishLine(afterHello)
			return
		case afterHello:
			r.EndNode()
			return
		}
	}

Misuse (a bad option index, a stack overflow, a full buffer) panics with a
*domain.ContractViolation: it always means the generated code or the host is
broken, never that the player did something unexpected.
*/
package script
