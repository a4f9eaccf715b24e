package script

import (
	"math"

	"github.com/aretw0/threadbare/pkg/domain"
	"github.com/aretw0/threadbare/pkg/text"
)

// FinishLine hands the current line to the host (StateLine) and stores the
// label the node resumes from on the next Execute.
func (r *Runner) FinishLine(resumeLabel int) {
	r.rng.Update()
	r.top("FinishLine").ResumeLabel = resumeLabel
	r.transfer(domain.StateLine)
}

// ReturnAndGoto re-enters the current node at resumeLabel without yielding.
func (r *Runner) ReturnAndGoto(resumeLabel int) {
	r.top("ReturnAndGoto").ResumeLabel = resumeLabel
	r.transfer(domain.StateWorking)
}

// SetNoValidOption stores where to continue when an option round had no
// eligible choice. The state is left untouched.
func (r *Runner) SetNoValidOption(resumeLabel int) {
	r.top("SetNoValidOption").ResumeLabel = resumeLabel
}

// StartTimer suspends for a whole number of seconds. A non-zero resumeLabel is
// stored into the current frame.
func (r *Runner) StartTimer(seconds int, resumeLabel int) {
	r.StartTimerFraction(float64(seconds), resumeLabel)
}

// StartTimerFraction suspends for ceil(seconds × tick rate) ticks.
func (r *Runner) StartTimerFraction(seconds float64, resumeLabel int) {
	if resumeLabel != 0 {
		r.top("StartTimer").ResumeLabel = resumeLabel
	}
	r.waitTimer = int(math.Ceil(seconds * r.tickRate))
	r.transfer(domain.StateTimer)
}

// WaitTick consumes one tick of a timer suspension. When no ticks remain
// the runner becomes ready to continue. Outside StateTimer it does nothing.
func (r *Runner) WaitTick() {
	if r.state != domain.StateTimer {
		r.logger.Debug("wait tick outside timer, ignoring", "state", r.state)
		return
	}
	r.rng.Update()
	r.waitTimer--
	if r.waitTimer <= 0 {
		r.waitTimer = 0
		r.state = domain.StateWorking
	}
}

// ClearOptions starts a new choice round.
func (r *Runner) ClearOptions() {
	r.options.Clear()
}

// AddOption appends an option that resumes the current node at nextStep.
func (r *Runner) AddOption(nextStep int) *text.Option {
	return r.options.Add(nextStep)
}

// PresentOptions hands the option list to the host (StateOptions).
func (r *Runner) PresentOptions() {
	r.transfer(domain.StateOptions)
}

// ChooseOption installs option i's label into the current frame. i must be in
// [0, Options().Len()); anything else is a contract violation.
func (r *Runner) ChooseOption(i int) {
	if i < 0 || i >= r.options.Len() {
		domain.Violate("ChooseOption", domain.ErrOptionOutOfRange,
			"choice %d, max option %d", i, r.options.Len()-1)
	}
	r.top("ChooseOption").ResumeLabel = r.options.At(i).NextStep
	r.transfer(domain.StateWorking)
}

// SkipOptions leaves an option round without a choice. The node resumes at
// the label stored by SetNoValidOption. Hosts call it when no option is
// enabled. Outside StateOptions it does nothing.
func (r *Runner) SkipOptions() {
	if r.state != domain.StateOptions {
		r.logger.Debug("skip options outside options, ignoring", "state", r.state)
		return
	}
	r.state = domain.StateWorking
}

// SelectLineGroup settles the current option round inside the runner, for
// line groups. Among the enabled options those with the highest Complexity
// are kept and one of them is drawn at random; the node resumes at its
// label. With no enabled option the node resumes at the label stored by
// SetNoValidOption. The round is cleared and the host never sees it.
func (r *Runner) SelectLineGroup() {
	top := r.top("SelectLineGroup")
	best := -1
	var salient []int
	for _, i := range r.options.Enabled() {
		switch c := r.options.At(i).Complexity; {
		case c > best:
			best, salient = c, append(salient[:0], i)
		case c == best:
			salient = append(salient, i)
		}
	}
	if len(salient) > 0 {
		top.ResumeLabel = r.options.At(salient[r.rng.IntN(len(salient))]).NextStep
	}
	r.options.Clear()
	r.transfer(domain.StateWorking)
}

// Pause suspends until Resume is called.
func (r *Runner) Pause(resumeLabel int) {
	r.top("Pause").ResumeLabel = resumeLabel
	r.transfer(domain.StatePaused)
}

// Resume ends a Pause. Outside StatePaused it does nothing.
func (r *Runner) Resume() {
	if r.state != domain.StatePaused {
		r.logger.Debug("resume outside pause, ignoring", "state", r.state)
		return
	}
	r.state = domain.StateWorking
}
