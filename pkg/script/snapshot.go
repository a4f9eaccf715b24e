package script

import (
	"fmt"
	"slices"

	"github.com/aretw0/threadbare/pkg/domain"
)

// Snapshot captures the runner as plain data.
func (r *Runner) Snapshot() (*domain.Snapshot, error) {
	blob, err := r.flags.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("failed to encode flags: %w", err)
	}

	snap := &domain.Snapshot{
		State:     r.state,
		WaitTimer: r.waitTimer,
		Frames:    make([]domain.FrameSnapshot, len(r.frames)),
		Flags:     blob,
	}
	if len(r.vars.decls) > 0 {
		snap.Variables = r.Variables()
	}
	for i, f := range r.frames {
		snap.Frames[i] = domain.FrameSnapshot{
			Node:        f.Node.Name,
			ResumeLabel: f.ResumeLabel,
			Tags:        slices.Clone(f.Tags),
			TagParams:   slices.Clone(f.TagParams),
		}
	}

	switch r.state {
	case domain.StateLine:
		snap.Line = r.currentLine.String()
		snap.LineMarkup = r.currentLine.Markup.Snapshot()
	case domain.StateOptions:
		for _, o := range r.options.All() {
			snap.Options = append(snap.Options, domain.OptionSnapshot{
				Text:               o.String(),
				Markup:             o.Markup.Snapshot(),
				NextStep:           o.NextStep,
				Condition:          o.Condition,
				ConditionCount:     o.ConditionCount,
				TrueConditionCount: o.TrueConditionCount,
				Complexity:         o.Complexity,
			})
		}
	}
	return snap, nil
}

// Restore replaces the runner's stack, state, pending text, variables and
// flags with the snapshot's. Node names are resolved through reg. The snapshot is external
// data, so mismatches are reported as errors rather than contract violations;
// on error the runner is left unchanged.
func (r *Runner) Restore(snap *domain.Snapshot, reg Registry) error {
	if snap == nil {
		return fmt.Errorf("nil snapshot")
	}
	if len(snap.Sealed) > 0 {
		return fmt.Errorf("snapshot is sealed")
	}
	if snap.State == domain.StateWorking {
		return fmt.Errorf("snapshot in working state")
	}
	if len(snap.Frames) > cap(r.frames) {
		return fmt.Errorf("snapshot has %d frames, stack depth is %d", len(snap.Frames), cap(r.frames))
	}
	if (len(snap.Frames) == 0) != (snap.State == domain.StateOff) {
		return fmt.Errorf("snapshot state %s with %d frames", snap.State, len(snap.Frames))
	}
	if len(snap.Line) > r.currentLine.Cap() {
		return fmt.Errorf("snapshot line is %d bytes, buffer holds %d", len(snap.Line), r.currentLine.Cap())
	}
	if len(snap.Options) > r.options.Cap() {
		return fmt.Errorf("snapshot has %d options, list holds %d", len(snap.Options), r.options.Cap())
	}

	nodes := make([]*Node, len(snap.Frames))
	for i, fs := range snap.Frames {
		n, err := reg.Lookup(fs.Node)
		if err != nil {
			return err
		}
		if len(fs.Tags) > r.limits.MaxNodeTags || len(fs.TagParams) > r.limits.MaxNodeTagParams {
			return fmt.Errorf("frame %s carries more tags than the limits allow", fs.Node)
		}
		nodes[i] = n
	}
	if err := r.currentLine.Markup.CheckFits(snap.LineMarkup); err != nil {
		return fmt.Errorf("snapshot line: %w", err)
	}
	for i, o := range snap.Options {
		if len(o.Text) > r.limits.OptionBufferSize {
			return fmt.Errorf("snapshot option is %d bytes, buffer holds %d", len(o.Text), r.limits.OptionBufferSize)
		}
		// Every pooled option shares the line's markup limits.
		if err := r.currentLine.Markup.CheckFits(o.Markup); err != nil {
			return fmt.Errorf("snapshot option %d: %w", i, err)
		}
	}
	if err := r.checkVariables(snap.Variables); err != nil {
		return err
	}

	if err := r.flags.UnmarshalBinary(snap.Flags); err != nil {
		return fmt.Errorf("failed to restore flags: %w", err)
	}

	r.frames = r.frames[:len(snap.Frames)]
	for i, fs := range snap.Frames {
		f := &r.frames[i]
		f.reset(nodes[i])
		f.ResumeLabel = fs.ResumeLabel
		f.Tags = append(f.Tags, fs.Tags...)
		f.TagParams = append(f.TagParams, fs.TagParams...)
	}

	r.currentLine.StartNewLine()
	r.currentLine.Text(snap.Line)
	r.currentLine.Markup.Load(snap.LineMarkup)
	r.options.Clear()
	for _, opt := range snap.Options {
		o := r.options.Add(opt.NextStep)
		o.Text(opt.Text)
		o.Markup.Load(opt.Markup)
		o.Condition = opt.Condition
		o.ConditionCount = opt.ConditionCount
		o.TrueConditionCount = opt.TrueConditionCount
		o.Complexity = opt.Complexity
	}
	r.loadVariables(snap.Variables)

	r.state = snap.State
	r.waitTimer = snap.WaitTimer
	r.logger.Debug("runner restored", "state", r.state, "node", r.topName(), "depth", len(r.frames))
	return nil
}
