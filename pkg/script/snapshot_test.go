package script_test

import (
	"encoding/json"
	"testing"

	"github.com/aretw0/threadbare/pkg/domain"
	"github.com/aretw0/threadbare/pkg/script"
	"github.com/aretw0/threadbare/pkg/text"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshot_RoundTripAtOptions(t *testing.T) {
	choice := choiceNode()
	outer := node("outer", func(r *script.Runner, n *script.NodeState) {
		switch n.ResumeLabel {
		case 0:
			r.SetOnce(4)
			n.ResumeLabel = 1
			r.Detour(choice)
		case 1:
			r.EndNode()
		}
	})
	reg := script.NewRegistry(outer, choice)

	src := newRunner(t)
	src.Jump(outer)
	require.Equal(t, domain.StateOptions, src.Execute())

	snap, err := src.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, "choice", snap.Top())
	require.Len(t, snap.Options, 2)

	data, err := json.Marshal(snap)
	require.NoError(t, err)
	var decoded domain.Snapshot
	require.NoError(t, json.Unmarshal(data, &decoded))

	dst := newRunner(t)
	require.NoError(t, dst.Restore(&decoded, reg))
	assert.Equal(t, domain.StateOptions, dst.State())
	assert.Equal(t, []string{"outer", "choice"}, names(dst))
	assert.True(t, dst.Once(4))
	assert.Equal(t, "Right", dst.Options().At(1).String())

	dst.ChooseOption(0)
	require.Equal(t, domain.StateLine, dst.Execute())
	assert.Equal(t, "went left", dst.CurrentLine().String())
	assert.Equal(t, domain.StateOff, dst.Execute())
}

func TestSnapshot_RoundTripAtLine(t *testing.T) {
	nodeA := node("NodeA", func(r *script.Runner, n *script.NodeState) {
		if n.ResumeLabel == 0 {
			r.CurrentLine().StartNewLine()
			r.CurrentLine().Text("Hello")
			r.FinishLine(5)
			return
		}
		r.EndNode()
	})

	src := newRunner(t)
	src.Jump(nodeA)
	src.Execute()
	snap, err := src.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, "Hello", snap.Line)

	dst := newRunner(t)
	require.NoError(t, dst.Restore(snap, script.NewRegistry(nodeA)))
	assert.Equal(t, "Hello", dst.CurrentLine().String())
	assert.Equal(t, 5, dst.Top().ResumeLabel)
	assert.Equal(t, domain.StateOff, dst.Execute())
}

func TestRestore_RejectsBadSnapshots(t *testing.T) {
	known := idle("known")
	reg := script.NewRegistry(known)
	good := func() *domain.Snapshot {
		r := newRunner(t)
		r.Jump(known)
		r.Execute()
		snap, err := r.Snapshot()
		require.NoError(t, err)
		return snap
	}

	cases := []struct {
		name   string
		mutate func(s *domain.Snapshot)
		target error
	}{
		{"unknown node", func(s *domain.Snapshot) { s.Frames[0].Node = "missing" }, domain.ErrUnknownNode},
		{"working state", func(s *domain.Snapshot) { s.State = domain.StateWorking }, nil},
		{"off with frames", func(s *domain.Snapshot) { s.State = domain.StateOff }, nil},
		{"too deep", func(s *domain.Snapshot) {
			for len(s.Frames) <= domain.DefaultLimits().MaxStackDepth {
				s.Frames = append(s.Frames, s.Frames[0])
			}
		}, nil},
		{"corrupt flags", func(s *domain.Snapshot) { s.Flags = s.Flags[:3] }, nil},
		{"sealed", func(s *domain.Snapshot) { s.Sealed = []byte{0x01} }, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			snap := good()
			tc.mutate(snap)

			r := newRunner(t)
			r.SetOnce(1)
			err := r.Restore(snap, reg)
			require.Error(t, err)
			if tc.target != nil {
				assert.ErrorIs(t, err, tc.target)
			}
			assert.Equal(t, domain.StateOff, r.State(), "failed restore leaves the runner untouched")
			assert.True(t, r.Once(1))
		})
	}
}

func TestRegistry(t *testing.T) {
	a, b := idle("b-node"), idle("a-node")
	reg := script.NewRegistry(a, b)
	assert.Equal(t, []string{"a-node", "b-node"}, reg.Names())

	got, err := reg.Lookup("b-node")
	require.NoError(t, err)
	assert.Same(t, a, got)

	_, err = reg.Lookup("nope")
	assert.ErrorIs(t, err, domain.ErrUnknownNode)
}

func TestSnapshot_KeepsMarkupAndOptionCounters(t *testing.T) {
	n := node("marked", func(r *script.Runner, n *script.NodeState) {
		switch n.ResumeLabel {
		case 0:
			line := r.CurrentLine()
			line.StartNewLine()
			line.Text("Hello there")
			line.Markup.AddTag(2, 7)
			line.Markup.AddAttribute(1, 6, text.StringParam("red"), text.BoolParam(true))
			line.Markup.AddAttribute(2, 11)
			r.FinishLine(1)
		case 1:
			r.ClearOptions()
			yes := r.AddOption(2)
			yes.Text("Yes")
			yes.Markup.AddTag(3)
			yes.ConditionCount, yes.TrueConditionCount, yes.Complexity = 2, 2, 3
			yes.Condition = true
			no := r.AddOption(2)
			no.Text("No")
			no.ConditionCount, no.TrueConditionCount, no.Complexity = 1, 0, 1
			no.Condition = false
			r.PresentOptions()
		default:
			r.EndNode()
		}
	})
	reg := script.NewRegistry(n)
	roundTrip := func(src *script.Runner) *script.Runner {
		snap, err := src.Snapshot()
		require.NoError(t, err)
		data, err := json.Marshal(snap)
		require.NoError(t, err)
		var decoded domain.Snapshot
		require.NoError(t, json.Unmarshal(data, &decoded))
		dst := newRunner(t)
		require.NoError(t, dst.Restore(&decoded, reg))
		return dst
	}

	src := newRunner(t)
	src.Jump(n)
	require.Equal(t, domain.StateLine, src.Execute())

	dst := roundTrip(src)
	m := dst.CurrentLine().Markup
	assert.Equal(t, []domain.LineTag{2}, m.Tags)
	assert.Equal(t, []int{7}, m.TagParams)
	assert.Equal(t, []domain.Attribute{1, 2}, m.Attributes)
	assert.Equal(t, []int{6, 11}, m.AttributePositions)
	assert.Equal(t, []text.AttributeParam{text.StringParam("red"), text.BoolParam(true)}, m.AttributeParams)

	require.Equal(t, domain.StateOptions, dst.Execute())
	dst = roundTrip(dst)
	yes, no := dst.Options().At(0), dst.Options().At(1)
	assert.Equal(t, []domain.LineTag{3}, yes.Markup.Tags)
	assert.Equal(t, [3]int{2, 2, 3}, [3]int{yes.ConditionCount, yes.TrueConditionCount, yes.Complexity})
	assert.Equal(t, [3]int{1, 0, 1}, [3]int{no.ConditionCount, no.TrueConditionCount, no.Complexity})
	assert.True(t, yes.Enabled())
	assert.False(t, no.Enabled())
	assert.True(t, no.Markup.Empty())
}

func TestRestore_RejectsOversizedMarkup(t *testing.T) {
	known := idle("known")
	r := newRunner(t)
	r.Jump(known)
	r.Execute()
	snap, err := r.Snapshot()
	require.NoError(t, err)

	snap.LineMarkup = &domain.MarkupSnapshot{Tags: make([]domain.LineTag, domain.DefaultLimits().MaxTags+1)}
	err = newRunner(t).Restore(snap, script.NewRegistry(known))
	assert.ErrorContains(t, err, "markup has 5 tags")

	snap.LineMarkup = &domain.MarkupSnapshot{Attributes: []domain.Attribute{1}}
	err = newRunner(t).Restore(snap, script.NewRegistry(known))
	assert.ErrorContains(t, err, "0 attribute positions for 1 attributes")
}

func TestSnapshot_CarriesVariables(t *testing.T) {
	decls := []script.VarDecl{
		{Name: "gold", Initial: domain.IntValue(10)},
		{Name: "met_guard", Initial: domain.BoolValue(false)},
		{Name: "title", Initial: domain.StringValue("stranger")},
	}
	known := idle("known")
	reg := script.NewRegistry(known)

	src := newRunner(t, script.WithVariables(decls...))
	src.Jump(known)
	src.Execute()
	src.SetIntVar("gold", 3)
	src.SetBoolVar("met_guard", true)
	snap, err := src.Snapshot()
	require.NoError(t, err)
	require.Len(t, snap.Variables, 3)

	dst := newRunner(t, script.WithVariables(decls...))
	dst.SetStringVar("title", "friend")
	require.NoError(t, dst.Restore(snap, reg))
	assert.Equal(t, 3, dst.IntVar("gold"))
	assert.True(t, dst.BoolVar("met_guard"))
	assert.Equal(t, "stranger", dst.StringVar("title"))

	// Variables missing from the save start from their initial value.
	snap.Variables = snap.Variables[:1]
	dst.SetBoolVar("met_guard", true)
	require.NoError(t, dst.Restore(snap, reg))
	assert.False(t, dst.BoolVar("met_guard"))

	snap.Variables = []domain.VariableSnapshot{{Name: "gold", Value: domain.StringValue("lots")}}
	assert.ErrorIs(t, dst.Restore(snap, reg), domain.ErrVariableKind)
	snap.Variables = []domain.VariableSnapshot{{Name: "silver", Value: domain.IntValue(1)}}
	assert.ErrorIs(t, dst.Restore(snap, reg), domain.ErrUnknownVariable)
	assert.Equal(t, 3, dst.IntVar("gold"), "failed restore leaves variables untouched")
}
