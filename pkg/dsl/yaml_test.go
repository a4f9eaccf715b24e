package dsl_test

import (
	"testing"

	"github.com/aretw0/threadbare/pkg/domain"
	"github.com/aretw0/threadbare/pkg/dsl"
	"github.com/aretw0/threadbare/pkg/random"
	"github.com/aretw0/threadbare/pkg/script"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func TestLoadFile_Tavern(t *testing.T) {
	story, err := dsl.LoadFile("testdata/tavern.yaml")
	require.NoError(t, err)

	assert.Equal(t, "tavern", story.Name)
	assert.Equal(t, "Door", story.Start.Name)
	assert.Equal(t, 3, story.Limits.MaxStackDepth)
	assert.Equal(t, 300, story.Limits.LineBufferSize)
	assert.Equal(t, 4, story.Limits.VisitedNodeCount)
	assert.Equal(t, 1, story.Limits.OnceCount)

	r, err := story.NewRunner(script.WithRandom(&random.Fixed{}), script.WithTickRate(2))
	require.NoError(t, err)

	choose := func(i int) {
		t.Helper()
		require.Equal(t, domain.StateTimer, r.Execute())
		assert.Equal(t, 2, r.WaitTimer())
		r.WaitTick()
		r.WaitTick()
		require.Equal(t, domain.StateOptions, r.Execute())
		r.ChooseOption(i)
	}

	requireLine(t, r, "The door creaks open.")
	choose(0)
	requireLine(t, r, "The barkeep nods.")
	requireLine(t, r, "Your first ale.")

	requireLine(t, r, "The door creaks open.")
	requireLine(t, r, "Good to see you again.")
	choose(0)
	requireLine(t, r, "Ale number 2.")

	requireLine(t, r, "The door creaks open.")
	requireLine(t, r, "Good to see you again.")
	choose(1)
	requireLine(t, r, "You count your coins.")
	assert.Equal(t, 2, r.Depth())

	require.Equal(t, domain.StatePaused, r.Execute())
	assert.Equal(t, 1, r.Depth())
	r.Resume()
	assert.Equal(t, domain.StateOff, r.Execute())
}

func TestLoad_LeaveContinuesAfterChoice(t *testing.T) {
	story, err := dsl.LoadFile("testdata/tavern.yaml")
	require.NoError(t, err)
	r, err := story.NewRunner(script.WithTickRate(1))
	require.NoError(t, err)

	requireLine(t, r, "The door creaks open.")
	require.Equal(t, domain.StateTimer, r.Execute())
	r.WaitTick()
	require.Equal(t, domain.StateOptions, r.Execute())

	_, enabled := optionTexts(r)
	assert.Equal(t, []bool{true, false, true}, enabled)
	r.ChooseOption(2)
	requireLine(t, r, "Goodbye.")
	assert.Equal(t, domain.StateOff, r.Execute())
}

func TestLoadFile_VariablesAndGroups(t *testing.T) {
	story, err := dsl.LoadFile("testdata/guard.yaml")
	require.NoError(t, err)
	assert.Equal(t, language.French, story.Locale)
	require.Len(t, story.Variables, 2)
	assert.Equal(t, "bribe", story.Variables[0].Name)

	r, err := story.NewRunner(script.WithRandom(&random.Fixed{}))
	require.NoError(t, err)

	requireLine(t, r, "I watch this gate.")
	requireLine(t, r, "The guard has taken at most one bribe.")
	require.Equal(t, domain.StateOptions, r.Execute())
	pass := r.Options().At(1)
	assert.False(t, pass.Enabled())
	assert.Equal(t, 2, pass.ConditionCount)

	r.ChooseOption(0)
	requireLine(t, r, "Careful now.")
	requireLine(t, r, "The guard has taken at most one bribe.")
	require.Equal(t, domain.StateOptions, r.Execute())
	assert.Equal(t, 1, r.Options().At(1).TrueConditionCount)

	r.ChooseOption(0)
	requireLine(t, r, "Careful now.")
	requireLine(t, r, "The guard has taken 2 bribes.")
	require.Equal(t, domain.StateOptions, r.Execute())
	assert.True(t, r.Options().At(1).Enabled())
	r.ChooseOption(1)
	requireLine(t, r, "You pass.")
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{
			name: "Invalid YAML",
			doc:  "nodes: [",
			want: "failed to parse story",
		},
		{
			name: "Unknown Top Level Field",
			doc:  "title: x\nnodes: []",
			want: "field title not found",
		},
		{
			name: "Unknown Step Field",
			doc:  "nodes:\n  - name: A\n    steps:\n      - shout: hi",
			want: "shout",
		},
		{
			name: "Bad Locale",
			doc:  "locale: not a tag\nnodes:\n  - name: A",
			want: "invalid locale",
		},
		{
			name: "Var Without Comparison",
			doc:  "variables: {gold: 1}\nnodes:\n  - name: A\n    steps:\n      - {line: hi, if: {var: {name: gold}}}",
			want: `var condition on "gold" compares nothing`,
		},
		{
			name: "Set Undeclared",
			doc:  "nodes:\n  - name: A\n    steps:\n      - set: {gold: 1}",
			want: "unknown story variable",
		},
		{
			name: "Two Actions",
			doc:  "nodes:\n  - name: A\n    steps:\n      - {line: hi, jump: A}",
			want: "exactly one action, found 2",
		},
		{
			name: "If On Jump",
			doc:  "nodes:\n  - name: A\n    steps:\n      - {jump: A, if: {visited: A}}",
			want: "if is only allowed",
		},
		{
			name: "Empty Condition",
			doc:  "nodes:\n  - name: A\n    steps:\n      - {line: hi, if: {}}",
			want: "exactly one test, found 0",
		},
		{
			name: "Duplicate Node",
			doc:  "nodes:\n  - name: A\n  - name: A",
			want: "defined twice",
		},
		{
			name: "Nameless Node",
			doc:  "nodes:\n  - steps: [hi]",
			want: "without a name",
		},
		{
			name: "Unknown Target",
			doc:  "nodes:\n  - name: A\n    steps:\n      - jump: B",
			want: "unknown node: B",
		},
		{
			name: "No Nodes",
			doc:  "name: empty",
			want: "story has no nodes",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := dsl.Load([]byte(tt.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := dsl.LoadFile("testdata/missing.yaml")
	assert.Error(t, err)
}

func TestLoad_BaseLimits(t *testing.T) {
	base := domain.DefaultLimits()
	base.LineBufferSize = 10
	base.MaxStackDepth = 6

	_, err := dsl.Load([]byte("nodes:\n  - name: A\n    steps: [a line that is too long]"), dsl.WithBaseLimits(base))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "buffer holds 10")

	story, err := dsl.Load([]byte("limits: {line_buffer_size: 64}\nnodes:\n  - name: A\n    steps: [a line that now fits]"), dsl.WithBaseLimits(base))
	require.NoError(t, err)
	assert.Equal(t, 64, story.Limits.LineBufferSize)
	assert.Equal(t, 6, story.Limits.MaxStackDepth)
}
