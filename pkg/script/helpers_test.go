package script_test

import (
	"testing"

	"github.com/aretw0/threadbare/pkg/domain"
	"github.com/aretw0/threadbare/pkg/random"
	"github.com/aretw0/threadbare/pkg/script"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRunner(t *testing.T, opts ...script.Option) *script.Runner {
	t.Helper()
	base := []script.Option{script.WithRandom(&random.Fixed{})}
	r, err := script.New(append(base, opts...)...)
	require.NoError(t, err)
	return r
}

func requireViolation(t *testing.T, target error, fn func()) {
	t.Helper()
	defer func() {
		t.Helper()
		rec := recover()
		require.NotNil(t, rec, "expected a contract violation")
		cv, ok := rec.(*domain.ContractViolation)
		require.True(t, ok, "panic value %T: %v", rec, rec)
		assert.ErrorIs(t, cv, target)
	}()
	fn()
}

func node(name string, fn script.NodeFunc) *script.Node {
	return &script.Node{Name: name, Run: fn}
}

// idle is a node that suspends forever at its entry point.
func idle(name string) *script.Node {
	return node(name, func(r *script.Runner, n *script.NodeState) {
		r.Pause(n.ResumeLabel)
	})
}

func names(r *script.Runner) []string {
	out := make([]string, 0, r.Depth())
	for _, f := range r.Frames() {
		out = append(out, f.Node.Name)
	}
	return out
}
