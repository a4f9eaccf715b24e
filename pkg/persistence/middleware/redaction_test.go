package middleware_test

import (
	"context"
	"testing"

	"github.com/aretw0/threadbare/pkg/adapters/memory"
	"github.com/aretw0/threadbare/pkg/domain"
	"github.com/aretw0/threadbare/pkg/persistence/middleware"
	"github.com/aretw0/threadbare/pkg/script"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedactionMiddleware_Masking(t *testing.T) {
	underlying := memory.NewStore()
	store := middleware.NewRedactionMiddleware([]string{`swordfish`, `\d{3}-\d{4}`})(underlying)
	ctx := context.Background()

	snap := sampleSnapshot("Password swordfish, call 555-1234.")
	snap.State = domain.StateOptions
	snap.Options = []domain.OptionSnapshot{
		{Text: "Say swordfish", NextStep: 3, Condition: true},
		{Text: "Leave", NextStep: 4, Condition: true},
	}
	require.NoError(t, store.Save(ctx, "s1", snap))

	assert.Equal(t, "Password swordfish, call 555-1234.", snap.Line, "caller's snapshot is untouched")

	stored, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "Password *********, call ********.", stored.Line)
	assert.Equal(t, "Say *********", stored.Options[0].Text)
	assert.Equal(t, "Leave", stored.Options[1].Text)
}

func TestRedactionMiddleware_FullLineStillRestores(t *testing.T) {
	limits := domain.DefaultLimits()
	limits.LineBufferSize = 10
	badge := &script.Node{Name: "Badge"}
	badge.Run = func(r *script.Runner, n *script.NodeState) {
		switch n.ResumeLabel {
		case 0:
			r.CurrentLine().StartNewLine()
			r.CurrentLine().Text("id 1234567")
			r.FinishLine(1)
		default:
			r.EndNode()
		}
	}
	reg := script.NewRegistry(badge)

	r, err := script.New(script.WithLimits(limits))
	require.NoError(t, err)
	r.Jump(badge)
	require.Equal(t, domain.StateLine, r.Execute())
	snap, err := r.Snapshot()
	require.NoError(t, err)

	store := middleware.NewRedactionMiddleware([]string{`\d`, `é+`})(memory.NewStore())
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, "s1", snap))
	stored, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "id *******", stored.Line)

	resumed, err := script.New(script.WithLimits(limits))
	require.NoError(t, err)
	require.NoError(t, resumed.Restore(stored, reg))
	assert.Equal(t, "id *******", resumed.CurrentLine().String())
	assert.Equal(t, domain.StateOff, resumed.Execute())
}

func TestRedactionMiddleware_MultibyteMatchKeepsByteLength(t *testing.T) {
	underlying := memory.NewStore()
	store := middleware.NewRedactionMiddleware([]string{`é+`})(underlying)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "s1", sampleSnapshot("café")))
	stored, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "caf**", stored.Line)
	assert.Len(t, stored.Line, len("café"))
}

func TestChain_Order(t *testing.T) {
	underlying := memory.NewStore()
	key := generateKey(t)
	store := middleware.Chain(underlying,
		middleware.NewRedactionMiddleware([]string{`secret`}),
		middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key}),
	)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "s1", sampleSnapshot("a secret")))

	raw, err := underlying.Load(ctx, "s1")
	require.NoError(t, err)
	assert.NotEmpty(t, raw.Sealed)

	loaded, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "a ******", loaded.Line)

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"s1"}, ids)

	require.NoError(t, store.Delete(ctx, "s1"))
	_, err = store.Load(ctx, "s1")
	assert.ErrorIs(t, err, domain.ErrSaveNotFound)
}
