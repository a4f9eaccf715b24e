package middleware_test

import (
	"context"
	"crypto/rand"
	"io"
	"testing"

	"github.com/aretw0/threadbare/pkg/adapters/memory"
	"github.com/aretw0/threadbare/pkg/domain"
	"github.com/aretw0/threadbare/pkg/persistence/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generateKey(t *testing.T) []byte {
	k := make([]byte, 32)
	_, err := io.ReadFull(rand.Reader, k)
	require.NoError(t, err)
	return k
}

func sampleSnapshot(line string) *domain.Snapshot {
	return &domain.Snapshot{
		State:  domain.StateLine,
		Frames: []domain.FrameSnapshot{{Node: "Cellar", ResumeLabel: 2}},
		Line:   line,
		Flags:  []byte{1, 0, 0, 0},
	}
}

func TestEncryptionMiddleware_Roundtrip(t *testing.T) {
	underlying := memory.NewStore()
	secure := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})(underlying)
	ctx := context.Background()

	require.NoError(t, secure.Save(ctx, "s1", sampleSnapshot("The password is swordfish.")))

	stored, err := underlying.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, stored.Line)
	assert.Empty(t, stored.Frames)
	assert.NotEmpty(t, stored.Sealed)
	assert.Equal(t, domain.StateLine, stored.State, "state stays visible on the envelope")

	loaded, err := secure.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "The password is swordfish.", loaded.Line)
	assert.Equal(t, "Cellar", loaded.Top())
	assert.Empty(t, loaded.Sealed)
}

func TestEncryptionMiddleware_KeyRotation(t *testing.T) {
	underlying := memory.NewStore()
	oldKey, newKey := generateKey(t), generateKey(t)
	ctx := context.Background()

	oldStore := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: oldKey})(underlying)
	require.NoError(t, oldStore.Save(ctx, "s1", sampleSnapshot("old")))

	newStore := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey:    newKey,
		FallbackKeys: [][]byte{oldKey},
	})(underlying)

	loaded, err := newStore.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "old", loaded.Line)

	loaded.Line = "new"
	require.NoError(t, newStore.Save(ctx, "s1", loaded))

	_, err = oldStore.Load(ctx, "s1")
	assert.Error(t, err, "old key alone cannot open a save sealed with the new key")
}

func TestEncryptionMiddleware_RefusesPlainSave(t *testing.T) {
	underlying := memory.NewStore()
	ctx := context.Background()
	require.NoError(t, underlying.Save(ctx, "plain", sampleSnapshot("hi")))

	secure := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})(underlying)
	_, err := secure.Load(ctx, "plain")
	assert.ErrorIs(t, err, middleware.ErrNotSealed)

	_, err = secure.Load(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrSaveNotFound)
}

func TestEncryptionMiddleware_InvalidKey(t *testing.T) {
	assert.Panics(t, func() {
		middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: []byte("short-key")})
	})
}
