package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/threadbare/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func contractSnapshot(node string, label int) *domain.Snapshot {
	return &domain.Snapshot{
		State:     domain.StateOptions,
		WaitTimer: 0,
		Frames: []domain.FrameSnapshot{
			{Node: "Start", ResumeLabel: 3},
			{Node: node, ResumeLabel: label, Tags: []domain.NodeTag{2}, TagParams: []int{7}},
		},
		Options: []domain.OptionSnapshot{
			{Text: "Yes", NextStep: 4, Condition: true},
			{Text: "No", NextStep: 5, Condition: false},
		},
		Flags: []byte{'T', 'B', 'F', '1', 0, 0},
	}
}

// RunSaveStoreContract runs a suite of tests to verify that a SaveStore implementation
// adheres to the defined interface contract.
func RunSaveStoreContract(t *testing.T, store SaveStore) {
	ctx := context.Background()
	sessionID := "contract-test-session-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		snap := contractSnapshot("Shop", 12)
		require.NoError(t, store.Save(ctx, sessionID, snap))

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, snap, loaded)
	})

	t.Run("Save Overwrites", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, sessionID, contractSnapshot("Shop", 12)))
		require.NoError(t, store.Save(ctx, sessionID, contractSnapshot("Inn", 1)))

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, "Inn", loaded.Top())
	})

	t.Run("Load Returns Independent Copy", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, sessionID, contractSnapshot("Shop", 12)))
		first, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		first.Frames[0].Node = "mutated"

		second, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, "Start", second.Frames[0].Node)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrSaveNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, sessionID, contractSnapshot("Shop", 12)))
		require.NoError(t, store.Delete(ctx, sessionID))

		_, err := store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrSaveNotFound, "Load after Delete should return ErrSaveNotFound")

		assert.NoError(t, store.Delete(ctx, sessionID), "deleting twice is not an error")
	})

	t.Run("List", func(t *testing.T) {
		id1 := sessionID + "-1"
		id2 := sessionID + "-2"
		require.NoError(t, store.Save(ctx, id1, contractSnapshot("Shop", 1)))
		require.NoError(t, store.Save(ctx, id2, contractSnapshot("Shop", 2)))
		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		sessions, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, sessions, id1)
		assert.Contains(t, sessions, id2)
	})
}
