package ports

import (
	"context"

	"github.com/aretw0/threadbare/pkg/domain"
)

// SaveStore persists runner snapshots, enabling "Stop & Resume" of a story.
type SaveStore interface {
	// Save persists the snapshot for a given session ID, replacing any previous one.
	Save(ctx context.Context, sessionID string, snap *domain.Snapshot) error

	// Load retrieves the snapshot for a given session ID.
	// Returns domain.ErrSaveNotFound if the session has no save.
	Load(ctx context.Context, sessionID string) (*domain.Snapshot, error)

	// Delete removes the save. Deleting a missing save is not an error.
	Delete(ctx context.Context, sessionID string) error

	// List returns the IDs of all saved sessions.
	List(ctx context.Context) ([]string, error)
}
