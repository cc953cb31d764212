package store

import (
	"context"

	"github.com/ImaanAdrees/smartscribe/internal/model"
)

// Store is the local persistence interface for the notification cache.
// The cache mirrors the server list so the inbox has content before the
// first fetch completes (or offline); the in-memory list owned by the
// inbox remains the source of truth while the app runs.
type Store interface {
	// ReplaceAll atomically replaces the cached list with the given one,
	// preserving its order.
	ReplaceAll(ctx context.Context, notifications []model.Notification) error

	// List returns the cached notifications in stored order.
	List(ctx context.Context) ([]model.Notification, error)

	// MarkRead flips the read flag on a single cached notification.
	MarkRead(ctx context.Context, id string) error

	// Delete removes a single cached notification.
	Delete(ctx context.Context, id string) error

	// Close releases the underlying database handle.
	Close() error
}
