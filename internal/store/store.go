// Package store provides the composition store: per-user, volatile,
// overwrite-on-write. All state is process memory and is lost on restart.
package store

import (
	"context"
	"time"

	"github.com/microsoft/portal-ux-agent/pkg/models"
)

// CompositionStore owns Composition lifetime. Writes fully replace the
// prior composition for a userId; there is no merge and no per-user
// sequencing — concurrent writes for the same user are last-write-wins,
// which is an accepted race (stream events from the losing call may
// describe a composition that is no longer the stored one).
type CompositionStore interface {
	// Set stores the composition under comp.UserID, replacing any prior one.
	Set(ctx context.Context, comp *models.Composition) error

	// Get returns a copy of the stored composition for the user.
	Get(ctx context.Context, userID string) (*models.Composition, error)

	// Delete removes the user's composition, reporting whether one existed.
	Delete(ctx context.Context, userID string) (bool, error)

	// ListUserIDs returns the userIds that currently have a composition.
	ListUserIDs(ctx context.Context) ([]string, error)

	// EvictOlderThan removes compositions created before now-ttl and
	// returns how many were removed.
	EvictOlderThan(ctx context.Context, ttl time.Duration) (int, error)

	// Close stops background work.
	Close() error
}

// ErrNotFound is returned when no composition exists for a userId.
type ErrNotFound struct {
	UserID string
}

func (e *ErrNotFound) Error() string {
	return "composition not found: " + e.UserID
}
