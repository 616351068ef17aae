package synclog

import (
	"context"

	"github.com/MoCipher/EmailAlies/internal/server/models"
)

type Repository interface {
	// Append adds one change entry. The log is append-only: no update or
	// delete operation exists on it.
	Append(ctx context.Context, entry *models.SyncLogEntry) (*models.SyncLogEntry, error)
	// GetSince returns the user's entries with timestamp strictly greater
	// than since, oldest first.
	GetSince(ctx context.Context, userID string, since int64) ([]*models.SyncLogEntry, error)
}
