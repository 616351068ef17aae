package devices

import (
	"context"

	"github.com/MoCipher/EmailAlies/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, device *models.Device) (*models.Device, error)
	// GetByID is ownership-scoped: a device id that exists but belongs to a
	// different user is reported as not found.
	GetByID(ctx context.Context, id, userID string) (*models.Device, error)
	GetByUser(ctx context.Context, userID string) ([]*models.Device, error)
	UpdateLastSync(ctx context.Context, id string, ts int64) error
}
