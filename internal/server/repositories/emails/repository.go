package emails

import (
	"context"

	"github.com/MoCipher/EmailAlies/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, email *models.Email) (*models.Email, error)
	GetByID(ctx context.Context, id string) (*models.Email, error)
	GetByAlias(ctx context.Context, aliasID string) ([]*models.Email, error)
	MarkRead(ctx context.Context, id string) (int64, error)
	DeleteByAlias(ctx context.Context, aliasID string) error
}
