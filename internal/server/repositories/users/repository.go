package users

import (
	"context"

	"github.com/MoCipher/EmailAlies/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateMasterKey(ctx context.Context, id string, blob, salt []byte) error
}
