package aliases

import (
	"context"
	"errors"

	"github.com/MoCipher/EmailAlies/internal/server/models"
)

// ErrAliasTaken reports a collision on the globally unique alias string.
// The allocation loop in the alias service retries on it.
var ErrAliasTaken = errors.New("alias already taken")

type Repository interface {
	Create(ctx context.Context, alias *models.EmailAlias) (*models.EmailAlias, error)
	GetByID(ctx context.Context, id string) (*models.EmailAlias, error)
	GetByAddress(ctx context.Context, address string) (*models.EmailAlias, error)
	GetByUser(ctx context.Context, userID string) ([]*models.EmailAlias, error)
	ExistsByAddress(ctx context.Context, address string) (bool, error)
	Update(ctx context.Context, id string, upd models.AliasUpdate) (int64, error)
	Delete(ctx context.Context, id string) error
}
