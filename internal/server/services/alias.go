package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"

	"github.com/MoCipher/EmailAlies/internal/common"
	"github.com/MoCipher/EmailAlies/internal/dbx"
	"github.com/MoCipher/EmailAlies/internal/logging"
	"github.com/MoCipher/EmailAlies/internal/server/config"
	"github.com/MoCipher/EmailAlies/internal/server/models"
	"github.com/MoCipher/EmailAlies/internal/server/repositories/aliases"
	"github.com/MoCipher/EmailAlies/internal/server/repositories/repomanager"
	"github.com/MoCipher/EmailAlies/internal/server/storage"
	"github.com/MoCipher/EmailAlies/internal/shared"
	"github.com/VictoriaMetrics/metrics"
)

var (
	aliasAllocations = metrics.NewCounter(`alias_allocations_total`)
	aliasCollisions  = metrics.NewCounter(`alias_allocation_collisions_total`)
)

// maxAllocationAttempts bounds the collision-retry loop so allocation
// latency stays bounded under namespace pressure.
const maxAllocationAttempts = 10

// localPartBytes of randomness per generated local part (12 hex chars).
const localPartBytes = 6

// AliasService allocates and manages forwarding aliases and, through the
// sync service, mirrors every mutation into the change log.
type AliasService struct {
	store       *storage.Store
	repomanager repomanager.RepositoryManager
	sync        *SyncService
	logger      logging.Logger
	domain      string
}

func NewAliasService(store *storage.Store, m repomanager.RepositoryManager, sync *SyncService, logger logging.Logger, cfg *config.Config) *AliasService {
	return &AliasService{
		store:       store,
		repomanager: m,
		sync:        sync,
		logger:      logger,
		domain:      cfg.AliasDomain,
	}
}

// Allocate creates a new alias with a random, human-unreadable local part.
// Uniqueness is global: the insert races against concurrent allocations and
// retries on collision, up to the attempt budget.
func (s *AliasService) Allocate(ctx context.Context, userID, description, forwardTo string) (*models.EmailAlias, error) {
	if err := validateEmailAddress("forward_to", forwardTo); err != nil {
		return nil, err
	}

	h, err := s.store.Handle()
	if err != nil {
		return nil, err
	}
	repo := s.repomanager.Aliases(h)

	for attempt := 0; attempt < maxAllocationAttempts; attempt++ {
		local, err := shared.MakeRandHexString(localPartBytes)
		if err != nil {
			return nil, fmt.Errorf("generating alias: %w", err)
		}
		address := local + "@" + s.domain

		// cheap pre-check; the unique index is the real arbiter
		taken, err := repo.ExistsByAddress(ctx, address)
		if err != nil {
			return nil, err
		}
		if taken {
			aliasCollisions.Inc()
			continue
		}

		created, err := repo.Create(ctx, &models.EmailAlias{
			UserID:      userID,
			Alias:       address,
			Description: description,
			ForwardTo:   forwardTo,
			IsActive:    true,
		})
		if errors.Is(err, aliases.ErrAliasTaken) {
			aliasCollisions.Inc()
			continue
		}
		if err != nil {
			return nil, err
		}

		if _, err := s.sync.RecordChange(ctx, userID, "", models.DataTypeAlias, created.ID, models.OpCreate, nil, nil); err != nil {
			return nil, err
		}

		aliasAllocations.Inc()
		s.logger.Info(ctx, "alias allocated", "user_id", userID, "alias_id", created.ID)
		return created, nil
	}

	return nil, common.ErrAllocationExhausted
}

// Get returns one alias, scoped to its owner.
func (s *AliasService) Get(ctx context.Context, userID, aliasID string) (*models.EmailAlias, error) {
	h, err := s.store.Handle()
	if err != nil {
		return nil, err
	}
	return s.ownedAlias(ctx, h, userID, aliasID)
}

// List returns the user's aliases newest-first.
func (s *AliasService) List(ctx context.Context, userID string) ([]*models.EmailAlias, error) {
	h, err := s.store.Handle()
	if err != nil {
		return nil, err
	}
	return s.repomanager.Aliases(h).GetByUser(ctx, userID)
}

// Update changes the mutable fields only; the alias string and forwarding
// address are immutable once created.
func (s *AliasService) Update(ctx context.Context, userID, aliasID string, upd models.AliasUpdate) (*models.EmailAlias, error) {
	h, err := s.store.Handle()
	if err != nil {
		return nil, err
	}
	repo := s.repomanager.Aliases(h)

	if _, err := s.ownedAlias(ctx, h, userID, aliasID); err != nil {
		return nil, err
	}

	if _, err := repo.Update(ctx, aliasID, upd); err != nil {
		return nil, err
	}

	if _, err := s.sync.RecordChange(ctx, userID, "", models.DataTypeAlias, aliasID, models.OpUpdate, nil, nil); err != nil {
		return nil, err
	}

	return repo.GetByID(ctx, aliasID)
}

// Delete removes the alias and its emails in one transaction: dependents
// first, then the alias row, preserving referential integrity without
// engine-level cascades.
func (s *AliasService) Delete(ctx context.Context, userID, aliasID string) error {
	h, err := s.store.Handle()
	if err != nil {
		return err
	}

	if _, err := s.ownedAlias(ctx, h, userID, aliasID); err != nil {
		return err
	}

	err = s.store.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Emails(tx).DeleteByAlias(ctx, aliasID); err != nil {
			return err
		}
		return s.repomanager.Aliases(tx).Delete(ctx, aliasID)
	})
	if err != nil {
		return fmt.Errorf("deleting alias: %w", err)
	}

	if _, err := s.sync.RecordChange(ctx, userID, "", models.DataTypeAlias, aliasID, models.OpDelete, nil, nil); err != nil {
		return err
	}

	s.logger.Info(ctx, "alias deleted", "user_id", userID, "alias_id", aliasID)
	return nil
}

func (s *AliasService) ownedAlias(ctx context.Context, h dbx.DBTX, userID, aliasID string) (*models.EmailAlias, error) {
	alias, err := s.repomanager.Aliases(h).GetByID(ctx, aliasID)
	if err != nil {
		return nil, err
	}
	if alias.UserID != userID {
		// report foreign aliases as absent, not forbidden
		return nil, common.ErrorNotFound
	}
	return alias, nil
}

func validateEmailAddress(field, value string) error {
	if value == "" {
		return common.NewValidationError(field, "must not be empty")
	}
	addr, err := mail.ParseAddress(value)
	if err != nil || addr.Address != value {
		return common.NewValidationError(field, "not a valid email address")
	}
	return nil
}
