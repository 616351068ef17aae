package services

import (
	"context"
	"fmt"

	"github.com/MoCipher/EmailAlies/internal/common"
	"github.com/MoCipher/EmailAlies/internal/logging"
	"github.com/MoCipher/EmailAlies/internal/server/models"
	"github.com/MoCipher/EmailAlies/internal/server/repositories/repomanager"
	"github.com/MoCipher/EmailAlies/internal/server/storage"
)

// EmailService ingests inbound messages for aliases and manages their read
// state.
type EmailService struct {
	store       *storage.Store
	repomanager repomanager.RepositoryManager
	sync        *SyncService
	logger      logging.Logger
}

func NewEmailService(store *storage.Store, m repomanager.RepositoryManager, sync *SyncService, logger logging.Logger) *EmailService {
	return &EmailService{
		store:       store,
		repomanager: m,
		sync:        sync,
		logger:      logger,
	}
}

// Ingest stores an inbound message under the alias its recipient address
// resolves to. Unknown and deactivated aliases both read as absent.
func (s *EmailService) Ingest(ctx context.Context, sender, recipient, subject, content string) (*models.Email, error) {
	if err := validateEmailAddress("recipient", recipient); err != nil {
		return nil, err
	}

	h, err := s.store.Handle()
	if err != nil {
		return nil, err
	}

	alias, err := s.repomanager.Aliases(h).GetByAddress(ctx, recipient)
	if err != nil {
		return nil, err
	}
	if !alias.IsActive {
		return nil, common.ErrorNotFound
	}

	email, err := s.repomanager.Emails(h).Create(ctx, &models.Email{
		AliasID:   alias.ID,
		Sender:    sender,
		Recipient: recipient,
		Subject:   subject,
		Content:   content,
	})
	if err != nil {
		return nil, fmt.Errorf("storing email: %w", err)
	}

	if _, err := s.sync.RecordChange(ctx, alias.UserID, "", models.DataTypeEmail, email.ID, models.OpCreate, nil, nil); err != nil {
		return nil, err
	}

	return email, nil
}

// List returns the alias's emails newest-first, scoped to the owner.
func (s *EmailService) List(ctx context.Context, userID, aliasID string) ([]*models.Email, error) {
	h, err := s.store.Handle()
	if err != nil {
		return nil, err
	}

	alias, err := s.repomanager.Aliases(h).GetByID(ctx, aliasID)
	if err != nil {
		return nil, err
	}
	if alias.UserID != userID {
		return nil, common.ErrorNotFound
	}

	return s.repomanager.Emails(h).GetByAlias(ctx, aliasID)
}

// MarkRead flips the message's read flag. The flag never goes back.
func (s *EmailService) MarkRead(ctx context.Context, userID, emailID string) (*models.Email, error) {
	h, err := s.store.Handle()
	if err != nil {
		return nil, err
	}
	repo := s.repomanager.Emails(h)

	email, err := repo.GetByID(ctx, emailID)
	if err != nil {
		return nil, err
	}
	alias, err := s.repomanager.Aliases(h).GetByID(ctx, email.AliasID)
	if err != nil {
		return nil, err
	}
	if alias.UserID != userID {
		return nil, common.ErrorNotFound
	}

	if !email.IsRead {
		if _, err := repo.MarkRead(ctx, emailID); err != nil {
			return nil, err
		}
		if _, err := s.sync.RecordChange(ctx, userID, "", models.DataTypeEmail, emailID, models.OpUpdate, nil, nil); err != nil {
			return nil, err
		}
		email.IsRead = true
	}

	return email, nil
}
