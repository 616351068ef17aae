package services

import (
	"context"
	"fmt"

	"github.com/MoCipher/EmailAlies/internal/logging"
	"github.com/MoCipher/EmailAlies/internal/server/keys"
	"github.com/MoCipher/EmailAlies/internal/server/models"
	"github.com/MoCipher/EmailAlies/internal/server/repositories/repomanager"
	"github.com/MoCipher/EmailAlies/internal/server/storage"
	"github.com/MoCipher/EmailAlies/internal/shared"
)

// UserService onboards users and owns the lifecycle of their wrapped master
// keys. The plaintext master key is returned to callers for the duration of
// one sync session only; callers must wipe it when done.
type UserService struct {
	store       *storage.Store
	repomanager repomanager.RepositoryManager
	keys        *keys.Manager
	logger      logging.Logger
}

func NewUserService(store *storage.Store, m repomanager.RepositoryManager, km *keys.Manager, logger logging.Logger) *UserService {
	return &UserService{
		store:       store,
		repomanager: m,
		keys:        km,
		logger:      logger,
	}
}

// Onboard creates a user together with a freshly generated, wrapped master
// key and its salt. The plaintext key is wiped before returning.
func (s *UserService) Onboard(ctx context.Context, email string, isAdmin bool) (*models.User, error) {
	if err := validateEmailAddress("email", email); err != nil {
		return nil, err
	}

	h, err := s.store.Handle()
	if err != nil {
		return nil, err
	}

	key, salt, err := s.keys.GenerateMasterKey()
	if err != nil {
		return nil, err
	}
	defer shared.WipeByteArray(key)

	blob, err := s.keys.Wrap(key, salt)
	if err != nil {
		return nil, err
	}

	user, err := s.repomanager.Users(h).Create(ctx, &models.User{
		Email:              email,
		EncryptedMasterKey: blob,
		KeySalt:            salt,
		IsAdmin:            isAdmin,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "user onboarded", "user_id", user.ID)
	return user, nil
}

// Get returns the user row by id.
func (s *UserService) Get(ctx context.Context, userID string) (*models.User, error) {
	h, err := s.store.Handle()
	if err != nil {
		return nil, err
	}
	return s.repomanager.Users(h).GetByID(ctx, userID)
}

// MasterKey unwraps the user's master key for one sync session. The caller
// owns the returned slice and must wipe it when the session ends.
func (s *UserService) MasterKey(ctx context.Context, userID string) ([]byte, error) {
	h, err := s.store.Handle()
	if err != nil {
		return nil, err
	}

	user, err := s.repomanager.Users(h).GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	return s.keys.Unwrap(user.EncryptedMasterKey, user.KeySalt)
}

// RewrapMasterKey re-encrypts the stored key blob under a fresh salt. The
// master key itself is unchanged, so existing log payloads stay readable.
func (s *UserService) RewrapMasterKey(ctx context.Context, userID string) error {
	h, err := s.store.Handle()
	if err != nil {
		return err
	}
	repo := s.repomanager.Users(h)

	user, err := repo.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	key, err := s.keys.Unwrap(user.EncryptedMasterKey, user.KeySalt)
	if err != nil {
		return err
	}
	defer shared.WipeByteArray(key)

	salt, err := shared.MakeRandByteArray(len(user.KeySalt))
	if err != nil {
		return fmt.Errorf("generating salt: %w", err)
	}

	blob, err := s.keys.Wrap(key, salt)
	if err != nil {
		return err
	}

	return repo.UpdateMasterKey(ctx, userID, blob, salt)
}
