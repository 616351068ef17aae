// Package services contains the server-side business logic built on top of
// the storage adapter and repositories.
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/MoCipher/EmailAlies/internal/common"
	"github.com/MoCipher/EmailAlies/internal/cryptox"
	"github.com/MoCipher/EmailAlies/internal/logging"
	"github.com/MoCipher/EmailAlies/internal/server/auth"
	"github.com/MoCipher/EmailAlies/internal/server/config"
	"github.com/MoCipher/EmailAlies/internal/server/models"
	"github.com/MoCipher/EmailAlies/internal/server/repositories/repomanager"
	"github.com/MoCipher/EmailAlies/internal/server/storage"
	"github.com/MoCipher/EmailAlies/internal/shared"
	"github.com/VictoriaMetrics/metrics"
)

var (
	syncRounds          = metrics.NewCounter(`sync_rounds_total`)
	syncChangesRecorded = metrics.NewCounter(`sync_changes_recorded_total`)
	syncDecryptFailures = metrics.NewCounter(`sync_payload_decrypt_failures_total`)
)

// Change is one decoded sync log entry. Payload is the decrypted plaintext,
// or nil when the entry is metadata-only or failed to decrypt.
type Change struct {
	Entry   *models.SyncLogEntry
	Payload []byte
}

// SyncResult is the response of one sync round: the authoritative alias
// snapshot, the change window, and the watermark the device must present
// next time.
type SyncResult struct {
	Aliases          []*models.EmailAlias
	Changes          []*Change
	NewSyncTimestamp int64
}

// SyncService registers devices, appends change entries and computes sync
// deltas. The user's master key is supplied per call and never retained.
type SyncService struct {
	store         *storage.Store
	repomanager   repomanager.RepositoryManager
	logger        logging.Logger
	secretKey     []byte
	tokenValidity time.Duration
}

// NewSyncService constructs a SyncService bound to one storage adapter.
func NewSyncService(store *storage.Store, m repomanager.RepositoryManager, logger logging.Logger, cfg *config.Config) *SyncService {
	return &SyncService{
		store:         store,
		repomanager:   m,
		logger:        logger,
		secretKey:     []byte(cfg.SecretKey),
		tokenValidity: cfg.DeviceTokenValidityDuration,
	}
}

// RegisterDevice creates a device row with a fresh opaque device key and
// returns it together with a signed sync-channel token.
func (s *SyncService) RegisterDevice(ctx context.Context, userID, deviceName string) (*models.Device, string, error) {
	if deviceName == "" {
		return nil, "", common.NewValidationError("device_name", "must not be empty")
	}

	h, err := s.store.Handle()
	if err != nil {
		return nil, "", err
	}

	deviceKey, err := shared.MakeRandHexString(32)
	if err != nil {
		return nil, "", fmt.Errorf("generating device key: %w", err)
	}

	device, err := s.repomanager.Devices(h).Create(ctx, &models.Device{
		UserID:    userID,
		Name:      deviceName,
		DeviceKey: deviceKey,
	})
	if err != nil {
		return nil, "", fmt.Errorf("creating device: %w", err)
	}

	token, err := auth.GenerateDeviceToken(userID, device.ID, s.secretKey, s.tokenValidity)
	if err != nil {
		return nil, "", fmt.Errorf("signing device token: %w", err)
	}

	s.logger.Info(ctx, "device registered", "user_id", userID, "device_id", device.ID)
	return device, token, nil
}

// Authorize resolves a sync-channel token back to its user/device pair.
func (s *SyncService) Authorize(token string) (userID, deviceID string, err error) {
	userID, deviceID, err = auth.ParseDeviceToken(token, s.secretKey)
	if err != nil {
		return "", "", common.ErrorUnauthorized
	}
	return userID, deviceID, nil
}

// RecordChange appends one entry to the user's change log. When payload and
// master key are both supplied, the payload is stored encrypted under the
// key; otherwise a metadata-only entry is written, which is enough for
// mutations recoverable from the primary tables.
func (s *SyncService) RecordChange(ctx context.Context, userID, deviceID, dataType, entityID string,
	op models.SyncOperation, payload, masterKey []byte) (*models.SyncLogEntry, error) {

	h, err := s.store.Handle()
	if err != nil {
		return nil, err
	}

	var blob []byte
	if len(payload) > 0 && len(masterKey) > 0 {
		blob, err = cryptox.Seal(masterKey, payload)
		if err != nil {
			return nil, fmt.Errorf("encrypting change payload: %w", err)
		}
	}

	entry, err := s.repomanager.SyncLog(h).Append(ctx, &models.SyncLogEntry{
		UserID:    userID,
		DeviceID:  deviceID,
		DataType:  dataType,
		EntityID:  entityID,
		Payload:   blob,
		Operation: op,
	})
	if err != nil {
		return nil, fmt.Errorf("appending sync entry: %w", err)
	}

	syncChangesRecorded.Inc()
	return entry, nil
}

// SyncDevice runs one sync round for the device: it reads every log entry
// with timestamp strictly greater than lastSync, decrypts what it can,
// snapshots the current aliases from the primary table, and advances the
// device's watermark.
//
// The returned watermark is the maximum entry timestamp observed in this
// round (unchanged when the window was empty), so a write concurrent with
// the round is replayed next time instead of being silently skipped.
// Decryption is best-effort per entry: one bad entry yields a nil payload
// and the round carries on.
func (s *SyncService) SyncDevice(ctx context.Context, userID, deviceID string, masterKey []byte, lastSync int64) (*SyncResult, error) {
	h, err := s.store.Handle()
	if err != nil {
		return nil, err
	}

	// Ownership check first: a foreign device id reads as absent.
	device, err := s.repomanager.Devices(h).GetByID(ctx, deviceID, userID)
	if err != nil {
		return nil, err
	}

	entries, err := s.repomanager.SyncLog(h).GetSince(ctx, userID, lastSync)
	if err != nil {
		return nil, fmt.Errorf("reading sync log: %w", err)
	}

	newTS := lastSync
	changes := make([]*Change, 0, len(entries))
	for _, entry := range entries {
		if entry.CreatedAt > newTS {
			newTS = entry.CreatedAt
		}

		change := &Change{Entry: entry}
		if len(entry.Payload) > 0 && len(masterKey) > 0 {
			plaintext, err := cryptox.Open(masterKey, entry.Payload)
			if err != nil {
				syncDecryptFailures.Inc()
				s.logger.Debug(ctx, "undecryptable sync entry skipped", "entry_id", entry.ID)
			} else {
				change.Payload = plaintext
			}
		}
		changes = append(changes, change)
	}

	// The snapshot comes from the primary table; the log is delta
	// bookkeeping, not the source of truth for current state.
	aliases, err := s.repomanager.Aliases(h).GetByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("reading alias snapshot: %w", err)
	}

	if err := s.repomanager.Devices(h).UpdateLastSync(ctx, device.ID, newTS); err != nil {
		return nil, fmt.Errorf("advancing device watermark: %w", err)
	}

	syncRounds.Inc()
	return &SyncResult{Aliases: aliases, Changes: changes, NewSyncTimestamp: newTS}, nil
}
