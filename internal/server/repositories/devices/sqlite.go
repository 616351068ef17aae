// Package devices provides the SQLite-backed repository for registered sync
// devices.
package devices

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/MoCipher/EmailAlies/internal/common"
	"github.com/MoCipher/EmailAlies/internal/dbx"
	"github.com/MoCipher/EmailAlies/internal/server/models"
	"github.com/google/uuid"
)

// SQLiteRepository implements device storage over a dbx.DBTX.
type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Create(ctx context.Context, device *models.Device) (*models.Device, error) {
	if device.ID == "" {
		device.ID = uuid.NewString()
	}

	query := `
		INSERT INTO devices (id, user_id, name, device_key, last_sync_at)
		VALUES (?, ?, ?, ?, ?)
		RETURNING created_at
	`
	var createdAt int64
	err := r.db.QueryRowContext(ctx, query,
		device.ID, device.UserID, device.Name, device.DeviceKey, device.LastSyncAt).Scan(&createdAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	device.CreatedAt = time.UnixMicro(createdAt).UTC()
	return device, nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id, userID string) (*models.Device, error) {
	query := `
		SELECT id, user_id, name, device_key, last_sync_at, created_at FROM devices
		WHERE id = ? AND user_id = ?
	`
	device := &models.Device{}
	var createdAt int64
	err := r.db.QueryRowContext(ctx, query, id, userID).Scan(
		&device.ID, &device.UserID, &device.Name, &device.DeviceKey, &device.LastSyncAt, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	device.CreatedAt = time.UnixMicro(createdAt).UTC()
	return device, nil
}

func (r *SQLiteRepository) GetByUser(ctx context.Context, userID string) ([]*models.Device, error) {
	query := `
		SELECT id, user_id, name, device_key, last_sync_at, created_at FROM devices
		WHERE user_id = ? ORDER BY created_at DESC, id DESC
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Device
	for rows.Next() {
		device := &models.Device{}
		var createdAt int64
		if err := rows.Scan(&device.ID, &device.UserID, &device.Name, &device.DeviceKey,
			&device.LastSyncAt, &createdAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		device.CreatedAt = time.UnixMicro(createdAt).UTC()
		result = append(result, device)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *SQLiteRepository) UpdateLastSync(ctx context.Context, id string, ts int64) error {
	res, err := r.db.ExecContext(ctx, `UPDATE devices SET last_sync_at = ? WHERE id = ?`, ts, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
