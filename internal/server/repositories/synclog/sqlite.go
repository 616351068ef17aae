// Package synclog provides the SQLite-backed repository for the append-only
// per-user change log consumed by sync rounds.
package synclog

import (
	"context"
	"fmt"

	"github.com/MoCipher/EmailAlies/internal/dbx"
	"github.com/MoCipher/EmailAlies/internal/server/models"
	"github.com/google/uuid"
)

// SQLiteRepository implements the change log over a dbx.DBTX.
type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Append inserts one entry and reads back its engine-assigned timestamp.
// Ordering within a user rides entirely on that server-clock value.
func (r *SQLiteRepository) Append(ctx context.Context, entry *models.SyncLogEntry) (*models.SyncLogEntry, error) {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}

	query := `
		INSERT INTO sync_data (id, user_id, device_id, data_type, entity_id, payload, operation)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		entry.ID, entry.UserID, entry.DeviceID, entry.DataType, entry.EntityID,
		entry.Payload, string(entry.Operation)).Scan(&entry.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return entry, nil
}

func (r *SQLiteRepository) GetSince(ctx context.Context, userID string, since int64) ([]*models.SyncLogEntry, error) {
	query := `
		SELECT id, user_id, device_id, data_type, entity_id, payload, operation, created_at FROM sync_data
		WHERE user_id = ? AND created_at > ?
		ORDER BY created_at ASC, id ASC
	`
	rows, err := r.db.QueryContext(ctx, query, userID, since)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.SyncLogEntry
	for rows.Next() {
		entry := &models.SyncLogEntry{}
		var op string
		if err := rows.Scan(&entry.ID, &entry.UserID, &entry.DeviceID, &entry.DataType,
			&entry.EntityID, &entry.Payload, &op, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		entry.Operation = models.SyncOperation(op)
		result = append(result, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}
