// Package emails provides the SQLite-backed repository for received
// messages. Emails belong to exactly one alias and are removed with it.
package emails

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

// SQLiteRepository implements email storage over a dbx.DBTX.
type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Create(ctx context.Context, email *models.Email) (*models.Email, error) {
	if email.ID == "" {
		email.ID = uuid.NewString()
	}

	query := `
		INSERT INTO emails (id, alias_id, sender, recipient, subject, content, is_read)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING received_at
	`
	var receivedAt int64
	err := r.db.QueryRowContext(ctx, query,
		email.ID, email.AliasID, email.Sender, email.Recipient, email.Subject, email.Content, email.IsRead).Scan(&receivedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	email.ReceivedAt = time.UnixMicro(receivedAt).UTC()
	return email, nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*models.Email, error) {
	query := `
		SELECT id, alias_id, sender, recipient, subject, content, is_read, received_at FROM emails
		WHERE id = ?
	`
	email := &models.Email{}
	var receivedAt int64
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&email.ID, &email.AliasID, &email.Sender, &email.Recipient, &email.Subject, &email.Content, &email.IsRead, &receivedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	email.ReceivedAt = time.UnixMicro(receivedAt).UTC()
	return email, nil
}

// GetByAlias returns the alias's emails newest-first.
func (r *SQLiteRepository) GetByAlias(ctx context.Context, aliasID string) ([]*models.Email, error) {
	query := `
		SELECT id, alias_id, sender, recipient, subject, content, is_read, received_at FROM emails
		WHERE alias_id = ? ORDER BY received_at DESC, id DESC
	`
	rows, err := r.db.QueryContext(ctx, query, aliasID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Email
	for rows.Next() {
		email := &models.Email{}
		var receivedAt int64
		if err := rows.Scan(&email.ID, &email.AliasID, &email.Sender, &email.Recipient,
			&email.Subject, &email.Content, &email.IsRead, &receivedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		email.ReceivedAt = time.UnixMicro(receivedAt).UTC()
		result = append(result, email)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

// MarkRead flips the read flag. The transition is monotone, so marking an
// already-read email is a no-op; zero rows affected is not an error.
func (r *SQLiteRepository) MarkRead(ctx context.Context, id string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE emails SET is_read = 1 WHERE id = ?`, id)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected error: %w", err)
	}
	return n, nil
}

// DeleteByAlias removes all emails for an alias. Used as the first phase of
// alias deletion to preserve referential integrity without engine cascades.
func (r *SQLiteRepository) DeleteByAlias(ctx context.Context, aliasID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM emails WHERE alias_id = ?`, aliasID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
