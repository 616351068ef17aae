// Package users provides the SQLite-backed repository for user rows,
// including the wrapped master key blob and its salt.
package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MoCipher/EmailAlies/internal/common"
	"github.com/MoCipher/EmailAlies/internal/dbx"
	"github.com/MoCipher/EmailAlies/internal/server/models"
	"github.com/google/uuid"
)

// SQLiteRepository implements user storage over a dbx.DBTX.
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository constructs a repository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Create inserts a new user. The id is assigned here when absent; the row
// timestamp is engine-assigned. A duplicate email surfaces as a validation
// error on the email field.
func (r *SQLiteRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}

	query := `
		INSERT INTO users (id, email, encrypted_master_key, key_salt, is_admin)
		VALUES (?, ?, ?, ?, ?)
		RETURNING created_at
	`
	var createdAt int64
	err := r.db.QueryRowContext(ctx, query,
		user.ID, user.Email, user.EncryptedMasterKey, user.KeySalt, user.IsAdmin).Scan(&createdAt)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: users.email") {
			return nil, common.NewValidationError("email", "already registered")
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	user.CreatedAt = time.UnixMicro(createdAt).UTC()
	return user, nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `
		SELECT id, email, encrypted_master_key, key_salt, is_admin, created_at FROM users
		WHERE id = ?
	`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

func (r *SQLiteRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `
		SELECT id, email, encrypted_master_key, key_salt, is_admin, created_at FROM users
		WHERE email = ?
	`
	return r.scanOne(r.db.QueryRowContext(ctx, query, email))
}

// UpdateMasterKey replaces the wrapped key blob and its salt together.
// They are a pair; updating one without the other would strand the user.
func (r *SQLiteRepository) UpdateMasterKey(ctx context.Context, id string, blob, salt []byte) error {
	query := `
		UPDATE users SET encrypted_master_key = ?, key_salt = ?
		WHERE id = ?
	`
	res, err := r.db.ExecContext(ctx, query, blob, salt, id)
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

func (r *SQLiteRepository) scanOne(row *sql.Row) (*models.User, error) {
	user := &models.User{}
	var createdAt int64
	err := row.Scan(&user.ID, &user.Email, &user.EncryptedMasterKey, &user.KeySalt, &user.IsAdmin, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	user.CreatedAt = time.UnixMicro(createdAt).UTC()
	return user, nil
}
