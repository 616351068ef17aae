// Package aliases provides the SQLite-backed repository for email aliases.
// The alias string is globally unique across all users.
package aliases

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

// SQLiteRepository implements alias storage over a dbx.DBTX.
type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Create(ctx context.Context, alias *models.EmailAlias) (*models.EmailAlias, error) {
	if alias.ID == "" {
		alias.ID = uuid.NewString()
	}

	query := `
		INSERT INTO email_aliases (id, user_id, alias, description, forward_to, is_active)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING created_at
	`
	var createdAt int64
	err := r.db.QueryRowContext(ctx, query,
		alias.ID, alias.UserID, alias.Alias, alias.Description, alias.ForwardTo, alias.IsActive).Scan(&createdAt)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: email_aliases.alias") {
			return nil, ErrAliasTaken
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	alias.CreatedAt = time.UnixMicro(createdAt).UTC()
	return alias, nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*models.EmailAlias, error) {
	query := selectColumns + ` WHERE id = ?`
	return scanOne(r.db.QueryRowContext(ctx, query, id))
}

func (r *SQLiteRepository) GetByAddress(ctx context.Context, address string) (*models.EmailAlias, error) {
	query := selectColumns + ` WHERE alias = ?`
	return scanOne(r.db.QueryRowContext(ctx, query, address))
}

// GetByUser returns the user's aliases newest-first.
func (r *SQLiteRepository) GetByUser(ctx context.Context, userID string) ([]*models.EmailAlias, error) {
	query := selectColumns + ` WHERE user_id = ? ORDER BY created_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.EmailAlias
	for rows.Next() {
		alias, err := scanRow(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, alias)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *SQLiteRepository) ExistsByAddress(ctx context.Context, address string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM email_aliases WHERE alias = ?`, address).Scan(&one)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("db error: %w", err)
	}
	return true, nil
}

// Update applies a partial update to the mutable fields only. Returns the
// number of rows touched; zero rows is not an error here.
func (r *SQLiteRepository) Update(ctx context.Context, id string, upd models.AliasUpdate) (int64, error) {
	sets := make([]string, 0, 2)
	args := make([]any, 0, 3)
	if upd.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *upd.Description)
	}
	if upd.IsActive != nil {
		sets = append(sets, "is_active = ?")
		args = append(args, *upd.IsActive)
	}
	if len(sets) == 0 {
		return 0, nil
	}
	args = append(args, id)

	query := fmt.Sprintf(`UPDATE email_aliases SET %s WHERE id = ?`, strings.Join(sets, ", "))
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected error: %w", err)
	}
	return n, nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM email_aliases WHERE id = ?`, id); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

const selectColumns = `SELECT id, user_id, alias, description, forward_to, is_active, created_at FROM email_aliases`

type scannable interface {
	Scan(dest ...any) error
}

func scanOne(row *sql.Row) (*models.EmailAlias, error) {
	alias, err := scanRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, err
	}
	return alias, nil
}

func scanRow(row scannable) (*models.EmailAlias, error) {
	alias := &models.EmailAlias{}
	var createdAt int64
	err := row.Scan(&alias.ID, &alias.UserID, &alias.Alias, &alias.Description, &alias.ForwardTo, &alias.IsActive, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	alias.CreatedAt = time.UnixMicro(createdAt).UTC()
	return alias, nil
}
