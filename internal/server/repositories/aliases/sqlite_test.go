package aliases

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/MoCipher/EmailAlies/internal/common"
	"github.com/MoCipher/EmailAlies/internal/logging"
	"github.com/MoCipher/EmailAlies/internal/server/models"
	"github.com/MoCipher/EmailAlies/internal/server/storage"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", "file:"+filepath.Join(t.TempDir(), "mail.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	storage.ApplySchema(context.Background(), db, logging.NewDiscardLogger())
	return db
}

func seedUser(t *testing.T, db *sql.DB, id string) {
	t.Helper()
	_, err := db.ExecContext(context.Background(),
		`INSERT INTO users (id, email) VALUES (?, ?)`, id, id+"@example.com")
	require.NoError(t, err)
}

func TestCreateAndGet(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db, "u-1")
	repo := NewSQLiteRepository(db)
	ctx := context.Background()

	created, err := repo.Create(ctx, &models.EmailAlias{
		UserID:      "u-1",
		Alias:       "ab12cd@mail.example",
		Description: "shopping",
		ForwardTo:   "alice@example.com",
		IsActive:    true,
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	require.False(t, created.CreatedAt.IsZero())

	byID, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, "ab12cd@mail.example", byID.Alias)
	require.Equal(t, "shopping", byID.Description)
	require.True(t, byID.IsActive)

	byAddr, err := repo.GetByAddress(ctx, "ab12cd@mail.example")
	require.NoError(t, err)
	require.Equal(t, created.ID, byAddr.ID)
}

func TestCreate_DuplicateAlias(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db, "u-1")
	repo := NewSQLiteRepository(db)
	ctx := context.Background()

	_, err := repo.Create(ctx, &models.EmailAlias{UserID: "u-1", Alias: "taken@mail.example", ForwardTo: "a@b.example", IsActive: true})
	require.NoError(t, err)

	_, err = repo.Create(ctx, &models.EmailAlias{UserID: "u-1", Alias: "taken@mail.example", ForwardTo: "a@b.example", IsActive: true})
	require.ErrorIs(t, err, ErrAliasTaken)
}

func TestGetByID_NotFound(t *testing.T) {
	db := newTestDB(t)
	repo := NewSQLiteRepository(db)

	_, err := repo.GetByID(context.Background(), "ghost")
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestGetByUser(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db, "u-1")
	seedUser(t, db, "u-2")
	repo := NewSQLiteRepository(db)
	ctx := context.Background()

	a1, err := repo.Create(ctx, &models.EmailAlias{UserID: "u-1", Alias: "one@mail.example", ForwardTo: "a@b.example", IsActive: true})
	require.NoError(t, err)
	a2, err := repo.Create(ctx, &models.EmailAlias{UserID: "u-1", Alias: "two@mail.example", ForwardTo: "a@b.example", IsActive: true})
	require.NoError(t, err)
	_, err = repo.Create(ctx, &models.EmailAlias{UserID: "u-2", Alias: "other@mail.example", ForwardTo: "a@b.example", IsActive: true})
	require.NoError(t, err)

	got, err := repo.GetByUser(ctx, "u-1")
	require.NoError(t, err)
	require.Len(t, got, 2)

	ids := []string{got[0].ID, got[1].ID}
	require.Contains(t, ids, a1.ID)
	require.Contains(t, ids, a2.ID)
	require.GreaterOrEqual(t, got[0].CreatedAt.UnixMicro(), got[1].CreatedAt.UnixMicro())
}

func TestExistsByAddress(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db, "u-1")
	repo := NewSQLiteRepository(db)
	ctx := context.Background()

	taken, err := repo.ExistsByAddress(ctx, "free@mail.example")
	require.NoError(t, err)
	require.False(t, taken)

	_, err = repo.Create(ctx, &models.EmailAlias{UserID: "u-1", Alias: "free@mail.example", ForwardTo: "a@b.example", IsActive: true})
	require.NoError(t, err)

	taken, err = repo.ExistsByAddress(ctx, "free@mail.example")
	require.NoError(t, err)
	require.True(t, taken)
}

func TestUpdate_PartialFields(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db, "u-1")
	repo := NewSQLiteRepository(db)
	ctx := context.Background()

	created, err := repo.Create(ctx, &models.EmailAlias{UserID: "u-1", Alias: "upd@mail.example", Description: "old", ForwardTo: "a@b.example", IsActive: true})
	require.NoError(t, err)

	desc := "new"
	n, err := repo.Update(ctx, created.ID, models.AliasUpdate{Description: &desc})
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	got, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, "new", got.Description)
	require.True(t, got.IsActive, "untouched field must survive")

	inactive := false
	n, err = repo.Update(ctx, created.ID, models.AliasUpdate{IsActive: &inactive})
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	got, err = repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	require.False(t, got.IsActive)
	require.Equal(t, "new", got.Description)
}

func TestUpdate_EmptyAndUnknown(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db, "u-1")
	repo := NewSQLiteRepository(db)
	ctx := context.Background()

	created, err := repo.Create(ctx, &models.EmailAlias{UserID: "u-1", Alias: "noop@mail.example", ForwardTo: "a@b.example", IsActive: true})
	require.NoError(t, err)

	// nothing to set
	n, err := repo.Update(ctx, created.ID, models.AliasUpdate{})
	require.NoError(t, err)
	require.Equal(t, int64(0), n)

	// unknown id touches zero rows, not an error at this layer
	desc := "x"
	n, err = repo.Update(ctx, "ghost", models.AliasUpdate{Description: &desc})
	require.NoError(t, err)
	require.Equal(t, int64(0), n)
}

func TestDelete(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db, "u-1")
	repo := NewSQLiteRepository(db)
	ctx := context.Background()

	created, err := repo.Create(ctx, &models.EmailAlias{UserID: "u-1", Alias: "gone@mail.example", ForwardTo: "a@b.example", IsActive: true})
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, created.ID))

	_, err = repo.GetByID(ctx, created.ID)
	require.True(t, errors.Is(err, common.ErrorNotFound), "got %v", err)
}
