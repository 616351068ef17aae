package storage

import (
	"context"
	"database/sql"
	"path/filepath"
	"sort"
	"testing"

	"github.com/MoCipher/EmailAlies/internal/logging"
	"github.com/stretchr/testify/require"
)

func openBareDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", "file:"+filepath.Join(t.TempDir(), "schema_test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func listObjects(t *testing.T, db *sql.DB, typ string) []string {
	t.Helper()
	rows, err := db.Query(`SELECT name FROM sqlite_master WHERE type = ? AND name NOT LIKE 'sqlite_%' ORDER BY name`, typ)
	require.NoError(t, err)
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		require.NoError(t, rows.Scan(&name))
		names = append(names, name)
	}
	require.NoError(t, rows.Err())
	return names
}

func TestApplySchema_CreatesAllTables(t *testing.T) {
	db := openBareDB(t)

	ApplySchema(context.Background(), db, logging.NewDiscardLogger())

	want := []string{"devices", "email_aliases", "emails", "sync_data", "users"}
	got := listObjects(t, db, "table")
	sort.Strings(got)
	require.Equal(t, want, got)
}

func TestApplySchema_Idempotent(t *testing.T) {
	db := openBareDB(t)
	ctx := context.Background()
	log := logging.NewDiscardLogger()

	ApplySchema(ctx, db, log)
	tablesOnce := listObjects(t, db, "table")
	indexesOnce := listObjects(t, db, "index")

	// unbounded re-runs must leave the schema untouched
	for i := 0; i < 3; i++ {
		ApplySchema(ctx, db, log)
	}

	require.Equal(t, tablesOnce, listObjects(t, db, "table"))
	require.Equal(t, indexesOnce, listObjects(t, db, "index"))
}

func TestApplySchema_AddsMigratedColumns(t *testing.T) {
	db := openBareDB(t)

	ApplySchema(context.Background(), db, logging.NewDiscardLogger())

	// columns introduced by additive migrations must be queryable
	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM users WHERE is_admin = 1`).Scan(&n))
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM email_aliases WHERE description = ''`).Scan(&n))
}

func TestApplySchema_SurvivesPreexistingColumns(t *testing.T) {
	db := openBareDB(t)
	ctx := context.Background()
	log := logging.NewDiscardLogger()

	// simulate a database created by a newer binary: base table already has
	// the migrated column, so the ALTER must be swallowed
	_, err := db.Exec(`CREATE TABLE users (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		encrypted_master_key BLOB,
		key_salt BLOB,
		is_admin INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL DEFAULT 0
	)`)
	require.NoError(t, err)

	ApplySchema(ctx, db, log)

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM users WHERE is_admin = 1`).Scan(&n))
}
