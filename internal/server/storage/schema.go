package storage

import (
	"context"
	"strings"

	"github.com/MoCipher/EmailAlies/internal/dbx"
	"github.com/MoCipher/EmailAlies/internal/logging"
)

// createStatements is the base schema: five tables plus the indexes the
// read paths depend on. Every statement is create-if-absent, so the whole
// list can run on each adapter-ready transition.
//
// created_at columns are engine-assigned Unix microseconds (server clock);
// sync ordering relies on them, so clients never supply timestamps.
var createStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		encrypted_master_key BLOB,
		key_salt BLOB,
		created_at INTEGER NOT NULL DEFAULT (CAST((julianday('now') - 2440587.5) * 86400000000 AS INTEGER))
	)`,
	`CREATE TABLE IF NOT EXISTS email_aliases (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id),
		alias TEXT NOT NULL UNIQUE,
		forward_to TEXT NOT NULL,
		is_active INTEGER NOT NULL DEFAULT 1,
		created_at INTEGER NOT NULL DEFAULT (CAST((julianday('now') - 2440587.5) * 86400000000 AS INTEGER))
	)`,
	`CREATE TABLE IF NOT EXISTS emails (
		id TEXT PRIMARY KEY,
		alias_id TEXT NOT NULL REFERENCES email_aliases(id),
		sender TEXT NOT NULL DEFAULT '',
		recipient TEXT NOT NULL DEFAULT '',
		subject TEXT NOT NULL DEFAULT '',
		content TEXT NOT NULL DEFAULT '',
		is_read INTEGER NOT NULL DEFAULT 0,
		received_at INTEGER NOT NULL DEFAULT (CAST((julianday('now') - 2440587.5) * 86400000000 AS INTEGER))
	)`,
	`CREATE TABLE IF NOT EXISTS devices (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id),
		name TEXT NOT NULL,
		device_key TEXT NOT NULL,
		last_sync_at INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL DEFAULT (CAST((julianday('now') - 2440587.5) * 86400000000 AS INTEGER))
	)`,
	`CREATE TABLE IF NOT EXISTS sync_data (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id),
		device_id TEXT NOT NULL DEFAULT '',
		data_type TEXT NOT NULL,
		entity_id TEXT NOT NULL DEFAULT '',
		payload BLOB,
		operation TEXT NOT NULL,
		created_at INTEGER NOT NULL DEFAULT (CAST((julianday('now') - 2440587.5) * 86400000000 AS INTEGER))
	)`,
	`CREATE INDEX IF NOT EXISTS idx_email_aliases_user ON email_aliases(user_id, created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_emails_alias ON emails(alias_id, received_at)`,
	`CREATE INDEX IF NOT EXISTS idx_devices_user ON devices(user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_sync_data_user_created ON sync_data(user_id, created_at)`,
}

// columnMigrations are additive column changes introduced after the base
// schema shipped. SQLite has no ADD COLUMN IF NOT EXISTS, so each statement
// runs unconditionally and the "duplicate column" failure is swallowed.
var columnMigrations = []string{
	`ALTER TABLE users ADD COLUMN is_admin INTEGER NOT NULL DEFAULT 0`,
	`ALTER TABLE email_aliases ADD COLUMN description TEXT NOT NULL DEFAULT ''`,
}

// ApplySchema runs the full DDL list. Statements are independent: an
// "already exists" failure is expected on re-runs, any other failure is
// logged as a warning and the remaining statements still run. The result of
// running this any number of times equals running it once.
func ApplySchema(ctx context.Context, db dbx.DBTX, logger logging.Logger) {
	for _, stmt := range createStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			if isAlreadyExists(err) {
				continue
			}
			logger.Warn(ctx, "schema statement failed", "error", err)
		}
	}
	for _, stmt := range columnMigrations {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			if isAlreadyExists(err) {
				continue
			}
			logger.Warn(ctx, "column migration failed", "statement", stmt, "error", err)
		}
	}
}

func isAlreadyExists(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "already exists") || strings.Contains(msg, "duplicate column name")
}
