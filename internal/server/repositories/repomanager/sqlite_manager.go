package repomanager

import (
	"github.com/MoCipher/EmailAlies/internal/dbx"
	"github.com/MoCipher/EmailAlies/internal/server/repositories/aliases"
	"github.com/MoCipher/EmailAlies/internal/server/repositories/devices"
	"github.com/MoCipher/EmailAlies/internal/server/repositories/emails"
	"github.com/MoCipher/EmailAlies/internal/server/repositories/synclog"
	"github.com/MoCipher/EmailAlies/internal/server/repositories/users"
)

// SQLiteRepositoryManager vends SQLite-dialect repositories. The same
// dialect serves both engines: the edge replica speaks SQLite SQL too.
type SQLiteRepositoryManager struct{}

// NewSQLiteRepositoryManager constructs a SQLite-backed RepositoryManager.
func NewSQLiteRepositoryManager() RepositoryManager {
	return &SQLiteRepositoryManager{}
}

func (m *SQLiteRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewSQLiteRepository(db)
}

func (m *SQLiteRepositoryManager) Aliases(db dbx.DBTX) aliases.Repository {
	return aliases.NewSQLiteRepository(db)
}

func (m *SQLiteRepositoryManager) Emails(db dbx.DBTX) emails.Repository {
	return emails.NewSQLiteRepository(db)
}

func (m *SQLiteRepositoryManager) Devices(db dbx.DBTX) devices.Repository {
	return devices.NewSQLiteRepository(db)
}

func (m *SQLiteRepositoryManager) SyncLog(db dbx.DBTX) synclog.Repository {
	return synclog.NewSQLiteRepository(db)
}
