// Package repomanager vends repository implementations bound to a DBTX, so
// services can run the same repository code on a plain handle or inside a
// transaction.
package repomanager

import (
	"github.com/MoCipher/EmailAlies/internal/dbx"
	"github.com/MoCipher/EmailAlies/internal/server/repositories/aliases"
	"github.com/MoCipher/EmailAlies/internal/server/repositories/devices"
	"github.com/MoCipher/EmailAlies/internal/server/repositories/emails"
	"github.com/MoCipher/EmailAlies/internal/server/repositories/synclog"
	"github.com/MoCipher/EmailAlies/internal/server/repositories/users"
)

type RepositoryManager interface {
	Users(db dbx.DBTX) users.Repository
	Aliases(db dbx.DBTX) aliases.Repository
	Emails(db dbx.DBTX) emails.Repository
	Devices(db dbx.DBTX) devices.Repository
	SyncLog(db dbx.DBTX) synclog.Repository
}
