package models

// SyncOperation tags a sync log entry with the mutation kind.
type SyncOperation string

const (
	OpCreate SyncOperation = "create"
	OpUpdate SyncOperation = "update"
	OpDelete SyncOperation = "delete"
)

// Data type tags for sync log entries.
const (
	DataTypeAlias = "alias"
	DataTypeEmail = "email"
)

// SyncLogEntry is one append-only change record. Entries are never mutated
// or deleted; within a user they are totally ordered by CreatedAt, an
// engine-assigned Unix-microsecond timestamp. Payload is ciphertext under
// the user's master key, or empty for metadata-only entries.
type SyncLogEntry struct {
	ID        string
	UserID    string
	DeviceID  string
	DataType  string
	EntityID  string
	Payload   []byte
	Operation SyncOperation
	CreatedAt int64
}
