package models

import "time"

// EmailAlias is a generated forwarding address owned by exactly one user.
// Alias and ForwardTo are immutable after creation; Description and IsActive
// are the only mutable fields.
type EmailAlias struct {
	ID          string
	UserID      string
	Alias       string
	Description string
	ForwardTo   string
	IsActive    bool
	CreatedAt   time.Time
}

// AliasUpdate describes a partial update. Nil fields are left untouched.
type AliasUpdate struct {
	Description *string
	IsActive    *bool
}
