package models

import "time"

// Email is a message received for an alias. IsRead only ever transitions
// false to true.
type Email struct {
	ID         string
	AliasID    string
	Sender     string
	Recipient  string
	Subject    string
	Content    string
	IsRead     bool
	ReceivedAt time.Time
}
