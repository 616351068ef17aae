// Package models holds the persistent entity types shared by repositories
// and services.
package models

import "time"

// User owns aliases, devices, and the sync log. The master key is stored
// only wrapped (encrypted under a KEK derived from the service secret and
// KeySalt); the plaintext key never touches storage.
type User struct {
	ID                 string
	Email              string
	EncryptedMasterKey []byte
	KeySalt            []byte
	IsAdmin            bool
	CreatedAt          time.Time
}
