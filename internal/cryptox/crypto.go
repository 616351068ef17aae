// Package cryptox implements the symmetric primitives used for sync payloads
// and master-key wrapping: AES-256-GCM with the nonce prefixed to the blob,
// and Argon2id for deriving key-encryption keys from the service secret.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"

	"github.com/MoCipher/EmailAlies/internal/common"
	"golang.org/x/crypto/argon2"
)

const (
	// KeySize is the size of all symmetric keys (AES-256).
	KeySize = 32

	// SaltSize is the size of per-user key-derivation salts.
	SaltSize = 16
)

// Argon2id parameters. Kept moderate: wrapping happens once per sync
// session, not per payload.
const (
	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
)

// DeriveKey stretches secret+salt into a 32-byte key using Argon2id.
func DeriveKey(secret, salt []byte) []byte {
	return argon2.IDKey(secret, salt, argonTime, argonMemory, argonThreads, KeySize)
}

// Seal encrypts plaintext under key with AES-256-GCM. A fresh random nonce
// is generated per call and prefixed to the returned blob.
func Seal(key, plaintext []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("cipher init: %w", err)
	}
	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("gcm init: %w", err)
	}

	nonce := make([]byte, aesgcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("nonce: %w", err)
	}

	return aesgcm.Seal(nonce, nonce, plaintext, nil), nil
}

// Open decrypts a blob produced by Seal. A malformed blob or a key that does
// not authenticate it yields common.ErrDecryptionFailed.
func Open(key, blob []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("cipher init: %w", err)
	}
	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("gcm init: %w", err)
	}

	if len(blob) < aesgcm.NonceSize() {
		return nil, common.ErrDecryptionFailed
	}

	nonce, ciphertext := blob[:aesgcm.NonceSize()], blob[aesgcm.NonceSize():]
	plaintext, err := aesgcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, common.ErrDecryptionFailed
	}
	return plaintext, nil
}
