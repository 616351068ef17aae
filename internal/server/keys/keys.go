// Package keys manages per-user master keys: generation, wrapping under a
// KEK derived from the service-wide secret plus the user's salt, and
// unwrapping for the duration of a single sync session.
//
// The plaintext master key exists only in process memory. Callers own the
// returned key and must wipe it (shared.WipeByteArray) when the session
// ends; this package wipes every intermediate KEK on all exit paths.
package keys

import (
	"errors"
	"fmt"

	"github.com/MoCipher/EmailAlies/internal/common"
	"github.com/MoCipher/EmailAlies/internal/cryptox"
	"github.com/MoCipher/EmailAlies/internal/shared"
)

// Manager wraps and unwraps master keys with a fixed service secret.
type Manager struct {
	secret []byte
}

func NewManager(secret []byte) (*Manager, error) {
	if len(secret) == 0 {
		return nil, errors.New("empty wrapping secret")
	}
	return &Manager{secret: secret}, nil
}

// GenerateMasterKey returns a fresh random master key and an independent
// random salt. The pair belongs to one user and is never reused.
func (m *Manager) GenerateMasterKey() (key, salt []byte, err error) {
	key, err = shared.MakeRandByteArray(cryptox.KeySize)
	if err != nil {
		return nil, nil, fmt.Errorf("generating master key: %w", err)
	}
	salt, err = shared.MakeRandByteArray(cryptox.SaltSize)
	if err != nil {
		shared.WipeByteArray(key)
		return nil, nil, fmt.Errorf("generating salt: %w", err)
	}
	return key, salt, nil
}

// Wrap encrypts the master key under a KEK derived from the service secret
// and the given salt, producing the blob stored on the user row.
func (m *Manager) Wrap(key, salt []byte) ([]byte, error) {
	kek := cryptox.DeriveKey(m.secret, salt)
	defer shared.WipeByteArray(kek)

	blob, err := cryptox.Seal(kek, key)
	if err != nil {
		return nil, fmt.Errorf("wrapping master key: %w", err)
	}
	return blob, nil
}

// Unwrap decrypts a stored blob with the KEK for the given salt. A
// malformed blob, a foreign salt, or a rotated secret all surface as
// common.ErrDecryptionFailed.
func (m *Manager) Unwrap(blob, salt []byte) ([]byte, error) {
	kek := cryptox.DeriveKey(m.secret, salt)
	defer shared.WipeByteArray(kek)

	key, err := cryptox.Open(kek, blob)
	if err != nil {
		if errors.Is(err, common.ErrDecryptionFailed) {
			return nil, err
		}
		return nil, fmt.Errorf("unwrapping master key: %w", err)
	}
	return key, nil
}
