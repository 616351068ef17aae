package keys

import (
	"errors"
	"testing"

	"github.com/MoCipher/EmailAlies/internal/common"
	"github.com/MoCipher/EmailAlies/internal/cryptox"
	"github.com/stretchr/testify/require"
)

func newManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager([]byte("service-wrapping-secret"))
	require.NoError(t, err)
	return m
}

func TestNewManager_EmptySecret(t *testing.T) {
	_, err := NewManager(nil)
	require.Error(t, err)
}

func TestGenerateMasterKey(t *testing.T) {
	m := newManager(t)

	key1, salt1, err := m.GenerateMasterKey()
	require.NoError(t, err)
	require.Len(t, key1, cryptox.KeySize)
	require.Len(t, salt1, cryptox.SaltSize)

	key2, salt2, err := m.GenerateMasterKey()
	require.NoError(t, err)
	require.NotEqual(t, key1, key2)
	require.NotEqual(t, salt1, salt2)
}

func TestWrapUnwrap_RoundTrip(t *testing.T) {
	m := newManager(t)

	key, salt, err := m.GenerateMasterKey()
	require.NoError(t, err)

	blob, err := m.Wrap(key, salt)
	require.NoError(t, err)
	require.NotContains(t, string(blob), string(key), "blob must not embed the plaintext key")

	got, err := m.Unwrap(blob, salt)
	require.NoError(t, err)
	require.Equal(t, key, got)
}

func TestUnwrap_WrongSalt(t *testing.T) {
	m := newManager(t)

	key, salt, err := m.GenerateMasterKey()
	require.NoError(t, err)
	_, otherSalt, err := m.GenerateMasterKey()
	require.NoError(t, err)

	blob, err := m.Wrap(key, salt)
	require.NoError(t, err)

	_, err = m.Unwrap(blob, otherSalt)
	require.True(t, errors.Is(err, common.ErrDecryptionFailed), "got %v", err)
}

func TestUnwrap_WrongSecret(t *testing.T) {
	m := newManager(t)
	key, salt, err := m.GenerateMasterKey()
	require.NoError(t, err)
	blob, err := m.Wrap(key, salt)
	require.NoError(t, err)

	other, err := NewManager([]byte("rotated-secret"))
	require.NoError(t, err)

	_, err = other.Unwrap(blob, salt)
	require.True(t, errors.Is(err, common.ErrDecryptionFailed), "got %v", err)
}

func TestUnwrap_MalformedBlob(t *testing.T) {
	m := newManager(t)
	_, salt, err := m.GenerateMasterKey()
	require.NoError(t, err)

	_, err = m.Unwrap([]byte{0x01}, salt)
	require.True(t, errors.Is(err, common.ErrDecryptionFailed), "got %v", err)
}
