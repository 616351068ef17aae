package services

import (
	"context"
	"testing"

	"github.com/MoCipher/EmailAlies/internal/common"
	"github.com/MoCipher/EmailAlies/internal/cryptox"
	"github.com/stretchr/testify/require"
)

func TestOnboard(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user, err := env.users.Onboard(ctx, "alice@example.com", false)
	require.NoError(t, err)
	require.NotEmpty(t, user.ID)
	require.NotEmpty(t, user.EncryptedMasterKey)
	require.Len(t, user.KeySalt, cryptox.SaltSize)
	require.False(t, user.IsAdmin)

	got, err := env.users.Get(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, "alice@example.com", got.Email)
}

func TestOnboard_DuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.users.Onboard(ctx, "alice@example.com", false)
	require.NoError(t, err)

	_, err = env.users.Onboard(ctx, "alice@example.com", false)
	require.ErrorIs(t, err, common.ErrorValidation)
}

func TestOnboard_InvalidEmail(t *testing.T) {
	env := newTestEnv(t)

	for _, email := range []string{"", "nope", "Alice <alice@example.com>"} {
		_, err := env.users.Onboard(context.Background(), email, false)
		require.ErrorIs(t, err, common.ErrorValidation, "email %q", email)
	}
}

func TestMasterKey(t *testing.T) {
	env := newTestEnv(t)
	user := env.onboard(t, "alice@example.com")
	ctx := context.Background()

	key, err := env.users.MasterKey(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, key, cryptox.KeySize)

	// unwrapping is deterministic for a fixed blob and salt
	again, err := env.users.MasterKey(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, key, again)

	_, err = env.users.MasterKey(ctx, "ghost")
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestRewrapMasterKey(t *testing.T) {
	env := newTestEnv(t)
	user := env.onboard(t, "alice@example.com")
	ctx := context.Background()

	keyBefore, err := env.users.MasterKey(ctx, user.ID)
	require.NoError(t, err)

	require.NoError(t, env.users.RewrapMasterKey(ctx, user.ID))

	after, err := env.users.Get(ctx, user.ID)
	require.NoError(t, err)
	require.NotEqual(t, user.KeySalt, after.KeySalt, "salt must be fresh")
	require.NotEqual(t, user.EncryptedMasterKey, after.EncryptedMasterKey, "blob must be re-encrypted")

	// the key inside the new blob is the same one
	keyAfter, err := env.users.MasterKey(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, keyBefore, keyAfter)

	require.ErrorIs(t, env.users.RewrapMasterKey(ctx, "ghost"), common.ErrorNotFound)
}
