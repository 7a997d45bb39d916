package keychain

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openMem(t *testing.T) *Keychain {
	t.Helper()
	k, err := Open(context.Background(), ":memory:", "secret")
	require.NoError(t, err)
	t.Cleanup(func() { _ = k.Close() })
	return k
}

func TestKeychain_SetGetDelete(t *testing.T) {
	ctx := context.Background()
	k := openMem(t)

	_, err := k.Get(ctx, "tokens")
	require.True(t, errors.Is(err, ErrNotFound))

	ok, err := k.Has(ctx, "tokens")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, k.Set(ctx, "tokens", []byte("v1")))
	require.NoError(t, k.Set(ctx, "tokens", []byte("v2")))

	got, err := k.Get(ctx, "tokens")
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), got)

	ok, err = k.Has(ctx, "tokens")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, k.Delete(ctx, "tokens"))
	require.NoError(t, k.Delete(ctx, "tokens"))

	_, err = k.Get(ctx, "tokens")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestKeychain_ValuesEncryptedAtRest(t *testing.T) {
	ctx := context.Background()
	k := openMem(t)

	require.NoError(t, k.Set(ctx, "tokens", []byte("plain-refresh-token")))

	var raw []byte
	require.NoError(t, k.db.QueryRowContext(ctx, `SELECT ciphertext FROM secrets WHERE name = ?`, "tokens").Scan(&raw))
	assert.NotContains(t, string(raw), "plain-refresh-token")
}

func TestKeychain_ReopenWithSameAndWrongSecret(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "keychain.db")

	k, err := Open(ctx, path, "right")
	require.NoError(t, err)
	require.NoError(t, k.Set(ctx, "tokens", []byte("value")))
	require.NoError(t, k.Close())

	k, err = Open(ctx, path, "right")
	require.NoError(t, err)
	got, err := k.Get(ctx, "tokens")
	require.NoError(t, err)
	assert.Equal(t, []byte("value"), got)
	require.NoError(t, k.Close())

	k, err = Open(ctx, path, "wrong")
	require.NoError(t, err)
	defer k.Close()
	_, err = k.Get(ctx, "tokens")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNotFound))
}
