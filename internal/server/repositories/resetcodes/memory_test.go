package resetcodes

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/discbaboons/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_ExpiresAndOverwrites(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	repo := NewMemoryRepository(func() time.Time { return now })
	ctx := context.Background()

	require.NoError(t, repo.Put(ctx, 1, "AAAAAA", time.Minute))
	require.NoError(t, repo.Put(ctx, 1, "BBBBBB", time.Minute))

	got, err := repo.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "BBBBBB", got)

	now = now.Add(time.Minute)
	_, err = repo.Get(ctx, 1)
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestMemory_DeleteIfMatch(t *testing.T) {
	repo := NewMemoryRepository(nil)
	ctx := context.Background()

	require.NoError(t, repo.Put(ctx, 1, "AAAAAA", time.Minute))

	ok, err := repo.DeleteIfMatch(ctx, 1, "ZZZZZZ")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = repo.DeleteIfMatch(ctx, 1, "AAAAAA")
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = repo.Get(ctx, 1)
	assert.ErrorIs(t, err, common.ErrorNotFound)
}
