package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisStore_LobbyRoundTrip(t *testing.T) {
	store := NewRedisStore(setupTestRedis(t))
	ctx := context.Background()

	snapshot := map[string]any{
		"code":  "AB12CD",
		"host":  "Alice",
		"guest": "Bob",
		"state": 1,
	}
	require.NoError(t, store.SaveLobby(ctx, snapshot))

	got, err := store.GetLobby(ctx, "AB12CD")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Alice", got["host"])
	assert.Equal(t, "Bob", got["guest"])

	require.NoError(t, store.DeleteLobby(ctx, "AB12CD"))
	got, err = store.GetLobby(ctx, "AB12CD")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedisStore_SaveLobby_Invalid(t *testing.T) {
	store := NewRedisStore(setupTestRedis(t))
	ctx := context.Background()

	// 非快照类型
	assert.Error(t, store.SaveLobby(ctx, 42))
	// 缺少房间号
	assert.Error(t, store.SaveLobby(ctx, map[string]any{"host": "Alice"}))
}

func TestRedisStore_PlayerSession(t *testing.T) {
	store := NewRedisStore(setupTestRedis(t))
	ctx := context.Background()

	require.NoError(t, store.SavePlayerSession(ctx, "p1", map[string]any{
		"name":   "Alice",
		"online": true,
	}))
	require.NoError(t, store.DeletePlayerSession(ctx, "p1"))

	// 删除不存在的键也不报错
	assert.NoError(t, store.DeletePlayerSession(ctx, "p1"))
}
