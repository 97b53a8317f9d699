package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	lobbyKeyPrefix   = "lobby:"
	sessionKeyPrefix = "session:"

	lobbyTTL   = 24 * time.Hour
	sessionTTL = 24 * time.Hour
)

// RedisStore 房间与玩家会话的尽力而为快照，仅用于观测和排障，
// 不在任何热路径上读取
type RedisStore struct {
	redis *redis.Client
}

// NewRedisStore 创建快照存储
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{redis: client}
}

// SaveLobby 保存房间快照，快照须带 code 字段
func (s *RedisStore) SaveLobby(ctx context.Context, lobby any) error {
	snapshot, ok := lobby.(map[string]any)
	if !ok {
		return fmt.Errorf("unexpected lobby snapshot type %T", lobby)
	}
	code, _ := snapshot["code"].(string)
	if code == "" {
		return errors.New("lobby snapshot missing code")
	}

	data, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	return s.redis.Set(ctx, lobbyKeyPrefix+code, data, lobbyTTL).Err()
}

// DeleteLobby 删除房间快照
func (s *RedisStore) DeleteLobby(ctx context.Context, code string) error {
	return s.redis.Del(ctx, lobbyKeyPrefix+code).Err()
}

// SavePlayerSession 保存玩家会话快照
func (s *RedisStore) SavePlayerSession(ctx context.Context, playerID string, session any) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return s.redis.Set(ctx, sessionKeyPrefix+playerID, data, sessionTTL).Err()
}

// DeletePlayerSession 删除玩家会话快照
func (s *RedisStore) DeletePlayerSession(ctx context.Context, playerID string) error {
	return s.redis.Del(ctx, sessionKeyPrefix+playerID).Err()
}

// GetLobby 读取房间快照（排障用）
func (s *RedisStore) GetLobby(ctx context.Context, code string) (map[string]any, error) {
	data, err := s.redis.Get(ctx, lobbyKeyPrefix+code).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var snapshot map[string]any
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, err
	}
	return snapshot, nil
}
