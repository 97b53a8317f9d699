package storage

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/palemoky/migoyugo-server/internal/network/server/types"
)

const (
	// Redis key
	playerStatsKey = "player:stats:"
	leaderboardKey = "leaderboard:score"
)

// 积分规则
const (
	ScoreWin  = 20
	ScoreDraw = 5
	ScoreLoss = -10

	// 连胜加成
	StreakBonus3  = 5  // 3 连胜加成
	StreakBonus5  = 10 // 5 连胜加成
	StreakBonus10 = 20 // 10 连胜加成
)

// playerRecord 持久化的玩家统计数据
type playerRecord struct {
	UserID     string `json:"user_id"`
	PlayerName string `json:"player_name"`

	TotalGames int `json:"total_games"`
	Wins       int `json:"wins"`
	Losses     int `json:"losses"`
	Draws      int `json:"draws"`

	Score         int `json:"score"`
	CurrentStreak int `json:"current_streak"` // 正数为连胜，负数为连败
	MaxWinStreak  int `json:"max_win_streak"`

	LastPlayedAt int64 `json:"last_played_at"`
	CreatedAt    int64 `json:"created_at"`
}

// StatsManager 战绩统计，积分排行榜存于 Redis ZSET
type StatsManager struct {
	redis *redis.Client
}

// NewStatsManager 创建战绩管理器
func NewStatsManager(client *redis.Client) *StatsManager {
	return &StatsManager{redis: client}
}

// RecordResult 记录一局结果。访客（userID 为空）不参与统计
func (sm *StatsManager) RecordResult(ctx context.Context, userID, name, outcome string) error {
	if userID == "" {
		return nil
	}

	rec, err := sm.getOrCreateRecord(ctx, userID, name)
	if err != nil {
		return err
	}

	rec.PlayerName = name
	rec.TotalGames++
	rec.LastPlayedAt = time.Now().Unix()

	change := 0
	switch outcome {
	case types.OutcomeWin:
		rec.Wins++
		rec.CurrentStreak = max(1, rec.CurrentStreak+1)
		change = ScoreWin + streakBonus(rec.CurrentStreak)
	case types.OutcomeLoss:
		rec.Losses++
		rec.CurrentStreak = min(-1, rec.CurrentStreak-1)
		change = ScoreLoss
	case types.OutcomeDraw:
		rec.Draws++
		rec.CurrentStreak = 0
		change = ScoreDraw
	}
	if rec.CurrentStreak > rec.MaxWinStreak {
		rec.MaxWinStreak = rec.CurrentStreak
	}
	rec.Score = max(0, rec.Score+change)

	if err := sm.saveRecord(ctx, rec); err != nil {
		return err
	}
	return sm.redis.ZAdd(ctx, leaderboardKey, redis.Z{
		Score:  float64(rec.Score),
		Member: rec.UserID,
	}).Err()
}

func streakBonus(streak int) int {
	switch {
	case streak >= 10:
		return StreakBonus10
	case streak >= 5:
		return StreakBonus5
	case streak >= 3:
		return StreakBonus3
	default:
		return 0
	}
}

// GetPlayerStats 查询玩家战绩，无记录返回 nil
func (sm *StatsManager) GetPlayerStats(ctx context.Context, userID string) (*types.PlayerStats, error) {
	rec, err := sm.getRecord(ctx, userID)
	if err != nil || rec == nil {
		return nil, err
	}
	return &types.PlayerStats{
		Name:   rec.PlayerName,
		Wins:   rec.Wins,
		Losses: rec.Losses,
		Draws:  rec.Draws,
		Score:  rec.Score,
	}, nil
}

// GetLeaderboard 按积分从高到低返回前 limit 名
func (sm *StatsManager) GetLeaderboard(ctx context.Context, limit int) ([]types.LeaderboardEntry, error) {
	results, err := sm.redis.ZRevRangeWithScores(ctx, leaderboardKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]types.LeaderboardEntry, 0, len(results))
	for i, result := range results {
		userID, _ := result.Member.(string)
		rec, err := sm.getRecord(ctx, userID)
		if err != nil || rec == nil {
			continue
		}
		entries = append(entries, types.LeaderboardEntry{
			Rank:  i + 1,
			Name:  rec.PlayerName,
			Score: int(result.Score),
		})
	}
	return entries, nil
}

// GetPlayerRank 玩家当前排名，未上榜返回 -1
func (sm *StatsManager) GetPlayerRank(ctx context.Context, userID string) (int64, error) {
	rank, err := sm.redis.ZRevRank(ctx, leaderboardKey, userID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return -1, nil
		}
		return -1, err
	}
	return rank + 1, nil // Redis 排名从 0 开始
}

func (sm *StatsManager) getRecord(ctx context.Context, userID string) (*playerRecord, error) {
	data, err := sm.redis.Get(ctx, playerStatsKey+userID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var rec playerRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (sm *StatsManager) getOrCreateRecord(ctx context.Context, userID, name string) (*playerRecord, error) {
	rec, err := sm.getRecord(ctx, userID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		rec = &playerRecord{
			UserID:     userID,
			PlayerName: name,
			CreatedAt:  time.Now().Unix(),
		}
	}
	return rec, nil
}

func (sm *StatsManager) saveRecord(ctx context.Context, rec *playerRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return sm.redis.Set(ctx, playerStatsKey+rec.UserID, data, 0).Err()
}
