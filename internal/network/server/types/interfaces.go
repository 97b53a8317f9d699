package types

import (
	"context"

	"github.com/palemoky/migoyugo-server/internal/protocol"
)

// ServerContext 服务器上下文接口 - 避免循环依赖
type ServerContext interface {
	GetRedisStore() RedisStoreInterface
	GetStats() StatsInterface
	GetSessionTracker() SessionTrackerInterface
	IsMaintenanceMode() bool
	GetOnlineCount() int
	GetClientByID(id string) ClientInterface
	GetClientByUserID(userID string) ClientInterface
}

// RedisStoreInterface Redis 存储接口
type RedisStoreInterface interface {
	SaveLobby(ctx context.Context, lobby any) error
	DeleteLobby(ctx context.Context, code string) error
	SavePlayerSession(ctx context.Context, playerID string, session any) error
	DeletePlayerSession(ctx context.Context, playerID string) error
}

// 战绩结果
const (
	OutcomeWin  = "win"
	OutcomeLoss = "loss"
	OutcomeDraw = "draw"
)

// StatsInterface 战绩统计接口
type StatsInterface interface {
	RecordResult(ctx context.Context, userID, name, outcome string) error
	GetPlayerStats(ctx context.Context, userID string) (*PlayerStats, error)
	GetLeaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error)
}

// PlayerStats 单个玩家的战绩
type PlayerStats struct {
	Name   string `json:"name"`
	Wins   int    `json:"wins"`
	Losses int    `json:"losses"`
	Draws  int    `json:"draws"`
	Score  int    `json:"score"`
}

// LeaderboardEntry 排行榜条目
type LeaderboardEntry struct {
	Rank  int    `json:"rank"`
	Name  string `json:"name"`
	Score int    `json:"score"`
}

// SessionTrackerInterface 玩家在线状态追踪接口。
// 会话层用它读取并消费重连校正需要的断线时刻
type SessionTrackerInterface interface {
	SetOnline(playerID string)
	OfflineSince(playerID string) (int64, bool)
}

// ClientInterface 客户端接口
type ClientInterface interface {
	GetID() string
	GetUserID() string
	GetName() string
	IsGuest() bool
	GetRoom() string
	SetRoom(roomCode string)
	SendMessage(msg *protocol.Message)
	Close()
}

// GameError 带协议错误码的错误
type GameError struct {
	Code    int
	Message string
}

func (e *GameError) Error() string {
	return e.Message
}

// NewGameError 从协议错误码构造错误
func NewGameError(code int) *GameError {
	return &GameError{Code: code, Message: protocol.ErrorMessages[code]}
}
