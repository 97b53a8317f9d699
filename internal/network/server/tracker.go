package server

import (
	"sync"
	"time"
)

const (
	// 离线记录保留时间
	presenceExpireTime = 10 * time.Minute
	// 清理间隔
	presenceCleanupInterval = time.Minute
)

// playerPresence 单个玩家的在线状态
type playerPresence struct {
	playerID string
	name     string

	online         bool
	disconnectedAt time.Time

	mu sync.RWMutex
}

// PlayerTracker 玩家在线状态追踪器。
// 注册用户按 userID 记录，访客按连接 ID 记录，
// 断线时间用于重连后的计时校正
type PlayerTracker struct {
	players map[string]*playerPresence
	mu      sync.RWMutex
}

// NewPlayerTracker 创建追踪器
func NewPlayerTracker() *PlayerTracker {
	pt := &PlayerTracker{
		players: make(map[string]*playerPresence),
	}

	go pt.cleanupLoop()

	return pt
}

// Track 记录玩家上线，已有记录则刷新为在线。
// 断线时刻保留到 SetOnline 消费，重连后的计时校正还要用
func (pt *PlayerTracker) Track(playerID, name string) {
	pt.mu.Lock()
	defer pt.mu.Unlock()

	if p, ok := pt.players[playerID]; ok {
		p.mu.Lock()
		p.name = name
		p.online = true
		p.mu.Unlock()
		return
	}

	pt.players[playerID] = &playerPresence{
		playerID: playerID,
		name:     name,
		online:   true,
	}
}

// SetOnline 设置玩家在线并清除断线时刻
func (pt *PlayerTracker) SetOnline(playerID string) {
	pt.mu.RLock()
	p, ok := pt.players[playerID]
	pt.mu.RUnlock()

	if ok {
		p.mu.Lock()
		p.online = true
		p.disconnectedAt = time.Time{}
		p.mu.Unlock()
	}
}

// SetOffline 设置玩家离线并记录断线时间
func (pt *PlayerTracker) SetOffline(playerID string) {
	pt.mu.RLock()
	p, ok := pt.players[playerID]
	pt.mu.RUnlock()

	if ok {
		p.mu.Lock()
		p.online = false
		p.disconnectedAt = time.Now()
		p.mu.Unlock()
	}
}

// IsOnline 检查玩家是否在线
func (pt *PlayerTracker) IsOnline(playerID string) bool {
	pt.mu.RLock()
	p, ok := pt.players[playerID]
	pt.mu.RUnlock()

	if !ok {
		return false
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.online
}

// OfflineSince 玩家最近一次的断线时间（毫秒时间戳）。
// 重连（Track）不清除该记录，没有未消费的断线记录时第二个返回值为 false
func (pt *PlayerTracker) OfflineSince(playerID string) (int64, bool) {
	pt.mu.RLock()
	p, ok := pt.players[playerID]
	pt.mu.RUnlock()

	if !ok {
		return 0, false
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.disconnectedAt.IsZero() {
		return 0, false
	}
	return p.disconnectedAt.UnixMilli(), true
}

// Remove 删除玩家记录
func (pt *PlayerTracker) Remove(playerID string) {
	pt.mu.Lock()
	defer pt.mu.Unlock()
	delete(pt.players, playerID)
}

// cleanupLoop 定期清理过期的离线记录
func (pt *PlayerTracker) cleanupLoop() {
	ticker := time.NewTicker(presenceCleanupInterval)
	defer ticker.Stop()

	for range ticker.C {
		pt.cleanup()
	}
}

func (pt *PlayerTracker) cleanup() {
	pt.mu.Lock()
	defer pt.mu.Unlock()

	now := time.Now()
	for playerID, p := range pt.players {
		p.mu.RLock()
		expired := !p.online && now.Sub(p.disconnectedAt) > presenceExpireTime
		p.mu.RUnlock()

		if expired {
			delete(pt.players, playerID)
		}
	}
}
