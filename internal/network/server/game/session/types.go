package session

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/palemoky/migoyugo-server/internal/engine"
	"github.com/palemoky/migoyugo-server/internal/network/server/types"
	"github.com/palemoky/migoyugo-server/internal/protocol"
)

// Status 对局状态
type Status int

const (
	StatusActive Status = iota
	StatusFinished
)

// 结束原因
const (
	ReasonWin        = "win"           // 4 连标记获胜
	ReasonTimeout    = "timeout"       // 超时判负
	ReasonResign     = "resignation"   // 认输
	ReasonDisconnect = "disconnection" // 断线判负
	ReasonNoMoves    = "no_moves"      // 无子可落，按标记分结算
	ReasonDrawAgreed = "draw_agreed"   // 双方同意和棋
)

// Player 对局中的一方
type Player struct {
	ConnID  string // 当前连接 ID
	UserID  string // 注册用户 ID，访客为空
	Name    string
	IsGuest bool
}

// Move 棋谱中的一手
type Move struct {
	Row   int          `json:"row"`
	Col   int          `json:"col"`
	Color engine.Color `json:"color"`
	Lines int          `json:"lines"` // 本手同时完成的连线数
}

// TimerSettings 计时设置
type TimerSettings struct {
	TimePerPlayer time.Duration // 每方总时长
	Increment     time.Duration // 每步加秒
	RestartGapCap time.Duration // 计时重启间隙补偿上限
}

// Session 一局对战。所有状态变更都在 mu 下串行执行
type Session struct {
	ID       string
	RoomCode string // 来源房间，匹配对局为空

	server types.ServerContext
	clk    clock.Clock

	mu       sync.Mutex
	status   Status
	board    engine.Board
	turn     engine.Color
	players  map[engine.Color]*Player
	settings TimerSettings

	// 计时状态
	remaining    map[engine.Color]time.Duration
	tick         *tickJob  // 当前计时任务，停表时为 nil
	lastTickAt   time.Time // 上次走时扣减的时刻
	disconnectAt time.Time // 断线时刻，零值表示无

	// 流程状态
	drawOffer   engine.Color // 提和方，空表示无待处理提和
	rematchWant map[engine.Color]bool
	endReason   string
	winner      engine.Color // 平局为空
	moveLog     []Move       // 只追加的棋谱
}

// 对局操作错误
var (
	ErrNoActiveGame  = types.NewGameError(protocol.ErrCodeNoActiveGame)
	ErrNotYourTurn   = types.NewGameError(protocol.ErrCodeNotYourTurn)
	ErrIllegalMove   = types.NewGameError(protocol.ErrCodeIllegalMove)
	ErrGameFinished  = types.NewGameError(protocol.ErrCodeGameFinished)
	ErrNoPendingDraw = types.NewGameError(protocol.ErrCodeNoPendingDraw)
)

// Manager 会话注册表。结束的会话保留到重赛或参与者断开
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	byConn   map[string]string // 连接 ID → 会话 ID
}

// NewManager 创建会话注册表
func NewManager() *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		byConn:   make(map[string]string),
	}
}

// Add 注册会话。参与者带着旧终局会话开新对局时，旧会话随之回收
func (m *Manager) Add(s *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, p := range s.players {
		if oldID, ok := m.byConn[p.ConnID]; ok && oldID != s.ID {
			if old := m.sessions[oldID]; old != nil && !old.IsActive() {
				m.removeLocked(old)
			}
		}
	}

	m.sessions[s.ID] = s
	for _, p := range s.players {
		m.byConn[p.ConnID] = s.ID
	}
}

// Get 按会话 ID 查找
func (m *Manager) Get(id string) *Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sessions[id]
}

// GetByConn 按连接 ID 查找所在会话
func (m *Manager) GetByConn(connID string) *Session {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.byConn[connID]
	if !ok {
		return nil
	}
	return m.sessions[id]
}

// Remove 注销会话及其连接映射
func (m *Manager) Remove(s *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removeLocked(s)
}

func (m *Manager) removeLocked(s *Session) {
	delete(m.sessions, s.ID)
	for conn, id := range m.byConn {
		if id == s.ID {
			delete(m.byConn, conn)
		}
	}
}

// Replace 重赛换代：注销旧会话并注册新会话
func (m *Manager) Replace(old, fresh *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.removeLocked(old)
	m.sessions[fresh.ID] = fresh
	for _, p := range fresh.players {
		m.byConn[p.ConnID] = fresh.ID
	}
}

// HandleDisconnect 连接断开的会话善后。进行中的对局判负并立即注销；
// 已结束的会话保留给重赛，直到双方连接都不可达
func (m *Manager) HandleDisconnect(connID string) {
	s := m.GetByConn(connID)
	if s == nil {
		return
	}

	wasActive := s.IsActive()
	s.HandleDisconnect(connID)

	if wasActive || s.Abandoned() {
		m.Remove(s)
	}
}

// ActiveCount 进行中的会话数
func (m *Manager) ActiveCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := 0
	for _, s := range m.sessions {
		if s.IsActive() {
			n++
		}
	}
	return n
}
