package session

import (
	"context"
	"sync"

	"github.com/palemoky/migoyugo-server/internal/network/server/types"
	"github.com/palemoky/migoyugo-server/internal/protocol"
)

type MockClient struct {
	ID       string
	UserID   string
	Name     string
	Guest    bool
	RoomCode string

	mu       sync.Mutex
	Messages []*protocol.Message
}

func (m *MockClient) GetID() string     { return m.ID }
func (m *MockClient) GetUserID() string { return m.UserID }
func (m *MockClient) GetName() string   { return m.Name }
func (m *MockClient) IsGuest() bool     { return m.Guest }
func (m *MockClient) GetRoom() string   { return m.RoomCode }

func (m *MockClient) SetRoom(roomCode string) {
	m.RoomCode = roomCode
}

func (m *MockClient) SendMessage(msg *protocol.Message) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Messages = append(m.Messages, msg)
}

func (m *MockClient) Close() {
	// No-op for mock
}

// Sent returns a snapshot of delivered messages.
func (m *MockClient) Sent() []*protocol.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*protocol.Message, len(m.Messages))
	copy(out, m.Messages)
	return out
}

// CountByType counts delivered messages of one type.
func (m *MockClient) CountByType(t protocol.MessageType) int {
	n := 0
	for _, msg := range m.Sent() {
		if msg.Type == t {
			n++
		}
	}
	return n
}

// LastByType returns the newest delivered message of one type, or nil.
func (m *MockClient) LastByType(t protocol.MessageType) *protocol.Message {
	msgs := m.Sent()
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Type == t {
			return msgs[i]
		}
	}
	return nil
}

// MockServer 实现 types.ServerContext 的最小测试替身
type MockServer struct {
	mu      sync.Mutex
	clients map[string]*MockClient
	stats   types.StatsInterface
	tracker *MockTracker
}

func NewMockServer() *MockServer {
	return &MockServer{clients: make(map[string]*MockClient)}
}

func (s *MockServer) AddClient(c *MockClient) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients[c.ID] = c
}

func (s *MockServer) DropClient(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.clients, id)
}

func (s *MockServer) GetClientByID(id string) types.ClientInterface {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.clients[id]; ok {
		return c
	}
	return nil
}

func (s *MockServer) GetClientByUserID(userID string) types.ClientInterface {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.clients {
		if c.UserID != "" && c.UserID == userID {
			return c
		}
	}
	return nil
}

func (s *MockServer) GetRedisStore() types.RedisStoreInterface { return nil }
func (s *MockServer) GetStats() types.StatsInterface           { return s.stats }
func (s *MockServer) IsMaintenanceMode() bool                  { return false }

func (s *MockServer) GetSessionTracker() types.SessionTrackerInterface {
	if s.tracker == nil {
		return nil
	}
	return s.tracker
}

func (s *MockServer) GetOnlineCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// MockTracker 记录断线时刻的追踪器替身
type MockTracker struct {
	mu      sync.Mutex
	offline map[string]int64
}

func NewMockTracker() *MockTracker {
	return &MockTracker{offline: make(map[string]int64)}
}

// MarkOffline 预置一条断线记录
func (m *MockTracker) MarkOffline(playerID string, at int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.offline[playerID] = at
}

func (m *MockTracker) SetOnline(playerID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.offline, playerID)
}

func (m *MockTracker) OfflineSince(playerID string) (int64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ms, ok := m.offline[playerID]
	return ms, ok
}

// RecordedResult 一条被记录的战绩
type RecordedResult struct {
	UserID  string
	Name    string
	Outcome string
}

type MockStats struct {
	mu      sync.Mutex
	Records []RecordedResult
}

func (m *MockStats) RecordResult(ctx context.Context, userID, name, outcome string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Records = append(m.Records, RecordedResult{UserID: userID, Name: name, Outcome: outcome})
	return nil
}

func (m *MockStats) GetPlayerStats(ctx context.Context, userID string) (*types.PlayerStats, error) {
	return nil, nil
}

func (m *MockStats) GetLeaderboard(ctx context.Context, limit int) ([]types.LeaderboardEntry, error) {
	return nil, nil
}

func (m *MockStats) Recorded() []RecordedResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]RecordedResult, len(m.Records))
	copy(out, m.Records)
	return out
}
