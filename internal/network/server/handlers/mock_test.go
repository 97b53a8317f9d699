package handlers

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

func (m *MockClient) LastByType(t protocol.MessageType) *protocol.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.Messages) - 1; i >= 0; i-- {
		if m.Messages[i].Type == t {
			return m.Messages[i]
		}
	}
	return nil
}

func (m *MockClient) CountByType(t protocol.MessageType) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, msg := range m.Messages {
		if msg.Type == t {
			count++
		}
	}
	return count
}

// MockStats 预置战绩数据的测试替身
type MockStats struct {
	Stats   map[string]*types.PlayerStats
	Entries []types.LeaderboardEntry
}

func NewMockStats() *MockStats {
	return &MockStats{Stats: make(map[string]*types.PlayerStats)}
}

func (s *MockStats) RecordResult(ctx context.Context, userID, name, outcome string) error {
	return nil
}

func (s *MockStats) GetPlayerStats(ctx context.Context, userID string) (*types.PlayerStats, error) {
	return s.Stats[userID], nil
}

func (s *MockStats) GetLeaderboard(ctx context.Context, limit int) ([]types.LeaderboardEntry, error) {
	if len(s.Entries) > limit {
		return s.Entries[:limit], nil
	}
	return s.Entries, nil
}

// MockServer 实现 types.ServerContext 的测试替身
type MockServer struct {
	mu          sync.Mutex
	clients     map[string]*MockClient
	stats       *MockStats
	maintenance bool
}

func NewMockServer() *MockServer {
	return &MockServer{
		clients: make(map[string]*MockClient),
		stats:   NewMockStats(),
	}
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

func (s *MockServer) SetMaintenance(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.maintenance = on
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

func (s *MockServer) GetRedisStore() types.RedisStoreInterface         { return &noopStore{} }
func (s *MockServer) GetStats() types.StatsInterface                   { return s.stats }
func (s *MockServer) GetSessionTracker() types.SessionTrackerInterface { return nil }

func (s *MockServer) IsMaintenanceMode() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.maintenance
}

func (s *MockServer) GetOnlineCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

type noopStore struct{}

func (noopStore) SaveLobby(ctx context.Context, lobby any) error     { return nil }
func (noopStore) DeleteLobby(ctx context.Context, code string) error { return nil }
func (noopStore) SavePlayerSession(ctx context.Context, playerID string, session any) error {
	return nil
}
func (noopStore) DeletePlayerSession(ctx context.Context, playerID string) error { return nil }
