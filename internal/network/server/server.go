package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"runtime"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"github.com/palemoky/migoyugo-server/internal/config"
	"github.com/palemoky/migoyugo-server/internal/network/server/game"
	"github.com/palemoky/migoyugo-server/internal/network/server/game/session"
	"github.com/palemoky/migoyugo-server/internal/network/server/handlers"
	"github.com/palemoky/migoyugo-server/internal/network/server/storage"
	"github.com/palemoky/migoyugo-server/internal/network/server/types"
	"github.com/palemoky/migoyugo-server/internal/protocol"
)

const (
	// 优雅关闭时检查活跃对局的间隔
	shutdownCheckInterval = 5 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// 来源检查在升级前由 OriginChecker 完成
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	EnableCompression: false,
}

// Server WebSocket 服务器
type Server struct {
	config     *config.Config
	redis      *redis.Client
	redisStore *storage.RedisStore
	stats      *storage.StatsManager
	tracker    *PlayerTracker
	sessions   *session.Manager
	matcher    *game.Matcher
	lobbies    *game.LobbyManager
	handler    *handlers.Handler

	clients   map[string]*Client // 连接 ID -> 客户端
	userIndex map[string]string  // 用户 ID -> 连接 ID
	clientsMu sync.RWMutex

	// 安全组件
	originChecker *OriginChecker

	// 连接控制
	maxConnections int
	semaphore      chan struct{} // 信号量控制并发连接数

	// 维护模式
	maintenanceMode bool
	maintenanceMu   sync.RWMutex
}

// NewServer 创建服务器实例
func NewServer(cfg *config.Config) (*Server, error) {
	// 初始化 Redis 客户端
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	// 测试 Redis 连接
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis 连接失败: %w", err)
	}

	s := &Server{
		config:     cfg,
		redis:      rdb,
		redisStore: storage.NewRedisStore(rdb),
		stats:      storage.NewStatsManager(rdb),
		tracker:    NewPlayerTracker(),
		sessions:   session.NewManager(),
		clients:    make(map[string]*Client),
		userIndex:  make(map[string]string),
		// 初始化安全组件
		originChecker: NewOriginChecker(cfg.Security.AllowedOrigins),
		// 初始化连接控制
		maxConnections: cfg.Server.MaxConnections,
		semaphore:      make(chan struct{}, cfg.Server.MaxConnections),
	}

	defaults := session.TimerSettings{
		TimePerPlayer: cfg.Game.TimePerPlayer(),
		Increment:     cfg.Game.Increment(),
		RestartGapCap: cfg.Game.RestartGapCap(),
	}

	clk := clock.New()

	// 初始化匹配器和房间管理器
	s.matcher = game.NewMatcher(s, s.sessions, clk)
	s.lobbies = game.NewLobbyManager(s, s.sessions, defaults, clk)

	// 初始化消息处理器
	s.handler = handlers.NewHandler(s, s.sessions, s.matcher, s.lobbies, defaults)

	log.Printf("🔒 连接配置: 最大连接数=%d, 允许来源=%v",
		cfg.Server.MaxConnections, cfg.Security.AllowedOrigins)

	return s, nil
}

// Start 启动服务器
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)

	http.HandleFunc("/ws", s.handleWebSocket)
	http.HandleFunc("/health", s.handleHealth)

	// 启动监控 goroutine
	go s.monitorStats()

	log.Printf("🚀 服务器启动在 ws://%s/ws (CPU核心数: %d)", addr, runtime.NumCPU())
	server := &http.Server{
		Addr:              addr,
		Handler:           nil,
		ReadHeaderTimeout: 10 * time.Second, // 防止 Slowloris 攻击
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return server.ListenAndServe()
}

// handleWebSocket 处理 WebSocket 连接
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	// 获取真实客户端IP
	clientIP := GetClientIP(r)

	// 维护模式检查（最优先）
	if s.IsMaintenanceMode() {
		log.Printf("🔧 维护模式，拒绝新连接: %s", clientIP)
		http.Error(w, "Server is under maintenance, please try again later",
			http.StatusServiceUnavailable)
		return
	}

	// 连接数限制检查
	select {
	case s.semaphore <- struct{}{}:
		// 成功获取信号量，连接建立后释放
		defer func() { <-s.semaphore }()
	default:
		log.Printf("🚫 达到最大连接数限制 (%d), IP: %s", s.maxConnections, clientIP)
		http.Error(w, "Server Full", http.StatusServiceUnavailable)
		return
	}

	// 来源验证
	if !s.originChecker.Check(r) {
		log.Printf("🚫 来源验证失败: %s (IP: %s)", r.Header.Get("Origin"), clientIP)
		http.Error(w, "Origin not allowed", http.StatusForbidden)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket 升级失败: %v", err)
		return
	}

	// 身份由接入层网关校验后通过查询参数透传，
	// user_id 为空视为访客
	query := r.URL.Query()
	client := NewClient(s, conn, query.Get("user_id"), query.Get("name"))
	client.IP = clientIP
	s.registerClient(client)

	// 记录在线状态；带未消费断线记录的回归视为重连
	if since, ok := s.tracker.OfflineSince(client.PlayerKey()); ok && !s.tracker.IsOnline(client.PlayerKey()) {
		log.Printf("🔄 玩家 %s 重连（离线 %v）", client.Name,
			time.Since(time.UnixMilli(since)).Round(time.Second))
	}
	s.tracker.Track(client.PlayerKey(), client.Name)

	log.Printf("✅ 玩家 %s (%s) 已连接", client.Name, client.ID)

	// 启动客户端读写协程
	go client.ReadPump()
	go client.WritePump()
}

// handleHealth 健康检查接口
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// registerClient 注册客户端
func (s *Server) registerClient(client *Client) {
	s.clientsMu.Lock()
	s.clients[client.ID] = client
	if client.UserID != "" {
		// 同一用户重复登录时，新连接接管身份
		s.userIndex[client.UserID] = client.ID
	}
	s.clientsMu.Unlock()

	// 会话快照，尽力而为
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = s.redisStore.SavePlayerSession(ctx, client.PlayerKey(), map[string]any{
			"conn_id": client.ID,
			"user_id": client.UserID,
			"name":    client.Name,
			"ip":      client.IP,
		})
	}()
}

// unregisterClient 注销客户端
func (s *Server) unregisterClient(client *Client) {
	s.clientsMu.Lock()
	if _, ok := s.clients[client.ID]; ok {
		delete(s.clients, client.ID)
		log.Printf("❌ 玩家 %s (%s) 已断开", client.Name, client.ID)
	}
	// 用户索引仍指向本连接时才清除（可能已被新连接接管）
	if client.UserID != "" && s.userIndex[client.UserID] == client.ID {
		delete(s.userIndex, client.UserID)
	}
	s.clientsMu.Unlock()

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = s.redisStore.DeletePlayerSession(ctx, client.PlayerKey())
	}()
}

// GetOnlineCount 获取在线人数（按需调用）
func (s *Server) GetOnlineCount() int {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	return len(s.clients)
}

// Broadcast 广播消息给所有客户端
func (s *Server) Broadcast(msg *protocol.Message) {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()

	for _, client := range s.clients {
		client.SendMessage(msg)
	}
}

// monitorStats 定期监控服务器状态
func (s *Server) monitorStats() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		var m runtime.MemStats
		runtime.ReadMemStats(&m)

		log.Printf("📊 [监控] 在线: %d | 对局: %d | Goroutines: %d | 活跃连接: %d/%d | 内存: %.2f MB",
			s.GetOnlineCount(),
			s.sessions.ActiveCount(),
			runtime.NumGoroutine(),
			len(s.semaphore),
			s.maxConnections,
			float64(m.Alloc)/1024/1024)
	}
}

// EnterMaintenanceMode 进入维护模式
func (s *Server) EnterMaintenanceMode() {
	s.maintenanceMu.Lock()
	s.maintenanceMode = true
	s.maintenanceMu.Unlock()

	// 通知在线用户服务器即将关闭
	s.Broadcast(protocol.MustNewMessage(protocol.MsgError, protocol.ErrorPayload{
		Code:    protocol.ErrCodeMaintenance,
		Message: protocol.ErrorMessages[protocol.ErrCodeMaintenance],
	}))

	log.Println("🔧 进入维护模式：停止新连接和新对局")
}

// IsMaintenanceMode 检查是否在维护模式
func (s *Server) IsMaintenanceMode() bool {
	s.maintenanceMu.RLock()
	defer s.maintenanceMu.RUnlock()
	return s.maintenanceMode
}

// GracefulShutdown 优雅关闭服务器：进入维护模式并等待对局结束
func (s *Server) GracefulShutdown(timeout time.Duration) {
	s.EnterMaintenanceMode()

	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(shutdownCheckInterval)
	defer ticker.Stop()

	for time.Now().Before(deadline) {
		active := s.sessions.ActiveCount()
		if active == 0 {
			log.Println("✅ 所有对局已结束，关闭服务器")
			break
		}
		log.Printf("⏳ 等待 %d 局对局结束...", active)
		<-ticker.C
	}

	if active := s.sessions.ActiveCount(); active > 0 {
		log.Printf("⚠️ 超时，仍有 %d 局对局进行中，强制关闭", active)
	}

	s.Shutdown()
}

// Shutdown 关闭服务器
func (s *Server) Shutdown() {
	// 关闭所有客户端连接
	s.clientsMu.Lock()
	for _, client := range s.clients {
		client.Close()
	}
	s.clientsMu.Unlock()

	// 关闭 Redis
	_ = s.redis.Close()

	log.Println("服务器已关闭")
}

// Interface implementations for types.ServerContext
func (s *Server) GetRedisStore() types.RedisStoreInterface         { return s.redisStore }
func (s *Server) GetStats() types.StatsInterface                   { return s.stats }
func (s *Server) GetSessionTracker() types.SessionTrackerInterface { return s.tracker }

func (s *Server) GetClientByID(id string) types.ClientInterface {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	if client, ok := s.clients[id]; ok {
		return client
	}
	return nil
}

func (s *Server) GetClientByUserID(userID string) types.ClientInterface {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	if connID, ok := s.userIndex[userID]; ok {
		if client, ok := s.clients[connID]; ok {
			return client
		}
	}
	return nil
}
