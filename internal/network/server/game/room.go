package game

import (
	"context"
	"log"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/palemoky/migoyugo-server/internal/network/server/game/session"
	"github.com/palemoky/migoyugo-server/internal/network/server/types"
	"github.com/palemoky/migoyugo-server/internal/protocol"
)

const (
	// 房间号长度
	lobbyCodeLength = 6
	// 房间号字符集
	lobbyCodeChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// LobbyState 房间状态
type LobbyState int

const (
	LobbyWaiting LobbyState = iota // 等待访客加入
	LobbyReady                     // 人齐，等房主开局
)

// Lobby 好友房。房主执白，访客执黑
type Lobby struct {
	Code      string
	Host      types.ClientInterface
	Guest     types.ClientInterface // 未加入时为 nil
	State     LobbyState
	CreatedAt time.Time
}

// LobbyManager 房间管理器
type LobbyManager struct {
	server   types.ServerContext
	sessions *session.Manager
	settings session.TimerSettings
	clk      clock.Clock

	mu      sync.Mutex
	lobbies map[string]*Lobby
}

// NewLobbyManager 创建房间管理器
func NewLobbyManager(s types.ServerContext, sessions *session.Manager, settings session.TimerSettings, clk clock.Clock) *LobbyManager {
	return &LobbyManager{
		server:   s,
		sessions: sessions,
		settings: settings,
		clk:      clk,
		lobbies:  make(map[string]*Lobby),
	}
}

// Create 创建房间
func (lm *LobbyManager) Create(client types.ClientInterface) (*Lobby, error) {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	code := lm.generateCodeLocked()
	lobby := &Lobby{
		Code:      code,
		Host:      client,
		State:     LobbyWaiting,
		CreatedAt: time.Now(),
	}
	lm.lobbies[code] = lobby
	client.SetRoom(code)

	lm.saveLobby(lobby)

	log.Printf("🏠 房间 %s 已创建，房主 %s", code, client.GetName())
	return lobby, nil
}

// Join 加入房间并向双方广播 room_joined
func (lm *LobbyManager) Join(client types.ClientInterface, code string) (*Lobby, error) {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	lobby, exists := lm.lobbies[strings.ToUpper(code)]
	if !exists {
		return nil, ErrRoomNotFound
	}
	if lobby.State != LobbyWaiting {
		return nil, ErrRoomNotAvailable
	}
	if lobby.Guest != nil {
		return nil, ErrRoomFull
	}
	if lobby.Host.GetID() == client.GetID() {
		return nil, ErrSelfJoin
	}

	lobby.Guest = client
	lobby.State = LobbyReady
	client.SetRoom(lobby.Code)

	msg := protocol.MustNewMessage(protocol.MsgRoomJoined, protocol.RoomJoinedPayload{
		RoomCode:  lobby.Code,
		HostName:  lobby.Host.GetName(),
		GuestName: client.GetName(),
	})
	lobby.Host.SendMessage(msg)
	client.SendMessage(msg)

	lm.saveLobby(lobby)

	log.Printf("👤 玩家 %s 加入房间 %s", client.GetName(), lobby.Code)
	return lobby, nil
}

// StartGame 房主开局：房主执白、访客执黑，房间随即销毁
func (lm *LobbyManager) StartGame(client types.ClientInterface) error {
	lm.mu.Lock()

	lobby, exists := lm.lobbies[client.GetRoom()]
	if !exists {
		lm.mu.Unlock()
		return ErrNotInRoom
	}
	if lobby.State != LobbyReady || lobby.Guest == nil {
		lm.mu.Unlock()
		return ErrRoomNotReady
	}
	if lobby.Host.GetID() != client.GetID() {
		lm.mu.Unlock()
		return ErrNotHost
	}

	host, guest := lobby.Host, lobby.Guest

	// 开局即销毁房间，之后的离开/断开对它而言是无操作
	delete(lm.lobbies, lobby.Code)
	host.SetRoom("")
	guest.SetRoom("")
	lm.deleteLobby(lobby.Code)
	lm.mu.Unlock()

	white := &session.Player{
		ConnID:  host.GetID(),
		UserID:  host.GetUserID(),
		Name:    host.GetName(),
		IsGuest: host.IsGuest(),
	}
	black := &session.Player{
		ConnID:  guest.GetID(),
		UserID:  guest.GetUserID(),
		Name:    guest.GetName(),
		IsGuest: guest.IsGuest(),
	}

	sess := session.New(lm.server, lm.clk, white, black, lm.settings, lobby.Code)
	lm.sessions.Add(sess)
	sess.Start()

	log.Printf("🎮 房间 %s 开局：%s(白) vs %s(黑)", lobby.Code, white.Name, black.Name)
	return nil
}

// Leave 离开房间。房主离开销毁房间，访客离开房间回到等待态。
// 不在任何房间时为无操作
func (lm *LobbyManager) Leave(client types.ClientInterface) {
	lm.leave(client, "host_left")
}

// HandleDisconnect 房间成员断线，语义同主动离开
func (lm *LobbyManager) HandleDisconnect(client types.ClientInterface) {
	lm.leave(client, "host_disconnected")
}

func (lm *LobbyManager) leave(client types.ClientInterface, closeReason string) {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	lobby, exists := lm.lobbies[client.GetRoom()]
	if !exists {
		client.SetRoom("")
		return
	}

	switch client.GetID() {
	case lobby.Host.GetID():
		if lobby.Guest != nil {
			lobby.Guest.SendMessage(protocol.MustNewMessage(protocol.MsgRoomClosed, protocol.RoomClosedPayload{
				RoomCode: lobby.Code,
				Reason:   closeReason,
			}))
			lobby.Guest.SetRoom("")
		}
		delete(lm.lobbies, lobby.Code)
		lm.deleteLobby(lobby.Code)
		log.Printf("🏠 房间 %s 已关闭，房主 %s 离开", lobby.Code, client.GetName())

	case lobby.guestID():
		lobby.Guest = nil
		lobby.State = LobbyWaiting
		lobby.Host.SendMessage(protocol.MustNewMessage(protocol.MsgGuestLeft, protocol.GuestLeftPayload{
			RoomCode: lobby.Code,
		}))
		lm.saveLobby(lobby)
		log.Printf("👤 访客 %s 离开房间 %s", client.GetName(), lobby.Code)
	}

	client.SetRoom("")
}

func (l *Lobby) guestID() string {
	if l.Guest == nil {
		return ""
	}
	return l.Guest.GetID()
}

// Get 按房间号查找
func (lm *LobbyManager) Get(code string) *Lobby {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	return lm.lobbies[code]
}

// Count 房间数
func (lm *LobbyManager) Count() int {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	return len(lm.lobbies)
}

func (lm *LobbyManager) generateCodeLocked() string {
	for {
		b := make([]byte, lobbyCodeLength)
		for i := range b {
			b[i] = lobbyCodeChars[rand.IntN(len(lobbyCodeChars))]
		}
		code := string(b)
		if _, taken := lm.lobbies[code]; !taken {
			return code
		}
	}
}

// Redis 快照尽力而为，失败只记日志
func (lm *LobbyManager) saveLobby(lobby *Lobby) {
	store := lm.server.GetRedisStore()
	if store == nil {
		return
	}
	snapshot := map[string]any{
		"code":       lobby.Code,
		"host":       lobby.Host.GetName(),
		"guest":      "",
		"state":      int(lobby.State),
		"created_at": lobby.CreatedAt.Unix(),
	}
	if lobby.Guest != nil {
		snapshot["guest"] = lobby.Guest.GetName()
	}
	go func() {
		if err := store.SaveLobby(context.Background(), snapshot); err != nil {
			log.Printf("⚠️ 保存房间快照失败 %s: %v", lobby.Code, err)
		}
	}()
}

func (lm *LobbyManager) deleteLobby(code string) {
	store := lm.server.GetRedisStore()
	if store == nil {
		return
	}
	go func() {
		if err := store.DeleteLobby(context.Background(), code); err != nil {
			log.Printf("⚠️ 删除房间快照失败 %s: %v", code, err)
		}
	}()
}
