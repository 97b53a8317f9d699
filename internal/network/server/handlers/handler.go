package handlers

import (
	"errors"
	"log"

	"github.com/palemoky/migoyugo-server/internal/network/server/game"
	"github.com/palemoky/migoyugo-server/internal/network/server/game/session"
	"github.com/palemoky/migoyugo-server/internal/network/server/types"
	"github.com/palemoky/migoyugo-server/internal/protocol"
)

// Handler 消息处理器
type Handler struct {
	server   types.ServerContext
	sessions *session.Manager
	matcher  *game.Matcher
	lobbies  *game.LobbyManager
	defaults session.TimerSettings
}

// NewHandler 创建处理器
func NewHandler(s types.ServerContext, sessions *session.Manager, matcher *game.Matcher,
	lobbies *game.LobbyManager, defaults session.TimerSettings) *Handler {
	return &Handler{
		server:   s,
		sessions: sessions,
		matcher:  matcher,
		lobbies:  lobbies,
		defaults: defaults,
	}
}

// Handle 处理消息
func (h *Handler) Handle(client types.ClientInterface, msg *protocol.Message) {
	switch msg.Type {
	// 匹配操作
	case protocol.MsgFindMatch:
		h.handleFindMatch(client, msg)
	case protocol.MsgCancelMatchmaking:
		h.handleCancelMatchmaking(client)

	// 房间操作
	case protocol.MsgCreateRoom:
		h.handleCreateRoom(client)
	case protocol.MsgJoinRoom:
		h.handleJoinRoom(client, msg)
	case protocol.MsgStartRoomGame:
		h.handleStartRoomGame(client)
	case protocol.MsgLeaveRoom:
		h.handleLeaveRoom(client)

	// 对局操作
	case protocol.MsgMakeMove:
		h.handleMakeMove(client, msg)
	case protocol.MsgRequestTimerSync:
		h.handleRequestTimerSync(client, msg)
	case protocol.MsgResign:
		h.handleResign(client, msg)
	case protocol.MsgDrawOffer:
		h.handleDrawOffer(client, msg)
	case protocol.MsgDrawAccept:
		h.handleDrawAccept(client, msg)
	case protocol.MsgDrawDecline:
		h.handleDrawDecline(client, msg)

	// 重赛操作
	case protocol.MsgRequestRematch:
		h.handleRequestRematch(client, msg)
	case protocol.MsgRespondRematch:
		h.handleRespondRematch(client, msg)

	// 查询操作
	case protocol.MsgGetStats:
		h.handleGetStats(client)
	case protocol.MsgGetLeaderboard:
		h.handleGetLeaderboard(client)
	case protocol.MsgGetOnlineCount:
		h.handleGetOnlineCount(client)

	default:
		log.Printf("⚠️  未知消息类型: '%s' (来自玩家: %s, ID: %s)", msg.Type, client.GetName(), client.GetID())
		client.SendMessage(protocol.NewErrorMessage(protocol.ErrCodeInvalidMsg))
	}
}

// sendGameError 按错误类型回发协议错误
func sendGameError(client types.ClientInterface, err error) {
	var gameErr *types.GameError
	if errors.As(err, &gameErr) {
		client.SendMessage(protocol.NewErrorMessage(gameErr.Code))
		return
	}
	client.SendMessage(protocol.NewErrorMessageWithText(protocol.ErrCodeUnknown, err.Error()))
}
