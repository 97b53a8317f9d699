package handlers

import (
	"time"

	"github.com/palemoky/migoyugo-server/internal/network/server/game"
	"github.com/palemoky/migoyugo-server/internal/network/server/game/session"
	"github.com/palemoky/migoyugo-server/internal/network/server/types"
	"github.com/palemoky/migoyugo-server/internal/protocol"
)

// 匹配请求的计时参数范围
const (
	minMinutesPerPlayer = 1
	maxMinutesPerPlayer = 60
	maxIncrementSeconds = 60
)

// handleFindMatch 处理进入匹配队列
func (h *Handler) handleFindMatch(client types.ClientInterface, msg *protocol.Message) {
	// 维护模式检查
	if h.server.IsMaintenanceMode() {
		sendGameError(client, game.ErrMaintenance)
		return
	}

	// 已在进行中的对局里不能再匹配
	if sess := h.sessions.GetByConn(client.GetID()); sess != nil && sess.IsActive() {
		sendGameError(client, game.ErrAlreadyInGame)
		return
	}

	settings := h.defaults
	if payload, err := protocol.ParsePayload[protocol.FindMatchPayload](msg); err == nil {
		if payload.MinutesPerPlayer > 0 {
			minutes := min(max(payload.MinutesPerPlayer, minMinutesPerPlayer), maxMinutesPerPlayer)
			settings.TimePerPlayer = time.Duration(minutes) * time.Minute
		}
		if payload.IncrementSeconds > 0 {
			settings.Increment = time.Duration(min(payload.IncrementSeconds, maxIncrementSeconds)) * time.Second
		}
	}

	h.matcher.Enqueue(client, settings)
}

// handleCancelMatchmaking 处理取消匹配
func (h *Handler) handleCancelMatchmaking(client types.ClientInterface) {
	h.matcher.Cancel(client)
}

// handleMakeMove 处理落子
func (h *Handler) handleMakeMove(client types.ClientInterface, msg *protocol.Message) {
	payload, err := protocol.ParsePayload[protocol.MakeMovePayload](msg)
	if err != nil {
		client.SendMessage(protocol.NewErrorMessage(protocol.ErrCodeInvalidMsg))
		return
	}

	sess := h.activeSession(client, payload.SessionID)
	if sess == nil {
		return
	}

	if err := sess.HandleMove(client.GetID(), payload.Row, payload.Col); err != nil {
		sendGameError(client, err)
	}
}

// handleRequestTimerSync 处理计时同步请求
func (h *Handler) handleRequestTimerSync(client types.ClientInterface, msg *protocol.Message) {
	sess := h.activeSession(client, sessionIDOf(msg))
	if sess == nil {
		return
	}
	sess.HandleTimerSync(client.GetID())
}

// handleResign 处理认输
func (h *Handler) handleResign(client types.ClientInterface, msg *protocol.Message) {
	sess := h.activeSession(client, sessionIDOf(msg))
	if sess == nil {
		return
	}
	if err := sess.HandleResign(client.GetID()); err != nil {
		sendGameError(client, err)
	}
}

// handleDrawOffer 处理提和
func (h *Handler) handleDrawOffer(client types.ClientInterface, msg *protocol.Message) {
	sess := h.activeSession(client, sessionIDOf(msg))
	if sess == nil {
		return
	}
	if err := sess.HandleDrawOffer(client.GetID()); err != nil {
		sendGameError(client, err)
	}
}

// handleDrawAccept 处理接受和棋
func (h *Handler) handleDrawAccept(client types.ClientInterface, msg *protocol.Message) {
	sess := h.activeSession(client, sessionIDOf(msg))
	if sess == nil {
		return
	}
	if err := sess.HandleDrawAccept(client.GetID()); err != nil {
		sendGameError(client, err)
	}
}

// handleDrawDecline 处理拒绝和棋
func (h *Handler) handleDrawDecline(client types.ClientInterface, msg *protocol.Message) {
	sess := h.activeSession(client, sessionIDOf(msg))
	if sess == nil {
		return
	}
	if err := sess.HandleDrawDecline(client.GetID()); err != nil {
		sendGameError(client, err)
	}
}

// activeSession 按连接查找对局并校验请求携带的会话 ID，
// 不存在或不一致时回发错误。ID 缺省时仅按连接解析
func (h *Handler) activeSession(client types.ClientInterface, sessionID string) *session.Session {
	sess := h.sessions.GetByConn(client.GetID())
	if sess == nil || (sessionID != "" && sess.ID != sessionID) {
		client.SendMessage(protocol.NewErrorMessage(protocol.ErrCodeNoActiveGame))
		return nil
	}
	return sess
}

// sessionIDOf 提取对局内操作携带的会话 ID，无 payload 时为空
func sessionIDOf(msg *protocol.Message) string {
	payload, err := protocol.ParsePayload[protocol.GameActionPayload](msg)
	if err != nil {
		return ""
	}
	return payload.SessionID
}
