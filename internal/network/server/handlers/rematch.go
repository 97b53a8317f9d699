package handlers

import (
	"github.com/palemoky/migoyugo-server/internal/network/server/game/session"
	"github.com/palemoky/migoyugo-server/internal/network/server/types"
	"github.com/palemoky/migoyugo-server/internal/protocol"
)

// handleRequestRematch 处理重赛请求
func (h *Handler) handleRequestRematch(client types.ClientInterface, msg *protocol.Message) {
	sess := h.rematchSession(client, sessionIDOf(msg))
	if sess == nil {
		return
	}

	if reason := sess.RequestRematch(client.GetID()); reason != "" {
		sendRematchFailed(client, reason)
	}
}

// handleRespondRematch 处理重赛回应
func (h *Handler) handleRespondRematch(client types.ClientInterface, msg *protocol.Message) {
	payload, err := protocol.ParsePayload[protocol.RespondRematchPayload](msg)
	if err != nil {
		client.SendMessage(protocol.NewErrorMessage(protocol.ErrCodeInvalidMsg))
		return
	}

	sess := h.rematchSession(client, payload.SessionID)
	if sess == nil {
		return
	}

	if _, reason := h.sessions.RespondRematch(sess, client.GetID(), payload.Accept); reason != "" {
		sendRematchFailed(client, reason)
	}
}

// rematchSession 按连接查找重赛目标会话并校验请求携带的会话 ID
func (h *Handler) rematchSession(client types.ClientInterface, sessionID string) *session.Session {
	sess := h.sessions.GetByConn(client.GetID())
	if sess == nil || (sessionID != "" && sess.ID != sessionID) {
		sendRematchFailed(client, protocol.RematchSessionNotFound)
		return nil
	}
	return sess
}

func sendRematchFailed(client types.ClientInterface, reason string) {
	client.SendMessage(protocol.MustNewMessage(protocol.MsgRematchRequestFailed, protocol.RematchFailedPayload{
		Reason: reason,
	}))
}
