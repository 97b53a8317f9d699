package handlers

import (
	"errors"

	"github.com/palemoky/migoyugo-server/internal/network/server/game"
	"github.com/palemoky/migoyugo-server/internal/network/server/types"
	"github.com/palemoky/migoyugo-server/internal/protocol"
)

// handleCreateRoom 处理创建房间
func (h *Handler) handleCreateRoom(client types.ClientInterface) {
	// 维护模式检查
	if h.server.IsMaintenanceMode() {
		sendRoomError(client, game.ErrMaintenance)
		return
	}

	// 如果已在房间中，先离开
	if client.GetRoom() != "" {
		h.lobbies.Leave(client)
	}

	lobby, err := h.lobbies.Create(client)
	if err != nil {
		sendRoomError(client, err)
		return
	}

	client.SendMessage(protocol.MustNewMessage(protocol.MsgRoomCreated, protocol.RoomCreatedPayload{
		RoomCode: lobby.Code,
	}))
}

// handleJoinRoom 处理加入房间
func (h *Handler) handleJoinRoom(client types.ClientInterface, msg *protocol.Message) {
	// 维护模式检查
	if h.server.IsMaintenanceMode() {
		sendRoomError(client, game.ErrMaintenance)
		return
	}

	payload, err := protocol.ParsePayload[protocol.JoinRoomPayload](msg)
	if err != nil {
		client.SendMessage(protocol.NewErrorMessage(protocol.ErrCodeInvalidMsg))
		return
	}

	// 如果已在房间中，先离开
	if client.GetRoom() != "" {
		h.lobbies.Leave(client)
	}

	if _, err := h.lobbies.Join(client, payload.RoomCode); err != nil {
		sendRoomError(client, err)
	}
	// 成功的回执由房间管理器广播给双方
}

// handleStartRoomGame 处理房主开局
func (h *Handler) handleStartRoomGame(client types.ClientInterface) {
	if err := h.lobbies.StartGame(client); err != nil {
		sendRoomError(client, err)
	}
}

// handleLeaveRoom 处理离开房间
func (h *Handler) handleLeaveRoom(client types.ClientInterface) {
	h.lobbies.Leave(client)
}

// sendRoomError 房间操作失败回执
func sendRoomError(client types.ClientInterface, err error) {
	var gameErr *types.GameError
	if errors.As(err, &gameErr) {
		client.SendMessage(protocol.MustNewMessage(protocol.MsgRoomError, protocol.ErrorPayload{
			Code:    gameErr.Code,
			Message: gameErr.Message,
		}))
		return
	}
	client.SendMessage(protocol.MustNewMessage(protocol.MsgRoomError, protocol.ErrorPayload{
		Code:    protocol.ErrCodeUnknown,
		Message: err.Error(),
	}))
}
