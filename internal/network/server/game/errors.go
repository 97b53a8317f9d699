package game

import (
	"github.com/palemoky/migoyugo-server/internal/network/server/types"
	"github.com/palemoky/migoyugo-server/internal/protocol"
)

// GameError type alias
type GameError = types.GameError

// 房间与匹配错误
var (
	ErrRoomNotFound     = types.NewGameError(protocol.ErrCodeRoomNotFound)
	ErrRoomNotAvailable = types.NewGameError(protocol.ErrCodeRoomNotAvailable)
	ErrRoomFull         = types.NewGameError(protocol.ErrCodeRoomFull)
	ErrSelfJoin         = types.NewGameError(protocol.ErrCodeSelfJoin)
	ErrNotInRoom        = types.NewGameError(protocol.ErrCodeNotInRoom)
	ErrNotHost          = types.NewGameError(protocol.ErrCodeNotHost)
	ErrRoomNotReady     = types.NewGameError(protocol.ErrCodeRoomNotReady)
	ErrAlreadyInGame    = types.NewGameError(protocol.ErrCodeAlreadyInGame)
	ErrMaintenance      = types.NewGameError(protocol.ErrCodeMaintenance)
)
