package protocol

import (
	"encoding/json"

	"github.com/palemoky/migoyugo-server/internal/engine"
)

// Message 基础消息结构
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// MessageType 消息类型
type MessageType string

// 客户端 → 服务端 消息类型
const (
	// 匹配操作
	MsgFindMatch         MessageType = "find_match"         // 进入匹配队列
	MsgCancelMatchmaking MessageType = "cancel_matchmaking" // 取消匹配

	// 房间操作
	MsgCreateRoom    MessageType = "create_room"     // 创建房间
	MsgJoinRoom      MessageType = "join_room"       // 加入房间
	MsgStartRoomGame MessageType = "start_room_game" // 房主开始游戏
	MsgLeaveRoom     MessageType = "leave_room"      // 离开房间

	// 对局操作
	MsgMakeMove         MessageType = "make_move"          // 落子
	MsgRequestTimerSync MessageType = "request_timer_sync" // 请求计时同步
	MsgResign           MessageType = "resign"             // 认输
	MsgDrawOffer        MessageType = "draw_offer"         // 提和
	MsgDrawAccept       MessageType = "draw_accept"        // 接受和棋
	MsgDrawDecline      MessageType = "draw_decline"       // 拒绝和棋

	// 重赛操作
	MsgRequestRematch MessageType = "request_rematch" // 请求重赛
	MsgRespondRematch MessageType = "respond_rematch" // 回应重赛请求

	// 查询操作
	MsgGetStats       MessageType = "get_stats"        // 查询个人战绩
	MsgGetLeaderboard MessageType = "get_leaderboard"  // 查询排行榜
	MsgGetOnlineCount MessageType = "get_online_count" // 查询在线人数
)

// 服务端 → 客户端 消息类型
const (
	// 匹配相关
	MsgWaitingForOpponent MessageType = "waiting_for_opponent" // 正在等待对手
	MsgMatchCancelled     MessageType = "match_cancelled"      // 匹配已取消

	// 房间相关
	MsgRoomCreated MessageType = "room_created" // 房间创建成功
	MsgRoomJoined  MessageType = "room_joined"  // 加入房间成功
	MsgRoomError   MessageType = "room_error"   // 房间操作失败
	MsgRoomClosed  MessageType = "room_closed"  // 房间已关闭
	MsgGuestLeft   MessageType = "guest_left"   // 访客离开房间

	// 对局流程
	MsgGameStart   MessageType = "game_start"   // 对局开始
	MsgMoveUpdate  MessageType = "move_update"  // 落子结算广播
	MsgTimerUpdate MessageType = "timer_update" // 计时心跳广播
	MsgTimerSync   MessageType = "timer_sync"   // 计时同步应答
	MsgGameEnd     MessageType = "game_end"     // 对局结束

	// 和棋流程
	MsgDrawOffered  MessageType = "draw_offered"  // 对方提和
	MsgDrawDeclined MessageType = "draw_declined" // 对方拒绝和棋

	// 重赛流程
	MsgRematchRequested     MessageType = "rematch_requested"      // 对方请求重赛
	MsgRematchRequestSent   MessageType = "rematch_request_sent"   // 重赛请求已送达
	MsgRematchDeclined      MessageType = "rematch_declined"       // 对方拒绝重赛
	MsgRematchRequestFailed MessageType = "rematch_request_failed" // 重赛请求失败

	// 查询结果
	MsgStatsResult       MessageType = "stats_result"       // 个人战绩
	MsgLeaderboardResult MessageType = "leaderboard_result" // 排行榜
	MsgOnlineCount       MessageType = "online_count"       // 在线人数

	// 错误
	MsgError MessageType = "error" // 错误消息
)

// --- 客户端请求 Payloads ---

// FindMatchPayload 匹配请求
type FindMatchPayload struct {
	MinutesPerPlayer int `json:"minutes_per_player,omitempty"` // 每方总时长（分钟），0 用默认值
	IncrementSeconds int `json:"increment_seconds,omitempty"`  // 每步加秒
}

// MakeMovePayload 落子请求
type MakeMovePayload struct {
	SessionID string `json:"session_id"`
	Row       int    `json:"row"`
	Col       int    `json:"col"`
}

// GameActionPayload 对局内操作的通用请求（认输、和棋、计时同步、重赛）
type GameActionPayload struct {
	SessionID string `json:"session_id"`
}

// JoinRoomPayload 加入房间请求
type JoinRoomPayload struct {
	RoomCode string `json:"room_code"`
}

// RespondRematchPayload 回应重赛请求
type RespondRematchPayload struct {
	SessionID string `json:"session_id"`
	Accept    bool   `json:"accept"`
}

// --- 服务端响应 Payloads ---

// PlayerInfo 玩家信息
type PlayerInfo struct {
	Name  string       `json:"name"`
	Color engine.Color `json:"color"`
}

// TimerState 双方剩余时间快照
type TimerState struct {
	WhiteMs int64        `json:"white_ms"`
	BlackMs int64        `json:"black_ms"`
	Running engine.Color `json:"running,omitempty"` // 当前走时方，对局结束后为空
}

// GameStartPayload 对局开始通知
type GameStartPayload struct {
	SessionID string       `json:"session_id"`
	Color     engine.Color `json:"color"` // 收信方执子颜色
	Players   []PlayerInfo `json:"players"`
	Timer     TimerState   `json:"timer"`
	Turn      engine.Color `json:"turn"` // 先手
}

// MoveUpdatePayload 落子结算广播
type MoveUpdatePayload struct {
	Row       int               `json:"row"`
	Col       int               `json:"col"`
	Color     engine.Color      `json:"color"`
	Lines     int               `json:"lines"`                 // 同时完成的连线数
	Rank      engine.MarkerRank `json:"marker_rank,omitempty"` // 形成的标记等级
	Removed   []engine.Coord    `json:"removed,omitempty"`     // 被吃掉的格子
	Board     engine.Board      `json:"board"`                 // 结算后的完整棋盘
	Turn      engine.Color      `json:"turn"`                  // 下一手
	Scores    map[string]int    `json:"scores"`                // 双方标记分
	GameOver  bool              `json:"game_over"`             // 本手是否终局
	Winner    engine.Color      `json:"winner,omitempty"`      // 终局时的胜方，平局为空
	WinLine   []engine.Coord    `json:"win_line,omitempty"`    // 获胜标记连线
	Timer     TimerState        `json:"timer"`
	Timestamp int64             `json:"timestamp"` // 服务器毫秒时间戳
}

// TimerUpdatePayload 计时心跳广播
type TimerUpdatePayload struct {
	Timer     TimerState `json:"timer"`
	Timestamp int64      `json:"timestamp"` // 服务器毫秒时间戳
}

// GameEndPayload 对局结束通知
type GameEndPayload struct {
	Reason  string         `json:"reason"`             // win/timeout/resignation/disconnection/no_moves/draw_agreed
	Winner  engine.Color   `json:"winner,omitempty"`   // 平局时为空
	WinLine []engine.Coord `json:"win_line,omitempty"` // 获胜标记连线
	Scores  map[string]int `json:"scores,omitempty"`   // 无子可落终局时的标记分
	Timer   TimerState     `json:"timer"`
}

// DrawOfferedPayload 对方提和通知
type DrawOfferedPayload struct {
	From engine.Color `json:"from"`
}

// RoomCreatedPayload 房间创建成功响应
type RoomCreatedPayload struct {
	RoomCode string `json:"room_code"`
}

// RoomJoinedPayload 加入房间成功响应（广播给双方）
type RoomJoinedPayload struct {
	RoomCode  string `json:"room_code"`
	HostName  string `json:"host_name"`
	GuestName string `json:"guest_name"`
}

// RoomClosedPayload 房间关闭通知
type RoomClosedPayload struct {
	RoomCode string `json:"room_code"`
	Reason   string `json:"reason"`
}

// GuestLeftPayload 访客离开通知
type GuestLeftPayload struct {
	RoomCode string `json:"room_code"`
}

// RematchRequestedPayload 对方请求重赛通知
type RematchRequestedPayload struct {
	From string `json:"from"` // 请求方昵称
}

// RematchFailedPayload 重赛请求失败通知
type RematchFailedPayload struct {
	Reason string `json:"reason"`
}

// 重赛失败原因
const (
	RematchSessionNotFound     = "session_not_found"
	RematchSessionNotFinished  = "session_not_finished"
	RematchNotAParticipant     = "not_a_participant"
	RematchNoPendingRequest    = "no_pending_request"
	RematchOpponentUnreachable = "opponent_unreachable"
)

// StatsResultPayload 个人战绩
type StatsResultPayload struct {
	Name   string `json:"name"`
	Wins   int    `json:"wins"`
	Losses int    `json:"losses"`
	Draws  int    `json:"draws"`
	Score  int    `json:"score"`
}

// LeaderboardEntry 排行榜条目
type LeaderboardEntry struct {
	Rank  int    `json:"rank"`
	Name  string `json:"name"`
	Score int    `json:"score"`
}

// LeaderboardResultPayload 排行榜
type LeaderboardResultPayload struct {
	Entries []LeaderboardEntry `json:"entries"`
}

// OnlineCountPayload 在线人数
type OnlineCountPayload struct {
	Count int `json:"count"`
}

// ErrorPayload 错误响应
type ErrorPayload struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// --- 错误码 ---
const (
	ErrCodeUnknown     = 1000
	ErrCodeInvalidMsg  = 1001
	ErrCodeMaintenance = 1002

	ErrCodeRoomNotFound     = 2001
	ErrCodeRoomNotAvailable = 2002
	ErrCodeRoomFull         = 2003
	ErrCodeSelfJoin         = 2004
	ErrCodeNotInRoom        = 2005
	ErrCodeNotHost          = 2006
	ErrCodeRoomNotReady     = 2007

	ErrCodeNoActiveGame  = 3001
	ErrCodeNotYourTurn   = 3002
	ErrCodeIllegalMove   = 3003
	ErrCodeGameFinished  = 3004
	ErrCodeNoPendingDraw = 3005
	ErrCodeAlreadyInGame = 3006
)

// ErrorMessages 错误码对应的消息
var ErrorMessages = map[int]string{
	ErrCodeUnknown:     "未知错误",
	ErrCodeInvalidMsg:  "无效的消息格式",
	ErrCodeMaintenance: "服务器维护中，暂不接受新对局",

	ErrCodeRoomNotFound:     "房间不存在",
	ErrCodeRoomNotAvailable: "房间已不可加入",
	ErrCodeRoomFull:         "房间已满",
	ErrCodeSelfJoin:         "不能加入自己创建的房间",
	ErrCodeNotInRoom:        "您不在房间中",
	ErrCodeNotHost:          "只有房主可以开始游戏",
	ErrCodeRoomNotReady:     "房间人数不足",

	ErrCodeNoActiveGame:  "没有进行中的对局",
	ErrCodeNotYourTurn:   "还没轮到您",
	ErrCodeIllegalMove:   "无效的落子",
	ErrCodeGameFinished:  "对局已经结束",
	ErrCodeNoPendingDraw: "没有待处理的和棋请求",
	ErrCodeAlreadyInGame: "您已在对局或队列中",
}
