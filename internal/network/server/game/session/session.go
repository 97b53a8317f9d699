package session

import (
	"context"
	"log"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"

	"github.com/palemoky/migoyugo-server/internal/engine"
	"github.com/palemoky/migoyugo-server/internal/network/server/types"
	"github.com/palemoky/migoyugo-server/internal/protocol"
)

// New 创建对局。白方先行
func New(server types.ServerContext, clk clock.Clock, white, black *Player, settings TimerSettings, roomCode string) *Session {
	return &Session{
		ID:       uuid.New().String(),
		RoomCode: roomCode,
		server:   server,
		clk:      clk,
		status:   StatusActive,
		board:    engine.NewBoard(),
		turn:     engine.White,
		players: map[engine.Color]*Player{
			engine.White: white,
			engine.Black: black,
		},
		settings: settings,
		remaining: map[engine.Color]time.Duration{
			engine.White: settings.TimePerPlayer,
			engine.Black: settings.TimePerPlayer,
		},
		rematchWant: make(map[engine.Color]bool),
	}
}

// Start 通知双方对局开始并启动计时
func (s *Session) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	players := []protocol.PlayerInfo{
		{Name: s.players[engine.White].Name, Color: engine.White},
		{Name: s.players[engine.Black].Name, Color: engine.Black},
	}

	for color, p := range s.players {
		s.sendToLocked(p, protocol.MustNewMessage(protocol.MsgGameStart, protocol.GameStartPayload{
			SessionID: s.ID,
			Color:     color,
			Players:   players,
			Timer:     s.timerStateLocked(),
			Turn:      s.turn,
		}))
	}

	s.lastTickAt = s.clk.Now()
	s.startClockLocked()

	log.Printf("🎮 对局开始 %s: %s(白) vs %s(黑)",
		s.ID, s.players[engine.White].Name, s.players[engine.Black].Name)
}

// IsActive 对局是否进行中
func (s *Session) IsActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status == StatusActive
}

// ColorOf 连接对应的执子颜色
func (s *Session) ColorOf(connID string) (engine.Color, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.colorOfLocked(connID)
}

func (s *Session) colorOfLocked(connID string) (engine.Color, bool) {
	for color, p := range s.players {
		if p.ConnID == connID {
			return color, true
		}
	}
	return "", false
}

// PlayerNames 双方昵称（白、黑）
func (s *Session) PlayerNames() (string, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.players[engine.White].Name, s.players[engine.Black].Name
}

func (s *Session) scoresLocked() map[string]int {
	return map[string]int{
		string(engine.White): s.board.Score(engine.White),
		string(engine.Black): s.board.Score(engine.Black),
	}
}

func (s *Session) timerStateLocked() protocol.TimerState {
	st := protocol.TimerState{
		WhiteMs: s.remaining[engine.White].Milliseconds(),
		BlackMs: s.remaining[engine.Black].Milliseconds(),
	}
	if s.status == StatusActive {
		st.Running = s.turn
	}
	return st
}

// sendToLocked 按当前连接 ID 实时解析投递，连接已失效则静默丢弃
func (s *Session) sendToLocked(p *Player, msg *protocol.Message) {
	if client := s.server.GetClientByID(p.ConnID); client != nil {
		client.SendMessage(msg)
	}
}

func (s *Session) broadcastLocked(msg *protocol.Message) {
	for _, p := range s.players {
		s.sendToLocked(p, msg)
	}
}

// endLocked 结束对局：停表、广播 game_end、记录战绩
func (s *Session) endLocked(reason string, winner engine.Color, winLine []engine.Coord) {
	if s.status == StatusFinished {
		return
	}
	s.status = StatusFinished
	s.endReason = reason
	s.winner = winner
	s.drawOffer = ""
	s.stopClockLocked()

	payload := protocol.GameEndPayload{
		Reason:  reason,
		Winner:  winner,
		WinLine: winLine,
		Timer:   s.timerStateLocked(),
	}
	if reason == ReasonNoMoves {
		payload.Scores = s.scoresLocked()
	}
	s.broadcastLocked(protocol.MustNewMessage(protocol.MsgGameEnd, payload))

	log.Printf("🏁 对局结束 %s: winner=%s reason=%s moves=%d", s.ID, winner, reason, len(s.moveLog))

	s.recordResultsLocked()
}

// recordResultsLocked 记录战绩。访客（无用户 ID）不参与统计
func (s *Session) recordResultsLocked() {
	stats := s.server.GetStats()
	if stats == nil {
		return
	}

	ctx := context.Background()
	for color, p := range s.players {
		if p.UserID == "" {
			continue
		}
		outcome := types.OutcomeDraw
		switch s.winner {
		case color:
			outcome = types.OutcomeWin
		case color.Opponent():
			outcome = types.OutcomeLoss
		}
		if err := stats.RecordResult(ctx, p.UserID, p.Name, outcome); err != nil {
			log.Printf("⚠️ 记录战绩失败 %s: %v", p.Name, err)
		}
	}
}
