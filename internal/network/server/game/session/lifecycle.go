package session

import (
	"log"

	"github.com/palemoky/migoyugo-server/internal/engine"
	"github.com/palemoky/migoyugo-server/internal/network/server/types"
	"github.com/palemoky/migoyugo-server/internal/protocol"
)

// HandleMove 处理落子：校验、结算、计时、广播，必要时终局
func (s *Session) HandleMove(connID string, row, col int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	color, ok := s.colorOfLocked(connID)
	if !ok {
		return ErrNoActiveGame
	}
	if s.status != StatusActive {
		return ErrGameFinished
	}
	if color != s.turn {
		return ErrNotYourTurn
	}

	res, ok := s.board.Apply(row, col, color)
	if !ok {
		return ErrIllegalMove
	}
	s.moveLog = append(s.moveLog, Move{Row: row, Col: col, Color: color, Lines: res.Lines})
	s.drawOffer = "" // 落子使未答复的提和失效

	s.chargeMoverLocked(color)

	if res.WinLine == nil {
		s.turn = color.Opponent()
	}

	// 本手是否终局，及终局归属
	gameOver := false
	var winner engine.Color
	switch {
	case res.WinLine != nil:
		gameOver = true
		winner = color
	case !s.board.HasLegalMoves(s.turn):
		gameOver = true
		whiteScore := s.board.Score(engine.White)
		blackScore := s.board.Score(engine.Black)
		if whiteScore > blackScore {
			winner = engine.White
		} else if blackScore > whiteScore {
			winner = engine.Black
		}
	}

	s.broadcastLocked(protocol.MustNewMessage(protocol.MsgMoveUpdate, protocol.MoveUpdatePayload{
		Row:       row,
		Col:       col,
		Color:     color,
		Lines:     res.Lines,
		Rank:      res.Rank,
		Removed:   res.Removed,
		Board:     s.board,
		Turn:      s.turn,
		Scores:    s.scoresLocked(),
		GameOver:  gameOver,
		Winner:    winner,
		WinLine:   res.WinLine,
		Timer:     s.timerStateLocked(),
		Timestamp: s.clk.Now().UnixMilli(),
	}))

	switch {
	case res.WinLine != nil:
		s.endLocked(ReasonWin, color, res.WinLine)
	case gameOver:
		s.endLocked(ReasonNoMoves, winner, nil)
	default:
		s.startClockLocked()
	}

	return nil
}

// Moves 按落子顺序返回棋谱快照
func (s *Session) Moves() []Move {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Move, len(s.moveLog))
	copy(out, s.moveLog)
	return out
}

// HandleResign 认输
func (s *Session) HandleResign(connID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	color, ok := s.colorOfLocked(connID)
	if !ok {
		return ErrNoActiveGame
	}
	if s.status != StatusActive {
		return ErrGameFinished
	}

	s.endLocked(ReasonResign, color.Opponent(), nil)
	return nil
}

// HandleDrawOffer 向对方提和
func (s *Session) HandleDrawOffer(connID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	color, ok := s.colorOfLocked(connID)
	if !ok {
		return ErrNoActiveGame
	}
	if s.status != StatusActive {
		return ErrGameFinished
	}

	s.drawOffer = color
	s.sendToLocked(s.players[color.Opponent()], protocol.MustNewMessage(protocol.MsgDrawOffered, protocol.DrawOfferedPayload{
		From: color,
	}))
	return nil
}

// HandleDrawAccept 接受对方提和，对局以和棋结束
func (s *Session) HandleDrawAccept(connID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	color, ok := s.colorOfLocked(connID)
	if !ok {
		return ErrNoActiveGame
	}
	if s.status != StatusActive {
		return ErrGameFinished
	}
	if s.drawOffer == "" || s.drawOffer != color.Opponent() {
		return ErrNoPendingDraw
	}

	s.endLocked(ReasonDrawAgreed, "", nil)
	return nil
}

// HandleDrawDecline 拒绝对方提和
func (s *Session) HandleDrawDecline(connID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	color, ok := s.colorOfLocked(connID)
	if !ok {
		return ErrNoActiveGame
	}
	if s.drawOffer == "" || s.drawOffer != color.Opponent() {
		return ErrNoPendingDraw
	}

	s.drawOffer = ""
	s.sendToLocked(s.players[color.Opponent()], protocol.MustNewMessage(protocol.MsgDrawDeclined, nil))
	return nil
}

// HandleDisconnect 参与者断线。进行中的对局立即判负
func (s *Session) HandleDisconnect(connID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	color, ok := s.colorOfLocked(connID)
	if !ok {
		return
	}

	if s.status == StatusActive {
		// 先记断线时刻，终局前的快速重连据此补扣
		s.disconnectAt = s.clk.Now()
		s.stopClockLocked()
		s.endLocked(ReasonDisconnect, color.Opponent(), nil)
		log.Printf("🔌 对局 %s: %s 断线判负", s.ID, s.players[color].Name)
	}
}

// Abandoned 对局已结束且双方连接都不可达时返回 true，
// 此时会话不再可能被重赛复用，注册表可以回收
func (s *Session) Abandoned() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != StatusFinished {
		return false
	}
	for _, p := range s.players {
		if s.resolveLocked(p) != nil {
			return false
		}
	}
	return true
}

// RequestRematch 请求重赛。返回空串表示请求已送达，否则为失败原因
func (s *Session) RequestRematch(connID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	color, ok := s.participantLocked(connID)
	if !ok {
		return protocol.RematchNotAParticipant
	}
	if s.status != StatusFinished {
		return protocol.RematchSessionNotFinished
	}

	oppClient := s.resolveLocked(s.players[color.Opponent()])
	if oppClient == nil {
		return protocol.RematchOpponentUnreachable
	}

	s.rematchWant[color] = true

	oppClient.SendMessage(protocol.MustNewMessage(protocol.MsgRematchRequested, protocol.RematchRequestedPayload{
		From: s.players[color].Name,
	}))
	s.sendToLocked(s.players[color], protocol.MustNewMessage(protocol.MsgRematchRequestSent, nil))
	return ""
}

// participantLocked 识别连接归属的一方。连接 ID 不再匹配时，
// 注册用户按用户 ID 归位并刷新连接 ID（断线重连后的新连接）
func (s *Session) participantLocked(connID string) (engine.Color, bool) {
	if color, ok := s.colorOfLocked(connID); ok {
		return color, true
	}
	if client := s.server.GetClientByID(connID); client != nil && client.GetUserID() != "" {
		for color, p := range s.players {
			if p.UserID == client.GetUserID() {
				p.ConnID = connID
				return color, true
			}
		}
	}
	return "", false
}

// resolveLocked 按实时身份解析玩家连接：优先当前连接 ID，
// 注册用户回退到用户 ID 查找并刷新连接 ID
func (s *Session) resolveLocked(p *Player) types.ClientInterface {
	if client := s.server.GetClientByID(p.ConnID); client != nil {
		return client
	}
	if p.UserID != "" {
		if client := s.server.GetClientByUserID(p.UserID); client != nil {
			p.ConnID = client.GetID()
			return client
		}
	}
	return nil
}

// RespondRematch 回应重赛请求。接受时交换颜色开新对局并注销旧会话。
// 返回新会话（接受成功时）和失败原因（失败时）
func (m *Manager) RespondRematch(s *Session, connID string, accept bool) (*Session, string) {
	s.mu.Lock()

	color, ok := s.participantLocked(connID)
	if !ok {
		s.mu.Unlock()
		return nil, protocol.RematchNotAParticipant
	}
	if s.status != StatusFinished {
		s.mu.Unlock()
		return nil, protocol.RematchSessionNotFinished
	}
	opp := color.Opponent()
	if !s.rematchWant[opp] {
		s.mu.Unlock()
		return nil, protocol.RematchNoPendingRequest
	}

	if !accept {
		s.rematchWant[opp] = false
		s.sendToLocked(s.players[opp], protocol.MustNewMessage(protocol.MsgRematchDeclined, nil))
		s.mu.Unlock()
		return nil, ""
	}

	// 按实时身份重新解析双方连接
	if s.resolveLocked(s.players[color]) == nil || s.resolveLocked(s.players[opp]) == nil {
		s.mu.Unlock()
		return nil, protocol.RematchOpponentUnreachable
	}

	// 交换颜色，继承计时设置
	oldWhite := *s.players[engine.White]
	oldBlack := *s.players[engine.Black]
	fresh := New(s.server, s.clk, &oldBlack, &oldWhite, s.settings, s.RoomCode)
	s.mu.Unlock()

	m.Replace(s, fresh)
	fresh.Start()

	log.Printf("🔄 重赛开始 %s（原对局 %s）", fresh.ID, s.ID)
	return fresh, ""
}
