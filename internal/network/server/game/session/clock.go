package session

import (
	"log"
	"time"

	"github.com/palemoky/migoyugo-server/internal/engine"
	"github.com/palemoky/migoyugo-server/internal/protocol"
)

// 走时扣减间隔
const tickInterval = time.Second

// tickJob 一个计时任务。会话重启计时会换新任务，
// 旧任务通过身份比对自行退出，保证同一时刻最多一个任务在走时
type tickJob struct {
	stop chan struct{}
}

// startClockLocked 为当前走时方启动计时任务
func (s *Session) startClockLocked() {
	if s.status != StatusActive {
		return
	}

	job := &tickJob{stop: make(chan struct{})}
	s.tick = job
	go s.runTicker(job)
}

// stopClockLocked 停表。可重复调用
func (s *Session) stopClockLocked() {
	if s.tick != nil {
		close(s.tick.stop)
		s.tick = nil
	}
}

func (s *Session) runTicker(job *tickJob) {
	ticker := s.clk.Ticker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-job.stop:
			return
		case <-ticker.C:
			if !s.onTick(job) {
				return
			}
		}
	}
}

// onTick 每秒从走时方扣减一秒。返回 false 表示任务应退出
func (s *Session) onTick(job *tickJob) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	// 自己已被替换或对局已结束
	if s.tick != job || s.status != StatusActive {
		return false
	}

	s.lastTickAt = s.clk.Now()
	s.remaining[s.turn] -= tickInterval

	if s.remaining[s.turn] <= 0 {
		s.remaining[s.turn] = 0
		s.endLocked(ReasonTimeout, s.turn.Opponent(), nil)
		return false
	}

	s.broadcastLocked(protocol.MustNewMessage(protocol.MsgTimerUpdate, protocol.TimerUpdatePayload{
		Timer:     s.timerStateLocked(),
		Timestamp: s.lastTickAt.UnixMilli(),
	}))
	return true
}

// chargeMoverLocked 落子时的计时结算：停表，把上次扣减以来的间隙
// （上限 RestartGapCap）记到落子方头上，再加上每步加秒
func (s *Session) chargeMoverLocked(mover engine.Color) {
	s.stopClockLocked()

	gap := s.clk.Now().Sub(s.lastTickAt)
	if gap < 0 {
		gap = 0
	}
	if gap > s.settings.RestartGapCap {
		gap = s.settings.RestartGapCap
	}
	s.remaining[mover] -= gap
	if s.remaining[mover] < 0 {
		s.remaining[mover] = 0
	}

	s.remaining[mover] += s.settings.Increment
	s.lastTickAt = s.clk.Now()
}

// HandleTimerSync 应答计时同步请求。对局进行中而计时任务缺失时
// （如断线后的快速重连），先把停表期间的流逝时间记到走时方再复表。
// 补扣基准取断线时刻：会话自己记录的优先，注册用户换新连接回归时
// 退回到追踪器记录的离线时刻，都没有则用上次扣减时刻
func (s *Session) HandleTimerSync(connID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	color, ok := s.participantLocked(connID)
	if !ok {
		return
	}

	if s.status == StatusActive && s.tick == nil {
		since := s.lastTickAt
		if !s.disconnectAt.IsZero() {
			since = s.disconnectAt
		} else if tracker := s.server.GetSessionTracker(); tracker != nil {
			if p := s.players[color]; p.UserID != "" {
				if ms, ok := tracker.OfflineSince(p.UserID); ok {
					if at := time.UnixMilli(ms); at.After(since) {
						since = at
					}
					tracker.SetOnline(p.UserID)
				}
			}
		}
		elapsed := s.clk.Now().Sub(since)
		if elapsed > 0 {
			s.remaining[s.turn] -= elapsed
			if s.remaining[s.turn] < 0 {
				s.remaining[s.turn] = 0
			}
			log.Printf("⏱️ 对局 %s 补扣停表流逝 %v（%s）", s.ID, elapsed, s.turn)
		}
		s.disconnectAt = time.Time{}

		if s.remaining[s.turn] <= 0 {
			s.remaining[s.turn] = 0
			s.endLocked(ReasonTimeout, s.turn.Opponent(), nil)
		} else {
			s.lastTickAt = s.clk.Now()
			s.startClockLocked()
		}
	}

	if p, ok := s.findPlayerLocked(connID); ok {
		s.sendToLocked(p, protocol.MustNewMessage(protocol.MsgTimerSync, protocol.TimerUpdatePayload{
			Timer:     s.timerStateLocked(),
			Timestamp: s.clk.Now().UnixMilli(),
		}))
	}
}

func (s *Session) findPlayerLocked(connID string) (*Player, bool) {
	for _, p := range s.players {
		if p.ConnID == connID {
			return p, true
		}
	}
	return nil, false
}
