package game

import (
	"log"
	"sync"

	"github.com/benbjohnson/clock"

	"github.com/palemoky/migoyugo-server/internal/network/server/game/session"
	"github.com/palemoky/migoyugo-server/internal/network/server/types"
	"github.com/palemoky/migoyugo-server/internal/protocol"
)

// 匹配分组：访客只和访客匹配，注册用户只和注册用户匹配
const (
	categoryGuest  = "guest"
	categoryMember = "member"
)

// waitingEntry 队列中的等待者，携带其请求的计时设置
type waitingEntry struct {
	client   types.ClientInterface
	settings session.TimerSettings
}

// Matcher 匹配系统。按分组先进先出
type Matcher struct {
	server   types.ServerContext
	sessions *session.Manager
	clk      clock.Clock

	mu     sync.Mutex
	queues map[string][]*waitingEntry
}

// NewMatcher 创建匹配器
func NewMatcher(s types.ServerContext, sessions *session.Manager, clk clock.Clock) *Matcher {
	return &Matcher{
		server:   s,
		sessions: sessions,
		clk:      clk,
		queues:   make(map[string][]*waitingEntry),
	}
}

func category(client types.ClientInterface) string {
	if client.IsGuest() {
		return categoryGuest
	}
	return categoryMember
}

// Enqueue 加入匹配队列。同组有等待者则立即开局：
// 等待者执白，后来者执黑，计时设置取等待者的
func (m *Matcher) Enqueue(client types.ClientInterface, settings session.TimerSettings) {
	m.mu.Lock()

	cat := category(client)

	// 已在队列中则忽略
	for _, e := range m.queues[cat] {
		if e.client.GetID() == client.GetID() {
			m.mu.Unlock()
			return
		}
	}

	queue := m.queues[cat]
	if len(queue) > 0 {
		opponent := queue[0]
		m.queues[cat] = queue[1:]
		m.mu.Unlock()

		m.startMatch(opponent, client)
		return
	}

	m.queues[cat] = append(queue, &waitingEntry{client: client, settings: settings})
	m.mu.Unlock()

	client.SendMessage(protocol.MustNewMessage(protocol.MsgWaitingForOpponent, nil))
	log.Printf("🔍 玩家 %s 加入匹配队列（%s）", client.GetName(), cat)
}

// Remove 离开匹配队列。不在队列时为无操作
func (m *Matcher) Remove(client types.ClientInterface) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cat := category(client)
	for i, e := range m.queues[cat] {
		if e.client.GetID() == client.GetID() {
			m.queues[cat] = append(m.queues[cat][:i], m.queues[cat][i+1:]...)
			log.Printf("🔍 玩家 %s 离开匹配队列", client.GetName())
			return
		}
	}
}

// Cancel 取消匹配并回执。幂等
func (m *Matcher) Cancel(client types.ClientInterface) {
	m.Remove(client)
	client.SendMessage(protocol.MustNewMessage(protocol.MsgMatchCancelled, nil))
}

// startMatch 等待者执白、后来者执黑开新对局
func (m *Matcher) startMatch(waiting *waitingEntry, newcomer types.ClientInterface) {
	white := &session.Player{
		ConnID:  waiting.client.GetID(),
		UserID:  waiting.client.GetUserID(),
		Name:    waiting.client.GetName(),
		IsGuest: waiting.client.IsGuest(),
	}
	black := &session.Player{
		ConnID:  newcomer.GetID(),
		UserID:  newcomer.GetUserID(),
		Name:    newcomer.GetName(),
		IsGuest: newcomer.IsGuest(),
	}

	sess := session.New(m.server, m.clk, white, black, waiting.settings, "")
	m.sessions.Add(sess)
	sess.Start()

	log.Printf("🎮 匹配成功：%s(白) vs %s(黑)", white.Name, black.Name)
}

// QueueLength 某分组的队列长度
func (m *Matcher) QueueLength(cat string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queues[cat])
}
