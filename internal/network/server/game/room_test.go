package game

import (
	"strings"
	"testing"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/migoyugo-server/internal/engine"
	"github.com/palemoky/migoyugo-server/internal/network/server/game/session"
	"github.com/palemoky/migoyugo-server/internal/protocol"
)

func newLobbyFixture() (*LobbyManager, *MockServer, *session.Manager) {
	server := NewMockServer()
	sessions := session.NewManager()
	lm := NewLobbyManager(server, sessions, testSettings(), clock.NewMock())
	return lm, server, sessions
}

func TestLobby_CreateGeneratesCode(t *testing.T) {
	lm, server, _ := newLobbyFixture()

	host := &MockClient{ID: "c1", UserID: "u1", Name: "Alice"}
	server.AddClient(host)

	lobby, err := lm.Create(host)
	require.NoError(t, err)

	assert.Len(t, lobby.Code, lobbyCodeLength)
	for _, r := range lobby.Code {
		assert.Contains(t, lobbyCodeChars, string(r))
	}
	assert.Equal(t, lobby.Code, host.GetRoom())
	assert.Equal(t, LobbyWaiting, lobby.State)
	assert.Equal(t, 1, lm.Count())
}

func TestLobby_JoinFlow(t *testing.T) {
	lm, server, _ := newLobbyFixture()

	host := &MockClient{ID: "c1", UserID: "u1", Name: "Alice"}
	guest := &MockClient{ID: "c2", UserID: "u2", Name: "Bob"}
	server.AddClient(host)
	server.AddClient(guest)

	lobby, err := lm.Create(host)
	require.NoError(t, err)

	_, err = lm.Join(guest, lobby.Code)
	require.NoError(t, err)

	assert.Equal(t, LobbyReady, lobby.State)
	assert.Equal(t, lobby.Code, guest.GetRoom())

	// 双方都收到 room_joined
	for _, c := range []*MockClient{host, guest} {
		msg := c.LastByType(protocol.MsgRoomJoined)
		require.NotNil(t, msg)
		payload, err := protocol.ParsePayload[protocol.RoomJoinedPayload](msg)
		require.NoError(t, err)
		assert.Equal(t, "Alice", payload.HostName)
		assert.Equal(t, "Bob", payload.GuestName)
	}
}

func TestLobby_JoinIsCaseInsensitive(t *testing.T) {
	lm, server, _ := newLobbyFixture()

	host := &MockClient{ID: "c1", Name: "Alice"}
	guest := &MockClient{ID: "c2", Name: "Bob"}
	server.AddClient(host)
	server.AddClient(guest)

	lobby, _ := lm.Create(host)

	_, err := lm.Join(guest, strings.ToLower(lobby.Code))
	assert.NoError(t, err)
}

func TestLobby_JoinErrors(t *testing.T) {
	lm, server, _ := newLobbyFixture()

	host := &MockClient{ID: "c1", Name: "Alice"}
	guest := &MockClient{ID: "c2", Name: "Bob"}
	third := &MockClient{ID: "c3", Name: "Carol"}
	server.AddClient(host)
	server.AddClient(guest)
	server.AddClient(third)

	lobby, _ := lm.Create(host)

	// 不存在
	_, err := lm.Join(guest, "ZZZZZZ")
	assert.ErrorIs(t, err, ErrRoomNotFound)

	// 加入自己的房间
	_, err = lm.Join(host, lobby.Code)
	assert.ErrorIs(t, err, ErrSelfJoin)

	// 已就绪的房间不可再加入
	_, err = lm.Join(guest, lobby.Code)
	require.NoError(t, err)
	_, err = lm.Join(third, lobby.Code)
	assert.ErrorIs(t, err, ErrRoomNotAvailable)
}

func TestLobby_StartGame(t *testing.T) {
	lm, server, sessions := newLobbyFixture()

	host := &MockClient{ID: "c1", UserID: "u1", Name: "Alice"}
	guest := &MockClient{ID: "c2", UserID: "u2", Name: "Bob"}
	server.AddClient(host)
	server.AddClient(guest)

	lobby, _ := lm.Create(host)
	_, err := lm.Join(guest, lobby.Code)
	require.NoError(t, err)

	require.NoError(t, lm.StartGame(host))

	// 房间在开局时销毁
	assert.Nil(t, lm.Get(lobby.Code))
	assert.Empty(t, host.GetRoom())
	assert.Empty(t, guest.GetRoom())

	// 房主执白，访客执黑
	sess := sessions.GetByConn(host.ID)
	require.NotNil(t, sess)
	assert.True(t, sess.IsActive())
	assert.Equal(t, lobby.Code, sess.RoomCode)

	hp, _ := protocol.ParsePayload[protocol.GameStartPayload](host.LastByType(protocol.MsgGameStart))
	gp, _ := protocol.ParsePayload[protocol.GameStartPayload](guest.LastByType(protocol.MsgGameStart))
	assert.Equal(t, engine.White, hp.Color)
	assert.Equal(t, engine.Black, gp.Color)
}

func TestLobby_StartGameErrors(t *testing.T) {
	lm, server, _ := newLobbyFixture()

	host := &MockClient{ID: "c1", Name: "Alice"}
	guest := &MockClient{ID: "c2", Name: "Bob"}
	stranger := &MockClient{ID: "c3", Name: "Carol"}
	server.AddClient(host)
	server.AddClient(guest)
	server.AddClient(stranger)

	lobby, _ := lm.Create(host)

	// 不在房间中
	assert.ErrorIs(t, lm.StartGame(stranger), ErrNotInRoom)

	// 人数不足
	assert.ErrorIs(t, lm.StartGame(host), ErrRoomNotReady)

	_, err := lm.Join(guest, lobby.Code)
	require.NoError(t, err)

	// 访客无权开局
	assert.ErrorIs(t, lm.StartGame(guest), ErrNotHost)
}

func TestLobby_HostLeaveClosesLobby(t *testing.T) {
	lm, server, _ := newLobbyFixture()

	host := &MockClient{ID: "c1", Name: "Alice"}
	guest := &MockClient{ID: "c2", Name: "Bob"}
	server.AddClient(host)
	server.AddClient(guest)

	lobby, _ := lm.Create(host)
	_, err := lm.Join(guest, lobby.Code)
	require.NoError(t, err)

	lm.Leave(host)

	assert.Nil(t, lm.Get(lobby.Code))
	assert.Empty(t, guest.GetRoom())
	msg := guest.LastByType(protocol.MsgRoomClosed)
	require.NotNil(t, msg)
	payload, _ := protocol.ParsePayload[protocol.RoomClosedPayload](msg)
	assert.Equal(t, lobby.Code, payload.RoomCode)
}

func TestLobby_GuestLeaveResetsLobby(t *testing.T) {
	lm, server, _ := newLobbyFixture()

	host := &MockClient{ID: "c1", Name: "Alice"}
	guest := &MockClient{ID: "c2", Name: "Bob"}
	server.AddClient(host)
	server.AddClient(guest)

	lobby, _ := lm.Create(host)
	_, err := lm.Join(guest, lobby.Code)
	require.NoError(t, err)

	lm.Leave(guest)

	assert.NotNil(t, lm.Get(lobby.Code))
	assert.Equal(t, LobbyWaiting, lobby.State)
	assert.Nil(t, lobby.Guest)
	assert.NotNil(t, host.LastByType(protocol.MsgGuestLeft))

	// 房间重新可加入
	again := &MockClient{ID: "c3", Name: "Carol"}
	server.AddClient(again)
	_, err = lm.Join(again, lobby.Code)
	assert.NoError(t, err)
}

func TestLobby_LeaveIsIdempotent(t *testing.T) {
	lm, server, _ := newLobbyFixture()

	host := &MockClient{ID: "c1", Name: "Alice"}
	server.AddClient(host)

	lobby, _ := lm.Create(host)
	lm.Leave(host)
	assert.Nil(t, lm.Get(lobby.Code))

	// 再次离开、以及开局后的滞后离开，都是无操作
	lm.Leave(host)
	lm.HandleDisconnect(host)
}
