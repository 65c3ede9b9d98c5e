package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/uno-arena/internal/config"
	"github.com/palemoky/uno-arena/internal/game/room"
	"github.com/palemoky/uno-arena/internal/game/settlement"
	"github.com/palemoky/uno-arena/internal/hub"
	"github.com/palemoky/uno-arena/internal/ledger"
	"github.com/palemoky/uno-arena/internal/protocol"
	"github.com/palemoky/uno-arena/internal/protocol/codec"
	"github.com/palemoky/uno-arena/internal/server/session"
)

type testServer struct {
	srv *Server
	ts  *httptest.Server
	rm  *room.RoomManager
}

func newTestServer(t *testing.T, mutate func(cfg *config.Config)) *testServer {
	t.Helper()
	cfg := config.Default()
	if mutate != nil {
		mutate(cfg)
	}

	h := hub.New()
	coord := settlement.NewCoordinator(settlement.Config{Deadline: time.Second, FeeBps: 500}, ledger.NewMemory(), nil)
	coord.AddListener(h)
	rm := room.NewRoomManager(room.Config{TurnTimeout: time.Hour}, room.Deps{Notifier: h, Settler: coord})
	coord.AttachRooms(rm)

	srv := NewServer(cfg, Deps{
		Rooms:       rm,
		Settlements: coord,
		Hub:         h,
		Tokens:      session.NewTokenIssuer("test-secret", time.Hour),
	})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		srv.rateLimiter.Close()
		srv.sessionManager.Close()
		rm.Close()
		coord.Wait()
		coord.Close()
	})
	return &testServer{srv: srv, ts: ts, rm: rm}
}

func (s *testServer) wsURL() string {
	return "ws" + strings.TrimPrefix(s.ts.URL, "http") + "/ws"
}

func (s *testServer) dial(t *testing.T) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(s.wsURL(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, msgType protocol.MessageType, payload any) {
	t.Helper()
	data, err := codec.EncodePayload(msgType, payload)
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, data))
}

// expect 读到指定类型的消息为止，中间的推送直接跳过
func expect(t *testing.T, conn *websocket.Conn, msgType protocol.MessageType) *protocol.Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	for {
		_, data, err := conn.ReadMessage()
		require.NoError(t, err, "waiting for %s", msgType)
		msg, err := codec.Decode(data)
		require.NoError(t, err)
		if msg.Type == msgType {
			return msg
		}
		require.NotEqual(t, protocol.MsgError, msg.Type, "unexpected error while waiting for %s: %s", msgType, msg.Payload)
	}
}

func payloadOf[T any](t *testing.T, msg *protocol.Message) *T {
	t.Helper()
	p, err := protocol.ParsePayload[T](msg)
	require.NoError(t, err)
	return p
}

func TestServer_Health(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, nil)
	resp, err := http.Get(s.ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServer_MatchOverWebSocket(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, nil)
	alice, bob := s.dial(t), s.dial(t)
	aliceID := payloadOf[protocol.ConnectedPayload](t, expect(t, alice, protocol.MsgConnected)).PlayerID
	bobID := payloadOf[protocol.ConnectedPayload](t, expect(t, bob, protocol.MsgConnected)).PlayerID
	assert.NotEqual(t, aliceID, bobID)

	send(t, alice, protocol.MsgPing, protocol.PingPayload{Timestamp: 42})
	pong := payloadOf[protocol.PongPayload](t, expect(t, alice, protocol.MsgPong))
	assert.Equal(t, int64(42), pong.ClientTimestamp)

	send(t, alice, protocol.MsgCreateRoom, protocol.CreateRoomPayload{Capacity: 2, EntryFee: 100})
	created := payloadOf[protocol.RoomEventPayload](t, expect(t, alice, protocol.MsgRoomCreated))
	roomID := created.Room.RoomID

	send(t, bob, protocol.MsgJoinRoom, protocol.RoomPayload{RoomID: roomID})
	expect(t, bob, protocol.MsgRoomJoined)
	joined := payloadOf[protocol.RoomEventPayload](t, expect(t, alice, protocol.MsgPlayerJoined))
	assert.Equal(t, bobID, joined.PlayerID)

	send(t, alice, protocol.MsgStartMatch, protocol.RoomPayload{RoomID: roomID})
	for _, conn := range []*websocket.Conn{alice, bob} {
		state := payloadOf[protocol.StateChangedPayload](t, expect(t, conn, protocol.MsgStateChanged))
		assert.Equal(t, roomID, state.RoomID)
		assert.Len(t, state.Hand, 7)
	}
	assert.Equal(t, 1, s.rm.ActiveMatchCount())
}

func TestServer_ReconnectRestoresRoom(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, nil)
	first := s.dial(t)
	connected := payloadOf[protocol.ConnectedPayload](t, expect(t, first, protocol.MsgConnected))

	send(t, first, protocol.MsgCreateRoom, protocol.CreateRoomPayload{Capacity: 3, EntryFee: 50})
	roomID := payloadOf[protocol.RoomEventPayload](t, expect(t, first, protocol.MsgRoomCreated)).Room.RoomID
	require.NoError(t, first.Close())

	second := s.dial(t)
	expect(t, second, protocol.MsgConnected)
	send(t, second, protocol.MsgReconnect, protocol.ReconnectPayload{Token: connected.ReconnectToken})
	resumed := payloadOf[protocol.ReconnectedPayload](t, expect(t, second, protocol.MsgReconnected))
	assert.Equal(t, connected.PlayerID, resumed.PlayerID)
	assert.Equal(t, roomID, resumed.RoomID)

	assert.Eventually(t, func() bool {
		return s.srv.GetClientByID(connected.PlayerID) != nil && s.srv.GetOnlineCount() == 1
	}, 2*time.Second, 20*time.Millisecond)
}

func TestServer_ReconnectRejectsBadToken(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, nil)
	conn := s.dial(t)
	expect(t, conn, protocol.MsgConnected)

	send(t, conn, protocol.MsgReconnect, protocol.ReconnectPayload{Token: "forged"})
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	msg, err := codec.Decode(data)
	require.NoError(t, err)
	require.Equal(t, protocol.MsgError, msg.Type)
	assert.Equal(t, protocol.ErrCodeUnauthorized, payloadOf[protocol.ErrorPayload](t, msg).Code)
}

func TestServer_MaintenanceRejectsConnections(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, nil)
	s.srv.EnterMaintenanceMode()
	assert.True(t, s.srv.IsMaintenanceMode())

	_, resp, err := websocket.DefaultDialer.Dial(s.wsURL(), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestServer_OriginRejected(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, func(cfg *config.Config) {
		cfg.Security.AllowedOrigins = []string{"https://uno.example"}
	})
	header := http.Header{"Origin": []string{"https://evil.example"}}
	_, resp, err := websocket.DefaultDialer.Dial(s.wsURL(), header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestServer_RESTMounted(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, nil)
	resp, err := http.Get(s.ts.URL + "/api/rooms")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(s.ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode, "metrics disabled by default")
}
