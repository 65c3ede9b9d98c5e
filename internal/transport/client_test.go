package transport

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/uno-arena/internal/protocol"
	"github.com/palemoky/uno-arena/internal/protocol/codec"
)

var upgrader = websocket.Upgrader{}

func wsURL(s *httptest.Server) string {
	return "ws" + strings.TrimPrefix(s.URL, "http")
}

func echoHandler(w http.ResponseWriter, r *http.Request) {
	c, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer c.Close()
	for {
		mt, message, err := c.ReadMessage()
		if err != nil {
			break
		}
		_ = c.WriteMessage(mt, message)
	}
}

func writeMsg(t *testing.T, c *websocket.Conn, msgType protocol.MessageType, payload any) {
	t.Helper()
	data, err := codec.EncodePayload(msgType, payload)
	require.NoError(t, err)
	require.NoError(t, c.WriteMessage(websocket.BinaryMessage, data))
}

func TestClient_ConnectAndSend(t *testing.T) {
	t.Parallel()

	s := httptest.NewServer(http.HandlerFunc(echoHandler))
	defer s.Close()

	client := NewClient(wsURL(s))
	require.NoError(t, client.Connect())
	defer client.Close()
	assert.True(t, client.IsConnected())

	require.NoError(t, client.PlayCard("r1", 2, "red"))

	msg, err := client.ReceiveWithTimeout(time.Second)
	require.NoError(t, err)
	require.Equal(t, protocol.MsgPlayCard, msg.Type)
	p, err := protocol.ParsePayload[protocol.PlayCardPayload](msg)
	require.NoError(t, err)
	assert.Equal(t, "r1", p.RoomID)
	assert.Equal(t, 2, p.CardIndex)
	assert.Equal(t, "red", p.ChosenColor)
}

func TestClient_PongUpdatesLatency(t *testing.T) {
	t.Parallel()

	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer c.Close()
		writeMsg(t, c, protocol.MsgPong, protocol.PongPayload{ClientTimestamp: time.Now().Add(-50 * time.Millisecond).UnixMilli()})
		_, _, _ = c.ReadMessage()
	}))
	defer s.Close()

	client := NewClient(wsURL(s))
	updated := make(chan int64, 1)
	client.OnLatencyUpdate = func(ms int64) { updated <- ms }
	require.NoError(t, client.Connect())
	defer client.Close()

	select {
	case ms := <-updated:
		assert.GreaterOrEqual(t, ms, int64(50))
		assert.Equal(t, ms, client.GetLatency())
	case <-time.After(2 * time.Second):
		t.Fatal("no latency update")
	}
}

func TestClient_SendAfterClose(t *testing.T) {
	t.Parallel()

	s := httptest.NewServer(http.HandlerFunc(echoHandler))
	defer s.Close()

	client := NewClient(wsURL(s))
	require.NoError(t, client.Connect())
	client.Close()
	client.Close()

	assert.False(t, client.IsConnected())
	assert.ErrorIs(t, client.Ping(), ErrClosed)
	_, err := client.Receive()
	assert.ErrorIs(t, err, ErrClosed)
}

func TestClient_ReconnectNeedsToken(t *testing.T) {
	t.Parallel()

	client := NewClient("ws://127.0.0.1:1")
	assert.ErrorIs(t, client.Reconnect(), ErrNoToken)
}

// 第一条连接发身份后断开，第二条连接必须带着令牌回来
func TestClient_ReconnectResumesIdentity(t *testing.T) {
	t.Parallel()

	var (
		mu    sync.Mutex
		conns int
		token = make(chan string, 1)
	)
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer c.Close()

		mu.Lock()
		conns++
		n := conns
		mu.Unlock()

		if n == 1 {
			writeMsg(t, c, protocol.MsgConnected, protocol.ConnectedPayload{PlayerID: "p1", PlayerName: "alice", ReconnectToken: "tok-1"})
			time.Sleep(50 * time.Millisecond)
			return
		}

		// 新连接先收到临时身份
		writeMsg(t, c, protocol.MsgConnected, protocol.ConnectedPayload{PlayerID: "tmp", PlayerName: "tmp", ReconnectToken: "tok-tmp"})
		for {
			_, data, err := c.ReadMessage()
			if err != nil {
				return
			}
			msg, err := codec.Decode(data)
			if err != nil || msg.Type != protocol.MsgReconnect {
				continue
			}
			p, _ := protocol.ParsePayload[protocol.ReconnectPayload](msg)
			token <- p.Token
			writeMsg(t, c, protocol.MsgReconnected, protocol.ReconnectedPayload{PlayerID: "p1", PlayerName: "alice", RoomID: "r1"})
		}
	}))
	defer s.Close()

	client := NewClient(wsURL(s))
	reconnected := make(chan struct{})
	client.OnReconnect = func() { close(reconnected) }
	require.NoError(t, client.Connect())
	defer client.Close()

	select {
	case got := <-token:
		assert.Equal(t, "tok-1", got)
	case <-time.After(5 * time.Second):
		t.Fatal("client never sent reconnect")
	}
	select {
	case <-reconnected:
	case <-time.After(2 * time.Second):
		t.Fatal("no reconnected callback")
	}

	id, name := client.Identity()
	assert.Equal(t, "p1", id)
	assert.Equal(t, "alice", name)
	assert.Equal(t, "tok-1", client.ReconnectToken())
	assert.False(t, client.IsReconnecting())
}

func TestClient_SavedTokenRejectedFallsBackToNewIdentity(t *testing.T) {
	t.Parallel()

	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer c.Close()
		writeMsg(t, c, protocol.MsgConnected, protocol.ConnectedPayload{PlayerID: "fresh", PlayerName: "bob", ReconnectToken: "tok-new"})
		for {
			_, data, err := c.ReadMessage()
			if err != nil {
				return
			}
			if msg, err := codec.Decode(data); err == nil && msg.Type == protocol.MsgReconnect {
				_ = c.WriteMessage(websocket.BinaryMessage, mustEncode(t, protocol.NewErrorMessage(protocol.ErrCodeUnauthorized)))
			}
		}
	}))
	defer s.Close()

	client := NewClient(wsURL(s))
	client.SetReconnectToken("expired")
	require.NoError(t, client.Connect())
	defer client.Close()

	// 先收到临时身份，再收到错误
	msg, err := client.ReceiveWithTimeout(2 * time.Second)
	require.NoError(t, err)
	assert.Equal(t, protocol.MsgConnected, msg.Type)
	msg, err = client.ReceiveWithTimeout(2 * time.Second)
	require.NoError(t, err)
	assert.Equal(t, protocol.MsgError, msg.Type)

	id, _ := client.Identity()
	assert.Equal(t, "fresh", id)
	assert.Equal(t, "tok-new", client.ReconnectToken())
	assert.False(t, client.IsReconnecting())
}

func mustEncode(t *testing.T, msg *protocol.Message) []byte {
	t.Helper()
	data, err := codec.Encode(msg)
	require.NoError(t, err)
	return data
}
