package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/palemoky/uno-arena/internal/protocol"
)

func TestEncodeDecode_PreservesPayload(t *testing.T) {
	t.Parallel()

	in := protocol.StateChangedPayload{
		RoomID:          "r1",
		Status:          "active",
		Players:         []string{"alice", "bob"},
		DiscardTop:      protocol.CardInfo{Color: "red", Rank: "5", Short: "R5"},
		Direction:       -1,
		DrawPileSize:    93,
		TurnStartedAtMs: 1760000000123,
		TurnDeadlineMs:  1760000030123,
	}
	data, err := EncodePayload(protocol.MsgStateChanged, in)
	require.NoError(t, err)

	msg, err := Decode(data)
	require.NoError(t, err)
	defer PutMessage(msg)

	assert.Equal(t, protocol.MsgStateChanged, msg.Type)
	out, err := protocol.ParsePayload[protocol.StateChangedPayload](msg)
	require.NoError(t, err)
	assert.Equal(t, in.RoomID, out.RoomID)
	assert.Equal(t, in.Players, out.Players)
	assert.Equal(t, in.DiscardTop, out.DiscardTop)
	assert.Equal(t, -1, out.Direction)
	assert.Equal(t, int64(1760000000123), out.TurnStartedAtMs)
	assert.Equal(t, int64(1760000030123), out.TurnDeadlineMs)
}

func TestEncodeDecode_NoPayload(t *testing.T) {
	t.Parallel()

	data, err := Encode(&protocol.Message{Type: protocol.MsgPing})
	require.NoError(t, err)

	msg, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, protocol.MsgPing, msg.Type)
	assert.Empty(t, msg.Payload)
}

func TestEncode_InvalidPayload(t *testing.T) {
	t.Parallel()

	_, err := Encode(&protocol.Message{Type: protocol.MsgPing, Payload: []byte("{not json")})
	assert.Error(t, err)
}

func TestDecode_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data []byte
	}{
		{"garbage", []byte{0xff, 0xff, 0xff}},
		{"missing type", mustMarshal(t, &structpb.Struct{})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Decode(tt.data)
			assert.Error(t, err)
		})
	}
}

func mustMarshal(t *testing.T, m proto.Message) []byte {
	t.Helper()
	b, err := proto.Marshal(m)
	require.NoError(t, err)
	return b
}
