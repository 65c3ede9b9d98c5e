package codec

import (
	"encoding/json"
	"errors"
	"fmt"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/palemoky/uno-arena/internal/protocol"
)

const (
	fieldType    = "type"
	fieldPayload = "payload"
)

var ErrMissingType = errors.New("codec: envelope has no type")

// Encode 将消息编码为 Protobuf 二进制帧。
// 信封是一个 google.protobuf.Struct: {type: string, payload: Value}
func Encode(m *protocol.Message) ([]byte, error) {
	env := getEnvelope()
	defer putEnvelope(env)

	env.Fields = map[string]*structpb.Value{
		fieldType: structpb.NewStringValue(string(m.Type)),
	}
	if len(m.Payload) > 0 {
		var raw any
		if err := json.Unmarshal(m.Payload, &raw); err != nil {
			return nil, fmt.Errorf("codec: payload is not valid json: %w", err)
		}
		v, err := structpb.NewValue(raw)
		if err != nil {
			return nil, fmt.Errorf("codec: payload: %w", err)
		}
		env.Fields[fieldPayload] = v
	}
	return proto.Marshal(env)
}

// Decode 从 Protobuf 字节解码消息
// 注意: 使用完毕后应调用 PutMessage 归还对象到池
func Decode(data []byte) (*protocol.Message, error) {
	env := getEnvelope()
	defer putEnvelope(env)

	if err := proto.Unmarshal(data, env); err != nil {
		return nil, err
	}
	t := env.GetFields()[fieldType].GetStringValue()
	if t == "" {
		return nil, ErrMissingType
	}

	msg := GetMessage()
	msg.Type = protocol.MessageType(t)
	if p, ok := env.GetFields()[fieldPayload]; ok {
		// AsInterface 后再交给 encoding/json，整数不会被写成指数形式
		payload, err := json.Marshal(p.AsInterface())
		if err != nil {
			PutMessage(msg)
			return nil, err
		}
		msg.Payload = payload
	}
	return msg, nil
}

// EncodePayload 创建消息并编码，发送方便捷函数
func EncodePayload(msgType protocol.MessageType, payload any) ([]byte, error) {
	msg, err := protocol.NewMessage(msgType, payload)
	if err != nil {
		return nil, err
	}
	return Encode(msg)
}
