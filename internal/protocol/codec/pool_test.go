package codec

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMessagePool_GetPut(t *testing.T) {
	t.Parallel()

	msg := GetMessage()
	assert.NotNil(t, msg)

	msg.Type = "test"
	msg.Payload = []byte("data")
	PutMessage(msg)

	msg2 := GetMessage()
	assert.NotNil(t, msg2)
	assert.Empty(t, msg2.Type)
	assert.Nil(t, msg2.Payload)
}

func TestMessagePool_PutNil(t *testing.T) {
	t.Parallel()

	assert.NotPanics(t, func() {
		PutMessage(nil)
		putEnvelope(nil)
	})
}

func TestEnvelopePool_Reset(t *testing.T) {
	t.Parallel()

	env := getEnvelope()
	env.Fields = nil
	putEnvelope(env)

	env2 := getEnvelope()
	assert.Empty(t, env2.GetFields())
}

func TestMessagePool_Concurrent(t *testing.T) {
	t.Parallel()

	var wg sync.WaitGroup
	for range 50 {
		wg.Go(func() {
			msg := GetMessage()
			msg.Type = "ping"
			PutMessage(msg)
		})
	}
	wg.Wait()
}
