package sound

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlayBeforeInitIsSilent(t *testing.T) {
	t.Parallel()

	p := NewPlayer(t.TempDir())
	assert.NotPanics(t, func() {
		p.Play(EventMyTurn)
		p.Play(Event("missing"))
		p.Close()
	})
}
