package broadcast

import (
	"context"
	"testing"
	"time"

	"github.com/rocketscienceinc/classhub-backend/testing/suite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisRelay(t *testing.T) {
	ctx, s := suite.NewRedis(t)

	// Given: two processes sharing a channel, each with one local client
	runCtx, cancel := context.WithCancel(ctx)
	t.Cleanup(cancel)

	first := NewRedisRelay(s.Logger, NewHub(s.Logger, 4), s.Redis, "test:relay")
	second := NewRedisRelay(s.Logger, NewHub(s.Logger, 4), s.Redis, "test:relay")

	for _, relay := range []*RedisRelay{first, second} {
		ready := make(chan struct{})
		go func() {
			_ = relay.Run(runCtx, ready)
		}()
		<-ready
	}

	local := first.Register("a")
	remote := second.Register("b")
	first.Subscribe("a", "chat:main")
	second.Subscribe("b", "chat:main")
	bystander := second.Register("c")

	t.Run("Room frames reach subscribers of every process", func(t *testing.T) {
		// When: the first process publishes to the room
		require.NoError(t, first.PublishRoom(ctx, "chat:main", "new-msg", map[string]string{"text": "hi"}))

		// Then: both subscribers receive it, the bystander does not
		for _, outbox := range []<-chan []byte{local, remote} {
			select {
			case frame := <-outbox:
				action, payload := decodeFrame(t, frame)
				assert.Equal(t, "new-msg", action)
				assert.Equal(t, "hi", payload["text"])
			case <-time.After(5 * time.Second):
				t.Fatal("frame was not relayed")
			}
		}
		assert.Empty(t, bystander)
	})

	t.Run("Global frames reach every client", func(t *testing.T) {
		// When: the second process publishes globally
		require.NoError(t, second.PublishAll(ctx, "reaction", map[string]string{"emoji": "x"}))

		// Then: all three clients receive it
		for _, outbox := range []<-chan []byte{local, remote, bystander} {
			select {
			case frame := <-outbox:
				action, _ := decodeFrame(t, frame)
				assert.Equal(t, "reaction", action)
			case <-time.After(5 * time.Second):
				t.Fatal("frame was not relayed")
			}
		}
	})
}
