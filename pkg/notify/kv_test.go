package notify

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReceiveChanges_ForwardsPayloads(t *testing.T) {
	ch := make(chan *redis.Message, 2)
	ch <- &redis.Message{Channel: redisChangeChannel, Payload: "origin-a"}
	ch <- &redis.Message{Channel: redisChangeChannel, Payload: "origin-b"}
	close(ch)

	var got []string
	receiveChanges(context.Background(), ch, func(origin string) {
		got = append(got, origin)
	})

	assert.Equal(t, []string{"origin-a", "origin-b"}, got)
}

func TestReceiveChanges_StopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan *redis.Message)

	done := make(chan struct{})
	go func() {
		receiveChanges(ctx, ch, func(string) {})
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Expected receive loop to stop on context cancel")
	}
}

func TestMemoryStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryStore()

	require.NoError(t, kv.Set(ctx, "k", "v"))
	val, err := kv.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", val)

	require.NoError(t, kv.Remove(ctx, "k"))
	val, err = kv.Get(ctx, "k")
	require.NoError(t, err)
	assert.Empty(t, val)
}
