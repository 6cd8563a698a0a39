package notify

import (
	"context"
	"sync"

	"github.com/redis/go-redis/v9"
)

// KeyValueStore is the persistence capability backing the notification
// store. Get returns an empty string when the key is absent.
// Implementations must be safe for concurrent use.
type KeyValueStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// ChangeSignal broadcasts that the backing data was modified, so other
// consumers of the same store can reload. The origin tag lets a consumer
// skip its own broadcasts.
type ChangeSignal interface {
	Notify(ctx context.Context, origin string) error
	Subscribe(ctx context.Context, fn func(origin string))
}

// MemoryStore is an in-memory KeyValueStore for tests and single-process
// deployments without redis.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]string)}
}

func (m *MemoryStore) Get(ctx context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.data[key], nil
}

func (m *MemoryStore) Set(ctx context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *MemoryStore) Remove(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// NopSignal is a ChangeSignal for single-process deployments: with only
// one writer there is nothing to synchronize.
type NopSignal struct{}

func (NopSignal) Notify(ctx context.Context, origin string) error    { return nil }
func (NopSignal) Subscribe(ctx context.Context, fn func(origin string)) {}

// RedisStore is a KeyValueStore backed by redis.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore wraps an existing redis client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (r *RedisStore) Get(ctx context.Context, key string) (string, error) {
	val, err := r.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", nil
	}
	return val, err
}

func (r *RedisStore) Set(ctx context.Context, key, value string) error {
	return r.client.Set(ctx, key, value, 0).Err()
}

func (r *RedisStore) Remove(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}

// redisChangeChannel is the pub/sub channel used to broadcast store
// changes between consumers.
const redisChangeChannel = "waf:notifications:changed"

// RedisSignal broadcasts store changes over redis pub/sub.
type RedisSignal struct {
	client *redis.Client
}

// NewRedisSignal wraps an existing redis client.
func NewRedisSignal(client *redis.Client) *RedisSignal {
	return &RedisSignal{client: client}
}

func (r *RedisSignal) Notify(ctx context.Context, origin string) error {
	return r.client.Publish(ctx, redisChangeChannel, origin).Err()
}

func (r *RedisSignal) Subscribe(ctx context.Context, fn func(origin string)) {
	pubsub := r.client.Subscribe(ctx, redisChangeChannel)
	go func() {
		defer pubsub.Close()
		receiveChanges(ctx, pubsub.Channel(), fn)
	}()
}

// receiveChanges forwards change broadcasts to fn until the context is
// cancelled or the channel closes.
func receiveChanges(ctx context.Context, ch <-chan *redis.Message, fn func(origin string)) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fn(msg.Payload)
		}
	}
}
