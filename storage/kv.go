package storage

import (
	"context"
	"errors"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/paycrest/cardflow/config"
)

// ErrNotFound is returned when a key has no stored value.
var ErrNotFound = errors.New("storage: key not found")

// KV is the minimal persistence surface the SDK needs: the token pair, the
// retry flag, the first-launch flag and the cached KYC id are all simple
// key/value pairs.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

var (
	// store holds the active KV implementation
	store KV
	// Err holds the storage connection error
	Err error

	storeMu sync.Mutex
)

// Connect initializes the process-wide store. With redis enabled in config
// the store is shared across processes; otherwise state lives in memory for
// the lifetime of the host application.
func Connect(ctx context.Context) error {
	storeMu.Lock()
	defer storeMu.Unlock()

	conf := config.RedisConfig()
	if !conf.Enabled {
		store = NewMemoryKV()
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     conf.Addr,
		Password: conf.Password,
		DB:       conf.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		Err = err
		return err
	}
	store = NewRedisKV(client)
	return nil
}

// GetStore returns the active KV, defaulting to in-memory when Connect was
// never called.
func GetStore() KV {
	storeMu.Lock()
	defer storeMu.Unlock()
	if store == nil {
		store = NewMemoryKV()
	}
	return store
}

// GetError returns the storage connection error
func GetError() error {
	return Err
}

// MemoryKV is a process-local KV for hosts that keep SDK state in memory.
type MemoryKV struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryKV constructs an empty in-memory store.
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{values: make(map[string]string)}
}

func (m *MemoryKV) Get(ctx context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, ok := m.values[key]
	if !ok {
		return "", ErrNotFound
	}
	return value, nil
}

func (m *MemoryKV) Set(ctx context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *MemoryKV) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

// RedisKV stores SDK state in redis, namespaced under cardflow:.
type RedisKV struct {
	client redis.UniversalClient
}

// NewRedisKV wraps an existing redis client.
func NewRedisKV(client redis.UniversalClient) *RedisKV {
	return &RedisKV{client: client}
}

func (r *RedisKV) namespaced(key string) string {
	return "cardflow:" + key
}

func (r *RedisKV) Get(ctx context.Context, key string) (string, error) {
	value, err := r.client.Get(ctx, r.namespaced(key)).Result()
	if err == redis.Nil {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

func (r *RedisKV) Set(ctx context.Context, key, value string) error {
	return r.client.Set(ctx, r.namespaced(key), value, 0).Err()
}

func (r *RedisKV) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.namespaced(key)).Err()
}
