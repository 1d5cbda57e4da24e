package valkey

import (
	"context"
	"fmt"
	"time"

	"github.com/valkey-io/valkey-go"
)

// Cache implements ports.CacheService using Valkey (Redis-compatible).
type Cache struct {
	client valkey.Client
}

// New creates a new Valkey cache client.
func New(addr string) (*Cache, error) {
	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress: []string{addr},
	})
	if err != nil {
		return nil, fmt.Errorf("valkey connect: %w", err)
	}
	return &Cache{client: client}, nil
}

// Get retrieves a value by key.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	cmd := c.client.Do(ctx, c.client.B().Get().Key(key).Build())
	if cmd.Error() != nil {
		return nil, cmd.Error()
	}
	return cmd.AsBytes()
}

// Set stores a value with a TTL in seconds.
func (c *Cache) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	cmd := c.client.Do(ctx,
		c.client.B().Set().Key(key).Value(string(value)).Ex(time.Duration(ttlSeconds)*time.Second).Build(),
	)
	return cmd.Error()
}

// Delete removes a key.
func (c *Cache) Delete(ctx context.Context, key string) error {
	cmd := c.client.Do(ctx, c.client.B().Del().Key(key).Build())
	return cmd.Error()
}

// Incr atomically increments a counter, setting its TTL on first write.
func (c *Cache) Incr(ctx context.Context, key string, ttlSeconds int) (int64, error) {
	cmd := c.client.Do(ctx, c.client.B().Incr().Key(key).Build())
	if cmd.Error() != nil {
		return 0, cmd.Error()
	}
	n, err := cmd.AsInt64()
	if err != nil {
		return 0, err
	}
	if n == 1 && ttlSeconds > 0 {
		_ = c.client.Do(ctx,
			c.client.B().Expire().Key(key).Seconds(int64(ttlSeconds)).Build(),
		).Error()
	}
	return n, nil
}

// KV returns a durable key-value view over the same client. Values written
// through it carry no expiry, so session snapshots survive restarts.
func (c *Cache) KV() *KVStore {
	return &KVStore{client: c.client}
}

// Close releases the client.
func (c *Cache) Close() {
	c.client.Close()
}

// KVStore implements ports.KeyValueStore on top of the shared Valkey client.
type KVStore struct {
	client valkey.Client
}

// Get retrieves a value by key. A missing key yields nil, not an error.
func (s *KVStore) Get(ctx context.Context, key string) ([]byte, error) {
	cmd := s.client.Do(ctx, s.client.B().Get().Key(key).Build())
	if err := cmd.Error(); err != nil {
		if valkey.IsValkeyNil(err) {
			return nil, nil
		}
		return nil, err
	}
	return cmd.AsBytes()
}

// Set stores a value without expiry.
func (s *KVStore) Set(ctx context.Context, key string, value []byte) error {
	cmd := s.client.Do(ctx, s.client.B().Set().Key(key).Value(string(value)).Build())
	return cmd.Error()
}
