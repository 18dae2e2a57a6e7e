package authkit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// DefaultChangeChannel is the pub/sub channel carrying cross-context change
// signals. Messages are the storage keys that changed.
const DefaultChangeChannel = "authkit:changes"

// RedisStore is a SessionStore backed by Redis. The record is stored as JSON
// under a single well-known key, and every write publishes the key on a
// pub/sub channel so other contexts (tabs, processes) can re-hydrate.
//
// The store is not transactional: two contexts may transiently disagree and
// converge through the change signal.
type RedisStore struct {
	client  *redis.Client
	key     string
	channel string
}

// RedisStoreOption configures a RedisStore.
type RedisStoreOption func(*RedisStore)

// WithSessionKey overrides the storage key.
func WithSessionKey(key string) RedisStoreOption {
	return func(s *RedisStore) {
		s.key = key
	}
}

// WithChangeChannel overrides the pub/sub channel for change signals.
func WithChangeChannel(channel string) RedisStoreOption {
	return func(s *RedisStore) {
		s.channel = channel
	}
}

// NewRedisStore creates a RedisStore over an existing client.
//
// Example:
//
//	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
//	store := authkit.NewRedisStore(client)
func NewRedisStore(client *redis.Client, opts ...RedisStoreOption) *RedisStore {
	s := &RedisStore{
		client:  client,
		key:     DefaultSessionKey,
		channel: DefaultChangeChannel,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Key returns the storage key.
func (s *RedisStore) Key() string {
	return s.key
}

// Load reads and decodes the stored session record.
func (s *RedisStore) Load(ctx context.Context) (*User, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNoSession
		}
		return nil, fmt.Errorf("authkit: load session: %w", err)
	}

	var user User
	if err := json.Unmarshal(data, &user); err != nil {
		return nil, fmt.Errorf("authkit: decode session: %w", err)
	}
	return &user, nil
}

// Save encodes and writes the session record, then publishes the change.
func (s *RedisStore) Save(ctx context.Context, user *User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("authkit: encode session: %w", err)
	}

	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("authkit: save session: %w", err)
	}

	// The signal is best-effort; a missed publish only delays convergence.
	_ = s.client.Publish(ctx, s.channel, s.key).Err()
	return nil
}

// Delete removes the session record and publishes the change.
func (s *RedisStore) Delete(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("authkit: delete session: %w", err)
	}

	_ = s.client.Publish(ctx, s.channel, s.key).Err()
	return nil
}

// Watch subscribes to the change channel and forwards the changed keys.
// The channel closes when ctx is cancelled.
func (s *RedisStore) Watch(ctx context.Context) (<-chan string, error) {
	sub := s.client.Subscribe(ctx, s.channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("authkit: subscribe changes: %w", err)
	}

	out := make(chan string, 8)
	msgs := sub.Channel()

	go func() {
		defer close(out)
		defer func() { _ = sub.Close() }()

		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				select {
				case out <- msg.Payload:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}
