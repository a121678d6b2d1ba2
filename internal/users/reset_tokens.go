package users

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ResetTokenStore keeps single-use password reset tokens.
type ResetTokenStore interface {
	Save(ctx context.Context, token, userID string, ttl time.Duration) error
	// Consume returns the owner of token and removes it. Unknown or expired
	// tokens yield ErrInvalidResetToken.
	Consume(ctx context.Context, token string) (string, error)
}

type resetEntry struct {
	userID    string
	expiresAt time.Time
}

// MemoryResetTokenStore is used when no Redis is configured.
type MemoryResetTokenStore struct {
	mu    sync.Mutex
	items map[string]resetEntry
	now   func() time.Time
}

func NewMemoryResetTokenStore() *MemoryResetTokenStore {
	return &MemoryResetTokenStore{items: make(map[string]resetEntry), now: time.Now}
}

func (s *MemoryResetTokenStore) Save(ctx context.Context, token, userID string, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for k, v := range s.items {
		if now.After(v.expiresAt) {
			delete(s.items, k)
		}
	}
	s.items[token] = resetEntry{userID: userID, expiresAt: now.Add(ttl)}
	return nil
}

func (s *MemoryResetTokenStore) Consume(ctx context.Context, token string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	entry, ok := s.items[token]
	if ok {
		delete(s.items, token)
	}
	s.mu.Unlock()
	if !ok || s.now().After(entry.expiresAt) {
		return "", ErrInvalidResetToken
	}
	return entry.userID, nil
}

const resetKeyPrefix = "coverletter:pwreset:"

// RedisResetTokenStore keeps reset tokens in Redis with a TTL.
type RedisResetTokenStore struct {
	client *redis.Client
}

// NewRedisResetTokenStore connects using a redis:// URL.
func NewRedisResetTokenStore(rawURL string) (*RedisResetTokenStore, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second
	return &RedisResetTokenStore{client: redis.NewClient(opts)}, nil
}

// Ping checks connectivity.
func (s *RedisResetTokenStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close releases the connection pool.
func (s *RedisResetTokenStore) Close() error {
	return s.client.Close()
}

func (s *RedisResetTokenStore) Save(ctx context.Context, token, userID string, ttl time.Duration) error {
	if err := s.client.Set(ctx, resetKey(token), userID, ttl).Err(); err != nil {
		return fmt.Errorf("store reset token: %w", err)
	}
	return nil
}

func (s *RedisResetTokenStore) Consume(ctx context.Context, token string) (string, error) {
	userID, err := s.client.GetDel(ctx, resetKey(token)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrInvalidResetToken
		}
		return "", fmt.Errorf("consume reset token: %w", err)
	}
	return userID, nil
}

func resetKey(token string) string {
	return resetKeyPrefix + token
}
