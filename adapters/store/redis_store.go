package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/layer-3/attendease/core"
	"github.com/layer-3/attendease/ports"
	"github.com/redis/go-redis/v9"
)

// DefaultKeyPrefix namespaces active token keys in Redis
const DefaultKeyPrefix = "attendease:active:"

// RedisStore is a Redis implementation of the ActiveTokenStore interface
type RedisStore struct {
	client *redis.Client
	prefix string
}

type storedToken struct {
	Raw            string `json:"raw"`
	CourseID       string `json:"course_id"`
	IssuedAtMillis int64  `json:"issued_at"`
	Signature      string `json:"signature"`
}

var _ ports.ActiveTokenStore = (*RedisStore)(nil)

// NewRedisStore creates a new Redis store
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &RedisStore{
		client: client,
		prefix: prefix,
	}
}

func (s *RedisStore) key(courseID string) string { return s.prefix + courseID }

// Put stores the course's active token with expiration
func (s *RedisStore) Put(ctx context.Context, token core.Token, ttl time.Duration) error {
	payload, err := json.Marshal(storedToken{
		Raw:            token.Raw,
		CourseID:       token.CourseID,
		IssuedAtMillis: token.IssuedAtMillis,
		Signature:      token.Signature,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal token: %w", err)
	}

	if err := s.client.Set(ctx, s.key(token.CourseID), payload, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store active token: %w", err)
	}
	return nil
}

// Get returns the course's active token, or nil when none is stored
func (s *RedisStore) Get(ctx context.Context, courseID string) (*core.Token, error) {
	val, err := s.client.Get(ctx, s.key(courseID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get active token: %w", err)
	}

	var st storedToken
	if err := json.Unmarshal(val, &st); err != nil {
		return nil, fmt.Errorf("failed to unmarshal active token: %w", err)
	}

	return &core.Token{
		Raw:            st.Raw,
		CourseID:       st.CourseID,
		IssuedAtMillis: st.IssuedAtMillis,
		Signature:      st.Signature,
	}, nil
}

// Delete removes the course's active token
func (s *RedisStore) Delete(ctx context.Context, courseID string) error {
	if err := s.client.Del(ctx, s.key(courseID)).Err(); err != nil {
		return fmt.Errorf("failed to delete active token: %w", err)
	}
	return nil
}

// Clear removes every active token under the store prefix
func (s *RedisStore) Clear(ctx context.Context) error {
	var cursor uint64
	for {
		keys, next, err := s.client.Scan(ctx, cursor, s.prefix+"*", 100).Result()
		if err != nil {
			return fmt.Errorf("failed to scan active tokens: %w", err)
		}
		if len(keys) > 0 {
			if err := s.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("failed to clear active tokens: %w", err)
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}
