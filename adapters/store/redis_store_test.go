package store

import (
	"context"
	"testing"
	"time"

	"github.com/layer-3/attendease/core"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestRedisStore(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr: "127.0.0.1:6379",
		DB:   3,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	defer client.Close()

	s := NewRedisStore(client, "attendease:test:active:")
	defer s.Clear(ctx)

	tok := core.Token{Raw: "attendease://cs101/1/x", CourseID: "cs101", IssuedAtMillis: 1, Signature: "x"}

	t.Run("PutGet", func(t *testing.T) {
		require.NoError(t, s.Put(ctx, tok, time.Minute))
		got, err := s.Get(ctx, "cs101")
		require.NoError(t, err)
		require.Equal(t, &tok, got)
	})

	t.Run("Missing", func(t *testing.T) {
		got, err := s.Get(ctx, "nope")
		require.NoError(t, err)
		require.Nil(t, got)
	})

	t.Run("TTL", func(t *testing.T) {
		short := tok
		short.CourseID = "short"
		require.NoError(t, s.Put(ctx, short, 50*time.Millisecond))
		require.Eventually(t, func() bool {
			got, err := s.Get(ctx, "short")
			return err == nil && got == nil
		}, 2*time.Second, 20*time.Millisecond)
	})

	t.Run("Clear", func(t *testing.T) {
		other := tok
		other.CourseID = "ma202"
		require.NoError(t, s.Put(ctx, other, time.Minute))
		require.NoError(t, s.Clear(ctx))

		for _, id := range []string{"cs101", "ma202"} {
			got, err := s.Get(ctx, id)
			require.NoError(t, err)
			require.Nil(t, got)
		}
	})
}
