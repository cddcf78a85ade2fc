package store

import (
	"context"
	"testing"
	"time"

	"github.com/layer-3/attendease/core"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_PutGet(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	got, err := s.Get(ctx, "cs101")
	require.NoError(t, err)
	require.Nil(t, got)

	tok := core.Token{Raw: "attendease://cs101/1/x", CourseID: "cs101", IssuedAtMillis: 1, Signature: "x"}
	require.NoError(t, s.Put(ctx, tok, time.Minute))

	got, err = s.Get(ctx, "cs101")
	require.NoError(t, err)
	require.Equal(t, &tok, got)

	newer := tok
	newer.IssuedAtMillis = 2
	require.NoError(t, s.Put(ctx, newer, time.Minute))

	got, err = s.Get(ctx, "cs101")
	require.NoError(t, err)
	require.Equal(t, int64(2), got.IssuedAtMillis)
}

func TestMemoryStore_Expiry(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(1700000000, 0)
	s := NewMemoryStore().WithClock(func() time.Time { return now })

	require.NoError(t, s.Put(ctx, core.Token{CourseID: "cs101"}, time.Minute))

	now = now.Add(time.Minute)
	got, err := s.Get(ctx, "cs101")
	require.NoError(t, err)
	require.NotNil(t, got)

	now = now.Add(time.Millisecond)
	got, err = s.Get(ctx, "cs101")
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestMemoryStore_DeleteClear(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.Put(ctx, core.Token{CourseID: "a"}, time.Minute))
	require.NoError(t, s.Put(ctx, core.Token{CourseID: "b"}, time.Minute))

	require.NoError(t, s.Delete(ctx, "a"))
	got, err := s.Get(ctx, "a")
	require.NoError(t, err)
	require.Nil(t, got)

	require.NoError(t, s.Clear(ctx))
	got, err = s.Get(ctx, "b")
	require.NoError(t, err)
	require.Nil(t, got)
}
