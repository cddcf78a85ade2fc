package log

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFrom_Default(t *testing.T) {
	require.Same(t, slog.Default(), From(context.Background()))
}

func TestIntoFrom(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(slog.NewTextHandler(&buf, nil))

	ctx := Into(context.Background(), l)
	require.Same(t, l, From(ctx))

	From(ctx).Info("checked_in", slog.String("course_id", "cs101"))
	require.Contains(t, buf.String(), "course_id=cs101")
}

func TestFrom_NilLogger(t *testing.T) {
	var l *slog.Logger
	ctx := Into(context.Background(), l)
	require.Same(t, slog.Default(), From(ctx))
}

func TestNew(t *testing.T) {
	require.True(t, New(EnvLocal).Enabled(context.Background(), slog.LevelDebug))
	require.False(t, New(EnvProd).Enabled(context.Background(), slog.LevelDebug))
}
