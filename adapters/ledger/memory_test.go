package ledger

import (
	"context"
	"testing"

	"github.com/layer-3/attendease/core"
	"github.com/stretchr/testify/require"
)

func TestMemoryLedger_Idempotent(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLedger()
	rec := core.AttendanceRecord{CourseID: "cs101", StudentID: "s1", RecordedAtMillis: 10}

	created, err := l.RecordPresence(ctx, rec)
	require.NoError(t, err)
	require.True(t, created)

	created, err = l.RecordPresence(ctx, rec)
	require.NoError(t, err)
	require.False(t, created)

	got, err := l.ListByCourse(ctx, "cs101")
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, core.StatusPresent, got[0].Status)
	require.NotEmpty(t, got[0].ID)
}

func TestMemoryLedger_ListOrder(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLedger()
	for _, at := range []int64{30, 10, 20} {
		_, err := l.RecordPresence(ctx, core.AttendanceRecord{CourseID: "cs101", StudentID: "s1", RecordedAtMillis: at})
		require.NoError(t, err)
	}

	got, err := l.ListByStudent(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, got, 3)
	require.Equal(t, int64(10), got[0].RecordedAtMillis)
	require.Equal(t, int64(30), got[2].RecordedAtMillis)
}

func TestMemoryCourses(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryCourses(core.Course{ID: "ma202"}, core.Course{ID: "cs101"})

	c, err := m.FindByID(ctx, "cs101")
	require.NoError(t, err)
	require.Equal(t, "cs101", c.ID)

	missing, err := m.FindByID(ctx, "ph305")
	require.NoError(t, err)
	require.Nil(t, missing)

	require.NoError(t, m.Upsert(ctx, core.Course{ID: "ph305"}))
	all, err := m.List(ctx)
	require.NoError(t, err)
	require.Equal(t, "cs101", all[0].ID)
	require.Len(t, all, 3)
}
