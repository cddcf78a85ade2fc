package sqlite

import (
	"context"
	"testing"

	"github.com/layer-3/attendease/core"
	"github.com/stretchr/testify/require"
)

func TestAttendance_RecordPresence(t *testing.T) {
	ctx := context.Background()
	db, err := InitDB(ctx, ":memory:")
	require.NoError(t, err)
	defer CloseDB(db)

	repo := NewAttendanceRepository(db)
	rec := core.AttendanceRecord{CourseID: "cs101", StudentID: "s1", RecordedAtMillis: 1700000000000}

	created, err := repo.RecordPresence(ctx, rec)
	require.NoError(t, err)
	require.True(t, created)

	created, err = repo.RecordPresence(ctx, rec)
	require.NoError(t, err)
	require.False(t, created, "duplicate tuple must not be stored twice")

	later := rec
	later.RecordedAtMillis++
	created, err = repo.RecordPresence(ctx, later)
	require.NoError(t, err)
	require.True(t, created)

	got, err := repo.ListByCourse(ctx, "cs101")
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, core.StatusPresent, got[0].Status)
	require.NotEmpty(t, got[0].ID)
	require.Equal(t, int64(1700000000000), got[0].RecordedAtMillis)
}

func TestAttendance_ListByStudent(t *testing.T) {
	ctx := context.Background()
	db, err := InitDB(ctx, ":memory:")
	require.NoError(t, err)
	defer CloseDB(db)

	repo := NewAttendanceRepository(db)
	for _, rec := range []core.AttendanceRecord{
		{CourseID: "cs101", StudentID: "s1", RecordedAtMillis: 3},
		{CourseID: "ma202", StudentID: "s1", RecordedAtMillis: 1},
		{CourseID: "cs101", StudentID: "s2", RecordedAtMillis: 2},
	} {
		_, err := repo.RecordPresence(ctx, rec)
		require.NoError(t, err)
	}

	got, err := repo.ListByStudent(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "ma202", got[0].CourseID)
	require.Equal(t, "cs101", got[1].CourseID)

	none, err := repo.ListByStudent(ctx, "nobody")
	require.NoError(t, err)
	require.Empty(t, none)
}
