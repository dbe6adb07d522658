package repository

import (
	"testing"

	"github.com/rocketscienceinc/classhub-backend/internal/entity"
	"github.com/rocketscienceinc/classhub-backend/testing/suite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAttendanceRepository_Mark(t *testing.T) {
	ctx, st := suite.NewSQLite(t)
	attendanceRepo := NewAttendanceRepository(st.Connection)
	userRepo := NewUserRepository(st.Connection)

	// Given: a registered user
	require.NoError(t, userRepo.Save(ctx, &entity.User{Nickname: "alice", Team: "girls", Role: "student"}))

	// When: attendance is marked twice in different sessions
	require.NoError(t, attendanceRepo.Mark(ctx, &entity.Attendance{
		Nickname: "alice", Session: "Lab Period", Timestamp: "2024-01-01 09:00:00",
	}, 5))
	require.NoError(t, attendanceRepo.Mark(ctx, &entity.Attendance{
		Nickname: "alice", Session: "Lecture", Timestamp: "2024-01-02 09:00:00",
	}, 5))

	// Then: both records are listed newest first and points were awarded
	records, err := attendanceRepo.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "Lecture", records[0].Session)
	assert.Equal(t, "Lab Period", records[1].Session)

	user, err := userRepo.Find(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 10, user.Points)
}

func TestAttendanceRepository_ListEmpty(t *testing.T) {
	ctx, st := suite.NewSQLite(t)
	attendanceRepo := NewAttendanceRepository(st.Connection)

	records, err := attendanceRepo.List(ctx)

	require.NoError(t, err)
	assert.Empty(t, records)
}
