package repository

import (
	"testing"

	"github.com/rocketscienceinc/classhub-backend/internal/apperror"
	"github.com/rocketscienceinc/classhub-backend/internal/entity"
	"github.com/rocketscienceinc/classhub-backend/testing/suite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPollRepository_Create(t *testing.T) {
	ctx, st := suite.NewSQLite(t)
	pollRepo := NewPollRepository(st.Connection)

	// Given: two new polls
	first := entity.NewPoll("Lunch?", []string{"Canteen", "Skip"})
	second := entity.NewPoll("Quiz day?", []string{"Mon", "Fri"})

	// When: they are created
	require.NoError(t, pollRepo.Create(ctx, first))
	require.NoError(t, pollRepo.Create(ctx, second))

	// Then: ids are assigned and polls are listed newest first
	assert.NotZero(t, first.ID)
	polls, err := pollRepo.List(ctx)
	require.NoError(t, err)
	require.Len(t, polls, 2)
	assert.Equal(t, *second, polls[0])
	assert.Equal(t, *first, polls[1])
}

func TestPollRepository_Vote(t *testing.T) {
	t.Run("Vote_Success", func(t *testing.T) {
		ctx, st := suite.NewSQLite(t)
		pollRepo := NewPollRepository(st.Connection)
		userRepo := NewUserRepository(st.Connection)

		// Given: a poll
		poll := entity.NewPoll("Lunch?", []string{"Canteen", "Skip"})
		require.NoError(t, pollRepo.Create(ctx, poll))

		// When: alice votes for the second option
		updated, err := pollRepo.Vote(ctx, poll.ID, 1, "alice", 1)

		// Then: the vote is counted and alice got a point
		require.NoError(t, err)
		assert.Equal(t, map[string]int{"0": 0, "1": 1}, updated.Votes)

		stored, err := pollRepo.Find(ctx, poll.ID)
		require.NoError(t, err)
		assert.Equal(t, updated.Votes, stored.Votes)

		user, err := userRepo.Find(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, 1, user.Points)
	})

	t.Run("Vote_UnknownPoll", func(t *testing.T) {
		ctx, st := suite.NewSQLite(t)
		pollRepo := NewPollRepository(st.Connection)

		_, err := pollRepo.Vote(ctx, 42, 0, "alice", 1)

		require.ErrorIs(t, err, apperror.ErrNotFound)
	})

	t.Run("Vote_UnknownOptionRollsBack", func(t *testing.T) {
		ctx, st := suite.NewSQLite(t)
		pollRepo := NewPollRepository(st.Connection)
		userRepo := NewUserRepository(st.Connection)

		// Given: a poll with two options
		poll := entity.NewPoll("Lunch?", []string{"Canteen", "Skip"})
		require.NoError(t, pollRepo.Create(ctx, poll))

		// When: a vote targets a third option
		_, err := pollRepo.Vote(ctx, poll.ID, 2, "alice", 1)

		// Then: it fails and no point was awarded
		require.ErrorIs(t, err, apperror.ErrInvalidOption)
		_, err = userRepo.Find(ctx, "alice")
		require.ErrorIs(t, err, apperror.ErrNotFound)
	})
}
