package rps

import (
	"testing"

	"github.com/rocketscienceinc/classhub-backend/internal/apperror"
	"github.com/rocketscienceinc/classhub-backend/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJoin(t *testing.T) {
	// Given: an empty round
	round := entity.NewRound()

	// When: alice joins twice and bob once
	Join(round, "alice")
	Join(round, "alice")
	players := Join(round, "bob")

	// Then: each nickname is listed once, in join order
	assert.Equal(t, []string{"alice", "bob"}, players)
}

func TestJoin_DoesNotTouchPendingMoves(t *testing.T) {
	// Given: a pending move from alice
	round := entity.NewRound()
	_, err := SubmitMove(round, "alice", entity.MoveRock)
	require.NoError(t, err)

	// When: bob joins
	Join(round, "bob")

	// Then: alice's move is still pending
	assert.Equal(t, map[string]string{"alice": entity.MoveRock}, round.Moves)
}

func TestSubmitMove(t *testing.T) {
	t.Run("Rock beats scissors", func(t *testing.T) {
		// Given: an empty round
		round := entity.NewRound()

		// When: alice plays rock and bob plays scissors
		first, err := SubmitMove(round, "alice", entity.MoveRock)
		require.NoError(t, err)
		second, err := SubmitMove(round, "bob", entity.MoveScissors)
		require.NoError(t, err)

		// Then: the round resolves immediately with alice as winner
		assert.Equal(t, ResultAwaiting, first.Result)
		assert.False(t, first.IsResolved())
		assert.Equal(t, Outcome{
			Result: ResultWin,
			A:      "alice",
			B:      "bob",
			MoveA:  entity.MoveRock,
			MoveB:  entity.MoveScissors,
			Winner: "alice",
		}, second)
		assert.Empty(t, round.Moves)
		assert.Empty(t, round.Order)
	})

	t.Run("Second submitter can win", func(t *testing.T) {
		// Given: alice played scissors
		round := entity.NewRound()
		_, err := SubmitMove(round, "alice", entity.MoveScissors)
		require.NoError(t, err)

		// When: bob plays rock
		outcome, err := SubmitMove(round, "bob", entity.MoveRock)
		require.NoError(t, err)

		// Then: bob wins
		assert.Equal(t, ResultWin, outcome.Result)
		assert.Equal(t, "bob", outcome.Winner)
	})

	t.Run("Equal moves draw", func(t *testing.T) {
		// Given: alice played paper
		round := entity.NewRound()
		_, err := SubmitMove(round, "alice", entity.MovePaper)
		require.NoError(t, err)

		// When: bob plays paper too
		outcome, err := SubmitMove(round, "bob", entity.MovePaper)
		require.NoError(t, err)

		// Then: the round is a draw without a winner
		assert.Equal(t, ResultDraw, outcome.Result)
		assert.True(t, outcome.IsResolved())
		assert.Empty(t, outcome.Winner)
	})

	t.Run("Same nickname overwrite does not resolve", func(t *testing.T) {
		// Given: alice played rock
		round := entity.NewRound()
		_, err := SubmitMove(round, "alice", entity.MoveRock)
		require.NoError(t, err)

		// When: alice changes her mind
		outcome, err := SubmitMove(round, "alice", entity.MovePaper)
		require.NoError(t, err)

		// Then: only one distinct nickname has a move, so the round waits
		assert.Equal(t, ResultAwaiting, outcome.Result)
		assert.Equal(t, map[string]string{"alice": entity.MovePaper}, round.Moves)
		assert.Equal(t, []string{"alice"}, round.Order)
	})

	t.Run("Overwritten move is the one that counts", func(t *testing.T) {
		// Given: alice switched from rock to paper
		round := entity.NewRound()
		_, _ = SubmitMove(round, "alice", entity.MoveRock)
		_, _ = SubmitMove(round, "alice", entity.MovePaper)

		// When: bob plays rock
		outcome, err := SubmitMove(round, "bob", entity.MoveRock)
		require.NoError(t, err)

		// Then: alice's paper wins
		assert.Equal(t, "alice", outcome.Winner)
		assert.Equal(t, entity.MovePaper, outcome.MoveA)
	})

	t.Run("Invalid move is rejected without state change", func(t *testing.T) {
		// Given: a pending move from alice
		round := entity.NewRound()
		_, _ = SubmitMove(round, "alice", entity.MoveRock)

		// When: bob submits an unknown move
		_, err := SubmitMove(round, "bob", "lizard")

		// Then: it is rejected and nothing changed
		require.ErrorIs(t, err, apperror.ErrInvalidMove)
		assert.Equal(t, map[string]string{"alice": entity.MoveRock}, round.Moves)
		assert.Equal(t, []string{"alice"}, round.Order)
	})

	t.Run("Joined players survive resolution", func(t *testing.T) {
		// Given: two joined players
		round := entity.NewRound()
		Join(round, "alice")
		Join(round, "bob")

		// When: a full round is played
		_, _ = SubmitMove(round, "alice", entity.MoveRock)
		_, _ = SubmitMove(round, "bob", entity.MovePaper)

		// Then: both are still joined
		assert.Equal(t, []string{"alice", "bob"}, round.Players)
	})
}
