package rps

import (
	"fmt"

	"github.com/rocketscienceinc/classhub-backend/internal/apperror"
	"github.com/rocketscienceinc/classhub-backend/internal/entity"
)

const (
	ResultAwaiting = "awaiting"
	ResultDraw     = "draw"
	ResultWin      = "win"
)

// Outcome of a submitted move. A, B and their moves are only set once the
// round resolved.
type Outcome struct {
	Result string
	A      string
	B      string
	MoveA  string
	MoveB  string
	Winner string
}

func (that Outcome) IsResolved() bool {
	return that.Result != ResultAwaiting
}

// Join adds nickname to the joined players and returns them in join order.
func Join(round *entity.Round, nickname string) []string {
	if !round.HasPlayer(nickname) {
		round.Players = append(round.Players, nickname)
	}

	return append([]string(nil), round.Players...)
}

// SubmitMove records nickname's move. The first two distinct submitters are
// paired; an overwrite keeps the submitter's place in the queue.
func SubmitMove(round *entity.Round, nickname, move string) (Outcome, error) {
	if !entity.IsValidMove(move) {
		return Outcome{}, fmt.Errorf("%w: %q", apperror.ErrInvalidMove, move)
	}

	if _, ok := round.Moves[nickname]; !ok {
		round.Order = append(round.Order, nickname)
	}
	round.Moves[nickname] = move

	if len(round.Order) < 2 {
		return Outcome{Result: ResultAwaiting}, nil
	}

	a, b := round.Order[0], round.Order[1]
	outcome := Outcome{
		Result: ResultDraw,
		A:      a,
		B:      b,
		MoveA:  round.Moves[a],
		MoveB:  round.Moves[b],
	}

	switch entity.CompareMoves(outcome.MoveA, outcome.MoveB) {
	case 1:
		outcome.Result = ResultWin
		outcome.Winner = a
	case -1:
		outcome.Result = ResultWin
		outcome.Winner = b
	}

	round.ClearMoves()

	return outcome, nil
}
