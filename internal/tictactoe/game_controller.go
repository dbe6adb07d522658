package tictactoe

import (
	"fmt"

	"github.com/rocketscienceinc/classhub-backend/internal/apperror"
	"github.com/rocketscienceinc/classhub-backend/internal/entity"
)

const (
	ResultContinue = "continue"
	ResultWin      = "win"
	ResultDraw     = "draw"
)

// Outcome describes an accepted move. Board is the board as played, so a
// winning line is still visible after the match itself has been reset.
type Outcome struct {
	Result         string
	Board          [9]string
	Turn           string
	Players        map[string]string
	Winner         string
	WinnerNickname string
}

func (that Outcome) IsTerminal() bool {
	return that.Result == ResultWin || that.Result == ResultDraw
}

// Join seats nickname on the first free mark. Returns false for spectators.
func Join(match *entity.Match, nickname string) (string, bool) {
	if mark := match.MarkOf(nickname); mark != entity.EmptyCell {
		return mark, true
	}

	if _, ok := match.Players[entity.PlayerX]; !ok {
		match.Players[entity.PlayerX] = nickname
		return entity.PlayerX, true
	}

	if _, ok := match.Players[entity.PlayerO]; !ok {
		match.Players[entity.PlayerO] = nickname
		return entity.PlayerO, true
	}

	return entity.EmptyCell, false
}

// ApplyMove plays cell for nickname. A rejected move leaves the match untouched.
func ApplyMove(match *entity.Match, nickname string, cell int) (Outcome, error) {
	mark := match.MarkOf(nickname)

	if err := validateMove(match, mark, cell); err != nil {
		return Outcome{}, fmt.Errorf("invalid turn: %w", err)
	}

	match.Board[cell] = mark
	match.ToggleTurn()

	outcome := Outcome{
		Result: ResultContinue,
		Board:  match.Board,
	}

	switch winner := match.DetermineGameResult(); winner {
	case entity.PlayerX, entity.PlayerO:
		outcome.Result = ResultWin
		outcome.Winner = winner
		outcome.WinnerNickname = match.Players[winner]
		match.Reset()
	case entity.PlayerTie:
		outcome.Result = ResultDraw
		match.Reset()
	}

	outcome.Turn = match.Turn
	outcome.Players = match.Clone().Players

	return outcome, nil
}

// validateMove - checks if the move is valid.
func validateMove(match *entity.Match, mark string, cell int) error {
	if mark == entity.EmptyCell {
		return apperror.ErrNotAPlayer
	}

	if cell < 0 || cell >= len(match.Board) {
		return fmt.Errorf("%w: cell %d", apperror.ErrInvalidCell, cell)
	}

	if match.Turn != mark {
		return apperror.ErrNotYourTurn
	}

	if match.Board[cell] != entity.EmptyCell {
		return apperror.ErrCellOccupied
	}

	return nil
}
