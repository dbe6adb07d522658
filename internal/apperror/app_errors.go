package apperror

import "errors"

var (
	ErrNotYourTurn    = errors.New("it's not your turn")
	ErrCellOccupied   = errors.New("cell is already occupied")
	ErrInvalidCell    = errors.New("invalid cell index")
	ErrNotAPlayer     = errors.New("nickname holds no mark in this match")
	ErrInvalidMove    = errors.New("invalid rock-paper-scissors move")
	ErrInvalidPayload = errors.New("invalid event payload")
	ErrUnknownEvent   = errors.New("unknown event")
	ErrNotFound       = errors.New("not found")
	ErrInvalidPoll    = errors.New("poll needs a question and at least two options")
	ErrInvalidOption  = errors.New("poll option does not exist")
)
