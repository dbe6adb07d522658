package entity

const (
	MoveRock     = "rock"
	MovePaper    = "paper"
	MoveScissors = "scissors"
)

// beats maps each move to the move it defeats.
var beats = map[string]string{
	MoveRock:     MoveScissors,
	MoveScissors: MovePaper,
	MovePaper:    MoveRock,
}

func IsValidMove(move string) bool {
	_, ok := beats[move]
	return ok
}

// CompareMoves returns 1 when a beats b, -1 when b beats a and 0 on a draw.
func CompareMoves(a, b string) int {
	switch {
	case a == b:
		return 0
	case beats[a] == b:
		return 1
	default:
		return -1
	}
}

// Round is the rock-paper-scissors state of a single room.
type Round struct {
	Moves   map[string]string `json:"moves"`
	Order   []string          `json:"order"`
	Players []string          `json:"players"`
}

func NewRound() *Round {
	return &Round{
		Moves: make(map[string]string),
	}
}

func (that *Round) HasPlayer(nickname string) bool {
	for _, player := range that.Players {
		if player == nickname {
			return true
		}
	}

	return false
}

// ClearMoves starts a new round; joined players stay.
func (that *Round) ClearMoves() {
	that.Moves = make(map[string]string)
	that.Order = nil
}
