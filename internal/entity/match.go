package entity

const (
	PlayerX   = "X"
	PlayerO   = "O"
	PlayerTie = "-"

	EmptyCell = ""
)

var WinCombos = [][3]int{
	{0, 1, 2},
	{3, 4, 5},
	{6, 7, 8},
	{0, 3, 6},
	{1, 4, 7},
	{2, 5, 8},
	{0, 4, 8},
	{2, 4, 6},
}

// Match is the tic-tac-toe state of a single room.
type Match struct {
	Board   [9]string         `json:"board"`
	Turn    string            `json:"turn"`
	Players map[string]string `json:"players"`
}

func NewMatch() *Match {
	return &Match{
		Board:   [9]string{EmptyCell, EmptyCell, EmptyCell, EmptyCell, EmptyCell, EmptyCell, EmptyCell, EmptyCell, EmptyCell},
		Turn:    PlayerX,
		Players: make(map[string]string, 2),
	}
}

// MarkOf returns the mark held by nickname, or EmptyCell for spectators.
func (that *Match) MarkOf(nickname string) string {
	for _, mark := range []string{PlayerX, PlayerO} {
		if player, ok := that.Players[mark]; ok && player == nickname {
			return mark
		}
	}

	return EmptyCell
}

func (that *Match) DetermineGameResult() string {
	for _, combo := range WinCombos {
		a, b, c := that.Board[combo[0]], that.Board[combo[1]], that.Board[combo[2]]
		if a != EmptyCell && a == b && b == c {
			return a
		}
	}

	// the game will continue until all the squares are full
	for _, cell := range that.Board {
		if cell == EmptyCell {
			return ""
		}
	}

	return PlayerTie
}

func (that *Match) ToggleTurn() {
	if that.Turn == PlayerX {
		that.Turn = PlayerO
	} else {
		that.Turn = PlayerX
	}
}

// Reset clears the board and hands the turn back to X. Player assignment is kept.
func (that *Match) Reset() {
	that.Board = [9]string{}
	that.Turn = PlayerX
}

// Clone returns a deep copy safe to hand out after the room lock is released.
func (that *Match) Clone() *Match {
	players := make(map[string]string, len(that.Players))
	for mark, nickname := range that.Players {
		players[mark] = nickname
	}

	return &Match{
		Board:   that.Board,
		Turn:    that.Turn,
		Players: players,
	}
}
