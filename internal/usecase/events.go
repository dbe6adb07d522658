package usecase

import "github.com/rocketscienceinc/classhub-backend/internal/room"

// Outbound actions.
const (
	ActionStatus           = "status"
	ActionNewMessage       = "new-msg"
	ActionReaction         = "reaction"
	ActionTeamsResult      = "teams-result"
	ActionRPSStatus        = "rps-status"
	ActionRPSResult        = "rps-result"
	ActionTTTState         = "ttt-state"
	ActionRejected         = "rejected"
	ActionAttendanceMarked = "attendance-marked"
	ActionPollCreated      = "poll-created"
	ActionPollUpdated      = "poll-updated"
	ActionNewUpload        = "new-upload"
)

type StatusPayload struct {
	Msg string `json:"msg"`
}

type NewMessagePayload struct {
	Nickname string `json:"nickname"`
	Text     string `json:"text"`
	Style    string `json:"style"`
	Ts       string `json:"ts"`
}

type TeamsPayload struct {
	Teams [][]string `json:"teams"`
}

type RPSResultPayload struct {
	Result string `json:"result"`
	A      string `json:"a"`
	B      string `json:"b"`
	MoveA  string `json:"move_a"`
	MoveB  string `json:"move_b"`
	Winner string `json:"winner,omitempty"`
}

// TTTStatePayload is the full match view. On a finished match Board is the
// final board while Turn already belongs to the next match.
type TTTStatePayload struct {
	Room           string            `json:"room"`
	Board          [9]string         `json:"board"`
	Turn           string            `json:"turn"`
	Players        map[string]string `json:"players"`
	Winner         string            `json:"winner,omitempty"`
	WinnerNickname string            `json:"winner_nickname,omitempty"`
	Draw           bool              `json:"draw,omitempty"`
}

type RejectedPayload struct {
	Action string `json:"action"`
	Error  string `json:"error"`
}

type AttendancePayload struct {
	Nickname string `json:"nickname"`
	Session  string `json:"session"`
	Ts       string `json:"ts"`
}

type PollCreatedPayload struct {
	ID       int64    `json:"id"`
	Question string   `json:"question"`
	Options  []string `json:"options"`
}

type PollUpdatedPayload struct {
	PollID int64          `json:"poll_id"`
	Votes  map[string]int `json:"votes"`
}

type RoomsPayload struct {
	Rooms []room.Info `json:"rooms"`
}
