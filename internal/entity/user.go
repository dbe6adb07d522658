package entity

import "strconv"

const (
	DefaultTeam    = "boys"
	DefaultRole    = "student"
	DefaultSession = "Lab Period"

	// TimeLayout is the timestamp format shown to clients and stored in the database.
	TimeLayout = "2006-01-02 15:04:05"
)

// User is a points ledger entry.
type User struct {
	Nickname string `json:"nickname"`
	Team     string `json:"team,omitempty"`
	Role     string `json:"role,omitempty"`
	Points   int    `json:"points"`
	JoinedAt string `json:"joined_at,omitempty"`
}

type Attendance struct {
	Nickname  string `json:"nickname"`
	Session   string `json:"session"`
	Timestamp string `json:"ts"`
}

type Upload struct {
	Filename    string `json:"filename"`
	Uploader    string `json:"uploader"`
	ContentType string `json:"content_type"`
	Timestamp   string `json:"ts"`
}

type Poll struct {
	ID       int64          `json:"id"`
	Question string         `json:"question"`
	Options  []string       `json:"options"`
	Votes    map[string]int `json:"votes"`
}

func NewPoll(question string, options []string) *Poll {
	votes := make(map[string]int, len(options))
	for i := range options {
		votes[optionKey(i)] = 0
	}

	return &Poll{
		Question: question,
		Options:  options,
		Votes:    votes,
	}
}

func (that *Poll) HasOption(index int) bool {
	return index >= 0 && index < len(that.Options)
}

func (that *Poll) AddVote(index int) {
	if that.Votes == nil {
		that.Votes = make(map[string]int)
	}
	that.Votes[optionKey(index)]++
}

func optionKey(index int) string {
	return strconv.Itoa(index)
}
