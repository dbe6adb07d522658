package event

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rocketscienceinc/classhub-backend/internal/apperror"
	"github.com/rocketscienceinc/classhub-backend/internal/entity"
)

// Inbound actions.
const (
	ActionJoin        = "join"
	ActionLeave       = "leave"
	ActionSendMessage = "send-message"
	ActionSendMsg     = "send-msg"
	ActionReaction    = "reaction"
	ActionRandomTeams = "random-teams"
	ActionRPSJoin     = "rps-join"
	ActionRPSMove     = "rps-move"
	ActionTTTJoin     = "ttt-join"
	ActionTTTMove     = "ttt-move"
)

const (
	DefaultChatRoom = "main"
	DefaultRPSRoom  = "rps"
	DefaultTTTRoom  = "ttt"
	DefaultNickname = "anon"
	DefaultStyle    = "normal"
	DefaultMove     = entity.MoveRock
	DefaultTeamSize = 2
)

// Event is one decoded and validated inbound realtime event.
type Event interface {
	Action() string
}

type Join struct {
	Room     string `json:"room" validate:"max=64"`
	Nickname string `json:"nickname" validate:"max=64"`
}

type Leave struct {
	Room     string `json:"room" validate:"max=64"`
	Nickname string `json:"nickname" validate:"max=64"`
}

type SendMessage struct {
	Room     string `json:"room" validate:"max=64"`
	Nickname string `json:"nickname" validate:"max=64"`
	Text     string `json:"text" validate:"required,max=2000"`
	Style    string `json:"style" validate:"max=64"`
}

// Reaction is forwarded as is to every connected client.
type Reaction struct {
	Payload json.RawMessage `validate:"required"`
}

type RandomTeams struct {
	Members []string `json:"members" validate:"required,min=1,dive,required,max=64"`
	Size    int      `json:"size" validate:"gte=0"`
}

type RPSJoin struct {
	Room     string `json:"room" validate:"max=64"`
	Nickname string `json:"nickname" validate:"max=64"`
}

type RPSMove struct {
	Room     string `json:"room" validate:"max=64"`
	Nickname string `json:"nickname" validate:"max=64"`
	Move     string `json:"move" validate:"oneof=rock paper scissors"`
}

type TTTJoin struct {
	Room     string `json:"room" validate:"max=64"`
	Nickname string `json:"nickname" validate:"max=64"`
}

// TTTMove carries the cell index as "idx". Range is checked by the game.
type TTTMove struct {
	Room     string `json:"room" validate:"max=64"`
	Nickname string `json:"nickname" validate:"max=64"`
	Cell     *int   `json:"idx" validate:"required"`
}

func (Join) Action() string        { return ActionJoin }
func (Leave) Action() string       { return ActionLeave }
func (SendMessage) Action() string { return ActionSendMessage }
func (Reaction) Action() string    { return ActionReaction }
func (RandomTeams) Action() string { return ActionRandomTeams }
func (RPSJoin) Action() string     { return ActionRPSJoin }
func (RPSMove) Action() string     { return ActionRPSMove }
func (TTTJoin) Action() string     { return ActionTTTJoin }
func (TTTMove) Action() string     { return ActionTTTMove }

type Decoder struct {
	validate *validator.Validate
}

func NewDecoder() *Decoder {
	return &Decoder{
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Decode turns a raw payload into the event variant for action, fills the
// defaults of omitted fields and validates the result.
func (that *Decoder) Decode(action string, payload json.RawMessage) (Event, error) {
	var evt Event

	switch action {
	case ActionJoin:
		var e Join
		if err := unmarshal(payload, &e); err != nil {
			return nil, err
		}
		e.Room, e.Nickname = orDefault(e.Room, DefaultChatRoom), orDefault(e.Nickname, DefaultNickname)
		evt = e
	case ActionLeave:
		var e Leave
		if err := unmarshal(payload, &e); err != nil {
			return nil, err
		}
		e.Room, e.Nickname = orDefault(e.Room, DefaultChatRoom), orDefault(e.Nickname, DefaultNickname)
		evt = e
	case ActionSendMessage, ActionSendMsg:
		var e SendMessage
		if err := unmarshal(payload, &e); err != nil {
			return nil, err
		}
		e.Room, e.Nickname = orDefault(e.Room, DefaultChatRoom), orDefault(e.Nickname, DefaultNickname)
		e.Style = orDefault(e.Style, DefaultStyle)
		evt = e
	case ActionReaction:
		if len(payload) == 0 || !json.Valid(payload) {
			return nil, fmt.Errorf("%w: reaction is not valid json", apperror.ErrInvalidPayload)
		}
		evt = Reaction{Payload: payload}
	case ActionRandomTeams:
		var e RandomTeams
		if err := unmarshal(payload, &e); err != nil {
			return nil, err
		}
		e.Members = trimAll(e.Members)
		if e.Size <= 0 {
			e.Size = DefaultTeamSize
		}
		evt = e
	case ActionRPSJoin:
		var e RPSJoin
		if err := unmarshal(payload, &e); err != nil {
			return nil, err
		}
		e.Room, e.Nickname = orDefault(e.Room, DefaultRPSRoom), orDefault(e.Nickname, DefaultNickname)
		evt = e
	case ActionRPSMove:
		var e RPSMove
		if err := unmarshal(payload, &e); err != nil {
			return nil, err
		}
		e.Room, e.Nickname = orDefault(e.Room, DefaultRPSRoom), orDefault(e.Nickname, DefaultNickname)
		e.Move = strings.ToLower(orDefault(e.Move, DefaultMove))
		evt = e
	case ActionTTTJoin:
		var e TTTJoin
		if err := unmarshal(payload, &e); err != nil {
			return nil, err
		}
		e.Room, e.Nickname = orDefault(e.Room, DefaultTTTRoom), orDefault(e.Nickname, DefaultNickname)
		evt = e
	case ActionTTTMove:
		var e TTTMove
		if err := unmarshal(payload, &e); err != nil {
			return nil, err
		}
		e.Room, e.Nickname = orDefault(e.Room, DefaultTTTRoom), orDefault(e.Nickname, DefaultNickname)
		evt = e
	default:
		return nil, fmt.Errorf("%w: %q", apperror.ErrUnknownEvent, action)
	}

	if err := that.validate.Struct(evt); err != nil {
		return nil, fmt.Errorf("%w: %w", apperror.ErrInvalidPayload, err)
	}

	return evt, nil
}

func unmarshal(payload json.RawMessage, target any) error {
	if len(payload) == 0 {
		return nil
	}

	if err := json.Unmarshal(payload, target); err != nil {
		return fmt.Errorf("%w: %w", apperror.ErrInvalidPayload, err)
	}

	return nil
}

func orDefault(value, fallback string) string {
	if value = strings.TrimSpace(value); value == "" {
		return fallback
	}

	return value
}

func trimAll(values []string) []string {
	trimmed := make([]string, 0, len(values))
	for _, value := range values {
		if value = strings.TrimSpace(value); value != "" {
			trimmed = append(trimmed, value)
		}
	}

	return trimmed
}
