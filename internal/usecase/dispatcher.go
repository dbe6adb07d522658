package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/rocketscienceinc/classhub-backend/internal/apperror"
	"github.com/rocketscienceinc/classhub-backend/internal/entity"
	"github.com/rocketscienceinc/classhub-backend/internal/event"
	"github.com/rocketscienceinc/classhub-backend/internal/room"
	"github.com/rocketscienceinc/classhub-backend/internal/rps"
	"github.com/rocketscienceinc/classhub-backend/internal/tictactoe"
	"github.com/samber/lo"
)

const (
	DefaultTicTacToeWinPoints         = 5
	DefaultRockPaperScissorsWinPoints = 3
)

type ledger interface {
	IncrementPoints(ctx context.Context, nickname string, amount int) error
}

type broadcaster interface {
	Subscribe(clientID, topic string)
	Unsubscribe(clientID, topic string)
	PublishRoom(ctx context.Context, topic, action string, payload any) error
	PublishAll(ctx context.Context, action string, payload any) error
}

// Rewards are the ledger points of a game win.
type Rewards struct {
	TicTacToeWin         int
	RockPaperScissorsWin int
}

// Dispatcher applies inbound realtime events to rooms. Each room is mutated
// under its own lock; broadcasts and ledger writes happen after the lock is released.
type Dispatcher struct {
	logger      *slog.Logger
	registry    *room.Registry
	broadcaster broadcaster
	ledger      ledger
	rewards     Rewards
	now         func() time.Time
}

func NewDispatcher(logger *slog.Logger, registry *room.Registry, broadcaster broadcaster, ledger ledger, rewards Rewards) *Dispatcher {
	return &Dispatcher{
		logger:      logger.With("component", "dispatcher"),
		registry:    registry,
		broadcaster: broadcaster,
		ledger:      ledger,
		rewards:     rewards,
		now:         time.Now,
	}
}

// IsRejection reports whether err is a refused action that should be
// reported back to its sender only.
func IsRejection(err error) bool {
	return errors.Is(err, apperror.ErrNotYourTurn) ||
		errors.Is(err, apperror.ErrCellOccupied) ||
		errors.Is(err, apperror.ErrInvalidCell) ||
		errors.Is(err, apperror.ErrNotAPlayer) ||
		errors.Is(err, apperror.ErrInvalidMove) ||
		errors.Is(err, apperror.ErrInvalidPayload) ||
		errors.Is(err, apperror.ErrUnknownEvent)
}

func (that *Dispatcher) Dispatch(ctx context.Context, clientID string, evt event.Event) error {
	switch e := evt.(type) {
	case event.Join:
		return that.join(ctx, clientID, e)
	case event.Leave:
		return that.leave(ctx, clientID, e)
	case event.SendMessage:
		return that.sendMessage(ctx, e)
	case event.Reaction:
		return that.publishAll(ctx, ActionReaction, e.Payload)
	case event.RandomTeams:
		return that.publishAll(ctx, ActionTeamsResult, TeamsPayload{Teams: RandomTeams(e.Members, e.Size)})
	case event.RPSJoin:
		return that.rpsJoin(ctx, clientID, e)
	case event.RPSMove:
		return that.rpsMove(ctx, e)
	case event.TTTJoin:
		return that.tttJoin(ctx, clientID, e)
	case event.TTTMove:
		return that.tttMove(ctx, e)
	default:
		return fmt.Errorf("%w: %T", apperror.ErrUnknownEvent, evt)
	}
}

func (that *Dispatcher) join(ctx context.Context, clientID string, e event.Join) error {
	chat := that.registry.GetOrCreate(e.Room, room.KindChat)

	chat.Do(func(state *room.State) {
		state.Members[e.Nickname] = struct{}{}
	})

	that.broadcaster.Subscribe(clientID, chat.ID())

	return that.publishRoom(ctx, chat.ID(), ActionStatus, StatusPayload{
		Msg: fmt.Sprintf("%s joined %s.", e.Nickname, e.Room),
	})
}

func (that *Dispatcher) leave(ctx context.Context, clientID string, e event.Leave) error {
	chat := that.registry.GetOrCreate(e.Room, room.KindChat)

	chat.Do(func(state *room.State) {
		delete(state.Members, e.Nickname)
	})

	that.broadcaster.Unsubscribe(clientID, chat.ID())

	return that.publishRoom(ctx, chat.ID(), ActionStatus, StatusPayload{
		Msg: fmt.Sprintf("%s left %s.", e.Nickname, e.Room),
	})
}

func (that *Dispatcher) sendMessage(ctx context.Context, e event.SendMessage) error {
	return that.publishRoom(ctx, room.ID(room.KindChat, e.Room), ActionNewMessage, NewMessagePayload{
		Nickname: e.Nickname,
		Text:     e.Text,
		Style:    e.Style,
		Ts:       that.now().Format(entity.TimeLayout),
	})
}

func (that *Dispatcher) rpsJoin(ctx context.Context, clientID string, e event.RPSJoin) error {
	game := that.registry.GetOrCreate(e.Room, room.KindRockPaperScissors)

	var players []string
	game.Do(func(state *room.State) {
		state.Members[e.Nickname] = struct{}{}
		players = rps.Join(state.Round, e.Nickname)
	})

	that.broadcaster.Subscribe(clientID, game.ID())

	return that.publishRoom(ctx, game.ID(), ActionRPSStatus, StatusPayload{
		Msg: fmt.Sprintf("%s joined %s. Players: %v", e.Nickname, e.Room, players),
	})
}

func (that *Dispatcher) rpsMove(ctx context.Context, e event.RPSMove) error {
	log := that.logger.With("method", "rpsMove", "room", e.Room, "nickname", e.Nickname)

	game := that.registry.GetOrCreate(e.Room, room.KindRockPaperScissors)

	var (
		outcome rps.Outcome
		err     error
	)
	game.Do(func(state *room.State) {
		outcome, err = rps.SubmitMove(state.Round, e.Nickname, e.Move)
	})
	if err != nil {
		log.Debug("move rejected", "error", err)
		return fmt.Errorf("failed to submit move: %w", err)
	}

	err = that.publishRoom(ctx, game.ID(), ActionRPSStatus, StatusPayload{
		Msg: fmt.Sprintf("%s chose a move.", e.Nickname),
	})

	if !outcome.IsResolved() {
		return err
	}

	result := RPSResultPayload{
		Result: "Draw!",
		A:      outcome.A,
		B:      outcome.B,
		MoveA:  outcome.MoveA,
		MoveB:  outcome.MoveB,
		Winner: outcome.Winner,
	}
	if outcome.Result == rps.ResultWin {
		result.Result = outcome.Winner + " wins!"
	}

	err = errors.Join(err, that.publishRoom(ctx, game.ID(), ActionRPSResult, result))

	if outcome.Result == rps.ResultWin {
		that.award(ctx, outcome.Winner, that.rewards.RockPaperScissorsWin)
	}

	return err
}

func (that *Dispatcher) tttJoin(ctx context.Context, clientID string, e event.TTTJoin) error {
	game := that.registry.GetOrCreate(e.Room, room.KindTicTacToe)

	var payload TTTStatePayload
	game.Do(func(state *room.State) {
		state.Members[e.Nickname] = struct{}{}
		tictactoe.Join(state.Match, e.Nickname)

		snapshot := state.Match.Clone()
		payload = TTTStatePayload{
			Room:    e.Room,
			Board:   snapshot.Board,
			Turn:    snapshot.Turn,
			Players: snapshot.Players,
		}
	})

	that.broadcaster.Subscribe(clientID, game.ID())

	return that.publishRoom(ctx, game.ID(), ActionTTTState, payload)
}

func (that *Dispatcher) tttMove(ctx context.Context, e event.TTTMove) error {
	log := that.logger.With("method", "tttMove", "room", e.Room, "nickname", e.Nickname)

	game := that.registry.GetOrCreate(e.Room, room.KindTicTacToe)

	var (
		outcome tictactoe.Outcome
		err     error
	)
	game.Do(func(state *room.State) {
		outcome, err = tictactoe.ApplyMove(state.Match, e.Nickname, *e.Cell)
	})
	if err != nil {
		log.Debug("move rejected", "cell", *e.Cell, "error", err)
		return fmt.Errorf("failed to apply move: %w", err)
	}

	err = that.publishRoom(ctx, game.ID(), ActionTTTState, TTTStatePayload{
		Room:           e.Room,
		Board:          outcome.Board,
		Turn:           outcome.Turn,
		Players:        outcome.Players,
		Winner:         outcome.Winner,
		WinnerNickname: outcome.WinnerNickname,
		Draw:           outcome.Result == tictactoe.ResultDraw,
	})

	if outcome.Result == tictactoe.ResultWin {
		that.award(ctx, outcome.WinnerNickname, that.rewards.TicTacToeWin)
	}

	return err
}

func (that *Dispatcher) publishRoom(ctx context.Context, topic, action string, payload any) error {
	if err := that.broadcaster.PublishRoom(ctx, topic, action, payload); err != nil {
		return fmt.Errorf("failed to publish %s to %s: %w", action, topic, err)
	}

	return nil
}

func (that *Dispatcher) publishAll(ctx context.Context, action string, payload any) error {
	if err := that.broadcaster.PublishAll(ctx, action, payload); err != nil {
		return fmt.Errorf("failed to publish %s: %w", action, err)
	}

	return nil
}

// award is best effort: a ledger failure never undoes a game outcome.
func (that *Dispatcher) award(ctx context.Context, nickname string, points int) {
	log := that.logger.With("method", "award", "nickname", nickname, "points", points)

	if nickname == "" || points <= 0 {
		return
	}

	if err := that.ledger.IncrementPoints(context.WithoutCancel(ctx), nickname, points); err != nil {
		log.Error("failed to award points", "error", err)
		return
	}

	log.Info("points awarded")
}

// RandomTeams shuffles members into contiguous groups of size. The last group may be short.
func RandomTeams(members []string, size int) [][]string {
	if size <= 0 {
		size = event.DefaultTeamSize
	}

	if len(members) == 0 {
		return [][]string{}
	}

	shuffled := lo.Shuffle(append([]string(nil), members...))

	return lo.Chunk(shuffled, size)
}
