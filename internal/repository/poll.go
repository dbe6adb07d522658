package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rocketscienceinc/classhub-backend/internal/apperror"
	"github.com/rocketscienceinc/classhub-backend/internal/entity"
)

type PollRepository interface {
	Create(ctx context.Context, poll *entity.Poll) error
	Find(ctx context.Context, id int64) (*entity.Poll, error)
	List(ctx context.Context) ([]entity.Poll, error)
	// Vote counts one vote for option and awards points to nickname in one transaction.
	Vote(ctx context.Context, id int64, option int, nickname string, points int) (*entity.Poll, error)
}

type pollRepository struct {
	conn *sql.DB
}

func NewPollRepository(conn *sql.DB) PollRepository {
	return &pollRepository{
		conn: conn,
	}
}

// Create stores the poll and sets its ID.
func (that *pollRepository) Create(ctx context.Context, poll *entity.Poll) error {
	options, err := json.Marshal(poll.Options)
	if err != nil {
		return fmt.Errorf("failed to marshal options: %w", err)
	}

	votes, err := json.Marshal(poll.Votes)
	if err != nil {
		return fmt.Errorf("failed to marshal votes: %w", err)
	}

	query := `INSERT INTO polls (question, options, votes) VALUES (?, ?, ?)`

	result, err := that.conn.ExecContext(ctx, query, poll.Question, string(options), string(votes))
	if err != nil {
		return fmt.Errorf("can't save poll: %w", err)
	}

	if poll.ID, err = result.LastInsertId(); err != nil {
		return fmt.Errorf("can't read poll id: %w", err)
	}

	return nil
}

func (that *pollRepository) Find(ctx context.Context, id int64) (*entity.Poll, error) {
	return findPoll(ctx, that.conn, id)
}

func (that *pollRepository) List(ctx context.Context) ([]entity.Poll, error) {
	query := `SELECT id, question, options, votes FROM polls ORDER BY id DESC`

	rows, err := that.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("can't list polls: %w", err)
	}
	defer rows.Close()

	polls := make([]entity.Poll, 0)
	for rows.Next() {
		poll, err := scanPoll(rows)
		if err != nil {
			return nil, err
		}
		polls = append(polls, *poll)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("can't list polls: %w", err)
	}

	return polls, nil
}

func (that *pollRepository) Vote(ctx context.Context, id int64, option int, nickname string, points int) (*entity.Poll, error) {
	var poll *entity.Poll

	err := inTx(ctx, that.conn, func(tx *sql.Tx) error {
		var err error

		poll, err = findPoll(ctx, tx, id)
		if err != nil {
			return err
		}

		if !poll.HasOption(option) {
			return fmt.Errorf("%w: %d", apperror.ErrInvalidOption, option)
		}

		poll.AddVote(option)

		votes, err := json.Marshal(poll.Votes)
		if err != nil {
			return fmt.Errorf("failed to marshal votes: %w", err)
		}

		if _, err = tx.ExecContext(ctx, `UPDATE polls SET votes = ? WHERE id = ?`, string(votes), id); err != nil {
			return fmt.Errorf("can't update votes: %w", err)
		}

		return incrementPoints(ctx, tx, nickname, points)
	})
	if err != nil {
		return nil, err
	}

	return poll, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func findPoll(ctx context.Context, q querier, id int64) (*entity.Poll, error) {
	query := `SELECT id, question, options, votes FROM polls WHERE id = ?`

	poll, err := scanPoll(q.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return poll, nil
}

func scanPoll(row rowScanner) (*entity.Poll, error) {
	var (
		poll           entity.Poll
		options, votes string
	)

	if err := row.Scan(&poll.ID, &poll.Question, &options, &votes); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("can't scan poll: %w", err)
	}

	if err := json.Unmarshal([]byte(options), &poll.Options); err != nil {
		return nil, fmt.Errorf("failed to unmarshal options: %w", err)
	}

	if err := json.Unmarshal([]byte(votes), &poll.Votes); err != nil {
		return nil, fmt.Errorf("failed to unmarshal votes: %w", err)
	}

	return &poll, nil
}
