package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rocketscienceinc/classhub-backend/internal/apperror"
	"github.com/rocketscienceinc/classhub-backend/internal/entity"
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// UserRepository is the points ledger.
type UserRepository interface {
	Save(ctx context.Context, user *entity.User) error
	Find(ctx context.Context, nickname string) (*entity.User, error)
	IncrementPoints(ctx context.Context, nickname string, amount int) error
	Rank(ctx context.Context) ([]entity.User, error)
	TeamTotals(ctx context.Context) (map[string]int, error)
}

type userRepository struct {
	conn *sql.DB
}

func NewUserRepository(conn *sql.DB) UserRepository {
	return &userRepository{
		conn: conn,
	}
}

// Save inserts the user. An existing nickname is left untouched.
func (that *userRepository) Save(ctx context.Context, user *entity.User) error {
	query := `INSERT INTO users (nickname, team, role, points, joined_at) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(nickname) DO NOTHING`

	_, err := that.conn.ExecContext(ctx, query, user.Nickname, user.Team, user.Role, user.Points, user.JoinedAt)
	if err != nil {
		return fmt.Errorf("can't save user: %w", err)
	}

	return nil
}

func (that *userRepository) Find(ctx context.Context, nickname string) (*entity.User, error) {
	query := `SELECT nickname, team, role, points, joined_at FROM users WHERE nickname = ?`

	var user entity.User

	err := that.conn.QueryRowContext(ctx, query, nickname).
		Scan(&user.Nickname, &user.Team, &user.Role, &user.Points, &user.JoinedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("can't find user: %w", err)
	}

	return &user, nil
}

// IncrementPoints adds amount in a single statement. Unknown nicknames get a
// default ledger entry.
func (that *userRepository) IncrementPoints(ctx context.Context, nickname string, amount int) error {
	return incrementPoints(ctx, that.conn, nickname, amount)
}

func (that *userRepository) Rank(ctx context.Context) ([]entity.User, error) {
	query := `SELECT nickname, team, role, points, joined_at FROM users ORDER BY points DESC, nickname ASC`

	rows, err := that.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("can't rank users: %w", err)
	}
	defer rows.Close()

	users := make([]entity.User, 0)
	for rows.Next() {
		var user entity.User
		if err = rows.Scan(&user.Nickname, &user.Team, &user.Role, &user.Points, &user.JoinedAt); err != nil {
			return nil, fmt.Errorf("can't scan user: %w", err)
		}
		users = append(users, user)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("can't rank users: %w", err)
	}

	return users, nil
}

func (that *userRepository) TeamTotals(ctx context.Context) (map[string]int, error) {
	query := `SELECT team, COALESCE(SUM(points), 0) FROM users GROUP BY team`

	rows, err := that.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("can't sum team points: %w", err)
	}
	defer rows.Close()

	totals := make(map[string]int)
	for rows.Next() {
		var (
			team   string
			points int
		)
		if err = rows.Scan(&team, &points); err != nil {
			return nil, fmt.Errorf("can't scan team points: %w", err)
		}
		totals[team] = points
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("can't sum team points: %w", err)
	}

	return totals, nil
}

func incrementPoints(ctx context.Context, q querier, nickname string, amount int) error {
	query := `INSERT INTO users (nickname, team, role, points, joined_at) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(nickname) DO UPDATE SET points = points + excluded.points`

	_, err := q.ExecContext(ctx, query,
		nickname, entity.DefaultTeam, entity.DefaultRole, amount, time.Now().Format(entity.TimeLayout))
	if err != nil {
		return fmt.Errorf("can't increment points of %s: %w", nickname, err)
	}

	return nil
}

// inTx runs fn inside a transaction, committing only when fn succeeds.
func inTx(ctx context.Context, conn *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("can't begin transaction: %w", err)
	}

	if err = fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("can't commit transaction: %w", err)
	}

	return nil
}
