package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rocketscienceinc/classhub-backend/internal/entity"
)

type AttendanceRepository interface {
	// Mark records the attendance and awards points in one transaction.
	Mark(ctx context.Context, attendance *entity.Attendance, points int) error
	// List returns every record, newest first.
	List(ctx context.Context) ([]entity.Attendance, error)
}

type attendanceRepository struct {
	conn *sql.DB
}

func NewAttendanceRepository(conn *sql.DB) AttendanceRepository {
	return &attendanceRepository{
		conn: conn,
	}
}

func (that *attendanceRepository) Mark(ctx context.Context, attendance *entity.Attendance, points int) error {
	return inTx(ctx, that.conn, func(tx *sql.Tx) error {
		query := `INSERT INTO attendance (nickname, session_name, timestamp) VALUES (?, ?, ?)`

		_, err := tx.ExecContext(ctx, query, attendance.Nickname, attendance.Session, attendance.Timestamp)
		if err != nil {
			return fmt.Errorf("can't save attendance: %w", err)
		}

		return incrementPoints(ctx, tx, attendance.Nickname, points)
	})
}

func (that *attendanceRepository) List(ctx context.Context) ([]entity.Attendance, error) {
	query := `SELECT nickname, session_name, timestamp FROM attendance ORDER BY timestamp DESC, id DESC`

	rows, err := that.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("can't list attendance: %w", err)
	}
	defer rows.Close()

	records := make([]entity.Attendance, 0)
	for rows.Next() {
		var record entity.Attendance
		if err = rows.Scan(&record.Nickname, &record.Session, &record.Timestamp); err != nil {
			return nil, fmt.Errorf("can't scan attendance: %w", err)
		}
		records = append(records, record)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("can't list attendance: %w", err)
	}

	return records, nil
}
