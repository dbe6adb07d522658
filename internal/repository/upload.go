package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rocketscienceinc/classhub-backend/internal/entity"
)

type UploadRepository interface {
	Save(ctx context.Context, upload *entity.Upload) error
	Recent(ctx context.Context, limit int) ([]entity.Upload, error)
}

type uploadRepository struct {
	conn *sql.DB
}

func NewUploadRepository(conn *sql.DB) UploadRepository {
	return &uploadRepository{
		conn: conn,
	}
}

func (that *uploadRepository) Save(ctx context.Context, upload *entity.Upload) error {
	query := `INSERT INTO uploads (filename, uploader, content_type, ts) VALUES (?, ?, ?, ?)`

	_, err := that.conn.ExecContext(ctx, query, upload.Filename, upload.Uploader, upload.ContentType, upload.Timestamp)
	if err != nil {
		return fmt.Errorf("can't save upload: %w", err)
	}

	return nil
}

func (that *uploadRepository) Recent(ctx context.Context, limit int) ([]entity.Upload, error) {
	query := `SELECT filename, uploader, content_type, ts FROM uploads ORDER BY ts DESC, id DESC LIMIT ?`

	rows, err := that.conn.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("can't list uploads: %w", err)
	}
	defer rows.Close()

	uploads := make([]entity.Upload, 0, limit)
	for rows.Next() {
		var upload entity.Upload
		if err = rows.Scan(&upload.Filename, &upload.Uploader, &upload.ContentType, &upload.Timestamp); err != nil {
			return nil, fmt.Errorf("can't scan upload: %w", err)
		}
		uploads = append(uploads, upload)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("can't list uploads: %w", err)
	}

	return uploads, nil
}
