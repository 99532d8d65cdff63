package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"minicms/internal/biz"
)

// mediaRepo 媒体仓库
type mediaRepo struct {
	db *DB
}

// NewMediaRepo 创建媒体仓库
func NewMediaRepo(db *DB) biz.MediaRepo {
	return &mediaRepo{db: db}
}

const mediaColumns = `id, filename, original_name, path, mime_type, size, alt, created_at`

func scanMedia(row rowScanner) (*biz.Media, error) {
	var m biz.Media
	if err := row.Scan(&m.ID, &m.Filename, &m.OriginalName, &m.Path, &m.MimeType, &m.Size, &m.Alt, &m.CreatedAt); err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *mediaRepo) List(ctx context.Context) ([]biz.Media, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+mediaColumns+" FROM media ORDER BY id DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to list media: %w", err)
	}
	defer rows.Close()

	var items []biz.Media
	for rows.Next() {
		m, err := scanMedia(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan media: %w", err)
		}
		items = append(items, *m)
	}
	return items, rows.Err()
}

func (r *mediaRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM media").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count media: %w", err)
	}
	return n, nil
}

func (r *mediaRepo) FindByID(ctx context.Context, id int64) (*biz.Media, error) {
	m, err := scanMedia(r.db.QueryRowContext(ctx, r.db.rebind("SELECT "+mediaColumns+" FROM media WHERE id = ?"), id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, biz.ErrMediaNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query media: %w", err)
	}
	return m, nil
}

func (r *mediaRepo) Create(ctx context.Context, m biz.Media) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, r.db.rebind(`INSERT INTO media
		(filename, original_name, path, mime_type, size, alt)
		VALUES (?, ?, ?, ?, ?, ?) RETURNING id`),
		m.Filename, m.OriginalName, m.Path, m.MimeType, m.Size, m.Alt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert media: %w", err)
	}
	return id, nil
}

// Delete removes the record. Posts referencing it keep existing with no
// featured image.
func (r *mediaRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, r.db.rebind("DELETE FROM media WHERE id = ?"), id)
	if err != nil {
		return fmt.Errorf("failed to delete media: %w", err)
	}
	return requireAffected(res, biz.ErrMediaNotFound)
}
