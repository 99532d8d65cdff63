package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"minicms/internal/biz"
)

// postRepo 文章仓库
type postRepo struct {
	db *DB
}

// NewPostRepo 创建文章仓库
func NewPostRepo(db *DB) biz.PostRepo {
	return &postRepo{db: db}
}

const postColumns = `p.id, p.title, p.content, p.status, p.slug, p.featured_media_id,
	p.published_at, p.meta_title, p.meta_description, p.created_at, p.deleted_at`

// postWithMedia also selects the featured image, which may be absent.
const postWithMedia = `SELECT ` + postColumns + `,
	m.id, m.filename, m.original_name, m.path, m.mime_type, m.size, m.alt, m.created_at
	FROM posts p LEFT JOIN media m ON m.id = p.featured_media_id`

type rowScanner interface {
	Scan(dest ...any) error
}

func postDest(p *biz.Post, featured *sql.NullInt64, published, deleted *sql.NullTime, metaTitle, metaDesc *sql.NullString) []any {
	return []any{&p.ID, &p.Title, &p.Content, &p.Status, &p.Slug, featured,
		published, metaTitle, metaDesc, &p.CreatedAt, deleted}
}

func fillPost(p *biz.Post, featured sql.NullInt64, published, deleted sql.NullTime, metaTitle, metaDesc sql.NullString) {
	if featured.Valid {
		p.FeaturedMediaID = &featured.Int64
	}
	if published.Valid {
		p.PublishedAt = &published.Time
	}
	if deleted.Valid {
		p.DeletedAt = &deleted.Time
	}
	if metaTitle.Valid {
		p.MetaTitle = &metaTitle.String
	}
	if metaDesc.Valid {
		p.MetaDescription = &metaDesc.String
	}
}

func scanPost(row rowScanner) (*biz.Post, error) {
	var (
		p                   biz.Post
		featured            sql.NullInt64
		published, deleted  sql.NullTime
		metaTitle, metaDesc sql.NullString
	)
	if err := row.Scan(postDest(&p, &featured, &published, &deleted, &metaTitle, &metaDesc)...); err != nil {
		return nil, err
	}
	fillPost(&p, featured, published, deleted, metaTitle, metaDesc)
	return &p, nil
}

func scanPostWithMedia(row rowScanner) (*biz.Post, error) {
	var (
		p                   biz.Post
		featured            sql.NullInt64
		published, deleted  sql.NullTime
		metaTitle, metaDesc sql.NullString

		mID                      sql.NullInt64
		mFile, mOrig, mPath, mMT sql.NullString
		mSize                    sql.NullInt64
		mAlt                     sql.NullString
		mCreated                 sql.NullTime
	)
	dest := postDest(&p, &featured, &published, &deleted, &metaTitle, &metaDesc)
	dest = append(dest, &mID, &mFile, &mOrig, &mPath, &mMT, &mSize, &mAlt, &mCreated)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	fillPost(&p, featured, published, deleted, metaTitle, metaDesc)
	if mID.Valid {
		p.FeaturedMedia = &biz.Media{
			ID:           mID.Int64,
			Filename:     mFile.String,
			OriginalName: mOrig.String,
			Path:         mPath.String,
			MimeType:     mMT.String,
			Size:         mSize.Int64,
			Alt:          mAlt.String,
			CreatedAt:    mCreated.Time,
		}
	}
	return &p, nil
}

func (r *postRepo) List(ctx context.Context) ([]biz.Post, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+postColumns+" FROM posts p ORDER BY p.id DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	defer rows.Close()

	var posts []biz.Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		posts = append(posts, *p)
	}
	return posts, rows.Err()
}

func (r *postRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM posts WHERE deleted_at IS NULL").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count posts: %w", err)
	}
	return n, nil
}

// FindBySlug also returns trashed posts so they can be restored.
func (r *postRepo) FindBySlug(ctx context.Context, slug string) (*biz.Post, error) {
	p, err := scanPostWithMedia(r.db.QueryRowContext(ctx, r.db.rebind(postWithMedia+" WHERE p.slug = ?"), slug))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, biz.ErrPostNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query post: %w", err)
	}
	return p, nil
}

func (r *postRepo) Create(ctx context.Context, in biz.PostInput) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, r.db.rebind(`INSERT INTO posts
		(title, content, status, slug, featured_media_id, published_at, meta_title, meta_description)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`),
		in.Title, in.Content, in.Status, in.Slug, in.FeaturedMediaID, nullTime(in.PublishedAt), in.MetaTitle, in.MetaDescription,
	).Scan(&id)
	if isUniqueViolation(err, "posts") {
		return 0, biz.ErrSlugTaken
	}
	if err != nil {
		return 0, fmt.Errorf("failed to insert post: %w", err)
	}
	return id, nil
}

func (r *postRepo) Update(ctx context.Context, id int64, in biz.PostInput) error {
	res, err := r.db.ExecContext(ctx, r.db.rebind(`UPDATE posts SET
		title = ?, content = ?, status = ?, slug = ?, featured_media_id = ?,
		published_at = ?, meta_title = ?, meta_description = ?
		WHERE id = ?`),
		in.Title, in.Content, in.Status, in.Slug, in.FeaturedMediaID, nullTime(in.PublishedAt), in.MetaTitle, in.MetaDescription, id,
	)
	if isUniqueViolation(err, "posts") {
		return biz.ErrSlugTaken
	}
	if err != nil {
		return fmt.Errorf("failed to update post: %w", err)
	}
	return requireAffected(res, biz.ErrPostNotFound)
}

func (r *postRepo) SoftDeleteBySlug(ctx context.Context, slug string) error {
	res, err := r.db.ExecContext(ctx,
		r.db.rebind("UPDATE posts SET deleted_at = CURRENT_TIMESTAMP WHERE slug = ? AND deleted_at IS NULL"), slug)
	if err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}
	return requireAffected(res, biz.ErrPostNotFound)
}

func (r *postRepo) RestoreBySlug(ctx context.Context, slug string) error {
	res, err := r.db.ExecContext(ctx,
		r.db.rebind("UPDATE posts SET deleted_at = NULL WHERE slug = ? AND deleted_at IS NOT NULL"), slug)
	if err != nil {
		return fmt.Errorf("failed to restore post: %w", err)
	}
	return requireAffected(res, biz.ErrPostNotFound)
}

func (r *postRepo) ListPublished(ctx context.Context, limit int) ([]biz.Post, error) {
	rows, err := r.db.QueryContext(ctx, r.db.rebind(postWithMedia+`
		WHERE p.status = ? AND p.deleted_at IS NULL
		ORDER BY COALESCE(p.published_at, p.created_at) DESC, p.id DESC
		LIMIT ?`), biz.StatusPublished, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list published posts: %w", err)
	}
	defer rows.Close()

	var posts []biz.Post
	for rows.Next() {
		p, err := scanPostWithMedia(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		posts = append(posts, *p)
	}
	return posts, rows.Err()
}

func (r *postRepo) FindPublishedByID(ctx context.Context, id int64) (*biz.Post, error) {
	p, err := scanPostWithMedia(r.db.QueryRowContext(ctx,
		r.db.rebind(postWithMedia+" WHERE p.id = ? AND p.status = ? AND p.deleted_at IS NULL"),
		id, biz.StatusPublished))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, biz.ErrPostNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query post: %w", err)
	}
	return p, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func requireAffected(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}
