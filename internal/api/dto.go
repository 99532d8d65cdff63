package api

import (
	"context"
	"time"

	"minicms/internal/biz"
)

// PostCard 首页文章卡片 DTO
type PostCard struct {
	ID          int64
	Title       string
	Excerpt     string
	URL         string
	ImageURL    string
	ImageAlt    string
	PublishedAt time.Time
}

// PostView 文章详情 DTO
type PostView struct {
	ID              int64
	Title           string
	Paragraphs      []string
	MetaDescription string
	ImageURL        string
	ImageAlt        string
	PublishedAt     time.Time
}

// BlogService 公开博客服务接口（由 service 层实现）
type BlogService interface {
	Home(ctx context.Context) ([]PostCard, error)
	// Post returns biz.ErrPostNotFound for drafts, trashed and unknown ids.
	Post(ctx context.Context, id int64) (*PostView, error)
}

// postFormData is the payload of the post editor.
type postFormData struct {
	Action string
	Media  []biz.Media
}

// userFormData is the payload of the user editor.
type userFormData struct {
	Action   string
	Creating bool
	ID       int64
	Roles    []biz.Role
}
