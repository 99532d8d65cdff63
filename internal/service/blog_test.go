package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"minicms/internal/biz"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubPosts serves a fixed set of published posts.
type stubPosts struct {
	biz.PostRepo
	posts []biz.Post
	limit int
}

func (s *stubPosts) ListPublished(_ context.Context, limit int) ([]biz.Post, error) {
	s.limit = limit
	return s.posts, nil
}

func (s *stubPosts) FindPublishedByID(_ context.Context, id int64) (*biz.Post, error) {
	for i := range s.posts {
		if s.posts[i].ID == id {
			return &s.posts[i], nil
		}
	}
	return nil, biz.ErrPostNotFound
}

func TestBlogService_Home(t *testing.T) {
	published := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	seo := "SEO title"
	repo := &stubPosts{posts: []biz.Post{
		{
			ID: 7, Title: "First", Content: "Hello\n\nworld", PublishedAt: &published,
			FeaturedMedia: &biz.Media{Filename: "a.png", Path: "/uploads"},
		},
		{ID: 3, Title: "Second", MetaTitle: &seo, Content: "x", CreatedAt: published.Add(-time.Hour)},
	}}

	cards, err := NewBlogService(biz.NewPostUsecase(repo, nil)).Home(context.Background())

	require.NoError(t, err)
	assert.Equal(t, homePostLimit, repo.limit)
	require.Len(t, cards, 2)
	assert.Equal(t, "/posts/7", cards[0].URL)
	assert.Equal(t, "/uploads/a.png", cards[0].ImageURL)
	assert.Equal(t, "First", cards[0].ImageAlt)
	assert.Equal(t, "Hello world", cards[0].Excerpt)
	assert.Equal(t, published, cards[0].PublishedAt)
	assert.Equal(t, "SEO title", cards[1].Title)
	assert.Equal(t, published.Add(-time.Hour), cards[1].PublishedAt)
}

func TestBlogService_Post(t *testing.T) {
	repo := &stubPosts{posts: []biz.Post{{ID: 1, Title: "T", Content: "one\r\n\r\ntwo\n\n\n"}}}
	svc := NewBlogService(biz.NewPostUsecase(repo, nil))

	view, err := svc.Post(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two"}, view.Paragraphs)
	assert.Equal(t, "one two", view.MetaDescription)

	_, err = svc.Post(context.Background(), 2)
	assert.ErrorIs(t, err, biz.ErrPostNotFound)
}

func TestExcerpt(t *testing.T) {
	assert.Equal(t, "short", excerpt("short", 10))
	long := strings.Repeat("word ", 100)
	got := excerpt(long, 50)
	assert.True(t, strings.HasSuffix(got, "…"))
	assert.LessOrEqual(t, len([]rune(got)), 51)
	assert.Equal(t, "ééé…", excerpt("éééé", 3))
}
