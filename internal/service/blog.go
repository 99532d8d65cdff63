package service

import (
	"context"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"minicms/internal/api"
	"minicms/internal/biz"
)

const (
	homePostLimit = 6
	excerptLength = 200
)

// blogService 公开博客服务实现
type blogService struct {
	posts *biz.PostUsecase
}

// NewBlogService 创建 BlogService
func NewBlogService(posts *biz.PostUsecase) api.BlogService {
	return &blogService{posts: posts}
}

// Home 返回最新发布的文章，进行 DTO 转换
func (s *blogService) Home(ctx context.Context) ([]api.PostCard, error) {
	posts, err := s.posts.Latest(ctx, homePostLimit)
	if err != nil {
		return nil, err
	}

	cards := make([]api.PostCard, 0, len(posts))
	for i := range posts {
		p := &posts[i]
		card := api.PostCard{
			ID:          p.ID,
			Title:       p.DisplayTitle(),
			Excerpt:     excerpt(p.Content, excerptLength),
			URL:         "/posts/" + strconv.FormatInt(p.ID, 10),
			PublishedAt: publishedAt(p),
		}
		card.ImageURL, card.ImageAlt = image(p)
		cards = append(cards, card)
	}
	return cards, nil
}

// Post 返回单篇已发布文章
func (s *blogService) Post(ctx context.Context, id int64) (*api.PostView, error) {
	p, err := s.posts.Published(ctx, id)
	if err != nil {
		return nil, err
	}

	view := &api.PostView{
		ID:          p.ID,
		Title:       p.DisplayTitle(),
		Paragraphs:  paragraphs(p.Content),
		PublishedAt: publishedAt(p),
	}
	if p.MetaDescription != nil {
		view.MetaDescription = *p.MetaDescription
	} else {
		view.MetaDescription = excerpt(p.Content, 160)
	}
	view.ImageURL, view.ImageAlt = image(p)
	return view, nil
}

func publishedAt(p *biz.Post) time.Time {
	if p.PublishedAt != nil {
		return *p.PublishedAt
	}
	return p.CreatedAt
}

func image(p *biz.Post) (url, alt string) {
	m := p.FeaturedMedia
	if m == nil {
		return "", ""
	}
	alt = m.Alt
	if alt == "" {
		alt = p.Title
	}
	return strings.TrimSuffix(m.Path, "/") + "/" + m.Filename, alt
}

// excerpt collapses whitespace and cuts s to at most n runes on a word
// boundary.
func excerpt(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	cut := string([]rune(s)[:n])
	if i := strings.LastIndexByte(cut, ' '); i > n/2 {
		cut = cut[:i]
	}
	return cut + "…"
}

// paragraphs splits content on blank lines.
func paragraphs(s string) []string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	var out []string
	for _, p := range strings.Split(s, "\n\n") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
