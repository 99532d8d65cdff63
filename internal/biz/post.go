package biz

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	minTitleLength       = 3
	minContentLength     = 10
	maxMetaDescription   = 160
	defaultPublishedPage = 6
	maxPublishedPage     = 50
)

var (
	titleCharsRe = regexp.MustCompile(`^[a-zA-Z0-9 ]+$`)
	slugStripRe  = regexp.MustCompile(`[^a-z0-9]`)
)

// publishedAtLayouts are accepted for the scheduling field; the first one is
// what <input type="datetime-local"> submits.
var publishedAtLayouts = []string{
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// PostForm is the raw post form as submitted.
type PostForm struct {
	Title           string
	Content         string
	Status          string
	Slug            string
	FeaturedMediaID string
	PublishedAt     string
	MetaTitle       string
	MetaDescription string
}

// Slugify keeps only lowercase ASCII letters and digits: "Post 15" -> "post15".
func Slugify(s string) string {
	return slugStripRe.ReplaceAllString(strings.ToLower(s), "")
}

// PostUsecase 文章业务逻辑
type PostUsecase struct {
	posts PostRepo
	media MediaRepo
}

// NewPostUsecase 创建 PostUsecase
func NewPostUsecase(posts PostRepo, media MediaRepo) *PostUsecase {
	return &PostUsecase{posts: posts, media: media}
}

// List returns every post, newest first, including trashed ones.
func (uc *PostUsecase) List(ctx context.Context) ([]Post, error) {
	return uc.posts.List(ctx)
}

// Get returns a post by slug.
func (uc *PostUsecase) Get(ctx context.Context, slug string) (*Post, error) {
	return uc.posts.FindBySlug(ctx, slug)
}

// Create validates form and stores a new post. It returns the slug.
func (uc *PostUsecase) Create(ctx context.Context, form PostForm) (string, error) {
	in, errs := uc.parse(ctx, form)
	if len(errs) == 0 {
		_, err := uc.posts.FindBySlug(ctx, in.Slug)
		switch {
		case err == nil:
			errs = append(errs, fmt.Sprintf("The generated URL '%s' already exists. Choose another title.", in.Slug))
		case !errors.Is(err, ErrPostNotFound):
			return "", err
		}
	}
	if len(errs) > 0 {
		return in.Slug, errs
	}

	if _, err := uc.posts.Create(ctx, in); err != nil {
		if errors.Is(err, ErrSlugTaken) {
			return in.Slug, ValidationErrors{fmt.Sprintf("The generated URL '%s' already exists. Choose another title.", in.Slug)}
		}
		return "", fmt.Errorf("failed to create post: %w", err)
	}
	return in.Slug, nil
}

// Update validates form and rewrites the post currently at currentSlug.
func (uc *PostUsecase) Update(ctx context.Context, currentSlug string, form PostForm) (string, error) {
	post, err := uc.posts.FindBySlug(ctx, currentSlug)
	if err != nil {
		return "", err
	}

	in, errs := uc.parse(ctx, form)
	if len(errs) == 0 {
		existing, err := uc.posts.FindBySlug(ctx, in.Slug)
		switch {
		case err == nil && existing.ID != post.ID:
			errs = append(errs, fmt.Sprintf("The URL '%s' is already used by another post.", in.Slug))
		case err != nil && !errors.Is(err, ErrPostNotFound):
			return "", err
		}
	}
	if len(errs) > 0 {
		return in.Slug, errs
	}

	if err := uc.posts.Update(ctx, post.ID, in); err != nil {
		if errors.Is(err, ErrSlugTaken) {
			return in.Slug, ValidationErrors{fmt.Sprintf("The URL '%s' is already used by another post.", in.Slug)}
		}
		return "", fmt.Errorf("failed to update post: %w", err)
	}
	return in.Slug, nil
}

// Delete moves a post to the trash.
func (uc *PostUsecase) Delete(ctx context.Context, slug string) error {
	return uc.posts.SoftDeleteBySlug(ctx, slug)
}

// Restore takes a post out of the trash.
func (uc *PostUsecase) Restore(ctx context.Context, slug string) error {
	return uc.posts.RestoreBySlug(ctx, slug)
}

// Latest returns published posts for the public home page. limit is
// clamped to [1, 50]; zero means the default page size.
func (uc *PostUsecase) Latest(ctx context.Context, limit int) ([]Post, error) {
	if limit == 0 {
		limit = defaultPublishedPage
	}
	limit = max(1, min(maxPublishedPage, limit))
	return uc.posts.ListPublished(ctx, limit)
}

// Published returns a single published post by id.
func (uc *PostUsecase) Published(ctx context.Context, id int64) (*Post, error) {
	return uc.posts.FindPublishedByID(ctx, id)
}

func (uc *PostUsecase) parse(ctx context.Context, form PostForm) (PostInput, ValidationErrors) {
	var errs ValidationErrors

	title := strings.TrimSpace(form.Title)
	content := strings.TrimSpace(form.Content)
	status := form.Status
	if status == "" {
		status = StatusDraft
	}

	rawSlug := strings.TrimSpace(form.Slug)
	if rawSlug == "" {
		rawSlug = title
	}
	in := PostInput{
		Title:   title,
		Content: content,
		Status:  status,
		Slug:    Slugify(rawSlug),
	}

	switch {
	case title == "":
		errs = append(errs, "Title is required.")
	case utf8.RuneCountInString(title) < minTitleLength:
		errs = append(errs, fmt.Sprintf("Title must be at least %d characters.", minTitleLength))
	case !titleCharsRe.MatchString(title):
		errs = append(errs, "Title may only contain letters, digits and spaces.")
	}

	switch {
	case content == "":
		errs = append(errs, "Content is required.")
	case utf8.RuneCountInString(content) < minContentLength:
		errs = append(errs, fmt.Sprintf("Content must be at least %d characters.", minContentLength))
	}

	if status != StatusDraft && status != StatusPublished {
		errs = append(errs, "Status must be draft or published.")
	}

	if title != "" && in.Slug == "" {
		errs = append(errs, "The URL must contain at least one letter or digit.")
	}

	if raw := strings.TrimSpace(form.FeaturedMediaID); raw != "" {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil && id > 0 {
			in.FeaturedMediaID = &id
			if _, err := uc.media.FindByID(ctx, id); err != nil {
				errs = append(errs, "Featured image is invalid.")
			}
		}
	}

	if meta := strings.TrimSpace(form.MetaTitle); meta != "" {
		in.MetaTitle = &meta
	}
	if desc := strings.TrimSpace(form.MetaDescription); desc != "" {
		if utf8.RuneCountInString(desc) > maxMetaDescription {
			errs = append(errs, fmt.Sprintf("Meta description may be at most %d characters.", maxMetaDescription))
		}
		in.MetaDescription = &desc
	}

	if raw := strings.TrimSpace(form.PublishedAt); raw != "" {
		t, ok := parsePublishedAt(raw)
		if !ok {
			errs = append(errs, "Invalid publication date.")
		} else {
			in.PublishedAt = &t
		}
	}

	return in, errs
}

func parsePublishedAt(raw string) (time.Time, bool) {
	for _, layout := range publishedAtLayouts {
		if t, err := time.ParseInLocation(layout, raw, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
