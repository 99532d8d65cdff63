package biz

import (
	"strings"
	"time"
)

// Role names seeded by the initial migration.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// Post statuses.
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
)

// User is a local account. PasswordHash is nil for social-only accounts.
type User struct {
	ID           int64
	Email        string
	Name         string
	RoleID       int64
	RoleName     string
	PasswordHash *string
	Active       bool
	CreatedAt    time.Time
}

// IsAdmin reports whether the user holds the administrative role.
func (u *User) IsAdmin() bool {
	return u.RoleName == RoleAdmin
}

// Role is a named permission level.
type Role struct {
	ID   int64
	Name string
}

// AuthConnection binds an external identity to a local user. It is unique
// per (Provider, ProviderID).
type AuthConnection struct {
	ID         int64
	UserID     int64
	Provider   string
	ProviderID string
	CreatedAt  time.Time
}

// ExternalIdentity is the normalized, untrusted profile returned by an
// identity provider.
type ExternalIdentity struct {
	Provider   string
	ProviderID string
	Email      string
	Name       string
	// EmailVerified is nil when the provider does not say.
	EmailVerified *bool
	// PlaceholderEmail is set when Email was synthesized from the provider
	// username and is not deliverable.
	PlaceholderEmail bool
}

// Validate rejects identities without a stable provider id.
func (e ExternalIdentity) Validate() error {
	if strings.TrimSpace(e.Provider) == "" || strings.TrimSpace(e.ProviderID) == "" {
		return ErrInvalidIdentity
	}
	return nil
}

// Post is a blog post. Nullable columns are pointers.
type Post struct {
	ID              int64
	Title           string
	Content         string
	Status          string
	Slug            string
	FeaturedMediaID *int64
	PublishedAt     *time.Time
	MetaTitle       *string
	MetaDescription *string
	CreatedAt       time.Time
	DeletedAt       *time.Time

	// FeaturedMedia is populated by the public listing queries.
	FeaturedMedia *Media
}

// Deleted reports whether the post is in the trash.
func (p *Post) Deleted() bool {
	return p.DeletedAt != nil
}

// DisplayTitle prefers the SEO title when one is set.
func (p *Post) DisplayTitle() string {
	if p.MetaTitle != nil && *p.MetaTitle != "" {
		return *p.MetaTitle
	}
	return p.Title
}

// Media is an uploaded image.
type Media struct {
	ID           int64
	Filename     string
	OriginalName string
	Path         string
	MimeType     string
	Size         int64
	Alt          string
	CreatedAt    time.Time
}

// Stats are the dashboard counters.
type Stats struct {
	Posts int
	Users int
	Media int
}
