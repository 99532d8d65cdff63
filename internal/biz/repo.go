package biz

import (
	"context"
	"io"
	"time"
)

// NewUser is the input for creating a local account.
type NewUser struct {
	Email        string
	Name         string
	RoleID       int64
	PasswordHash *string
}

// LinkRequest is the input for UserRepo.LinkOrCreate.
type LinkRequest struct {
	Identity ExternalIdentity
	// MatchEmail allows attaching the identity to an existing user with the
	// same email. When false and the email is taken, ErrEmailTaken is
	// returned.
	MatchEmail bool
	// DefaultRole is the role name given to newly created users.
	DefaultRole string
}

// UserRepo 用户仓库接口
type UserRepo interface {
	// FindActiveByEmail returns an active user by email, for password login.
	FindActiveByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id int64) (*User, error)
	List(ctx context.Context) ([]User, error)
	Count(ctx context.Context) (int, error)
	Create(ctx context.Context, u NewUser) (*User, error)
	Update(ctx context.Context, id int64, name string, roleID int64) error
	UpdatePassword(ctx context.Context, id int64, hash string) error
	SetActive(ctx context.Context, id int64, active bool) error

	// FindByProvider returns the user linked to (provider, providerID), or
	// ErrUserNotFound.
	FindByProvider(ctx context.Context, provider, providerID string) (*User, error)
	// LinkOrCreate resolves or creates the user and inserts the auth
	// connection in a single transaction. Either both writes happen or
	// neither does.
	LinkOrCreate(ctx context.Context, req LinkRequest) (*User, error)
}

// RoleRepo 角色仓库接口
type RoleRepo interface {
	List(ctx context.Context) ([]Role, error)
	FindByID(ctx context.Context, id int64) (*Role, error)
}

// PostInput is a validated post write.
type PostInput struct {
	Title           string
	Content         string
	Status          string
	Slug            string
	FeaturedMediaID *int64
	PublishedAt     *time.Time
	MetaTitle       *string
	MetaDescription *string
}

// PostRepo 文章仓库接口
type PostRepo interface {
	List(ctx context.Context) ([]Post, error)
	Count(ctx context.Context) (int, error)
	FindBySlug(ctx context.Context, slug string) (*Post, error)
	Create(ctx context.Context, in PostInput) (int64, error)
	Update(ctx context.Context, id int64, in PostInput) error
	SoftDeleteBySlug(ctx context.Context, slug string) error
	RestoreBySlug(ctx context.Context, slug string) error
	// ListPublished returns the latest published, non-deleted posts.
	ListPublished(ctx context.Context, limit int) ([]Post, error)
	FindPublishedByID(ctx context.Context, id int64) (*Post, error)
}

// MediaRepo 媒体仓库接口
type MediaRepo interface {
	List(ctx context.Context) ([]Media, error)
	Count(ctx context.Context) (int, error)
	FindByID(ctx context.Context, id int64) (*Media, error)
	Create(ctx context.Context, m Media) (int64, error)
	Delete(ctx context.Context, id int64) error
}

// MediaStorage stores uploaded file contents.
type MediaStorage interface {
	// Save writes r under filename and returns the public path prefix.
	Save(filename string, r io.Reader) (path string, err error)
	Remove(filename string) error
}
