package data

import (
	"context"
	"testing"

	"minicms/internal/biz"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func countRows(t *testing.T, db *DB, table string) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM "+table).Scan(&n))
	return n
}

func TestUserRepo_CreateAndFind(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepo(newTestDB(t))
	hash := "h"

	u, err := repo.Create(ctx, biz.NewUser{Email: "Admin@Example.com", Name: "Admin", RoleID: 1, PasswordHash: &hash})
	require.NoError(t, err)
	assert.Equal(t, "admin@example.com", u.Email)
	assert.True(t, u.IsAdmin())
	assert.True(t, u.Active)

	_, err = repo.Create(ctx, biz.NewUser{Email: "admin@example.com", Name: "Dup", RoleID: 2})
	assert.ErrorIs(t, err, biz.ErrEmailTaken)

	found, err := repo.FindActiveByEmail(ctx, "admin@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, found.ID)
	require.NotNil(t, found.PasswordHash)

	require.NoError(t, repo.SetActive(ctx, u.ID, false))
	_, err = repo.FindActiveByEmail(ctx, "admin@example.com")
	assert.ErrorIs(t, err, biz.ErrUserNotFound)

	assert.ErrorIs(t, repo.Update(ctx, 999, "x", 2), biz.ErrUserNotFound)
}

func TestLinkOrCreate_IsIdempotentThroughLinker(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	linker := biz.NewAccountLinker(NewUserRepo(db), biz.TrustProviderEmail, nil)
	id := biz.ExternalIdentity{Provider: "github", ProviderID: "42", Email: "octo@example.com", Name: "Octo"}

	first, err := linker.Resolve(ctx, id)
	require.NoError(t, err)
	second, err := linker.Resolve(ctx, id)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, biz.RoleUser, first.RoleName)
	assert.Nil(t, first.PasswordHash)
	assert.Equal(t, 1, countRows(t, db, "users"))
	assert.Equal(t, 1, countRows(t, db, "auth_connections"))
}

func TestLinkOrCreate_CrossLinksByEmail(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	linker := biz.NewAccountLinker(NewUserRepo(db), biz.TrustProviderEmail, nil)

	gh, err := linker.Resolve(ctx, biz.ExternalIdentity{Provider: "github", ProviderID: "1", Email: "same@example.com", Name: "A"})
	require.NoError(t, err)
	dc, err := linker.Resolve(ctx, biz.ExternalIdentity{Provider: "discord", ProviderID: "9", Email: "SAME@example.com", Name: "B"})
	require.NoError(t, err)

	assert.Equal(t, gh.ID, dc.ID)
	assert.Equal(t, 1, countRows(t, db, "users"))
	assert.Equal(t, 2, countRows(t, db, "auth_connections"))
}

func TestLinkOrCreate_RefusesEmailMatchWhenNotAllowed(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewUserRepo(db)
	_, err := repo.Create(ctx, biz.NewUser{Email: "taken@example.com", Name: "Local", RoleID: 2})
	require.NoError(t, err)

	_, err = biz.NewAccountLinker(repo, biz.NeverLinkByEmail, nil).Resolve(ctx,
		biz.ExternalIdentity{Provider: "github", ProviderID: "7", Email: "taken@example.com", Name: "X"})

	assert.ErrorIs(t, err, biz.ErrEmailTaken)
	assert.Equal(t, 0, countRows(t, db, "auth_connections"))
}

func TestLinkOrCreate_DuplicateConnection(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewUserRepo(db)
	req := biz.LinkRequest{
		Identity:    biz.ExternalIdentity{Provider: "github", ProviderID: "5", Email: "a@example.com", Name: "A"},
		MatchEmail:  true,
		DefaultRole: biz.RoleUser,
	}

	_, err := repo.LinkOrCreate(ctx, req)
	require.NoError(t, err)
	_, err = repo.LinkOrCreate(ctx, req)

	assert.ErrorIs(t, err, biz.ErrConnectionExists)
	assert.Equal(t, 1, countRows(t, db, "users"))
}

func TestLinkOrCreate_RollsBackNewUserWhenConnectionExists(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewUserRepo(db)
	identity := biz.ExternalIdentity{Provider: "github", ProviderID: "5", Email: "a@example.com", Name: "A"}
	_, err := repo.LinkOrCreate(ctx, biz.LinkRequest{Identity: identity, MatchEmail: true, DefaultRole: biz.RoleUser})
	require.NoError(t, err)

	// same pair, new email: a user is inserted before the connection fails
	identity.Email = "b@example.com"
	_, err = repo.LinkOrCreate(ctx, biz.LinkRequest{Identity: identity, MatchEmail: true, DefaultRole: biz.RoleUser})

	assert.ErrorIs(t, err, biz.ErrConnectionExists)
	assert.Equal(t, 1, countRows(t, db, "users"))
	assert.Equal(t, 1, countRows(t, db, "auth_connections"))
	_, err = repo.FindActiveByEmail(ctx, "b@example.com")
	assert.ErrorIs(t, err, biz.ErrUserNotFound)
}

func TestLinkOrCreate_PlaceholderEmailsStaySeparate(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	linker := biz.NewAccountLinker(NewUserRepo(db), biz.TrustProviderEmail, nil)

	first, err := linker.Resolve(ctx, biz.ExternalIdentity{
		Provider: "github", ProviderID: "1", Email: "bob@github.placeholder", Name: "bob", PlaceholderEmail: true,
	})
	require.NoError(t, err)

	// a second identity that synthesized the same address is not merged
	_, err = linker.Resolve(ctx, biz.ExternalIdentity{
		Provider: "github", ProviderID: "2", Email: "bob@github.placeholder", Name: "bob", PlaceholderEmail: true,
	})
	assert.ErrorIs(t, err, biz.ErrEmailTaken)

	other, err := linker.Resolve(ctx, biz.ExternalIdentity{
		Provider: "github", ProviderID: "3", Email: "bob+3@github.placeholder", Name: "bob", PlaceholderEmail: true,
	})
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, other.ID)
	assert.Equal(t, 2, countRows(t, db, "users"))
	assert.Equal(t, 2, countRows(t, db, "auth_connections"))
}

func TestLinkOrCreate_UnknownDefaultRole(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	_, err := NewUserRepo(db).LinkOrCreate(ctx, biz.LinkRequest{
		Identity:    biz.ExternalIdentity{Provider: "github", ProviderID: "5", Email: "a@example.com", Name: "A"},
		DefaultRole: "missing-role",
	})

	assert.ErrorIs(t, err, biz.ErrRoleNotFound)
	assert.Equal(t, 0, countRows(t, db, "users"))
}
