package biz

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func boolPtr(b bool) *bool { return &b }

func TestResolve_FastPath(t *testing.T) {
	repo := new(MockUserRepo)
	existing := &User{ID: 7, Email: "a@x.com", RoleName: RoleUser}
	repo.On("FindByProvider", mock.Anything, "github", "abc").Return(existing, nil)

	linker := NewAccountLinker(repo, nil, nil)
	u, err := linker.Resolve(context.Background(), ExternalIdentity{Provider: "github", ProviderID: "abc", Email: "a@x.com"})

	require.NoError(t, err)
	assert.Equal(t, int64(7), u.ID)
	repo.AssertNotCalled(t, "LinkOrCreate", mock.Anything, mock.Anything)
}

func TestResolve_LinksOnFirstLogin(t *testing.T) {
	repo := new(MockUserRepo)
	id := ExternalIdentity{Provider: "discord", ProviderID: "xyz", Email: "a@x.com", Name: "A"}
	repo.On("FindByProvider", mock.Anything, "discord", "xyz").Return(nil, ErrUserNotFound)
	repo.On("LinkOrCreate", mock.Anything, LinkRequest{Identity: id, MatchEmail: true, DefaultRole: RoleUser}).
		Return(&User{ID: 3}, nil)

	u, err := NewAccountLinker(repo, TrustProviderEmail, nil).Resolve(context.Background(), id)

	require.NoError(t, err)
	assert.Equal(t, int64(3), u.ID)
	repo.AssertExpectations(t)
}

func TestResolve_RejectsMissingProviderID(t *testing.T) {
	repo := new(MockUserRepo)

	_, err := NewAccountLinker(repo, nil, nil).Resolve(context.Background(), ExternalIdentity{Provider: "github", ProviderID: " "})

	assert.ErrorIs(t, err, ErrInvalidIdentity)
	repo.AssertNotCalled(t, "FindByProvider", mock.Anything, mock.Anything, mock.Anything)
}

func TestResolve_LostRaceReusesWinner(t *testing.T) {
	repo := new(MockUserRepo)
	id := ExternalIdentity{Provider: "github", ProviderID: "abc", Email: "a@x.com"}
	repo.On("FindByProvider", mock.Anything, "github", "abc").Return(nil, ErrUserNotFound).Once()
	repo.On("LinkOrCreate", mock.Anything, mock.Anything).Return(nil, ErrConnectionExists)
	repo.On("FindByProvider", mock.Anything, "github", "abc").Return(&User{ID: 9}, nil).Once()

	u, err := NewAccountLinker(repo, nil, nil).Resolve(context.Background(), id)

	require.NoError(t, err)
	assert.Equal(t, int64(9), u.ID)
}

func TestResolve_PlaceholderEmailNeverMatches(t *testing.T) {
	repo := new(MockUserRepo)
	id := ExternalIdentity{Provider: "github", ProviderID: "2", Email: "bob+2@github.placeholder", PlaceholderEmail: true}
	repo.On("FindByProvider", mock.Anything, "github", "2").Return(nil, ErrUserNotFound)
	repo.On("LinkOrCreate", mock.Anything, LinkRequest{Identity: id, MatchEmail: false, DefaultRole: RoleUser}).
		Return(&User{ID: 4}, nil)

	always := func(ExternalIdentity) bool { return true }
	u, err := NewAccountLinker(repo, always, nil).Resolve(context.Background(), id)

	require.NoError(t, err)
	assert.Equal(t, int64(4), u.ID)
	repo.AssertExpectations(t)
}

func TestResolve_LostEmailRaceRetriesOnce(t *testing.T) {
	repo := new(MockUserRepo)
	id := ExternalIdentity{Provider: "github", ProviderID: "abc", Email: "a@x.com"}
	repo.On("FindByProvider", mock.Anything, "github", "abc").Return(nil, ErrUserNotFound).Twice()
	repo.On("LinkOrCreate", mock.Anything, mock.Anything).Return(nil, ErrConnectionExists).Once()
	repo.On("LinkOrCreate", mock.Anything, mock.Anything).Return(&User{ID: 11}, nil).Once()

	u, err := NewAccountLinker(repo, nil, nil).Resolve(context.Background(), id)

	require.NoError(t, err)
	assert.Equal(t, int64(11), u.ID)
	repo.AssertExpectations(t)
}

func TestResolve_RepeatedRaceIsWrapped(t *testing.T) {
	repo := new(MockUserRepo)
	id := ExternalIdentity{Provider: "github", ProviderID: "abc", Email: "a@x.com"}
	repo.On("FindByProvider", mock.Anything, "github", "abc").Return(nil, ErrUserNotFound)
	repo.On("LinkOrCreate", mock.Anything, mock.Anything).Return(nil, ErrConnectionExists)

	_, err := NewAccountLinker(repo, nil, nil).Resolve(context.Background(), id)

	assert.ErrorIs(t, err, ErrConnectionExists)
	assert.Contains(t, err.Error(), "failed to link account")
	repo.AssertNumberOfCalls(t, "LinkOrCreate", 2)
}

func TestResolve_PropagatesTransactionFailure(t *testing.T) {
	repo := new(MockUserRepo)
	boom := errors.New("disk full")
	repo.On("FindByProvider", mock.Anything, "github", "abc").Return(nil, ErrUserNotFound)
	repo.On("LinkOrCreate", mock.Anything, mock.Anything).Return(nil, boom)

	_, err := NewAccountLinker(repo, nil, nil).Resolve(context.Background(), ExternalIdentity{Provider: "github", ProviderID: "abc"})

	assert.ErrorIs(t, err, boom)
}

func TestResolve_LookupFailureIsNotTreatedAsMissing(t *testing.T) {
	repo := new(MockUserRepo)
	repo.On("FindByProvider", mock.Anything, "github", "abc").Return(nil, errors.New("connection refused"))

	_, err := NewAccountLinker(repo, nil, nil).Resolve(context.Background(), ExternalIdentity{Provider: "github", ProviderID: "abc"})

	assert.Error(t, err)
	repo.AssertNotCalled(t, "LinkOrCreate", mock.Anything, mock.Anything)
}

func TestEmailPolicies(t *testing.T) {
	unverified := ExternalIdentity{Provider: "github", ProviderID: "1", Email: "a@x.com"}
	verified := unverified
	verified.EmailVerified = boolPtr(true)
	placeholder := verified
	placeholder.PlaceholderEmail = true

	assert.True(t, TrustProviderEmail(unverified))
	assert.False(t, TrustProviderEmail(placeholder))
	assert.False(t, RequireVerifiedEmail(unverified))
	assert.True(t, RequireVerifiedEmail(verified))
	assert.False(t, RequireVerifiedEmail(placeholder))
	assert.False(t, NeverLinkByEmail(verified))
}
