package biz

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestLogin_ValidationErrors(t *testing.T) {
	uc := NewAuthUsecase(new(MockUserRepo), plainHasher{})

	_, err := uc.Login(context.Background(), "  ", "")

	verrs, ok := AsValidation(err)
	require.True(t, ok)
	assert.Len(t, verrs, 2)
}

func TestLogin_Success(t *testing.T) {
	repo := new(MockUserRepo)
	repo.On("FindActiveByEmail", mock.Anything, "a@x.com").
		Return(&User{ID: 1, RoleName: RoleAdmin, PasswordHash: strPtr("hashed:secret123")}, nil)

	u, err := NewAuthUsecase(repo, plainHasher{}).Login(context.Background(), " a@x.com ", "secret123")

	require.NoError(t, err)
	assert.True(t, u.IsAdmin())
}

func TestLogin_FailuresAreIndistinguishable(t *testing.T) {
	ctx := context.Background()

	unknown := new(MockUserRepo)
	unknown.On("FindActiveByEmail", mock.Anything, "nobody@x.com").Return(nil, ErrUserNotFound)
	_, errUnknown := NewAuthUsecase(unknown, plainHasher{}).Login(ctx, "nobody@x.com", "whatever1")

	wrong := new(MockUserRepo)
	wrong.On("FindActiveByEmail", mock.Anything, "a@x.com").Return(&User{ID: 1, PasswordHash: strPtr("hashed:right")}, nil)
	_, errWrong := NewAuthUsecase(wrong, plainHasher{}).Login(ctx, "a@x.com", "wrong")

	social := new(MockUserRepo)
	social.On("FindActiveByEmail", mock.Anything, "s@x.com").Return(&User{ID: 2}, nil)
	_, errSocial := NewAuthUsecase(social, plainHasher{}).Login(ctx, "s@x.com", "anything")

	for _, err := range []error{errUnknown, errWrong, errSocial} {
		assert.ErrorIs(t, err, ErrInvalidCredentials)
		assert.Equal(t, ErrInvalidCredentials.Error(), err.Error())
	}
}

func TestLogin_RepositoryFailurePropagates(t *testing.T) {
	repo := new(MockUserRepo)
	boom := errors.New("db down")
	repo.On("FindActiveByEmail", mock.Anything, "a@x.com").Return(nil, boom)

	_, err := NewAuthUsecase(repo, plainHasher{}).Login(context.Background(), "a@x.com", "secret")

	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrInvalidCredentials)
}
