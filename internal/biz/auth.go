package biz

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// PasswordHasher hashes and verifies passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

// AuthUsecase handles email/password login.
type AuthUsecase struct {
	users  UserRepo
	hasher PasswordHasher
}

// NewAuthUsecase 创建 AuthUsecase
func NewAuthUsecase(users UserRepo, hasher PasswordHasher) *AuthUsecase {
	return &AuthUsecase{users: users, hasher: hasher}
}

// Login checks credentials. Missing input yields ValidationErrors; every
// other failure yields ErrInvalidCredentials so callers cannot tell unknown
// accounts from wrong passwords.
func (uc *AuthUsecase) Login(ctx context.Context, email, password string) (*User, error) {
	email = strings.TrimSpace(email)

	var errs ValidationErrors
	if email == "" {
		errs = append(errs, "Email is required.")
	}
	if password == "" {
		errs = append(errs, "Password is required.")
	}
	if len(errs) > 0 {
		return nil, errs
	}

	u, err := uc.users.FindActiveByEmail(ctx, email)
	if errors.Is(err, ErrUserNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if u.PasswordHash == nil || *u.PasswordHash == "" {
		return nil, ErrInvalidCredentials
	}
	if err := uc.hasher.Compare(*u.PasswordHash, password); err != nil {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}
