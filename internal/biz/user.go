package biz

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strconv"
	"strings"
)

const minPasswordLength = 8

// UserForm is the raw user form as submitted.
type UserForm struct {
	Email    string
	Name     string
	Password string
	RoleID   string
}

// UserUsecase 用户管理业务逻辑
type UserUsecase struct {
	users  UserRepo
	roles  RoleRepo
	hasher PasswordHasher
}

// NewUserUsecase 创建 UserUsecase
func NewUserUsecase(users UserRepo, roles RoleRepo, hasher PasswordHasher) *UserUsecase {
	return &UserUsecase{users: users, roles: roles, hasher: hasher}
}

func (uc *UserUsecase) List(ctx context.Context) ([]User, error) {
	return uc.users.List(ctx)
}

func (uc *UserUsecase) Get(ctx context.Context, id int64) (*User, error) {
	return uc.users.FindByID(ctx, id)
}

func (uc *UserUsecase) Roles(ctx context.Context) ([]Role, error) {
	return uc.roles.List(ctx)
}

// Create validates form and creates an active local account.
func (uc *UserUsecase) Create(ctx context.Context, form UserForm) (*User, error) {
	var errs ValidationErrors

	email := strings.TrimSpace(form.Email)
	name := strings.TrimSpace(form.Name)
	if email == "" {
		errs = append(errs, "Email is required.")
	} else if _, err := mail.ParseAddress(email); err != nil {
		errs = append(errs, "Email is invalid.")
	}
	if name == "" {
		errs = append(errs, "Name is required.")
	}
	errs = append(errs, validatePassword(form.Password)...)

	roleID, roleErrs := uc.parseRole(ctx, form.RoleID)
	errs = append(errs, roleErrs...)
	if len(errs) > 0 {
		return nil, errs
	}

	hash, err := uc.hasher.Hash(form.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	u, err := uc.users.Create(ctx, NewUser{Email: email, Name: name, RoleID: roleID, PasswordHash: &hash})
	if errors.Is(err, ErrEmailTaken) {
		return nil, ValidationErrors{"A user with this email already exists."}
	}
	return u, err
}

// Update changes a user's name and role.
func (uc *UserUsecase) Update(ctx context.Context, id int64, form UserForm) error {
	if _, err := uc.users.FindByID(ctx, id); err != nil {
		return err
	}

	var errs ValidationErrors
	name := strings.TrimSpace(form.Name)
	if name == "" {
		errs = append(errs, "Name is required.")
	}
	roleID, roleErrs := uc.parseRole(ctx, form.RoleID)
	errs = append(errs, roleErrs...)
	if len(errs) > 0 {
		return errs
	}

	return uc.users.Update(ctx, id, name, roleID)
}

// ResetPassword replaces the password hash.
func (uc *UserUsecase) ResetPassword(ctx context.Context, id int64, password string) error {
	if errs := validatePassword(password); len(errs) > 0 {
		return errs
	}
	hash, err := uc.hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	return uc.users.UpdatePassword(ctx, id, hash)
}

func (uc *UserUsecase) Disable(ctx context.Context, id int64) error {
	return uc.users.SetActive(ctx, id, false)
}

func (uc *UserUsecase) Enable(ctx context.Context, id int64) error {
	return uc.users.SetActive(ctx, id, true)
}

// EnsureAdmin creates an administrator from form when there are no users
// yet. It reports whether an account was created.
func (uc *UserUsecase) EnsureAdmin(ctx context.Context, form UserForm) (bool, error) {
	n, err := uc.users.Count(ctx)
	if err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}

	roles, err := uc.roles.List(ctx)
	if err != nil {
		return false, err
	}
	for _, r := range roles {
		if r.Name == RoleAdmin {
			form.RoleID = strconv.FormatInt(r.ID, 10)
		}
	}
	if form.RoleID == "" {
		return false, fmt.Errorf("role %q: %w", RoleAdmin, ErrRoleNotFound)
	}

	if _, err := uc.Create(ctx, form); err != nil {
		return false, err
	}
	return true, nil
}

func (uc *UserUsecase) parseRole(ctx context.Context, raw string) (int64, ValidationErrors) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, ValidationErrors{"Role is invalid."}
	}
	if _, err := uc.roles.FindByID(ctx, id); err != nil {
		return 0, ValidationErrors{"Role is invalid."}
	}
	return id, nil
}

func validatePassword(pw string) ValidationErrors {
	if pw == "" {
		return ValidationErrors{"Password is required."}
	}
	if len(pw) < minPasswordLength {
		return ValidationErrors{fmt.Sprintf("Password must be at least %d characters.", minPasswordLength)}
	}
	return nil
}
