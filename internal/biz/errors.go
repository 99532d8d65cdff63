package biz

import (
	"errors"
	"strings"
)

var ErrUserNotFound = errors.New("user not found")
var ErrPostNotFound = errors.New("post not found")
var ErrMediaNotFound = errors.New("media not found")
var ErrRoleNotFound = errors.New("role not found")

var (
	// ErrInvalidCredentials is deliberately the same for unknown users,
	// inactive users and wrong passwords.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidIdentity is returned for external identities without a
	// provider id.
	ErrInvalidIdentity = errors.New("external identity has no provider id")
	// ErrConnectionExists is returned when (provider, provider_id) is
	// already linked, e.g. after losing a concurrent first-login race.
	ErrConnectionExists = errors.New("auth connection already exists")
	// ErrEmailTaken is returned when an identity may not be linked by email
	// but a user with that email already exists.
	ErrEmailTaken = errors.New("email already belongs to another account")
	ErrSlugTaken  = errors.New("slug already in use")
)

// ValidationErrors collects user input problems. They are shown back on the
// originating form and never propagate further.
type ValidationErrors []string

func (v ValidationErrors) Error() string {
	return "validation failed: " + strings.Join(v, "; ")
}

// AsValidation extracts ValidationErrors from err.
func AsValidation(err error) (ValidationErrors, bool) {
	var v ValidationErrors
	if errors.As(err, &v) {
		return v, true
	}
	return nil, false
}
