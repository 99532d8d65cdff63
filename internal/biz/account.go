package biz

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// EmailPolicy decides whether an external identity may be attached to an
// existing user that has the same email.
type EmailPolicy func(id ExternalIdentity) bool

// TrustProviderEmail links on any email the provider actually supplied.
func TrustProviderEmail(id ExternalIdentity) bool { return !id.PlaceholderEmail }

// RequireVerifiedEmail links only when the provider reports the email as
// verified.
func RequireVerifiedEmail(id ExternalIdentity) bool {
	return !id.PlaceholderEmail && id.EmailVerified != nil && *id.EmailVerified
}

// NeverLinkByEmail disables cross-provider linking.
func NeverLinkByEmail(ExternalIdentity) bool { return false }

// AccountLinker finds or creates the local user for a verified external
// identity.
type AccountLinker struct {
	users  UserRepo
	policy EmailPolicy
	logger *slog.Logger
}

// NewAccountLinker 创建 AccountLinker
func NewAccountLinker(users UserRepo, policy EmailPolicy, logger *slog.Logger) *AccountLinker {
	if policy == nil {
		policy = TrustProviderEmail
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AccountLinker{users: users, policy: policy, logger: logger}
}

// Resolve returns the user linked to (provider, providerID), linking or
// creating one on first login. Repeated calls with the same identity return
// the same user.
func (l *AccountLinker) Resolve(ctx context.Context, id ExternalIdentity) (*User, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	u, err := l.users.FindByProvider(ctx, id.Provider, id.ProviderID)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return nil, fmt.Errorf("failed to look up auth connection: %w", err)
	}

	// synthesized addresses never identify an existing account
	req := LinkRequest{
		Identity:    id,
		MatchEmail:  !id.PlaceholderEmail && l.policy(id),
		DefaultRole: RoleUser,
	}
	u, err = l.users.LinkOrCreate(ctx, req)
	if errors.Is(err, ErrConnectionExists) {
		u, err = l.users.FindByProvider(ctx, id.Provider, id.ProviderID)
		if err == nil {
			// a concurrent login for the same identity committed first
			l.logger.Info("auth connection created concurrently, reusing",
				"provider", id.Provider, "provider_id", id.ProviderID)
			return u, nil
		}
		if errors.Is(err, ErrUserNotFound) {
			// another identity created a user with this email first
			u, err = l.users.LinkOrCreate(ctx, req)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to link account: %w", err)
	}

	l.logger.Info("linked external identity",
		"provider", id.Provider, "provider_id", id.ProviderID, "user_id", u.ID)
	return u, nil
}
