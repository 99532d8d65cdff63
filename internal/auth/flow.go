package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"minicms/internal/biz"
	"minicms/internal/metrics"
	"minicms/internal/session"

	"golang.org/x/oauth2"
)

var (
	// ErrStateMismatch is returned when the callback state is missing or
	// does not equal the one issued for this session. It is a security
	// error, not a provider error.
	ErrStateMismatch = errors.New("oauth state mismatch")
	// ErrMissingCode is returned when the callback carries no authorization
	// code, for example because the user denied access.
	ErrMissingCode = errors.New("authorization code missing")
	// ErrTokenExchange is returned when the code cannot be exchanged for an
	// access token.
	ErrTokenExchange = errors.New("token exchange failed")
	// ErrAccountDisabled is returned when the resolved user is inactive.
	ErrAccountDisabled = errors.New("account is disabled")
)

// Resolver maps a verified external identity to a local user.
type Resolver interface {
	Resolve(ctx context.Context, id biz.ExternalIdentity) (*biz.User, error)
}

// Flow runs the authorization code login against configured providers.
type Flow struct {
	providers *Providers
	resolver  Resolver
	client    *http.Client
	spent     *spentStates
	now       func() time.Time
	logger    *slog.Logger
}

// NewFlow 创建 OAuth 登录流程
func NewFlow(providers *Providers, resolver Resolver, client *http.Client, logger *slog.Logger) *Flow {
	if logger == nil {
		logger = slog.Default()
	}
	return &Flow{
		providers: providers,
		resolver:  resolver,
		client:    client,
		spent:     newSpentStates(),
		now:       time.Now,
		logger:    logger,
	}
}

// Providers returns the configured providers.
func (f *Flow) Providers() *Providers {
	return f.providers
}

// Begin issues a fresh state into sess and returns the provider's
// authorization URL. The caller must save sess before redirecting.
func (f *Flow) Begin(sess *session.Session, name string) (string, error) {
	p, err := f.providers.Get(name)
	if err != nil {
		return "", err
	}

	state, err := NewState()
	if err != nil {
		return "", err
	}

	var (
		verifier string
		opts     []oauth2.AuthCodeOption
	)
	if p.PKCE() {
		if verifier, err = GenerateCodeVerifier(); err != nil {
			return "", err
		}
		opts = append(opts,
			oauth2.SetAuthURLParam("code_challenge", GenerateCodeChallenge(verifier)),
			oauth2.SetAuthURLParam("code_challenge_method", "S256"),
		)
	}

	sess.IssueState(session.PendingLogin{
		Provider: p.Name,
		State:    state,
		Verifier: verifier,
		IssuedAt: f.now(),
	})
	return p.oauth2Config.AuthCodeURL(state, opts...), nil
}

// Complete handles the provider callback. The pending state is consumed
// before anything else, so a state can never be replayed. On success the
// user is recorded in sess; the caller must save it.
func (f *Flow) Complete(ctx context.Context, sess *session.Session, name string, query url.Values) (*biz.User, error) {
	pending := sess.ConsumeState()

	user, outcome, err := f.complete(ctx, name, pending, query)
	if outcome == metrics.OutcomeUnknownProvider {
		// keep arbitrary path segments out of the label set
		metrics.RecordOAuthLogin("unknown", outcome)
	} else {
		metrics.RecordOAuthLogin(name, outcome)
	}
	if err != nil {
		return nil, err
	}

	sess.SetUser(user.ID, user.RoleName)
	f.logger.Info("oauth login succeeded", "provider", name, "user_id", user.ID)
	return user, nil
}

func (f *Flow) complete(ctx context.Context, name string, pending session.PendingLogin, query url.Values) (*biz.User, string, error) {
	p, err := f.providers.Get(name)
	if err != nil {
		return nil, metrics.OutcomeUnknownProvider, err
	}

	if !f.verifyState(pending, p.Name, query.Get("state")) {
		return nil, metrics.OutcomeStateMismatch, ErrStateMismatch
	}
	verifier := pending.Verifier

	code := query.Get("code")
	if code == "" {
		if reason := query.Get("error"); reason != "" {
			return nil, metrics.OutcomeMissingCode, fmt.Errorf("%w: provider returned %s", ErrMissingCode, reason)
		}
		return nil, metrics.OutcomeMissingCode, ErrMissingCode
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, f.client)
	var opts []oauth2.AuthCodeOption
	if verifier != "" {
		opts = append(opts, oauth2.SetAuthURLParam("code_verifier", verifier))
	}
	token, err := p.oauth2Config.Exchange(ctx, code, opts...)
	if err != nil {
		return nil, metrics.OutcomeTokenExchange, fmt.Errorf("%w: %v", ErrTokenExchange, err)
	}
	if token.AccessToken == "" {
		return nil, metrics.OutcomeTokenExchange, fmt.Errorf("%w: no access token in response", ErrTokenExchange)
	}

	identity, err := fetchProfile(ctx, f.client, p, token)
	if errors.Is(err, ErrMissingProviderID) {
		return nil, metrics.OutcomeMissingID, err
	}
	if err != nil {
		return nil, metrics.OutcomeProfileFetch, err
	}

	user, err := f.resolver.Resolve(ctx, identity)
	if err != nil {
		return nil, metrics.OutcomeLinkFailed, err
	}
	if !user.Active {
		return nil, metrics.OutcomeAccountDisabled, ErrAccountDisabled
	}
	return user, metrics.OutcomeSuccess, nil
}

// verifyState checks the callback state against the pending login. The
// state must have been issued for this provider, be younger than StateTTL
// and not have been spent before, whatever the session store returned.
func (f *Flow) verifyState(pending session.PendingLogin, provider, got string) bool {
	if pending.State == "" || got == "" {
		return false
	}
	if subtle.ConstantTimeCompare([]byte(pending.State), []byte(got)) != 1 {
		return false
	}
	if pending.Provider != provider {
		return false
	}
	now := f.now()
	expires := pending.IssuedAt.Add(StateTTL)
	if !now.Before(expires) {
		return false
	}
	return f.spent.spend(got, expires, now)
}
