package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"minicms/internal/biz"
	"minicms/internal/conf"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

var (
	// ErrProfileFetch is returned when the profile request fails or its body
	// cannot be decoded.
	ErrProfileFetch = errors.New("failed to fetch provider profile")
	// ErrMissingProviderID is returned when the profile has no stable id.
	ErrMissingProviderID = errors.New("provider profile has no id")
)

// maxProfileBytes bounds the profile response body.
const maxProfileBytes = 1 << 20

// fetchProfile loads and normalizes the provider's view of the user.
func fetchProfile(ctx context.Context, client *http.Client, p *Provider, token *oauth2.Token) (biz.ExternalIdentity, error) {
	var (
		id  biz.ExternalIdentity
		err error
	)
	switch p.Kind {
	case conf.KindGitHub:
		var u githubUser
		if err = getJSON(ctx, client, p.UserURL, "token "+token.AccessToken, &u); err == nil {
			id = normalizeGitHub(u)
		}
	case conf.KindDiscord:
		var u discordUser
		if err = getJSON(ctx, client, p.UserURL, "Bearer "+token.AccessToken, &u); err == nil {
			id = normalizeDiscord(u)
		}
	case conf.KindOIDC:
		id, err = fetchUserInfo(ctx, client, p, token)
	default:
		err = fmt.Errorf("unsupported provider kind %q", p.Kind)
	}
	if err != nil {
		return biz.ExternalIdentity{}, fmt.Errorf("%w: %v", ErrProfileFetch, err)
	}

	id.Provider = p.Name
	if id.ProviderID == "" {
		return biz.ExternalIdentity{}, ErrMissingProviderID
	}
	return id, nil
}

func getJSON(ctx context.Context, client *http.Client, url, authorization string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", authorization)

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxProfileBytes))
		return fmt.Errorf("unexpected status %s", resp.Status)
	}
	return json.NewDecoder(io.LimitReader(resp.Body, maxProfileBytes)).Decode(v)
}

func normalizeGitHub(u githubUser) biz.ExternalIdentity {
	id := biz.ExternalIdentity{
		ProviderID: rawID(u.ID),
		Name:       firstNonEmpty("GitHub User", u.Name, &u.Login),
		Email:      firstNonEmpty("", u.Email),
	}
	if id.Email == "" {
		id.Email = placeholderEmail(firstNonEmpty("user", &u.Login), id.ProviderID, "github")
		id.PlaceholderEmail = true
	}
	return id
}

func normalizeDiscord(u discordUser) biz.ExternalIdentity {
	id := biz.ExternalIdentity{
		ProviderID:    rawID(u.ID),
		Name:          firstNonEmpty("Discord User", u.GlobalName, &u.Username),
		Email:         firstNonEmpty("", u.Email),
		EmailVerified: u.Verified,
	}
	if id.Email == "" {
		id.Email = placeholderEmail(firstNonEmpty("user", &u.Username), id.ProviderID, "discord")
		id.PlaceholderEmail = true
		id.EmailVerified = nil
	}
	return id
}

// placeholderEmail synthesizes a non-deliverable address for an identity
// without email. The provider id keeps it unique per identity, since
// usernames can be renamed and reused.
func placeholderEmail(username, providerID, provider string) string {
	return strings.ToLower(username) + "+" + providerID + "@" + provider + ".placeholder"
}

func fetchUserInfo(ctx context.Context, client *http.Client, p *Provider, token *oauth2.Token) (biz.ExternalIdentity, error) {
	if p.oidc == nil {
		return biz.ExternalIdentity{}, errors.New("oidc provider not initialized")
	}
	info, err := p.oidc.UserInfo(oidc.ClientContext(ctx, client), oauth2.StaticTokenSource(token))
	if err != nil {
		return biz.ExternalIdentity{}, err
	}
	var claims oidcClaims
	if err := info.Claims(&claims); err != nil {
		return biz.ExternalIdentity{}, err
	}

	verified := info.EmailVerified
	id := biz.ExternalIdentity{
		ProviderID:    strings.TrimSpace(info.Subject),
		Email:         strings.TrimSpace(info.Email),
		EmailVerified: &verified,
	}
	id.Name = firstNonEmpty("User", &claims.Name, &claims.PreferredUsername, &id.Email)
	if id.Email == "" {
		id.Email = placeholderEmail("user", id.ProviderID, p.Name)
		id.PlaceholderEmail = true
		id.EmailVerified = nil
	}
	return id, nil
}
