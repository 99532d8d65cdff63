package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"

	"minicms/internal/conf"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

// ErrUnknownProvider is returned for provider names that are not configured.
var ErrUnknownProvider = errors.New("unknown identity provider")

// Provider is a configured identity provider.
type Provider struct {
	Name    string
	Kind    string
	UserURL string

	oauth2Config oauth2.Config
	oidc         *oidc.Provider // kind oidc only
}

// PKCE reports whether the login uses a code verifier.
func (p *Provider) PKCE() bool {
	return p.Kind == conf.KindOIDC
}

// Providers is the immutable set of configured providers.
type Providers struct {
	byName map[string]*Provider
	names  []string
}

// NewProviders builds the provider set. OIDC issuers are discovered using
// client, so a slow issuer fails startup within the client timeout.
func NewProviders(ctx context.Context, cfg conf.Auth, client *http.Client) (*Providers, error) {
	ps := &Providers{byName: make(map[string]*Provider, len(cfg.Providers))}
	for name, pc := range cfg.Providers {
		p, err := newProvider(ctx, name, pc, client)
		if err != nil {
			return nil, fmt.Errorf("provider %s: %w", name, err)
		}
		ps.byName[name] = p
		ps.names = append(ps.names, name)
	}
	sort.Strings(ps.names)
	return ps, nil
}

func newProvider(ctx context.Context, name string, pc conf.Provider, client *http.Client) (*Provider, error) {
	p := &Provider{
		Name:    name,
		Kind:    pc.Kind,
		UserURL: pc.UserURL,
		oauth2Config: oauth2.Config{
			ClientID:     pc.ClientID,
			ClientSecret: pc.ClientSecret,
			RedirectURL:  pc.RedirectURL,
			Scopes:       pc.Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:   pc.AuthURL,
				TokenURL:  pc.TokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
	}

	switch pc.Kind {
	case conf.KindGitHub, conf.KindDiscord:
		return p, nil
	case conf.KindOIDC:
		// Initialize OIDC provider (discovers .well-known/openid-configuration)
		provider, err := oidc.NewProvider(oidc.ClientContext(ctx, client), pc.Issuer)
		if err != nil {
			return nil, fmt.Errorf("failed to create OIDC provider: %w", err)
		}
		p.oidc = provider
		ep := provider.Endpoint()
		if pc.AuthURL == "" {
			p.oauth2Config.Endpoint.AuthURL = ep.AuthURL
		}
		if pc.TokenURL == "" {
			p.oauth2Config.Endpoint.TokenURL = ep.TokenURL
		}
		p.oauth2Config.Endpoint.AuthStyle = oauth2.AuthStyleAutoDetect
		return p, nil
	default:
		return nil, fmt.Errorf("unsupported provider kind %q", pc.Kind)
	}
}

// Get returns the named provider or ErrUnknownProvider.
func (ps *Providers) Get(name string) (*Provider, error) {
	p, ok := ps.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, name)
	}
	return p, nil
}

// Names returns the configured provider names in sorted order.
func (ps *Providers) Names() []string {
	return append([]string(nil), ps.names...)
}
