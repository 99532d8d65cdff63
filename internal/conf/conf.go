package conf

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// MinSessionSecretLength is the minimum secret size for cookie and
// filesystem session stores.
const MinSessionSecretLength = 32

// Config is the config structure.
type Config struct {
	Server   Server   `yaml:"server"`
	Database Database `yaml:"database"`
	Session  Session  `yaml:"session"`
	Auth     Auth     `yaml:"auth"`
	Media    Media    `yaml:"media"`
	Admin    Admin    `yaml:"admin"`
	Log      Log      `yaml:"log"`
}

// Server is the server config.
type Server struct {
	Addr         string        `yaml:"addr" env:"MINICMS_ADDR"`
	BaseURL      string        `yaml:"base_url" env:"MINICMS_BASE_URL"`
	AdminPath    string        `yaml:"admin_path" env:"MINICMS_ADMIN_PATH"`
	ReadTimeout  time.Duration `yaml:"read_timeout" env:"MINICMS_READ_TIMEOUT"`
	WriteTimeout time.Duration `yaml:"write_timeout" env:"MINICMS_WRITE_TIMEOUT"`
}

// Database is the database config. Driver is "sqlite" or "postgres".
type Database struct {
	Driver string `yaml:"driver" env:"MINICMS_DB_DRIVER"`
	DSN    string `yaml:"dsn" env:"MINICMS_DB_DSN"`
}

// Session is the session store config. Store is "cookie", "filesystem"
// or "memory".
type Session struct {
	Store  string `yaml:"store" env:"MINICMS_SESSION_STORE"`
	Name   string `yaml:"name"`
	Secret string `yaml:"secret" env:"MINICMS_SESSION_SECRET"`
	Path   string `yaml:"path" env:"MINICMS_SESSION_PATH"`
	MaxAge int    `yaml:"max_age" env:"MINICMS_SESSION_MAX_AGE"`
	Secure bool   `yaml:"secure" env:"MINICMS_SESSION_SECURE"`
}

// Link-by-email policies.
const (
	LinkByEmailTrusted  = "trusted"
	LinkByEmailVerified = "verified"
	LinkByEmailNever    = "never"
)

// Auth is the authentication config.
type Auth struct {
	Providers   map[string]Provider `yaml:"providers"`
	HTTPTimeout time.Duration       `yaml:"http_timeout" env:"MINICMS_AUTH_HTTP_TIMEOUT"`
	LinkByEmail string              `yaml:"link_by_email" env:"MINICMS_AUTH_LINK_BY_EMAIL"`
	UserAgent   string              `yaml:"user_agent"`
	// LandingPath is the admin path users land on after logging in.
	LandingPath string `yaml:"landing_path" env:"MINICMS_AUTH_LANDING_PATH"`
}

// Provider kinds.
const (
	KindGitHub  = "github"
	KindDiscord = "discord"
	KindOIDC    = "oidc"
)

// Provider is one external identity provider. Secrets are expected to come
// from MINICMS_<NAME>_CLIENT_ID / MINICMS_<NAME>_CLIENT_SECRET.
type Provider struct {
	Kind         string   `yaml:"kind"`
	ClientID     string   `yaml:"client_id" env:"CLIENT_ID"`
	ClientSecret string   `yaml:"client_secret" env:"CLIENT_SECRET"`
	RedirectURL  string   `yaml:"redirect_url" env:"REDIRECT_URL"` // Optional: derived from server.base_url
	AuthURL      string   `yaml:"auth_url"`
	TokenURL     string   `yaml:"token_url"`
	UserURL      string   `yaml:"user_url"`
	Issuer       string   `yaml:"issuer"` // oidc only
	Scopes       []string `yaml:"scopes"`
}

// Media is the upload config.
type Media struct {
	Dir       string `yaml:"dir" env:"MINICMS_MEDIA_DIR"`
	URLPrefix string `yaml:"url_prefix"`
	MaxSize   int64  `yaml:"max_size"`
}

// Admin is the bootstrap administrator, created on startup when the users
// table is empty. Leave Email unset to skip.
type Admin struct {
	Email    string `yaml:"email" env:"MINICMS_ADMIN_EMAIL"`
	Name     string `yaml:"name" env:"MINICMS_ADMIN_NAME"`
	Password string `yaml:"password" env:"MINICMS_ADMIN_PASSWORD"`
}

// Log is the logging config.
type Log struct {
	Level string `yaml:"level" env:"MINICMS_LOG_LEVEL"`
}

// SlogLevel maps the configured level name to a slog.Level.
func (l Log) SlogLevel() slog.Level {
	switch strings.ToLower(l.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Load loads config from file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes YAML, applies defaults and environment overrides, and
// validates the result.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}
	for name, p := range cfg.Auth.Providers {
		opts := env.Options{Prefix: "MINICMS_" + strings.ToUpper(name) + "_"}
		if err := env.ParseWithOptions(&p, opts); err != nil {
			return nil, fmt.Errorf("failed to read environment for provider %s: %w", name, err)
		}
		cfg.Auth.Providers[name] = p
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.BaseURL == "" {
		c.Server.BaseURL = "http://localhost:8080"
	}
	c.Server.BaseURL = strings.TrimSuffix(c.Server.BaseURL, "/")
	if c.Server.AdminPath == "" {
		c.Server.AdminPath = "/admin"
	}
	c.Server.AdminPath = "/" + strings.Trim(c.Server.AdminPath, "/")
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 15 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 30 * time.Second
	}

	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}
	if c.Database.DSN == "" && c.Database.Driver == "sqlite" {
		c.Database.DSN = "data/minicms.db"
	}

	if c.Session.Store == "" {
		c.Session.Store = "filesystem"
	}
	if c.Session.Name == "" {
		c.Session.Name = "minicms_session"
	}
	if c.Session.MaxAge == 0 {
		c.Session.MaxAge = 86400 * 7
	}
	if c.Session.Store == "filesystem" && c.Session.Path == "" {
		c.Session.Path = "data/sessions"
	}

	if c.Auth.HTTPTimeout == 0 {
		c.Auth.HTTPTimeout = 10 * time.Second
	}
	if c.Auth.LinkByEmail == "" {
		c.Auth.LinkByEmail = LinkByEmailTrusted
	}
	if c.Auth.UserAgent == "" {
		c.Auth.UserAgent = "MiniCMS"
	}
	c.Auth.LandingPath = "/" + strings.Trim(c.Auth.LandingPath, "/")
	for name, p := range c.Auth.Providers {
		c.Auth.Providers[name] = p.withDefaults(name, c.Server.BaseURL+c.Server.AdminPath)
	}

	if c.Media.Dir == "" {
		c.Media.Dir = "data/uploads"
	}
	if c.Media.URLPrefix == "" {
		c.Media.URLPrefix = "/uploads"
	}
	if c.Media.MaxSize == 0 {
		c.Media.MaxSize = 5 << 20
	}

	if c.Admin.Email != "" && c.Admin.Name == "" {
		c.Admin.Name = "Administrator"
	}
}

// withDefaults fills in the well-known public endpoints for the built-in
// kinds and derives the callback URL.
func (p Provider) withDefaults(name, adminBaseURL string) Provider {
	if p.Kind == "" {
		p.Kind = name
	}
	switch p.Kind {
	case KindGitHub:
		p.AuthURL = orDefault(p.AuthURL, "https://github.com/login/oauth/authorize")
		p.TokenURL = orDefault(p.TokenURL, "https://github.com/login/oauth/access_token")
		p.UserURL = orDefault(p.UserURL, "https://api.github.com/user")
		if len(p.Scopes) == 0 {
			p.Scopes = []string{"user:email"}
		}
	case KindDiscord:
		p.AuthURL = orDefault(p.AuthURL, "https://discord.com/api/oauth2/authorize")
		p.TokenURL = orDefault(p.TokenURL, "https://discord.com/api/oauth2/token")
		p.UserURL = orDefault(p.UserURL, "https://discord.com/api/users/@me")
		if len(p.Scopes) == 0 {
			p.Scopes = []string{"identify", "email"}
		}
	case KindOIDC:
		if len(p.Scopes) == 0 {
			p.Scopes = []string{"openid", "email", "profile"}
		}
	}
	if p.RedirectURL == "" {
		p.RedirectURL = adminBaseURL + "/login/" + name + "/callback"
	}
	return p
}

// Validate checks the config for missing or inconsistent values.
func (c *Config) Validate() error {
	var errs []error

	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		errs = append(errs, fmt.Errorf("database.driver must be sqlite or postgres, got %q", c.Database.Driver))
	}
	if c.Database.DSN == "" {
		errs = append(errs, errors.New("database.dsn is required"))
	}

	switch c.Session.Store {
	case "memory":
	case "cookie", "filesystem":
		if len(c.Session.Secret) < MinSessionSecretLength {
			errs = append(errs, fmt.Errorf("session.secret must be at least %d bytes", MinSessionSecretLength))
		}
	default:
		errs = append(errs, fmt.Errorf("session.store must be cookie, filesystem or memory, got %q", c.Session.Store))
	}

	switch c.Auth.LinkByEmail {
	case LinkByEmailTrusted, LinkByEmailVerified, LinkByEmailNever:
	default:
		errs = append(errs, fmt.Errorf("auth.link_by_email must be trusted, verified or never, got %q", c.Auth.LinkByEmail))
	}

	if c.Admin.Email != "" && len(c.Admin.Password) < 8 {
		errs = append(errs, errors.New("admin.password must be at least 8 characters when admin.email is set"))
	}

	for _, name := range c.ProviderNames() {
		p := c.Auth.Providers[name]
		if p.ClientID == "" || p.ClientSecret == "" {
			errs = append(errs, fmt.Errorf("auth.providers.%s: client_id and client_secret are required", name))
		}
		switch p.Kind {
		case KindGitHub, KindDiscord:
			if p.AuthURL == "" || p.TokenURL == "" || p.UserURL == "" {
				errs = append(errs, fmt.Errorf("auth.providers.%s: auth_url, token_url and user_url are required", name))
			}
		case KindOIDC:
			if p.Issuer == "" {
				errs = append(errs, fmt.Errorf("auth.providers.%s: issuer is required for oidc", name))
			}
		default:
			errs = append(errs, fmt.Errorf("auth.providers.%s: unknown kind %q", name, p.Kind))
		}
	}

	return errors.Join(errs...)
}

// ProviderNames returns the configured provider names, sorted.
func (c *Config) ProviderNames() []string {
	names := make([]string, 0, len(c.Auth.Providers))
	for name := range c.Auth.Providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func orDefault(v, def string) string {
	if v != "" {
		return v
	}
	return def
}
