package auth

import (
	"encoding/json"
	"strings"
)

// githubUser is the subset of GET /user used for login.
type githubUser struct {
	ID    json.RawMessage `json:"id"`
	Login string          `json:"login"`
	Name  *string         `json:"name"`
	Email *string         `json:"email"`
}

// discordUser is the subset of GET /users/@me used for login.
type discordUser struct {
	ID         json.RawMessage `json:"id"`
	Username   string          `json:"username"`
	GlobalName *string         `json:"global_name"`
	Email      *string         `json:"email"`
	Verified   *bool           `json:"verified"`
}

// oidcClaims are the userinfo claims beyond sub/email/email_verified.
type oidcClaims struct {
	Name              string `json:"name"`
	PreferredUsername string `json:"preferred_username"`
}

// rawID renders a JSON string or number id as text. null and objects give
// "".
func rawID(raw json.RawMessage) string {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return ""
	}
	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		return strings.TrimSpace(str)
	}
	var num json.Number
	if err := json.Unmarshal(raw, &num); err == nil {
		return num.String()
	}
	return ""
}

// firstNonEmpty returns the first non-nil, non-blank value or fallback.
func firstNonEmpty(fallback string, values ...*string) string {
	for _, v := range values {
		if v != nil && strings.TrimSpace(*v) != "" {
			return strings.TrimSpace(*v)
		}
	}
	return fallback
}
