package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"sync"
	"time"
)

const (
	// stateBytes is the entropy of the anti-CSRF state parameter.
	stateBytes = 32
	// verifierBytes encodes to a 43 character PKCE verifier, the RFC 7636
	// minimum.
	verifierBytes = 32
)

// StateTTL is how long an issued state stays valid.
const StateTTL = 10 * time.Minute

// NewState returns a hex-encoded random state value.
func NewState() (string, error) {
	b := make([]byte, stateBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate state: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// GenerateCodeVerifier returns a random PKCE code verifier.
func GenerateCodeVerifier() (string, error) {
	b := make([]byte, verifierBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate code verifier: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// GenerateCodeChallenge derives the S256 challenge sent with the
// authorization request.
func GenerateCodeChallenge(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// spentStates remembers states that passed verification until they
// expire. A state replayed from an old session cookie is refused here even
// when the store handed it back.
type spentStates struct {
	mu   sync.Mutex
	seen map[string]time.Time
}

func newSpentStates() *spentStates {
	return &spentStates{seen: make(map[string]time.Time)}
}

// spend records state and reports whether it was unused.
func (s *spentStates) spend(state string, expires, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for k, exp := range s.seen {
		if !now.Before(exp) {
			delete(s.seen, k)
		}
	}
	if _, ok := s.seen[state]; ok {
		return false
	}
	s.seen[state] = expires
	return true
}
