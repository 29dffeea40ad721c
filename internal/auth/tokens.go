// package auth issues opaque session tokens and OTP codes and resolves request identity.
package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"
)

const (
	AccessPrefix  = "access_"
	RefreshPrefix = "refresh_"

	tokenBytes = 32
)

// TokenPair is the access/refresh pair returned to a client after login or OTP verification.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type session struct {
	email    string
	issuedAt time.Time
}

// TokenAuthority maps opaque tokens to account emails.
//
// Access and refresh tokens live in separate pools. Both resolve to the same email.
// Multiple live sessions per email are allowed.
type TokenAuthority struct {
	mu      sync.RWMutex
	access  map[string]session
	refresh map[string]session
	ttl     time.Duration
	now     func() time.Time
}

// NewTokenAuthority creates a [TokenAuthority]. A ttl of zero keeps sessions until revoked.
func NewTokenAuthority(ttl time.Duration) *TokenAuthority {
	return &TokenAuthority{
		access:  make(map[string]session),
		refresh: make(map[string]session),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Issue mints and registers a fresh [TokenPair] for email.
func (a *TokenAuthority) Issue(email string) (TokenPair, error) {
	access, err := newToken(AccessPrefix)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := newToken(RefreshPrefix)
	if err != nil {
		return TokenPair{}, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	s := session{email: email, issuedAt: a.now()}
	a.access[access] = s
	a.refresh[refresh] = s

	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// EmailFor resolves a token from either pool. Unknown and expired tokens report false.
func (a *TokenAuthority) EmailFor(token string) (string, bool) {
	if token == "" {
		return "", false
	}

	a.mu.RLock()
	s, ok := a.access[token]
	pool := a.access
	if !ok {
		s, ok = a.refresh[token]
		pool = a.refresh
	}
	a.mu.RUnlock()

	if !ok {
		return "", false
	}

	if a.expired(s) {
		a.mu.Lock()
		delete(pool, token)
		a.mu.Unlock()
		return "", false
	}

	return s.email, true
}

// Revoke removes tokens from both pools. Unknown tokens are ignored.
func (a *TokenAuthority) Revoke(tokens ...string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	for _, token := range tokens {
		delete(a.access, token)
		delete(a.refresh, token)
	}
}

// Len reports the number of registered access and refresh tokens.
func (a *TokenAuthority) Len() (access, refresh int) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.access), len(a.refresh)
}

func (a *TokenAuthority) expired(s session) bool {
	return a.ttl > 0 && a.now().Sub(s.issuedAt) > a.ttl
}

func newToken(prefix string) (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return prefix + hex.EncodeToString(buf), nil
}
