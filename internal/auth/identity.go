package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/desertthunder/apostles/internal/server"
)

type contextKey struct{}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header.
func BearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// PresentedTokens lists the bearer token and the values of the named cookies, skipping empty ones.
func PresentedTokens(r *http.Request, cookieNames ...string) []string {
	var tokens []string
	if token := BearerToken(r); token != "" {
		tokens = append(tokens, token)
	}
	for _, name := range cookieNames {
		if c, err := r.Cookie(name); err == nil && c.Value != "" {
			tokens = append(tokens, c.Value)
		}
	}
	return tokens
}

// FromRequest resolves the caller's email from the bearer header, or from the
// access cookie when no bearer token is sent.
//
// An unresolvable identity is anonymous, reported as false. A presented bearer
// token is never second-guessed by the cookie.
func FromRequest(r *http.Request, tokens *TokenAuthority, cookieName string) (string, bool) {
	if token := BearerToken(r); token != "" {
		return tokens.EmailFor(token)
	}

	c, err := r.Cookie(cookieName)
	if err != nil {
		return "", false
	}
	return tokens.EmailFor(c.Value)
}

// Identify stores the resolved email in the request context. Anonymous requests pass through untouched.
func Identify(tokens *TokenAuthority, cookieName string) server.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if email, ok := FromRequest(r, tokens, cookieName); ok {
				r = r.WithContext(WithEmail(r.Context(), email))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WithEmail returns a context carrying the caller's email.
func WithEmail(ctx context.Context, email string) context.Context {
	return context.WithValue(ctx, contextKey{}, email)
}

// EmailFromContext returns the email stored by [Identify].
func EmailFromContext(ctx context.Context) (string, bool) {
	email, ok := ctx.Value(contextKey{}).(string)
	return email, ok && email != ""
}
