// Package auth implements the access control gate: it turns a bearer
// credential into a caller identity, or into nothing. The gate holds
// no state of its own; identity resolution is delegated to a Provider.
package auth

import (
	"context"
	"net/http"
	"strings"
)

// Identity describes an authenticated caller.
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
}

// Provider resolves a raw token to an identity. A nil Identity with a
// nil error means the token is unknown or rejected; errors are
// reserved for provider transport failures.
type Provider interface {
	ResolveToken(ctx context.Context, token string) (*Identity, error)
}

// Gate validates bearer credentials on incoming requests.
type Gate struct {
	provider Provider
}

// NewGate returns a gate backed by the given provider. A nil provider
// rejects every credential.
func NewGate(provider Provider) *Gate {
	return &Gate{provider: provider}
}

// Authenticate extracts the bearer token from the request and resolves
// it. A missing or malformed Authorization header yields no identity,
// not an error: callers translate nil into an Unauthorized response.
func (g *Gate) Authenticate(r *http.Request) (*Identity, error) {
	token := bearerToken(r.Header.Get("Authorization"))
	if token == "" || g.provider == nil {
		return nil, nil
	}

	return g.provider.ResolveToken(r.Context(), token)
}

// bearerToken extracts the credential from an Authorization header
// value, returning "" when the scheme is not Bearer.
func bearerToken(header string) string {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}

	return strings.TrimSpace(parts[1])
}
