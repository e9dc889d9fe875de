package auth

import (
	"context"
	"net/http"
	"strings"
	"time"

	"besocial/cmd/identity"
)

// Resolver turns request credentials into verified user identities.
//
// Resolution is token verification plus a persistence lookup confirming the
// account still exists. It gates every HTTP and websocket entry point; it is
// also the realtime gateway's IdentityResolver.
type Resolver struct {
	tokens AccessTokenManager
	users  identity.Store
}

// NewResolver constructs a Resolver.
func NewResolver(tokens AccessTokenManager, users identity.Store) *Resolver {
	return &Resolver{tokens: tokens, users: users}
}

// Resolve verifies token and returns the stable user identity.
func (r *Resolver) Resolve(ctx context.Context, token string) (string, error) {
	u, err := r.ResolveUser(ctx, token)
	if err != nil {
		return "", err
	}
	return u.ID, nil
}

// ResolveUser verifies token and loads the full account record.
func (r *Resolver) ResolveUser(ctx context.Context, token string) (identity.User, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return identity.User{}, ErrNoToken
	}

	claims, err := r.tokens.Verify(token, time.Now().UTC())
	if err != nil {
		return identity.User{}, ErrInvalidToken
	}

	u, err := r.users.GetByID(ctx, claims.UserID)
	if err != nil {
		// A token for a since-deleted account is indistinguishable from a
		// forged one as far as callers are concerned.
		return identity.User{}, ErrInvalidToken
	}
	return u, nil
}

// UserFromRequest resolves the bearer token carried by an HTTP request.
func (r *Resolver) UserFromRequest(req *http.Request) (identity.User, error) {
	return r.ResolveUser(req.Context(), BearerToken(req))
}

// BearerToken extracts the access token from the Authorization header.
// A bare token without the "Bearer " prefix is accepted for compatibility
// with existing clients.
func BearerToken(req *http.Request) string {
	h := strings.TrimSpace(req.Header.Get("Authorization"))
	if h == "" {
		return ""
	}
	if strings.HasPrefix(h, "Bearer ") || strings.HasPrefix(h, "bearer ") {
		return strings.TrimSpace(h[len("Bearer "):])
	}
	return h
}
