package oauth

import (
	"context"
	"errors"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

const googleIssuer = "https://accounts.google.com"

// ErrIdentityRejected marks an assertion the provider explicitly refused
// (bad or replayed code, invalid or unattested ID token). Errors that do
// not wrap it are transport or provider outages and must not be treated
// as a sign-in denial.
var ErrIdentityRejected = errors.New("identity assertion rejected")

// Identity is the subset of provider claims the sign-in flow consumes.
// Email ownership is attested by the provider, so no local verification applies.
type Identity struct {
	Subject string
	Email   string
	Name    string
	Picture string
}

// Google wraps OIDC discovery, code exchange, and ID-token verification
// for the Google identity provider.
type Google struct {
	provider     *oidc.Provider
	verifier     *oidc.IDTokenVerifier
	oauth2Config *oauth2.Config
}

func NewGoogle(ctx context.Context, clientID, clientSecret, redirectURL string) (*Google, error) {
	provider, err := oidc.NewProvider(ctx, googleIssuer)
	if err != nil {
		return nil, fmt.Errorf("discover google oidc provider: %w", err)
	}
	verifier := provider.Verifier(&oidc.Config{ClientID: clientID})
	cfg := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     provider.Endpoint(),
		RedirectURL:  redirectURL,
		Scopes:       []string{oidc.ScopeOpenID, "email", "profile"},
	}
	return &Google{provider: provider, verifier: verifier, oauth2Config: cfg}, nil
}

// AuthCodeURL returns the provider authorization URL for the given state.
func (g *Google) AuthCodeURL(state string) string {
	return g.oauth2Config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// Exchange trades an authorization code for tokens and returns the verified identity.
func (g *Google) Exchange(ctx context.Context, code string) (*Identity, error) {
	tok, err := g.oauth2Config.Exchange(ctx, code)
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) && retrieveErr.Response != nil && retrieveErr.Response.StatusCode < 500 {
			return nil, fmt.Errorf("%w: exchange code: %v", ErrIdentityRejected, err)
		}
		return nil, fmt.Errorf("exchange code: %w", err)
	}
	rawIDToken, ok := tok.Extra("id_token").(string)
	if !ok {
		return nil, fmt.Errorf("missing id_token in token response")
	}
	return g.VerifyIDToken(ctx, rawIDToken)
}

// VerifyIDToken validates a raw ID token and extracts the identity claims.
func (g *Google) VerifyIDToken(ctx context.Context, rawIDToken string) (*Identity, error) {
	idToken, err := g.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, fmt.Errorf("%w: verify id token: %v", ErrIdentityRejected, err)
	}
	var claims struct {
		Email         string `json:"email"`
		EmailVerified bool   `json:"email_verified"`
		Name          string `json:"name"`
		Picture       string `json:"picture"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("parse id token claims: %w", err)
	}
	if claims.Email == "" || !claims.EmailVerified {
		return nil, fmt.Errorf("%w: provider did not attest the email address", ErrIdentityRejected)
	}
	return &Identity{
		Subject: idToken.Subject,
		Email:   claims.Email,
		Name:    claims.Name,
		Picture: claims.Picture,
	}, nil
}
