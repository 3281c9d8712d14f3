// Package googleauth implements the token broker against Google's OAuth2
// endpoints for the delegated Gmail sending grant.
package googleauth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	gooidc "github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"
)

const googleIssuer = "https://accounts.google.com"

// DefaultScopes covers sending mail plus the identity claims needed to pin
// the mailing address at grant time.
func DefaultScopes() []string {
	return []string{
		gooidc.ScopeOpenID,
		"https://www.googleapis.com/auth/userinfo.email",
		"https://www.googleapis.com/auth/userinfo.profile",
		"https://www.googleapis.com/auth/gmail.send",
	}
}

// ProviderConfig holds configuration for the Google provider.
type ProviderConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scopes       []string

	// Endpoint overrides the Google OAuth2 endpoint, for tests.
	Endpoint oauth2.Endpoint
	// HTTPClient overrides the client used for token calls and discovery.
	HTTPClient *http.Client
}

// Provider is a stateless token broker: every call takes the tokens it needs
// and returns fresh ones; no shared client object is mutated between calls.
type Provider struct {
	config     *oauth2.Config
	httpClient *http.Client

	// ID-token verification is set up lazily so construction needs no network.
	verifierMu  sync.Mutex
	verifier    *gooidc.IDTokenVerifier
	verifierErr error
}

// NewProvider creates a Google token broker.
func NewProvider(cfg ProviderConfig) (*Provider, error) {
	if cfg.ClientID == "" {
		return nil, errors.New("client ID is required")
	}
	if cfg.ClientSecret == "" {
		return nil, errors.New("client secret is required")
	}
	if cfg.RedirectURL == "" {
		return nil, errors.New("redirect URL is required")
	}

	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = DefaultScopes()
	}
	endpoint := cfg.Endpoint
	if endpoint.TokenURL == "" {
		endpoint = googleoauth.Endpoint
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	return &Provider{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       scopes,
			Endpoint:     endpoint,
		},
		httpClient: httpClient,
	}, nil
}

// AuthCodeURL builds the consent URL. Offline access with a forced consent
// prompt makes Google reissue a refresh token for the grant.
func (p *Provider) AuthCodeURL(state string) string {
	return p.config.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
	)
}

// Exchange trades the authorization code for tokens and extracts the grant's
// verified email address from the ID token.
func (p *Provider) Exchange(ctx context.Context, code string) (*oauth2.Token, string, error) {
	if code == "" {
		return nil, "", errors.New("authorization code is required")
	}

	ctx = p.contextWithHTTPClient(ctx)
	token, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, "", fmt.Errorf("exchange code for token: %w", err)
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return nil, "", errors.New("token response is missing id_token")
	}

	email, err := p.verifiedEmail(ctx, rawIDToken)
	if err != nil {
		return nil, "", err
	}
	return token, email, nil
}

// Refresh mints a fresh access token from a stored refresh token. A single
// attempt; the caller decides what a failure means for the stored record.
func (p *Provider) Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	if refreshToken == "" {
		return nil, errors.New("refresh token is required")
	}

	ctx = p.contextWithHTTPClient(ctx)
	token, err := p.config.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken}).Token()
	if err != nil {
		return nil, fmt.Errorf("refresh access token: %w", err)
	}
	return token, nil
}

// TokenSource wraps a current token so the dispatcher can ask for a valid
// token immediately before each send.
func (p *Provider) TokenSource(ctx context.Context, tok *oauth2.Token) oauth2.TokenSource {
	return p.config.TokenSource(p.contextWithHTTPClient(ctx), tok)
}

func (p *Provider) verifiedEmail(ctx context.Context, rawIDToken string) (string, error) {
	verifier, err := p.idTokenVerifier(ctx)
	if err != nil {
		return "", err
	}

	idToken, err := verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return "", fmt.Errorf("verify id_token: %w", err)
	}

	var claims struct {
		Email         string `json:"email"`
		EmailVerified bool   `json:"email_verified"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return "", fmt.Errorf("parse id_token claims: %w", err)
	}
	if claims.Email == "" {
		return "", errors.New("grant did not supply an email address")
	}
	return claims.Email, nil
}

func (p *Provider) idTokenVerifier(ctx context.Context) (*gooidc.IDTokenVerifier, error) {
	p.verifierMu.Lock()
	defer p.verifierMu.Unlock()

	if p.verifier != nil || p.verifierErr != nil {
		return p.verifier, p.verifierErr
	}

	op, err := gooidc.NewProvider(p.contextWithHTTPClient(ctx), googleIssuer)
	if err != nil {
		p.verifierErr = fmt.Errorf("oidc discovery: %w", err)
		return nil, p.verifierErr
	}
	p.verifier = op.Verifier(&gooidc.Config{ClientID: p.config.ClientID})
	return p.verifier, nil
}

func (p *Provider) contextWithHTTPClient(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
}
