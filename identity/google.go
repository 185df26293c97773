package identity

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	GoogleIssuer  = "https://accounts.google.com"
	googleJWKSURL = "https://www.googleapis.com/oauth2/v3/certs"
)

type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Issuer       string
	Timeout      time.Duration
}

var _ Verifier = (*GoogleVerifier)(nil)

// GoogleVerifier runs the OAuth2 authorization-code flow against Google (or
// any OpenID provider at Issuer) and verifies the returned ID token.
type GoogleVerifier struct {
	cfg GoogleConfig

	lock     sync.Mutex
	oauth2   *oauth2.Config
	verifier *oidc.IDTokenVerifier
}

type GoogleOption func(*GoogleVerifier)

// WithGoogleEndpoint skips discovery and uses endpoint and verifier as given.
func WithGoogleEndpoint(endpoint oauth2.Endpoint, verifier *oidc.IDTokenVerifier) GoogleOption {
	return func(g *GoogleVerifier) {
		g.oauth2 = g.oauth2Config(endpoint)
		g.verifier = verifier
	}
}

func NewGoogleVerifier(cfg GoogleConfig, options ...GoogleOption) *GoogleVerifier {
	if cfg.Issuer == "" {
		cfg.Issuer = GoogleIssuer
	}
	g := &GoogleVerifier{cfg: cfg}
	for _, opt := range options {
		opt(g)
	}

	// Google's endpoints are well known; other issuers are discovered on first use.
	if g.oauth2 == nil && cfg.Issuer == GoogleIssuer {
		keySet := oidc.NewRemoteKeySet(context.Background(), googleJWKSURL)
		g.oauth2 = g.oauth2Config(google.Endpoint)
		g.verifier = oidc.NewVerifier(cfg.Issuer, trackKeyFetches(keySet), &oidc.Config{ClientID: cfg.ClientID})
	}
	return g
}

func (g *GoogleVerifier) oauth2Config(endpoint oauth2.Endpoint) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     g.cfg.ClientID,
		ClientSecret: g.cfg.ClientSecret,
		Endpoint:     endpoint,
		RedirectURL:  g.cfg.RedirectURL,
		Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
	}
}

func (g *GoogleVerifier) discover(ctx context.Context) (*oauth2.Config, *oidc.IDTokenVerifier, error) {
	g.lock.Lock()
	defer g.lock.Unlock()
	if g.oauth2 != nil {
		return g.oauth2, g.verifier, nil
	}

	provider, err := oidc.NewProvider(ctx, g.cfg.Issuer)
	if err != nil {
		return nil, nil, unavailable(err, "failed to create OIDC provider")
	}
	var discovered struct {
		JWKSURL string `json:"jwks_uri"`
	}
	if err := provider.Claims(&discovered); err != nil {
		return nil, nil, unavailable(err, "failed to read OIDC discovery document")
	}
	if discovered.JWKSURL == "" {
		return nil, nil, unavailable(errors.New("jwks_uri missing"), "failed to read OIDC discovery document")
	}
	keySet := oidc.NewRemoteKeySet(context.Background(), discovered.JWKSURL)
	g.oauth2 = g.oauth2Config(provider.Endpoint())
	g.verifier = oidc.NewVerifier(g.cfg.Issuer, trackKeyFetches(keySet), &oidc.Config{ClientID: g.cfg.ClientID})
	return g.oauth2, g.verifier, nil
}

// AuthCodeURL builds the consent-screen redirect. codeChallenge may be empty.
func (g *GoogleVerifier) AuthCodeURL(ctx context.Context, state, nonce, codeChallenge string) (string, error) {
	ctx, cancel := withTimeout(ctx, g.cfg.Timeout)
	defer cancel()

	conf, _, err := g.discover(ctx)
	if err != nil {
		return "", err
	}

	opts := []oauth2.AuthCodeOption{oidc.Nonce(nonce)}
	if codeChallenge != "" {
		opts = append(opts,
			oauth2.SetAuthURLParam("code_challenge", codeChallenge),
			oauth2.SetAuthURLParam("code_challenge_method", "S256"),
		)
	}
	return conf.AuthCodeURL(state, opts...), nil
}

// Verify exchanges an authorization code and verifies the ID token that
// comes back. The nonce and PKCE verifier are taken from WithAuthFlow.
func (g *GoogleVerifier) Verify(ctx context.Context, code string) (*Identity, error) {
	if code == "" {
		return nil, rejected("missing authorization code")
	}

	ctx, cancel := withTimeout(ctx, g.cfg.Timeout)
	defer cancel()

	conf, verifier, err := g.discover(ctx)
	if err != nil {
		return nil, err
	}

	flow, hasFlow := authFlowFrom(ctx)
	var exchangeOpts []oauth2.AuthCodeOption
	if hasFlow && flow.CodeVerifier != "" {
		exchangeOpts = append(exchangeOpts, oauth2.VerifierOption(flow.CodeVerifier))
	}

	oauth2Token, err := conf.Exchange(ctx, code, exchangeOpts...)
	if err != nil {
		return nil, classify(ctx, err, "token exchange failed")
	}

	rawIDToken, ok := oauth2Token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return nil, rejected("no ID token in response")
	}

	idToken, err := verifyIDToken(ctx, verifier, rawIDToken, "ID token verification failed")
	if err != nil {
		return nil, err
	}

	var claims struct {
		Nonce         string `json:"nonce"`
		Email         string `json:"email"`
		EmailVerified bool   `json:"email_verified"`
		Name          string `json:"name"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return nil, rejected("failed to extract claims")
	}

	if hasFlow && claims.Nonce != flow.Nonce {
		return nil, rejected("invalid nonce")
	}
	if claims.Email != "" && !claims.EmailVerified {
		return nil, rejected("email address is not verified")
	}

	return &Identity{Email: claims.Email, Name: claims.Name}, nil
}
