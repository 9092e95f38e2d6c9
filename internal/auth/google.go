package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	"github.com/akash12888/note-taking-app/pkg/crypto"
)

// DefaultGoogleIssuer is the discovery issuer for Google accounts.
const DefaultGoogleIssuer = "https://accounts.google.com"

// GoogleConfig configures the federated Google sign-in bridge.
type GoogleConfig struct {
	Issuer       string
	ClientID     string
	ClientSecret string
	RedirectURL  string
	StateSecret  string

	// HTTPClient overrides the client used for discovery and token
	// exchange. Tests point it at a local issuer.
	HTTPClient *http.Client
	Timeout    time.Duration
	Now        func() time.Time
}

// Identity is the normalised profile extracted from a verified ID token.
type Identity struct {
	Subject       string
	Email         string
	EmailVerified bool
	Name          string
	Picture       string
	RawClaims     json.RawMessage
}

// BeginAuth carries everything the handler needs to redirect the browser.
type BeginAuth struct {
	RedirectURL string
	State       string
}

// GoogleService drives the OIDC authorization-code flow against Google.
type GoogleService struct {
	cfg   GoogleConfig
	state *StateCodec

	mu          sync.Mutex
	oauthConfig *oauth2.Config
	verifier    *oidc.IDTokenVerifier
}

// NewGoogleService validates the configuration and prepares the service.
// Provider discovery is deferred until the first flow so startup does not
// depend on outbound connectivity.
func NewGoogleService(cfg GoogleConfig) (*GoogleService, error) {
	if strings.TrimSpace(cfg.ClientID) == "" {
		return nil, errors.New("google auth: client id is required")
	}
	if strings.TrimSpace(cfg.ClientSecret) == "" {
		return nil, errors.New("google auth: client secret is required")
	}
	if strings.TrimSpace(cfg.RedirectURL) == "" {
		return nil, errors.New("google auth: redirect url is required")
	}
	if strings.TrimSpace(cfg.Issuer) == "" {
		cfg.Issuer = DefaultGoogleIssuer
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	codec, err := NewStateCodec(cfg.StateSecret, 10*time.Minute, cfg.Now)
	if err != nil {
		return nil, err
	}

	return &GoogleService{cfg: cfg, state: codec}, nil
}

// Begin constructs the Google authorization URL with an encrypted state
// parameter carrying the nonce and PKCE verifier.
func (s *GoogleService) Begin(ctx context.Context) (*BeginAuth, error) {
	oauthConfig, _, err := s.discover(ctx)
	if err != nil {
		return nil, err
	}

	nonce, err := crypto.GenerateToken(32)
	if err != nil {
		return nil, err
	}

	pkce, err := GeneratePKCE()
	if err != nil {
		return nil, err
	}

	state, err := s.state.Encode(StatePayload{Nonce: nonce, PKCE: pkce.Verifier})
	if err != nil {
		return nil, err
	}

	url := oauthConfig.AuthCodeURL(state,
		oauth2.SetAuthURLParam("nonce", nonce),
		oauth2.SetAuthURLParam("code_challenge", pkce.Challenge),
		oauth2.SetAuthURLParam("code_challenge_method", pkce.Method),
	)

	return &BeginAuth{RedirectURL: url, State: state}, nil
}

// Callback validates the state, exchanges the authorization code and
// verifies the returned ID token, yielding the caller's identity.
func (s *GoogleService) Callback(ctx context.Context, state, code string) (*Identity, error) {
	payload, err := s.state.Decode(state)
	if err != nil {
		return nil, fmt.Errorf("google auth: %w", err)
	}
	if strings.TrimSpace(code) == "" {
		return nil, errors.New("google auth: authorization code missing")
	}

	oauthConfig, verifier, err := s.discover(ctx)
	if err != nil {
		return nil, err
	}

	tokenCtx := s.clientContext(ctx)
	tokenCtx, cancel := context.WithTimeout(tokenCtx, s.cfg.Timeout)
	defer cancel()

	token, err := oauthConfig.Exchange(tokenCtx, code, oauth2.SetAuthURLParam("code_verifier", payload.PKCE))
	if err != nil {
		return nil, fmt.Errorf("google auth: exchange failed: %w", err)
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return nil, errors.New("google auth: id token missing")
	}

	idToken, err := verifier.Verify(tokenCtx, rawIDToken)
	if err != nil {
		return nil, fmt.Errorf("google auth: verify id token: %w", err)
	}
	if idToken.Nonce != payload.Nonce {
		return nil, errors.New("google auth: nonce mismatch")
	}

	var claims map[string]any
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("google auth: decode claims: %w", err)
	}

	identity := &Identity{
		Subject:       idToken.Subject,
		Email:         stringClaim(claims, "email"),
		EmailVerified: boolClaim(claims, "email_verified"),
		Name:          stringClaim(claims, "name"),
		Picture:       stringClaim(claims, "picture"),
	}
	if identity.Subject == "" {
		return nil, errors.New("google auth: subject missing")
	}
	if identity.Email == "" {
		return nil, errors.New("google auth: email claim missing")
	}

	if raw, err := json.Marshal(claims); err == nil {
		identity.RawClaims = raw
	}

	return identity, nil
}

func (s *GoogleService) discover(ctx context.Context) (*oauth2.Config, *oidc.IDTokenVerifier, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.oauthConfig != nil {
		return s.oauthConfig, s.verifier, nil
	}

	discoveryCtx := s.clientContext(ctx)
	discoveryCtx, cancel := context.WithTimeout(discoveryCtx, s.cfg.Timeout)
	defer cancel()

	provider, err := oidc.NewProvider(discoveryCtx, s.cfg.Issuer)
	if err != nil {
		return nil, nil, fmt.Errorf("google auth: discovery failed: %w", err)
	}

	s.oauthConfig = &oauth2.Config{
		ClientID:     s.cfg.ClientID,
		ClientSecret: s.cfg.ClientSecret,
		Endpoint:     provider.Endpoint(),
		RedirectURL:  s.cfg.RedirectURL,
		Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
	}
	s.verifier = provider.Verifier(&oidc.Config{ClientID: s.cfg.ClientID})

	return s.oauthConfig, s.verifier, nil
}

func (s *GoogleService) clientContext(ctx context.Context) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if s.cfg.HTTPClient != nil {
		ctx = oidc.ClientContext(ctx, s.cfg.HTTPClient)
	}
	return ctx
}

func stringClaim(claims map[string]any, key string) string {
	if value, ok := claims[key].(string); ok {
		return strings.TrimSpace(value)
	}
	return ""
}

func boolClaim(claims map[string]any, key string) bool {
	switch value := claims[key].(type) {
	case bool:
		return value
	case string:
		return strings.EqualFold(value, "true")
	default:
		return false
	}
}
