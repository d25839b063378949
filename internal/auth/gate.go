// Package auth verifies Google sign-in credentials and turns them into a display profile.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/idtoken"
)

var (
	// ErrOAuthDisabled indicates no client secret was configured
	ErrOAuthDisabled = errors.New("oauth sign-in is not configured")
	// ErrInvalidState indicates an unknown, reused or expired OAuth state
	ErrInvalidState = errors.New("invalid or expired state parameter")
	// ErrCSRF indicates the sign-in double-submit cookie did not match
	ErrCSRF = errors.New("sign-in CSRF token mismatch")
)

const csrfCookie = "g_csrf_token"

// Profile is the signed-in user's display identity
type Profile struct {
	Name       string
	Email      string
	PictureURL string
	SubjectID  string
}

type validator interface {
	Validate(ctx context.Context, idToken, audience string) (*idtoken.Payload, error)
}

// Gate verifies identity tokens for one OAuth client
type Gate struct {
	mu         sync.Mutex
	clientID   string
	validator  validator
	oauth      *oauth2.Config
	stateStore map[string]time.Time
}

// NewGate creates a Gate. clientSecret may be empty, which disables the
// redirect-based OAuth flow; redirectURL is only used when it is set.
func NewGate(ctx context.Context, clientID, clientSecret, redirectURL string) (*Gate, error) {
	v, err := idtoken.NewValidator(ctx)
	if err != nil {
		return nil, fmt.Errorf("idtoken.NewValidator failed: %w", err)
	}
	return newGate(v, clientID, clientSecret, redirectURL), nil
}

func newGate(v validator, clientID, clientSecret, redirectURL string) *Gate {
	g := &Gate{
		clientID:   clientID,
		validator:  v,
		stateStore: make(map[string]time.Time),
	}
	if clientSecret != "" {
		g.oauth = &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		}
	}
	return g
}

// ClientID is rendered into the sign-in button
func (g *Gate) ClientID() string { return g.clientID }

// OAuthEnabled reports whether LoginURL and Exchange can be used
func (g *Gate) OAuthEnabled() bool { return g.oauth != nil }

// VerifyCredential validates a Google ID token issued for this client and
// returns the profile it carries.
func (g *Gate) VerifyCredential(ctx context.Context, credential string) (Profile, error) {
	if credential == "" {
		return Profile{}, errors.New("credential is empty")
	}
	payload, err := g.validator.Validate(ctx, credential, g.clientID)
	if err != nil {
		return Profile{}, fmt.Errorf("validator.Validate failed: %w", err)
	}
	if payload.Subject == "" {
		return Profile{}, errors.New("credential has no subject")
	}

	return Profile{
		Name:       claim(payload, "name"),
		Email:      claim(payload, "email"),
		PictureURL: claim(payload, "picture"),
		SubjectID:  payload.Subject,
	}, nil
}

func claim(p *idtoken.Payload, key string) string {
	if v, ok := p.Claims[key].(string); ok {
		return v
	}
	return ""
}

// CheckCSRF enforces the double-submit token Google Identity Services sends
// with redirect-mode sign-ins. r's form must already be parsed.
func CheckCSRF(r *http.Request) error {
	cookie, err := r.Cookie(csrfCookie)
	if err != nil || cookie.Value == "" {
		return ErrCSRF
	}
	if r.PostFormValue(csrfCookie) != cookie.Value {
		return ErrCSRF
	}
	return nil
}

// LoginURL returns the Google authorization URL with a fresh single-use state
func (g *Gate) LoginURL() (string, error) {
	if g.oauth == nil {
		return "", ErrOAuthDisabled
	}
	state, err := g.generateState()
	if err != nil {
		return "", fmt.Errorf("generateState failed: %w", err)
	}
	return g.oauth.AuthCodeURL(state), nil
}

// Exchange trades an authorization code for tokens and verifies the ID token
func (g *Gate) Exchange(ctx context.Context, code, state string) (Profile, error) {
	if g.oauth == nil {
		return Profile{}, ErrOAuthDisabled
	}
	if !g.validateState(state) {
		return Profile{}, ErrInvalidState
	}

	tok, err := g.oauth.Exchange(ctx, code)
	if err != nil {
		return Profile{}, fmt.Errorf("cfg.Exchange failed: %w", err)
	}
	rawIDToken, ok := tok.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return Profile{}, errors.New("token response has no id_token")
	}

	return g.VerifyCredential(ctx, rawIDToken)
}

func (g *Gate) generateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("rand.Read failed: %w", err)
	}
	state := base64.URLEncoding.EncodeToString(b)

	g.mu.Lock()
	defer g.mu.Unlock()

	now := time.Now()
	g.stateStore[state] = now.Add(5 * time.Minute)

	for s, exp := range g.stateStore {
		if exp.Before(now) {
			delete(g.stateStore, s)
		}
	}

	return state, nil
}

func (g *Gate) validateState(state string) bool {
	if state == "" {
		return false
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	expiry, exists := g.stateStore[state]
	if !exists {
		return false
	}

	delete(g.stateStore, state)

	return !time.Now().After(expiry)
}
