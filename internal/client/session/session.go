// Package session keeps the signed-in user's token and advisory payroll
// state between CLI invocations. Nothing stored here is authoritative.
package session

import (
	"context"
	"errors"
	"time"

	"golang.org/x/oauth2"
)

var ErrNoSession = errors.New("not signed in")

type Session struct {
	AccessToken string    `json:"accessToken"`
	TokenType   string    `json:"tokenType"`
	ExpiresAt   time.Time `json:"expiresAt"`

	UserID        string `json:"userId"`
	Username      string `json:"username"`
	Role          string `json:"role"`
	CompanyID     string `json:"companyId"`
	AccountNumber string `json:"accountNumber"`

	// Advisory only. Re-validated against the pending batch endpoint before use.
	BatchID     string `json:"batchId,omitempty"`
	BatchStatus string `json:"batchStatus,omitempty"`
}

// Expired reports whether the token is past its expiry. A zero expiry never expires.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}

// Store persists one session.
type Store interface {
	Get(ctx context.Context) (Session, error)
	Save(ctx context.Context, s Session) error
	Clear(ctx context.Context) error
}

// TokenSource adapts a Store to oauth2 so an oauth2.Transport can attach the
// bearer token to every request.
func TokenSource(ctx context.Context, store Store) oauth2.TokenSource {
	return &storeTokenSource{ctx: ctx, store: store}
}

type storeTokenSource struct {
	ctx   context.Context
	store Store
}

func (t *storeTokenSource) Token() (*oauth2.Token, error) {
	s, err := t.store.Get(t.ctx)
	if err != nil {
		return nil, err
	}
	if s.AccessToken == "" || s.Expired(time.Now()) {
		return nil, ErrNoSession
	}

	tokenType := s.TokenType
	if tokenType == "" {
		tokenType = "Bearer"
	}
	return &oauth2.Token{
		AccessToken: s.AccessToken,
		TokenType:   tokenType,
		Expiry:      s.ExpiresAt,
	}, nil
}
