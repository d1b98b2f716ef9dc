// Package service contains application services for credential lifecycle and sync.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	calendar "google.golang.org/api/calendar/v3"

	"github.com/erfnzdeh/edusync/internal/errs"
	"github.com/erfnzdeh/edusync/internal/model"
	"github.com/erfnzdeh/edusync/internal/repository"
)

// AuthFlow abstracts the OAuth2 authorization-code flow so tests can fake
// the external identity provider.
type AuthFlow interface {
	// AuthCodeURL builds the URL the tenant visits to grant access.
	AuthCodeURL(state string) string
	// Exchange trades an authorization code for a token.
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
	// TokenSource returns a refreshing token source seeded with t.
	TokenSource(ctx context.Context, t *oauth2.Token) oauth2.TokenSource
}

type googleFlow struct{ cfg *oauth2.Config }

// NewGoogleFlow builds the production flow against Google's OAuth endpoints
// with calendar scope.
func NewGoogleFlow(clientID, clientSecret, redirectURL string) AuthFlow {
	return &googleFlow{cfg: &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Scopes:       []string{calendar.CalendarScope},
		Endpoint:     google.Endpoint,
	}}
}

func (f *googleFlow) AuthCodeURL(state string) string {
	return f.cfg.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

func (f *googleFlow) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	return f.cfg.Exchange(ctx, code)
}

func (f *googleFlow) TokenSource(ctx context.Context, t *oauth2.Token) oauth2.TokenSource {
	return f.cfg.TokenSource(ctx, t)
}

// CredentialService owns the per-tenant calendar credential lifecycle:
// authorization handshake, refresh on expiry, explicit removal.
type CredentialService struct {
	repo repository.CredentialRepository
	flow AuthFlow
	log  *zap.Logger

	mu      sync.Mutex
	pending map[string]string // tenantID -> OAuth state of an in-flight handshake
}

// NewCredentialService constructs the credential service.
func NewCredentialService(repo repository.CredentialRepository, flow AuthFlow, log *zap.Logger) *CredentialService {
	return &CredentialService{
		repo:    repo,
		flow:    flow,
		log:     log,
		pending: make(map[string]string),
	}
}

// StartAuth begins the authorization handshake and returns the URL the
// tenant must visit.
func (s *CredentialService) StartAuth(ctx context.Context, tenantID string) (string, error) {
	state, err := uuid.NewV4()
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	s.pending[tenantID] = state.String()
	s.mu.Unlock()

	return s.flow.AuthCodeURL(state.String()), nil
}

// CompleteAuth exchanges the authorization code and persists the credential.
func (s *CredentialService) CompleteAuth(ctx context.Context, tenantID, code string) error {
	s.mu.Lock()
	_, started := s.pending[tenantID]
	delete(s.pending, tenantID)
	s.mu.Unlock()

	if !started {
		return fmt.Errorf("%w: authorization not started", errs.ErrAuth)
	}

	tok, err := s.flow.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("%w: code exchange failed: %v", errs.ErrAuth, err)
	}

	if err := s.repo.Put(ctx, credFromToken(tenantID, tok)); err != nil {
		return err
	}
	s.log.Info("calendar connected", zap.String("tenant", tenantID))
	return nil
}

// EnsureFresh returns a valid token for the tenant, refreshing and
// persisting the replacement when the stored one has expired. A missing
// credential or a failed refresh maps to errs.ErrAuth; the caller must
// treat the tenant as unauthenticated rather than retry silently.
func (s *CredentialService) EnsureFresh(ctx context.Context, tenantID string) (*oauth2.Token, error) {
	cred, err := s.repo.Get(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("%w: no stored credential", errs.ErrAuth)
	}

	tok := &oauth2.Token{
		AccessToken:  cred.AccessToken,
		RefreshToken: cred.RefreshToken,
		Expiry:       cred.Expiry,
	}
	if tok.Valid() {
		return tok, nil
	}
	if cred.RefreshToken == "" {
		return nil, fmt.Errorf("%w: token expired and no refresh token", errs.ErrAuth)
	}

	fresh, err := s.flow.TokenSource(ctx, tok).Token()
	if err != nil {
		return nil, fmt.Errorf("%w: refresh failed: %v", errs.ErrAuth, err)
	}

	// Providers may omit the refresh token on renewal; keep the old one.
	if fresh.RefreshToken == "" {
		fresh.RefreshToken = cred.RefreshToken
	}
	if fresh.AccessToken != cred.AccessToken {
		if err := s.repo.Put(ctx, credFromToken(tenantID, fresh)); err != nil {
			return nil, err
		}
		s.log.Info("credential refreshed", zap.String("tenant", tenantID))
	}
	return fresh, nil
}

// Disconnect removes the tenant's credential. Returns errs.ErrNotFound when
// nothing was stored.
func (s *CredentialService) Disconnect(ctx context.Context, tenantID string) error {
	s.mu.Lock()
	delete(s.pending, tenantID)
	s.mu.Unlock()

	return s.repo.Delete(ctx, tenantID)
}

func credFromToken(tenantID string, tok *oauth2.Token) *model.TenantCredential {
	return &model.TenantCredential{
		TenantID:     tenantID,
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		Expiry:       tok.Expiry,
		UpdatedAt:    time.Now(),
	}
}
