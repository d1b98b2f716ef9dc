package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/erfnzdeh/edusync/internal/errs"
	"github.com/erfnzdeh/edusync/internal/gcal"
	"github.com/erfnzdeh/edusync/internal/model"
	"github.com/erfnzdeh/edusync/internal/quera"
	"github.com/erfnzdeh/edusync/internal/repository"
)

// Source fetches the current assignment batch for a tenant's session.
type Source interface {
	FetchAssignments(ctx context.Context, sessionID string) ([]model.RawAssignment, error)
}

// CredentialSource yields fresh calendar tokens per tenant.
type CredentialSource interface {
	EnsureFresh(ctx context.Context, tenantID string) (*oauth2.Token, error)
}

// GatewayFactory builds a calendar gateway authorized by the given token.
type GatewayFactory func(ctx context.Context, tok *oauth2.Token) (gcal.Gateway, error)

// SyncService drives one reconciliation pass per tenant and aggregates
// outcome counts. At most one pass runs per tenant at a time.
type SyncService struct {
	creds   CredentialSource
	states  repository.StateRepository
	source  Source
	gateway GatewayFactory
	log     *zap.Logger
	now     func() time.Time

	mu      sync.Mutex
	tenants map[string]*sync.Mutex
}

// NewSyncService constructs the sync orchestrator.
func NewSyncService(creds CredentialSource, states repository.StateRepository, source Source, gateway GatewayFactory, log *zap.Logger) *SyncService {
	return &SyncService{
		creds:   creds,
		states:  states,
		source:  source,
		gateway: gateway,
		log:     log,
		now:     time.Now,
		tenants: make(map[string]*sync.Mutex),
	}
}

// RunOnce performs one reconciliation pass for the tenant.
//
// Whole-pass preconditions (no source session, no valid calendar
// credential, source unreachable) short-circuit with errs.ErrSource or
// errs.ErrAuth before any remote calendar call. Per-record failures never
// surface as errors; they are folded into the report.
func (s *SyncService) RunOnce(ctx context.Context, tenantID string) (model.SyncReport, error) {
	// Serialize passes per tenant: the query-then-write sequence against
	// the remote calendar is not atomic, so two concurrent passes for one
	// tenant could race each other into duplicate creates.
	lock := s.tenantLock(tenantID)
	lock.Lock()
	defer lock.Unlock()

	st, err := s.states.Get(ctx, tenantID)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return model.SyncReport{}, fmt.Errorf("%w: source not connected", errs.ErrSource)
		}
		return model.SyncReport{}, err
	}
	if !st.SourceConnected() {
		return model.SyncReport{}, fmt.Errorf("%w: source not connected", errs.ErrSource)
	}

	tok, err := s.creds.EnsureFresh(ctx, tenantID)
	if err != nil {
		return model.SyncReport{}, err
	}

	raws, err := s.source.FetchAssignments(ctx, st.QueraSession)
	if err != nil {
		return model.SyncReport{}, fmt.Errorf("%w: %w", errs.ErrSource, err)
	}
	if len(raws) == 0 {
		s.log.Info("no upcoming assignments", zap.String("tenant", tenantID))
		return model.SyncReport{}, nil
	}

	records, buildFailures := quera.BuildAssignments(raws, s.now())

	gw, err := s.gateway(ctx, tok)
	if err != nil {
		return model.SyncReport{}, fmt.Errorf("%w: %v", errs.ErrAuth, err)
	}

	rep := NewReconciler(gw, s.log).ReconcileBatch(ctx, records)
	for _, f := range buildFailures {
		rep.Add(model.OutcomeFailed, &f)
	}

	s.log.Info("sync pass complete",
		zap.String("tenant", tenantID),
		zap.Int("created", rep.Created),
		zap.Int("updated", rep.Updated),
		zap.Int("unchanged", rep.Unchanged),
		zap.Int("failed", rep.Failed),
	)
	return rep, nil
}

func (s *SyncService) tenantLock(tenantID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.tenants[tenantID]
	if !ok {
		lock = &sync.Mutex{}
		s.tenants[tenantID] = lock
	}
	return lock
}
