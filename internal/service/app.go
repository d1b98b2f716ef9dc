package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/erfnzdeh/edusync/internal/errs"
	"github.com/erfnzdeh/edusync/internal/model"
	"github.com/erfnzdeh/edusync/internal/repository"
)

// Target names one of a tenant's two connections.
type Target string

const (
	TargetCalendar Target = "calendar"
	TargetSource   Target = "source"
)

// AuthManager is the credential-lifecycle surface the app needs.
type AuthManager interface {
	StartAuth(ctx context.Context, tenantID string) (string, error)
	CompleteAuth(ctx context.Context, tenantID, code string) error
	Disconnect(ctx context.Context, tenantID string) error
}

// SessionValidator checks a source session before it is stored.
type SessionValidator interface {
	ValidateSession(ctx context.Context, sessionID string) error
}

// Syncer runs one reconciliation pass for a tenant.
type Syncer interface {
	RunOnce(ctx context.Context, tenantID string) (model.SyncReport, error)
}

// Scheduling controls a tenant's recurring sync timer.
type Scheduling interface {
	Enable(tenantID string)
	Disable(tenantID string)
}

// App is the command surface exposed to the conversational front-end.
type App struct {
	creds  AuthManager
	states repository.StateRepository
	source SessionValidator
	sync   Syncer
	sched  Scheduling
	log    *zap.Logger
}

// NewApp wires the command surface.
func NewApp(creds AuthManager, states repository.StateRepository, source SessionValidator, sync Syncer, sched Scheduling, log *zap.Logger) *App {
	return &App{creds: creds, states: states, source: source, sync: sync, sched: sched, log: log}
}

// StartAuth begins the calendar authorization handshake for a tenant.
func (a *App) StartAuth(ctx context.Context, tenantID string) (string, error) {
	return a.creds.StartAuth(ctx, tenantID)
}

// CompleteAuth finishes the handshake with the code the tenant received.
func (a *App) CompleteAuth(ctx context.Context, tenantID, code string) error {
	return a.creds.CompleteAuth(ctx, tenantID, code)
}

// ConnectSource validates and stores the tenant's source session cookie.
func (a *App) ConnectSource(ctx context.Context, tenantID, sessionID string) error {
	if err := a.source.ValidateSession(ctx, sessionID); err != nil {
		return fmt.Errorf("%w: %w", errs.ErrSource, err)
	}

	st, err := a.states.Get(ctx, tenantID)
	if err != nil {
		if !errors.Is(err, errs.ErrNotFound) {
			return err
		}
		st = &model.TenantState{TenantID: tenantID}
	}
	st.QueraSession = sessionID
	if err := a.states.Put(ctx, st); err != nil {
		return err
	}
	a.log.Info("source connected", zap.String("tenant", tenantID))
	return nil
}

// Disconnect removes one of the tenant's connections. Disconnecting the
// source also disables auto-sync, since a pass can no longer succeed.
func (a *App) Disconnect(ctx context.Context, tenantID string, target Target) error {
	switch target {
	case TargetCalendar:
		return a.creds.Disconnect(ctx, tenantID)
	case TargetSource:
		st, err := a.states.Get(ctx, tenantID)
		if err != nil {
			return err
		}
		st.QueraSession = ""
		st.AutoSync = false
		if err := a.states.Put(ctx, st); err != nil {
			return err
		}
		a.sched.Disable(tenantID)
		return nil
	default:
		return fmt.Errorf("unknown disconnect target %q", target)
	}
}

// SyncNow runs one on-demand reconciliation pass.
func (a *App) SyncNow(ctx context.Context, tenantID string) (model.SyncReport, error) {
	return a.sync.RunOnce(ctx, tenantID)
}

// SetAutoSync persists the recurring-sync flag and arms or cancels the
// tenant's timer. Both directions are idempotent.
func (a *App) SetAutoSync(ctx context.Context, tenantID string, enabled bool) error {
	st, err := a.states.Get(ctx, tenantID)
	if err != nil {
		// Disabling a tenant that was never set up is a no-op.
		if !enabled && errors.Is(err, errs.ErrNotFound) {
			a.sched.Disable(tenantID)
			return nil
		}
		return err
	}
	if enabled && !st.SourceConnected() {
		return fmt.Errorf("%w: source not connected", errs.ErrSource)
	}

	st.AutoSync = enabled
	if err := a.states.Put(ctx, st); err != nil {
		return err
	}
	if enabled {
		a.sched.Enable(tenantID)
	} else {
		a.sched.Disable(tenantID)
	}
	a.log.Info("auto-sync toggled", zap.String("tenant", tenantID), zap.Bool("enabled", enabled))
	return nil
}

// DeleteTenant removes everything stored for the tenant: timer,
// credential, and state.
func (a *App) DeleteTenant(ctx context.Context, tenantID string) error {
	a.sched.Disable(tenantID)

	if err := a.creds.Disconnect(ctx, tenantID); err != nil && !errors.Is(err, errs.ErrNotFound) {
		return err
	}
	if err := a.states.Delete(ctx, tenantID); err != nil && !errors.Is(err, errs.ErrNotFound) {
		return err
	}
	a.log.Info("tenant deleted", zap.String("tenant", tenantID))
	return nil
}
