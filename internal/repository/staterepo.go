package repository

import (
	"context"

	"github.com/erfnzdeh/edusync/internal/model"
)

// StateRepository persists per-tenant sync state (source session, auto-sync flag).
type StateRepository interface {
	// Get loads a tenant's state. Returns errs.ErrNotFound when absent.
	Get(ctx context.Context, tenantID string) (*model.TenantState, error)
	// Put inserts or replaces a tenant's state.
	Put(ctx context.Context, st *model.TenantState) error
	// Delete removes a tenant's state.
	Delete(ctx context.Context, tenantID string) error
	// ListAutoSync returns the IDs of all tenants with auto-sync enabled,
	// used to re-arm timers after a process restart.
	ListAutoSync(ctx context.Context) ([]string, error)
}
