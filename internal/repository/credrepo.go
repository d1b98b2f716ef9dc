// Package repository defines storage interfaces implemented by concrete backends.
package repository

import (
	"context"

	"github.com/erfnzdeh/edusync/internal/model"
)

// CredentialRepository persists calendar credentials keyed by tenant ID.
// The credential store exclusively owns these records; other components
// borrow read views through the credential service.
type CredentialRepository interface {
	// Get loads a tenant's credential. Returns errs.ErrNotFound when absent.
	Get(ctx context.Context, tenantID string) (*model.TenantCredential, error)
	// Put inserts or replaces a tenant's credential.
	Put(ctx context.Context, cred *model.TenantCredential) error
	// Delete removes a tenant's credential.
	Delete(ctx context.Context, tenantID string) error
}
