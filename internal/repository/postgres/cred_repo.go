package postgres

import (
	"context"
	"errors"

	"github.com/erfnzdeh/edusync/internal/errs"
	"github.com/erfnzdeh/edusync/internal/model"
)

// CredRepo implements CredentialRepository using PostgreSQL.
type CredRepo struct{ db *DB }

// NewCredRepo constructs a credential repository.
func NewCredRepo(db *DB) *CredRepo { return &CredRepo{db: db} }

// Get selects a tenant's credential by ID.
func (r *CredRepo) Get(ctx context.Context, tenantID string) (*model.TenantCredential, error) {
	const q = `
SELECT tenant_id, access_token, refresh_token, expiry, updated_at
FROM tenant_credentials WHERE tenant_id=$1`
	row := r.db.Pool.QueryRow(ctx, q, tenantID)
	var c model.TenantCredential
	if err := row.Scan(&c.TenantID, &c.AccessToken, &c.RefreshToken, &c.Expiry, &c.UpdatedAt); err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, errs.ErrNotFound
	}
	return &c, nil
}

// Put inserts or replaces a tenant's credential in one statement, so
// concurrent saves for different tenants cannot corrupt each other.
func (r *CredRepo) Put(ctx context.Context, cred *model.TenantCredential) error {
	const q = `
INSERT INTO tenant_credentials (tenant_id, access_token, refresh_token, expiry, updated_at)
VALUES ($1, $2, $3, $4, now())
ON CONFLICT (tenant_id)
DO UPDATE SET access_token=$2, refresh_token=$3, expiry=$4, updated_at=now()`
	_, err := r.db.Pool.Exec(ctx, q, cred.TenantID, cred.AccessToken, cred.RefreshToken, cred.Expiry)
	return err
}

// Delete removes a tenant's credential.
func (r *CredRepo) Delete(ctx context.Context, tenantID string) error {
	const q = `DELETE FROM tenant_credentials WHERE tenant_id=$1`
	tag, err := r.db.Pool.Exec(ctx, q, tenantID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}
