package postgres

import (
	"context"
	"errors"

	"github.com/erfnzdeh/edusync/internal/errs"
	"github.com/erfnzdeh/edusync/internal/model"
)

// StateRepo implements StateRepository using PostgreSQL.
type StateRepo struct{ db *DB }

// NewStateRepo constructs a tenant-state repository.
func NewStateRepo(db *DB) *StateRepo { return &StateRepo{db: db} }

// Get selects a tenant's sync state by ID.
func (r *StateRepo) Get(ctx context.Context, tenantID string) (*model.TenantState, error) {
	const q = `
SELECT tenant_id, quera_session, auto_sync, updated_at
FROM tenant_states WHERE tenant_id=$1`
	row := r.db.Pool.QueryRow(ctx, q, tenantID)
	var st model.TenantState
	if err := row.Scan(&st.TenantID, &st.QueraSession, &st.AutoSync, &st.UpdatedAt); err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, errs.ErrNotFound
	}
	return &st, nil
}

// Put inserts or replaces a tenant's sync state.
func (r *StateRepo) Put(ctx context.Context, st *model.TenantState) error {
	const q = `
INSERT INTO tenant_states (tenant_id, quera_session, auto_sync, updated_at)
VALUES ($1, $2, $3, now())
ON CONFLICT (tenant_id)
DO UPDATE SET quera_session=$2, auto_sync=$3, updated_at=now()`
	_, err := r.db.Pool.Exec(ctx, q, st.TenantID, st.QueraSession, st.AutoSync)
	return err
}

// Delete removes a tenant's sync state.
func (r *StateRepo) Delete(ctx context.Context, tenantID string) error {
	const q = `DELETE FROM tenant_states WHERE tenant_id=$1`
	tag, err := r.db.Pool.Exec(ctx, q, tenantID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// ListAutoSync returns all tenants whose persisted state enables auto-sync.
func (r *StateRepo) ListAutoSync(ctx context.Context) ([]string, error) {
	const q = `SELECT tenant_id FROM tenant_states WHERE auto_sync ORDER BY tenant_id`
	rows, err := r.db.Pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
