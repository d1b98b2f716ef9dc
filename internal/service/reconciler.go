package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/erfnzdeh/edusync/internal/errs"
	"github.com/erfnzdeh/edusync/internal/gcal"
	"github.com/erfnzdeh/edusync/internal/jalali"
	"github.com/erfnzdeh/edusync/internal/model"
)

const (
	dateLayout = "2006-01-02"

	// searchWindow bounds the remote query around the due window. Wide
	// enough to find entries whose date shifted by a deadline revision.
	searchWindow = 90 * 24 * time.Hour
)

// Reconciler decides per assignment whether the remote calendar needs a
// create, an update, or nothing, and executes the corresponding write.
type Reconciler struct {
	gw  gcal.Gateway
	log *zap.Logger
}

// NewReconciler constructs a reconciler over one tenant's calendar gateway.
func NewReconciler(gw gcal.Gateway, log *zap.Logger) *Reconciler {
	return &Reconciler{gw: gw, log: log}
}

// Reconcile processes a single assignment. The returned error is non-nil
// only together with OutcomeFailed and never aborts the caller's batch.
//
// When several remote entries carry the same stable ID, the first match
// drives the decision and every extra entry is deleted: duplicates are a
// degenerate state that would otherwise accumulate silently.
func (r *Reconciler) Reconcile(ctx context.Context, a model.Assignment) (model.SyncOutcome, error) {
	id := a.StableID
	if id == "" {
		id = model.StableIDFromLink(a.SourceLink)
	}
	if id == "" {
		return model.OutcomeFailed, fmt.Errorf("%w: %s", errs.ErrMissingStableID, a.SourceLink)
	}

	tz := jalali.Tehran()
	startDate := a.WindowStart.In(tz).Format(dateLayout)
	endDate := a.DueInstant.In(tz).AddDate(0, 0, 1).Format(dateLayout)

	entries, err := r.gw.FindByStableID(ctx, id, a.WindowStart.Add(-searchWindow), a.DueInstant.Add(searchWindow))
	if err != nil {
		return model.OutcomeFailed, fmt.Errorf("query remote entries: %w", err)
	}

	ev := gcal.Event{
		Title:       a.Title,
		Description: "Assignment Link: " + a.SourceLink,
		StartDate:   startDate,
		EndDate:     endDate,
		StableID:    id,
	}

	if len(entries) == 0 {
		if err := r.gw.Insert(ctx, ev); err != nil {
			return model.OutcomeFailed, fmt.Errorf("%w: %v", errs.ErrRemoteWrite, err)
		}
		return model.OutcomeCreated, nil
	}

	for _, dup := range entries[1:] {
		if err := r.gw.Delete(ctx, dup.RemoteID); err != nil {
			r.log.Warn("failed to delete duplicate entry",
				zap.String("stable_id", id),
				zap.String("remote_id", dup.RemoteID),
				zap.Error(err),
			)
		} else {
			r.log.Info("deleted duplicate entry",
				zap.String("stable_id", id),
				zap.String("remote_id", dup.RemoteID),
			)
		}
	}

	if entries[0].StartDate == startDate {
		return model.OutcomeUnchanged, nil
	}
	if err := r.gw.Update(ctx, entries[0].RemoteID, ev); err != nil {
		return model.OutcomeFailed, fmt.Errorf("%w: %v", errs.ErrRemoteWrite, err)
	}
	return model.OutcomeUpdated, nil
}

// ReconcileBatch reconciles records in source order, continuing past
// individual failures.
func (r *Reconciler) ReconcileBatch(ctx context.Context, records []model.Assignment) model.SyncReport {
	var rep model.SyncReport
	for _, a := range records {
		outcome, err := r.Reconcile(ctx, a)
		if err != nil {
			r.log.Error("reconcile failed",
				zap.String("title", a.Title),
				zap.String("link", a.SourceLink),
				zap.Error(err),
			)
			rep.Add(outcome, &model.SyncFailure{Title: a.Title, Link: a.SourceLink, Err: err})
			continue
		}
		rep.Add(outcome, nil)
	}
	return rep
}
