package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/erfnzdeh/edusync/internal/errs"
	"github.com/erfnzdeh/edusync/internal/gcal"
	"github.com/erfnzdeh/edusync/internal/jalali"
	"github.com/erfnzdeh/edusync/internal/model"
)

// fakeGateway keeps remote entries in memory so reconciling against it
// behaves like the real calendar across consecutive passes.
type fakeGateway struct {
	entries map[string][]gcal.Entry

	findErr   error
	insertErr error
	updateErr error
	deleteErr error

	inserts int
	updates int
	deletes int
	finds   int

	nextID int
}

var _ gcal.Gateway = (*fakeGateway)(nil)

func newFakeGateway() *fakeGateway {
	return &fakeGateway{entries: make(map[string][]gcal.Entry)}
}

func (f *fakeGateway) FindByStableID(_ context.Context, stableID string, _, _ time.Time) ([]gcal.Entry, error) {
	f.finds++
	if f.findErr != nil {
		return nil, f.findErr
	}
	return append([]gcal.Entry(nil), f.entries[stableID]...), nil
}

func (f *fakeGateway) Insert(_ context.Context, ev gcal.Event) error {
	f.inserts++
	if f.insertErr != nil {
		return f.insertErr
	}
	f.nextID++
	f.entries[ev.StableID] = append(f.entries[ev.StableID], gcal.Entry{
		RemoteID:  fmt.Sprintf("remote-%d", f.nextID),
		StartDate: ev.StartDate,
	})
	return nil
}

func (f *fakeGateway) Update(_ context.Context, remoteID string, ev gcal.Event) error {
	f.updates++
	if f.updateErr != nil {
		return f.updateErr
	}
	for id, list := range f.entries {
		for i := range list {
			if list[i].RemoteID == remoteID {
				f.entries[id][i].StartDate = ev.StartDate
				return nil
			}
		}
	}
	return errors.New("remote entry not found")
}

func (f *fakeGateway) Delete(_ context.Context, remoteID string) error {
	f.deletes++
	if f.deleteErr != nil {
		return f.deleteErr
	}
	for id, list := range f.entries {
		for i := range list {
			if list[i].RemoteID == remoteID {
				f.entries[id] = append(list[:i], list[i+1:]...)
				return nil
			}
		}
	}
	return nil
}

func asg(id string, day int) model.Assignment {
	due := time.Date(2024, time.May, day, 23, 59, 59, 0, jalali.Tehran())
	return model.Assignment{
		Title:       "تمرین | درس",
		DueInstant:  due,
		WindowStart: jalali.StartOfDay(due),
		SourceLink:  "https://quera.org/course/assignments/" + id + "/problems",
	}
}

func TestReconciler_Create(t *testing.T) {
	t.Parallel()
	gw := newFakeGateway()
	r := NewReconciler(gw, zap.NewNop())

	outcome, err := r.Reconcile(context.Background(), asg("85830", 14))
	if err != nil || outcome != model.OutcomeCreated {
		t.Fatalf("want Created, got %s err=%v", outcome, err)
	}
	got := gw.entries["85830"]
	if len(got) != 1 {
		t.Fatalf("want 1 remote entry, got %d", len(got))
	}
	if got[0].StartDate != "2024-05-14" {
		t.Fatalf("want start 2024-05-14, got %s", got[0].StartDate)
	}
}

func TestReconciler_Idempotent(t *testing.T) {
	t.Parallel()
	gw := newFakeGateway()
	r := NewReconciler(gw, zap.NewNop())
	a := asg("85830", 14)

	if outcome, _ := r.Reconcile(context.Background(), a); outcome != model.OutcomeCreated {
		t.Fatalf("first pass: want Created, got %s", outcome)
	}

	// Second pass with an unchanged record must not mutate anything.
	outcome, err := r.Reconcile(context.Background(), a)
	if err != nil || outcome != model.OutcomeUnchanged {
		t.Fatalf("second pass: want Unchanged, got %s err=%v", outcome, err)
	}
	if gw.inserts != 1 || gw.updates != 0 || gw.deletes != 0 {
		t.Fatalf("unexpected mutations: inserts=%d updates=%d deletes=%d", gw.inserts, gw.updates, gw.deletes)
	}
}

func TestReconciler_UpdateOnDateChange(t *testing.T) {
	t.Parallel()
	gw := newFakeGateway()
	gw.entries["85830"] = []gcal.Entry{{RemoteID: "remote-1", StartDate: "2024-05-14"}}
	r := NewReconciler(gw, zap.NewNop())

	// Deadline moved from the 14th to the 20th; stable ID unchanged.
	outcome, err := r.Reconcile(context.Background(), asg("85830", 20))
	if err != nil || outcome != model.OutcomeUpdated {
		t.Fatalf("want Updated, got %s err=%v", outcome, err)
	}
	if got := gw.entries["85830"][0].StartDate; got != "2024-05-20" {
		t.Fatalf("remote entry not moved: %s", got)
	}
	if gw.inserts != 0 {
		t.Fatalf("update must not insert, inserts=%d", gw.inserts)
	}
}

func TestReconciler_HealsDuplicates(t *testing.T) {
	t.Parallel()
	gw := newFakeGateway()
	gw.entries["85830"] = []gcal.Entry{
		{RemoteID: "remote-1", StartDate: "2024-05-14"},
		{RemoteID: "remote-2", StartDate: "2024-05-10"},
		{RemoteID: "remote-3", StartDate: "2024-05-14"},
	}
	r := NewReconciler(gw, zap.NewNop())

	outcome, err := r.Reconcile(context.Background(), asg("85830", 14))
	if err != nil || outcome != model.OutcomeUnchanged {
		t.Fatalf("want Unchanged, got %s err=%v", outcome, err)
	}
	left := gw.entries["85830"]
	if len(left) != 1 || left[0].RemoteID != "remote-1" {
		t.Fatalf("duplicates not healed: %+v", left)
	}
	if gw.deletes != 2 {
		t.Fatalf("want 2 deletes, got %d", gw.deletes)
	}
}

func TestReconciler_MissingStableID(t *testing.T) {
	t.Parallel()
	gw := newFakeGateway()
	r := NewReconciler(gw, zap.NewNop())

	a := asg("85830", 14)
	a.SourceLink = "https://quera.org/course/overview"

	outcome, err := r.Reconcile(context.Background(), a)
	if outcome != model.OutcomeFailed || !errors.Is(err, errs.ErrMissingStableID) {
		t.Fatalf("want Failed/ErrMissingStableID, got %s err=%v", outcome, err)
	}
	if gw.finds != 0 || gw.inserts != 0 {
		t.Fatalf("remote calls made for undedupable record")
	}
}

func TestReconciler_RemoteWriteError(t *testing.T) {
	t.Parallel()
	gw := newFakeGateway()
	gw.insertErr = errors.New("boom")
	r := NewReconciler(gw, zap.NewNop())

	outcome, err := r.Reconcile(context.Background(), asg("85830", 14))
	if outcome != model.OutcomeFailed || !errors.Is(err, errs.ErrRemoteWrite) {
		t.Fatalf("want Failed/ErrRemoteWrite, got %s err=%v", outcome, err)
	}
}

func TestReconciler_BatchPartialFailureIsolation(t *testing.T) {
	t.Parallel()
	gw := newFakeGateway()
	r := NewReconciler(gw, zap.NewNop())

	batch := []model.Assignment{
		asg("1", 10), asg("2", 11), asg("3", 12), asg("4", 13), asg("5", 14),
	}
	batch[2].SourceLink = "https://quera.org/no-id-here" // record 3 cannot be deduplicated

	rep := r.ReconcileBatch(context.Background(), batch)
	if rep.Created != 4 || rep.Failed != 1 {
		t.Fatalf("want 4 created / 1 failed, got %+v", rep)
	}
	if gw.inserts != 4 {
		t.Fatalf("want 4 inserts, got %d", gw.inserts)
	}
	if len(rep.Failures) != 1 || !errors.Is(rep.Failures[0].Err, errs.ErrMissingStableID) {
		t.Fatalf("failure not recorded: %+v", rep.Failures)
	}
}
