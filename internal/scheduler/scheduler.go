// Package scheduler owns the recurring per-tenant sync timers.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/erfnzdeh/edusync/internal/model"
	"github.com/erfnzdeh/edusync/internal/repository"
)

// runTimeout bounds one scheduled pass end to end.
const runTimeout = 5 * time.Minute

// Runner runs one reconciliation pass for a tenant.
type Runner interface {
	RunOnce(ctx context.Context, tenantID string) (model.SyncReport, error)
}

// entry is the opaque cancellation handle for one tenant's recurring sync.
type entry struct {
	cronID  cron.EntryID
	initial *time.Timer
}

// Scheduler keeps at most one active recurring timer per tenant. Disabling
// cancels future firings but never preempts a pass that already started.
type Scheduler struct {
	cron         *cron.Cron
	runner       Runner
	states       repository.StateRepository
	interval     time.Duration
	initialDelay time.Duration
	log          *zap.Logger

	mu      sync.Mutex
	entries map[string]*entry
}

// New constructs a stopped scheduler; call Start to begin firing.
func New(runner Runner, states repository.StateRepository, interval, initialDelay time.Duration, log *zap.Logger) *Scheduler {
	return &Scheduler{
		cron:         cron.New(),
		runner:       runner,
		states:       states,
		interval:     interval,
		initialDelay: initialDelay,
		log:          log,
		entries:      make(map[string]*entry),
	}
}

// Start begins executing scheduled entries.
func (s *Scheduler) Start() { s.cron.Start() }

// Stop cancels all future firings and waits for running passes to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	for id, e := range s.entries {
		if e.initial != nil {
			e.initial.Stop()
		}
		delete(s.entries, id)
	}
	s.mu.Unlock()

	<-s.cron.Stop().Done()
}

// Enable arms the tenant's recurring sync: a short-delay first pass, then
// one pass per interval. Enabling an already-enabled tenant is a no-op.
func (s *Scheduler) Enable(tenantID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[tenantID]; ok {
		return
	}

	id, err := s.cron.AddFunc(fmt.Sprintf("@every %s", s.interval), func() { s.fire(tenantID) })
	if err != nil {
		s.log.Error("failed to schedule tenant", zap.String("tenant", tenantID), zap.Error(err))
		return
	}
	s.entries[tenantID] = &entry{
		cronID:  id,
		initial: time.AfterFunc(s.initialDelay, func() { s.fire(tenantID) }),
	}
	s.log.Info("auto-sync armed",
		zap.String("tenant", tenantID),
		zap.Duration("interval", s.interval),
	)
}

// Disable cancels the tenant's timer. Disabling an unknown tenant is a no-op.
func (s *Scheduler) Disable(tenantID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[tenantID]
	if !ok {
		return
	}
	s.cron.Remove(e.cronID)
	if e.initial != nil {
		e.initial.Stop()
	}
	delete(s.entries, tenantID)
	s.log.Info("auto-sync disarmed", zap.String("tenant", tenantID))
}

// Enabled reports whether the tenant currently has an armed timer.
func (s *Scheduler) Enabled(tenantID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.entries[tenantID]
	return ok
}

// Restore re-arms timers for every tenant whose persisted state marks
// recurring sync as enabled. Called once after process start.
func (s *Scheduler) Restore(ctx context.Context) (int, error) {
	ids, err := s.states.ListAutoSync(ctx)
	if err != nil {
		return 0, err
	}
	for _, id := range ids {
		s.Enable(id)
	}
	return len(ids), nil
}

func (s *Scheduler) fire(tenantID string) {
	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	rep, err := s.runner.RunOnce(ctx, tenantID)
	if err != nil {
		// Pass-level failures are logged and retried on the next tick;
		// the timer is never torn down by a failed pass.
		s.log.Warn("scheduled sync failed", zap.String("tenant", tenantID), zap.Error(err))
		return
	}
	s.log.Info("scheduled sync complete",
		zap.String("tenant", tenantID),
		zap.Int("created", rep.Created),
		zap.Int("updated", rep.Updated),
		zap.Int("unchanged", rep.Unchanged),
		zap.Int("failed", rep.Failed),
	)
}
