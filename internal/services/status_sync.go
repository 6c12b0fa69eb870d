package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"uirecorder/internal/models"
	"uirecorder/internal/store"
	"uirecorder/pkg/logger"
)

// Tracker reports and cancels in-flight executions; *executor.Executor
// implements it.
type Tracker interface {
	IsRunning(executionID uint) bool
	Cancel(executionID uint) bool
}

// StatusSyncService reconciles stored execution states with the
// executor: runs the executor lost track of are failed, and runs past
// the timeout are cancelled and failed.
type StatusSyncService struct {
	store   store.Store
	tracker Tracker
	// Interval between checks.
	Interval time.Duration
	// Grace keeps recently started runs out of the stuck check.
	Grace time.Duration
	// Timeout of a single run; zero disables the timeout check.
	Timeout time.Duration
	now     func() time.Time

	mutex  sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewStatusSyncService(st store.Store, tracker Tracker, timeout time.Duration) *StatusSyncService {
	return &StatusSyncService{
		store:    st,
		tracker:  tracker,
		Interval: 30 * time.Second,
		Grace:    30 * time.Second,
		Timeout:  timeout,
		now:      time.Now,
	}
}

func (s *StatusSyncService) Start() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})

	go s.syncLoop(ctx)
	logger.L().Infof("Status sync service started")
}

func (s *StatusSyncService) Stop() {
	s.mutex.Lock()
	cancel, done := s.cancel, s.done
	s.cancel = nil
	s.mutex.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	logger.L().Infof("Status sync service stopped")
}

func (s *StatusSyncService) syncLoop(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Sync(ctx); err != nil {
				logger.L().Warnf("Status sync failed: %v", err)
			}
		}
	}
}

// Sync runs one reconciliation pass and returns the number of executions
// it fixed.
func (s *StatusSyncService) Sync(ctx context.Context) (int, error) {
	var stale []models.TestExecution
	for _, status := range []string{models.StatusRunning, models.StatusPending} {
		execs, err := s.listByStatus(ctx, status)
		if err != nil {
			return 0, err
		}
		stale = append(stale, execs...)
	}

	fixed := 0
	now := s.now()
	for i := range stale {
		exec := &stale[i]
		age := now.Sub(exec.StartTime)

		switch {
		case s.Timeout > 0 && age > s.Timeout:
			if s.tracker.IsRunning(exec.ID) {
				s.tracker.Cancel(exec.ID)
			}
			exec.ErrorMessage = fmt.Sprintf("Execution timed out after %s", s.Timeout)
		case !s.tracker.IsRunning(exec.ID) && age >= s.Grace:
			exec.ErrorMessage = "Execution completed but status was not updated properly"
		default:
			continue
		}

		exec.Status = models.StatusFailed
		exec.EndTime = &now
		exec.Duration = int(age.Milliseconds())
		if err := s.store.UpdateExecution(ctx, exec); err != nil {
			logger.L().Errorf("❌ Failed to fix stuck execution %d: %v", exec.ID, err)
			continue
		}
		logger.L().Infof("🔧 Fixed execution %d: %s", exec.ID, exec.ErrorMessage)
		fixed++
	}

	if fixed > 0 {
		logger.L().Infof("Status sync fixed %d stuck executions", fixed)
	}
	return fixed, nil
}

func (s *StatusSyncService) listByStatus(ctx context.Context, status string) ([]models.TestExecution, error) {
	var out []models.TestExecution
	for page := 1; ; page++ {
		execs, total, err := s.store.ListExecutions(ctx, store.ExecutionFilter{Status: status, Page: page, PageSize: 100})
		if err != nil {
			return nil, fmt.Errorf("failed to query %s executions: %w", status, err)
		}
		out = append(out, execs...)
		if len(execs) == 0 || int64(len(out)) >= total {
			return out, nil
		}
	}
}
