package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"

	"uirecorder/internal/executor"
	"uirecorder/internal/models"
	"uirecorder/internal/store"
	"uirecorder/internal/suite"
	"uirecorder/pkg/logger"
)

// Runner queues replays; *executor.Executor implements it.
type Runner interface {
	Enqueue(ctx context.Context, s *suite.Suite, suiteID *uint, trigger string) (*models.TestExecution, <-chan executor.Result, error)
}

// SchedulerService replays saved suites on their cron expressions.
// Expressions carry a leading seconds field.
type SchedulerService struct {
	cron   *cron.Cron
	store  store.Store
	runner Runner

	mutex   sync.Mutex
	entries map[uint]cron.EntryID
}

func NewScheduler(st store.Store, runner Runner) *SchedulerService {
	return &SchedulerService{
		cron:    cron.New(cron.WithSeconds()),
		store:   st,
		runner:  runner,
		entries: make(map[uint]cron.EntryID),
	}
}

// Start loads every active scheduled suite and starts the cron loop.
func (s *SchedulerService) Start(ctx context.Context) error {
	if err := s.loadScheduledTestSuites(ctx); err != nil {
		return err
	}
	s.cron.Start()
	logger.L().Infof("Scheduler service initialized")
	return nil
}

func (s *SchedulerService) loadScheduledTestSuites(ctx context.Context) error {
	suites, err := s.store.ListSuites(ctx)
	if err != nil {
		return fmt.Errorf("failed to load suites: %w", err)
	}

	loaded := 0
	for _, ts := range suites {
		if ts.CronExpression == "" || ts.Status != 1 {
			continue
		}
		if err := s.AddSuiteSchedule(ts); err != nil {
			logger.L().Warnf("Failed to add schedule for test suite %d: %v", ts.ID, err)
			continue
		}
		loaded++
	}

	logger.L().Infof("Loaded %d scheduled test suites", loaded)
	return nil
}

// AddSuiteSchedule replaces the suite's schedule. A suite without a cron
// expression, or an inactive one, is left unscheduled.
func (s *SchedulerService) AddSuiteSchedule(ts models.TestSuite) error {
	s.RemoveSuiteSchedule(ts.ID)
	if ts.CronExpression == "" || ts.Status != 1 {
		return nil
	}

	suiteID := ts.ID
	entryID, err := s.cron.AddFunc(ts.CronExpression, func() {
		s.executeScheduledSuite(suiteID)
	})
	if err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", ts.CronExpression, err)
	}

	s.mutex.Lock()
	s.entries[suiteID] = entryID
	s.mutex.Unlock()

	logger.L().Infof("Added schedule for test suite %d (entry %d): %s", suiteID, entryID, ts.CronExpression)
	return nil
}

func (s *SchedulerService) RemoveSuiteSchedule(suiteID uint) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if entryID, ok := s.entries[suiteID]; ok {
		s.cron.Remove(entryID)
		delete(s.entries, suiteID)
		logger.L().Infof("Removed schedule for test suite %d", suiteID)
	}
}

// Scheduled reports whether the suite has a live schedule.
func (s *SchedulerService) Scheduled(suiteID uint) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	_, ok := s.entries[suiteID]
	return ok
}

func (s *SchedulerService) executeScheduledSuite(suiteID uint) {
	logger.L().Infof("⏰ Executing scheduled test suite %d", suiteID)

	ctx := context.Background()
	ts, err := s.store.GetSuite(ctx, suiteID)
	if err != nil {
		logger.L().Warnf("Failed to load test suite %d: %v", suiteID, err)
		return
	}

	flow, err := suite.FromModel(ts)
	if err != nil {
		logger.L().Warnf("Failed to decode test suite %d: %v", suiteID, err)
		return
	}

	exec, _, err := s.runner.Enqueue(ctx, flow, &ts.ID, models.TriggerSchedule)
	if err != nil {
		logger.L().Warnf("Failed to queue scheduled test suite %d: %v", suiteID, err)
		return
	}
	logger.L().Infof("Scheduled test suite %d queued as execution %d", suiteID, exec.ID)
}

func (s *SchedulerService) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
		logger.L().Infof("Scheduler service stopped")
	}
}
