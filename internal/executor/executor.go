// Package executor runs replays asynchronously on a bounded worker pool
// and records each run as a TestExecution.
package executor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"uirecorder/internal/models"
	"uirecorder/internal/store"
	"uirecorder/internal/suite"
	"uirecorder/pkg/logger"
	"uirecorder/pkg/metrics"
	"uirecorder/pkg/replay"
)

var ErrStopped = errors.New("executor stopped")

// FactoryFunc returns a driver factory for a device; an empty device
// means the configured default.
type FactoryFunc func(device string) replay.DriverFactory

type Result struct {
	ExecutionID uint
	Status      string
	Report      *replay.Report
	Err         error
}

type ExecutionLog struct {
	Timestamp   time.Time `json:"timestamp"`
	Level       string    `json:"level"`
	Message     string    `json:"message"`
	StepIndex   int       `json:"step_index"`
	StepType    string    `json:"step_type,omitempty"`
	StepStatus  string    `json:"step_status,omitempty"`
	Selector    string    `json:"selector,omitempty"`
	Value       string    `json:"value,omitempty"`
	Screenshot  string    `json:"screenshot,omitempty"`
	Duration    int64     `json:"duration,omitempty"` // milliseconds
	ErrorDetail string    `json:"error_detail,omitempty"`
}

type job struct {
	ctx       context.Context
	execution *models.TestExecution
	suite     *suite.Suite
	opts      replay.Options
	result    chan Result
}

type Executor struct {
	store      store.Store
	factory    FactoryFunc
	defaults   replay.Options
	runTimeout time.Duration

	workQueue chan job
	wg        sync.WaitGroup

	queueMutex sync.RWMutex
	stopped    bool

	mutex   sync.RWMutex
	running map[uint]bool
	cancels map[uint]context.CancelFunc
}

// New starts maxWorkers workers. A zero runTimeout leaves runs unbounded.
func New(st store.Store, factory FactoryFunc, defaults replay.Options, maxWorkers int, runTimeout time.Duration) *Executor {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	e := &Executor{
		store:      st,
		factory:    factory,
		defaults:   defaults,
		runTimeout: runTimeout,
		workQueue:  make(chan job, maxWorkers*2),
		running:    make(map[uint]bool),
		cancels:    make(map[uint]context.CancelFunc),
	}

	for i := 0; i < maxWorkers; i++ {
		e.wg.Add(1)
		go e.worker()
	}

	logger.L().Infof("Test executor initialized with %d workers", maxWorkers)
	return e
}

// Enqueue records a pending execution for s and queues it. The returned
// channel receives exactly one Result. ctx bounds only the enqueue; the
// run itself continues after the caller returns.
func (e *Executor) Enqueue(ctx context.Context, s *suite.Suite, suiteID *uint, trigger string) (*models.TestExecution, <-chan Result, error) {
	if err := s.Validate(); err != nil {
		return nil, nil, err
	}

	exec := &models.TestExecution{
		TestSuiteID: suiteID,
		SuiteName:   s.Name,
		Trigger:     trigger,
		Status:      models.StatusPending,
		StartTime:   time.Now(),
		TotalSteps:  len(s.Steps),
	}
	if err := e.store.CreateExecution(ctx, exec); err != nil {
		return nil, nil, fmt.Errorf("failed to create execution: %w", err)
	}

	opts := s.Options(e.defaults)
	if opts.ScreenshotsDir == "" {
		opts.ScreenshotsDir = replay.DefaultScreenshotsDir
	}
	opts.ScreenshotsDir = filepath.Join(opts.ScreenshotsDir, fmt.Sprintf("run-%d", exec.ID))

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	e.mutex.Lock()
	e.running[exec.ID] = true
	e.cancels[exec.ID] = cancel
	e.mutex.Unlock()

	result := make(chan Result, 1)
	j := job{ctx: runCtx, execution: exec, suite: s, opts: opts, result: result}
	snapshot := *exec

	if err := e.submit(ctx, j); err != nil {
		e.release(exec.ID)
		exec.Status = models.StatusCancelled
		exec.ErrorMessage = err.Error()
		now := time.Now()
		exec.EndTime = &now
		if uerr := e.store.UpdateExecution(context.WithoutCancel(ctx), exec); uerr != nil {
			logger.L().Warnf("⚠️ Failed to update execution %d: %v", exec.ID, uerr)
		}
		return nil, nil, err
	}

	logger.L().Infof("📋 Execution %d queued for suite %q (%s)", exec.ID, s.Name, trigger)
	return &snapshot, result, nil
}

func (e *Executor) submit(ctx context.Context, j job) error {
	e.queueMutex.RLock()
	defer e.queueMutex.RUnlock()

	if e.stopped {
		return ErrStopped
	}
	select {
	case e.workQueue <- j:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *Executor) worker() {
	defer e.wg.Done()

	for j := range e.workQueue {
		res := e.execute(j)
		j.result <- res
		close(j.result)
		e.release(j.execution.ID)
	}
}

func (e *Executor) release(id uint) {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	if cancel, ok := e.cancels[id]; ok {
		cancel()
	}
	delete(e.running, id)
	delete(e.cancels, id)
}

func (e *Executor) execute(j job) (res Result) {
	exec := j.execution
	var logs []ExecutionLog

	defer func() {
		if r := recover(); r != nil {
			logger.L().Errorf("🚨 PANIC recovered in execution %d: %v", exec.ID, r)
			logs = append(logs, ExecutionLog{
				Timestamp: time.Now(),
				Level:     "error",
				Message:   fmt.Sprintf("Execution failed due to panic: %v", r),
				StepIndex: -1,
			})
			res = e.finish(j, nil, logs, fmt.Errorf("replay panic: %v", r))
		}
	}()

	if err := j.ctx.Err(); err != nil {
		return e.finish(j, nil, logs, err)
	}

	exec.Status = models.StatusRunning
	exec.StartTime = time.Now()
	if err := e.store.UpdateExecution(context.Background(), exec); err != nil {
		logger.L().Warnf("⚠️ Failed to mark execution %d running: %v", exec.ID, err)
	}
	logger.L().Infof("▶️ Execution %d started: %d steps", exec.ID, len(j.suite.Steps))

	opts := j.opts
	opts.OnStep = func(sr replay.StepResult) {
		logs = append(logs, stepLog(sr, len(j.suite.Steps)))
	}

	ctx := j.ctx
	if e.runTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.runTimeout)
		defer cancel()
	}

	report, err := replay.Replay(ctx, e.factory(j.suite.Device), j.suite.Steps, opts)
	return e.finish(j, report, logs, err)
}

func stepLog(sr replay.StepResult, total int) ExecutionLog {
	l := ExecutionLog{
		Timestamp:  time.Now(),
		Level:      "info",
		Message:    fmt.Sprintf("Step %d/%d: %s", sr.Number, total, sr.Step.Action),
		StepIndex:  sr.Number - 1,
		StepType:   string(sr.Step.Action),
		StepStatus: "success",
		Value:      sr.Step.Value,
		Screenshot: sr.Screenshot,
		Duration:   sr.Duration.Milliseconds(),
	}
	if loc, err := sr.Step.Locator(); err == nil {
		l.Selector = loc.String()
	}
	if sr.Step.Action == replay.ActionNavigation {
		l.Selector = sr.Step.URL
	}
	if sr.Status == replay.StepFailed {
		l.Level = "error"
		l.StepStatus = "failed"
		if sr.Err != nil {
			l.ErrorDetail = sr.Err.Error()
		}
	}
	return l
}

// finish stores the final state of a run.
func (e *Executor) finish(j job, report *replay.Report, logs []ExecutionLog, err error) Result {
	exec := j.execution
	now := time.Now()

	status := models.StatusPassed
	switch {
	case err == nil:
	case j.ctx.Err() != nil && errors.Is(err, context.Canceled):
		status = models.StatusCancelled
		exec.ErrorMessage = "execution cancelled"
	case errors.Is(err, context.DeadlineExceeded) && e.runTimeout > 0:
		status = models.StatusFailed
		exec.ErrorMessage = fmt.Sprintf("execution timed out after %s: %v", e.runTimeout, err)
	default:
		status = models.StatusFailed
		exec.ErrorMessage = err.Error()
	}

	exec.Status = status
	exec.EndTime = &now
	exec.Duration = int(now.Sub(exec.StartTime).Milliseconds())
	exec.FailedStep = replay.FailedStep(err)
	if report != nil {
		exec.PassedSteps = 0
		for _, sr := range report.Steps {
			if sr.Status == replay.StepPassed {
				exec.PassedSteps++
			}
		}
		if shots, jerr := json.Marshal(report.Screenshots); jerr == nil {
			exec.Screenshots = string(shots)
		}
	}
	if logs == nil {
		logs = []ExecutionLog{}
	}
	if data, jerr := json.Marshal(logs); jerr == nil {
		exec.ExecutionLogs = string(data)
	}

	if uerr := e.store.UpdateExecution(context.Background(), exec); uerr != nil {
		logger.L().Errorf("❌ Failed to store result of execution %d: %v", exec.ID, uerr)
	}
	metrics.RunFinished(status)

	if status == models.StatusPassed {
		logger.L().Infof("✅ Execution %d passed in %dms", exec.ID, exec.Duration)
	} else {
		logger.L().Warnf("❌ Execution %d %s: %s", exec.ID, status, exec.ErrorMessage)
	}

	return Result{ExecutionID: exec.ID, Status: status, Report: report, Err: err}
}

func (e *Executor) IsRunning(executionID uint) bool {
	e.mutex.RLock()
	defer e.mutex.RUnlock()
	return e.running[executionID]
}

func (e *Executor) RunningCount() int {
	e.mutex.RLock()
	defer e.mutex.RUnlock()
	return len(e.running)
}

// Cancel stops a queued or running execution. It reports false when the
// execution is not tracked.
func (e *Executor) Cancel(executionID uint) bool {
	e.mutex.RLock()
	cancel, ok := e.cancels[executionID]
	e.mutex.RUnlock()

	if !ok {
		return false
	}
	logger.L().Infof("Cancelling execution %d and closing browser", executionID)
	cancel()
	return true
}

// Stop refuses new work, cancels every run and waits for the workers.
func (e *Executor) Stop() {
	e.queueMutex.Lock()
	if e.stopped {
		e.queueMutex.Unlock()
		return
	}
	e.stopped = true
	close(e.workQueue)
	e.queueMutex.Unlock()

	e.mutex.RLock()
	for _, cancel := range e.cancels {
		cancel()
	}
	e.mutex.RUnlock()

	e.wg.Wait()
	logger.L().Infof("Test executor stopped")
}
