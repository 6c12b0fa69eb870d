package replay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"uirecorder/internal/locator"
	"uirecorder/pkg/logger"
	"uirecorder/pkg/metrics"
)

const (
	DefaultImplicitWait   = 10 * time.Second
	DefaultExplicitWait   = 15 * time.Second
	DefaultScreenshotsDir = "screenshots"
)

type Options struct {
	ImplicitWait   time.Duration
	ExplicitWait   time.Duration
	ScreenshotsDir string
	// Output receives the per-step failure line. Defaults to stdout.
	Output io.Writer
	// OnStep is called after every step, failed ones included.
	OnStep func(StepResult)
}

func (o Options) withDefaults() Options {
	if o.ImplicitWait <= 0 {
		o.ImplicitWait = DefaultImplicitWait
	}
	if o.ExplicitWait <= 0 {
		o.ExplicitWait = DefaultExplicitWait
	}
	if o.ScreenshotsDir == "" {
		o.ScreenshotsDir = DefaultScreenshotsDir
	}
	if o.Output == nil {
		o.Output = os.Stdout
	}
	return o
}

type StepStatus string

const (
	StepPassed StepStatus = "passed"
	StepFailed StepStatus = "failed"
)

type StepResult struct {
	Number     int           `json:"number"`
	Step       Step          `json:"step"`
	Status     StepStatus    `json:"status"`
	Screenshot string        `json:"screenshot,omitempty"`
	Duration   time.Duration `json:"duration"`
	Err        error         `json:"-"`
}

type Report struct {
	Steps       []StepResult  `json:"steps"`
	Screenshots []string      `json:"screenshots"`
	Duration    time.Duration `json:"duration"`
}

// Runner executes recorded steps in order against one driver.
type Runner struct {
	opts Options
}

func NewRunner(opts Options) *Runner {
	return &Runner{opts: opts.withDefaults()}
}

func (r *Runner) Options() Options {
	return r.opts
}

// Replay opens a session from factory, runs steps and closes the session
// whatever the outcome.
func Replay(ctx context.Context, factory DriverFactory, steps []Step, opts Options) (report *Report, err error) {
	drv, err := factory(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open browser session: %w", err)
	}
	defer func() {
		if cerr := drv.Close(); cerr != nil {
			logger.L().Warnf("⚠️ Failed to close browser session: %v", cerr)
			if err == nil {
				err = fmt.Errorf("failed to close browser session: %w", cerr)
			}
		}
	}()

	return NewRunner(opts).Run(ctx, drv, steps)
}

// Run executes steps in order and stops at the first failure. The driver
// stays open; the caller closes it.
func (r *Runner) Run(ctx context.Context, drv Driver, steps []Step) (*Report, error) {
	start := time.Now()
	report := &Report{Steps: make([]StepResult, 0, len(steps)), Screenshots: []string{}}
	defer func() { report.Duration = time.Since(start) }()

	drv.SetImplicitWait(r.opts.ImplicitWait)
	if err := os.MkdirAll(r.opts.ScreenshotsDir, 0o755); err != nil {
		return report, fmt.Errorf("failed to create screenshots dir: %w", err)
	}

	for i, step := range steps {
		n := i + 1
		stepStart := time.Now()
		shot, err := r.runStep(ctx, drv, n, step)

		res := StepResult{Number: n, Step: step, Status: StepPassed, Screenshot: shot, Duration: time.Since(stepStart), Err: err}
		if err != nil {
			res.Status = StepFailed
		}
		if shot != "" {
			report.Screenshots = append(report.Screenshots, shot)
		}
		report.Steps = append(report.Steps, res)
		metrics.ObserveStep(string(step.Action), string(res.Status), res.Duration)
		if r.opts.OnStep != nil {
			r.opts.OnStep(res)
		}

		if err != nil {
			return report, err
		}
	}

	return report, nil
}

// runStep returns the screenshot the step produced, if any.
func (r *Runner) runStep(ctx context.Context, drv Driver, n int, step Step) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	switch {
	case step.Action == ActionNavigation:
		if step.URL == "" {
			return "", fmt.Errorf("%w: step %d: navigation without url", ErrInvalidStep, n)
		}
		logger.L().Debugf("🌐 Step %d: navigating to %s", n, step.URL)
		return "", drv.Open(ctx, step.URL)

	case step.Action.NeedsElement():
		loc, err := step.Locator()
		if err != nil {
			return "", fmt.Errorf("step %d: %w", n, err)
		}

		logger.L().Debugf("🔍 Step %d: %s on %s", n, step.Action, loc)
		el, err := drv.WaitFor(ctx, loc, r.opts.ExplicitWait)
		if err == nil {
			err = perform(ctx, el, step)
		}
		if err != nil {
			if errors.Is(err, ErrElementNotFound) {
				return r.fail(ctx, drv, n, step, loc, err)
			}
			return "", err
		}

		shot := r.screenshotPath(n, step.Action, false)
		if err := drv.Screenshot(ctx, shot); err != nil {
			return "", err
		}
		return shot, nil

	default:
		return "", fmt.Errorf("%w: step %d: unknown action %q", ErrInvalidStep, n, step.Action)
	}
}

func perform(ctx context.Context, el Element, step Step) error {
	switch step.Action {
	case ActionClick:
		return el.Click(ctx)
	case ActionInput, ActionSelect:
		return el.SendKeys(ctx, step.Value)
	case ActionSubmit:
		return el.Submit(ctx)
	}
	return nil
}

// fail captures the error screenshot and reports the step. A failed
// capture is logged; the step error is returned either way.
func (r *Runner) fail(ctx context.Context, drv Driver, n int, step Step, loc locator.Locator, cause error) (string, error) {
	fmt.Fprintf(r.opts.Output, "Error in step %d: Could not find element with %s\n", n, loc)

	shot := r.screenshotPath(n, step.Action, true)
	if err := drv.Screenshot(ctx, shot); err != nil {
		logger.L().Warnf("⚠️ Failed to capture error screenshot for step %d: %v", n, err)
		shot = ""
	}

	return shot, &StepError{Step: n, Action: step.Action, Locator: loc, Screenshot: shot, Err: cause}
}

func (r *Runner) screenshotPath(n int, action Action, failed bool) string {
	name := fmt.Sprintf("%d_%s.png", n, action)
	if failed {
		name = fmt.Sprintf("%d_%s_error.png", n, action)
	}
	return filepath.Join(r.opts.ScreenshotsDir, name)
}
