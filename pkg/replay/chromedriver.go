package replay

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/chromedp"

	"uirecorder/internal/locator"
	"uirecorder/pkg/chrome"
	"uirecorder/pkg/logger"
	"uirecorder/pkg/metrics"
)

const screenshotTimeout = 30 * time.Second

type ChromeOptions struct {
	ExecPath string
	Headless bool
	Width    int
	Height   int
	// Device names an entry of chrome.PredefinedDevices to emulate.
	Device string
}

// ChromeDriver is a Driver backed by a chromedp-controlled Chrome process.
type ChromeDriver struct {
	ctx    context.Context
	cancel context.CancelFunc

	mu           sync.Mutex
	implicitWait time.Duration
	closed       bool
}

// ChromeFactory returns a DriverFactory that launches Chrome with opts.
func ChromeFactory(opts ChromeOptions) DriverFactory {
	return func(ctx context.Context) (Driver, error) {
		return NewChromeDriver(ctx, opts)
	}
}

// NewChromeDriver launches Chrome. The process lives until Close is
// called or ctx is cancelled.
func NewChromeDriver(ctx context.Context, opts ChromeOptions) (*ChromeDriver, error) {
	execPath := opts.ExecPath
	if execPath == "" {
		execPath = chrome.GetChromePath()
	}
	if execPath == "" {
		return nil, chrome.ErrChromeNotFound
	}

	device, emulate := chrome.LookupDevice(opts.Device)
	userAgent := ""
	if emulate {
		userAgent = device.UserAgent
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx,
		chrome.AllocatorOptions(execPath, opts.Headless, opts.Width, opts.Height, userAgent)...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(logger.L().Debugf),
		chromedp.WithErrorf(logger.L().Debugf),
	)

	d := &ChromeDriver{
		ctx: browserCtx,
		cancel: func() {
			browserCancel()
			allocCancel()
		},
		implicitWait: DefaultImplicitWait,
	}

	if err := chromedp.Run(browserCtx); err != nil {
		d.cancel()
		return nil, fmt.Errorf("failed to start chrome: %w", err)
	}
	if emulate {
		if err := chrome.ApplyDeviceEmulation(browserCtx, device); err != nil {
			d.cancel()
			return nil, fmt.Errorf("failed to emulate %s: %w", device.Name, err)
		}
	}

	metrics.SessionOpened()
	logger.L().Infof("🚀 Chrome session started: %s (headless=%t)", execPath, opts.Headless)
	return d, nil
}

func (d *ChromeDriver) SetImplicitWait(wait time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.implicitWait = wait
}

func (d *ChromeDriver) implicit() time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.implicitWait
}

func (d *ChromeDriver) Open(ctx context.Context, url string) error {
	opCtx, cancel := d.scope(ctx, 0)
	defer cancel()

	if err := chromedp.Run(opCtx, chromedp.Navigate(url)); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	return nil
}

func (d *ChromeDriver) WaitFor(ctx context.Context, loc locator.Locator, timeout time.Duration) (Element, error) {
	if timeout <= 0 {
		timeout = d.implicit()
	}

	var nodes []*cdp.Node
	err := d.run(ctx, timeout, loc, chromedp.Nodes(loc.Value, &nodes, queryOption(loc)))
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrElementNotFound, loc)
	}
	return &chromeElement{driver: d, node: nodes[0], loc: loc}, nil
}

func (d *ChromeDriver) Screenshot(ctx context.Context, path string) error {
	opCtx, cancel := d.scope(ctx, screenshotTimeout)
	defer cancel()

	var buf []byte
	if err := chromedp.Run(opCtx, chromedp.CaptureScreenshot(&buf)); err != nil {
		return fmt.Errorf("failed to capture screenshot: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create screenshot dir: %w", err)
	}
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		return fmt.Errorf("failed to write screenshot: %w", err)
	}

	logger.L().Debugf("📸 Screenshot saved: %s", path)
	return nil
}

// Close shuts the browser down. It is safe to call more than once.
func (d *ChromeDriver) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	d.mu.Unlock()

	err := chromedp.Cancel(d.ctx)
	d.cancel()
	metrics.SessionClosed()
	logger.L().Infof("🔚 Chrome session closed")

	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("failed to close chrome: %w", err)
	}
	return nil
}

// scope derives an operation context from the browser context that also
// ends when the caller's ctx does.
func (d *ChromeDriver) scope(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	opCtx, cancel := context.WithCancel(d.ctx)
	stop := context.AfterFunc(ctx, cancel)

	if timeout <= 0 {
		return opCtx, func() {
			stop()
			cancel()
		}
	}

	timedCtx, timedCancel := context.WithTimeout(opCtx, timeout)
	return timedCtx, func() {
		timedCancel()
		stop()
		cancel()
	}
}

// run executes element actions, mapping an expired wait to
// ErrElementNotFound.
func (d *ChromeDriver) run(ctx context.Context, timeout time.Duration, loc locator.Locator, actions ...chromedp.Action) error {
	opCtx, cancel := d.scope(ctx, timeout)
	defer cancel()

	err := chromedp.Run(opCtx, actions...)
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(opCtx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s after %s", ErrElementNotFound, loc, timeout)
	}
	return fmt.Errorf("%s: %w", loc, err)
}

func queryOption(loc locator.Locator) chromedp.QueryOption {
	if loc.Strategy == locator.StrategyCSS {
		return chromedp.ByQuery
	}
	return chromedp.BySearch
}

type chromeElement struct {
	driver *ChromeDriver
	node   *cdp.Node
	loc    locator.Locator
}

func (e *chromeElement) ids() []cdp.NodeID {
	return []cdp.NodeID{e.node.NodeID}
}

func (e *chromeElement) Click(ctx context.Context) error {
	return e.driver.run(ctx, e.driver.implicit(), e.loc, chromedp.MouseClickNode(e.node))
}

func (e *chromeElement) SendKeys(ctx context.Context, text string) error {
	return e.driver.run(ctx, e.driver.implicit(), e.loc, chromedp.SendKeys(e.ids(), text, chromedp.ByNodeID))
}

func (e *chromeElement) Submit(ctx context.Context) error {
	return e.driver.run(ctx, e.driver.implicit(), e.loc, chromedp.Submit(e.ids(), chromedp.ByNodeID))
}
