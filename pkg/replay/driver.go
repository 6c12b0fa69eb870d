package replay

import (
	"context"
	"time"

	"uirecorder/internal/locator"
)

//go:generate mockgen -destination=mocks/mock_replay.go -package=mocks uirecorder/pkg/replay Driver,Element

// Driver is a browser session. It is owned by a single run and must be
// closed by whoever opened it.
type Driver interface {
	// SetImplicitWait sets how long lookups poll when no explicit wait
	// is given.
	SetImplicitWait(d time.Duration)
	Open(ctx context.Context, url string) error
	// WaitFor blocks until loc resolves or timeout elapses. A zero
	// timeout falls back to the implicit wait. Failures to find the
	// element wrap ErrElementNotFound.
	WaitFor(ctx context.Context, loc locator.Locator, timeout time.Duration) (Element, error)
	Screenshot(ctx context.Context, path string) error
	Close() error
}

type Element interface {
	Click(ctx context.Context) error
	SendKeys(ctx context.Context, text string) error
	Submit(ctx context.Context) error
}

// DriverFactory opens a new browser session.
type DriverFactory func(ctx context.Context) (Driver, error)
