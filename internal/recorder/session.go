package recorder

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/gorilla/websocket"

	"uirecorder/internal/models"
	"uirecorder/pkg/chrome"
	"uirecorder/pkg/logger"
	"uirecorder/pkg/metrics"
)

var (
	ErrSessionExists    = errors.New("recording session already exists")
	ErrSessionNotFound  = errors.New("recording session not found")
	ErrAlreadyRecording = errors.New("recording is already in progress")
	ErrNotRecording     = errors.New("no recording in progress")
)

type SessionOptions struct {
	ExecPath      string
	Headless      bool
	Width         int
	Height        int
	Device        string
	PollInterval  time.Duration
	FlushInterval time.Duration
	RetryInterval time.Duration
}

// SessionStatus is a snapshot of a recording session.
type SessionStatus struct {
	SessionID   string          `json:"session_id"`
	TargetURL   string          `json:"target_url"`
	Device      string          `json:"device,omitempty"`
	Recording   bool            `json:"is_recording"`
	StartedAt   time.Time       `json:"started_at"`
	ActionCount int             `json:"action_count"`
	Actions     []models.Action `json:"actions"`
}

// Session is one live recording: a visible Chrome window with the
// capture script injected into every document it loads.
type Session struct {
	id        string
	opts      SessionOptions
	batcher   *Batcher
	targetURL string
	startedAt time.Time

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	mu        sync.RWMutex
	recording bool
	actions   []models.Action

	wsMu   sync.Mutex
	wsConn *websocket.Conn
}

func newSession(id string, opts SessionOptions, flush FlushFunc) *Session {
	return &Session{
		id:      id,
		opts:    opts,
		batcher: NewBatcher(flush, opts.FlushInterval, opts.RetryInterval),
		actions: make([]models.Action, 0),
	}
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) start(targetURL string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.recording {
		return ErrAlreadyRecording
	}

	execPath := s.opts.ExecPath
	if execPath == "" {
		execPath = chrome.GetChromePath()
	}
	if execPath == "" {
		return chrome.ErrChromeNotFound
	}

	device, emulate := chrome.LookupDevice(s.opts.Device)
	userAgent := ""
	if emulate {
		userAgent = device.UserAgent
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(),
		chrome.AllocatorOptions(execPath, s.opts.Headless, s.opts.Width, s.opts.Height, userAgent)...)
	ctx, ctxCancel := chromedp.NewContext(allocCtx, chromedp.WithLogf(logger.L().Debugf))
	s.ctx = ctx
	s.cancel = func() {
		if err := chromedp.Cancel(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.L().Warnf("⚠️ Failed to close recording browser: %v", err)
		}
		ctxCancel()
		allocCancel()
	}

	actions := []chromedp.Action{
		chromedp.ActionFunc(func(ctx context.Context) error {
			_, err := page.AddScriptToEvaluateOnNewDocument(captureScript).Do(ctx)
			return err
		}),
	}
	if emulate {
		actions = append(actions, chromedp.ActionFunc(func(ctx context.Context) error {
			return chrome.ApplyDeviceEmulation(ctx, device)
		}))
	}
	actions = append(actions,
		chromedp.Navigate(targetURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)

	if err := chromedp.Run(ctx, actions...); err != nil {
		s.cancel()
		return fmt.Errorf("failed to start recording: %w", err)
	}

	metrics.SessionOpened()
	s.targetURL = targetURL
	s.startedAt = time.Now()
	s.recording = true
	s.done = make(chan struct{})
	go s.listenForEvents()

	logger.L().Infof("🎬 Recording session %s started on %s", s.id, targetURL)
	return nil
}

// stop closes the browser and delivers whatever is still queued.
func (s *Session) stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.recording {
		s.mu.Unlock()
		return ErrNotRecording
	}
	s.recording = false
	cancel, done := s.cancel, s.done
	s.mu.Unlock()

	if cancel != nil {
		cancel()
		metrics.SessionClosed()
	}
	if done != nil {
		<-done
	}

	logger.L().Infof("⏹️ Recording session %s stopped with %d actions", s.id, len(s.Actions()))
	return s.batcher.Close(ctx)
}

func (s *Session) IsRecording() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.recording
}

func (s *Session) Actions() []models.Action {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Action(nil), s.actions...)
}

func (s *Session) Status() SessionStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return SessionStatus{
		SessionID:   s.id,
		TargetURL:   s.targetURL,
		Device:      s.opts.Device,
		Recording:   s.recording,
		StartedAt:   s.startedAt,
		ActionCount: len(s.actions),
		Actions:     append([]models.Action(nil), s.actions...),
	}
}

// SetWebSocketConnection streams every captured action to conn.
func (s *Session) SetWebSocketConnection(conn *websocket.Conn) {
	s.wsMu.Lock()
	defer s.wsMu.Unlock()
	s.wsConn = conn
}

// ClearWebSocketConnection detaches conn unless a newer connection has
// replaced it.
func (s *Session) ClearWebSocketConnection(conn *websocket.Conn) {
	s.wsMu.Lock()
	defer s.wsMu.Unlock()
	if s.wsConn == conn {
		s.wsConn = nil
	}
}

// capture records actions drained from the page.
func (s *Session) capture(actions []models.Action) {
	if len(actions) == 0 {
		return
	}

	s.mu.Lock()
	s.actions = append(s.actions, actions...)
	s.mu.Unlock()

	for _, a := range actions {
		s.batcher.Add(a)
	}
	s.push(actions)
}

func (s *Session) push(actions []models.Action) {
	s.wsMu.Lock()
	defer s.wsMu.Unlock()

	if s.wsConn == nil {
		return
	}
	for _, a := range actions {
		if err := s.wsConn.WriteJSON(a); err != nil {
			logger.L().Warnf("⚠️ WebSocket push failed for session %s: %v", s.id, err)
			s.wsConn = nil
			return
		}
	}
}

func (s *Session) listenForEvents() {
	defer close(s.done)

	interval := s.opts.PollInterval
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			if !s.IsRecording() {
				return
			}

			var events []models.Action
			if err := chromedp.Run(s.ctx, chromedp.Evaluate(drainScript, &events)); err != nil {
				if s.ctx.Err() != nil {
					return
				}
				logger.L().Debugf("Error getting events: %v", err)
				continue
			}
			s.capture(events)
		}
	}
}
