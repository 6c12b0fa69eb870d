package recorder

import (
	"context"
	"sync"
	"time"

	"uirecorder/internal/models"
	"uirecorder/pkg/logger"
)

// FlushFunc delivers a batch of actions.
type FlushFunc func(ctx context.Context, batch []models.Action) error

// Batcher groups captured actions and delivers them after a short quiet
// period. A failed delivery puts the batch back in front of anything
// queued since and tries again after the retry delay.
type Batcher struct {
	flush      FlushFunc
	delay      time.Duration
	retryDelay time.Duration

	mu       sync.Mutex
	queue    []models.Action
	timer    *time.Timer
	inFlight sync.WaitGroup
	closed   bool
}

func NewBatcher(flush FlushFunc, delay, retryDelay time.Duration) *Batcher {
	return &Batcher{flush: flush, delay: delay, retryDelay: retryDelay}
}

// Add queues an action and schedules a flush when none is pending.
func (b *Batcher) Add(a models.Action) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.queue = append(b.queue, a)
	b.scheduleLocked(b.delay)
}

// Pending returns the number of queued actions.
func (b *Batcher) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.queue)
}

// Flush delivers everything queued now. On failure the batch is
// re-queued and a retry is scheduled.
func (b *Batcher) Flush(ctx context.Context) error {
	b.mu.Lock()
	b.stopTimerLocked()
	batch := b.queue
	b.queue = nil
	b.mu.Unlock()

	if len(batch) == 0 {
		return nil
	}

	if err := b.flush(ctx, batch); err != nil {
		logger.L().Warnf("⚠️ Failed to deliver %d actions, retrying in %s: %v", len(batch), b.retryDelay, err)
		b.mu.Lock()
		b.queue = append(batch, b.queue...)
		if !b.closed {
			b.scheduleLocked(b.retryDelay)
		}
		b.mu.Unlock()
		return err
	}
	return nil
}

// Close stops timers and makes a final delivery attempt.
func (b *Batcher) Close(ctx context.Context) error {
	b.mu.Lock()
	b.closed = true
	b.stopTimerLocked()
	b.mu.Unlock()

	b.inFlight.Wait()
	return b.Flush(ctx)
}

func (b *Batcher) scheduleLocked(d time.Duration) {
	if b.timer != nil {
		return
	}
	b.inFlight.Add(1)
	var t *time.Timer
	t = time.AfterFunc(d, func() {
		defer b.inFlight.Done()

		b.mu.Lock()
		if b.timer == t {
			b.timer = nil
		}
		closed := b.closed
		b.mu.Unlock()
		if closed {
			return
		}

		_ = b.Flush(context.Background())
	})
	b.timer = t
}

// stopTimerLocked cancels a pending flush. A timer that already fired
// releases inFlight itself.
func (b *Batcher) stopTimerLocked() {
	if b.timer != nil && b.timer.Stop() {
		b.inFlight.Done()
	}
	b.timer = nil
}
