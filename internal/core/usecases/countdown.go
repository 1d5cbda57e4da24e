package usecases

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jiljuapp/jilju/internal/core/domain"
)

// TickFunc receives the derived coupon status and the remaining validity on
// every countdown tick.
type TickFunc func(status domain.CouponStatus, remaining time.Duration)

// CouponTicker drives the once-per-second countdown for a displayed coupon.
// It recomputes the status from the coupon timestamps on every tick and stops
// itself as soon as the coupon reaches a terminal state, so the timer cannot
// leak past expiry or redemption.
type CouponTicker struct {
	onTick   TickFunc
	now      func() time.Time
	interval time.Duration

	mu      sync.Mutex
	coupon  domain.Coupon
	cancel  context.CancelFunc
	done    chan struct{}
	stopped bool
}

// NewCouponTicker creates a ticker for the coupon. A nil clock means time.Now.
func NewCouponTicker(coupon domain.Coupon, onTick TickFunc, now func() time.Time) *CouponTicker {
	if now == nil {
		now = time.Now
	}
	return &CouponTicker{
		coupon:   coupon,
		onTick:   onTick,
		now:      now,
		interval: time.Second,
	}
}

// Start begins ticking. The first tick fires immediately. The ticker stops on
// its own when the coupon leaves the active state, when Stop is called, or
// when the context is cancelled, whichever comes first.
func (t *CouponTicker) Start(ctx context.Context) error {
	t.mu.Lock()
	if t.cancel != nil {
		t.mu.Unlock()
		return errors.New("countdown already running")
	}
	if t.stopped {
		t.mu.Unlock()
		return errors.New("countdown already finished")
	}
	tctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	t.cancel = cancel
	t.done = done
	t.mu.Unlock()

	go func() {
		defer close(done)

		if terminal := t.tick(); terminal {
			return
		}

		ticker := time.NewTicker(t.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if terminal := t.tick(); terminal {
					return
				}
			case <-tctx.Done():
				return
			}
		}
	}()

	return nil
}

// tick fires the callback once and reports whether the coupon reached a
// terminal state.
func (t *CouponTicker) tick() bool {
	t.mu.Lock()
	coupon := t.coupon
	t.mu.Unlock()

	now := t.now()
	status := coupon.StatusAt(now)

	if t.onTick != nil {
		t.onTick(status, coupon.RemainingAt(now))
	}

	if status != domain.CouponActive {
		t.mu.Lock()
		t.stopped = true
		t.mu.Unlock()
		return true
	}
	return false
}

// SetRedeemed records an external redemption event. The following tick
// reports the redeemed status and the ticker stops.
func (t *CouponTicker) SetRedeemed(at time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.coupon.RedeemedAt == nil {
		t.coupon.RedeemedAt = &at
	}
}

// Stop cancels the countdown and waits for the tick goroutine to exit.
// Idempotent: stopping a never-started or already-stopped ticker is a no-op.
func (t *CouponTicker) Stop() {
	t.mu.Lock()
	cancel := t.cancel
	done := t.done
	t.cancel = nil
	t.done = nil
	t.stopped = true
	t.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}
