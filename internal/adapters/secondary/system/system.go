package system

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// UUIDGenerator : identifiants v4 pour users, posts, notifications, etc.
type UUIDGenerator struct{}

func (UUIDGenerator) NewID() string { return uuid.NewString() }

// TimerDelayer attend d, ou moins si ctx est annulé.
type TimerDelayer struct{}

func (TimerDelayer) Wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TimerDebouncer exécute seulement le dernier appel planifié, après delay.
// Le contexte de l'appel remplacé est annulé, même s'il a déjà démarré.
type TimerDebouncer struct {
	delay time.Duration

	mu     sync.Mutex
	timer  *time.Timer
	cancel context.CancelFunc
}

func NewTimerDebouncer(delay time.Duration) *TimerDebouncer {
	return &TimerDebouncer{delay: delay}
}

func (d *TimerDebouncer) Schedule(ctx context.Context, fn func(ctx context.Context)) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopLocked()

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	d.timer = time.AfterFunc(d.delay, func() {
		if runCtx.Err() != nil {
			return
		}
		fn(runCtx)
	})
}

func (d *TimerDebouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopLocked()
}

func (d *TimerDebouncer) stopLocked() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
}
