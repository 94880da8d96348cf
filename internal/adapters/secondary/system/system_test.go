package system

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestUUIDGenerator(t *testing.T) {
	g := UUIDGenerator{}
	a, b := g.NewID(), g.NewID()
	if a == b {
		t.Fatal("ids must be unique")
	}
	if _, err := uuid.Parse(a); err != nil {
		t.Errorf("NewID() = %q is not a uuid: %v", a, err)
	}
}

func TestTimerDelayer(t *testing.T) {
	d := TimerDelayer{}

	if err := d.Wait(context.Background(), time.Millisecond); err != nil {
		t.Errorf("Wait: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	start := time.Now()
	if err := d.Wait(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Errorf("Wait on cancelled ctx = %v, want context.Canceled", err)
	}
	if time.Since(start) > time.Second {
		t.Error("Wait did not return promptly after cancellation")
	}
}

func TestTimerDebouncer_LastCallWins(t *testing.T) {
	d := NewTimerDebouncer(20 * time.Millisecond)
	defer d.Stop()

	var (
		mu  sync.Mutex
		ran []string
	)
	done := make(chan struct{})

	for _, q := range []string{"a", "al", "ali"} {
		d.Schedule(context.Background(), func(ctx context.Context) {
			mu.Lock()
			ran = append(ran, q)
			mu.Unlock()
			close(done)
		})
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("debounced call never ran")
	}

	// Laisse une chance aux appels remplacés de (mal) s'exécuter
	time.Sleep(50 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if len(ran) != 1 || ran[0] != "ali" {
		t.Errorf("ran = %v, want [ali]", ran)
	}
}

func TestTimerDebouncer_Stop(t *testing.T) {
	d := NewTimerDebouncer(10 * time.Millisecond)

	called := make(chan struct{}, 1)
	d.Schedule(context.Background(), func(context.Context) { called <- struct{}{} })
	d.Stop()

	select {
	case <-called:
		t.Error("stopped call must not run")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestTimerDebouncer_ReplacedContextIsCancelled(t *testing.T) {
	d := NewTimerDebouncer(0)
	defer d.Stop()

	started := make(chan context.Context, 1)
	release := make(chan struct{})
	d.Schedule(context.Background(), func(ctx context.Context) {
		started <- ctx
		<-release
	})

	var first context.Context
	select {
	case first = <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("first call never ran")
	}

	d.Schedule(context.Background(), func(context.Context) {})
	close(release)

	if first.Err() == nil {
		t.Error("context of a replaced in-flight call must be cancelled")
	}
}
