package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/docshost/docshost/internal/config"
)

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

type fakeNotificationStore struct {
	mu        sync.Mutex
	calls     int
	days      []int
	cancelled int64
	err       error
}

func (s *fakeNotificationStore) CancelOlderThan(_ context.Context, retentionDays int) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.days = append(s.days, retentionDays)
	return s.cancelled, s.err
}

func (s *fakeNotificationStore) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func newJanitorConfig(retentionDays, intervalHours int) *config.NotificationsConfig {
	return &config.NotificationsConfig{
		RetentionDays:        retentionDays,
		JanitorIntervalHours: intervalHours,
	}
}

// ---------------------------------------------------------------------------
// NewNotificationJanitor — construction and defaulting
// ---------------------------------------------------------------------------

func TestNewNotificationJanitor_DefaultInterval(t *testing.T) {
	j := NewNotificationJanitor(&fakeNotificationStore{}, newJanitorConfig(90, 0))
	if j.interval != 24*time.Hour {
		t.Errorf("interval = %v, want 24h", j.interval)
	}
}

func TestNewNotificationJanitor_CustomInterval(t *testing.T) {
	j := NewNotificationJanitor(&fakeNotificationStore{}, newJanitorConfig(90, 6))
	if j.interval != 6*time.Hour {
		t.Errorf("interval = %v, want 6h", j.interval)
	}
}

func TestNotificationJanitor_RetentionDefaults90(t *testing.T) {
	store := &fakeNotificationStore{}
	j := NewNotificationJanitor(store, newJanitorConfig(0, 24))

	j.runSweep(context.Background())

	if len(store.days) != 1 || store.days[0] != 90 {
		t.Errorf("retention days passed = %v, want [90]", store.days)
	}
}

func TestNotificationJanitor_UsesConfiguredRetention(t *testing.T) {
	store := &fakeNotificationStore{}
	j := NewNotificationJanitor(store, newJanitorConfig(30, 24))

	j.runSweep(context.Background())

	if len(store.days) != 1 || store.days[0] != 30 {
		t.Errorf("retention days passed = %v, want [30]", store.days)
	}
}

// ---------------------------------------------------------------------------
// runSweep — error handling
// ---------------------------------------------------------------------------

func TestNotificationJanitor_SweepErrorDoesNotPanic(t *testing.T) {
	store := &fakeNotificationStore{err: errors.New("db down")}
	j := NewNotificationJanitor(store, newJanitorConfig(90, 24))

	j.runSweep(context.Background())

	if store.callCount() != 1 {
		t.Errorf("calls = %d, want 1", store.callCount())
	}
}

// ---------------------------------------------------------------------------
// Start / Stop lifecycle
// ---------------------------------------------------------------------------

func TestNotificationJanitor_StartRunsInitialSweep(t *testing.T) {
	store := &fakeNotificationStore{cancelled: 2}
	j := NewNotificationJanitor(store, newJanitorConfig(90, 24))

	done := make(chan struct{})
	go func() {
		j.Start(context.Background())
		close(done)
	}()

	// The initial sweep runs before the first tick
	deadline := time.After(2 * time.Second)
	for store.callCount() == 0 {
		select {
		case <-deadline:
			t.Fatal("initial sweep never ran")
		case <-time.After(10 * time.Millisecond):
		}
	}

	j.Stop()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("janitor did not stop after Stop()")
	}
}

func TestNotificationJanitor_ContextCancelStopsLoop(t *testing.T) {
	store := &fakeNotificationStore{}
	j := NewNotificationJanitor(store, newJanitorConfig(90, 24))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		j.Start(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("janitor did not stop after context cancellation")
	}
}
