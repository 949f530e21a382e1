package timer

import (
	"testing"
	"time"
)

func drainUntil(t *testing.T, s *Service, pred func(Update) bool, timeout time.Duration) Update {
	t.Helper()
	deadline := time.After(timeout)
	for {
		select {
		case u, ok := <-s.Updates():
			if !ok {
				t.Fatalf("updates channel closed before condition met")
			}
			if pred(u) {
				return u
			}
		case <-deadline:
			t.Fatalf("timed out waiting for update")
		}
	}
}

func TestCountDownTimesOutExactlyOnce(t *testing.T) {
	s := New(Config{Initial: 50 * time.Millisecond, Interval: 10 * time.Millisecond, Direction: Down})
	s.Resume()

	u := drainUntil(t, s, func(u Update) bool { return u.Timeout }, time.Second)
	if u.Remaining != 0 {
		t.Fatalf("timeout update has remaining %v", u.Remaining)
	}

	// The channel closes after the timeout; no further updates arrive.
	timeouts := 1
	for u := range s.Updates() {
		if u.Timeout {
			timeouts++
		}
	}
	if timeouts != 1 {
		t.Fatalf("expected exactly one timeout, got %d", timeouts)
	}
}

func TestPauseResumePreservesRemaining(t *testing.T) {
	s := New(Config{Initial: time.Second, Interval: 10 * time.Millisecond, Direction: Down})
	defer s.Stop()
	s.Resume()

	u := drainUntil(t, s, func(u Update) bool { return u.Remaining < time.Second }, time.Second)
	s.Pause()
	paused := drainUntil(t, s, func(u Update) bool { return !u.Active }, time.Second)
	if paused.Remaining > u.Remaining {
		t.Fatalf("remaining grew while pausing: %v > %v", paused.Remaining, u.Remaining)
	}

	time.Sleep(50 * time.Millisecond)
	s.Resume()
	resumed := drainUntil(t, s, func(u Update) bool { return u.Active }, time.Second)
	if diff := paused.Remaining - resumed.Remaining; diff < 0 || diff > 20*time.Millisecond {
		t.Fatalf("remaining drifted across pause: paused=%v resumed=%v", paused.Remaining, resumed.Remaining)
	}
}

func TestResetRestoresInitialAndEmits(t *testing.T) {
	s := New(Config{Initial: 200 * time.Millisecond, Interval: 10 * time.Millisecond, Direction: Down})
	defer s.Stop()
	s.Resume()
	drainUntil(t, s, func(u Update) bool { return u.Remaining < 200*time.Millisecond }, time.Second)

	s.Reset()
	u := drainUntil(t, s, func(u Update) bool { return u.Remaining == 200*time.Millisecond }, time.Second)
	if !u.Active {
		t.Fatalf("reset should not stop a running timer")
	}
}

func TestSetTimeOverridesRemaining(t *testing.T) {
	s := New(Config{Initial: time.Second, Interval: 10 * time.Millisecond, Direction: Down})
	defer s.Stop()
	s.Resume()
	s.SetTime(30 * time.Millisecond)
	drainUntil(t, s, func(u Update) bool { return u.Timeout }, time.Second)
}

func TestCountUpAccumulatesElapsed(t *testing.T) {
	s := New(Config{Interval: 10 * time.Millisecond, Direction: Up})
	defer s.Stop()
	s.Resume()
	u := drainUntil(t, s, func(u Update) bool { return u.Elapsed >= 30*time.Millisecond }, time.Second)
	if u.Remaining != 0 {
		t.Fatalf("count-up timer reported remaining %v", u.Remaining)
	}
	if u.Timeout {
		t.Fatalf("count-up timer must never time out")
	}
}

func TestStopClosesUpdates(t *testing.T) {
	s := New(Config{Initial: time.Minute, Interval: 10 * time.Millisecond, Direction: Down})
	s.Resume()
	s.Stop()
	deadline := time.After(time.Second)
	for {
		select {
		case _, ok := <-s.Updates():
			if !ok {
				return
			}
		case <-deadline:
			t.Fatalf("updates channel not closed after stop")
		}
	}
}

func TestCommandsAfterStopDoNotBlock(t *testing.T) {
	s := New(Config{Initial: time.Minute, Interval: 10 * time.Millisecond, Direction: Down})
	s.Stop()
	done := make(chan struct{})
	go func() {
		s.Pause()
		s.Resume()
		s.Reset()
		s.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("commands blocked after stop")
	}
}

func TestInertUntilFirstResume(t *testing.T) {
	s := New(Config{Initial: 20 * time.Millisecond, Interval: 5 * time.Millisecond, Direction: Down})
	defer s.Stop()
	select {
	case u := <-s.Updates():
		t.Fatalf("inert timer emitted %+v", u)
	case <-time.After(50 * time.Millisecond):
	}
}
