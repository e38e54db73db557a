package vecadd

import (
	"testing"
	"time"
)

func TestBreaker(t *testing.T) {
	b := NewBreaker(3, 50*time.Millisecond)

	if b.State() != BreakerClosed {
		t.Fatalf("expected closed, got %v", b.State())
	}
	if !b.Allow() {
		t.Fatal("closed breaker must allow")
	}

	b.Failure()
	b.Failure()
	if b.State() != BreakerClosed {
		t.Fatalf("expected closed after 2 failures, got %v", b.State())
	}
	b.Failure()
	if b.State() != BreakerOpen {
		t.Fatalf("expected open after 3 failures, got %v", b.State())
	}
	if b.Allow() {
		t.Fatal("open breaker must not allow before cooldown")
	}

	time.Sleep(80 * time.Millisecond)
	if !b.Allow() {
		t.Fatal("expected a trial after cooldown")
	}
	if b.State() != BreakerHalfOpen {
		t.Fatalf("expected half-open, got %v", b.State())
	}
	if b.Allow() {
		t.Fatal("only one trial may run at a time")
	}

	// Failed trial reopens immediately.
	b.Failure()
	if b.State() != BreakerOpen {
		t.Fatalf("expected open after failed trial, got %v", b.State())
	}

	time.Sleep(80 * time.Millisecond)
	b.Allow()
	b.Success()
	if b.State() != BreakerClosed {
		t.Fatalf("expected closed after successful trial, got %v", b.State())
	}
	if b.failures != 0 {
		t.Errorf("failures not reset: %d", b.failures)
	}
}

func TestBreaker_Disabled(t *testing.T) {
	b := NewBreaker(0, time.Hour)
	for i := 0; i < 10; i++ {
		b.Failure()
	}
	if !b.Allow() || b.State() != BreakerClosed {
		t.Errorf("disabled breaker opened: %v", b.State())
	}
}

func TestBreakerState_String(t *testing.T) {
	for s, want := range map[BreakerState]string{
		BreakerClosed:   "closed",
		BreakerOpen:     "open",
		BreakerHalfOpen: "half-open",
		BreakerState(9): "unknown",
	} {
		if got := s.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", s, got, want)
		}
	}
}

func TestBreaker_SkipReleasesTrial(t *testing.T) {
	b := NewBreaker(1, 10*time.Millisecond)
	b.Failure()
	time.Sleep(20 * time.Millisecond)

	if !b.Allow() {
		t.Fatal("expected a trial after cooldown")
	}
	b.Skip()
	if b.State() != BreakerHalfOpen {
		t.Fatalf("skip must not change state, got %v", b.State())
	}
	if !b.Allow() {
		t.Fatal("a skipped trial must let the next caller trial")
	}
	b.Success()
	if b.State() != BreakerClosed {
		t.Fatalf("expected closed, got %v", b.State())
	}
}
