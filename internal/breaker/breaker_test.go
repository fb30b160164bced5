package breaker

import (
	"testing"
	"time"
)

func TestAllow_ClosedByDefault(t *testing.T) {
	b := New(3, time.Minute)
	if !b.Allow() {
		t.Fatal("new breaker must admit calls")
	}
}

func TestOpensAtThreshold(t *testing.T) {
	b := New(3, time.Minute)

	b.RecordFailure()
	b.RecordFailure()
	if !b.Allow() {
		t.Fatal("breaker must stay closed below the threshold")
	}

	b.RecordFailure()
	if b.Allow() {
		t.Fatal("breaker must open at the threshold")
	}
	if fails, open := b.State(); !open || fails != 3 {
		t.Fatalf("expected open with 3 failures, got open=%v fails=%d", open, fails)
	}
}

func TestSuccessResets(t *testing.T) {
	b := New(3, time.Minute)
	b.RecordFailure()
	b.RecordFailure()
	b.RecordFailure()

	b.RecordSuccess()
	if !b.Allow() {
		t.Fatal("breaker must close after a success")
	}
	if fails, open := b.State(); open || fails != 0 {
		t.Fatalf("expected closed with 0 failures, got open=%v fails=%d", open, fails)
	}
}

func TestReadmitsAfterWindow(t *testing.T) {
	now := time.Now()
	b := New(3, time.Minute)
	b.nowFunc = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		b.RecordFailure()
	}
	if b.Allow() {
		t.Fatal("breaker must be open")
	}

	now = now.Add(61 * time.Second)
	if !b.Allow() {
		t.Fatal("breaker must re-admit after the reset window")
	}

	// Failure count survives the window, so one more transient failure
	// reopens without a fresh run of three.
	b.RecordFailure()
	if b.Allow() {
		t.Fatal("breaker must reopen on the first failure after re-admission")
	}
}

func TestStaysOpenWithinWindow(t *testing.T) {
	now := time.Now()
	b := New(2, time.Minute)
	b.nowFunc = func() time.Time { return now }

	b.RecordFailure()
	b.RecordFailure()

	now = now.Add(59 * time.Second)
	if b.Allow() {
		t.Fatal("breaker must stay open within the reset window")
	}
}

func TestDefaultsApplied(t *testing.T) {
	b := New(0, 0)
	if b.threshold != 3 {
		t.Errorf("expected default threshold 3, got %d", b.threshold)
	}
	if b.resetWindow != 5*time.Minute {
		t.Errorf("expected default reset window 5m, got %v", b.resetWindow)
	}
}
