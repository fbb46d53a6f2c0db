package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"
)

// fakeClock advances only when the limiter sleeps, so tests are
// deterministic and run instantly.
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Sleep(_ context.Context, d time.Duration) error {
	c.now = c.now.Add(d)
	return nil
}

func newTestLimiter(t *testing.T, rpm, tpm, rpd int) (*Limiter, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)}
	l, err := New(rpm, tpm, rpd, WithClock(clock.Now), WithSleeper(clock.Sleep))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return l, clock
}

func TestNewRejectsNonPositiveCaps(t *testing.T) {
	if _, err := New(0, 100, 100); err == nil {
		t.Fatal("expected error for rpm=0")
	}
	if _, err := New(10, -1, 100); err == nil {
		t.Fatal("expected error for negative tpm")
	}
}

func TestAwaitCapacityAdmitsUnderAllCaps(t *testing.T) {
	l, clock := newTestLimiter(t, 5, 1000, 100)
	start := clock.now
	for i := 0; i < 5; i++ {
		if err := l.AwaitCapacity(context.Background(), 100); err != nil {
			t.Fatalf("AwaitCapacity #%d: %v", i, err)
		}
	}
	if clock.now != start {
		t.Fatalf("expected no waiting under the caps, clock advanced %v", clock.now.Sub(start))
	}
	u := l.Snapshot()
	if u.RequestsInWindow != 5 || u.TokensInWindow != 500 || u.RequestsToday != 5 {
		t.Fatalf("unexpected snapshot: %+v", u)
	}
}

func TestAwaitCapacityBlocksOnRequestWindow(t *testing.T) {
	l, clock := newTestLimiter(t, 2, 100000, 1000)
	start := clock.now

	for i := 0; i < 2; i++ {
		if err := l.AwaitCapacity(context.Background(), 10); err != nil {
			t.Fatal(err)
		}
	}
	// Third call must wait until the first sample leaves the 60s window.
	if err := l.AwaitCapacity(context.Background(), 10); err != nil {
		t.Fatal(err)
	}
	waited := clock.now.Sub(start)
	if waited < 60*time.Second || waited > 61*time.Second {
		t.Fatalf("third request waited %v, want ~60s", waited)
	}
}

func TestAwaitCapacityBlocksOnTokenWindow(t *testing.T) {
	l, clock := newTestLimiter(t, 100, 1000, 1000)
	start := clock.now

	if err := l.AwaitCapacity(context.Background(), 900); err != nil {
		t.Fatal(err)
	}
	// 900 + 400 exceeds TPM; must wait for the first sample to expire.
	if err := l.AwaitCapacity(context.Background(), 400); err != nil {
		t.Fatal(err)
	}
	waited := clock.now.Sub(start)
	if waited < 60*time.Second || waited > 61*time.Second {
		t.Fatalf("second request waited %v, want ~60s", waited)
	}
	u := l.Snapshot()
	if u.TokensInWindow != 400 {
		t.Fatalf("tokens in window = %d, want 400 (first sample expired)", u.TokensInWindow)
	}
}

func TestOversizedEstimateAdmittedOnEmptyWindow(t *testing.T) {
	l, clock := newTestLimiter(t, 10, 1000, 1000)
	start := clock.now
	if err := l.AwaitCapacity(context.Background(), 5000); err != nil {
		t.Fatalf("oversized estimate should not deadlock: %v", err)
	}
	if clock.now != start {
		t.Fatal("oversized estimate on empty window should not wait")
	}
}

func TestDailyCapBlocksUntilMidnight(t *testing.T) {
	l, clock := newTestLimiter(t, 1000, 1000000, 2)
	start := clock.now

	for i := 0; i < 2; i++ {
		if err := l.AwaitCapacity(context.Background(), 1); err != nil {
			t.Fatal(err)
		}
	}
	if err := l.AwaitCapacity(context.Background(), 1); err != nil {
		t.Fatal(err)
	}
	if clock.now.Before(nextMidnight(start)) {
		t.Fatalf("third request admitted at %v, before midnight reset %v", clock.now, nextMidnight(start))
	}
	u := l.Snapshot()
	if u.RequestsToday != 1 {
		t.Fatalf("requests today after reset = %d, want 1", u.RequestsToday)
	}
}

func TestRecordUsageTracksDriftWithoutTouchingWindow(t *testing.T) {
	l, _ := newTestLimiter(t, 10, 1000, 100)
	if err := l.AwaitCapacity(context.Background(), 800); err != nil {
		t.Fatal(err)
	}
	l.RecordUsage(100)
	u := l.Snapshot()
	// The reserved sample keeps its estimate; actuals accumulate separately.
	if u.TokensInWindow != 800 {
		t.Fatalf("tokens in window = %d, want reserved 800", u.TokensInWindow)
	}
	if u.TokensReserved != 800 || u.TokensReported != 100 {
		t.Fatalf("reserved/reported = %d/%d, want 800/100", u.TokensReserved, u.TokensReported)
	}
}

func TestDriftTotalsResetAtMidnight(t *testing.T) {
	l, clock := newTestLimiter(t, 1000, 1000000, 1)
	if err := l.AwaitCapacity(context.Background(), 50); err != nil {
		t.Fatal(err)
	}
	l.RecordUsage(40)
	// Exhausting the daily cap forces the next admission past midnight.
	if err := l.AwaitCapacity(context.Background(), 10); err != nil {
		t.Fatal(err)
	}
	if clock.now.Hour() != 0 {
		t.Fatalf("expected clock to land on midnight, got %v", clock.now)
	}
	u := l.Snapshot()
	if u.TokensReserved != 10 || u.TokensReported != 0 {
		t.Fatalf("reserved/reported after reset = %d/%d, want 10/0", u.TokensReserved, u.TokensReported)
	}
}

func TestAwaitCapacityHonorsContext(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)}
	l, err := New(1, 1000, 100, WithClock(clock.Now),
		WithSleeper(func(ctx context.Context, _ time.Duration) error {
			return context.Canceled
		}))
	if err != nil {
		t.Fatal(err)
	}
	if err := l.AwaitCapacity(context.Background(), 1); err != nil {
		t.Fatal(err)
	}
	err = l.AwaitCapacity(context.Background(), 1)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestUsageString(t *testing.T) {
	u := Usage{RequestsInWindow: 1, TokensInWindow: 200, RequestsToday: 3, RPMLimit: 28, TPMLimit: 11000, RPDLimit: 950}
	want := "requests 1/28 per min, tokens 200/11000 per min, requests 3/950 today"
	if got := u.String(); got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}
}
