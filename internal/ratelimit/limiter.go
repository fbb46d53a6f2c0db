package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"
)

const window = 60 * time.Second

type sample struct {
	at     time.Time
	tokens int
}

// Limiter enforces request-per-minute, token-per-minute, and
// request-per-day caps. It is safe for concurrent use; capacity is granted
// in the order goroutines acquire the internal lock.
type Limiter struct {
	rpm int
	tpm int
	rpd int

	now   func() time.Time
	sleep func(context.Context, time.Duration) error

	mu         sync.Mutex
	samples    []sample
	dailyCount int
	nextReset  time.Time

	// Drift diagnostics: totals of what admission reserved versus what the
	// provider actually billed, since the last daily reset.
	reservedTotal int
	reportedTotal int
}

// Option customizes a Limiter.
type Option func(*Limiter)

// WithClock overrides the time source (useful for tests).
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		l.now = now
	}
}

// WithSleeper overrides how capacity waits are performed (useful for tests).
func WithSleeper(sleep func(context.Context, time.Duration) error) Option {
	return func(l *Limiter) {
		l.sleep = sleep
	}
}

// New constructs a Limiter with the given caps. All caps must be positive.
func New(rpm, tpm, rpd int, opts ...Option) (*Limiter, error) {
	if rpm <= 0 || tpm <= 0 || rpd <= 0 {
		return nil, fmt.Errorf("rate caps must be positive: rpm=%d tpm=%d rpd=%d", rpm, tpm, rpd)
	}
	l := &Limiter{
		rpm:   rpm,
		tpm:   tpm,
		rpd:   rpd,
		now:   time.Now,
		sleep: sleepContext,
	}
	for _, opt := range opts {
		opt(l)
	}
	l.nextReset = nextMidnight(l.now())
	return l, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func nextMidnight(now time.Time) time.Time {
	year, month, day := now.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, now.Location()).AddDate(0, 0, 1)
}

// AwaitCapacity blocks until the limiter can admit a call that is expected
// to consume estimatedTokens. On success the request and its token estimate
// are reserved in the current window. Returns the context error if ctx is
// cancelled while waiting.
func (l *Limiter) AwaitCapacity(ctx context.Context, estimatedTokens int) error {
	if estimatedTokens < 0 {
		estimatedTokens = 0
	}
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		l.mu.Lock()
		now := l.now()
		l.advance(now)

		wait, ok := l.tryReserve(now, estimatedTokens)
		l.mu.Unlock()

		if ok {
			return nil
		}
		if err := l.sleep(ctx, wait); err != nil {
			return err
		}
	}
}

// advance drops expired samples and rolls the daily counter. Callers must
// hold the lock.
func (l *Limiter) advance(now time.Time) {
	cutoff := now.Add(-window)
	keep := 0
	for _, s := range l.samples {
		if s.at.After(cutoff) {
			l.samples[keep] = s
			keep++
		}
	}
	l.samples = l.samples[:keep]

	if !now.Before(l.nextReset) {
		l.dailyCount = 0
		l.reservedTotal = 0
		l.reportedTotal = 0
		l.nextReset = nextMidnight(now)
	}
}

// tryReserve admits the call if all caps allow it, otherwise returns how
// long to wait before the earliest cap can clear. Callers must hold the lock.
func (l *Limiter) tryReserve(now time.Time, estimatedTokens int) (time.Duration, bool) {
	if l.dailyCount >= l.rpd {
		return l.nextReset.Sub(now), false
	}

	if len(l.samples) >= l.rpm {
		return l.untilExpiry(now, l.samples[0]), false
	}

	inWindow := 0
	for _, s := range l.samples {
		inWindow += s.tokens
	}
	if inWindow+estimatedTokens > l.tpm && len(l.samples) > 0 {
		// Wait for the oldest samples to expire until the estimate fits.
		freed := 0
		for _, s := range l.samples {
			freed += s.tokens
			if inWindow-freed+estimatedTokens <= l.tpm {
				return l.untilExpiry(now, s), false
			}
		}
		return l.untilExpiry(now, l.samples[len(l.samples)-1]), false
	}
	// An oversized estimate with an empty window is admitted rather than
	// blocking forever; the provider decides its own fate.

	l.samples = append(l.samples, sample{at: now, tokens: estimatedTokens})
	l.dailyCount++
	l.reservedTotal += estimatedTokens
	return 0, true
}

func (l *Limiter) untilExpiry(now time.Time, s sample) time.Duration {
	wait := s.at.Add(window).Sub(now)
	if wait < time.Millisecond {
		wait = time.Millisecond
	}
	return wait
}

// RecordUsage accumulates the provider-reported token count for drift
// diagnostics. The already-reserved window sample keeps its estimate;
// admission stays conservative and the gap between reserved and reported
// totals is surfaced through Snapshot instead of corrected silently.
func (l *Limiter) RecordUsage(actualTokens int) {
	if actualTokens < 0 {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.reportedTotal += actualTokens
}

// Usage is a point-in-time snapshot of limiter state.
type Usage struct {
	RequestsInWindow int
	TokensInWindow   int
	RequestsToday    int
	RPMLimit         int
	TPMLimit         int
	RPDLimit         int

	// Totals since the last daily reset: tokens reserved at admission
	// versus tokens the provider reported billing.
	TokensReserved int
	TokensReported int
}

// Snapshot reports current window occupancy against the configured caps.
func (l *Limiter) Snapshot() Usage {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.advance(l.now())

	tokens := 0
	for _, s := range l.samples {
		tokens += s.tokens
	}
	return Usage{
		RequestsInWindow: len(l.samples),
		TokensInWindow:   tokens,
		RequestsToday:    l.dailyCount,
		RPMLimit:         l.rpm,
		TPMLimit:         l.tpm,
		RPDLimit:         l.rpd,
		TokensReserved:   l.reservedTotal,
		TokensReported:   l.reportedTotal,
	}
}

// String renders the snapshot in the form logged after each analysis.
func (u Usage) String() string {
	return fmt.Sprintf("requests %d/%d per min, tokens %d/%d per min, requests %d/%d today",
		u.RequestsInWindow, u.RPMLimit, u.TokensInWindow, u.TPMLimit, u.RequestsToday, u.RPDLimit)
}
