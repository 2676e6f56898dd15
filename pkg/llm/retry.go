package llm

import (
	"context"
	"time"
)

// SleepFunc waits for d or until ctx is done
type SleepFunc func(ctx context.Context, d time.Duration) error

// RetryPolicy retries a failing call with exponential backoff.
// After attempt n fails the policy waits BaseDelay * 2^(n-1).
type RetryPolicy struct {
	Retries   int
	BaseDelay time.Duration
	Sleep     SleepFunc
}

// DefaultRetryPolicy makes three attempts, waiting 2s then 4s
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Retries:   2,
		BaseDelay: 2 * time.Second,
		Sleep:     ContextSleep,
	}
}

// ContextSleep is the real-time SleepFunc
func ContextSleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Delay returns the wait after the given failed attempt (1-based)
func (p RetryPolicy) Delay(attempt int) time.Duration {
	return p.BaseDelay << (attempt - 1)
}

// Do runs op until it succeeds or the retries are spent; the last error is returned
func (p RetryPolicy) Do(ctx context.Context, op func(ctx context.Context) error) error {
	sleep := p.Sleep
	if sleep == nil {
		sleep = ContextSleep
	}

	var err error
	for attempt := 1; ; attempt++ {
		if err = op(ctx); err == nil {
			return nil
		}
		if attempt > p.Retries {
			return err
		}
		if serr := sleep(ctx, p.Delay(attempt)); serr != nil {
			return err
		}
	}
}
