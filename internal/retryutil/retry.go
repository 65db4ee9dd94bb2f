package retryutil

import (
	"context"
	"log/slog"
	"time"
)

const (
	defaultRetryDelay    = 2 * time.Second
	defaultRetryTimeout  = 12 * time.Second
	defaultRetryAttempts = 5
	maxRetryDelay        = time.Minute
)

// Policy bounds a background retry. Each attempt gets its own Timeout and
// the delay doubles between attempts up to one minute.
type Policy struct {
	Delay    time.Duration
	Timeout  time.Duration
	Attempts int
}

func (p Policy) normalize() Policy {
	if p.Delay <= 0 {
		p.Delay = defaultRetryDelay
	}
	if p.Timeout <= 0 {
		p.Timeout = defaultRetryTimeout
	}
	if p.Attempts <= 0 {
		p.Attempts = defaultRetryAttempts
	}
	return p
}

// AsyncRetry runs fn in the background until it succeeds or the attempts
// are used up. done, when non-nil, is called exactly once with the final
// error (nil on success).
func AsyncRetry(logger *slog.Logger, name string, policy Policy, fn func(ctx context.Context) error, done func(error)) {
	if fn == nil {
		return
	}
	policy = policy.normalize()
	if logger != nil {
		logger.Info(name+"_retry_scheduled",
			"delay", policy.Delay.String(),
			"timeout", policy.Timeout.String(),
			"attempts", policy.Attempts,
		)
	}
	go func() {
		err := run(logger, name, policy, fn)
		if done != nil {
			done(err)
		}
	}()
}

func run(logger *slog.Logger, name string, policy Policy, fn func(ctx context.Context) error) error {
	delay := policy.Delay
	var err error
	for attempt := 1; attempt <= policy.Attempts; attempt++ {
		timer := time.NewTimer(delay)
		<-timer.C
		timer.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), policy.Timeout)
		err = fn(ctx)
		cancel()
		if err == nil {
			if logger != nil {
				logger.Info(name+"_retry_ok", "attempt", attempt)
			}
			return nil
		}
		if logger != nil {
			logger.Warn(name+"_retry_failed", "attempt", attempt, "error", err.Error())
		}
		delay *= 2
		if delay > maxRetryDelay {
			delay = maxRetryDelay
		}
	}
	if logger != nil {
		logger.Error(name+"_retry_exhausted", "attempts", policy.Attempts, "error", err.Error())
	}
	return err
}
