package resilience

import (
	"context"
	"errors"
	"sync"
	"time"
)

var ErrCircuitOpen = errors.New("circuit breaker is open")

type State string

const (
	StateClosed   State = "closed"
	StateOpen     State = "open"
	StateHalfOpen State = "half_open"
)

// Breaker trips after a run of consecutive failures and lets a limited
// number of trial calls through once the open timeout has elapsed.
type Breaker struct {
	mu sync.Mutex

	cfg      BreakerConfig
	state    State
	failures int
	openedAt time.Time
	trials   int
	now      func() time.Time
}

// NewBreaker returns nil when the breaker is disabled. A nil *Breaker
// allows every call.
func NewBreaker(cfg BreakerConfig) *Breaker {
	if !cfg.Enabled {
		return nil
	}
	return &Breaker{
		cfg:   cfg.Normalize(),
		state: StateClosed,
		now:   time.Now,
	}
}

func (b *Breaker) Allow() error {
	if b == nil {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateOpen {
		if b.now().Sub(b.openedAt) < b.cfg.OpenTimeout {
			return ErrCircuitOpen
		}
		b.state = StateHalfOpen
		b.trials = 0
	}
	if b.state == StateHalfOpen {
		if b.trials >= b.cfg.HalfOpenMaxReq {
			return ErrCircuitOpen
		}
		b.trials++
	}
	return nil
}

func (b *Breaker) Success() {
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	b.state = StateClosed
	b.failures = 0
	b.trials = 0
}

func (b *Breaker) Failure() {
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures++
	if b.state == StateHalfOpen || b.failures >= b.cfg.FailureThreshold {
		b.state = StateOpen
		b.openedAt = b.now()
		b.trials = 0
	}
}

func (b *Breaker) State() State {
	if b == nil {
		return StateClosed
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Permanent marks an error that must not be retried.
type Permanent struct{ Err error }

func (p *Permanent) Error() string { return p.Err.Error() }
func (p *Permanent) Unwrap() error { return p.Err }

func MarkPermanent(err error) error {
	if err == nil {
		return nil
	}
	return &Permanent{Err: err}
}

// Do runs fn behind the breaker, retrying transient failures with
// exponential backoff. Permanent errors and an open circuit stop at once.
func Do(ctx context.Context, breaker *Breaker, retry RetryConfig, fn func(context.Context) error) error {
	retry = retry.Normalize()
	wait := retry.BaseWait

	var lastErr error
	for attempt := 1; attempt <= retry.Attempts; attempt++ {
		if err := breaker.Allow(); err != nil {
			if lastErr != nil {
				return errors.Join(err, lastErr)
			}
			return err
		}

		err := fn(ctx)
		if err == nil {
			breaker.Success()
			return nil
		}

		var permanent *Permanent
		if errors.As(err, &permanent) {
			// the remote answered; a rejected request is not a health signal.
			breaker.Success()
			return permanent.Err
		}
		breaker.Failure()
		lastErr = err

		if attempt == retry.Attempts {
			break
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return errors.Join(ctx.Err(), lastErr)
		case <-timer.C:
		}
		wait *= 2
		if wait > retry.MaxWait {
			wait = retry.MaxWait
		}
	}
	return lastErr
}
