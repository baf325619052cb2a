package backoff

import (
	"context"
	"errors"
	"math"
	"time"
)

// ErrExhausted is returned by Retry when every attempt asked for a retry.
var ErrExhausted = errors.New("retry attempts exhausted")

type BackoffStrategy interface {
	GetBackoffDuration(int, time.Duration, time.Duration) time.Duration
}

type Backoff struct {
	LastDuration time.Duration
	NextDuration time.Duration
	start        time.Duration
	limit        time.Duration
	count        int
	strategy     BackoffStrategy
}

func NewBackoff(strategy BackoffStrategy, start time.Duration, limit time.Duration) *Backoff {
	backoff := Backoff{strategy: strategy, start: start, limit: limit}
	backoff.Reset()
	return &backoff
}

func (b *Backoff) Reset() {
	b.count = 0
	b.LastDuration = 0
	b.NextDuration = b.getNextDuration()
}

// Count is the number of completed backoffs since the last Reset.
func (b *Backoff) Count() int {
	return b.count
}

func (b *Backoff) Backoff(ctx context.Context) (err error) {
	if b.NextDuration <= 0 {
		b.advance()
		return ctx.Err()
	}
	sleepCtx, cancelSleep := context.WithTimeout(ctx, b.NextDuration)
	<-sleepCtx.Done()
	cancelSleep()
	if sleepCtx.Err() == context.DeadlineExceeded {
		b.advance()
		return nil
	}
	return sleepCtx.Err()
}

func (b *Backoff) advance() {
	b.count++
	b.LastDuration = b.NextDuration
	b.NextDuration = b.getNextDuration()
}

func (b *Backoff) getNextDuration() time.Duration {
	backoff := b.strategy.GetBackoffDuration(b.count, b.start, b.LastDuration)
	if b.limit > 0 && backoff > b.limit {
		backoff = b.limit
	}
	return backoff
}

// Retry calls fn up to attempts times. fn reports whether the failure it
// returned is worth another attempt; any other outcome is returned as is.
// Between attempts it sleeps according to b.
func Retry(ctx context.Context, b *Backoff, attempts int, fn func(attempt int) (retry bool, err error)) error {
	var lastErr error
	for i := 0; i < attempts; i++ {
		retry, err := fn(i)
		if !retry {
			return err
		}
		lastErr = err
		if i == attempts-1 {
			break
		}
		if err := b.Backoff(ctx); err != nil {
			return err
		}
	}
	if lastErr == nil {
		lastErr = ErrExhausted
	}
	return &ExhaustedError{Attempts: attempts, Last: lastErr}
}

// ExhaustedError wraps the last retryable failure seen by Retry.
type ExhaustedError struct {
	Attempts int
	Last     error
}

func (e *ExhaustedError) Error() string {
	return ErrExhausted.Error() + ": " + e.Last.Error()
}

func (e *ExhaustedError) Is(target error) bool {
	return target == ErrExhausted
}

func (e *ExhaustedError) Unwrap() error {
	return e.Last
}

type exponential struct{}

func (exponential) GetBackoffDuration(backoffCount int, start time.Duration, lastBackoff time.Duration) time.Duration {
	period := int64(math.Pow(2, float64(backoffCount)))
	return time.Duration(period) * start
}

func NewExponential(start time.Duration, limit time.Duration) *Backoff {
	return NewBackoff(exponential{}, start, limit)
}

type linear struct{}

func (linear) GetBackoffDuration(backoffCount int, start time.Duration, lastBackoff time.Duration) time.Duration {
	return time.Duration(backoffCount) * start
}

func NewLinear(start time.Duration, limit time.Duration) *Backoff {
	return NewBackoff(linear{}, start, limit)
}
