// Package retry runs a ledger mutation as a serializable unit-of-work,
// retrying serialization conflicts with capped exponential backoff.
package retry

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/fortuna/ledger-engine/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Policy tunes the retry loop; the zero value is not valid, use
// DefaultPolicy or a Policy built from configuration.
type Policy struct {
	MaxAttempts   int
	BaseDelay     time.Duration
	CommandTimeout time.Duration
}

// DefaultPolicy matches the documented defaults: 3 retries, 10ms base
// delay doubling, ±25% jitter, 30s command timeout.
var DefaultPolicy = Policy{
	MaxAttempts:    3,
	BaseDelay:      10 * time.Millisecond,
	CommandTimeout: 30 * time.Second,
}

// Conflict is returned by fn to signal a serialization failure the loop
// should retry. Implementations of the store wrap the underlying engine's
// serialization_failure SQLSTATE in this sentinel via errors.Is.
var Conflict = domain.ErrConflict

// Do runs fn inside a deadline derived from p.CommandTimeout, retrying up
// to p.MaxAttempts times when fn returns an error wrapping Conflict. A
// context deadline exceeded is fatal and surfaces as domain.ErrTimeout; a
// cancelled context surfaces as domain.ErrCancelled. Every attempt is
// tagged with a correlation id so repeated attempts of one logical
// mutation are traceable across log lines.
func Do(ctx context.Context, p Policy, fn func(ctx context.Context) error) error {
	attemptID := uuid.NewString()

	for attempt := 0; ; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, p.CommandTimeout)
		err := fn(callCtx)
		cancel()

		if err == nil {
			return nil
		}

		if errors.Is(err, context.DeadlineExceeded) {
			log.Warn().Str("attempt_id", attemptID).Int("attempt", attempt).Msg("ledger unit-of-work timed out")
			return domain.ErrTimeout
		}
		if errors.Is(err, context.Canceled) {
			return domain.ErrCancelled
		}

		if !errors.Is(err, Conflict) {
			return err
		}

		if attempt >= p.MaxAttempts {
			log.Warn().Str("attempt_id", attemptID).Int("attempt", attempt).Msg("ledger unit-of-work exhausted retries")
			return domain.ErrConflict
		}

		delay := backoff(p.BaseDelay, attempt)
		log.Debug().Str("attempt_id", attemptID).Int("attempt", attempt).Dur("delay", delay).Msg("retrying ledger unit-of-work after serialization conflict")

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return domain.ErrCancelled
		}
	}
}

// backoff computes the capped exponential delay for attempt (0-indexed)
// with ±25% jitter: base * 2^attempt, then scaled by a factor in
// [0.75, 1.25].
func backoff(base time.Duration, attempt int) time.Duration {
	d := base << uint(attempt)
	jitter := 0.75 + rand.Float64()*0.5
	return time.Duration(float64(d) * jitter)
}
