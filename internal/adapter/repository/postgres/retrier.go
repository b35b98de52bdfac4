package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
)

// PostgreSQL error codes.
const (
	pgErrDeadlock             = "40P01"
	pgErrSerializationFailure = "40001"
	pgErrUniqueViolation      = "23505"
	pgErrForeignKeyViolation  = "23503"
)

// Retrier implements usecase.Retrier. It re-runs a whole atomic unit when Postgres aborts it
// with a serialization failure or a deadlock; every other error is returned as is.
type Retrier struct {
	maxRetries      uint64
	initialInterval time.Duration
	maxInterval     time.Duration
	maxElapsedTime  time.Duration
	logger          zerolog.Logger
}

// NewRetrier creates a Retrier allowing three retries within ten seconds.
func NewRetrier(logger zerolog.Logger) *Retrier {
	return &Retrier{
		maxRetries:      3,
		initialInterval: 50 * time.Millisecond,
		maxInterval:     time.Second,
		maxElapsedTime:  10 * time.Second,
		logger:          logger,
	}
}

// Retry runs unit until it succeeds, fails permanently or the retry budget is spent.
func (r *Retrier) Retry(ctx context.Context, unit func() error) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = r.initialInterval
	policy.MaxInterval = r.maxInterval
	policy.MaxElapsedTime = r.maxElapsedTime

	attempt := 0
	notify := func(err error, wait time.Duration) {
		attempt++
		r.logger.Warn().
			Err(err).
			Int("retry", attempt).
			Dur("wait", wait).
			Msg("transaction conflict, retrying")
	}

	return backoff.RetryNotify(func() error {
		if err := unit(); err != nil {
			if !isRetryableError(err) {
				return backoff.Permanent(err)
			}
			return err
		}
		return nil
	}, backoff.WithContext(backoff.WithMaxRetries(policy, r.maxRetries), ctx), notify)
}

// isRetryableError reports whether Postgres aborted the transaction in a way that is safe to replay.
func isRetryableError(err error) bool {
	return hasCode(err, pgErrDeadlock, pgErrSerializationFailure)
}

func hasCode(err error, codes ...string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	for _, code := range codes {
		if pgErr.Code == code {
			return true
		}
	}
	return false
}
