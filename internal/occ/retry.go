package occ

import (
	"errors"
	"time"

	pkgerrors "github.com/pkg/errors"
)

// Retry begins a transaction, runs body against the resulting Handle,
// and commits. On ErrTxnConflict it sleeps with exponential backoff
// and tries again, up to maxRetries attempts. Any other error from
// body propagates immediately without retry.
//
// body must be side-effect-free outside the Handle: it may run more
// than once.
func Retry[K comparable, V any](db *DB[K, V], body func(*Handle[K, V]) error, opts ...RetryOption) error {
	if db.closed.Load() {
		return ErrClosed
	}

	cfg := retryConfig{
		maxRetries:    db.opts.maxRetries,
		backoffBase:   db.opts.backoffBase,
		backoffFactor: db.opts.backoffFactor,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	sleep := cfg.backoffBase
	for attempt := 0; attempt < cfg.maxRetries; attempt++ {
		h := db.Begin()

		if err := body(h); err != nil {
			h.Rollback()
			return err
		}

		err := h.Commit()
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrTxnConflict) {
			return err
		}

		if attempt == cfg.maxRetries-1 {
			log.WithField("attempts", attempt+1).Warn("retry: exhausted attempts on conflict")
			return pkgerrors.Wrapf(err, "retry: exhausted %d attempts", attempt+1)
		}
		time.Sleep(sleep)
		sleep = time.Duration(float64(sleep) * cfg.backoffFactor)
	}
	return ErrTxnConflict
}

type retryConfig struct {
	maxRetries    int
	backoffBase   time.Duration
	backoffFactor float64
}

// RetryOption overrides a single Retry call's attempt budget or
// backoff schedule.
type RetryOption func(*retryConfig)

func WithRetryMax(n int) RetryOption {
	return func(c *retryConfig) { c.maxRetries = n }
}

func WithRetryBackoff(base time.Duration, factor float64) RetryOption {
	return func(c *retryConfig) { c.backoffBase = base; c.backoffFactor = factor }
}
