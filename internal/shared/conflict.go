// Package shared provides common utilities used across the codebase.
//
//nolint:revive // "shared" is an intentional package name for cross-cutting helpers.
package shared

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/lib/pq"
)

// IsSQLiteBusyError reports a SQLITE_BUSY or "database is locked" error,
// both raised when another connection holds the write lock.
func IsSQLiteBusyError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

// IsPostgresConflictError reports a serialization failure or deadlock.
func IsPostgresConflictError(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	return pqErr.Code == "40001" || pqErr.Code == "40P01"
}

// IsConflictError reports a transient write conflict from either backend.
// These warrant a retry; anything else does not.
func IsConflictError(err error) bool {
	return IsSQLiteBusyError(err) || IsPostgresConflictError(err)
}

// RetryPolicy controls Retry.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

// DefaultRetryPolicy is three attempts with 50ms, 100ms backoff.
var DefaultRetryPolicy = RetryPolicy{MaxAttempts: 3, BaseDelay: 50 * time.Millisecond}

// Retry runs op until it succeeds, returns a non-conflict error, or the
// policy's attempts are exhausted. Delays double after each conflict.
func Retry(ctx context.Context, policy RetryPolicy, name string, op func() error) error {
	if policy.MaxAttempts <= 0 {
		policy.MaxAttempts = 1
	}

	var err error
	for i := 0; i < policy.MaxAttempts; i++ {
		if err = op(); err == nil {
			return nil
		}
		if !IsConflictError(err) || i == policy.MaxAttempts-1 {
			return err
		}

		delay := policy.BaseDelay * time.Duration(1<<i)
		slog.Debug("Store conflict, retrying", "op", name, "attempt", i+1, "delay", delay, "error", err)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}
