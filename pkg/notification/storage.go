package notification

import (
	"context"
	"time"
)

// Storage is the notification log contract. It is the only component with
// externally visible side effects; everything else in the engine is pure or
// provider-bound.
type Storage interface {
	// Create persists a new log entry. The entry always starts pending,
	// regardless of what the caller set; the returned ID identifies the
	// logical send for its whole retry history.
	Create(ctx context.Context, entry *LogEntry) (string, error)

	// Update applies a partial mutation. Implementations reject status
	// changes out of terminal states and illegal transitions.
	Update(ctx context.Context, id string, upd Update) error

	// Get returns a copy of the entry, or ErrEntryNotFound.
	Get(ctx context.Context, id string) (*LogEntry, error)

	// Query returns entries matching the filter, newest first.
	Query(ctx context.Context, f Filter) ([]LogEntry, error)

	// ClaimRetryable atomically claims up to limit entries that are due
	// for a retry: status failed_retryable, retry_after <= now, retry
	// count below maxRetries. Claimed entries transition back to pending
	// before being returned, so a concurrent sweep can never claim the
	// same entry twice (at-most-once attempt per retry cycle).
	ClaimRetryable(ctx context.Context, now time.Time, maxRetries, limit int) ([]LogEntry, error)
}
