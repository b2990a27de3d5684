package notification

import "sync"

// FailureTracker counts consecutive delivery failures per notification
// type. It is mutated only by the Service: a failed attempt records, a
// successful one resets. Callers read Consecutive to implement auto-pause
// policies (for example, suspending a campaign type after N failures in a
// row) without the engine keeping hidden process-wide counters.
type FailureTracker struct {
	mu     sync.Mutex
	counts map[string]int
}

// NewFailureTracker creates an empty tracker.
func NewFailureTracker() *FailureTracker {
	return &FailureTracker{counts: make(map[string]int)}
}

// Record increments the consecutive failure count for a type and returns
// the new count.
func (t *FailureTracker) Record(notifType string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.counts[notifType]++
	return t.counts[notifType]
}

// Reset clears the count for a type. Called on every successful delivery
// and available to operators after resolving an incident.
func (t *FailureTracker) Reset(notifType string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.counts, notifType)
}

// Consecutive returns the current consecutive failure count for a type.
func (t *FailureTracker) Consecutive(notifType string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.counts[notifType]
}
