package notification

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStorage is an in-memory implementation of Storage.
// Suitable for development and testing; production deployments use
// PostgresStorage for durability across restarts.
type MemoryStorage struct {
	mu      sync.RWMutex
	entries map[string]*LogEntry
}

// NewMemoryStorage creates an empty in-memory notification log.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		entries: make(map[string]*LogEntry),
	}
}

func (s *MemoryStorage) Create(ctx context.Context, entry *LogEntry) (string, error) {
	if entry == nil {
		return "", fmt.Errorf("%w: entry is nil", ErrInvalidMessage)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *entry
	if stored.ID == "" {
		stored.ID = uuid.New().String()
	}
	if _, exists := s.entries[stored.ID]; exists {
		return "", fmt.Errorf("log entry %s already exists", stored.ID)
	}

	now := time.Now()
	stored.Status = StatusPending
	stored.RetryCount = 0
	stored.CreatedAt = now
	stored.UpdatedAt = now
	stored.TemplateData = cloneData(entry.TemplateData)

	s.entries[stored.ID] = &stored
	return stored.ID, nil
}

func (s *MemoryStorage) Update(ctx context.Context, id string, upd Update) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, exists := s.entries[id]
	if !exists {
		return ErrEntryNotFound
	}

	if upd.Status != nil && *upd.Status != entry.Status {
		if entry.Status.Terminal() {
			return fmt.Errorf("%w: %s", ErrTerminalState, entry.Status)
		}
		if !CanTransition(entry.Status, *upd.Status) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, entry.Status, *upd.Status)
		}
		entry.Status = *upd.Status
	}
	if upd.RetryCount != nil {
		entry.RetryCount = *upd.RetryCount
	}
	if upd.RetryAfter != nil {
		entry.RetryAfter = upd.RetryAfter
	}
	if upd.MessageID != nil {
		entry.MessageID = *upd.MessageID
	}
	if upd.ErrorMessage != nil {
		entry.ErrorMessage = *upd.ErrorMessage
	}
	entry.UpdatedAt = time.Now()

	return nil
}

func (s *MemoryStorage) Get(ctx context.Context, id string) (*LogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, exists := s.entries[id]
	if !exists {
		return nil, ErrEntryNotFound
	}

	cp := *entry
	cp.TemplateData = cloneData(entry.TemplateData)
	return &cp, nil
}

func (s *MemoryStorage) Query(ctx context.Context, f Filter) ([]LogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []LogEntry
	for _, e := range s.entries {
		if f.Status != nil && e.Status != *f.Status {
			continue
		}
		if f.Channel != nil && e.Channel != *f.Channel {
			continue
		}
		if f.Type != "" && e.Type != f.Type {
			continue
		}
		if f.From != nil && e.CreatedAt.Before(*f.From) {
			continue
		}
		if f.To != nil && e.CreatedAt.After(*f.To) {
			continue
		}
		if f.IsTest != nil && e.IsTest != *f.IsTest {
			continue
		}
		cp := *e
		cp.TemplateData = cloneData(e.TemplateData)
		matched = append(matched, cp)
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	if f.Offset > 0 {
		if f.Offset >= len(matched) {
			return []LogEntry{}, nil
		}
		matched = matched[f.Offset:]
	}
	if f.Limit > 0 && f.Limit < len(matched) {
		matched = matched[:f.Limit]
	}

	return matched, nil
}

// ClaimRetryable selects due entries and flips them to pending in one
// critical section. Holding the write lock across select-and-transition is
// what makes two overlapping sweeps mutually exclusive here; the Postgres
// implementation gets the same guarantee from FOR UPDATE SKIP LOCKED.
func (s *MemoryStorage) ClaimRetryable(ctx context.Context, now time.Time, maxRetries, limit int) ([]LogEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var due []*LogEntry
	for _, e := range s.entries {
		if e.Status != StatusFailedRetryable {
			continue
		}
		if e.RetryAfter == nil || e.RetryAfter.After(now) {
			continue
		}
		if e.RetryCount >= maxRetries {
			continue
		}
		due = append(due, e)
	}

	// Oldest deadline first keeps starvation out of busy sweeps.
	sort.Slice(due, func(i, j int) bool {
		return due[i].RetryAfter.Before(*due[j].RetryAfter)
	})
	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}

	claimed := make([]LogEntry, 0, len(due))
	for _, e := range due {
		e.Status = StatusPending
		e.UpdatedAt = time.Now()

		cp := *e
		cp.TemplateData = cloneData(e.TemplateData)
		claimed = append(claimed, cp)
	}

	return claimed, nil
}

// cloneData shallow-copies a template data snapshot so callers cannot
// mutate stored state through the returned map.
func cloneData(data map[string]any) map[string]any {
	if data == nil {
		return nil
	}
	cp := make(map[string]any, len(data))
	for k, v := range data {
		cp[k] = v
	}
	return cp
}
