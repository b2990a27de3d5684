package notification

import "time"

// Status is the delivery state of a log entry.
type Status string

const (
	StatusPending         Status = "pending"
	StatusSent            Status = "sent"
	StatusFailedRetryable Status = "failed_retryable"
	StatusFailedPermanent Status = "failed_permanent"
	StatusSkipped         Status = "skipped"
)

// Terminal reports whether the status is final. Terminal entries are
// immutable; the log is an audit trail, never pruned.
func (s Status) Terminal() bool {
	switch s {
	case StatusSent, StatusFailedPermanent, StatusSkipped:
		return true
	}
	return false
}

// transitions is the allowed state machine. Rows are created pending;
// failed_retryable re-enters pending when a retry sweep claims the row.
var transitions = map[Status][]Status{
	StatusPending:         {StatusSent, StatusFailedRetryable, StatusFailedPermanent, StatusSkipped},
	StatusFailedRetryable: {StatusPending, StatusSent, StatusFailedPermanent},
}

// CanTransition reports whether moving a log entry from one status to
// another is legal.
func CanTransition(from, to Status) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// LogEntry is one row of the notification log: the full retry history of a
// single logical send. Retries mutate RetryCount/RetryAfter/Status on this
// row; a new attempt never inserts a new row.
type LogEntry struct {
	ID           string         `json:"id"`
	Type         string         `json:"type"`
	Channel      Channel        `json:"channel"`
	Recipient    string         `json:"recipient"`
	TemplateID   string         `json:"template_id"`
	TemplateData map[string]any `json:"template_data,omitempty"` // Snapshot taken at Send time.
	Status       Status         `json:"status"`
	RetryCount   int            `json:"retry_count"`
	RetryAfter   *time.Time     `json:"retry_after,omitempty"`
	MessageID    string         `json:"message_id,omitempty"` // Set if and only if Status is sent.
	ErrorMessage string         `json:"error_message,omitempty"`
	IsTest       bool           `json:"is_test"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// Update is a partial mutation of a log entry. Nil fields are left as-is.
type Update struct {
	Status       *Status
	RetryCount   *int
	RetryAfter   *time.Time
	MessageID    *string
	ErrorMessage *string
}

// Filter selects log entries for the read-only query surface.
type Filter struct {
	Status  *Status
	Channel *Channel
	Type    string
	From    *time.Time
	To      *time.Time
	IsTest  *bool
	Limit   int
	Offset  int
}
