package notification

import (
	"context"
	"time"

	"github.com/groomly/notify/pkg/template"
)

// Channel identifies a delivery channel.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
)

// Valid reports whether the channel is one the engine can dispatch.
func (c Channel) Valid() bool {
	return c == ChannelEmail || c == ChannelSMS
}

// Priority represents the notification priority level.
type Priority int

const (
	PriorityLow Priority = iota
	PriorityNormal
	PriorityHigh
	PriorityUrgent
)

// Message is the ephemeral, caller-supplied send request.
type Message struct {
	Type         string         `json:"type"`
	Channel      Channel        `json:"channel"`
	Recipient    string         `json:"recipient"`
	TemplateData map[string]any `json:"template_data,omitempty"`
	Priority     Priority       `json:"priority,omitempty"`
	ScheduledFor *time.Time     `json:"scheduled_for,omitempty"` // Deferred sends ride the retry sweep.
	IsTest       bool           `json:"is_test,omitempty"`
}

// Result is the outcome of a single Send call. Success=false with a
// populated Error is the normal shape for delivery failures; Send never
// propagates them as Go errors.
type Result struct {
	Success   bool     `json:"success"`
	MessageID string   `json:"message_id,omitempty"` // Provider reference, set only on success.
	Error     string   `json:"error,omitempty"`
	LogID     string   `json:"log_id,omitempty"`
	Deferred  bool     `json:"deferred,omitempty"`
	Warnings  []string `json:"warnings,omitempty"`
}

// RetryRunResult summarizes one ProcessRetries sweep.
type RetryRunResult struct {
	Processed int      `json:"processed"`
	Succeeded int      `json:"succeeded"`
	Failed    int      `json:"failed"`
	Errors    []string `json:"errors,omitempty"`
}

// OutboundMessage is the rendered, provider-ready form of a notification.
type OutboundMessage struct {
	Recipient string `json:"recipient"`
	Subject   string `json:"subject,omitempty"`
	BodyHTML  string `json:"body_html,omitempty"`
	BodyText  string `json:"body_text"`
	Tag       string `json:"tag,omitempty"` // Notification type, for provider-side analytics.
	IsTest    bool   `json:"is_test,omitempty"`
}

// SendReceipt is a provider's normalized acknowledgment of a send.
type SendReceipt struct {
	ProviderRef  string `json:"provider_ref"`
	SegmentCount int    `json:"segment_count,omitempty"` // SMS only.
}

// Provider is the per-channel send capability. Implementations normalize
// upstream failures into *classify.ProviderError so the classifier can read
// status codes. Selection between mock and real implementations is a
// startup-time injection decision.
type Provider interface {
	// Channel returns the delivery channel this provider handles.
	Channel() Channel

	// Send delivers a rendered message and returns the provider reference.
	Send(ctx context.Context, msg OutboundMessage) (SendReceipt, error)
}

// TemplateRepository is the external store of message templates.
type TemplateRepository interface {
	GetByTypeAndChannel(ctx context.Context, notifType string, ch Channel) (*template.Template, error)
}

// Settings gates whole notification types on and off.
type Settings interface {
	IsEnabled(ctx context.Context, notifType string) (bool, error)
}

// Preferences answers per-recipient opt-out questions. It is bypassed for
// transactional types.
type Preferences interface {
	IsOptedOut(ctx context.Context, recipient, notifType string) (bool, error)
}

// RateLimiter gates provider calls. Allow reports whether a call may
// proceed now and, when denied, how long to wait before asking again.
// ratelimit.Bucket satisfies this interface.
type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, time.Duration, error)
}
