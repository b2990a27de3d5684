// Package notification is the delivery engine core: it renders message
// templates, dispatches them through pluggable channel providers, records an
// auditable delivery log entry per logical send, classifies failures, and
// retries transient ones with exponential backoff.
//
// # Architecture
//
// The package composes a few collaborators around a small state machine:
//
//   - Storage: the notification log, the only stateful component. One row
//     per logical send; retries mutate the same row.
//   - Provider: a channel capability (email, SMS). Real and mock
//     implementations are injected at construction time.
//   - TemplateRepository, Settings, Preferences: external collaborators
//     consumed through interfaces.
//   - Service: the orchestrator exposing Send, SendBatch and ProcessRetries.
//
// # Delivery contract
//
// Send is fire-and-forget with respect to the caller's business
// transaction: delivery failures are classified, recorded on the log entry,
// and surfaced as Result.Success=false, never as a returned error. A failed
// booking confirmation must not abort the booking.
//
// # State machine
//
//	pending --success--------------------> sent               (terminal)
//	pending --retryable failure----------> failed_retryable
//	failed_retryable --retry success-----> sent               (terminal)
//	failed_retryable --exhausted/fatal---> failed_permanent   (terminal)
//	pending --disabled or opted out------> skipped            (terminal)
//
// ProcessRetries claims due failed_retryable rows atomically (compare-and-
// transition in the memory store, FOR UPDATE SKIP LOCKED in Postgres), so
// overlapping scheduler ticks never attempt the same row twice.
//
// # Basic Usage
//
//	engine := template.New(business)
//	store := notification.NewMemoryStorage()
//	svc, err := notification.NewService(store, repo, engine,
//	    []notification.Provider{emailProvider, smsProvider},
//	    notification.WithSettings(settings),
//	    notification.WithPreferences(prefs),
//	)
//
//	res := svc.Send(ctx, notification.Message{
//	    Type:      "booking_confirmation",
//	    Channel:   notification.ChannelEmail,
//	    Recipient: "a@b.com",
//	    TemplateData: map[string]any{"pet_name": "Buddy"},
//	})
package notification
