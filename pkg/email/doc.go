// Package email provides the email channel providers for the notification
// delivery engine.
//
// Two implementations of notification.Provider are included:
//
//   - PostmarkProvider sends through Postmark's transactional API and
//     normalizes Postmark error codes into classify.ProviderError so the
//     failure classifier can make retry decisions.
//   - MockProvider is an in-memory double with configurable delay and
//     failure injection, used in tests and local development.
//
// Which implementation the engine uses is a startup-time wiring decision;
// the orchestrator only ever sees the Provider interface.
package email
