// Package classify maps raw provider and network errors into a typed,
// retryable/non-retryable classification.
//
// Channel providers normalize their transport failures into a ProviderError
// carrying the upstream status code; anything else (timeouts, connection
// resets, unknown shapes) is handled by the rule table in Classify.
//
// Rules are evaluated in a fixed order, first match wins:
//
//  1. network-layer failures          -> Transient, retryable
//  2. 429 or rate-limit phrasing      -> RateLimit, retryable
//  3. 5xx                             -> Transient, retryable
//  4. 400/422 or validation phrasing  -> Validation, not retryable
//  5. 401/403/404                     -> Permanent, not retryable
//  6. anything unrecognized           -> Permanent, not retryable
//
// The fail-safe default is deliberately non-retryable: an unknown failure
// retried without bound against a paid provider costs more than a missed
// notification that stays visible in the delivery log.
package classify
