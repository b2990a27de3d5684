package notification

import (
	"context"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/groomly/notify/pkg/classify"
	"github.com/groomly/notify/pkg/logger"
	"github.com/groomly/notify/pkg/retry"
	"github.com/groomly/notify/pkg/template"
)

// maxSubjectLength is the rendered subject length past which a warning is
// attached to the Result. Long subjects deliver fine but get truncated by
// most inbox list views.
const maxSubjectLength = 150

// Service orchestrates template rendering, provider dispatch, failure
// classification, and the delivery log state machine.
type Service struct {
	storage   Storage
	templates TemplateRepository
	engine    *template.Engine
	providers map[Channel]Provider

	settings Settings
	prefs    Preferences
	limiter  RateLimiter
	failures *FailureTracker

	retryCfg retry.Config
	cfg      Config

	transactional map[string]struct{}
	logger        *slog.Logger
	now           func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithSettings sets the external settings collaborator gating notification
// types. Defaults to everything enabled.
func WithSettings(s Settings) Option {
	return func(svc *Service) {
		if s != nil {
			svc.settings = s
		}
	}
}

// WithPreferences sets the external per-recipient opt-out collaborator.
// Defaults to nobody opted out.
func WithPreferences(p Preferences) Option {
	return func(svc *Service) {
		if p != nil {
			svc.prefs = p
		}
	}
}

// WithRetryConfig overrides the retry policy.
func WithRetryConfig(cfg retry.Config) Option {
	return func(svc *Service) { svc.retryCfg = cfg }
}

// WithConfig overrides the pacing configuration.
func WithConfig(cfg Config) Option {
	return func(svc *Service) { svc.cfg = cfg }
}

// WithRateLimiter gates provider calls through a shared token bucket.
func WithRateLimiter(l RateLimiter) Option {
	return func(svc *Service) { svc.limiter = l }
}

// WithLogger sets the logger for the Service.
func WithLogger(l *slog.Logger) Option {
	return func(svc *Service) {
		if l != nil {
			svc.logger = l
		}
	}
}

// WithTransactionalTypes marks notification types that bypass recipient
// opt-out preferences (confirmations, receipts and other must-deliver
// types).
func WithTransactionalTypes(types ...string) Option {
	return func(svc *Service) {
		for _, t := range types {
			svc.transactional[t] = struct{}{}
		}
	}
}

// WithClock overrides the time source. Used in tests.
func WithClock(now func() time.Time) Option {
	return func(svc *Service) {
		if now != nil {
			svc.now = now
		}
	}
}

// NewService creates the orchestrator. Providers are injected once at
// construction; there is no runtime provider lookup or hidden global state.
func NewService(storage Storage, templates TemplateRepository, engine *template.Engine, providers []Provider, opts ...Option) (*Service, error) {
	if storage == nil {
		return nil, ErrStorageNil
	}
	if templates == nil {
		return nil, ErrTemplateRepoNil
	}
	if engine == nil {
		return nil, ErrEngineNil
	}
	if len(providers) == 0 {
		return nil, ErrNoProviders
	}

	svc := &Service{
		storage:       storage,
		templates:     templates,
		engine:        engine,
		providers:     make(map[Channel]Provider, len(providers)),
		settings:      allowAllSettings{},
		prefs:         noOptOuts{},
		failures:      NewFailureTracker(),
		retryCfg:      retry.DefaultConfig(),
		cfg:           DefaultConfig(),
		transactional: make(map[string]struct{}),
		logger:        slog.Default(),
		now:           time.Now,
	}
	for _, p := range providers {
		if p == nil {
			continue
		}
		svc.providers[p.Channel()] = p
	}
	for _, opt := range opts {
		opt(svc)
	}

	return svc, nil
}

// Failures exposes the per-type consecutive failure tracker so callers can
// implement auto-pause policies and reset them explicitly.
func (s *Service) Failures() *FailureTracker {
	return s.failures
}

// Send delivers a single notification. It never returns a Go error for
// delivery failures: the outcome is recorded on the log entry and reported
// through Result, so a notification failure cannot abort the business
// transaction that triggered it.
func (s *Service) Send(ctx context.Context, msg Message) Result {
	if err := s.validateMessage(msg); err != nil {
		return Result{Success: false, Error: err.Error()}
	}

	enabled, err := s.settings.IsEnabled(ctx, msg.Type)
	if err != nil {
		// Fail open: a broken settings lookup must not silence
		// transactional notifications.
		s.logger.LogAttrs(ctx, slog.LevelWarn, "settings lookup failed, assuming enabled",
			logger.NotificationType(msg.Type),
			logger.Error(err),
		)
		enabled = true
	}
	if !enabled {
		return s.skip(ctx, msg, "notification type is disabled")
	}

	if !s.isTransactional(msg.Type) {
		optedOut, err := s.prefs.IsOptedOut(ctx, msg.Recipient, msg.Type)
		if err != nil {
			s.logger.LogAttrs(ctx, slog.LevelWarn, "preference lookup failed, assuming not opted out",
				logger.NotificationType(msg.Type),
				logger.Error(err),
			)
			optedOut = false
		}
		if optedOut {
			return s.skip(ctx, msg, "recipient has opted out")
		}
	}

	tpl, err := s.templates.GetByTypeAndChannel(ctx, msg.Type, msg.Channel)
	if err != nil {
		return Result{Success: false, Error: fmt.Sprintf("load template for %s/%s: %v", msg.Type, msg.Channel, err)}
	}

	rendered, err := s.engine.Render(*tpl, msg.TemplateData)
	if err != nil {
		return Result{Success: false, Error: fmt.Sprintf("render template %s: %v", tpl.ID, err)}
	}

	var warnings []string
	if msg.Channel == ChannelSMS && rendered.SegmentCount > 1 {
		warnings = append(warnings, fmt.Sprintf("message renders to %d SMS segments", rendered.SegmentCount))
	}
	if msg.Channel == ChannelEmail && utf8.RuneCountInString(rendered.Subject) > maxSubjectLength {
		warnings = append(warnings, fmt.Sprintf("subject renders to %d characters, most clients truncate around %d", utf8.RuneCountInString(rendered.Subject), maxSubjectLength))
	}

	logID, err := s.storage.Create(ctx, &LogEntry{
		Type:         msg.Type,
		Channel:      msg.Channel,
		Recipient:    msg.Recipient,
		TemplateID:   tpl.ID,
		TemplateData: msg.TemplateData,
		IsTest:       msg.IsTest,
	})
	if err != nil {
		return Result{Success: false, Error: fmt.Sprintf("create log entry: %v", err), Warnings: warnings}
	}

	if msg.ScheduledFor != nil && msg.ScheduledFor.After(s.now()) {
		return s.deferSend(ctx, logID, *msg.ScheduledFor, warnings)
	}

	return s.attempt(ctx, logID, 0, msg.Type, msg.Channel, OutboundMessage{
		Recipient: msg.Recipient,
		Subject:   rendered.Subject,
		BodyHTML:  rendered.HTML,
		BodyText:  rendered.Text,
		Tag:       msg.Type,
		IsTest:    msg.IsTest,
	}, warnings)
}

// SendBatch sends messages in fixed-size chunks with a short pause between
// chunks to smooth burst load. Each message is independent: one failure
// never aborts the batch, and result order matches input order.
func (s *Service) SendBatch(ctx context.Context, msgs []Message) []Result {
	results := make([]Result, 0, len(msgs))

	for start := 0; start < len(msgs); start += s.cfg.BatchSize {
		end := min(start+s.cfg.BatchSize, len(msgs))
		for _, m := range msgs[start:end] {
			results = append(results, s.Send(ctx, m))
		}

		if end < len(msgs) && !sleepCtx(ctx, s.cfg.BatchPause) {
			for range msgs[end:] {
				results = append(results, Result{Success: false, Error: ctx.Err().Error()})
			}
			return results
		}
	}

	return results
}

// ProcessRetries sweeps the log for entries due a retry and re-runs the
// send for each. The storage claim is atomic, so overlapping sweeps
// partition the due set instead of double-sending. Invoked periodically by
// an external scheduler.
func (s *Service) ProcessRetries(ctx context.Context) RetryRunResult {
	var res RetryRunResult

	for {
		claimed, err := s.storage.ClaimRetryable(ctx, s.now(), s.retryCfg.MaxRetries, s.cfg.RetryBatchSize)
		if err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("claim retryable entries: %v", err))
			return res
		}
		if len(claimed) == 0 {
			return res
		}

		for i := range claimed {
			res.Processed++
			r := s.retryEntry(ctx, &claimed[i])
			if r.Success {
				res.Succeeded++
			} else {
				res.Failed++
				if r.Error != "" {
					res.Errors = append(res.Errors, fmt.Sprintf("entry %s: %s", claimed[i].ID, r.Error))
				}
			}
		}

		if len(claimed) < s.cfg.RetryBatchSize {
			return res
		}
		// Pause between full batches to respect provider rate limits.
		if !sleepCtx(ctx, s.cfg.RetryBatchPause) {
			return res
		}
	}
}

// retryEntry re-runs the send for a claimed (now pending) log entry,
// reusing the stored template data snapshot. The entry's existing row
// carries the whole retry history; no new row is ever created here.
func (s *Service) retryEntry(ctx context.Context, entry *LogEntry) Result {
	tpl, err := s.templates.GetByTypeAndChannel(ctx, entry.Type, entry.Channel)
	if err != nil {
		return s.failPermanently(ctx, entry.ID, fmt.Sprintf("load template for %s/%s: %v", entry.Type, entry.Channel, err))
	}

	rendered, err := s.engine.Render(*tpl, entry.TemplateData)
	if err != nil {
		return s.failPermanently(ctx, entry.ID, fmt.Sprintf("render template %s: %v", tpl.ID, err))
	}

	return s.attempt(ctx, entry.ID, entry.RetryCount, entry.Type, entry.Channel, OutboundMessage{
		Recipient: entry.Recipient,
		Subject:   rendered.Subject,
		BodyHTML:  rendered.HTML,
		BodyText:  rendered.Text,
		Tag:       entry.Type,
		IsTest:    entry.IsTest,
	}, nil)
}

// attempt performs one provider call against an existing pending log entry
// and applies the resulting state transition.
func (s *Service) attempt(ctx context.Context, logID string, retryCount int, notifType string, ch Channel, out OutboundMessage, warnings []string) Result {
	provider := s.providers[ch]
	if provider == nil {
		// Send validates provider presence up front, but a claimed retry row
		// can outlive the provider set it was created under.
		return s.failPermanently(ctx, logID, "no provider configured for channel "+string(ch))
	}

	if err := s.waitForLimiter(ctx, ch); err != nil {
		return s.fail(ctx, logID, retryCount, notifType, err, warnings)
	}

	callCtx, cancel := context.WithTimeout(ctx, s.cfg.ProviderTimeout)
	receipt, err := provider.Send(callCtx, out)
	cancel()

	if err != nil {
		return s.fail(ctx, logID, retryCount, notifType, err, warnings)
	}

	sent := StatusSent
	if uerr := s.storage.Update(ctx, logID, Update{Status: &sent, MessageID: &receipt.ProviderRef}); uerr != nil {
		s.logger.LogAttrs(ctx, slog.LevelError, "failed to record successful delivery",
			logger.LogID(logID),
			logger.Error(uerr),
		)
	}
	s.failures.Reset(notifType)

	s.logger.LogAttrs(ctx, slog.LevelInfo, "notification sent",
		logger.LogID(logID),
		logger.NotificationType(notifType),
		logger.Channel(string(ch)),
		logger.MessageID(receipt.ProviderRef),
		logger.RetryCount(retryCount),
	)

	return Result{Success: true, MessageID: receipt.ProviderRef, LogID: logID, Warnings: warnings}
}

// fail classifies a send failure and applies the retry decision: retryable
// failures below the retry limit schedule the next attempt on the same log
// row; everything else is terminal.
func (s *Service) fail(ctx context.Context, logID string, retryCount int, notifType string, sendErr error, warnings []string) Result {
	cls := classify.Classify(sendErr)
	count := s.failures.Record(notifType)

	s.logger.LogAttrs(ctx, slog.LevelWarn, "notification delivery failed",
		logger.LogID(logID),
		logger.NotificationType(notifType),
		slog.String("kind", string(cls.Kind)),
		slog.Bool("retryable", cls.Retryable),
		logger.RetryCount(retryCount),
		slog.Int("consecutive_failures", count),
		logger.Error(sendErr),
	)

	if cls.Retryable && retryCount < s.retryCfg.MaxRetries {
		next := retryCount + 1
		if next >= s.retryCfg.MaxRetries {
			// The retry budget is spent; don't schedule an attempt the
			// sweep would never claim.
			st := StatusFailedPermanent
			if uerr := s.storage.Update(ctx, logID, Update{Status: &st, RetryCount: &next, ErrorMessage: &cls.Message}); uerr != nil {
				s.logger.LogAttrs(ctx, slog.LevelError, "failed to record permanent failure", logger.LogID(logID), logger.Error(uerr))
			}
		} else {
			retryAt := retry.NextAttemptAt(s.now(), retryCount, s.retryCfg)
			st := StatusFailedRetryable
			if uerr := s.storage.Update(ctx, logID, Update{Status: &st, RetryCount: &next, RetryAfter: &retryAt, ErrorMessage: &cls.Message}); uerr != nil {
				s.logger.LogAttrs(ctx, slog.LevelError, "failed to schedule retry", logger.LogID(logID), logger.Error(uerr))
			}
		}
	} else {
		st := StatusFailedPermanent
		if uerr := s.storage.Update(ctx, logID, Update{Status: &st, ErrorMessage: &cls.Message}); uerr != nil {
			s.logger.LogAttrs(ctx, slog.LevelError, "failed to record permanent failure", logger.LogID(logID), logger.Error(uerr))
		}
	}

	return Result{Success: false, Error: cls.Message, LogID: logID, Warnings: warnings}
}

// failPermanently marks a claimed entry terminally failed for non-provider
// reasons (template gone, render bug).
func (s *Service) failPermanently(ctx context.Context, logID, reason string) Result {
	st := StatusFailedPermanent
	if err := s.storage.Update(ctx, logID, Update{Status: &st, ErrorMessage: &reason}); err != nil {
		s.logger.LogAttrs(ctx, slog.LevelError, "failed to record permanent failure",
			logger.LogID(logID),
			logger.Error(err),
		)
	}
	return Result{Success: false, Error: reason, LogID: logID}
}

// skip records a terminal skipped entry without a provider call.
func (s *Service) skip(ctx context.Context, msg Message, reason string) Result {
	logID, err := s.storage.Create(ctx, &LogEntry{
		Type:         msg.Type,
		Channel:      msg.Channel,
		Recipient:    msg.Recipient,
		TemplateData: msg.TemplateData,
		IsTest:       msg.IsTest,
	})
	if err != nil {
		return Result{Success: false, Error: fmt.Sprintf("create log entry: %v", err)}
	}

	st := StatusSkipped
	if err := s.storage.Update(ctx, logID, Update{Status: &st, ErrorMessage: &reason}); err != nil {
		s.logger.LogAttrs(ctx, slog.LevelError, "failed to record skipped notification",
			logger.LogID(logID),
			logger.Error(err),
		)
	}

	s.logger.LogAttrs(ctx, slog.LevelInfo, "notification skipped",
		logger.LogID(logID),
		logger.NotificationType(msg.Type),
		slog.String("reason", reason),
	)

	return Result{Success: false, Error: reason, LogID: logID}
}

// deferSend parks a scheduled send on the retry sweep: the row waits as
// failed_retryable with RetryAfter at the scheduled time and is claimed by
// ProcessRetries once due.
func (s *Service) deferSend(ctx context.Context, logID string, at time.Time, warnings []string) Result {
	st := StatusFailedRetryable
	reason := "deferred until " + at.Format(time.RFC3339)
	if err := s.storage.Update(ctx, logID, Update{Status: &st, RetryAfter: &at, ErrorMessage: &reason}); err != nil {
		return Result{Success: false, Error: fmt.Sprintf("defer notification: %v", err), LogID: logID, Warnings: warnings}
	}
	return Result{Success: false, Deferred: true, LogID: logID, Warnings: warnings}
}

func (s *Service) validateMessage(msg Message) error {
	if msg.Type == "" {
		return fmt.Errorf("%w: type is required", ErrInvalidMessage)
	}
	if !msg.Channel.Valid() {
		return fmt.Errorf("%w: unknown channel %q", ErrInvalidMessage, msg.Channel)
	}
	if msg.Recipient == "" {
		return fmt.Errorf("%w: recipient is required", ErrInvalidMessage)
	}
	if _, ok := s.providers[msg.Channel]; !ok {
		return fmt.Errorf("%w: %s", ErrNoProvider, msg.Channel)
	}
	return nil
}

func (s *Service) isTransactional(notifType string) bool {
	_, ok := s.transactional[notifType]
	return ok
}

// waitForLimiter blocks until the rate limiter admits a provider call or
// the wait budget runs out. Budget exhaustion is reported as a 429 so the
// normal classification path schedules a backoff retry.
func (s *Service) waitForLimiter(ctx context.Context, ch Channel) error {
	if s.limiter == nil {
		return nil
	}

	deadline := s.now().Add(s.cfg.LimiterWait)
	for {
		allowed, retryIn, err := s.limiter.Allow(ctx, "notify:"+string(ch))
		if err != nil {
			// Fail open: a broken limiter store must not stop deliveries.
			s.logger.LogAttrs(ctx, slog.LevelWarn, "rate limiter unavailable, proceeding",
				logger.Channel(string(ch)),
				logger.Error(err),
			)
			return nil
		}
		if allowed {
			return nil
		}

		if retryIn <= 0 {
			retryIn = 50 * time.Millisecond
		}
		if s.now().Add(retryIn).After(deadline) {
			return &classify.ProviderError{StatusCode: 429, Message: "rate limit wait budget exhausted for channel " + string(ch)}
		}
		if !sleepCtx(ctx, retryIn) {
			return ctx.Err()
		}
	}
}

// sleepCtx sleeps for d unless the context ends first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
