package email

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/groomly/notify/pkg/notification"
)

// MockProvider is an in-memory email provider for tests and local
// development. It records every message it accepts and can inject
// latency and failures.
type MockProvider struct {
	mu          sync.Mutex
	rng         *rand.Rand
	delay       time.Duration
	failureRate float64
	failWith    error
	sent        []notification.OutboundMessage
	seq         int
}

// MockOption configures a MockProvider.
type MockOption func(*MockProvider)

// WithMockDelay makes each Send sleep for d before responding.
func WithMockDelay(d time.Duration) MockOption {
	return func(m *MockProvider) { m.delay = d }
}

// WithMockFailureRate makes Send fail randomly with the given probability.
// The rate is clamped to [0, 1].
func WithMockFailureRate(rate float64) MockOption {
	return func(m *MockProvider) { m.failureRate = min(max(rate, 0), 1) }
}

// WithMockSeed fixes the random source so failure injection is
// reproducible across runs.
func WithMockSeed(seed uint64) MockOption {
	return func(m *MockProvider) { m.rng = rand.New(rand.NewPCG(seed, seed)) }
}

// WithMockError makes every Send return err instead of succeeding.
// Takes precedence over the failure rate.
func WithMockError(err error) MockOption {
	return func(m *MockProvider) { m.failWith = err }
}

// NewMockProvider creates a mock email provider.
func NewMockProvider(opts ...MockOption) *MockProvider {
	m := &MockProvider{
		rng: rand.New(rand.NewPCG(1, 1)),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *MockProvider) Channel() notification.Channel {
	return notification.ChannelEmail
}

func (m *MockProvider) Send(ctx context.Context, msg notification.OutboundMessage) (notification.SendReceipt, error) {
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return notification.SendReceipt{}, ctx.Err()
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failWith != nil {
		return notification.SendReceipt{}, m.failWith
	}
	if m.failureRate > 0 && m.rng.Float64() < m.failureRate {
		return notification.SendReceipt{}, fmt.Errorf("%w: injected failure", ErrFailedToSendEmail)
	}

	m.seq++
	m.sent = append(m.sent, msg)
	return notification.SendReceipt{ProviderRef: fmt.Sprintf("mock-email-%d", m.seq)}, nil
}

// Sent returns a copy of all messages accepted so far.
func (m *MockProvider) Sent() []notification.OutboundMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]notification.OutboundMessage, len(m.sent))
	copy(out, m.sent)
	return out
}

// Reset clears the recorded messages and the sequence counter.
func (m *MockProvider) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = nil
	m.seq = 0
}
