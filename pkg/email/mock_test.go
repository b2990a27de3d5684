package email_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/groomly/notify/pkg/email"
	"github.com/groomly/notify/pkg/notification"
)

func TestMockProvider_RecordsSends(t *testing.T) {
	t.Parallel()

	m := email.NewMockProvider()
	require.Equal(t, notification.ChannelEmail, m.Channel())

	r1, err := m.Send(context.Background(), notification.OutboundMessage{Recipient: "a@example.com"})
	require.NoError(t, err)
	r2, err := m.Send(context.Background(), notification.OutboundMessage{Recipient: "b@example.com"})
	require.NoError(t, err)

	assert.Equal(t, "mock-email-1", r1.ProviderRef)
	assert.Equal(t, "mock-email-2", r2.ProviderRef)

	sent := m.Sent()
	require.Len(t, sent, 2)
	assert.Equal(t, "a@example.com", sent[0].Recipient)
	assert.Equal(t, "b@example.com", sent[1].Recipient)

	m.Reset()
	assert.Empty(t, m.Sent())
}

func TestMockProvider_InjectedError(t *testing.T) {
	t.Parallel()

	boom := errors.New("smtp down")
	m := email.NewMockProvider(email.WithMockError(boom))

	_, err := m.Send(context.Background(), notification.OutboundMessage{Recipient: "a@example.com"})
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, m.Sent())
}

func TestMockProvider_FailureRate(t *testing.T) {
	t.Parallel()

	m := email.NewMockProvider(
		email.WithMockFailureRate(0.5),
		email.WithMockSeed(42),
	)

	var failures int
	for range 100 {
		if _, err := m.Send(context.Background(), notification.OutboundMessage{Recipient: "a@example.com"}); err != nil {
			failures++
			assert.ErrorIs(t, err, email.ErrFailedToSendEmail)
		}
	}

	// A fixed seed makes the split deterministic; just check both sides occur.
	assert.Greater(t, failures, 0)
	assert.Less(t, failures, 100)
	assert.Len(t, m.Sent(), 100-failures)
}
