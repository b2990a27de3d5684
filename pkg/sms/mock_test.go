package sms_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/groomly/notify/pkg/notification"
	"github.com/groomly/notify/pkg/sms"
)

func TestMockProvider_RecordsSends(t *testing.T) {
	t.Parallel()

	m := sms.NewMockProvider()
	require.Equal(t, notification.ChannelSMS, m.Channel())

	r1, err := m.Send(context.Background(), notification.OutboundMessage{
		Recipient: "+15550002222",
		BodyText:  "short",
	})
	require.NoError(t, err)
	assert.Equal(t, "mock-sms-1", r1.ProviderRef)
	assert.Equal(t, 1, r1.SegmentCount)

	r2, err := m.Send(context.Background(), notification.OutboundMessage{
		Recipient: "+15550003333",
		BodyText:  strings.Repeat("y", 161),
	})
	require.NoError(t, err)
	assert.Equal(t, "mock-sms-2", r2.ProviderRef)
	assert.Equal(t, 2, r2.SegmentCount)

	sent := m.Sent()
	require.Len(t, sent, 2)
	assert.Equal(t, "+15550002222", sent[0].Recipient)

	m.Reset()
	assert.Empty(t, m.Sent())
}

func TestMockProvider_RejectsNonE164(t *testing.T) {
	t.Parallel()

	m := sms.NewMockProvider()
	_, err := m.Send(context.Background(), notification.OutboundMessage{Recipient: "555-0022"})
	assert.ErrorIs(t, err, sms.ErrInvalidRecipient)
	assert.Empty(t, m.Sent())
}

func TestMockProvider_FailureRate(t *testing.T) {
	t.Parallel()

	m := sms.NewMockProvider(
		sms.WithMockFailureRate(0.3),
		sms.WithMockSeed(7),
	)

	var failures int
	for range 100 {
		_, err := m.Send(context.Background(), notification.OutboundMessage{
			Recipient: "+15550002222",
			BodyText:  "hello",
		})
		if err != nil {
			failures++
			assert.ErrorIs(t, err, sms.ErrFailedToSendSMS)
		}
	}

	assert.Greater(t, failures, 0)
	assert.Less(t, failures, 100)
	assert.Len(t, m.Sent(), 100-failures)
}
