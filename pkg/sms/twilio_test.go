package sms

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	twclient "github.com/twilio/twilio-go/client"
	twapi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/groomly/notify/pkg/classify"
	"github.com/groomly/notify/pkg/notification"
)

type stubTwilio struct {
	resp *twapi.ApiV2010Message
	err  error
	last *twapi.CreateMessageParams
}

func (s *stubTwilio) CreateMessage(params *twapi.CreateMessageParams) (*twapi.ApiV2010Message, error) {
	s.last = params
	return s.resp, s.err
}

func strptr(s string) *string { return &s }

func TestNewTwilioProvider_Validation(t *testing.T) {
	t.Parallel()

	_, err := NewTwilioProvider(Config{AuthToken: "tok", FromNumber: "+15550001111"})
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = NewTwilioProvider(Config{AccountSID: "AC123", AuthToken: "tok", FromNumber: "555-0011"})
	assert.ErrorIs(t, err, ErrInvalidConfig)

	p, err := NewTwilioProvider(Config{AccountSID: "AC123", AuthToken: "tok", FromNumber: "+15550001111"})
	require.NoError(t, err)
	assert.Equal(t, notification.ChannelSMS, p.Channel())
}

func TestTwilioProvider_Send(t *testing.T) {
	t.Parallel()

	stub := &stubTwilio{resp: &twapi.ApiV2010Message{
		Sid:         strptr("SM123"),
		NumSegments: strptr("2"),
	}}
	p := &TwilioProvider{api: stub, from: "+15550001111"}

	receipt, err := p.Send(context.Background(), notification.OutboundMessage{
		Recipient: "+15550002222",
		BodyText:  "Reminder: Buddy's groom tomorrow at 10am.",
	})
	require.NoError(t, err)
	assert.Equal(t, "SM123", receipt.ProviderRef)
	assert.Equal(t, 2, receipt.SegmentCount)
	require.NotNil(t, stub.last)
	assert.Equal(t, "+15550002222", *stub.last.To)
	assert.Equal(t, "+15550001111", *stub.last.From)
}

func TestTwilioProvider_Send_SegmentFallback(t *testing.T) {
	t.Parallel()

	// No NumSegments in the response; the count comes from the body length.
	stub := &stubTwilio{resp: &twapi.ApiV2010Message{Sid: strptr("SM124")}}
	p := &TwilioProvider{api: stub, from: "+15550001111"}

	receipt, err := p.Send(context.Background(), notification.OutboundMessage{
		Recipient: "+15550002222",
		BodyText:  strings.Repeat("x", 200),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, receipt.SegmentCount)
}

func TestTwilioProvider_Send_InvalidRecipient(t *testing.T) {
	t.Parallel()

	p := &TwilioProvider{api: &stubTwilio{}, from: "+15550001111"}
	_, err := p.Send(context.Background(), notification.OutboundMessage{Recipient: "555-0022"})

	var perr *classify.ProviderError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, 400, perr.StatusCode)
}

func TestTwilioProvider_Send_RestError(t *testing.T) {
	t.Parallel()

	stub := &stubTwilio{err: &twclient.TwilioRestError{Status: 429, Message: "too many requests"}}
	p := &TwilioProvider{api: stub, from: "+15550001111"}

	_, err := p.Send(context.Background(), notification.OutboundMessage{Recipient: "+15550002222"})

	var perr *classify.ProviderError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, 429, perr.StatusCode)

	got := classify.Classify(err)
	assert.True(t, got.Retryable)
	assert.Equal(t, classify.KindRateLimit, got.Kind)
}

func TestTwilioProvider_Send_TransportError(t *testing.T) {
	t.Parallel()

	stub := &stubTwilio{err: errors.New("connection reset by peer")}
	p := &TwilioProvider{api: stub, from: "+15550001111"}

	_, err := p.Send(context.Background(), notification.OutboundMessage{Recipient: "+15550002222"})
	assert.ErrorIs(t, err, ErrFailedToSendSMS)
}

func TestTwilioProvider_Send_CancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := &TwilioProvider{api: &stubTwilio{}, from: "+15550001111"}
	_, err := p.Send(ctx, notification.OutboundMessage{Recipient: "+15550002222"})
	assert.ErrorIs(t, err, context.Canceled)
}
