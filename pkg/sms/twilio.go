package sms

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/twilio/twilio-go"
	twclient "github.com/twilio/twilio-go/client"
	twapi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/groomly/notify/pkg/classify"
	"github.com/groomly/notify/pkg/notification"
	"github.com/groomly/notify/pkg/template"
)

// messageCreator is the slice of the Twilio API the provider uses.
type messageCreator interface {
	CreateMessage(params *twapi.CreateMessageParams) (*twapi.ApiV2010Message, error)
}

// TwilioProvider delivers SMS through the Twilio Programmable Messaging API.
type TwilioProvider struct {
	api  messageCreator
	from string
}

// NewTwilioProvider creates an SMS provider backed by Twilio.
func NewTwilioProvider(cfg Config) (*TwilioProvider, error) {
	if cfg.AccountSID == "" || cfg.AuthToken == "" {
		return nil, errors.Join(ErrInvalidConfig, errors.New("twilio credentials are required"))
	}
	if !phoneRegex.MatchString(cfg.FromNumber) {
		return nil, errors.Join(ErrInvalidConfig, fmt.Errorf("from number must be E.164: %s", cfg.FromNumber))
	}

	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})

	return &TwilioProvider{api: client.Api, from: cfg.FromNumber}, nil
}

// MustNewTwilioProvider is like NewTwilioProvider but panics on error.
func MustNewTwilioProvider(cfg Config) *TwilioProvider {
	p, err := NewTwilioProvider(cfg)
	if err != nil {
		panic(fmt.Sprintf("failed to create twilio provider: %v", err))
	}
	return p
}

func (p *TwilioProvider) Channel() notification.Channel {
	return notification.ChannelSMS
}

// Send delivers a single rendered message. Twilio REST errors carry their
// HTTP status into classify.ProviderError so the classifier can decide
// whether the failure is worth retrying.
//
// The Twilio client does not accept a context, so cancellation is checked
// before and after the call rather than during it.
func (p *TwilioProvider) Send(ctx context.Context, msg notification.OutboundMessage) (notification.SendReceipt, error) {
	if !phoneRegex.MatchString(msg.Recipient) {
		return notification.SendReceipt{}, &classify.ProviderError{
			StatusCode: 400,
			Message:    fmt.Sprintf("recipient must be E.164: %s", msg.Recipient),
		}
	}
	if err := ctx.Err(); err != nil {
		return notification.SendReceipt{}, err
	}

	params := &twapi.CreateMessageParams{}
	params.SetTo(msg.Recipient)
	params.SetFrom(p.from)
	params.SetBody(msg.BodyText)

	resp, err := p.api.CreateMessage(params)
	if err != nil {
		var terr *twclient.TwilioRestError
		if errors.As(err, &terr) {
			return notification.SendReceipt{}, &classify.ProviderError{
				StatusCode: terr.Status,
				Message:    terr.Message,
				Err:        err,
			}
		}
		return notification.SendReceipt{}, errors.Join(ErrFailedToSendSMS, err)
	}
	if err := ctx.Err(); err != nil {
		return notification.SendReceipt{}, err
	}

	receipt := notification.SendReceipt{SegmentCount: template.SegmentCount(msg.BodyText)}
	if resp.Sid != nil {
		receipt.ProviderRef = *resp.Sid
	}
	if resp.NumSegments != nil {
		if n, aerr := strconv.Atoi(*resp.NumSegments); aerr == nil && n > 0 {
			receipt.SegmentCount = n
		}
	}
	return receipt, nil
}
