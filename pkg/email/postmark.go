package email

import (
	"context"
	"errors"
	"fmt"

	"github.com/mrz1836/postmark"

	"github.com/groomly/notify/pkg/classify"
	"github.com/groomly/notify/pkg/notification"
)

// postmarkSender is the subset of the Postmark client used by the provider.
// Narrowed to an interface so tests can substitute a double.
type postmarkSender interface {
	SendEmail(ctx context.Context, email postmark.Email) (postmark.EmailResponse, error)
}

// PostmarkProvider delivers email through the Postmark transactional API.
type PostmarkProvider struct {
	client  postmarkSender
	from    string
	replyTo string
}

// NewPostmarkProvider creates an email provider backed by Postmark.
// The server token, sender address, and reply-to address must be set and
// the addresses must be well formed.
func NewPostmarkProvider(cfg Config) (*PostmarkProvider, error) {
	if cfg.PostmarkServerToken == "" {
		return nil, errors.Join(ErrInvalidConfig, errors.New("postmark server token is required"))
	}
	if !emailRegex.MatchString(cfg.SenderEmail) {
		return nil, errors.Join(ErrInvalidConfig, fmt.Errorf("invalid sender email: %s", cfg.SenderEmail))
	}
	if !emailRegex.MatchString(cfg.ReplyToEmail) {
		return nil, errors.Join(ErrInvalidConfig, fmt.Errorf("invalid reply-to email: %s", cfg.ReplyToEmail))
	}

	return &PostmarkProvider{
		client:  postmark.NewClient(cfg.PostmarkServerToken, cfg.PostmarkAccountToken),
		from:    cfg.SenderEmail,
		replyTo: cfg.ReplyToEmail,
	}, nil
}

// MustNewPostmarkProvider is like NewPostmarkProvider but panics on error.
func MustNewPostmarkProvider(cfg Config) *PostmarkProvider {
	p, err := NewPostmarkProvider(cfg)
	if err != nil {
		panic(fmt.Sprintf("failed to create postmark provider: %v", err))
	}
	return p
}

func (p *PostmarkProvider) Channel() notification.Channel {
	return notification.ChannelEmail
}

// Send delivers a single rendered message. Postmark API errors are surfaced
// as classify.ProviderError carrying the closest HTTP status equivalent so
// the classifier can decide whether to retry.
func (p *PostmarkProvider) Send(ctx context.Context, msg notification.OutboundMessage) (notification.SendReceipt, error) {
	if !emailRegex.MatchString(msg.Recipient) {
		return notification.SendReceipt{}, &classify.ProviderError{
			StatusCode: 400,
			Message:    fmt.Sprintf("invalid recipient email: %s", msg.Recipient),
		}
	}

	resp, err := p.client.SendEmail(ctx, postmark.Email{
		From:       p.from,
		ReplyTo:    p.replyTo,
		To:         msg.Recipient,
		Subject:    msg.Subject,
		Tag:        msg.Tag,
		HTMLBody:   msg.BodyHTML,
		TextBody:   msg.BodyText,
		TrackOpens: true,
	})
	if err != nil {
		return notification.SendReceipt{}, errors.Join(ErrFailedToSendEmail, err)
	}
	if resp.ErrorCode > 0 {
		return notification.SendReceipt{}, &classify.ProviderError{
			StatusCode: statusForPostmarkCode(int(resp.ErrorCode)),
			Message:    resp.Message,
		}
	}

	return notification.SendReceipt{ProviderRef: resp.MessageID}, nil
}

// statusForPostmarkCode maps Postmark API error codes onto the HTTP status
// the classifier understands. Codes not listed are treated as bad requests.
func statusForPostmarkCode(code int) int {
	switch code {
	case 10: // bad or missing API token
		return 401
	case 300: // invalid email request (malformed fields)
		return 422
	case 400, 401: // sender signature not found / not confirmed
		return 404
	case 405: // account not allowed to send
		return 403
	case 406: // inactive recipient (hard bounce or spam complaint)
		return 422
	default:
		return 400
	}
}
