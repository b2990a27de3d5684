package classify_test

import (
	"context"
	"errors"
	"fmt"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/groomly/notify/pkg/classify"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		err           error
		wantKind      classify.Kind
		wantRetryable bool
	}{
		{
			name:          "ECONNRESET is transient",
			err:           fmt.Errorf("dial tcp: %w", syscall.ECONNRESET),
			wantKind:      classify.KindTransient,
			wantRetryable: true,
		},
		{
			name:          "ECONNREFUSED is transient",
			err:           syscall.ECONNREFUSED,
			wantKind:      classify.KindTransient,
			wantRetryable: true,
		},
		{
			name:          "deadline exceeded is transient",
			err:           context.DeadlineExceeded,
			wantKind:      classify.KindTransient,
			wantRetryable: true,
		},
		{
			name:          "flattened reset message is transient",
			err:           errors.New("read: connection reset by peer"),
			wantKind:      classify.KindTransient,
			wantRetryable: true,
		},
		{
			name:          "http 429 is rate limit",
			err:           &classify.ProviderError{StatusCode: 429, Message: "slow down"},
			wantKind:      classify.KindRateLimit,
			wantRetryable: true,
		},
		{
			name:          "rate limit phrasing without status",
			err:           errors.New("rate limit exceeded for account"),
			wantKind:      classify.KindRateLimit,
			wantRetryable: true,
		},
		{
			name:          "http 500 is transient",
			err:           &classify.ProviderError{StatusCode: 500, Message: "internal"},
			wantKind:      classify.KindTransient,
			wantRetryable: true,
		},
		{
			name:          "http 503 is transient",
			err:           &classify.ProviderError{StatusCode: 503, Message: "unavailable"},
			wantKind:      classify.KindTransient,
			wantRetryable: true,
		},
		{
			name:          "http 400 is validation",
			err:           &classify.ProviderError{StatusCode: 400, Message: "nope"},
			wantKind:      classify.KindValidation,
			wantRetryable: false,
		},
		{
			name:          "http 422 is validation",
			err:           &classify.ProviderError{StatusCode: 422, Message: "unprocessable"},
			wantKind:      classify.KindValidation,
			wantRetryable: false,
		},
		{
			name:          "validation phrasing without status",
			err:           errors.New("invalid recipient address"),
			wantKind:      classify.KindValidation,
			wantRetryable: false,
		},
		{
			name:          "http 401 is permanent",
			err:           &classify.ProviderError{StatusCode: 401, Message: "unauthorized"},
			wantKind:      classify.KindPermanent,
			wantRetryable: false,
		},
		{
			name:          "http 404 is permanent",
			err:           &classify.ProviderError{StatusCode: 404, Message: "not found"},
			wantKind:      classify.KindPermanent,
			wantRetryable: false,
		},
		{
			name:          "unknown shape defaults to permanent",
			err:           errors.New("something inexplicable happened"),
			wantKind:      classify.KindPermanent,
			wantRetryable: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := classify.Classify(tt.err)
			assert.Equal(t, tt.wantKind, got.Kind)
			assert.Equal(t, tt.wantRetryable, got.Retryable)
			assert.NotEmpty(t, got.Message)
		})
	}
}

func TestClassify_RuleOrder(t *testing.T) {
	t.Parallel()

	// A 429 wrapped around a network reset classifies as transient:
	// network-layer detection runs before status rules.
	err := &classify.ProviderError{StatusCode: 429, Message: "upstream", Err: syscall.ECONNRESET}
	got := classify.Classify(err)
	assert.Equal(t, classify.KindTransient, got.Kind)
	assert.True(t, got.Retryable)
}

func TestProviderError(t *testing.T) {
	t.Parallel()

	inner := errors.New("boom")
	err := &classify.ProviderError{StatusCode: 503, Message: "unavailable", Err: inner}
	assert.Equal(t, "provider error 503: unavailable", err.Error())
	assert.ErrorIs(t, err, inner)

	noStatus := &classify.ProviderError{Message: "odd"}
	assert.Equal(t, "provider error: odd", noStatus.Error())
}
