package notification_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/groomly/notify/pkg/notification"
)

func newEntry() *notification.LogEntry {
	return &notification.LogEntry{
		Type:         "booking_confirmation",
		Channel:      notification.ChannelEmail,
		Recipient:    "owner@example.com",
		TemplateID:   "tpl-1",
		TemplateData: map[string]any{"pet_name": "Buddy"},
	}
}

func TestMemoryStorage_CreateAlwaysStartsPending(t *testing.T) {
	t.Parallel()

	store := notification.NewMemoryStorage()

	entry := newEntry()
	entry.Status = notification.StatusSent // Caller-set status is ignored.
	entry.RetryCount = 5

	id, err := store.Create(context.Background(), entry)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	got, err := store.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, notification.StatusPending, got.Status)
	assert.Zero(t, got.RetryCount)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestMemoryStorage_GetReturnsCopies(t *testing.T) {
	t.Parallel()

	store := notification.NewMemoryStorage()
	id, err := store.Create(context.Background(), newEntry())
	require.NoError(t, err)

	first, err := store.Get(context.Background(), id)
	require.NoError(t, err)
	first.TemplateData["pet_name"] = "Rex"
	first.Status = notification.StatusSent

	second, err := store.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "Buddy", second.TemplateData["pet_name"])
	assert.Equal(t, notification.StatusPending, second.Status)
}

func TestMemoryStorage_GetUnknownID(t *testing.T) {
	t.Parallel()

	store := notification.NewMemoryStorage()
	_, err := store.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, notification.ErrEntryNotFound)
}

func TestMemoryStorage_UpdateEnforcesStateMachine(t *testing.T) {
	t.Parallel()

	store := notification.NewMemoryStorage()
	ctx := context.Background()

	setStatus := func(s notification.Status) notification.Update {
		return notification.Update{Status: &s}
	}

	t.Run("terminal entries are immutable", func(t *testing.T) {
		t.Parallel()
		id, err := store.Create(ctx, newEntry())
		require.NoError(t, err)
		require.NoError(t, store.Update(ctx, id, setStatus(notification.StatusSent)))

		err = store.Update(ctx, id, setStatus(notification.StatusFailedPermanent))
		assert.ErrorIs(t, err, notification.ErrTerminalState)
	})

	t.Run("illegal transition is rejected", func(t *testing.T) {
		t.Parallel()
		id, err := store.Create(ctx, newEntry())
		require.NoError(t, err)
		require.NoError(t, store.Update(ctx, id, setStatus(notification.StatusFailedRetryable)))

		err = store.Update(ctx, id, setStatus(notification.StatusSkipped))
		assert.ErrorIs(t, err, notification.ErrInvalidTransition)
	})

	t.Run("retryable entry can re-enter pending", func(t *testing.T) {
		t.Parallel()
		id, err := store.Create(ctx, newEntry())
		require.NoError(t, err)
		require.NoError(t, store.Update(ctx, id, setStatus(notification.StatusFailedRetryable)))
		require.NoError(t, store.Update(ctx, id, setStatus(notification.StatusPending)))
		require.NoError(t, store.Update(ctx, id, setStatus(notification.StatusSent)))
	})

	t.Run("unknown id", func(t *testing.T) {
		t.Parallel()
		err := store.Update(ctx, "nope", setStatus(notification.StatusSent))
		assert.ErrorIs(t, err, notification.ErrEntryNotFound)
	})
}

func TestMemoryStorage_UpdatePartialFields(t *testing.T) {
	t.Parallel()

	store := notification.NewMemoryStorage()
	ctx := context.Background()
	id, err := store.Create(ctx, newEntry())
	require.NoError(t, err)

	st := notification.StatusFailedRetryable
	count := 1
	after := time.Now().Add(time.Minute)
	errMsg := "timeout"
	require.NoError(t, store.Update(ctx, id, notification.Update{
		Status:       &st,
		RetryCount:   &count,
		RetryAfter:   &after,
		ErrorMessage: &errMsg,
	}))

	// A nil-field update leaves everything else alone.
	newMsg := "second timeout"
	require.NoError(t, store.Update(ctx, id, notification.Update{ErrorMessage: &newMsg}))

	got, err := store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, notification.StatusFailedRetryable, got.Status)
	assert.Equal(t, 1, got.RetryCount)
	require.NotNil(t, got.RetryAfter)
	assert.Equal(t, "second timeout", got.ErrorMessage)
}

func TestMemoryStorage_QueryFiltersAndOrders(t *testing.T) {
	t.Parallel()

	store := notification.NewMemoryStorage()
	ctx := context.Background()

	mk := func(typ string, ch notification.Channel, isTest bool) string {
		e := newEntry()
		e.Type = typ
		e.Channel = ch
		e.IsTest = isTest
		id, err := store.Create(ctx, e)
		require.NoError(t, err)
		time.Sleep(time.Millisecond) // Distinct CreatedAt for ordering.
		return id
	}

	mk("booking_confirmation", notification.ChannelEmail, false)
	mk("appointment_reminder", notification.ChannelSMS, false)
	newest := mk("appointment_reminder", notification.ChannelSMS, true)

	all, err := store.Query(ctx, notification.Filter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, newest, all[0].ID, "newest first")

	ch := notification.ChannelSMS
	smsOnly, err := store.Query(ctx, notification.Filter{Channel: &ch})
	require.NoError(t, err)
	assert.Len(t, smsOnly, 2)

	isTest := true
	testOnly, err := store.Query(ctx, notification.Filter{IsTest: &isTest})
	require.NoError(t, err)
	assert.Len(t, testOnly, 1)

	paged, err := store.Query(ctx, notification.Filter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, paged, 1)
	assert.NotEqual(t, newest, paged[0].ID)
}

func TestMemoryStorage_ClaimRetryable(t *testing.T) {
	t.Parallel()

	store := notification.NewMemoryStorage()
	ctx := context.Background()
	now := time.Now()

	seed := func(retryCount int, after time.Time) string {
		id, err := store.Create(ctx, newEntry())
		require.NoError(t, err)
		st := notification.StatusFailedRetryable
		require.NoError(t, store.Update(ctx, id, notification.Update{
			Status:     &st,
			RetryCount: &retryCount,
			RetryAfter: &after,
		}))
		return id
	}

	due := seed(0, now.Add(-time.Minute))
	seed(0, now.Add(time.Hour))   // not due yet
	seed(2, now.Add(-time.Hour))  // budget spent
	pendingID, err := store.Create(ctx, newEntry())
	require.NoError(t, err)

	claimed, err := store.ClaimRetryable(ctx, now, 2, 10)
	require.NoError(t, err)
	require.Len(t, claimed, 1)
	assert.Equal(t, due, claimed[0].ID)
	assert.Equal(t, notification.StatusPending, claimed[0].Status)

	// The claim flipped the row; a second sweep finds nothing.
	again, err := store.ClaimRetryable(ctx, now, 2, 10)
	require.NoError(t, err)
	assert.Empty(t, again)

	got, err := store.Get(ctx, pendingID)
	require.NoError(t, err)
	assert.Equal(t, notification.StatusPending, got.Status)
}

func TestMemoryStorage_ClaimRetryable_OldestFirstAndLimited(t *testing.T) {
	t.Parallel()

	store := notification.NewMemoryStorage()
	ctx := context.Background()
	now := time.Now()

	var ids []string
	for i := 3; i >= 1; i-- {
		id, err := store.Create(ctx, newEntry())
		require.NoError(t, err)
		st := notification.StatusFailedRetryable
		after := now.Add(-time.Duration(i) * time.Minute)
		require.NoError(t, store.Update(ctx, id, notification.Update{Status: &st, RetryAfter: &after}))
		ids = append(ids, id)
	}

	claimed, err := store.ClaimRetryable(ctx, now, 2, 2)
	require.NoError(t, err)
	require.Len(t, claimed, 2)
	assert.Equal(t, ids[0], claimed[0].ID, "oldest deadline claimed first")
	assert.Equal(t, ids[1], claimed[1].ID)
}

func TestMemoryStorage_ConcurrentClaims(t *testing.T) {
	t.Parallel()

	store := notification.NewMemoryStorage()
	ctx := context.Background()
	now := time.Now()

	for range 30 {
		id, err := store.Create(ctx, newEntry())
		require.NoError(t, err)
		st := notification.StatusFailedRetryable
		after := now.Add(-time.Minute)
		require.NoError(t, store.Update(ctx, id, notification.Update{Status: &st, RetryAfter: &after}))
	}

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		total int
	)
	for range 3 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			claimed, err := store.ClaimRetryable(ctx, now, 2, 20)
			require.NoError(t, err)
			mu.Lock()
			total += len(claimed)
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 30, total, "each entry must be claimed by exactly one sweep")
}
