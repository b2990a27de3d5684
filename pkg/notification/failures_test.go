package notification_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/groomly/notify/pkg/notification"
)

func TestFailureTracker_RecordAndReset(t *testing.T) {
	t.Parallel()

	tr := notification.NewFailureTracker()
	assert.Zero(t, tr.Consecutive("appointment_reminder"))

	assert.Equal(t, 1, tr.Record("appointment_reminder"))
	assert.Equal(t, 2, tr.Record("appointment_reminder"))
	assert.Equal(t, 1, tr.Record("booking_confirmation"), "types are tracked independently")

	tr.Reset("appointment_reminder")
	assert.Zero(t, tr.Consecutive("appointment_reminder"))
	assert.Equal(t, 1, tr.Consecutive("booking_confirmation"))
}

func TestFailureTracker_Concurrent(t *testing.T) {
	t.Parallel()

	tr := notification.NewFailureTracker()

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tr.Record("campaign")
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, tr.Consecutive("campaign"))
}
