package shared

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEntry() *OutboxEntry {
	event := NewBaseDomainEvent("billing.invoice.created", "Invoice", uuid.New(), uuid.New())
	return NewOutboxEntry(event.HospitalIDValue, &event, []byte(`{}`))
}

func TestOutboxEntryLifecycle(t *testing.T) {
	t.Run("new entry is pending", func(t *testing.T) {
		e := newTestEntry()
		assert.Equal(t, OutboxStatusPending, e.Status)
		assert.Equal(t, 0, e.RetryCount)
		assert.Equal(t, DefaultMaxRetries, e.MaxRetries)
	})

	t.Run("mark processing then sent", func(t *testing.T) {
		e := newTestEntry()
		require.NoError(t, e.MarkProcessing())
		assert.Equal(t, OutboxStatusProcessing, e.Status)

		e.MarkSent()
		assert.Equal(t, OutboxStatusSent, e.Status)
		assert.NotNil(t, e.ProcessedAt)
	})

	t.Run("sent entries cannot be reprocessed", func(t *testing.T) {
		e := newTestEntry()
		require.NoError(t, e.MarkProcessing())
		e.MarkSent()
		assert.Error(t, e.MarkProcessing())
	})
}

func TestOutboxEntryRetry(t *testing.T) {
	t.Run("failure schedules exponential backoff", func(t *testing.T) {
		e := newTestEntry()
		require.NoError(t, e.MarkProcessing())

		before := time.Now()
		e.MarkFailed("connection refused")

		assert.Equal(t, OutboxStatusFailed, e.Status)
		assert.Equal(t, 1, e.RetryCount)
		assert.Equal(t, "connection refused", e.LastError)
		assert.True(t, e.CanRetry())
		require.NotNil(t, e.NextRetryAt)
		assert.WithinDuration(t, before.Add(DefaultBaseBackoff), *e.NextRetryAt, time.Second)
	})

	t.Run("backoff doubles per attempt", func(t *testing.T) {
		e := newTestEntry()
		e.MarkFailed("first")
		e.MarkFailed("second")
		e.MarkFailed("third")

		require.NotNil(t, e.NextRetryAt)
		// third failure: 1s << 2 = 4s
		assert.WithinDuration(t, time.Now().Add(4*DefaultBaseBackoff), *e.NextRetryAt, time.Second)
	})

	t.Run("exhausting retries dead-letters the entry", func(t *testing.T) {
		e := newTestEntry()
		for i := 0; i < DefaultMaxRetries; i++ {
			e.MarkFailed("sink unavailable")
		}

		assert.True(t, e.IsDead())
		assert.False(t, e.CanRetry())
		assert.Equal(t, DefaultMaxRetries, e.RetryCount)
	})

	t.Run("dead entries can be reset for redelivery", func(t *testing.T) {
		e := newTestEntry()
		for i := 0; i < DefaultMaxRetries; i++ {
			e.MarkFailed("sink unavailable")
		}
		require.True(t, e.IsDead())

		require.NoError(t, e.ResetForRetry())

		assert.Equal(t, OutboxStatusPending, e.Status)
		assert.Equal(t, 0, e.RetryCount)
		assert.Empty(t, e.LastError)
	})

	t.Run("only dead entries can be reset", func(t *testing.T) {
		e := newTestEntry()
		e.MarkFailed("once")
		assert.Error(t, e.ResetForRetry())
	})
}
