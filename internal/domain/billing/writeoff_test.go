package billing

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hospital/backend/internal/domain/shared"
)

func newTestWriteOff(t *testing.T) *WriteOff {
	t.Helper()
	w, err := NewWriteOff(uuid.New(), uuid.New(), decimal.NewFromInt(50),
		"uncollectible after 120 days", WriteOffCategoryBadDebt, uuid.New())
	require.NoError(t, err)
	return w
}

func TestNewWriteOff(t *testing.T) {
	t.Run("creates pending request", func(t *testing.T) {
		w := newTestWriteOff(t)

		assert.Equal(t, WriteOffStatusPending, w.Status)
		assert.True(t, w.IsPending())
		assert.Nil(t, w.ApprovedBy)
		assert.Nil(t, w.DecidedAt)

		events := w.GetDomainEvents()
		require.Len(t, events, 1)
		assert.Equal(t, EventTypeWriteOffRequested, events[0].EventType())
	})

	t.Run("rejects non-positive amount", func(t *testing.T) {
		_, err := NewWriteOff(uuid.New(), uuid.New(), decimal.Zero,
			"reason", WriteOffCategoryCharity, uuid.New())
		assert.True(t, shared.IsValidation(err))
	})

	t.Run("rejects missing reason", func(t *testing.T) {
		_, err := NewWriteOff(uuid.New(), uuid.New(), decimal.NewFromInt(10),
			"", WriteOffCategoryCharity, uuid.New())
		assert.True(t, shared.IsValidation(err))
	})

	t.Run("rejects unknown category", func(t *testing.T) {
		_, err := NewWriteOff(uuid.New(), uuid.New(), decimal.NewFromInt(10),
			"reason", "GOODWILL", uuid.New())
		assert.True(t, shared.IsValidation(err))
	})
}

func TestWriteOffDecision(t *testing.T) {
	t.Run("approve records approver and time", func(t *testing.T) {
		w := newTestWriteOff(t)
		approver := uuid.New()
		w.ClearDomainEvents()

		require.NoError(t, w.Approve(approver))

		assert.Equal(t, WriteOffStatusApproved, w.Status)
		require.NotNil(t, w.ApprovedBy)
		assert.Equal(t, approver, *w.ApprovedBy)
		assert.NotNil(t, w.DecidedAt)

		events := w.GetDomainEvents()
		require.Len(t, events, 1)
		assert.Equal(t, EventTypeWriteOffApproved, events[0].EventType())
	})

	t.Run("reject marks the request rejected", func(t *testing.T) {
		w := newTestWriteOff(t)
		w.ClearDomainEvents()

		require.NoError(t, w.Reject(uuid.New()))

		assert.Equal(t, WriteOffStatusRejected, w.Status)
		events := w.GetDomainEvents()
		require.Len(t, events, 1)
		assert.Equal(t, EventTypeWriteOffRejected, events[0].EventType())
	})

	t.Run("second decision is an invalid state", func(t *testing.T) {
		w := newTestWriteOff(t)
		require.NoError(t, w.Approve(uuid.New()))

		err := w.Approve(uuid.New())
		assert.True(t, shared.IsInvalidState(err))

		err = w.Reject(uuid.New())
		assert.True(t, shared.IsInvalidState(err))
	})
}
