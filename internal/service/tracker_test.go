package service

import (
	"context"
	"testing"

	"github.com/ayo6706/agency-settlement/internal/domain"
	"github.com/ayo6706/agency-settlement/internal/events"
	"github.com/ayo6706/agency-settlement/internal/models"
	"github.com/stretchr/testify/require"
)

func TestHandleCompletedMarksSuccessful(t *testing.T) {
	store := newFakeTransactionStore()
	store.seed("tx-1")
	tracker := NewStatusTracker(store, nil)

	err := tracker.HandleCompleted(context.Background(), events.TransactionCompleted{
		TransactionID:     "tx-1",
		CommissionAmount:  "7.50",
		CommissionApplied: true,
	})
	require.NoError(t, err)

	row := store.row("tx-1")
	require.Equal(t, domain.TxStatusSuccessful, row.Status)
	require.Equal(t, "7.5", row.CommissionAmount.String())
	require.True(t, row.CommissionApplied)
}

func TestHandleFailedMarksFailedWithReason(t *testing.T) {
	store := newFakeTransactionStore()
	store.seed("tx-1")
	tracker := NewStatusTracker(store, nil)

	err := tracker.HandleFailed(context.Background(), events.TransactionFailed{
		TransactionID: "tx-1",
		Reason:        "Insufficient balance. Required: 500.00, Available: 100.00",
	})
	require.NoError(t, err)

	row := store.row("tx-1")
	require.Equal(t, domain.TxStatusFailed, row.Status)
	require.Equal(t, "Insufficient balance. Required: 500.00, Available: 100.00", row.ErrorMessage)
}

func TestTerminalStatusNeverReverses(t *testing.T) {
	store := newFakeTransactionStore()
	store.seed("tx-1")
	tracker := NewStatusTracker(store, nil)
	ctx := context.Background()

	require.NoError(t, tracker.HandleFailed(ctx, events.TransactionFailed{
		TransactionID: "tx-1", Reason: "boom",
	}))

	// A late or replayed transaction.completed must be an acknowledged no-op.
	require.NoError(t, tracker.HandleCompleted(ctx, events.TransactionCompleted{
		TransactionID: "tx-1", CommissionAmount: "7.50", CommissionApplied: true,
	}))

	row := store.row("tx-1")
	require.Equal(t, domain.TxStatusFailed, row.Status)
	require.Equal(t, "boom", row.ErrorMessage)
	require.False(t, row.CommissionApplied)
}

func TestHandleCompletedRedeliveryIsNoOp(t *testing.T) {
	store := newFakeTransactionStore()
	store.seed("tx-1")
	tracker := NewStatusTracker(store, nil)
	ctx := context.Background()

	e := events.TransactionCompleted{TransactionID: "tx-1", CommissionAmount: "7.50", CommissionApplied: true}
	require.NoError(t, tracker.HandleCompleted(ctx, e))
	require.NoError(t, tracker.HandleCompleted(ctx, e))
	require.Equal(t, domain.TxStatusSuccessful, store.row("tx-1").Status)
}

func TestHandleCompletedUnknownTransaction(t *testing.T) {
	tracker := NewStatusTracker(newFakeTransactionStore(), nil)

	err := tracker.HandleCompleted(context.Background(), events.TransactionCompleted{
		TransactionID: "missing", CommissionAmount: "0.00",
	})
	require.ErrorIs(t, err, models.ErrTransactionNotFound)
}

func TestHandleCommissionRecordedStampsWithoutStatusChange(t *testing.T) {
	store := newFakeTransactionStore()
	store.seed("tx-1")
	tracker := NewStatusTracker(store, nil)

	err := tracker.HandleCommissionRecorded(context.Background(), events.CommissionRecorded{
		TransactionID:    "tx-1",
		AgentID:          "agent-1",
		CommissionAmount: "7.50",
	})
	require.NoError(t, err)

	row := store.row("tx-1")
	require.Equal(t, domain.TxStatusInitiated, row.Status, "stamping must not change status")
	require.Equal(t, "7.5", row.CommissionAmount.String())
	require.True(t, row.CommissionApplied)
}
