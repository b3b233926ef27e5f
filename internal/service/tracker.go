package service

import (
	"context"

	"github.com/ayo6706/agency-settlement/internal/events"
	"go.uber.org/zap"
)

// StatusTracker drives the transaction aggregate's terminal transitions.
// INITIATED moves to SUCCESSFUL or FAILED exactly once; replayed terminal
// events are acknowledged no-ops, and a transition is never reversed.
type StatusTracker struct {
	store TransactionStore
	log   *zap.Logger
}

func NewStatusTracker(store TransactionStore, log *zap.Logger) *StatusTracker {
	if log == nil {
		log = zap.NewNop()
	}
	return &StatusTracker{store: store, log: log}
}

// HandleCompleted sets the terminal SUCCESSFUL status, writing the
// commission outcome atomically with it.
func (t *StatusTracker) HandleCompleted(ctx context.Context, e events.TransactionCompleted) error {
	if err := t.store.Complete(ctx, e.TransactionID, e.AmountDecimal(), e.CommissionApplied); err != nil {
		return err
	}
	t.log.Info("transaction successful",
		zap.String("transaction_id", e.TransactionID),
		zap.String("commission_amount", e.CommissionAmount),
		zap.Bool("commission_applied", e.CommissionApplied))
	return nil
}

// HandleFailed sets the terminal FAILED status with the diagnostic reason.
func (t *StatusTracker) HandleFailed(ctx context.Context, e events.TransactionFailed) error {
	if err := t.store.Fail(ctx, e.TransactionID, e.Reason); err != nil {
		return err
	}
	t.log.Info("transaction failed",
		zap.String("transaction_id", e.TransactionID),
		zap.String("reason", e.Reason))
	return nil
}

// HandleCommissionRecorded stamps the commission outcome onto a transaction
// that has not reached a terminal status yet; the status itself changes only
// on terminal transaction events.
func (t *StatusTracker) HandleCommissionRecorded(ctx context.Context, e events.CommissionRecorded) error {
	if err := t.store.StampCommission(ctx, e.TransactionID, e.AmountDecimal()); err != nil {
		return err
	}
	t.log.Info("stamped commission",
		zap.String("transaction_id", e.TransactionID),
		zap.String("commission_amount", e.CommissionAmount))
	return nil
}
