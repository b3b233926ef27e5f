package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/ayo6706/agency-settlement/internal/domain"
	"github.com/ayo6706/agency-settlement/internal/events"
	"github.com/ayo6706/agency-settlement/internal/models"
	"github.com/ayo6706/agency-settlement/internal/observability"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// WalletLedger owns the per-agent float balance and the wallet leg of the
// settlement saga: it turns transaction.initiated into a balance change plus
// a wallet movement event, and commission events into the terminal
// transaction.completed.
type WalletLedger struct {
	store          WalletStore
	publisher      EventPublisher
	initialBalance decimal.Decimal
	log            *zap.Logger
}

func NewWalletLedger(store WalletStore, publisher EventPublisher, initialBalance decimal.Decimal, log *zap.Logger) *WalletLedger {
	if log == nil {
		log = zap.NewNop()
	}
	return &WalletLedger{
		store:          store,
		publisher:      publisher,
		initialBalance: initialBalance,
		log:            log,
	}
}

// EnsureWallet creates the agent's wallet if missing. Safe under redelivery
// and concurrent creation; the loser of the insert race succeeds quietly.
func (l *WalletLedger) EnsureWallet(ctx context.Context, agentID string) error {
	created, err := l.store.EnsureWallet(ctx, agentID, l.initialBalance)
	if err != nil {
		return err
	}
	if created {
		l.log.Info("created wallet", zap.String("agent_id", agentID),
			zap.String("balance", domain.FormatAmount(l.initialBalance)))
	} else {
		l.log.Info("wallet already exists", zap.String("agent_id", agentID))
	}
	return nil
}

// HandleTransactionInitiated applies the base balance change for a new
// transaction. Insufficient funds is a business outcome: the compensating
// transaction.failed event is published and the delivery succeeds.
func (l *WalletLedger) HandleTransactionInitiated(ctx context.Context, e events.TransactionInitiated) error {
	direction, ok := domain.DirectionForType(e.TransactionType)
	if !ok {
		return fmt.Errorf("%w: no direction for type %s", models.ErrUnprocessable, e.TransactionType)
	}
	amount := e.AmountDecimal()

	balance, err := l.store.ApplyBalanceChange(ctx, e.AgentID, amount, direction)
	if err != nil {
		if errors.Is(err, models.ErrInsufficientFunds) {
			observability.IncrementInsufficientFunds()
			l.log.Info("insufficient balance",
				zap.String("transaction_id", e.TransactionID),
				zap.String("agent_id", e.AgentID),
				zap.String("amount", e.Amount))
			return l.publisher.PublishEvent(ctx, events.TransactionFailed{
				TransactionID: e.TransactionID,
				AgentID:       e.AgentID,
				Reason:        insufficientBalanceReason(ctx, l.store, e.AgentID, amount),
			})
		}
		return err
	}

	l.log.Info("applied balance change",
		zap.String("transaction_id", e.TransactionID),
		zap.String("agent_id", e.AgentID),
		zap.String("direction", direction),
		zap.String("balance", domain.FormatAmount(balance)))

	return l.publisher.PublishEvent(ctx,
		events.NewWalletMovement(e.TransactionID, e.AgentID, amount, e.TransactionType, direction))
}

// HandleCommissionRecorded deducts the computed commission from the float
// and completes the transaction. The base mutation already happened, so a
// float too low for the commission does not fail the transaction; it
// completes with the commission unapplied.
func (l *WalletLedger) HandleCommissionRecorded(ctx context.Context, e events.CommissionRecorded) error {
	commission := e.AmountDecimal()
	applied := true

	if commission.IsPositive() {
		_, err := l.store.ApplyBalanceChange(ctx, e.AgentID, commission, domain.DirectionDebit)
		switch {
		case errors.Is(err, models.ErrInsufficientFunds):
			applied = false
			l.log.Warn("float too low for commission, completing without deduction",
				zap.String("transaction_id", e.TransactionID),
				zap.String("agent_id", e.AgentID),
				zap.String("commission", e.CommissionAmount))
		case err != nil:
			return err
		}
	}

	return l.publisher.PublishEvent(ctx, events.TransactionCompleted{
		TransactionID:     e.TransactionID,
		CommissionAmount:  domain.FormatAmount(commission),
		CommissionApplied: applied,
	})
}

// HandleCommissionSkipped completes a transaction that earned no commission.
func (l *WalletLedger) HandleCommissionSkipped(ctx context.Context, e events.CommissionSkipped) error {
	l.log.Info("commission skipped, completing transaction",
		zap.String("transaction_id", e.TransactionID),
		zap.String("reason", e.Reason))
	return l.publisher.PublishEvent(ctx, events.TransactionCompleted{
		TransactionID:     e.TransactionID,
		CommissionAmount:  "0.00",
		CommissionApplied: false,
	})
}

// insufficientBalanceReason builds the diagnostic carried on
// transaction.failed. Balance lookup is best-effort; the reason must never
// block the compensation.
func insufficientBalanceReason(ctx context.Context, store WalletStore, agentID string, required decimal.Decimal) string {
	available := "unknown"
	if g, ok := store.(interface {
		GetWallet(ctx context.Context, agentID string) (*models.Wallet, error)
	}); ok {
		if w, err := g.GetWallet(ctx, agentID); err == nil {
			available = domain.FormatAmount(w.Balance)
		}
	}
	return fmt.Sprintf("Insufficient balance. Required: %s, Available: %s",
		domain.FormatAmount(required), available)
}
