package saga

import (
	"context"
	"fmt"

	"github.com/ayo6706/agency-settlement/internal/bus"
	"github.com/ayo6706/agency-settlement/internal/events"
	"github.com/ayo6706/agency-settlement/internal/service"
)

// Each service owns one ProcessFunc per queue. Handlers share the same
// shape: decode the typed event at the boundary, then run the component
// operation; classification of the returned error decides the ack action.

// WalletHandlers binds the wallet ledger's queues.
func WalletHandlers(ledger *service.WalletLedger) map[string]ProcessFunc {
	return map[string]ProcessFunc{
		"wallet.agent.created": decode(func(ctx context.Context, e events.AgentCreated) error {
			return ledger.EnsureWallet(ctx, e.AgentID)
		}),
		"wallet.transaction.initiated": decode(func(ctx context.Context, e events.TransactionInitiated) error {
			return ledger.HandleTransactionInitiated(ctx, e)
		}),
		"wallet.commission.recorded": decode(func(ctx context.Context, e events.CommissionRecorded) error {
			return ledger.HandleCommissionRecorded(ctx, e)
		}),
		"wallet.commission.skipped": decode(func(ctx context.Context, e events.CommissionSkipped) error {
			return ledger.HandleCommissionSkipped(ctx, e)
		}),
	}
}

// CommissionHandlers binds the commission engine's queues.
func CommissionHandlers(calc *service.CommissionCalculator) map[string]ProcessFunc {
	movement := decode(func(ctx context.Context, e events.WalletMovement) error {
		return calc.ComputeAndRecord(ctx, e)
	})
	return map[string]ProcessFunc{
		"commission.agent.created": decode(func(ctx context.Context, e events.AgentCreated) error {
			return calc.EnsureRate(ctx, e.AgentID)
		}),
		"commission.wallet.credited": movement,
		"commission.wallet.debited":  movement,
	}
}

// TransactionHandlers binds the status tracker's queues.
func TransactionHandlers(tracker *service.StatusTracker) map[string]ProcessFunc {
	return map[string]ProcessFunc{
		"transaction.commission.recorded": decode(func(ctx context.Context, e events.CommissionRecorded) error {
			return tracker.HandleCommissionRecorded(ctx, e)
		}),
		"transaction.transaction.completed": decode(func(ctx context.Context, e events.TransactionCompleted) error {
			return tracker.HandleCompleted(ctx, e)
		}),
		"transaction.transaction.failed": decode(func(ctx context.Context, e events.TransactionFailed) error {
			return tracker.HandleFailed(ctx, e)
		}),
	}
}

// decode parses the delivery into the expected variant and dispatches it.
// A payload decoding to a different variant than the queue expects is a
// routing fault and permanent.
func decode[E events.Event](handle func(ctx context.Context, e E) error) ProcessFunc {
	return func(ctx context.Context, d bus.Delivery) error {
		ev, err := events.Decode(d.RoutingKey, d.Body)
		if err != nil {
			return err
		}
		typed, ok := ev.(E)
		if !ok {
			return &events.ValidationError{
				Key:    d.RoutingKey,
				Reason: fmt.Sprintf("unexpected event type %T on queue %s", ev, d.Queue),
			}
		}
		return handle(ctx, typed)
	}
}
