package bus

import (
	"context"
	"fmt"

	"github.com/ayo6706/agency-settlement/internal/events"
)

// QueueBinding binds one durable queue to an exchange by exact routing key.
// Saga events never use wildcard bindings: a misrouted event must fail
// loudly, not be silently absorbed by a pattern.
type QueueBinding struct {
	Queue      string
	Exchange   string
	RoutingKey string
}

// Queue names are <service>.<routing key> so that services consuming the
// same routing key (agent.created goes to both the wallet and the
// commission engine) each get their own copy.
var (
	WalletQueues = []QueueBinding{
		{Queue: "wallet.agent.created", Exchange: events.ExchangeUserEvents, RoutingKey: events.KeyAgentCreated},
		{Queue: "wallet.transaction.initiated", Exchange: events.ExchangeTransactionEvents, RoutingKey: events.KeyTransactionInitiated},
		{Queue: "wallet.commission.recorded", Exchange: events.ExchangeCommissionEvents, RoutingKey: events.KeyCommissionRecorded},
		{Queue: "wallet.commission.skipped", Exchange: events.ExchangeCommissionEvents, RoutingKey: events.KeyCommissionSkipped},
	}

	CommissionQueues = []QueueBinding{
		{Queue: "commission.agent.created", Exchange: events.ExchangeUserEvents, RoutingKey: events.KeyAgentCreated},
		{Queue: "commission.wallet.credited", Exchange: events.ExchangeWalletEvents, RoutingKey: events.KeyWalletCredited},
		{Queue: "commission.wallet.debited", Exchange: events.ExchangeWalletEvents, RoutingKey: events.KeyWalletDebited},
	}

	TransactionQueues = []QueueBinding{
		{Queue: "transaction.commission.recorded", Exchange: events.ExchangeCommissionEvents, RoutingKey: events.KeyCommissionRecorded},
		{Queue: "transaction.transaction.completed", Exchange: events.ExchangeTransactionEvents, RoutingKey: events.KeyTransactionCompleted},
		{Queue: "transaction.transaction.failed", Exchange: events.ExchangeTransactionEvents, RoutingKey: events.KeyTransactionFailed},
	}
)

var exchanges = []string{
	events.ExchangeUserEvents,
	events.ExchangeTransactionEvents,
	events.ExchangeWalletEvents,
	events.ExchangeCommissionEvents,
}

// DeclareTopology idempotently declares every exchange plus the given
// service's queues and bindings. Declarations are safe to repeat on every
// boot.
func (p *Pool) DeclareTopology(ctx context.Context, bindings []QueueBinding) error {
	ch, err := p.Acquire(ctx)
	if err != nil {
		return err
	}
	defer p.Release(ch)

	for _, ex := range exchanges {
		if err := ch.ExchangeDeclare(ex, "topic", true, false, false, false, nil); err != nil {
			return fmt.Errorf("declare exchange %s: %w", ex, err)
		}
	}

	for _, b := range bindings {
		if _, err := ch.QueueDeclare(b.Queue, true, false, false, false, nil); err != nil {
			return fmt.Errorf("declare queue %s: %w", b.Queue, err)
		}
		if err := ch.QueueBind(b.Queue, b.RoutingKey, b.Exchange, false, nil); err != nil {
			return fmt.Errorf("bind %s to %s/%s: %w", b.Queue, b.Exchange, b.RoutingKey, err)
		}
	}
	return nil
}
