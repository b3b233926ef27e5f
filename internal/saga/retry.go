package saga

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ayo6706/agency-settlement/internal/bus"
	"github.com/ayo6706/agency-settlement/internal/events"
	"github.com/ayo6706/agency-settlement/internal/observability"
	"go.uber.org/zap"
)

// Retrier wraps process funcs with the bounded-retry policy: transient
// failures re-run in process with exponential backoff; once the budget is
// spent the message is dead-lettered and, where a transaction can be
// resolved from the payload, the saga is compensated so the transaction does
// not stay INITIATED forever.
type Retrier struct {
	MaxAttempts int
	Backoff     time.Duration
	Log         *zap.Logger

	// OnDeadLetter runs after the final rejection, with the delivery and
	// the last error. Optional.
	OnDeadLetter func(ctx context.Context, d bus.Delivery, cause error)
}

// Wrap turns a process func into a bus handler applying the retry policy.
func (r *Retrier) Wrap(process ProcessFunc) bus.HandlerFunc {
	log := r.Log
	if log == nil {
		log = zap.NewNop()
	}
	attempts := r.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	return func(ctx context.Context, d bus.Delivery) bus.Action {
		start := time.Now()
		defer func() { observability.ObserveHandler(d.Queue, time.Since(start)) }()

		backoff := r.Backoff
		var err error
		for attempt := 1; attempt <= attempts; attempt++ {
			err = process(ctx, d)
			action := Classify(err)
			if action != bus.Requeue {
				if err != nil {
					log.Warn("delivery finished with non-retryable error",
						zap.String("queue", d.Queue),
						zap.String("routing_key", d.RoutingKey),
						zap.String("outcome", actionLabel(action)),
						zap.Error(err))
				}
				observability.IncrementEventConsumed(d.Queue, actionLabel(action))
				return action
			}

			if attempt == attempts {
				break
			}
			observability.IncrementHandlerRetry(d.Queue)
			log.Warn("transient failure, retrying",
				zap.String("queue", d.Queue),
				zap.String("routing_key", d.RoutingKey),
				zap.Int("attempt", attempt),
				zap.Duration("backoff", backoff),
				zap.Error(err))

			select {
			case <-ctx.Done():
				// Shutdown mid-retry: leave the message unacknowledged by
				// requeueing it for the next process instance.
				observability.IncrementEventConsumed(d.Queue, actionLabel(bus.Requeue))
				return bus.Requeue
			case <-time.After(backoff):
			}
			backoff *= 2
		}

		observability.IncrementDeadLetter(d.Queue)
		observability.IncrementEventConsumed(d.Queue, "dead_letter")
		log.Error("retry budget exhausted, dead-lettering",
			zap.String("queue", d.Queue),
			zap.String("routing_key", d.RoutingKey),
			zap.Int("attempts", attempts),
			zap.Error(err))
		if r.OnDeadLetter != nil {
			r.OnDeadLetter(ctx, d, err)
		}
		return bus.Discard
	}
}

// FailTransactionOnDeadLetter builds a dead-letter hook that publishes
// transaction.failed for the triggering transaction, when one can be
// resolved from the payload. Terminal-status events are excluded: failing a
// transaction because its own completion event dead-lettered would invert
// the outcome.
func FailTransactionOnDeadLetter(pub eventPublisher, log *zap.Logger) func(ctx context.Context, d bus.Delivery, cause error) {
	if log == nil {
		log = zap.NewNop()
	}
	return func(ctx context.Context, d bus.Delivery, cause error) {
		switch d.RoutingKey {
		case events.KeyTransactionCompleted, events.KeyTransactionFailed:
			return
		}

		var probe struct {
			TransactionID string `json:"transaction_id"`
			AgentID       string `json:"agent_id"`
		}
		if json.Unmarshal(d.Body, &probe) != nil || probe.TransactionID == "" {
			return
		}

		reason := "Processing failed permanently"
		if cause != nil {
			reason = "Processing failed permanently: " + cause.Error()
		}
		err := pub.PublishEvent(ctx, events.TransactionFailed{
			TransactionID: probe.TransactionID,
			AgentID:       probe.AgentID,
			Reason:        reason,
		})
		if err != nil {
			log.Error("failed to publish compensating transaction.failed",
				zap.String("transaction_id", probe.TransactionID),
				zap.Error(err))
		}
	}
}

type eventPublisher interface {
	PublishEvent(ctx context.Context, e events.Event) error
}
