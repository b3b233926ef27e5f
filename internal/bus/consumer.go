package bus

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// Action is a consumer's explicit verdict on one delivery. There is no
// implicit acknowledgment: every message ends in exactly one of these.
type Action int

const (
	// Ack removes the message: processed, or an idempotent duplicate, or a
	// business outcome already compensated by another event.
	Ack Action = iota
	// Discard rejects without requeue: the message can never succeed.
	Discard
	// Requeue rejects with requeue: a transient failure worth redelivering.
	Requeue
)

// Delivery is the transient envelope handed to consumers.
type Delivery struct {
	Queue      string
	RoutingKey string
	Body       []byte
	Redelivery bool
}

// HandlerFunc processes one delivery and returns its acknowledgment action.
type HandlerFunc func(ctx context.Context, d Delivery) Action

// ErrChannelClosed is returned when the broker closes the consume channel;
// the caller supervises a restart with backoff.
var ErrChannelClosed = errors.New("consume channel closed")

// Consume delivers messages from one queue to fn, strictly sequentially with
// prefetch 1, until the context is cancelled or the channel dies. Messages
// in flight when the loop exits stay unacknowledged and are redelivered.
func (p *Pool) Consume(ctx context.Context, queue string, fn HandlerFunc) error {
	ch, err := p.Acquire(ctx)
	if err != nil {
		return err
	}
	defer p.Release(ch)

	// One in-flight message per channel bounds work-in-progress and keeps
	// dispatch fair across queues.
	if err := ch.Qos(1, 0, false); err != nil {
		return fmt.Errorf("set qos on %s: %w", queue, err)
	}

	deliveries, err := ch.Consume(queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", queue, err)
	}
	p.log.Info("consuming", zap.String("queue", queue))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("queue %s: %w", queue, ErrChannelClosed)
			}

			action := fn(ctx, Delivery{
				Queue:      queue,
				RoutingKey: msg.RoutingKey,
				Body:       msg.Body,
				Redelivery: msg.Redelivered,
			})

			var ackErr error
			switch action {
			case Ack:
				ackErr = msg.Ack(false)
			case Discard:
				ackErr = msg.Nack(false, false)
			case Requeue:
				ackErr = msg.Nack(false, true)
			}
			if ackErr != nil {
				return fmt.Errorf("acknowledge on %s: %w", queue, ackErr)
			}
		}
	}
}
