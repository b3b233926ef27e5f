package bus

import (
	"context"
	"fmt"

	"github.com/ayo6706/agency-settlement/internal/events"
	"github.com/ayo6706/agency-settlement/internal/observability"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Publisher sends persistent messages over channels leased from the pool.
type Publisher struct {
	pool *Pool
	log  *zap.Logger
}

func NewPublisher(pool *Pool, log *zap.Logger) *Publisher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Publisher{pool: pool, log: log}
}

// Publish sends one persistent JSON message. A publish that fails on a dead
// connection is retried exactly once on a fresh lease; a second failure
// surfaces to the caller.
func (p *Publisher) Publish(ctx context.Context, exchange, routingKey string, body []byte) error {
	err := p.publishOnce(ctx, exchange, routingKey, body)
	if err == nil {
		return nil
	}
	p.log.Warn("publish failed, retrying on fresh channel",
		zap.String("exchange", exchange),
		zap.String("routing_key", routingKey),
		zap.Error(err))

	if err = p.publishOnce(ctx, exchange, routingKey, body); err != nil {
		observability.IncrementPublishFailure(routingKey)
		return fmt.Errorf("publish %s/%s: %w", exchange, routingKey, err)
	}
	return nil
}

// PublishEvent marshals a typed event and publishes it to its exchange.
func (p *Publisher) PublishEvent(ctx context.Context, e events.Event) error {
	body, err := events.Marshal(e)
	if err != nil {
		return err
	}
	key := e.RoutingKey()
	if err := p.Publish(ctx, events.ExchangeFor(key), key, body); err != nil {
		return err
	}
	p.log.Info("published event", zap.String("routing_key", key))
	observability.IncrementEventPublished(key)
	return nil
}

func (p *Publisher) publishOnce(ctx context.Context, exchange, routingKey string, body []byte) error {
	ch, err := p.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer p.pool.Release(ch)

	return ch.PublishWithContext(ctx, exchange, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
}
