// Package bus adapts RabbitMQ for the settlement saga: durable topic
// exchanges, persistent publishing, and manual-acknowledgment consumption
// with prefetch limited to one in-flight message per channel.
package bus

import (
	"context"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Pool owns the broker connection for a process and leases channels to
// publishers and consumer loops. Acquire dials lazily and redials after a
// lost connection; callers must Release every leased channel.
type Pool struct {
	url string
	log *zap.Logger

	mu   sync.Mutex
	conn *amqp.Connection
}

func NewPool(url string, log *zap.Logger) *Pool {
	if log == nil {
		log = zap.NewNop()
	}
	return &Pool{url: url, log: log}
}

// Acquire leases a fresh channel, dialing the broker if needed.
func (p *Pool) Acquire(ctx context.Context) (*amqp.Channel, error) {
	conn, err := p.connection(ctx)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		// The connection may have died since the last lease; one redial.
		p.invalidate(conn)
		conn, err = p.connection(ctx)
		if err != nil {
			return nil, err
		}
		ch, err = conn.Channel()
		if err != nil {
			return nil, fmt.Errorf("open channel: %w", err)
		}
	}
	return ch, nil
}

// Release returns a leased channel. Closing an already-closed channel is a
// no-op error we ignore.
func (p *Pool) Release(ch *amqp.Channel) {
	if ch == nil {
		return
	}
	_ = ch.Close()
}

// Close tears down the broker connection.
func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn == nil || p.conn.IsClosed() {
		return nil
	}
	err := p.conn.Close()
	p.conn = nil
	return err
}

func (p *Pool) connection(ctx context.Context) (*amqp.Connection, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.conn != nil && !p.conn.IsClosed() {
		return p.conn, nil
	}

	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	type dialResult struct {
		conn *amqp.Connection
		err  error
	}
	done := make(chan dialResult, 1)
	go func() {
		conn, err := amqp.Dial(p.url)
		done <- dialResult{conn, err}
	}()

	select {
	case <-dialCtx.Done():
		return nil, fmt.Errorf("dial broker: %w", dialCtx.Err())
	case res := <-done:
		if res.err != nil {
			return nil, fmt.Errorf("dial broker: %w", res.err)
		}
		p.conn = res.conn
		p.log.Info("connected to broker")
		return p.conn, nil
	}
}

// invalidate drops a dead connection so the next lease redials.
func (p *Pool) invalidate(conn *amqp.Connection) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn == conn {
		if p.conn != nil && !p.conn.IsClosed() {
			_ = p.conn.Close()
		}
		p.conn = nil
	}
}
