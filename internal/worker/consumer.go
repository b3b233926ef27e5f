package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ayo6706/agency-settlement/internal/bus"
	"github.com/ayo6706/agency-settlement/internal/observability"
	"go.uber.org/zap"
)

// ConsumerLoop supervises one queue's consumption: it runs the bus consume
// loop and restarts it with exponential backoff after broker failures,
// until the context is cancelled.
type ConsumerLoop struct {
	pool    *bus.Pool
	queue   string
	handler bus.HandlerFunc
	log     *zap.Logger

	initialBackoff time.Duration
	maxBackoff     time.Duration
}

func NewConsumerLoop(pool *bus.Pool, queue string, handler bus.HandlerFunc, log *zap.Logger) *ConsumerLoop {
	if log == nil {
		log = zap.NewNop()
	}
	return &ConsumerLoop{
		pool:           pool,
		queue:          queue,
		handler:        handler,
		log:            log,
		initialBackoff: time.Second,
		maxBackoff:     30 * time.Second,
	}
}

// Run blocks until ctx is cancelled.
func (l *ConsumerLoop) Run(ctx context.Context) {
	backoff := l.initialBackoff
	for {
		err := l.pool.Consume(ctx, l.queue, l.handler)
		if ctx.Err() != nil {
			l.log.Info("consumer stopped", zap.String("queue", l.queue))
			return
		}
		if err != nil && !errors.Is(err, context.Canceled) {
			l.log.Error("consume loop failed, restarting",
				zap.String("queue", l.queue),
				zap.Duration("backoff", backoff),
				zap.Error(err))
		}
		observability.IncrementConsumerRestart(l.queue)

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		if backoff < l.maxBackoff {
			backoff *= 2
			if backoff > l.maxBackoff {
				backoff = l.maxBackoff
			}
		}
	}
}

// RunAll starts one loop per queue and returns a wait function that blocks
// until every loop has exited after ctx is cancelled.
func RunAll(ctx context.Context, loops []*ConsumerLoop) (wait func()) {
	var wg sync.WaitGroup
	for _, loop := range loops {
		wg.Add(1)
		go func(l *ConsumerLoop) {
			defer wg.Done()
			l.Run(ctx)
		}(loop)
	}
	return wg.Wait
}
