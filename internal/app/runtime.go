// Package app bootstraps the three consumer binaries. Each service shares
// the same runtime shape — config, logger, database pool, broker pool, ops
// listener — and differs only in its queues, handlers, and stores.
package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ayo6706/agency-settlement/internal/bus"
	"github.com/ayo6706/agency-settlement/internal/config"
	"github.com/ayo6706/agency-settlement/internal/db"
	"github.com/ayo6706/agency-settlement/internal/observability"
	"github.com/ayo6706/agency-settlement/internal/ops"
	"github.com/ayo6706/agency-settlement/internal/saga"
	"github.com/ayo6706/agency-settlement/internal/worker"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type runtime struct {
	cfg       *config.Config
	log       *zap.Logger
	db        *pgxpool.Pool
	redis     *redis.Client
	busPool   *bus.Pool
	publisher *bus.Publisher
}

// newRuntime wires the shared infrastructure. Redis is only dialed for
// services that cache; pass needRedis=false elsewhere.
func newRuntime(ctx context.Context, service string, needRedis bool) (*runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	logger = logger.With(zap.String("service", service))
	zap.ReplaceGlobals(logger)
	observability.Init()

	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	var redisClient *redis.Client
	if needRedis {
		redisClient, err = newRedisClient(cfg.RedisURL)
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("connect redis: %w", err)
		}
	}

	busPool := bus.NewPool(cfg.AMQPURL, logger)
	publisher := bus.NewPublisher(busPool, logger)

	return &runtime{
		cfg:       cfg,
		log:       logger,
		db:        pool,
		redis:     redisClient,
		busPool:   busPool,
		publisher: publisher,
	}, nil
}

func (rt *runtime) close() {
	_ = rt.busPool.Close()
	if rt.redis != nil {
		_ = rt.redis.Close()
	}
	rt.db.Close()
	_ = rt.log.Sync()
}

// run declares topology, starts one consumer loop per queue and the ops
// listener, and blocks until shutdown. On a termination signal it stops
// accepting deliveries, drains in-flight handlers for the configured grace
// period, and abandons stragglers unacknowledged so they are redelivered.
func (rt *runtime) run(ctx context.Context, bindings []bus.QueueBinding, handlers map[string]saga.ProcessFunc) error {
	if err := rt.busPool.DeclareTopology(ctx, bindings); err != nil {
		return fmt.Errorf("declare topology: %w", err)
	}

	retrier := &saga.Retrier{
		MaxAttempts:  rt.cfg.RetryMaxAttempts,
		Backoff:      rt.cfg.RetryBackoff,
		Log:          rt.log,
		OnDeadLetter: saga.FailTransactionOnDeadLetter(rt.publisher, rt.log),
	}

	consumeCtx, stopConsuming := context.WithCancel(ctx)
	defer stopConsuming()

	var loops []*worker.ConsumerLoop
	for _, b := range bindings {
		process, ok := handlers[b.Queue]
		if !ok {
			return fmt.Errorf("no handler bound for queue %s", b.Queue)
		}
		loops = append(loops, worker.NewConsumerLoop(rt.busPool, b.Queue, retrier.Wrap(process), rt.log))
	}
	waitLoops := worker.RunAll(consumeCtx, loops)

	// Avoid handing the ops router a typed-nil Cmdable when redis is unused.
	var opsRedis redis.Cmdable
	if rt.redis != nil {
		opsRedis = rt.redis
	}
	opsRouter := ops.NewRouter(rt.db, opsRedis, rt.cfg.OpsRateLimitRPS)
	opsServer := &http.Server{
		Addr:         ":" + rt.cfg.OpsPort,
		Handler:      opsRouter.Routes(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}
	opsErr := make(chan error, 1)
	go func() {
		rt.log.Info("ops listener starting", zap.String("port", rt.cfg.OpsPort))
		opsErr <- opsServer.ListenAndServe()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigChan:
		rt.log.Info("shutdown signal received")
	case err := <-opsErr:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("ops listener error: %w", err)
		}
	case <-ctx.Done():
	}

	stopConsuming()

	drained := make(chan struct{})
	go func() {
		waitLoops()
		close(drained)
	}()
	select {
	case <-drained:
		rt.log.Info("consumer loops drained")
	case <-time.After(rt.cfg.ShutdownGrace):
		// Stragglers past the deadline are abandoned; their messages stay
		// unacknowledged and will be redelivered.
		rt.log.Warn("grace period expired with handlers in flight")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := opsServer.Shutdown(shutdownCtx); err != nil {
		rt.log.Error("ops listener shutdown failed", zap.Error(err))
	}

	rt.log.Info("shutdown complete")
	return nil
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	switch strings.ToLower(level) {
	case "debug":
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info", "":
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		cfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	return cfg.Build()
}

func newRedisClient(url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}
