// Package cache provides the read-through commission-rate cache. Rate rows
// change only through administrative updates, which invalidate the cached
// copy; everything else is served from redis with a TTL safety net.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ayo6706/agency-settlement/internal/models"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const rateKeyPrefix = "commission_rate"

// RateSource is the durable store behind the cache.
type RateSource interface {
	GetRate(ctx context.Context, agentID string) (*models.CommissionRate, error)
}

// RateCache fronts a RateSource with redis. A nil redis client degrades to
// straight store reads; cache failures are logged, never fatal.
type RateCache struct {
	redis  redis.Cmdable
	source RateSource
	ttl    time.Duration
	log    *zap.Logger
}

func NewRateCache(rdb redis.Cmdable, source RateSource, ttl time.Duration, log *zap.Logger) *RateCache {
	if log == nil {
		log = zap.NewNop()
	}
	return &RateCache{redis: rdb, source: source, ttl: ttl, log: log}
}

// Get returns the agent's rate, cache first, store on miss with
// write-through. models.ErrRateNotFound passes through untouched.
func (c *RateCache) Get(ctx context.Context, agentID string) (*models.CommissionRate, error) {
	if c.redis != nil {
		val, err := c.redis.Get(ctx, rateKey(agentID)).Result()
		if err == nil {
			var rate models.CommissionRate
			if json.Unmarshal([]byte(val), &rate) == nil {
				return &rate, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			c.log.Warn("redis rate lookup failed", zap.String("agent_id", agentID), zap.Error(err))
		}
	}

	rate, err := c.source.GetRate(ctx, agentID)
	if err != nil {
		return nil, err
	}
	c.Put(ctx, rate)
	return rate, nil
}

// Put writes a rate through to the cache.
func (c *RateCache) Put(ctx context.Context, rate *models.CommissionRate) {
	if c.redis == nil {
		return
	}
	payload, err := json.Marshal(rate)
	if err != nil {
		c.log.Warn("marshal rate for cache", zap.Error(err))
		return
	}
	if err := c.redis.Set(ctx, rateKey(rate.AgentID), payload, c.ttl).Err(); err != nil {
		c.log.Warn("redis rate cache set failed", zap.String("agent_id", rate.AgentID), zap.Error(err))
	}
}

// Invalidate drops the cached rate. Called after administrative updates.
func (c *RateCache) Invalidate(ctx context.Context, agentID string) {
	if c.redis == nil {
		return
	}
	if err := c.redis.Del(ctx, rateKey(agentID)).Err(); err != nil {
		c.log.Warn("redis rate invalidation failed", zap.String("agent_id", agentID), zap.Error(err))
	}
}

func rateKey(agentID string) string {
	return fmt.Sprintf("%s:%s", rateKeyPrefix, agentID)
}
