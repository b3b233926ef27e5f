package cache

import (
	"context"
	"testing"
	"time"

	"github.com/ayo6706/agency-settlement/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type countingSource struct {
	rates map[string]*models.CommissionRate
	calls int
}

func (s *countingSource) GetRate(ctx context.Context, agentID string) (*models.CommissionRate, error) {
	s.calls++
	rate, ok := s.rates[agentID]
	if !ok {
		return nil, models.ErrRateNotFound
	}
	return rate, nil
}

func TestGetWithoutRedisReadsStore(t *testing.T) {
	source := &countingSource{rates: map[string]*models.CommissionRate{
		"agent-1": {AgentID: "agent-1", WalletLoadRate: decimal.RequireFromString("1.50"), IsEligible: true},
	}}
	c := NewRateCache(nil, source, time.Hour, nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		rate, err := c.Get(ctx, "agent-1")
		require.NoError(t, err)
		require.Equal(t, "agent-1", rate.AgentID)
	}
	require.Equal(t, 3, source.calls, "nil redis degrades to straight store reads")
}

func TestGetPassesThroughRateNotFound(t *testing.T) {
	source := &countingSource{rates: map[string]*models.CommissionRate{}}
	c := NewRateCache(nil, source, time.Hour, nil)

	_, err := c.Get(context.Background(), "missing")
	require.ErrorIs(t, err, models.ErrRateNotFound)
}

func TestPutAndInvalidateWithoutRedisAreNoOps(t *testing.T) {
	source := &countingSource{rates: map[string]*models.CommissionRate{}}
	c := NewRateCache(nil, source, time.Hour, nil)
	ctx := context.Background()

	c.Put(ctx, &models.CommissionRate{AgentID: "agent-1"})
	c.Invalidate(ctx, "agent-1")
}

func TestRateKey(t *testing.T) {
	require.Equal(t, "commission_rate:agent-1", rateKey("agent-1"))
}
