package service

import (
	"context"
	"errors"

	"github.com/ayo6706/agency-settlement/internal/domain"
	"github.com/ayo6706/agency-settlement/internal/events"
	"github.com/ayo6706/agency-settlement/internal/models"
	"github.com/ayo6706/agency-settlement/internal/observability"
	"go.uber.org/zap"
)

// CommissionCalculator computes and records the commission earned on each
// wallet movement, against a per-agent rate served through the read-through
// cache.
type CommissionCalculator struct {
	store CommissionStore
	rates RateProvider
	pub   EventPublisher
	log   *zap.Logger
}

func NewCommissionCalculator(store CommissionStore, rates RateProvider, pub EventPublisher, log *zap.Logger) *CommissionCalculator {
	if log == nil {
		log = zap.NewNop()
	}
	return &CommissionCalculator{store: store, rates: rates, pub: pub, log: log}
}

// EnsureRate seeds the default rate row for a new agent. Redelivery and
// concurrent creation are both resolved by the unique constraint; the new
// (or surviving) row is written through to the cache.
func (c *CommissionCalculator) EnsureRate(ctx context.Context, agentID string) error {
	rate := &models.CommissionRate{
		AgentID:            agentID,
		WalletLoadRate:     domain.DefaultWalletLoadRate,
		BankDepositRate:    domain.DefaultBankDepositRate,
		BankWithdrawalRate: domain.DefaultBankWithdrawalRate,
		IsEligible:         true,
	}
	created, err := c.store.EnsureRate(ctx, rate)
	if err != nil {
		return err
	}
	if created {
		c.log.Info("created default commission rates", zap.String("agent_id", agentID))
		c.rates.Put(ctx, rate)
	} else {
		c.log.Info("commission rates already exist", zap.String("agent_id", agentID))
	}
	return nil
}

// ComputeAndRecord handles one wallet movement: rate lookup, commission
// computation (round half to even at two decimals), idempotent persistence,
// and the commission.recorded event. Missing rates and ineligible agents
// compensate via commission.skipped.
func (c *CommissionCalculator) ComputeAndRecord(ctx context.Context, e events.WalletMovement) error {
	rate, err := c.rates.Get(ctx, e.AgentID)
	if err != nil {
		if errors.Is(err, models.ErrRateNotFound) {
			return c.skip(ctx, e, domain.SkipReasonRateNotFound)
		}
		return err
	}
	if !rate.IsEligible {
		return c.skip(ctx, e, domain.SkipReasonNotEligible)
	}

	amount := e.AmountDecimal()
	pct := rate.RateFor(e.TransactionType)
	commission := domain.Commission(amount, pct)

	record := &models.CommissionTransaction{
		TransactionID:     e.TransactionID,
		AgentID:           e.AgentID,
		TransactionType:   e.TransactionType,
		TransactionAmount: amount,
		CommissionRate:    pct,
		CommissionAmount:  commission,
		Status:            domain.CommissionStatusPending,
	}
	if err := c.store.CreateCommission(ctx, record); err != nil {
		if errors.Is(err, models.ErrDuplicateRecord) {
			// Redelivered wallet event; the record already exists.
			c.log.Info("commission already recorded",
				zap.String("transaction_id", e.TransactionID))
			return nil
		}
		return err
	}

	c.log.Info("recorded commission",
		zap.String("transaction_id", e.TransactionID),
		zap.String("agent_id", e.AgentID),
		zap.String("rate", pct.String()),
		zap.String("commission", domain.FormatAmount(commission)))

	return c.pub.PublishEvent(ctx, events.CommissionRecorded{
		TransactionID:    e.TransactionID,
		AgentID:          e.AgentID,
		TransactionType:  e.TransactionType,
		CommissionRate:   pct.String(),
		CommissionAmount: domain.FormatAmount(commission),
	})
}

// UpdateRate applies an administrative rate change and invalidates the
// cached copy — the single invalidation trigger for the rate cache.
func (c *CommissionCalculator) UpdateRate(ctx context.Context, rate *models.CommissionRate) error {
	if err := c.store.UpdateRate(ctx, rate); err != nil {
		return err
	}
	c.rates.Invalidate(ctx, rate.AgentID)
	c.log.Info("updated commission rates", zap.String("agent_id", rate.AgentID))
	return nil
}

func (c *CommissionCalculator) skip(ctx context.Context, e events.WalletMovement, reason string) error {
	observability.IncrementCommissionSkipped(reason)
	c.log.Info("skipping commission",
		zap.String("transaction_id", e.TransactionID),
		zap.String("agent_id", e.AgentID),
		zap.String("reason", reason))
	return c.pub.PublishEvent(ctx, events.CommissionSkipped{
		TransactionID: e.TransactionID,
		AgentID:       e.AgentID,
		Reason:        reason,
	})
}
