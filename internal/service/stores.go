package service

import (
	"context"

	"github.com/ayo6706/agency-settlement/internal/events"
	"github.com/ayo6706/agency-settlement/internal/models"
	"github.com/shopspring/decimal"
)

// Storage and transport contracts consumed by the services. The pgx stores
// in internal/repository and the AMQP publisher in internal/bus satisfy
// them; tests substitute in-memory fakes.

type WalletStore interface {
	EnsureWallet(ctx context.Context, agentID string, initialBalance decimal.Decimal) (bool, error)
	ApplyBalanceChange(ctx context.Context, agentID string, amount decimal.Decimal, direction string) (decimal.Decimal, error)
}

type TransactionStore interface {
	Complete(ctx context.Context, txID string, commissionAmount decimal.Decimal, commissionApplied bool) error
	Fail(ctx context.Context, txID, reason string) error
	StampCommission(ctx context.Context, txID string, amount decimal.Decimal) error
}

type CommissionStore interface {
	EnsureRate(ctx context.Context, r *models.CommissionRate) (bool, error)
	UpdateRate(ctx context.Context, r *models.CommissionRate) error
	CreateCommission(ctx context.Context, c *models.CommissionTransaction) error
}

// RateProvider is the read-through rate cache surface.
type RateProvider interface {
	Get(ctx context.Context, agentID string) (*models.CommissionRate, error)
	Put(ctx context.Context, rate *models.CommissionRate)
	Invalidate(ctx context.Context, agentID string)
}

// EventPublisher emits saga events to the bus.
type EventPublisher interface {
	PublishEvent(ctx context.Context, e events.Event) error
}
