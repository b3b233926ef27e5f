package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/ayo6706/agency-settlement/internal/domain"
	"github.com/ayo6706/agency-settlement/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CommissionStore persists per-agent rates and per-transaction commission
// records for the commission engine.
type CommissionStore struct {
	*Store
}

func NewCommissionStore(db *pgxpool.Pool) *CommissionStore {
	return &CommissionStore{Store: NewStore(db)}
}

// EnsureRate inserts the default rate row for a new agent, returning whether
// a row was created. Duplicate creation attempts lose the race quietly.
func (s *CommissionStore) EnsureRate(ctx context.Context, r *models.CommissionRate) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		INSERT INTO commission_rates
			(agent_id, wallet_load_rate, bank_deposit_rate, bank_withdrawal_rate,
			 is_eligible, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		ON CONFLICT (agent_id) DO NOTHING`,
		r.AgentID, r.WalletLoadRate, r.BankDepositRate, r.BankWithdrawalRate, r.IsEligible)
	if err != nil {
		return false, fmt.Errorf("ensure commission rate for agent %s: %w", r.AgentID, err)
	}
	return tag.RowsAffected() == 1, nil
}

// GetRate fetches the agent's rate row.
func (s *CommissionStore) GetRate(ctx context.Context, agentID string) (*models.CommissionRate, error) {
	r := &models.CommissionRate{}
	err := s.db.QueryRow(ctx, `
		SELECT agent_id, wallet_load_rate, bank_deposit_rate, bank_withdrawal_rate,
		       is_eligible, created_at, updated_at
		FROM commission_rates WHERE agent_id = $1`,
		agentID).Scan(&r.AgentID, &r.WalletLoadRate, &r.BankDepositRate,
		&r.BankWithdrawalRate, &r.IsEligible, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrRateNotFound
		}
		return nil, fmt.Errorf("get commission rate for agent %s: %w", agentID, err)
	}
	return r, nil
}

// UpdateRate persists administratively changed rates. The caller invalidates
// any cached copy afterwards.
func (s *CommissionStore) UpdateRate(ctx context.Context, r *models.CommissionRate) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE commission_rates
		SET wallet_load_rate = $1, bank_deposit_rate = $2, bank_withdrawal_rate = $3,
		    is_eligible = $4, updated_at = NOW()
		WHERE agent_id = $5`,
		r.WalletLoadRate, r.BankDepositRate, r.BankWithdrawalRate, r.IsEligible, r.AgentID)
	if err != nil {
		return fmt.Errorf("update commission rate for agent %s: %w", r.AgentID, err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrRateNotFound
	}
	return nil
}

// CreateCommission inserts one commission record. The unique transaction id
// makes redelivered wallet events a no-op: duplicates map to
// models.ErrDuplicateRecord for the caller to treat as success.
func (s *CommissionStore) CreateCommission(ctx context.Context, c *models.CommissionTransaction) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO commission_transactions
			(transaction_id, agent_id, transaction_type, transaction_amount,
			 commission_rate, commission_amount, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())`,
		c.TransactionID, c.AgentID, c.TransactionType, c.TransactionAmount,
		c.CommissionRate, c.CommissionAmount, domain.CommissionStatusPending)
	if err != nil {
		if isUniqueViolation(err) {
			return models.ErrDuplicateRecord
		}
		return fmt.Errorf("create commission for transaction %s: %w", c.TransactionID, err)
	}
	return nil
}

// MarkPaid transitions a commission record PENDING -> PAID. Used by the
// settlement process; already-paid records are left untouched.
func (s *CommissionStore) MarkPaid(ctx context.Context, txID string) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE commission_transactions
		SET status = $1, paid_at = NOW()
		WHERE transaction_id = $2 AND status = $3`,
		domain.CommissionStatusPaid, txID, domain.CommissionStatusPending)
	if err != nil {
		return fmt.Errorf("mark commission paid for %s: %w", txID, err)
	}
	if tag.RowsAffected() == 0 {
		// Either missing or already paid; distinguish for the caller.
		var status string
		err := s.db.QueryRow(ctx,
			`SELECT status FROM commission_transactions WHERE transaction_id = $1`,
			txID).Scan(&status)
		if errors.Is(err, pgx.ErrNoRows) {
			return models.ErrTransactionNotFound
		}
		if err != nil {
			return fmt.Errorf("check commission status for %s: %w", txID, err)
		}
	}
	return nil
}

// GetCommission fetches one commission record.
func (s *CommissionStore) GetCommission(ctx context.Context, txID string) (*models.CommissionTransaction, error) {
	c := &models.CommissionTransaction{}
	err := s.db.QueryRow(ctx, `
		SELECT transaction_id, agent_id, transaction_type, transaction_amount,
		       commission_rate, commission_amount, status, created_at, paid_at
		FROM commission_transactions WHERE transaction_id = $1`,
		txID).Scan(&c.TransactionID, &c.AgentID, &c.TransactionType,
		&c.TransactionAmount, &c.CommissionRate, &c.CommissionAmount,
		&c.Status, &c.CreatedAt, &c.PaidAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrTransactionNotFound
		}
		return nil, fmt.Errorf("get commission for transaction %s: %w", txID, err)
	}
	return c, nil
}
