package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/ayo6706/agency-settlement/internal/domain"
	"github.com/ayo6706/agency-settlement/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// WalletStore persists agent wallets.
type WalletStore struct {
	*Store
}

func NewWalletStore(db *pgxpool.Pool) *WalletStore {
	return &WalletStore{Store: NewStore(db)}
}

// EnsureWallet creates the agent's wallet if none exists, returning whether
// a row was inserted. The unique constraint on agent_id arbitrates
// concurrent creation; losing the race is success, not failure.
func (s *WalletStore) EnsureWallet(ctx context.Context, agentID string, initialBalance decimal.Decimal) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		INSERT INTO wallets (id, agent_id, balance, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, TRUE, NOW(), NOW())
		ON CONFLICT (agent_id) DO NOTHING`,
		uuid.New(), agentID, initialBalance)
	if err != nil {
		return false, fmt.Errorf("ensure wallet for agent %s: %w", agentID, err)
	}
	return tag.RowsAffected() == 1, nil
}

// ApplyBalanceChange mutates the wallet balance inside one transaction,
// holding an exclusive row lock for the duration. A debit that would take
// the balance negative fails with models.ErrInsufficientFunds before any
// mutation.
func (s *WalletStore) ApplyBalanceChange(ctx context.Context, agentID string, amount decimal.Decimal, direction string) (decimal.Decimal, error) {
	var newBalance decimal.Decimal
	err := s.RunInTx(ctx, func(tx pgx.Tx) error {
		var balance decimal.Decimal
		err := tx.QueryRow(ctx,
			`SELECT balance FROM wallets WHERE agent_id = $1 FOR UPDATE`,
			agentID).Scan(&balance)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return models.ErrWalletNotFound
			}
			return fmt.Errorf("lock wallet for agent %s: %w", agentID, err)
		}

		switch direction {
		case domain.DirectionDebit:
			if balance.LessThan(amount) {
				return models.ErrInsufficientFunds
			}
			newBalance = balance.Sub(amount)
		case domain.DirectionCredit:
			newBalance = balance.Add(amount)
		default:
			return fmt.Errorf("unknown direction %q", direction)
		}

		_, err = tx.Exec(ctx,
			`UPDATE wallets SET balance = $1, updated_at = NOW() WHERE agent_id = $2`,
			newBalance, agentID)
		if err != nil {
			return fmt.Errorf("update wallet balance: %w", err)
		}
		return nil
	})
	if err != nil {
		return decimal.Zero, err
	}
	return newBalance, nil
}

// GetWallet fetches a wallet by agent id.
func (s *WalletStore) GetWallet(ctx context.Context, agentID string) (*models.Wallet, error) {
	w := &models.Wallet{}
	err := s.db.QueryRow(ctx, `
		SELECT id, agent_id, balance, is_active, created_at, updated_at
		FROM wallets WHERE agent_id = $1`,
		agentID).Scan(&w.ID, &w.AgentID, &w.Balance, &w.IsActive, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrWalletNotFound
		}
		return nil, fmt.Errorf("get wallet for agent %s: %w", agentID, err)
	}
	return w, nil
}
