package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/ayo6706/agency-settlement/internal/domain"
	"github.com/ayo6706/agency-settlement/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// TransactionStore persists the saga aggregate owned by the transaction
// engine. After creation its status is mutated only by inbound events.
type TransactionStore struct {
	*Store
}

func NewTransactionStore(db *pgxpool.Pool) *TransactionStore {
	return &TransactionStore{Store: NewStore(db)}
}

// CreateInitiated inserts a new transaction in INITIATED state. A duplicate
// transaction id maps to models.ErrDuplicateRecord.
func (s *TransactionStore) CreateInitiated(ctx context.Context, t *models.Transaction) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO transactions
			(transaction_id, transaction_type, amount, agent_id, customer_identifier,
			 provider, status, commission_amount, commission_applied, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 0, FALSE, NOW(), NOW())`,
		t.TransactionID, t.TransactionType, t.Amount, t.AgentID,
		t.CustomerIdentifier, t.Provider, domain.TxStatusInitiated)
	if err != nil {
		if isUniqueViolation(err) {
			return models.ErrDuplicateRecord
		}
		return fmt.Errorf("create transaction %s: %w", t.TransactionID, err)
	}
	return nil
}

// Complete moves INITIATED -> SUCCESSFUL under a row lock, writing the
// commission outcome atomically with the status. An already-terminal row is
// left untouched and reported as success.
func (s *TransactionStore) Complete(ctx context.Context, txID string, commissionAmount decimal.Decimal, commissionApplied bool) error {
	return s.transition(ctx, txID, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			UPDATE transactions
			SET status = $1, commission_amount = $2, commission_applied = $3, updated_at = NOW()
			WHERE transaction_id = $4`,
			domain.TxStatusSuccessful, commissionAmount, commissionApplied, txID)
		return err
	})
}

// Fail moves INITIATED -> FAILED under a row lock, recording the diagnostic
// reason. Idempotent for terminal rows.
func (s *TransactionStore) Fail(ctx context.Context, txID, reason string) error {
	return s.transition(ctx, txID, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			UPDATE transactions
			SET status = $1, error_message = $2, updated_at = NOW()
			WHERE transaction_id = $3`,
			domain.TxStatusFailed, reason, txID)
		return err
	})
}

func (s *TransactionStore) transition(ctx context.Context, txID string, update func(tx pgx.Tx) error) error {
	return s.RunInTx(ctx, func(tx pgx.Tx) error {
		var status string
		err := tx.QueryRow(ctx,
			`SELECT status FROM transactions WHERE transaction_id = $1 FOR UPDATE`,
			txID).Scan(&status)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return models.ErrTransactionNotFound
			}
			return fmt.Errorf("lock transaction %s: %w", txID, err)
		}
		if domain.TerminalStatus(status) {
			return nil
		}
		if err := update(tx); err != nil {
			return fmt.Errorf("transition transaction %s: %w", txID, err)
		}
		return nil
	})
}

// StampCommission records the commission outcome on a still-INITIATED row
// without changing its status.
func (s *TransactionStore) StampCommission(ctx context.Context, txID string, amount decimal.Decimal) error {
	return s.RunInTx(ctx, func(tx pgx.Tx) error {
		var status string
		err := tx.QueryRow(ctx,
			`SELECT status FROM transactions WHERE transaction_id = $1 FOR UPDATE`,
			txID).Scan(&status)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return models.ErrTransactionNotFound
			}
			return fmt.Errorf("lock transaction %s: %w", txID, err)
		}
		if domain.TerminalStatus(status) {
			return nil
		}
		_, err = tx.Exec(ctx, `
			UPDATE transactions
			SET commission_amount = $1, commission_applied = TRUE, updated_at = NOW()
			WHERE transaction_id = $2`,
			amount, txID)
		if err != nil {
			return fmt.Errorf("stamp commission on %s: %w", txID, err)
		}
		return nil
	})
}

// GetTransaction fetches a transaction by id.
func (s *TransactionStore) GetTransaction(ctx context.Context, txID string) (*models.Transaction, error) {
	t := &models.Transaction{}
	var errMsg *string
	err := s.db.QueryRow(ctx, `
		SELECT transaction_id, transaction_type, amount, agent_id, customer_identifier,
		       provider, status, commission_amount, commission_applied, error_message,
		       created_at, updated_at
		FROM transactions WHERE transaction_id = $1`,
		txID).Scan(&t.TransactionID, &t.TransactionType, &t.Amount, &t.AgentID,
		&t.CustomerIdentifier, &t.Provider, &t.Status, &t.CommissionAmount,
		&t.CommissionApplied, &errMsg, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrTransactionNotFound
		}
		return nil, fmt.Errorf("get transaction %s: %w", txID, err)
	}
	if errMsg != nil {
		t.ErrorMessage = *errMsg
	}
	return t, nil
}
