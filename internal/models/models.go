package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Wallet holds an agent's float balance. One wallet per agent, created
// lazily on the first agent.created event.
type Wallet struct {
	ID        uuid.UUID       `json:"id"`
	AgentID   string          `json:"agent_id"`
	Balance   decimal.Decimal `json:"balance"`
	IsActive  bool            `json:"is_active"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Transaction is the saga aggregate owned by the transaction engine. Its
// status is driven exclusively by inbound events after creation.
type Transaction struct {
	TransactionID      string          `json:"transaction_id"`
	TransactionType    string          `json:"transaction_type"`
	Amount             decimal.Decimal `json:"amount"`
	AgentID            string          `json:"agent_id"`
	CustomerIdentifier string          `json:"customer_identifier"`
	Provider           string          `json:"provider"`
	Status             string          `json:"status"`
	CommissionAmount   decimal.Decimal `json:"commission_amount"`
	CommissionApplied  bool            `json:"commission_applied"`
	ErrorMessage       string          `json:"error_message"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// CommissionRate carries per-transaction-type percentage rates for one agent.
type CommissionRate struct {
	AgentID            string          `json:"agent_id"`
	WalletLoadRate     decimal.Decimal `json:"wallet_load_rate"`
	BankDepositRate    decimal.Decimal `json:"bank_deposit_rate"`
	BankWithdrawalRate decimal.Decimal `json:"bank_withdrawal_rate"`
	IsEligible         bool            `json:"is_eligible"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// RateFor returns the percentage rate for a transaction type, or zero for an
// unknown type.
func (r *CommissionRate) RateFor(txType string) decimal.Decimal {
	switch txType {
	case "WALLET_LOAD":
		return r.WalletLoadRate
	case "BANK_DEPOSIT":
		return r.BankDepositRate
	case "BANK_WITHDRAWAL":
		return r.BankWithdrawalRate
	}
	return decimal.Zero
}

// CommissionTransaction records the commission earned on one transaction.
// The unique transaction id enforces at most one record per transaction even
// under redelivery.
type CommissionTransaction struct {
	TransactionID     string          `json:"transaction_id"`
	AgentID           string          `json:"agent_id"`
	TransactionType   string          `json:"transaction_type"`
	TransactionAmount decimal.Decimal `json:"transaction_amount"`
	CommissionRate    decimal.Decimal `json:"commission_rate"`
	CommissionAmount  decimal.Decimal `json:"commission_amount"`
	Status            string          `json:"status"`
	CreatedAt         time.Time       `json:"created_at"`
	PaidAt            *time.Time      `json:"paid_at,omitempty"`
}
