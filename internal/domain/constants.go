package domain

import "github.com/shopspring/decimal"

const (
	TxTypeWalletLoad     = "WALLET_LOAD"
	TxTypeBankDeposit    = "BANK_DEPOSIT"
	TxTypeBankWithdrawal = "BANK_WITHDRAWAL"

	TxStatusInitiated  = "INITIATED"
	TxStatusSuccessful = "SUCCESSFUL"
	TxStatusFailed     = "FAILED"

	DirectionDebit  = "debit"
	DirectionCredit = "credit"

	CommissionStatusPending = "PENDING"
	CommissionStatusPaid    = "PAID"

	// Commission skip reasons carried on commission.skipped events.
	SkipReasonRateNotFound = "commission_rate_not_found"
	SkipReasonNotEligible  = "agent_not_eligible"
)

// Default commission rates seeded for a new agent, in percent.
var (
	DefaultWalletLoadRate     = decimal.RequireFromString("1.50")
	DefaultBankDepositRate    = decimal.RequireFromString("1.00")
	DefaultBankWithdrawalRate = decimal.RequireFromString("1.25")
)

// ValidTxType reports whether t is one of the known transaction types.
func ValidTxType(t string) bool {
	switch t {
	case TxTypeWalletLoad, TxTypeBankDeposit, TxTypeBankWithdrawal:
		return true
	}
	return false
}

// TerminalStatus reports whether a transaction status can no longer change.
func TerminalStatus(s string) bool {
	return s == TxStatusSuccessful || s == TxStatusFailed
}

// DirectionForType maps a transaction type to its effect on the agent float.
// WALLET_LOAD and BANK_DEPOSIT debit the float (the agent funds the
// customer); BANK_WITHDRAWAL credits it (the agent is reimbursed).
func DirectionForType(txType string) (string, bool) {
	switch txType {
	case TxTypeWalletLoad, TxTypeBankDeposit:
		return DirectionDebit, true
	case TxTypeBankWithdrawal:
		return DirectionCredit, true
	}
	return "", false
}
