package models

import "errors"

var (
	// ErrInsufficientFunds is a business outcome, not a system error: the
	// debit would take the float below zero and is rejected before mutation.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrWalletNotFound means no wallet exists for the agent.
	ErrWalletNotFound = errors.New("wallet not found")

	// ErrTransactionNotFound means the transaction row is missing; retrying
	// a status event for it will not help.
	ErrTransactionNotFound = errors.New("transaction not found")

	// ErrRateNotFound means no commission rate row exists for the agent.
	ErrRateNotFound = errors.New("commission rate not found")

	// ErrDuplicateRecord maps a unique-constraint violation; on event replay
	// it is treated as success, not failure.
	ErrDuplicateRecord = errors.New("duplicate record")

	// ErrUnprocessable marks input that can never be processed; the
	// delivery is rejected without requeue.
	ErrUnprocessable = errors.New("unprocessable")
)
