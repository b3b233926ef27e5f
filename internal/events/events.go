// Package events defines the JSON envelopes exchanged between the settlement
// services. Each routing key has exactly one typed variant; payloads are
// validated once, at the boundary, when decoded. Amounts travel as decimal
// strings and are never represented as floats.
package events

import (
	"encoding/json"
	"fmt"

	"github.com/ayo6706/agency-settlement/internal/domain"
	"github.com/shopspring/decimal"
)

// Exchanges. All are durable topic exchanges with exact (non-wildcard)
// bindings for saga events.
const (
	ExchangeUserEvents        = "user_events"
	ExchangeTransactionEvents = "transaction_events"
	ExchangeWalletEvents      = "wallet_events"
	ExchangeCommissionEvents  = "commission_events"
)

// Routing keys.
const (
	KeyAgentCreated         = "agent.created"
	KeyTransactionInitiated = "transaction.initiated"
	KeyWalletCredited       = "wallet.credited"
	KeyWalletDebited        = "wallet.debited"
	KeyCommissionRecorded   = "commission.recorded"
	KeyCommissionSkipped    = "commission.skipped"
	KeyTransactionCompleted = "transaction.completed"
	KeyTransactionFailed    = "transaction.failed"
)

// ValidationError marks a payload that can never become processable:
// malformed JSON, a missing required field, or an unknown enum value.
// Consumers reject such messages without requeue.
type ValidationError struct {
	Key    string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s payload: %s", e.Key, e.Reason)
}

func invalid(key, format string, args ...any) error {
	return &ValidationError{Key: key, Reason: fmt.Sprintf(format, args...)}
}

// Event is the closed set of payload variants. Exactly one concrete type per
// routing key (wallet.credited and wallet.debited share WalletMovement,
// distinguished by its Direction).
type Event interface {
	RoutingKey() string
}

// AgentCreated is published by the identity service when an agent signs up.
type AgentCreated struct {
	AgentID string `json:"agent_id"`
}

func (AgentCreated) RoutingKey() string { return KeyAgentCreated }

// TransactionInitiated starts the settlement saga for one transaction.
type TransactionInitiated struct {
	TransactionID      string `json:"transaction_id"`
	AgentID            string `json:"agent_id"`
	Amount             string `json:"amount"`
	TransactionType    string `json:"transaction_type"`
	CustomerIdentifier string `json:"customer_identifier"`
	Provider           string `json:"provider"`
}

func (TransactionInitiated) RoutingKey() string { return KeyTransactionInitiated }

// AmountDecimal returns the validated amount. Decode has already checked it.
func (e TransactionInitiated) AmountDecimal() decimal.Decimal {
	return decimal.RequireFromString(e.Amount)
}

// WalletMovement reports that the wallet ledger applied the base balance
// change for a transaction. Direction is wallet.credited or wallet.debited.
type WalletMovement struct {
	TransactionID   string `json:"transaction_id"`
	AgentID         string `json:"agent_id"`
	Amount          string `json:"amount"`
	TransactionType string `json:"transaction_type"`

	key string
}

func (e WalletMovement) RoutingKey() string { return e.key }

func (e WalletMovement) AmountDecimal() decimal.Decimal {
	return decimal.RequireFromString(e.Amount)
}

// NewWalletMovement builds the outbound movement event for a ledger direction.
func NewWalletMovement(txID, agentID string, amount decimal.Decimal, txType, direction string) WalletMovement {
	key := KeyWalletDebited
	if direction == domain.DirectionCredit {
		key = KeyWalletCredited
	}
	return WalletMovement{
		TransactionID:   txID,
		AgentID:         agentID,
		Amount:          domain.FormatAmount(amount),
		TransactionType: txType,
		key:             key,
	}
}

// CommissionRecorded is published once a commission record has been persisted.
type CommissionRecorded struct {
	TransactionID    string `json:"transaction_id"`
	AgentID          string `json:"agent_id"`
	TransactionType  string `json:"transaction_type"`
	CommissionRate   string `json:"commission_rate"`
	CommissionAmount string `json:"commission_amount"`
}

func (CommissionRecorded) RoutingKey() string { return KeyCommissionRecorded }

func (e CommissionRecorded) AmountDecimal() decimal.Decimal {
	return decimal.RequireFromString(e.CommissionAmount)
}

// CommissionSkipped compensates for a transaction that earns no commission.
type CommissionSkipped struct {
	TransactionID string `json:"transaction_id"`
	AgentID       string `json:"agent_id"`
	Reason        string `json:"reason"`
}

func (CommissionSkipped) RoutingKey() string { return KeyCommissionSkipped }

// TransactionCompleted carries the terminal success status plus the
// commission outcome, written atomically by the status tracker.
type TransactionCompleted struct {
	TransactionID     string `json:"transaction_id"`
	CommissionAmount  string `json:"commission_amount"`
	CommissionApplied bool   `json:"commission_status"`
}

func (TransactionCompleted) RoutingKey() string { return KeyTransactionCompleted }

func (e TransactionCompleted) AmountDecimal() decimal.Decimal {
	return decimal.RequireFromString(e.CommissionAmount)
}

// TransactionFailed carries the terminal failure status and diagnostic reason.
type TransactionFailed struct {
	TransactionID string `json:"transaction_id"`
	AgentID       string `json:"agent_id,omitempty"`
	Reason        string `json:"reason"`
}

func (TransactionFailed) RoutingKey() string { return KeyTransactionFailed }

// Decode parses and validates the payload for a routing key, returning the
// typed variant. Any returned error is a *ValidationError: a permanent
// failure that must be rejected without requeue.
func Decode(routingKey string, body []byte) (Event, error) {
	switch routingKey {
	case KeyAgentCreated:
		var e AgentCreated
		if err := unmarshal(routingKey, body, &e); err != nil {
			return nil, err
		}
		if e.AgentID == "" {
			return nil, invalid(routingKey, "missing agent_id")
		}
		return e, nil

	case KeyTransactionInitiated:
		var e TransactionInitiated
		if err := unmarshal(routingKey, body, &e); err != nil {
			return nil, err
		}
		switch {
		case e.TransactionID == "":
			return nil, invalid(routingKey, "missing transaction_id")
		case e.AgentID == "":
			return nil, invalid(routingKey, "missing agent_id")
		case e.CustomerIdentifier == "":
			return nil, invalid(routingKey, "missing customer_identifier")
		case e.Provider == "":
			return nil, invalid(routingKey, "missing provider")
		}
		if !domain.ValidTxType(e.TransactionType) {
			return nil, invalid(routingKey, "unknown transaction_type %q", e.TransactionType)
		}
		if _, err := domain.ParsePositiveAmount(e.Amount); err != nil {
			return nil, invalid(routingKey, "%v", err)
		}
		return e, nil

	case KeyWalletCredited, KeyWalletDebited:
		var e WalletMovement
		if err := unmarshal(routingKey, body, &e); err != nil {
			return nil, err
		}
		e.key = routingKey
		switch {
		case e.TransactionID == "":
			return nil, invalid(routingKey, "missing transaction_id")
		case e.AgentID == "":
			return nil, invalid(routingKey, "missing agent_id")
		}
		if !domain.ValidTxType(e.TransactionType) {
			return nil, invalid(routingKey, "unknown transaction_type %q", e.TransactionType)
		}
		if _, err := domain.ParsePositiveAmount(e.Amount); err != nil {
			return nil, invalid(routingKey, "%v", err)
		}
		return e, nil

	case KeyCommissionRecorded:
		var e CommissionRecorded
		if err := unmarshal(routingKey, body, &e); err != nil {
			return nil, err
		}
		switch {
		case e.TransactionID == "":
			return nil, invalid(routingKey, "missing transaction_id")
		case e.AgentID == "":
			return nil, invalid(routingKey, "missing agent_id")
		}
		if _, err := domain.ParseAmount(e.CommissionAmount); err != nil {
			return nil, invalid(routingKey, "%v", err)
		}
		return e, nil

	case KeyCommissionSkipped:
		var e CommissionSkipped
		if err := unmarshal(routingKey, body, &e); err != nil {
			return nil, err
		}
		switch {
		case e.TransactionID == "":
			return nil, invalid(routingKey, "missing transaction_id")
		case e.Reason == "":
			return nil, invalid(routingKey, "missing reason")
		}
		return e, nil

	case KeyTransactionCompleted:
		var e TransactionCompleted
		if err := unmarshal(routingKey, body, &e); err != nil {
			return nil, err
		}
		if e.TransactionID == "" {
			return nil, invalid(routingKey, "missing transaction_id")
		}
		if e.CommissionAmount == "" {
			e.CommissionAmount = "0.00"
		}
		if _, err := domain.ParseAmount(e.CommissionAmount); err != nil {
			return nil, invalid(routingKey, "%v", err)
		}
		return e, nil

	case KeyTransactionFailed:
		var e TransactionFailed
		if err := unmarshal(routingKey, body, &e); err != nil {
			return nil, err
		}
		switch {
		case e.TransactionID == "":
			return nil, invalid(routingKey, "missing transaction_id")
		case e.Reason == "":
			return nil, invalid(routingKey, "missing reason")
		}
		return e, nil
	}
	return nil, invalid(routingKey, "no decoder for routing key")
}

// Marshal renders an event for publishing.
func Marshal(e Event) ([]byte, error) {
	body, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", e.RoutingKey(), err)
	}
	return body, nil
}

func unmarshal(key string, body []byte, dst any) error {
	if err := json.Unmarshal(body, dst); err != nil {
		return invalid(key, "malformed JSON: %v", err)
	}
	return nil
}

// ExchangeFor returns the exchange an event is published to.
func ExchangeFor(routingKey string) string {
	switch routingKey {
	case KeyAgentCreated:
		return ExchangeUserEvents
	case KeyTransactionInitiated, KeyTransactionCompleted, KeyTransactionFailed:
		return ExchangeTransactionEvents
	case KeyWalletCredited, KeyWalletDebited:
		return ExchangeWalletEvents
	case KeyCommissionRecorded, KeyCommissionSkipped:
		return ExchangeCommissionEvents
	}
	return ""
}
