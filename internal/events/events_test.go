package events

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func decimalFromString(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	return decimal.RequireFromString(s)
}

func TestDecodeTransactionInitiated(t *testing.T) {
	body := []byte(`{
		"transaction_id": "tx-1",
		"agent_id": "agent-1",
		"amount": "500.00",
		"transaction_type": "WALLET_LOAD",
		"customer_identifier": "0803000000",
		"provider": "MTN"
	}`)

	ev, err := Decode(KeyTransactionInitiated, body)
	require.NoError(t, err)

	init, ok := ev.(TransactionInitiated)
	require.True(t, ok)
	require.Equal(t, "tx-1", init.TransactionID)
	require.Equal(t, "500", init.AmountDecimal().String())
}

func TestDecodeRejectsPermanentlyInvalidPayloads(t *testing.T) {
	cases := []struct {
		name string
		key  string
		body string
	}{
		{name: "malformed_json", key: KeyAgentCreated, body: `{"agent_id":`},
		{name: "missing_agent_id", key: KeyAgentCreated, body: `{}`},
		{name: "missing_transaction_type", key: KeyWalletDebited,
			body: `{"transaction_id":"tx-1","agent_id":"a1","amount":"10.00"}`},
		{name: "unknown_transaction_type", key: KeyTransactionInitiated,
			body: `{"transaction_id":"tx-1","agent_id":"a1","amount":"10.00","transaction_type":"CARD_PAYMENT","customer_identifier":"c","provider":"p"}`},
		{name: "negative_amount", key: KeyTransactionInitiated,
			body: `{"transaction_id":"tx-1","agent_id":"a1","amount":"-10.00","transaction_type":"WALLET_LOAD","customer_identifier":"c","provider":"p"}`},
		{name: "float_free_amount_required", key: KeyWalletCredited,
			body: `{"transaction_id":"tx-1","agent_id":"a1","amount":"ten","transaction_type":"BANK_WITHDRAWAL"}`},
		{name: "missing_reason", key: KeyCommissionSkipped,
			body: `{"transaction_id":"tx-1","agent_id":"a1"}`},
		{name: "failed_missing_transaction_id", key: KeyTransactionFailed,
			body: `{"reason":"boom"}`},
		{name: "unknown_routing_key", key: "transaction.archived", body: `{}`},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode(tc.key, []byte(tc.body))
			require.Error(t, err)

			var vErr *ValidationError
			require.True(t, errors.As(err, &vErr), "want ValidationError, got %T", err)
		})
	}
}

func TestDecodeWalletMovementKeepsRoutingKey(t *testing.T) {
	body := []byte(`{"transaction_id":"tx-1","agent_id":"a1","amount":"10.00","transaction_type":"BANK_WITHDRAWAL"}`)

	ev, err := Decode(KeyWalletCredited, body)
	require.NoError(t, err)
	require.Equal(t, KeyWalletCredited, ev.RoutingKey())

	ev, err = Decode(KeyWalletDebited, body)
	require.NoError(t, err)
	require.Equal(t, KeyWalletDebited, ev.RoutingKey())
}

func TestDecodeTransactionCompletedDefaultsCommission(t *testing.T) {
	ev, err := Decode(KeyTransactionCompleted, []byte(`{"transaction_id":"tx-1"}`))
	require.NoError(t, err)

	completed, ok := ev.(TransactionCompleted)
	require.True(t, ok)
	require.True(t, completed.AmountDecimal().IsZero())
	require.False(t, completed.CommissionApplied)
}

func TestNewWalletMovementRouting(t *testing.T) {
	m := NewWalletMovement("tx-1", "a1", decimalFromString(t, "250.00"), "WALLET_LOAD", "debit")
	require.Equal(t, KeyWalletDebited, m.RoutingKey())
	require.Equal(t, "250.00", m.Amount)

	m = NewWalletMovement("tx-1", "a1", decimalFromString(t, "1000.00"), "BANK_WITHDRAWAL", "credit")
	require.Equal(t, KeyWalletCredited, m.RoutingKey())
}

func TestMarshalRoundTrip(t *testing.T) {
	body, err := Marshal(CommissionRecorded{
		TransactionID:    "tx-1",
		AgentID:          "a1",
		TransactionType:  "WALLET_LOAD",
		CommissionRate:   "1.5",
		CommissionAmount: "7.50",
	})
	require.NoError(t, err)

	ev, err := Decode(KeyCommissionRecorded, body)
	require.NoError(t, err)
	recorded, ok := ev.(CommissionRecorded)
	require.True(t, ok)
	require.Equal(t, "7.50", recorded.CommissionAmount)
}

func TestExchangeFor(t *testing.T) {
	require.Equal(t, ExchangeUserEvents, ExchangeFor(KeyAgentCreated))
	require.Equal(t, ExchangeTransactionEvents, ExchangeFor(KeyTransactionInitiated))
	require.Equal(t, ExchangeWalletEvents, ExchangeFor(KeyWalletDebited))
	require.Equal(t, ExchangeCommissionEvents, ExchangeFor(KeyCommissionSkipped))
	require.Equal(t, "", ExchangeFor("unknown.key"))
}
