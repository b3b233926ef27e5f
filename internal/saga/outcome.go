// Package saga binds routing keys to the service operations they trigger and
// enforces the shared acknowledgment discipline: every delivery ends in
// exactly one of ack, reject-without-requeue, or reject-with-requeue.
package saga

import (
	"context"
	"errors"

	"github.com/ayo6706/agency-settlement/internal/bus"
	"github.com/ayo6706/agency-settlement/internal/events"
	"github.com/ayo6706/agency-settlement/internal/models"
)

// ProcessFunc executes one delivery's business logic. Its error is
// classified into an acknowledgment action; business outcomes (insufficient
// funds, skipped commission) are compensated inside the services and return
// nil here.
type ProcessFunc func(ctx context.Context, d bus.Delivery) error

// Classify maps a process error to the acknowledgment taxonomy:
// nil and idempotent duplicates acknowledge; validation failures and
// missing aggregates reject permanently; everything else is transient and
// eligible for retry.
func Classify(err error) bus.Action {
	if err == nil {
		return bus.Ack
	}
	var vErr *events.ValidationError
	switch {
	case errors.Is(err, models.ErrDuplicateRecord):
		return bus.Ack
	case errors.As(err, &vErr),
		errors.Is(err, models.ErrUnprocessable),
		errors.Is(err, models.ErrWalletNotFound),
		errors.Is(err, models.ErrTransactionNotFound):
		return bus.Discard
	}
	return bus.Requeue
}

func actionLabel(a bus.Action) string {
	switch a {
	case bus.Ack:
		return "ack"
	case bus.Discard:
		return "discard"
	case bus.Requeue:
		return "requeue"
	}
	return "unknown"
}
