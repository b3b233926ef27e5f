package app

import (
	"context"

	"github.com/ayo6706/agency-settlement/internal/bus"
	"github.com/ayo6706/agency-settlement/internal/repository"
	"github.com/ayo6706/agency-settlement/internal/saga"
	"github.com/ayo6706/agency-settlement/internal/service"
)

// RunTransaction starts the transaction status tracker, blocking until
// shutdown.
func RunTransaction() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rt, err := newRuntime(ctx, "transaction", false)
	if err != nil {
		return err
	}
	defer rt.close()

	tracker := service.NewStatusTracker(repository.NewTransactionStore(rt.db), rt.log)

	return rt.run(ctx, bus.TransactionQueues, saga.TransactionHandlers(tracker))
}
