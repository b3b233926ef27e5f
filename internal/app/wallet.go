package app

import (
	"context"

	"github.com/ayo6706/agency-settlement/internal/bus"
	"github.com/ayo6706/agency-settlement/internal/repository"
	"github.com/ayo6706/agency-settlement/internal/saga"
	"github.com/ayo6706/agency-settlement/internal/service"
)

// RunWallet starts the wallet ledger service, blocking until shutdown.
func RunWallet() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rt, err := newRuntime(ctx, "wallet", false)
	if err != nil {
		return err
	}
	defer rt.close()

	ledger := service.NewWalletLedger(
		repository.NewWalletStore(rt.db),
		rt.publisher,
		rt.cfg.WalletInitialBalance,
		rt.log,
	)

	return rt.run(ctx, bus.WalletQueues, saga.WalletHandlers(ledger))
}
