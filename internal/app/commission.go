package app

import (
	"context"

	"github.com/ayo6706/agency-settlement/internal/bus"
	"github.com/ayo6706/agency-settlement/internal/cache"
	"github.com/ayo6706/agency-settlement/internal/repository"
	"github.com/ayo6706/agency-settlement/internal/saga"
	"github.com/ayo6706/agency-settlement/internal/service"
)

// RunCommission starts the commission engine service, blocking until
// shutdown.
func RunCommission() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rt, err := newRuntime(ctx, "commission", true)
	if err != nil {
		return err
	}
	defer rt.close()

	store := repository.NewCommissionStore(rt.db)
	rates := cache.NewRateCache(rt.redis, store, rt.cfg.RateCacheTTL, rt.log)
	calc := service.NewCommissionCalculator(store, rates, rt.publisher, rt.log)

	return rt.run(ctx, bus.CommissionQueues, saga.CommissionHandlers(calc))
}
