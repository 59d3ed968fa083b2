package services

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/shopspring/decimal"

	"github.com/paycrest/cardflow/config"
	"github.com/paycrest/cardflow/flow"
	"github.com/paycrest/cardflow/types"
	"github.com/paycrest/cardflow/utils/logger"
)

// PriceSource reports the XOR/EUR conversion rate.
type PriceSource interface {
	XORPrice(ctx context.Context) (*types.PriceQuote, error)
}

// BalanceSource reports the user's XOR balance. The host wallet implements
// this.
type BalanceSource interface {
	XORBalance(ctx context.Context) (decimal.Decimal, error)
}

// BalanceWatcher periodically recomputes the free-issuance balance gate and
// publishes snapshots into the flow's balance stream, so the funding screen
// refreshes the moment the balance crosses the threshold.
type BalanceWatcher struct {
	price   PriceSource
	balance BalanceSource
	gate    *flow.Value[types.BalanceGate]
	conf    *config.CardConfiguration

	scheduler *gocron.Scheduler
}

// NewBalanceWatcher constructs a watcher publishing into the given stream.
func NewBalanceWatcher(price PriceSource, balance BalanceSource, gate *flow.Value[types.BalanceGate]) *BalanceWatcher {
	return &BalanceWatcher{
		price:   price,
		balance: balance,
		gate:    gate,
		conf:    config.CardConfig(),
	}
}

// Start polls once immediately, then on the configured interval.
func (w *BalanceWatcher) Start() error {
	w.Poll(context.Background())

	scheduler := gocron.NewScheduler(time.UTC)
	_, err := scheduler.Every(w.conf.BalancePollInterval).Do(func() {
		w.Poll(context.Background())
	})
	if err != nil {
		return err
	}
	scheduler.StartAsync()
	w.scheduler = scheduler
	return nil
}

// Stop halts the poll loop.
func (w *BalanceWatcher) Stop() {
	if w.scheduler != nil {
		w.scheduler.Stop()
	}
}

// Poll recomputes the gate once. Failures keep the previous snapshot; a
// stale gate beats a zeroed one that would flip the funding screen.
func (w *BalanceWatcher) Poll(ctx context.Context) {
	quote, err := w.price.XORPrice(ctx)
	if err != nil {
		logger.Warnf("Balance gate poll: price fetch failed", logger.Fields{"Error": err.Error()})
		return
	}
	xor, err := w.balance.XORBalance(ctx)
	if err != nil {
		logger.Warnf("Balance gate poll: balance fetch failed", logger.Fields{"Error": err.Error()})
		return
	}

	fiat := xor.Mul(quote.Price)
	w.gate.Set(types.BalanceGate{
		XORBalance:     xor,
		FiatEquivalent: fiat,
		ThresholdEUR:   w.conf.IssuanceThresholdEUR,
		Passed:         fiat.GreaterThanOrEqual(w.conf.IssuanceThresholdEUR),
	})
}
