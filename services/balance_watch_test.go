package services

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/paycrest/cardflow/flow"
	"github.com/paycrest/cardflow/types"
)

type fakePrice struct {
	price decimal.Decimal
	err   error
}

func (f fakePrice) XORPrice(ctx context.Context) (*types.PriceQuote, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &types.PriceQuote{Pair: "XOR/EUR", Price: f.price}, nil
}

type fakeBalance struct {
	balance decimal.Decimal
	err     error
}

func (f fakeBalance) XORBalance(ctx context.Context) (decimal.Decimal, error) {
	if f.err != nil {
		return decimal.Zero, f.err
	}
	return f.balance, nil
}

func TestBalanceWatcher(t *testing.T) {
	ctx := context.Background()

	t.Run("gate passes when fiat equivalent meets the threshold", func(t *testing.T) {
		gate := flow.NewValue[types.BalanceGate]()
		// 2500 XOR at 0.05 EUR = 125 EUR, above the 100 EUR default.
		w := NewBalanceWatcher(
			fakePrice{price: decimal.RequireFromString("0.05")},
			fakeBalance{balance: decimal.NewFromInt(2500)},
			gate,
		)

		w.Poll(ctx)

		snapshot, ok := gate.Get()
		assert.True(t, ok)
		assert.True(t, snapshot.Passed)
		assert.True(t, snapshot.FiatEquivalent.Equal(decimal.NewFromInt(125)))
	})

	t.Run("gate fails below the threshold", func(t *testing.T) {
		gate := flow.NewValue[types.BalanceGate]()
		w := NewBalanceWatcher(
			fakePrice{price: decimal.RequireFromString("0.05")},
			fakeBalance{balance: decimal.NewFromInt(100)},
			gate,
		)

		w.Poll(ctx)

		snapshot, ok := gate.Get()
		assert.True(t, ok)
		assert.False(t, snapshot.Passed)
	})

	t.Run("poll failure keeps the previous snapshot", func(t *testing.T) {
		gate := flow.NewValue[types.BalanceGate]()
		good := NewBalanceWatcher(
			fakePrice{price: decimal.RequireFromString("0.05")},
			fakeBalance{balance: decimal.NewFromInt(2500)},
			gate,
		)
		good.Poll(ctx)

		bad := NewBalanceWatcher(
			fakePrice{err: errors.New("rate service down")},
			fakeBalance{balance: decimal.NewFromInt(0)},
			gate,
		)
		bad.Poll(ctx)

		snapshot, ok := gate.Get()
		assert.True(t, ok)
		assert.True(t, snapshot.Passed, "failed poll must not zero the gate")
	})
}
