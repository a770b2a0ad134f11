package book

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestEmptyCross checks that an ask resting alone produces no trade, and
// that an equal-quantity bid arriving afterward fully crosses it.
func TestEmptyCross(t *testing.T) {
	b := New()
	trades1 := b.Submit(Sell, 100, 50, GoodTillCancel)
	assert.Empty(t, trades1)

	trades2 := b.Submit(Buy, 100, 50, GoodTillCancel)
	require.Len(t, trades2, 1)
	assert.EqualValues(t, 2, trades2[0].Bid.OrderID)
	assert.EqualValues(t, 1, trades2[0].Ask.OrderID)
	assert.EqualValues(t, 100, trades2[0].Ask.Price)
	assert.EqualValues(t, 50, trades2[0].Ask.Quantity)
	assert.Equal(t, 0, b.Size())
}

// TestMultiLevelSweep checks that a bid large enough to exhaust the best
// ask level continues sweeping into the next level for the remainder.
func TestMultiLevelSweep(t *testing.T) {
	b := New()
	b.Submit(Sell, 100, 30, GoodTillCancel)
	b.Submit(Sell, 103, 20, GoodTillCancel)

	trades := b.Submit(Buy, 105, 40, GoodTillCancel)
	require.Len(t, trades, 2)
	assert.EqualValues(t, 100, trades[0].Ask.Price)
	assert.EqualValues(t, 30, trades[0].Ask.Quantity)
	assert.EqualValues(t, 103, trades[1].Ask.Price)
	assert.EqualValues(t, 10, trades[1].Ask.Quantity)

	_, asks := b.LevelInfos()
	require.Len(t, asks, 1)
	assert.EqualValues(t, 103, asks[0].Price)
	assert.EqualValues(t, 10, asks[0].Quantity)
	assert.Equal(t, 1, b.Size())
}

// TestFIFOWithinLevel checks that orders resting at the same price fill in
// the order they arrived.
func TestFIFOWithinLevel(t *testing.T) {
	b := New()
	for i := 0; i < 5; i++ {
		b.Submit(Buy, 100, 10, GoodTillCancel)
	}

	trades := b.Submit(Sell, 100, 50, GoodTillCancel)
	require.Len(t, trades, 5)
	for i, tr := range trades {
		assert.EqualValues(t, i+1, tr.Bid.OrderID, "bids must fill in arrival order")
	}
	assert.Equal(t, 0, b.Size())
}

// TestFOKRejected checks that a fill-or-kill order with more quantity than
// the book can satisfy is rejected outright and never rests.
func TestFOKRejected(t *testing.T) {
	b := New()
	b.Submit(Sell, 100, 30, GoodTillCancel)

	trades := b.Submit(Buy, 100, 100, FillOrKill)
	assert.Empty(t, trades)
	assert.Equal(t, 1, b.Size()) // only the original resting ask

	bids, _ := b.LevelInfos()
	assert.Empty(t, bids)
}

// TestFOKAcceptedExact checks that a fill-or-kill order whose quantity
// exactly matches the book's available liquidity across several levels
// fills completely rather than being rejected.
func TestFOKAcceptedExact(t *testing.T) {
	b := New()
	for p := Price(100); p < 110; p++ {
		b.Submit(Sell, p, 10, GoodTillCancel)
	}

	trades := b.Submit(Buy, 109, 100, FillOrKill)
	require.Len(t, trades, 10)
	assert.Equal(t, 0, b.Size())
}

// TestLevelAggregation checks that multiple orders resting at the same
// price are reported as a single aggregated level.
func TestLevelAggregation(t *testing.T) {
	b := New()
	b.Submit(Buy, 100, 10, GoodTillCancel)
	b.Submit(Buy, 100, 25, GoodTillCancel)
	b.Submit(Sell, 200, 15, GoodTillCancel)

	bids, asks := b.LevelInfos()
	require.Len(t, bids, 1)
	assert.EqualValues(t, 100, bids[0].Price)
	assert.EqualValues(t, 35, bids[0].Quantity)
	require.Len(t, asks, 1)
	assert.EqualValues(t, 200, asks[0].Price)
	assert.EqualValues(t, 15, asks[0].Quantity)
}

func TestCancelNonCrossingRoundTrips(t *testing.T) {
	b := New()
	b.Submit(Sell, 200, 10, GoodTillCancel)
	sizeBefore := b.Size()
	bidsBefore, asksBefore := b.LevelInfos()

	trades := b.Submit(Buy, 100, 5, GoodTillCancel)
	assert.Empty(t, trades)

	require.NoError(t, b.Cancel(2))
	assert.Equal(t, sizeBefore, b.Size())
	bidsAfter, asksAfter := b.LevelInfos()
	assert.Equal(t, bidsBefore, bidsAfter)
	assert.Equal(t, asksBefore, asksAfter)
}

func TestCancelTwiceReturnsNotFoundSecondTime(t *testing.T) {
	b := New()
	b.Submit(Buy, 100, 10, GoodTillCancel)

	require.NoError(t, b.Cancel(1))
	err := b.Cancel(1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCancelUnknownOrder(t *testing.T) {
	b := New()
	assert.ErrorIs(t, b.Cancel(999), ErrNotFound)
}

func TestFlushClearsBookAndIsIdempotent(t *testing.T) {
	b := New()
	b.Submit(Buy, 100, 10, GoodTillCancel)
	b.Submit(Sell, 200, 10, GoodTillCancel)

	b.Flush()
	assert.Equal(t, 0, b.Size())
	bids, asks := b.LevelInfos()
	assert.Empty(t, bids)
	assert.Empty(t, asks)

	b.Flush() // no-op
	assert.Equal(t, 0, b.Size())
}

func TestFillAndKillNeverRests(t *testing.T) {
	b := New()
	b.Submit(Sell, 100, 10, GoodTillCancel)

	trades := b.Submit(Buy, 100, 30, FillAndKill)
	require.Len(t, trades, 1)
	assert.EqualValues(t, 10, trades[0].Ask.Quantity)
	assert.Equal(t, 0, b.Size()) // remainder discarded, nothing rests
}

func TestFillAndKillFullyFillsWhenLiquidityExceedsOrder(t *testing.T) {
	b := New()
	b.Submit(Sell, 100, 50, GoodTillCancel)

	trades := b.Submit(Buy, 100, 20, FillAndKill)
	require.Len(t, trades, 1)
	assert.EqualValues(t, 20, trades[0].Ask.Quantity)
	assert.Equal(t, 1, b.Size())
}

func TestMarketOrderCrossesAtAnyPrice(t *testing.T) {
	b := New()
	b.Submit(Sell, 500, 10, GoodTillCancel)

	trades := b.Submit(Buy, 0, 10, Market)
	require.Len(t, trades, 1)
	assert.EqualValues(t, 500, trades[0].Ask.Price)
	assert.Equal(t, 0, b.Size())
}

func TestMarketOrderRemainderNeverRests(t *testing.T) {
	b := New()
	b.Submit(Sell, 500, 5, GoodTillCancel)

	trades := b.Submit(Buy, 0, 50, Market)
	require.Len(t, trades, 1)
	assert.Equal(t, 0, b.Size()) // unfilled 45 is discarded, not rested
}

func TestNoResistingCrossInvariantAfterPartialSweep(t *testing.T) {
	b := New()
	b.Submit(Sell, 100, 10, GoodTillCancel)
	b.Submit(Buy, 99, 10, GoodTillCancel)
	b.Submit(Sell, 102, 10, GoodTillCancel)

	// Sweeps the ask at 100; the remaining 5 rest at 101, below the ask at 102.
	trades := b.Submit(Buy, 101, 15, GoodTillCancel)
	require.Len(t, trades, 1)

	bids, asks := b.LevelInfos()
	for _, bid := range bids {
		for _, ask := range asks {
			assert.False(t, bid.Price >= ask.Price, "no resting cross permitted")
		}
	}
}

// TestFOKHeadPruning checks that a fill-or-kill order against an empty book
// is rejected rather than resting.
//
// The matcher also prunes a resting fill-or-kill head that becomes
// infeasible mid-match, but that path is unreachable from Submit in this
// implementation: submitFillOrKill rejects up front whenever the book
// cannot already fill the order, so a fill-or-kill order is never admitted
// unless it is matched to completion in the same pass. This test instead
// verifies the simpler, reachable guarantee: a fill-or-kill order that
// cannot fill at submission time never rests.
func TestFOKHeadPruning(t *testing.T) {
	b := New()
	trades := b.Submit(Buy, 100, 10, FillOrKill)
	assert.Empty(t, trades)
	assert.Equal(t, 0, b.Size())
}

func TestLevelInfosOrdering(t *testing.T) {
	b := New()
	b.Submit(Buy, 100, 5, GoodTillCancel)
	b.Submit(Buy, 102, 5, GoodTillCancel)
	b.Submit(Buy, 101, 5, GoodTillCancel)
	b.Submit(Sell, 205, 5, GoodTillCancel)
	b.Submit(Sell, 203, 5, GoodTillCancel)
	b.Submit(Sell, 204, 5, GoodTillCancel)

	bids, asks := b.LevelInfos()
	require.Len(t, bids, 3)
	assert.EqualValues(t, 102, bids[0].Price)
	assert.EqualValues(t, 101, bids[1].Price)
	assert.EqualValues(t, 100, bids[2].Price)

	require.Len(t, asks, 3)
	assert.EqualValues(t, 203, asks[0].Price)
	assert.EqualValues(t, 204, asks[1].Price)
	assert.EqualValues(t, 205, asks[2].Price)
}
