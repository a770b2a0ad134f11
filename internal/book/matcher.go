package book

import (
	"fenrir/internal/trade"
)

// match repeats crossing the best bid against the best ask until the book is
// settled again. It is invoked after every insertion and assumes the book
// was settled on entry.
//
// This is a single mutating pass: there is no separate "plan the matches,
// then apply them" step, since that would let the book go stale between the
// two.
func (b *Book) match() trade.Trades {
	trades := make(trade.Trades, 0, len(b.index))

	for {
		bidLvl, bidOK := b.bids.MinMut()
		askLvl, askOK := b.asks.MinMut()
		if !bidOK || !askOK || bidLvl.price < askLvl.price {
			break
		}

		bIdx := bidLvl.headSlot()
		aIdx := askLvl.headSlot()
		if bIdx == noSlot || aIdx == noSlot {
			// Defensive: a non-empty Level always has a head; this would
			// indicate a broken Level invariant.
			break
		}
		bSlot := b.arena.get(bIdx)
		aSlot := b.arena.get(aIdx)

		// A resting fill-or-kill order that can no longer be fully filled
		// is pruned rather than partially executed.
		if bSlot.order.Type == FillOrKill && !b.canFullyFill(Buy, bSlot.order.Price, bSlot.order.RemainQty) {
			b.removeOrder(bSlot.order.ID)
			continue
		}
		if aSlot.order.Type == FillOrKill && !b.canFullyFill(Sell, aSlot.order.Price, aSlot.order.RemainQty) {
			b.removeOrder(aSlot.order.ID)
			continue
		}

		q := min(bSlot.order.RemainQty, aSlot.order.RemainQty)
		bSlot.order.Fill(q)
		aSlot.order.Fill(q)

		// Capture identifiers before either order is possibly destroyed.
		bidID, askID := bSlot.order.ID, aSlot.order.ID
		// Every trade executes at the resting ask-side price at the moment
		// of this match step, even when the seller is the aggressor — this
		// is a deliberate pricing policy, not a bug, and must be preserved.
		execPrice := askLvl.price

		if bSlot.order.IsFilled() {
			b.removeOrder(bidID)
		}
		if aSlot.order.IsFilled() {
			b.removeOrder(askID)
		}

		tr := trade.Trade{
			Bid: trade.Info{OrderID: bidID, Price: execPrice, Quantity: q},
			Ask: trade.Info{OrderID: askID, Price: execPrice, Quantity: q},
		}
		trades = append(trades, tr)
		b.log.LogTrade(tr)
	}

	return trades
}

// canFullyFill reports whether an order of the given side, price, and
// quantity could be completely filled immediately against the current book,
// without mutating anything. It scans the opposite side from best toward
// worse, accumulating remaining quantity until either the target is reached
// (true) or a level whose price no longer crosses is reached (false).
func (b *Book) canFullyFill(side Side, price Price, qty Quantity) bool {
	var total Quantity
	crosses := func(levelPrice Price) bool {
		if side == Buy {
			return levelPrice <= price
		}
		return levelPrice >= price
	}

	done := false
	scan := func(lvl *Level) bool {
		if !crosses(lvl.price) {
			done = false
			return false
		}
		total += lvl.aggregateQty(b.arena)
		if total >= qty {
			done = true
			return false
		}
		return true
	}

	if side == Buy {
		b.asks.Scan(scan)
	} else {
		b.bids.Scan(scan)
	}
	return done
}
