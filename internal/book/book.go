// Package book implements the limit order book: two price-indexed ordered
// maps of Levels (one per side), an OrderID index for O(1) cancel, and the
// Matcher pass that crosses the best bid against the best ask.
package book

import (
	"errors"
	"fmt"

	"github.com/tidwall/btree"

	"fenrir/internal/order"
	"fenrir/internal/trade"
	"fenrir/internal/types"
)

// Re-exported aliases so callers of this package don't need to import
// internal/types directly for the common cases.
type (
	Price     = types.Price
	Quantity  = types.Quantity
	Side      = types.Side
	OrderID   = types.OrderID
	OrderType = types.OrderType
)

const (
	Buy  = types.Buy
	Sell = types.Sell

	GoodTillCancel = types.GoodTillCancel
	GoodForDay     = types.GoodForDay
	FillOrKill     = types.FillOrKill
	FillAndKill    = types.FillAndKill
	Market         = types.Market
)

// ErrNotFound is returned by Cancel when the order is unknown or was already
// removed.
var ErrNotFound = errors.New("book: order not found")

// LevelInfo is a snapshot of one price level: the price and the aggregated
// remaining quantity across every order resting there.
type LevelInfo struct {
	Price    Price
	Quantity Quantity
}

func (l LevelInfo) String() string {
	return fmt.Sprintf("%d @ %d", l.Quantity, l.Price)
}

// Book owns every Order and Level for a single instrument. All mutation
// happens on a single goroutine; there is no internal locking.
type Book struct {
	bids *btree.BTreeG[*Level]
	asks *btree.BTreeG[*Level]

	// index maps a live OrderID to its arena slot, giving Cancel O(1)
	// expected-time removal without scanning the Level it sits in.
	index map[OrderID]int32
	arena *arena

	nextID OrderID

	log TradeLogger
}

// TradeLogger is the narrow interface the Book publishes trades and
// diagnostic messages to. logpipe.Pipe satisfies it; tests may supply a nil
// logger (see WithLogger) or a no-op stub.
type TradeLogger interface {
	LogTrade(tr trade.Trade)
	LogMessage(text string)
	LogOrderError(id OrderID)
}

type noopLogger struct{}

func (noopLogger) LogTrade(trade.Trade)  {}
func (noopLogger) LogMessage(string)     {}
func (noopLogger) LogOrderError(OrderID) {}

// Option configures a new Book.
type Option func(*Book)

// WithLogger attaches a TradeLogger (typically a *logpipe.Pipe) that every
// trade and the flush diagnostic message is published to. A nil logger
// leaves the Book's default no-op logger in place.
func WithLogger(l TradeLogger) Option {
	return func(b *Book) {
		if l != nil {
			b.log = l
		}
	}
}

// New constructs an empty Book. OrderIDs are assigned starting at 1.
func New(opts ...Option) *Book {
	b := &Book{
		bids:  btree.NewBTreeG(bidLess),
		asks:  btree.NewBTreeG(askLess),
		index: make(map[OrderID]int32),
		arena: newArena(),
		log:   noopLogger{},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func bidLess(a, b *Level) bool { return a.price > b.price } // descending: best bid first
func askLess(a, b *Level) bool { return a.price < b.price } // ascending: best ask first

// levelsFor returns the price tree for the given side.
func (b *Book) levelsFor(side Side) *btree.BTreeG[*Level] {
	if side == Buy {
		return b.bids
	}
	return b.asks
}

// Submit assigns a fresh OrderID, applies the type-specific admission
// policy, runs the matcher, and returns the trades produced.
func (b *Book) Submit(side Side, price Price, qty Quantity, typ OrderType) trade.Trades {
	switch typ {
	case Market:
		// A market order crosses at any price: pin it to the most
		// permissive limit on its side and apply fill-and-kill semantics.
		if side == Buy {
			price = types.MaxPrice
		} else {
			price = types.MinPrice
		}
		return b.submitFillAndKill(side, price, qty)
	case FillAndKill:
		return b.submitFillAndKill(side, price, qty)
	case FillOrKill:
		return b.submitFillOrKill(side, price, qty)
	default:
		return b.submitResting(side, price, qty, typ)
	}
}

// submitResting handles GoodTillCancel and GoodForDay: both rest on the book
// until explicitly cancelled or matched away.
//
// TODO: GoodForDay orders are currently indistinguishable from GoodTillCancel
// once resting — there is no session-end sweep that cancels them at end of
// day. Flush cancels everything unconditionally and is not session-aware.
func (b *Book) submitResting(side Side, price Price, qty Quantity, typ OrderType) trade.Trades {
	id := b.nextOrderID()
	b.insert(id, side, price, qty, typ)
	return b.match()
}

func (b *Book) submitFillOrKill(side Side, price Price, qty Quantity) trade.Trades {
	if !b.canFullyFill(side, price, qty) {
		// Rejection is not an error: empty trades, no side effects, no
		// resting order.
		return trade.Trades{}
	}
	id := b.nextOrderID()
	b.insert(id, side, price, qty, FillOrKill)
	return b.match()
}

func (b *Book) submitFillAndKill(side Side, price Price, qty Quantity) trade.Trades {
	id := b.nextOrderID()
	b.insert(id, side, price, qty, FillAndKill)
	trades := b.match()
	// Any unfilled remainder must not rest: remove it.
	if idx, ok := b.index[id]; ok {
		s := b.arena.get(idx)
		if s.order.RemainQty > 0 {
			b.removeOrder(id)
		}
	}
	return trades
}

func (b *Book) nextOrderID() OrderID {
	b.nextID++
	return b.nextID
}

// insert appends a new order to the tail of the appropriate Level, creating
// the Level if this is the first order at that price, and records the
// OrderID index entry.
func (b *Book) insert(id OrderID, side Side, price Price, qty Quantity, typ OrderType) int32 {
	ord := order.Order{ID: id, Side: side, Price: price, InitQty: qty, RemainQty: qty, Type: typ}
	idx := b.arena.alloc(ord)

	levels := b.levelsFor(side)
	lvl, ok := levels.GetMut(&Level{price: price})
	if !ok {
		lvl = newLevel(price)
		levels.Set(lvl)
	}
	lvl.pushBack(b.arena, idx)
	b.index[id] = idx
	return idx
}

// removeOrder removes a live order from its Level (erasing the Level if it
// becomes empty) and deletes its index entry. Callers must have already
// verified the order exists.
func (b *Book) removeOrder(id OrderID) {
	idx, ok := b.index[id]
	if !ok {
		return
	}
	s := b.arena.get(idx)
	lvl := s.level
	side := s.order.Side
	lvl.remove(b.arena, idx)
	delete(b.index, id)
	if lvl.isEmpty() {
		b.levelsFor(side).Delete(lvl)
	}
}

// Cancel removes the order identified by id. Returns ErrNotFound if the
// order is unknown or was already cancelled.
func (b *Book) Cancel(id OrderID) error {
	if _, ok := b.index[id]; !ok {
		return ErrNotFound
	}
	b.removeOrder(id)
	return nil
}

// Size returns the count of distinct live resting orders.
func (b *Book) Size() int {
	return len(b.index)
}

// LevelInfos returns a snapshot of aggregated quantity per price level,
// bids descending and asks ascending.
func (b *Book) LevelInfos() (bids, asks []LevelInfo) {
	bids = make([]LevelInfo, 0, b.bids.Len())
	b.bids.Scan(func(lvl *Level) bool {
		bids = append(bids, LevelInfo{Price: lvl.price, Quantity: lvl.aggregateQty(b.arena)})
		return true
	})
	asks = make([]LevelInfo, 0, b.asks.Len())
	b.asks.Scan(func(lvl *Level) bool {
		asks = append(asks, LevelInfo{Price: lvl.price, Quantity: lvl.aggregateQty(b.arena)})
		return true
	})
	return bids, asks
}

// Flush cancels every resting order. A subsequent Flush on an already-empty
// book is a no-op.
func (b *Book) Flush() {
	b.log.LogMessage("Flushing orderbook")
	ids := make([]OrderID, 0, len(b.index))
	for id := range b.index {
		ids = append(ids, id)
	}
	for _, id := range ids {
		b.removeOrder(id)
	}
}
