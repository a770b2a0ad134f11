// Package logpipe implements the trade-log pipeline: a lock-free bounded
// single-producer/single-consumer ring of fixed-size log entries, drained by
// a dedicated consumer goroutine that formats and writes them. The producer
// (the matching thread) never blocks on I/O.
package logpipe

import (
	"sync/atomic"

	"fenrir/internal/types"
)

// entryKind tags which variant a ring slot holds.
type entryKind uint8

const (
	kindTrade entryKind = iota
	kindMessage
	kindError
)

// maxMessageLen bounds a MESSAGE entry's text.
const maxMessageLen = 127

// entry is one fixed-size ring slot. All three kinds are folded into a
// single struct so the ring can stay an array of value types with no
// per-push heap allocation, keeping every slot trivially copyable.
type entry struct {
	kind entryKind
	tick uint64

	// TRADE fields.
	bidID, askID types.OrderID
	price        types.Price
	qty          types.Quantity

	// MESSAGE fields.
	msgLen int
	msg    [maxMessageLen + 1]byte

	// ERROR fields.
	errOrderID types.OrderID
}

func tradeEntry(tick uint64, bidID, askID types.OrderID, price types.Price, qty types.Quantity) entry {
	return entry{kind: kindTrade, tick: tick, bidID: bidID, askID: askID, price: price, qty: qty}
}

func messageEntry(tick uint64, text string) entry {
	if len(text) > maxMessageLen {
		text = text[:maxMessageLen]
	}
	e := entry{kind: kindMessage, tick: tick, msgLen: len(text)}
	copy(e.msg[:], text)
	return e
}

func errorEntry(tick uint64, id types.OrderID) entry {
	return entry{kind: kindError, tick: tick, errOrderID: id}
}

// capacity is fixed at compile time and must be a power of two so index
// wrapping can use a bitmask instead of a modulo. 8192 entries is large
// enough to absorb bursts far exceeding what a single submit call can
// produce (at most one trade per currently-resting order) without the
// producer ever yielding in the common case.
const capacity = 8192
const mask = capacity - 1

// ring is a single-producer/single-consumer lock-free bounded queue:
// writePos and readPos live on separate cache lines to avoid false sharing,
// and the acquire/release discipline around them is what makes the ring
// safe with exactly one producer and one consumer and no other
// synchronization.
type ring struct {
	buf [capacity]entry

	// writePos is owned by the producer; only the producer ever stores to
	// it, with release ordering so the consumer's acquire-load is
	// guaranteed to observe the slot write that preceded it.
	writePos atomic.Uint64
	_        [56]byte // pad to a separate cache line from readPos

	// readPos is owned by the consumer for the symmetric reason.
	readPos atomic.Uint64
	_        [56]byte
}

// tryPush is non-blocking and wait-free: on a full buffer it returns false
// immediately rather than blocking, so the caller (the matching thread) can
// apply its own backoff policy without the ring ever stalling it.
func (r *ring) tryPush(e entry) bool {
	w := r.writePos.Load()
	next := (w + 1) & mask
	if next == r.readPos.Load() {
		return false // full
	}
	r.buf[w&mask] = e
	r.writePos.Store(next)
	return true
}

// tryPop is the consumer-side half of the same protocol.
func (r *ring) tryPop() (entry, bool) {
	rp := r.readPos.Load()
	if rp == r.writePos.Load() {
		return entry{}, false // empty
	}
	e := r.buf[rp&mask]
	r.readPos.Store((rp + 1) & mask)
	return e, true
}
