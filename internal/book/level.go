package book

import (
	"fenrir/internal/order"
	"fenrir/internal/types"
)

// noSlot marks the absence of a neighbor in the intrusive list.
const noSlot = -1

// orderSlot is one arena-allocated entry: an Order plus the intrusive
// prev/next links of whatever Level it currently belongs to. Slots are
// reused via the arena's free list so the matching loop does not allocate per order.
//
// Go has no stable container iterators into a slice under mutation, so the
// OrderID index stores a slot index rather than a pointer or iterator: the
// index stays valid even as other slots are allocated and freed.
type orderSlot struct {
	order      order.Order
	prev, next int32
	level      *Level
	inUse      bool
}

// arena owns every order slot ever allocated by a Book.
type arena struct {
	slots []orderSlot
	free  []int32
}

func newArena() *arena {
	return &arena{}
}

// alloc returns a fresh slot index holding ord, reusing a freed slot when
// available.
func (a *arena) alloc(ord order.Order) int32 {
	if n := len(a.free); n > 0 {
		idx := a.free[n-1]
		a.free = a.free[:n-1]
		s := &a.slots[idx]
		s.order = ord
		s.prev, s.next = noSlot, noSlot
		s.level = nil
		s.inUse = true
		return idx
	}
	a.slots = append(a.slots, orderSlot{order: ord, prev: noSlot, next: noSlot, inUse: true})
	return int32(len(a.slots) - 1)
}

func (a *arena) get(idx int32) *orderSlot {
	return &a.slots[idx]
}

func (a *arena) release(idx int32) {
	s := &a.slots[idx]
	s.inUse = false
	s.level = nil
	a.free = append(a.free, idx)
}

// Level is an insertion-ordered sequence of resting orders at one price on
// one side, represented as a head/tail pair of arena slot indices. A Level
// is never empty while it exists in a Book; Book removes it from the
// price-indexed tree the instant its last order leaves.
type Level struct {
	price types.Price
	head  int32
	tail  int32
	count int
}

func newLevel(price types.Price) *Level {
	return &Level{price: price, head: noSlot, tail: noSlot}
}

// pushBack appends the slot at idx to the tail of the level, preserving
// arrival order for FIFO-within-price matching.
func (l *Level) pushBack(a *arena, idx int32) {
	s := a.get(idx)
	s.level = l
	s.prev = l.tail
	s.next = noSlot
	if l.tail != noSlot {
		a.get(l.tail).next = idx
	} else {
		l.head = idx
	}
	l.tail = idx
	l.count++
}

// remove unlinks the slot at idx from the level without disturbing the
// relative order of the remaining orders, and releases the slot back to the
// arena.
func (l *Level) remove(a *arena, idx int32) {
	s := a.get(idx)
	if s.prev != noSlot {
		a.get(s.prev).next = s.next
	} else {
		l.head = s.next
	}
	if s.next != noSlot {
		a.get(s.next).prev = s.prev
	} else {
		l.tail = s.prev
	}
	l.count--
	a.release(idx)
}

// headOrder returns the order.Order at the front of the level, or nil if the
// level is empty.
func (l *Level) headOrder(a *arena) *order.Order {
	if l.head == noSlot {
		return nil
	}
	return &a.get(l.head).order
}

// headSlot returns the arena slot index at the front of the level, or
// noSlot if empty.
func (l *Level) headSlot() int32 {
	return l.head
}

func (l *Level) isEmpty() bool {
	return l.count == 0
}

// aggregateQty sums RemainQty across every order resting at this level.
func (l *Level) aggregateQty(a *arena) types.Quantity {
	var total types.Quantity
	for idx := l.head; idx != noSlot; idx = a.get(idx).next {
		total += a.get(idx).order.RemainQty
	}
	return total
}
