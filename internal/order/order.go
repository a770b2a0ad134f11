// Package order defines the Order entity: identity, side, price, quantity,
// and time-in-force, plus the Fill mutation the matcher drives.
package order

import (
	"errors"
	"fmt"

	"fenrir/internal/types"
)

// ErrInvalidFill is wrapped in the panic Fill raises when the caller asks to
// fill more than the order's remaining quantity. This indicates a broken invariant in the
// matcher, never a user-input problem, and should never be observable from
// the public Book API under correct use.
var ErrInvalidFill = errors.New("order: fill quantity exceeds remaining quantity")

// Order is the unit of intent the Book matches and rests. RemainQty is the
// only mutable field; everything else is fixed at creation.
type Order struct {
	ID        types.OrderID
	Side      types.Side
	Price     types.Price
	InitQty   types.Quantity
	RemainQty types.Quantity
	Type      types.OrderType
}

// New constructs an Order with RemainQty initialized to qty.
func New(id types.OrderID, side types.Side, price types.Price, qty types.Quantity, typ types.OrderType) *Order {
	return &Order{
		ID:        id,
		Side:      side,
		Price:     price,
		InitQty:   qty,
		RemainQty: qty,
		Type:      typ,
	}
}

// IsFilled reports whether the order has no remaining quantity.
func (o *Order) IsFilled() bool {
	return o.RemainQty == 0
}

// FilledQty returns how much of the order has executed so far.
func (o *Order) FilledQty() types.Quantity {
	return o.InitQty - o.RemainQty
}

// Fill reduces RemainQty by q. Precondition: q <= RemainQty. Violating the
// precondition is a caller bug, never user input, and panics via
// ErrInvalidFill rather than returning an error the caller might ignore.
func (o *Order) Fill(q types.Quantity) {
	if q > o.RemainQty {
		panic(fmt.Errorf("%w: order %d has %d remaining, asked to fill %d", ErrInvalidFill, o.ID, o.RemainQty, q))
	}
	o.RemainQty -= q
}

func (o *Order) String() string {
	return fmt.Sprintf(
		`ID:        %d
Side:      %v
Price:     %d
Quantity:  %d (Total: %d)
Type:      %v`,
		o.ID, o.Side, o.Price, o.RemainQty, o.InitQty, o.Type,
	)
}
