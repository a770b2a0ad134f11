// Package trade holds the Trade record: one execution pairing a bid and an
// ask at a single price and quantity.
package trade

import (
	"fmt"

	"fenrir/internal/types"
)

// Info describes one side of a Trade.
type Info struct {
	OrderID  types.OrderID
	Price    types.Price
	Quantity types.Quantity
}

// Trade describes one execution. Both sides always carry the same price and
// quantity; only the OrderID differs.
type Trade struct {
	Bid Info
	Ask Info
}

func (t Trade) String() string {
	return fmt.Sprintf(
		"bid=%d ask=%d price=%d qty=%d",
		t.Bid.OrderID, t.Ask.OrderID, t.Ask.Price, t.Ask.Quantity,
	)
}

// Trades is the ordered sequence of executions produced by one submit call.
type Trades []Trade
