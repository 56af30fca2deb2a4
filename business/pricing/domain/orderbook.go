package domain

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/fd1az/dynamic-arb/internal/apperror"
)

// Orderbook is a depth snapshot. Bids are sorted descending, asks ascending.
type Orderbook struct {
	Pair      Pair
	Bids      []OrderbookLevel
	Asks      []OrderbookLevel
	Timestamp time.Time
}

// OrderbookLevel is one price level; Amount is in base units.
type OrderbookLevel struct {
	Price  decimal.Decimal
	Amount decimal.Decimal
}

// BestBid returns the highest bid, or nil.
func (o *Orderbook) BestBid() *OrderbookLevel {
	if len(o.Bids) == 0 {
		return nil
	}
	return &o.Bids[0]
}

// BestAsk returns the lowest ask, or nil.
func (o *Orderbook) BestAsk() *OrderbookLevel {
	if len(o.Asks) == 0 {
		return nil
	}
	return &o.Asks[0]
}

// VWAP returns the volume-weighted average price to fill size base units.
// Buying walks the asks and selling walks the bids.
func (o *Orderbook) VWAP(side Side, size decimal.Decimal) (decimal.Decimal, error) {
	if !size.IsPositive() {
		return decimal.Zero, apperror.New(apperror.CodeInvalidTradeSize,
			apperror.WithContext("size must be positive: "+size.String()))
	}

	levels := o.Bids
	if side == SideBuy {
		levels = o.Asks
	}

	remaining := size
	notional := decimal.Zero
	for _, lvl := range levels {
		take := decimal.Min(remaining, lvl.Amount)
		notional = notional.Add(take.Mul(lvl.Price))
		remaining = remaining.Sub(take)
		if !remaining.IsPositive() {
			return notional.Div(size), nil
		}
	}

	return decimal.Zero, apperror.New(apperror.CodeInsufficientLiquidity,
		apperror.WithContext(o.Pair.String()+" "+string(side)+" "+size.String()))
}
