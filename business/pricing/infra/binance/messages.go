// Package binance implements the CEX connector over the Binance spot REST API.
package binance

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/fd1az/dynamic-arb/business/pricing/domain"
)

// DepthResponse is the /api/v3/depth payload.
type DepthResponse struct {
	LastUpdateID int64      `json:"lastUpdateId"`
	Bids         [][]string `json:"bids"` // [[price, qty], ...]
	Asks         [][]string `json:"asks"`
}

// ExchangeInfoResponse is the /api/v3/exchangeInfo payload.
type ExchangeInfoResponse struct {
	Symbols []SymbolInfo `json:"symbols"`
}

// SymbolInfo describes one listed symbol.
type SymbolInfo struct {
	Symbol     string         `json:"symbol"`
	Status     string         `json:"status"`
	BaseAsset  string         `json:"baseAsset"`
	QuoteAsset string         `json:"quoteAsset"`
	Filters    []SymbolFilter `json:"filters"`
}

// SymbolFilter is a trading rule. Only the LOT_SIZE fields are decoded.
type SymbolFilter struct {
	FilterType string `json:"filterType"`
	MinQty     string `json:"minQty,omitempty"`
	MaxQty     string `json:"maxQty,omitempty"`
	StepSize   string `json:"stepSize,omitempty"`
}

// AccountResponse is the signed /api/v3/account payload.
type AccountResponse struct {
	CanTrade bool             `json:"canTrade"`
	Balances []AccountBalance `json:"balances"`
}

// AccountBalance is one asset's balance.
type AccountBalance struct {
	Asset  string `json:"asset"`
	Free   string `json:"free"`
	Locked string `json:"locked"`
}

// APIError is an error body returned by Binance.
type APIError struct {
	Code    int    `json:"code"`
	Message string `json:"msg"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("binance API error %d: %s", e.Code, e.Message)
}

// LotSize is the LOT_SIZE filter of a symbol.
type LotSize struct {
	MinQty   decimal.Decimal
	MaxQty   decimal.Decimal
	StepSize decimal.Decimal
}

// Quantize floors amount to a multiple of StepSize and caps it at MaxQty.
// Amounts below MinQty become zero.
func (l LotSize) Quantize(amount decimal.Decimal) decimal.Decimal {
	q := amount
	if l.StepSize.IsPositive() {
		q = amount.Div(l.StepSize).Floor().Mul(l.StepSize)
	}
	if l.MaxQty.IsPositive() && q.GreaterThan(l.MaxQty) {
		q = l.MaxQty
	}
	if q.LessThan(l.MinQty) || !q.IsPositive() {
		return decimal.Zero
	}
	return q
}

// lotSizeOf extracts the LOT_SIZE filter, if present.
func lotSizeOf(info SymbolInfo) (LotSize, bool, error) {
	for _, f := range info.Filters {
		if f.FilterType != "LOT_SIZE" {
			continue
		}
		var (
			ls  LotSize
			err error
		)
		if ls.MinQty, err = decimal.NewFromString(f.MinQty); err != nil {
			return LotSize{}, false, err
		}
		if ls.MaxQty, err = decimal.NewFromString(f.MaxQty); err != nil {
			return LotSize{}, false, err
		}
		if ls.StepSize, err = decimal.NewFromString(f.StepSize); err != nil {
			return LotSize{}, false, err
		}
		return ls, true, nil
	}
	return LotSize{}, false, nil
}

// ParseOrderbookLevels parses raw [price, qty] pairs, dropping empty levels.
func ParseOrderbookLevels(raw [][]string) ([]domain.OrderbookLevel, error) {
	levels := make([]domain.OrderbookLevel, 0, len(raw))
	for _, r := range raw {
		if len(r) < 2 {
			continue
		}
		price, err := decimal.NewFromString(r[0])
		if err != nil {
			return nil, err
		}
		qty, err := decimal.NewFromString(r[1])
		if err != nil {
			return nil, err
		}
		if qty.IsZero() {
			continue
		}
		levels = append(levels, domain.OrderbookLevel{Price: price, Amount: qty})
	}
	return levels, nil
}
