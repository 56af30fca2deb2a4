// Package domain contains the core domain types for the arbitrage context.
package domain

import pricing "github.com/fd1az/dynamic-arb/business/pricing/domain"

// Direction identifies which way a proposal trades across the two venues.
type Direction string

const (
	// DirectionCEXBuy buys on the CEX and sells on the DEX.
	DirectionCEXBuy Direction = "CEX_BUY"

	// DirectionCEXSell buys on the DEX and sells on the CEX.
	DirectionCEXSell Direction = "CEX_SELL"
)

// String returns a human-readable description of the direction.
func (d Direction) String() string {
	switch d {
	case DirectionCEXBuy:
		return "sell at DEX, buy at CEX"
	case DirectionCEXSell:
		return "buy at DEX, sell at CEX"
	default:
		return "unknown"
	}
}

// DirectionOf classifies a proposal by the venue roles on its legs.
func DirectionOf(p pricing.Proposal) (Direction, bool) {
	switch {
	case p.Buy.Venue == pricing.VenuePrimary && p.Sell.Venue == pricing.VenueSecondary:
		return DirectionCEXBuy, true
	case p.Buy.Venue == pricing.VenueSecondary && p.Sell.Venue == pricing.VenuePrimary:
		return DirectionCEXSell, true
	default:
		return "", false
	}
}
