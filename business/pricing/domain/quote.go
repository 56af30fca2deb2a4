package domain

import "github.com/shopspring/decimal"

// VenueRole tags which side of the strategy a venue plays. The primary venue
// is the CEX, the secondary venue is the DEX.
type VenueRole int

const (
	VenuePrimary VenueRole = iota + 1
	VenueSecondary
)

func (r VenueRole) String() string {
	switch r {
	case VenuePrimary:
		return "cex"
	case VenueSecondary:
		return "dex"
	default:
		return "unknown"
	}
}

// TokenAmount is a flat fee charged in some token, independent of size.
type TokenAmount struct {
	Token  string
	Amount decimal.Decimal
}

// QuoteSide is one leg of a proposal. Price is per unit of base and is
// denominated in QuoteAsset.
type QuoteSide struct {
	Venue         VenueRole
	Connector     string
	Pair          Pair
	Side          Side
	Price         decimal.Decimal
	QuoteAsset    string
	ExtraFlatFees []TokenAmount
}

// Proposal pairs a buy leg with a sell leg for the same base amount.
type Proposal struct {
	Buy    QuoteSide
	Sell   QuoteSide
	Amount decimal.Decimal
}

// Market identifies a connector and pair the strategy trades on.
type Market struct {
	Venue     VenueRole
	Connector string
	Pair      Pair
}
