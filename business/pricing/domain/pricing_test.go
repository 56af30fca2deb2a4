package domain

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/fd1az/dynamic-arb/internal/apperror"
)

func TestParsePair(t *testing.T) {
	tests := []struct {
		in      string
		want    Pair
		wantErr bool
	}{
		{"VIRTUAL-USDT", Pair{Base: "VIRTUAL", Quote: "USDT"}, false},
		{"eth-usdc", Pair{Base: "ETH", Quote: "USDC"}, false},
		{"ETHUSDC", Pair{}, true},
		{"-USDC", Pair{}, true},
		{"A-B-C", Pair{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePair(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParsePair = %+v, want %+v", got, tt.want)
			}
		})
	}

	if MustParsePair("VIRTUAL-USDT").ExchangeSymbol() != "VIRTUALUSDT" {
		t.Error("unexpected exchange symbol")
	}
}

func TestOrderbook_VWAP(t *testing.T) {
	book := Orderbook{
		Pair: MustParsePair("VIRTUAL-USDT"),
		Bids: []OrderbookLevel{
			{Price: decimal.RequireFromString("1.00"), Amount: decimal.RequireFromString("10")},
			{Price: decimal.RequireFromString("0.90"), Amount: decimal.RequireFromString("10")},
		},
		Asks: []OrderbookLevel{
			{Price: decimal.RequireFromString("1.10"), Amount: decimal.RequireFromString("5")},
			{Price: decimal.RequireFromString("1.20"), Amount: decimal.RequireFromString("5")},
		},
	}

	tests := []struct {
		name     string
		side     Side
		size     string
		want     string
		wantCode apperror.Code
	}{
		{"buy top level", SideBuy, "5", "1.1", ""},
		{"buy two levels", SideBuy, "10", "1.15", ""},
		{"sell partial second level", SideSell, "15", "0.9666666666666667", ""},
		{"buy beyond depth", SideBuy, "11", "", apperror.CodeInsufficientLiquidity},
		{"zero size", SideSell, "0", "", apperror.CodeInvalidTradeSize},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := book.VWAP(tt.side, decimal.RequireFromString(tt.size))
			if tt.wantCode != "" {
				if apperror.GetCode(err) != tt.wantCode {
					t.Fatalf("err = %v, want %s", err, tt.wantCode)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !got.Equal(decimal.RequireFromString(tt.want)) {
				t.Errorf("VWAP = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestVenueRole_String(t *testing.T) {
	if VenuePrimary.String() != "cex" || VenueSecondary.String() != "dex" {
		t.Error("unexpected role names")
	}
	if VenueRole(0).String() != "unknown" {
		t.Error("zero role must be unknown")
	}
}
