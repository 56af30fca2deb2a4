package domain

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	pricing "github.com/fd1az/dynamic-arb/business/pricing/domain"
)

func TestNewCreateExecutionAction(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	a := NewCreateExecutionAction(testConfig(), d("12"), now)

	if _, err := uuid.Parse(a.ID); err != nil {
		t.Errorf("ID %q is not a uuid", a.ID)
	}
	if a.Buying.Connector != "binance" || a.Buying.Pair.String() != "VIRTUAL-USDT" {
		t.Errorf("Buying = %+v", a.Buying)
	}
	if a.Selling.Connector != "uniswap" || a.Selling.Pair.String() != "VIRTUAL-USDC" {
		t.Errorf("Selling = %+v", a.Selling)
	}
	if !a.GasConversionPrice.Equal(d("0.0004")) {
		t.Errorf("GasConversionPrice = %s", a.GasConversionPrice)
	}
	if !a.MinProfitability.Equal(d("0.001")) || !a.OrderAmount.Equal(d("12")) {
		t.Errorf("amount/threshold = %s/%s", a.OrderAmount, a.MinProfitability)
	}

	raw, err := json.Marshal(a)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(raw), `"pair":"VIRTUAL-USDT"`) {
		t.Errorf("pair not encoded as symbol: %s", raw)
	}
}

func TestDirectionOf(t *testing.T) {
	cex := pricing.QuoteSide{Venue: pricing.VenuePrimary}
	dex := pricing.QuoteSide{Venue: pricing.VenueSecondary}

	tests := []struct {
		name string
		p    pricing.Proposal
		want Direction
		ok   bool
	}{
		{"cex buy", pricing.Proposal{Buy: cex, Sell: dex}, DirectionCEXBuy, true},
		{"cex sell", pricing.Proposal{Buy: dex, Sell: cex}, DirectionCEXSell, true},
		{"same venue", pricing.Proposal{Buy: cex, Sell: cex}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := DirectionOf(tt.p)
			if got != tt.want || ok != tt.ok {
				t.Errorf("DirectionOf = %q, %v", got, ok)
			}
		})
	}
}

func TestFilterExecutions(t *testing.T) {
	records := []ExecutionRecord{{ID: "a", Active: true}, {ID: "b"}, {ID: "c", Active: true}}
	if got := FilterExecutions(records, IsActive); len(got) != 2 {
		t.Errorf("active = %d, want 2", len(got))
	}
}

func TestFormatting(t *testing.T) {
	p := d("0.0034940059940059")
	if got := ProfitPercent(p); !got.Equal(d("0.3494")) {
		t.Errorf("ProfitPercent = %s", got)
	}
	for in, want := range map[string]string{
		"0.0000125":  "0.0012", // half to even, down
		"0.0000135":  "0.0014", // half to even, up
		"-0.0000125": "-0.0012",
	} {
		if got := ProfitPercent(d(in)); !got.Equal(d(want)) {
			t.Errorf("ProfitPercent(%s) = %s, want %s", in, got, want)
		}
	}
	if got := FormatPercent(&p); got != "0.3494%" {
		t.Errorf("FormatPercent = %q", got)
	}
	if FormatPercent(nil) != "N/A" || FormatDecimal(nil) != "N/A" {
		t.Error("nil must render N/A")
	}
	v := decimal.RequireFromString("12.500")
	if FormatDecimal(&v) != "12.5" {
		t.Errorf("FormatDecimal = %q", FormatDecimal(&v))
	}
}
