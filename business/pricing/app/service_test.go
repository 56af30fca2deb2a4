package app

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/fd1az/dynamic-arb/business/pricing/domain"
	"github.com/fd1az/dynamic-arb/internal/apperror"
)

type fakeConnector struct {
	name   string
	prices map[domain.Side]decimal.Decimal
	err    error
}

func (f *fakeConnector) Name() string { return f.name }

func (f *fakeConnector) GetQuotePrice(_ context.Context, _ domain.Pair, side domain.Side, _ decimal.Decimal) (decimal.Decimal, error) {
	if f.err != nil {
		return decimal.Zero, f.err
	}
	return f.prices[side], nil
}

func (f *fakeConnector) GetAvailableBalance(context.Context, string) (decimal.Decimal, error) {
	return decimal.Zero, nil
}

func (f *fakeConnector) QuantizeOrderAmount(_ domain.Pair, a decimal.Decimal) decimal.Decimal {
	return a
}

var (
	cexMarket = domain.Market{Venue: domain.VenuePrimary, Connector: "binance", Pair: domain.MustParsePair("VIRTUAL-USDT")}
	dexMarket = domain.Market{Venue: domain.VenueSecondary, Connector: "uniswap", Pair: domain.MustParsePair("VIRTUAL-USDC")}
)

func prices(buy, sell string) map[domain.Side]decimal.Decimal {
	return map[domain.Side]decimal.Decimal{
		domain.SideBuy:  decimal.RequireFromString(buy),
		domain.SideSell: decimal.RequireFromString(sell),
	}
}

func TestProposalService_BuildsBothDirections(t *testing.T) {
	cex := &fakeConnector{name: "binance", prices: prices("10", "9.9")}
	dex := &fakeConnector{name: "uniswap", prices: prices("10.1", "10.05")}
	gas := []domain.TokenAmount{{Token: "ETH", Amount: decimal.RequireFromString("0.001")}}

	svc := NewProposalService(cex, dex)
	got, err := svc.GetQuoteProposals(context.Background(), cexMarket, dexMarket, nil, gas, decimal.NewFromInt(3))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}

	first := got[0]
	if first.Buy.Venue != domain.VenuePrimary || !first.Buy.Price.Equal(decimal.NewFromInt(10)) {
		t.Errorf("first buy = %+v", first.Buy)
	}
	if first.Sell.Venue != domain.VenueSecondary || first.Sell.QuoteAsset != "USDC" {
		t.Errorf("first sell = %+v", first.Sell)
	}
	if len(first.Sell.ExtraFlatFees) != 1 || len(first.Buy.ExtraFlatFees) != 0 {
		t.Errorf("fees not attached to the right leg: %+v", first)
	}

	second := got[1]
	if second.Buy.Venue != domain.VenueSecondary || second.Sell.Venue != domain.VenuePrimary {
		t.Errorf("second = %+v", second)
	}
	if !second.Amount.Equal(decimal.NewFromInt(3)) {
		t.Errorf("amount = %s", second.Amount)
	}
}

func TestProposalService_DropsNonPositivePrices(t *testing.T) {
	cex := &fakeConnector{name: "binance", prices: prices("0", "9.9")}
	dex := &fakeConnector{name: "uniswap", prices: prices("10.1", "10.05")}

	got, err := NewProposalService(cex, dex).GetQuoteProposals(context.Background(), cexMarket, dexMarket, nil, nil, decimal.NewFromInt(1))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].Buy.Venue != domain.VenueSecondary {
		t.Fatalf("got %+v", got)
	}
}

func TestProposalService_QuoteFailure(t *testing.T) {
	boom := errors.New("rpc down")
	cex := &fakeConnector{name: "binance", prices: prices("10", "9.9")}
	dex := &fakeConnector{name: "uniswap", err: boom}

	_, err := NewProposalService(cex, dex).GetQuoteProposals(context.Background(), cexMarket, dexMarket, nil, nil, decimal.NewFromInt(1))
	if apperror.GetCode(err) != apperror.CodeProviderError {
		t.Fatalf("code = %s", apperror.GetCode(err))
	}
	if !errors.Is(err, boom) {
		t.Error("expected cause to be preserved")
	}
}

func TestProposalService_UnknownConnector(t *testing.T) {
	cex := &fakeConnector{name: "binance", prices: prices("10", "9.9")}
	_, err := NewProposalService(cex).GetQuoteProposals(context.Background(), cexMarket, dexMarket, nil, nil, decimal.NewFromInt(1))
	if err == nil {
		t.Fatal("expected error for unregistered connector")
	}
}
