package binance

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fd1az/dynamic-arb/business/pricing/domain"
	"github.com/fd1az/dynamic-arb/internal/apperror"
	"github.com/fd1az/dynamic-arb/internal/logger"
)

var virtualUSDT = domain.MustParsePair("VIRTUAL-USDT")

type fakeBinance struct {
	depthCalls   atomic.Int32
	accountCalls atomic.Int32
	secret       string
	status       int
}

func (f *fakeBinance) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(depthEndpoint, func(w http.ResponseWriter, r *http.Request) {
		f.depthCalls.Add(1)
		if f.status != 0 {
			w.WriteHeader(f.status)
			w.Write([]byte(`{"code":-1003,"msg":"Too many requests."}`))
			return
		}
		if r.URL.Query().Get("symbol") != "VIRTUALUSDT" {
			t.Errorf("symbol = %s", r.URL.Query().Get("symbol"))
		}
		json.NewEncoder(w).Encode(DepthResponse{
			Bids: [][]string{{"1.99", "100"}, {"1.98", "300"}},
			Asks: [][]string{{"2.00", "100"}, {"2.02", "100"}, {"2.05", "0"}},
		})
	})
	mux.HandleFunc(exchangeInfoEndpoint, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("symbol") != "VIRTUALUSDT" {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"code":-1121,"msg":"Invalid symbol."}`))
			return
		}
		json.NewEncoder(w).Encode(ExchangeInfoResponse{Symbols: []SymbolInfo{{
			Symbol: "VIRTUALUSDT", Status: "TRADING", BaseAsset: "VIRTUAL", QuoteAsset: "USDT",
			Filters: []SymbolFilter{
				{FilterType: "PRICE_FILTER"},
				{FilterType: "LOT_SIZE", MinQty: "0.10000000", MaxQty: "90000.00000000", StepSize: "0.10000000"},
			},
		}}})
	})
	mux.HandleFunc(accountEndpoint, func(w http.ResponseWriter, r *http.Request) {
		f.accountCalls.Add(1)
		if r.Header.Get(apiKeyHeader) != "key" {
			t.Errorf("missing api key header")
		}
		raw := r.URL.RawQuery
		i := strings.LastIndex(raw, "&signature=")
		if i < 0 {
			t.Fatalf("unsigned request: %s", raw)
		}
		mac := hmac.New(sha256.New, []byte(f.secret))
		mac.Write([]byte(raw[:i]))
		if got, want := raw[i+len("&signature="):], hex.EncodeToString(mac.Sum(nil)); got != want {
			t.Errorf("signature = %s, want %s", got, want)
		}
		json.NewEncoder(w).Encode(AccountResponse{CanTrade: true, Balances: []AccountBalance{
			{Asset: "USDT", Free: "1500.5", Locked: "10"},
			{Asset: "VIRTUAL", Free: "42", Locked: "0"},
		}})
	})
	return mux
}

func newTestProvider(t *testing.T, f *fakeBinance, mutate func(*ProviderConfig)) *Provider {
	t.Helper()
	srv := httptest.NewServer(f.handler(t))
	t.Cleanup(srv.Close)

	cfg := DefaultProviderConfig()
	cfg.HTTP.BaseURL = srv.URL
	cfg.DepthTTL = time.Minute
	if mutate != nil {
		mutate(&cfg)
	}

	p, err := NewProvider(cfg, logger.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { p.Close() })
	return p
}

func TestProvider_GetQuotePrice(t *testing.T) {
	f := &fakeBinance{}
	p := newTestProvider(t, f, nil)
	ctx := context.Background()

	tests := []struct {
		side   domain.Side
		amount string
		want   string
	}{
		{domain.SideBuy, "50", "2"},
		{domain.SideBuy, "150", "2.0066666666666667"},
		{domain.SideSell, "100", "1.99"},
		{domain.SideSell, "200", "1.985"},
	}
	for _, tt := range tests {
		got, err := p.GetQuotePrice(ctx, virtualUSDT, tt.side, decimal.RequireFromString(tt.amount))
		if err != nil {
			t.Fatalf("%s %s: %v", tt.side, tt.amount, err)
		}
		if !got.Equal(decimal.RequireFromString(tt.want)) {
			t.Errorf("%s %s = %s, want %s", tt.side, tt.amount, got, tt.want)
		}
	}

	if n := f.depthCalls.Load(); n != 1 {
		t.Errorf("depth fetched %d times, want 1", n)
	}

	_, err := p.GetQuotePrice(ctx, virtualUSDT, domain.SideBuy, decimal.NewFromInt(500))
	if apperror.GetCode(err) != apperror.CodeInsufficientLiquidity {
		t.Errorf("code = %s, want %s", apperror.GetCode(err), apperror.CodeInsufficientLiquidity)
	}
}

func TestProvider_RateLimited(t *testing.T) {
	p := newTestProvider(t, &fakeBinance{status: http.StatusTooManyRequests}, nil)

	_, err := p.GetQuotePrice(context.Background(), virtualUSDT, domain.SideBuy, decimal.NewFromInt(1))
	if apperror.GetCode(err) != apperror.CodeBinanceRateLimited {
		t.Fatalf("code = %s, want %s", apperror.GetCode(err), apperror.CodeBinanceRateLimited)
	}
}

func TestProvider_Quantize(t *testing.T) {
	p := newTestProvider(t, &fakeBinance{}, nil)

	if got := p.QuantizeOrderAmount(virtualUSDT, decimal.RequireFromString("1.123456789")); !got.Equal(decimal.RequireFromString("1.12345678")) {
		t.Errorf("before load = %s", got)
	}

	if err := p.LoadMarkets(context.Background(), virtualUSDT); err != nil {
		t.Fatalf("LoadMarkets: %v", err)
	}

	tests := []struct{ in, want string }{
		{"1.27", "1.2"},
		{"0.05", "0"},
		{"0.1", "0.1"},
		{"100000", "90000"},
	}
	for _, tt := range tests {
		got := p.QuantizeOrderAmount(virtualUSDT, decimal.RequireFromString(tt.in))
		if !got.Equal(decimal.RequireFromString(tt.want)) {
			t.Errorf("quantize(%s) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestProvider_LoadMarketsUnknownSymbol(t *testing.T) {
	p := newTestProvider(t, &fakeBinance{}, nil)

	err := p.LoadMarkets(context.Background(), domain.MustParsePair("NOPE-USDT"))
	if apperror.GetCode(err) != apperror.CodeSymbolNotListed {
		t.Fatalf("code = %s, want %s", apperror.GetCode(err), apperror.CodeSymbolNotListed)
	}
}

func TestProvider_Balances(t *testing.T) {
	t.Run("paper", func(t *testing.T) {
		f := &fakeBinance{}
		p := newTestProvider(t, f, func(c *ProviderConfig) {
			c.PaperBalances = map[string]decimal.Decimal{"USDT": decimal.NewFromInt(1000)}
		})

		got, err := p.GetAvailableBalance(context.Background(), "USDT")
		if err != nil || !got.Equal(decimal.NewFromInt(1000)) {
			t.Fatalf("got %s, %v", got, err)
		}
		if got, _ := p.GetAvailableBalance(context.Background(), "BTC"); !got.IsZero() {
			t.Errorf("unknown asset = %s", got)
		}
		if f.accountCalls.Load() != 0 {
			t.Error("paper mode must not call the account endpoint")
		}
	})

	t.Run("signed account", func(t *testing.T) {
		f := &fakeBinance{secret: "s3cret"}
		p := newTestProvider(t, f, func(c *ProviderConfig) {
			c.HTTP.APIKey = "key"
			c.HTTP.APISecret = "s3cret"
		})

		got, err := p.GetAvailableBalance(context.Background(), "USDT")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !got.Equal(decimal.RequireFromString("1500.5")) {
			t.Errorf("USDT = %s", got)
		}
		if got, _ := p.GetAvailableBalance(context.Background(), "VIRTUAL"); !got.Equal(decimal.NewFromInt(42)) {
			t.Errorf("VIRTUAL = %s", got)
		}
		if n := f.accountCalls.Load(); n != 1 {
			t.Errorf("account fetched %d times, want 1", n)
		}
	})
}

func TestLotSize_Quantize(t *testing.T) {
	lot := LotSize{
		MinQty:   decimal.RequireFromString("1"),
		MaxQty:   decimal.RequireFromString("1000"),
		StepSize: decimal.RequireFromString("1"),
	}
	if got := lot.Quantize(decimal.RequireFromString("0.99")); !got.IsZero() {
		t.Errorf("below min = %s", got)
	}
	if got := lot.Quantize(decimal.RequireFromString("7.9")); !got.Equal(decimal.NewFromInt(7)) {
		t.Errorf("floor = %s", got)
	}
}
