package binance

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/dynamic-arb/business/pricing/app"
	"github.com/fd1az/dynamic-arb/business/pricing/domain"
	"github.com/fd1az/dynamic-arb/internal/apperror"
	"github.com/fd1az/dynamic-arb/internal/cache"
	"github.com/fd1az/dynamic-arb/internal/circuitbreaker"
	"github.com/fd1az/dynamic-arb/internal/logger"
)

// ConnectorName identifies this venue in markets and actions.
const ConnectorName = "binance"

// Binance spot quantities carry at most eight decimals.
const maxQuantityDecimals = 8

const accountKey = "account"

var _ app.Connector = (*Provider)(nil)

// ProviderConfig holds configuration for the Binance connector.
type ProviderConfig struct {
	HTTP       HTTPClientConfig
	DepthLimit int
	// DepthTTL bounds how long a fetched book is reused. A scan quotes both
	// sides of many sizes within one cycle, so one fetch serves all of them.
	DepthTTL   time.Duration
	BalanceTTL time.Duration
	// PaperBalances are reported instead of the account when no credentials
	// are configured.
	PaperBalances map[string]decimal.Decimal
}

// DefaultProviderConfig returns sensible defaults.
func DefaultProviderConfig() ProviderConfig {
	return ProviderConfig{
		HTTP:       DefaultHTTPClientConfig(),
		DepthLimit: 100,
		DepthTTL:   time.Second,
		BalanceTTL: 5 * time.Second,
	}
}

// Provider is the CEX connector: depth-walk quotes, LOT_SIZE quantization and
// spot balances.
type Provider struct {
	config   ProviderConfig
	http     *HTTPClient
	logger   logger.LoggerInterface
	tracer   trace.Tracer
	breaker  *circuitbreaker.CircuitBreaker[*domain.Orderbook]
	books    *cache.Cache[string, *domain.Orderbook]
	balances *cache.Cache[string, map[string]decimal.Decimal]

	lotsMu sync.RWMutex
	lots   map[string]LotSize
}

// NewProvider creates a new Binance connector.
func NewProvider(cfg ProviderConfig, log logger.LoggerInterface) (*Provider, error) {
	def := DefaultProviderConfig()
	if cfg.DepthLimit == 0 {
		cfg.DepthLimit = def.DepthLimit
	}
	if cfg.DepthTTL == 0 {
		cfg.DepthTTL = def.DepthTTL
	}
	if cfg.BalanceTTL == 0 {
		cfg.BalanceTTL = def.BalanceTTL
	}

	httpClient, err := NewHTTPClient(cfg.HTTP, log)
	if err != nil {
		return nil, err
	}

	bcfg := circuitbreaker.DefaultConfig("binance-depth")
	bcfg.OnStateChange = func(name string, from, to gobreaker.State) {
		log.Warn(context.Background(), "circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
	}

	return &Provider{
		config:   cfg,
		http:     httpClient,
		logger:   log,
		tracer:   otel.Tracer(tracerName),
		breaker:  circuitbreaker.New[*domain.Orderbook](bcfg),
		books:    cache.New[string, *domain.Orderbook](time.Minute),
		balances: cache.New[string, map[string]decimal.Decimal](time.Minute),
		lots:     make(map[string]LotSize),
	}, nil
}

// Name implements app.Connector.
func (p *Provider) Name() string {
	return ConnectorName
}

// LoadMarkets fetches and caches the LOT_SIZE rules of pairs. A pair that is
// not listed or not trading fails with CodeSymbolNotListed.
func (p *Provider) LoadMarkets(ctx context.Context, pairs ...domain.Pair) error {
	for _, pair := range pairs {
		symbol := pair.ExchangeSymbol()
		info, err := p.http.GetSymbolInfo(ctx, symbol)
		if err != nil {
			return err
		}
		if info.Status != "TRADING" {
			return apperror.New(apperror.CodeSymbolNotListed,
				apperror.WithContext(symbol+" status "+info.Status))
		}

		lot, ok, err := lotSizeOf(*info)
		if err != nil {
			return apperror.New(apperror.CodeBinanceAPIError, apperror.WithCause(err),
				apperror.WithContext("parse LOT_SIZE of "+symbol))
		}
		if !ok {
			continue
		}

		p.lotsMu.Lock()
		p.lots[symbol] = lot
		p.lotsMu.Unlock()

		p.logger.Info(ctx, "loaded binance market rules",
			"symbol", symbol,
			"min_qty", lot.MinQty.String(),
			"step_size", lot.StepSize.String())
	}
	return nil
}

// GetQuotePrice walks the book for amount and returns the average fill price.
func (p *Provider) GetQuotePrice(ctx context.Context, pair domain.Pair, side domain.Side, amount decimal.Decimal) (decimal.Decimal, error) {
	ctx, span := p.tracer.Start(ctx, "binance.get_quote_price",
		trace.WithAttributes(
			attribute.String("pair", pair.String()),
			attribute.String("side", string(side)),
			attribute.String("amount", amount.String()),
		),
	)
	defer span.End()

	book, err := p.orderbook(ctx, pair)
	if err != nil {
		span.RecordError(err)
		return decimal.Zero, err
	}

	price, err := book.VWAP(side, amount)
	if err != nil {
		return decimal.Zero, err
	}

	span.SetAttributes(attribute.String("price", price.String()))
	return price, nil
}

// orderbook returns a cached book or fetches one through the breaker.
func (p *Provider) orderbook(ctx context.Context, pair domain.Pair) (*domain.Orderbook, error) {
	symbol := pair.ExchangeSymbol()
	if book, ok := p.books.Get(ctx, symbol); ok {
		return book, nil
	}

	book, err := p.breaker.Execute(func() (*domain.Orderbook, error) {
		depth, err := p.http.GetDepth(ctx, symbol, p.config.DepthLimit)
		if err != nil {
			return nil, err
		}
		bids, err := ParseOrderbookLevels(depth.Bids)
		if err != nil {
			return nil, apperror.New(apperror.CodeInvalidOrderbook, apperror.WithCause(err), apperror.WithContext("bids"))
		}
		asks, err := ParseOrderbookLevels(depth.Asks)
		if err != nil {
			return nil, apperror.New(apperror.CodeInvalidOrderbook, apperror.WithCause(err), apperror.WithContext("asks"))
		}
		return &domain.Orderbook{Pair: pair, Bids: bids, Asks: asks, Timestamp: time.Now()}, nil
	})
	if err != nil {
		if circuitbreaker.IsOpen(err) {
			return nil, apperror.New(apperror.CodeCircuitOpen, apperror.WithCause(err), apperror.WithContext(p.breaker.Name()))
		}
		return nil, err
	}

	p.books.Set(ctx, symbol, book, p.config.DepthTTL)
	return book, nil
}

// GetAvailableBalance returns the free balance of asset.
func (p *Provider) GetAvailableBalance(ctx context.Context, asset string) (decimal.Decimal, error) {
	if !p.http.HasCredentials() {
		return p.config.PaperBalances[asset], nil
	}

	free, ok := p.balances.Get(ctx, accountKey)
	if !ok {
		account, err := p.http.GetAccount(ctx)
		if err != nil {
			return decimal.Zero, err
		}

		free = make(map[string]decimal.Decimal, len(account.Balances))
		for _, b := range account.Balances {
			amt, err := decimal.NewFromString(b.Free)
			if err != nil {
				return decimal.Zero, apperror.New(apperror.CodeBalanceUnavailable,
					apperror.WithCause(err), apperror.WithContext("parse "+b.Asset+" balance"))
			}
			free[b.Asset] = amt
		}
		p.balances.Set(ctx, accountKey, free, p.config.BalanceTTL)
	}

	return free[asset], nil
}

// QuantizeOrderAmount applies the pair's LOT_SIZE rule, or truncates to the
// exchange precision when rules have not been loaded.
func (p *Provider) QuantizeOrderAmount(pair domain.Pair, amount decimal.Decimal) decimal.Decimal {
	p.lotsMu.RLock()
	lot, ok := p.lots[pair.ExchangeSymbol()]
	p.lotsMu.RUnlock()

	if !ok {
		return amount.Truncate(maxQuantityDecimals)
	}
	return lot.Quantize(amount)
}

// Close stops the cache sweepers.
func (p *Provider) Close() error {
	p.books.Close()
	p.balances.Close()
	return nil
}
