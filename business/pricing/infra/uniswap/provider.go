// Package uniswap implements the DEX connector on Uniswap V3 QuoterV2.
package uniswap

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	bcdomain "github.com/fd1az/dynamic-arb/business/blockchain/domain"
	"github.com/fd1az/dynamic-arb/business/pricing/app"
	"github.com/fd1az/dynamic-arb/business/pricing/domain"
	"github.com/fd1az/dynamic-arb/internal/apperror"
	"github.com/fd1az/dynamic-arb/internal/asset"
	"github.com/fd1az/dynamic-arb/internal/cache"
	"github.com/fd1az/dynamic-arb/internal/circuitbreaker"
	"github.com/fd1az/dynamic-arb/internal/logger"
)

const (
	tracerName = "github.com/fd1az/dynamic-arb/business/pricing/infra/uniswap"
	meterName  = "uniswap"

	// ConnectorName identifies this venue in markets and actions.
	ConnectorName = "uniswap"

	// Precision used when an asset is not registered.
	fallbackDecimals = 18
)

var (
	_ app.Connector        = (*Provider)(nil)
	_ app.FlatFeeEstimator = (*Provider)(nil)
)

// ChainReader is the subset of ethclient.Client the connector needs.
type ChainReader interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
}

// GasPricer supplies the current gas price.
type GasPricer interface {
	GetGasPrice(ctx context.Context) (*bcdomain.GasPrice, error)
}

// ProviderConfig holds configuration for the Uniswap connector.
type ProviderConfig struct {
	ChainID       uint64
	QuoterAddress common.Address
	FeeTier       uint32
	// Wallet is read for balances. The zero address selects PaperBalances.
	Wallet        common.Address
	PaperBalances map[string]decimal.Decimal
	// SwapGasUnits is the gas charged per swap when pricing the network fee.
	SwapGasUnits uint64
	GasToken     string
	BalanceTTL   time.Duration
}

// DefaultProviderConfig returns mainnet defaults.
func DefaultProviderConfig() ProviderConfig {
	return ProviderConfig{
		ChainID:       asset.ChainIDEthereum,
		QuoterAddress: DefaultQuoterAddress,
		FeeTier:       FeeTier030,
		SwapGasUnits:  180_000,
		GasToken:      "ETH",
		BalanceTTL:    12 * time.Second,
	}
}

// providerMetrics holds OTEL metric instruments.
type providerMetrics struct {
	quotesTotal  metric.Int64Counter
	quoteLatency metric.Float64Histogram
	quoteErrors  metric.Int64Counter
}

// Provider is the DEX connector.
type Provider struct {
	config   ProviderConfig
	chain    ChainReader
	gas      GasPricer
	registry *asset.Registry
	logger   logger.LoggerInterface
	cb       *circuitbreaker.CircuitBreaker[[]byte]
	balances *cache.Cache[string, decimal.Decimal]

	tracer  trace.Tracer
	metrics *providerMetrics
}

// NewProvider creates a new Uniswap V3 connector. registry must hold the
// traded tokens; gas may be nil, in which case no network fee is reported.
func NewProvider(chain ChainReader, gas GasPricer, registry *asset.Registry, cfg ProviderConfig, log logger.LoggerInterface) (*Provider, error) {
	if chain == nil {
		return nil, apperror.New(apperror.CodeConfigurationError,
			apperror.WithContext("uniswap connector requires an ethereum client"))
	}
	def := DefaultProviderConfig()
	if cfg.ChainID == 0 {
		cfg.ChainID = def.ChainID
	}
	if cfg.QuoterAddress == (common.Address{}) {
		cfg.QuoterAddress = def.QuoterAddress
	}
	if cfg.FeeTier == 0 {
		cfg.FeeTier = def.FeeTier
	}
	if cfg.SwapGasUnits == 0 {
		cfg.SwapGasUnits = def.SwapGasUnits
	}
	if cfg.GasToken == "" {
		cfg.GasToken = def.GasToken
	}
	if cfg.BalanceTTL == 0 {
		cfg.BalanceTTL = def.BalanceTTL
	}
	if registry == nil {
		registry = asset.DefaultRegistry()
	}

	cbCfg := circuitbreaker.DefaultConfig("uniswap-rpc")
	cbCfg.OnStateChange = func(name string, from, to gobreaker.State) {
		log.Warn(context.Background(), "circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
	}

	p := &Provider{
		config:   cfg,
		chain:    chain,
		gas:      gas,
		registry: registry,
		logger:   log,
		cb:       circuitbreaker.New[[]byte](cbCfg),
		balances: cache.New[string, decimal.Decimal](time.Minute),
		tracer:   otel.Tracer(tracerName),
	}

	if err := p.initMetrics(); err != nil {
		return nil, fmt.Errorf("failed to init metrics: %w", err)
	}

	return p, nil
}

func (p *Provider) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	p.metrics = &providerMetrics{}

	p.metrics.quotesTotal, err = meter.Int64Counter(
		"uniswap_quotes_total",
		metric.WithDescription("Total quote requests"),
	)
	if err != nil {
		return err
	}

	p.metrics.quoteLatency, err = meter.Float64Histogram(
		"uniswap_quote_latency_ms",
		metric.WithDescription("Quote request latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return err
	}

	p.metrics.quoteErrors, err = meter.Int64Counter(
		"uniswap_quote_errors_total",
		metric.WithDescription("Total quote errors"),
	)
	if err != nil {
		return err
	}

	return nil
}

// Name implements app.Connector.
func (p *Provider) Name() string {
	return ConnectorName
}

// LoadTokens reads decimals() of each symbol's contract and re-registers the
// token when the chain disagrees with the configured precision.
func (p *Provider) LoadTokens(ctx context.Context, symbols ...string) error {
	for _, symbol := range symbols {
		a, err := p.token(symbol)
		if err != nil {
			return err
		}
		if a.IsNative() {
			continue
		}

		out, err := p.call(ctx, erc20ABI, a.Address(), methodDecimals)
		if err != nil {
			return err
		}
		onChain, ok := out[0].(uint8)
		if !ok {
			return apperror.New(apperror.CodeContractCallFailed,
				apperror.WithContext(fmt.Sprintf("decimals of %s returned %T", a.Symbol(), out[0])))
		}
		if onChain != a.Decimals() {
			p.logger.Warn(ctx, "token decimals differ from configuration",
				"symbol", a.Symbol(), "configured", a.Decimals(), "on_chain", onChain)
			p.registry.Register(asset.NewToken(a.ChainID(), a.Address(), a.Symbol(), a.Name(), onChain))
		}
	}
	return nil
}

// GetQuotePrice quotes amount of base against the pool and returns the unit
// price in the pair's quote token. Selling uses exact input, buying uses
// exact output so both prices include the pool fee and price impact.
func (p *Provider) GetQuotePrice(ctx context.Context, pair domain.Pair, side domain.Side, amount decimal.Decimal) (decimal.Decimal, error) {
	ctx, span := p.tracer.Start(ctx, "uniswap.get_quote_price",
		trace.WithAttributes(
			attribute.String("pair", pair.String()),
			attribute.String("side", string(side)),
			attribute.String("amount", amount.String()),
			attribute.Int("fee_tier", int(p.config.FeeTier)),
		),
	)
	defer span.End()

	start := time.Now()
	p.metrics.quotesTotal.Add(ctx, 1)
	defer func() {
		p.metrics.quoteLatency.Record(ctx, float64(time.Since(start).Milliseconds()))
	}()

	price, err := p.quote(ctx, pair, side, amount)
	if err != nil {
		p.metrics.quoteErrors.Add(ctx, 1)
		span.RecordError(err)
		span.SetStatus(codes.Error, "quote failed")
		return decimal.Zero, err
	}

	span.SetAttributes(attribute.String("price", price.String()))
	span.SetStatus(codes.Ok, "quote received")
	return price, nil
}

func (p *Provider) quote(ctx context.Context, pair domain.Pair, side domain.Side, amount decimal.Decimal) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return decimal.Zero, apperror.New(apperror.CodeInvalidTradeSize,
			apperror.WithContext("size must be positive: "+amount.String()))
	}
	base, err := p.token(pair.Base)
	if err != nil {
		return decimal.Zero, err
	}
	quote, err := p.token(pair.Quote)
	if err != nil {
		return decimal.Zero, err
	}

	size, err := asset.ParseDecimal(base, asset.Truncate(base, amount))
	if err != nil || size.IsZero() {
		return decimal.Zero, apperror.New(apperror.CodeInvalidTradeSize,
			apperror.WithCause(err), apperror.WithContext(amount.String()+" "+base.Symbol()))
	}
	fee := new(big.Int).SetUint64(uint64(p.config.FeeTier))

	var out []any
	switch side {
	case domain.SideSell:
		out, err = p.call(ctx, quoterABI, p.config.QuoterAddress, methodExactInput, QuoteExactInputSingleParams{
			TokenIn:           base.Address(),
			TokenOut:          quote.Address(),
			AmountIn:          size.Raw(),
			Fee:               fee,
			SqrtPriceLimitX96: big.NewInt(0),
		})
	case domain.SideBuy:
		out, err = p.call(ctx, quoterABI, p.config.QuoterAddress, methodExactOutput, QuoteExactOutputSingleParams{
			TokenIn:           quote.Address(),
			TokenOut:          base.Address(),
			Amount:            size.Raw(),
			Fee:               fee,
			SqrtPriceLimitX96: big.NewInt(0),
		})
	default:
		return decimal.Zero, apperror.New(apperror.CodeInvalidInput, apperror.WithContext("side "+string(side)))
	}
	if err != nil {
		return decimal.Zero, err
	}

	result, err := decodeQuote(out)
	if err != nil {
		return decimal.Zero, apperror.New(apperror.CodeInvalidQuote, apperror.WithCause(err))
	}
	if result.Amount.Sign() <= 0 {
		return decimal.Zero, apperror.New(apperror.CodeInvalidQuote,
			apperror.WithContext("empty quote for "+pair.String()))
	}

	total := asset.NewAmount(quote, result.Amount).ToDecimal()

	p.logger.Debug(ctx, "uniswap quote",
		"pair", pair.String(),
		"side", string(side),
		"amount", amount.String(),
		"quote_amount", total.String(),
		"gas_estimate", result.GasEstimate.String(),
	)

	return total.DivRound(size.ToDecimal(), 28), nil
}

func decodeQuote(out []any) (*QuoteResult, error) {
	if len(out) < 4 {
		return nil, fmt.Errorf("unexpected output length: %d", len(out))
	}
	amount, ok := out[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected amount type %T", out[0])
	}
	sqrt, _ := out[1].(*big.Int)
	ticks, _ := out[2].(uint32)
	gas, _ := out[3].(*big.Int)
	if gas == nil {
		gas = new(big.Int)
	}
	return &QuoteResult{
		Amount:                  amount,
		SqrtPriceX96After:       sqrt,
		InitializedTicksCrossed: ticks,
		GasEstimate:             gas,
	}, nil
}

// GetAvailableBalance returns the wallet balance of symbol, or the paper
// balance when no wallet is configured.
func (p *Provider) GetAvailableBalance(ctx context.Context, symbol string) (decimal.Decimal, error) {
	if p.config.Wallet == (common.Address{}) {
		return p.config.PaperBalances[symbol], nil
	}
	if bal, ok := p.balances.Get(ctx, symbol); ok {
		return bal, nil
	}

	ctx, span := p.tracer.Start(ctx, "uniswap.get_balance",
		trace.WithAttributes(attribute.String("asset", symbol)))
	defer span.End()

	a, err := p.token(symbol)
	if err != nil {
		return decimal.Zero, err
	}

	var raw *big.Int
	if a.IsNative() {
		raw, err = p.chain.BalanceAt(ctx, p.config.Wallet, nil)
		if err != nil {
			err = apperror.New(apperror.CodeBalanceUnavailable, apperror.WithCause(err), apperror.WithContext(symbol))
		}
	} else {
		var out []any
		out, err = p.call(ctx, erc20ABI, a.Address(), methodBalanceOf, p.config.Wallet)
		if err == nil {
			raw, _ = out[0].(*big.Int)
		}
	}
	if err != nil {
		span.RecordError(err)
		return decimal.Zero, err
	}

	if raw == nil {
		raw = new(big.Int)
	}
	bal := asset.NewAmount(a, raw).ToDecimal()
	p.balances.Set(ctx, symbol, bal, p.config.BalanceTTL)
	return bal, nil
}

// QuantizeOrderAmount truncates amount to the base token precision.
func (p *Provider) QuantizeOrderAmount(pair domain.Pair, amount decimal.Decimal) decimal.Decimal {
	a, ok := p.registry.BySymbol(p.config.ChainID, pair.Base)
	if !ok {
		return amount.Truncate(fallbackDecimals)
	}
	return asset.Truncate(a, amount)
}

// NetworkTransactionFee prices one swap in the gas token.
func (p *Provider) NetworkTransactionFee(ctx context.Context) (domain.TokenAmount, error) {
	if p.gas == nil {
		return domain.TokenAmount{Token: p.config.GasToken, Amount: decimal.Zero}, nil
	}

	price, err := p.gas.GetGasPrice(ctx)
	if err != nil {
		return domain.TokenAmount{}, err
	}
	return domain.TokenAmount{
		Token:  p.config.GasToken,
		Amount: price.NetworkFee(p.config.SwapGasUnits),
	}, nil
}

// Close stops the balance cache sweeper.
func (p *Provider) Close() error {
	p.balances.Close()
	return nil
}

func (p *Provider) token(symbol string) (*asset.Asset, error) {
	a, ok := p.registry.BySymbol(p.config.ChainID, symbol)
	if !ok {
		return nil, apperror.New(apperror.CodeUnknownToken,
			apperror.WithContext(fmt.Sprintf("%s on chain %d", symbol, p.config.ChainID)))
	}
	return a, nil
}

// call packs method, executes it through the breaker and unpacks the result.
func (p *Provider) call(ctx context.Context, contract abi.ABI, to common.Address, method string, args ...any) ([]any, error) {
	data, err := contract.Pack(method, args...)
	if err != nil {
		return nil, apperror.New(apperror.CodeContractCallFailed, apperror.WithCause(err),
			apperror.WithContext("encode "+method))
	}

	raw, err := p.cb.Execute(func() ([]byte, error) {
		return p.chain.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	})
	if err != nil {
		if circuitbreaker.IsOpen(err) {
			return nil, apperror.New(apperror.CodeCircuitOpen, apperror.WithCause(err), apperror.WithContext(p.cb.Name()))
		}
		return nil, apperror.New(apperror.CodeContractCallFailed, apperror.WithCause(err),
			apperror.WithContext(method+" on "+to.Hex()))
	}

	out, err := contract.Unpack(method, raw)
	if err != nil {
		return nil, apperror.New(apperror.CodeContractCallFailed, apperror.WithCause(err),
			apperror.WithContext("decode "+method))
	}
	return out, nil
}
