// Package ethereum implements blockchain ports on go-ethereum.
package ethereum

import (
	"context"
	"fmt"
	"math/big"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"github.com/fd1az/dynamic-arb/business/blockchain/app"
	"github.com/fd1az/dynamic-arb/business/blockchain/domain"
	"github.com/fd1az/dynamic-arb/internal/apperror"
	"github.com/fd1az/dynamic-arb/internal/circuitbreaker"
	"github.com/fd1az/dynamic-arb/internal/logger"
)

const (
	tracerName = "github.com/fd1az/dynamic-arb/business/blockchain/infra/ethereum"
	meterName  = "blockchain"

	defaultRefresh = 12 * time.Second // one mainnet slot
)

// Lookup outcomes recorded on gas_price_lookups_total.
const (
	lookupFresh   = "fresh"
	lookupFetched = "fetched"
	lookupFailed  = "failed"
)

var _ app.GasPriceSource = (*GasOracle)(nil)

// GasPriceReader is the subset of ethclient.Client the oracle needs.
type GasPriceReader interface {
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
}

// OracleConfig controls how often the node is asked and how high a suggestion may go.
type OracleConfig struct {
	RefreshInterval time.Duration
	Ceiling         *big.Int // wei; nil disables clamping
}

// OracleConfigFromGwei builds an OracleConfig from operator units.
func OracleConfigFromGwei(refresh time.Duration, maxGwei decimal.Decimal) OracleConfig {
	cfg := OracleConfig{RefreshInterval: refresh}
	if maxGwei.IsPositive() {
		cfg.Ceiling = domain.WeiFromGwei(maxGwei)
	}
	return cfg
}

// GasOracle keeps the last node suggestion and refreshes it at most once per
// RefreshInterval. Concurrent callers that find it stale share one RPC.
type GasOracle struct {
	cfg    OracleConfig
	client GasPriceReader
	logger logger.LoggerInterface
	now    func() time.Time

	latest atomic.Pointer[domain.GasPrice]
	flight singleflight.Group
	cb     *circuitbreaker.CircuitBreaker[*big.Int]

	tracer  trace.Tracer
	lookups metric.Int64Counter
	gwei    metric.Float64Gauge
}

// NewGasOracle creates a GasOracle over client.
func NewGasOracle(client GasPriceReader, cfg OracleConfig, log logger.LoggerInterface) (*GasOracle, error) {
	if client == nil {
		return nil, apperror.New(apperror.CodeEthereumConnectionFailed,
			apperror.WithContext("gas oracle requires an ethereum client"))
	}
	if cfg.RefreshInterval <= 0 {
		cfg.RefreshInterval = defaultRefresh
	}

	meter := otel.Meter(meterName)
	lookups, err := meter.Int64Counter("gas_price_lookups_total",
		metric.WithDescription("Gas price lookups by outcome"),
		metric.WithUnit("{lookup}"))
	if err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}
	gwei, err := meter.Float64Gauge("gas_price_gwei",
		metric.WithDescription("Last observed gas price"),
		metric.WithUnit("gwei"))
	if err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	return &GasOracle{
		cfg:     cfg,
		client:  client,
		logger:  log,
		now:     time.Now,
		cb:      circuitbreaker.New[*big.Int](circuitbreaker.DefaultConfig("gas-oracle")),
		tracer:  otel.Tracer(tracerName),
		lookups: lookups,
		gwei:    gwei,
	}, nil
}

// GetGasPrice returns the last suggestion while it is fresh and asks the node otherwise.
func (g *GasOracle) GetGasPrice(ctx context.Context) (*domain.GasPrice, error) {
	if p := g.latest.Load(); p.IsFresh(g.now(), g.cfg.RefreshInterval) {
		g.record(ctx, lookupFresh)
		return p, nil
	}

	v, err, _ := g.flight.Do("suggest", func() (any, error) {
		return g.refresh(ctx)
	})
	if err != nil {
		g.record(ctx, lookupFailed)
		return nil, err
	}
	g.record(ctx, lookupFetched)
	return v.(*domain.GasPrice), nil
}

// Latest returns the last observed price without touching the node, or nil.
func (g *GasOracle) Latest() *domain.GasPrice {
	return g.latest.Load()
}

func (g *GasOracle) refresh(ctx context.Context) (*domain.GasPrice, error) {
	ctx, span := g.tracer.Start(ctx, "gas.suggest")
	defer span.End()

	wei, err := g.cb.Execute(func() (*big.Int, error) {
		return g.client.SuggestGasPrice(ctx)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "suggest failed")
		code := apperror.CodeEthereumRPCError
		if circuitbreaker.IsOpen(err) {
			code = apperror.CodeCircuitOpen
		}
		return nil, apperror.New(code, apperror.WithCause(err), apperror.WithContext("eth_gasPrice"))
	}

	if g.cfg.Ceiling != nil && wei.Cmp(g.cfg.Ceiling) > 0 {
		g.logger.Warn(ctx, "gas price above ceiling, clamping",
			"suggested_wei", wei.String(), "ceiling_wei", g.cfg.Ceiling.String())
		span.SetAttributes(attribute.Bool("clamped", true))
		wei = g.cfg.Ceiling
	}

	price := domain.NewGasPrice(wei, g.now())
	g.latest.Store(price)
	g.gwei.Record(ctx, price.Gwei())
	span.SetAttributes(attribute.Float64("gwei", price.Gwei()))
	return price, nil
}

func (g *GasOracle) record(ctx context.Context, outcome string) {
	g.lookups.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}
