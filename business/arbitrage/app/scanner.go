package app

import (
	"context"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/dynamic-arb/business/arbitrage/domain"
	pricingApp "github.com/fd1az/dynamic-arb/business/pricing/app"
	pricing "github.com/fd1az/dynamic-arb/business/pricing/domain"
	"github.com/fd1az/dynamic-arb/internal/apperror"
	"github.com/fd1az/dynamic-arb/internal/logger"
)

// Scanner walks candidate trade sizes upward and selects the most profitable
// CEX-buy/DEX-sell size within balance and notional limits.
type Scanner struct {
	cfg       domain.StrategyConfig
	cex       Venue
	dex       Venue
	proposals ProposalSource
	evaluator *Evaluator
	logger    logger.LoggerInterface
	tracer    trace.Tracer
}

// NewScanner creates a Scanner.
func NewScanner(cfg domain.StrategyConfig, cex, dex Venue, proposals ProposalSource, evaluator *Evaluator, log logger.LoggerInterface) *Scanner {
	return &Scanner{
		cfg:       cfg,
		cex:       cex,
		dex:       dex,
		proposals: proposals,
		evaluator: evaluator,
		logger:    log,
		tracer:    otel.Tracer(tracerName),
	}
}

// Scan fetches balances once and prices sizes size_increment, 2·size_increment, …
// until a limit is hit. Balance and fee failures abort the scan; a size that
// cannot be quoted, such as one deeper than the book, is skipped.
func (s *Scanner) Scan(ctx context.Context) (domain.ScanResult, error) {
	ctx, span := s.tracer.Start(ctx, "arbitrage.scan")
	defer span.End()

	var result domain.ScanResult

	availableQuote, err := s.cex.GetAvailableBalance(ctx, s.cfg.CEXPair.Quote)
	if err != nil {
		return result, providerError(err, "cex "+s.cfg.CEXPair.Quote+" balance")
	}
	availableBase, err := s.dex.GetAvailableBalance(ctx, s.cfg.DEXPair.Base)
	if err != nil {
		return result, providerError(err, "dex "+s.cfg.DEXPair.Base+" balance")
	}

	span.SetAttributes(
		attribute.String("available_quote", availableQuote.String()),
		attribute.String("available_base", availableBase.String()),
	)

	if !availableQuote.IsPositive() || !availableBase.IsPositive() {
		result.Halt = domain.HaltNoBalance
		return result, nil
	}

	cexFees, dexFees, err := s.flatFees(ctx)
	if err != nil {
		return result, err
	}

	maxAmount := decimal.Min(s.cfg.MaxOrderAmount, availableBase)
	maxIterations := s.cfg.MaxOrderAmount.Div(s.cfg.SizeIncrement).Ceil().IntPart() + 2

	var (
		bestAmount decimal.Decimal
		bestProfit decimal.Decimal
		found      bool
		size       decimal.Decimal
	)

	result.Halt = domain.HaltIterations
	for i := int64(0); i < maxIterations; i++ {
		size = size.Add(s.cfg.SizeIncrement)

		quantized := s.cex.QuantizeOrderAmount(s.cfg.CEXPair, size)
		quantized = s.dex.QuantizeOrderAmount(s.cfg.DEXPair, quantized)

		if !quantized.IsPositive() {
			continue
		}
		if quantized.GreaterThan(maxAmount) {
			result.Halt = domain.HaltMaxAmount
			break
		}

		proposals, err := s.proposals.GetQuoteProposals(ctx, s.cfg.CEXMarket(), s.cfg.DEXMarket(), cexFees, dexFees, quantized)
		if err != nil {
			s.logger.Warn(ctx, "failed to fetch arbitrage proposals", "amount", quantized.String(), "error", err)
			continue
		}
		if len(proposals) == 0 {
			continue
		}

		eval := s.evaluator.Evaluate(proposals)
		result.SizesEvaluated++

		if eval.CEXSellProfit != nil {
			result.CEXSellProfit = eval.CEXSellProfit
		}
		if eval.CEXBuyProfit != nil {
			result.CEXBuyProfit = eval.CEXBuyProfit
		}

		if eval.CEXBuyProfit == nil || eval.CEXBuyPrice == nil {
			continue
		}

		notional := eval.CEXBuyPrice.Mul(quantized)
		if notional.GreaterThan(availableQuote) {
			result.Halt = domain.HaltQuoteBalance
			break
		}
		if notional.GreaterThan(s.cfg.MaxCEXNotional) {
			result.Halt = domain.HaltNotionalLimit
			break
		}

		profit := *eval.CEXBuyProfit
		if profit.GreaterThanOrEqual(s.cfg.MinProfitability) && (!found || profit.GreaterThan(bestProfit)) {
			bestProfit = profit
			bestAmount = quantized
			found = true
		}
		if result.MaxSeenProfit == nil || profit.GreaterThan(*result.MaxSeenProfit) {
			seenProfit, seenAmount := profit, quantized
			result.MaxSeenProfit = &seenProfit
			result.MaxSeenAmount = &seenAmount
		}
	}

	if found {
		result.BestAmount = bestAmount
		result.BestProfit = bestProfit
	}

	s.logger.Debug(ctx, "scan finished",
		"sizes_evaluated", result.SizesEvaluated,
		"halt", string(result.Halt),
		"best_amount", result.BestAmount.String())

	span.SetAttributes(
		attribute.Int("sizes_evaluated", result.SizesEvaluated),
		attribute.String("halt", string(result.Halt)),
		attribute.String("best_amount", result.BestAmount.String()),
	)

	return result, nil
}

// flatFees refreshes the per-trade network fee of each venue that charges one.
func (s *Scanner) flatFees(ctx context.Context) (cex, dex []pricing.TokenAmount, err error) {
	if cex, err = venueFees(ctx, s.cex); err != nil {
		return nil, nil, providerError(err, "cex network fee")
	}
	if dex, err = venueFees(ctx, s.dex); err != nil {
		return nil, nil, providerError(err, "dex network fee")
	}
	return cex, dex, nil
}

func venueFees(ctx context.Context, v Venue) ([]pricing.TokenAmount, error) {
	est, ok := v.(pricingApp.FlatFeeEstimator)
	if !ok {
		return nil, nil
	}
	fee, err := est.NetworkTransactionFee(ctx)
	if err != nil {
		return nil, err
	}
	return []pricing.TokenAmount{fee}, nil
}

func providerError(err error, what string) error {
	return apperror.New(apperror.CodeProviderError, apperror.WithCause(err), apperror.WithContext(what))
}
