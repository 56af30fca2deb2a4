package app

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/fd1az/dynamic-arb/business/pricing/domain"
	"github.com/fd1az/dynamic-arb/internal/apperror"
)

const tracerName = "github.com/fd1az/dynamic-arb/business/pricing/app"

// ProposalService builds cross-venue arbitrage proposals from live quotes.
type ProposalService struct {
	quoters map[string]PriceQuoter
	tracer  trace.Tracer
}

// NewProposalService creates a ProposalService over the given connectors.
func NewProposalService(connectors ...Connector) *ProposalService {
	quoters := make(map[string]PriceQuoter, len(connectors))
	for _, c := range connectors {
		quoters[c.Name()] = c
	}
	return &ProposalService{
		quoters: quoters,
		tracer:  otel.Tracer(tracerName),
	}
}

type legPrices struct {
	buy  decimal.Decimal
	sell decimal.Decimal
}

// GetQuoteProposals quotes amount on both markets, both sides, and returns
// the primary-buy/secondary-sell and secondary-buy/primary-sell proposals.
// A direction whose buy or sell price is not positive is omitted. Any quote
// failure fails the whole call.
func (s *ProposalService) GetQuoteProposals(
	ctx context.Context,
	primary, secondary domain.Market,
	primaryFees, secondaryFees []domain.TokenAmount,
	amount decimal.Decimal,
) ([]domain.Proposal, error) {
	ctx, span := s.tracer.Start(ctx, "pricing.get_quote_proposals",
		trace.WithAttributes(
			attribute.String("primary", primary.Connector+":"+primary.Pair.String()),
			attribute.String("secondary", secondary.Connector+":"+secondary.Pair.String()),
			attribute.String("amount", amount.String()),
		),
	)
	defer span.End()

	var p, q legPrices
	g, gctx := errgroup.WithContext(ctx)
	s.quote(gctx, g, primary, domain.SideBuy, amount, &p.buy)
	s.quote(gctx, g, primary, domain.SideSell, amount, &p.sell)
	s.quote(gctx, g, secondary, domain.SideBuy, amount, &q.buy)
	s.quote(gctx, g, secondary, domain.SideSell, amount, &q.sell)

	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "quote failed")
		return nil, err
	}

	proposals := make([]domain.Proposal, 0, 2)
	if p.buy.IsPositive() && q.sell.IsPositive() {
		proposals = append(proposals, domain.Proposal{
			Buy:    side(primary, domain.SideBuy, p.buy, primaryFees),
			Sell:   side(secondary, domain.SideSell, q.sell, secondaryFees),
			Amount: amount,
		})
	}
	if q.buy.IsPositive() && p.sell.IsPositive() {
		proposals = append(proposals, domain.Proposal{
			Buy:    side(secondary, domain.SideBuy, q.buy, secondaryFees),
			Sell:   side(primary, domain.SideSell, p.sell, primaryFees),
			Amount: amount,
		})
	}

	span.SetAttributes(attribute.Int("proposals", len(proposals)))
	span.SetStatus(codes.Ok, "quoted")
	return proposals, nil
}

func (s *ProposalService) quote(ctx context.Context, g *errgroup.Group, m domain.Market, sd domain.Side, amount decimal.Decimal, out *decimal.Decimal) {
	g.Go(func() error {
		q, ok := s.quoters[m.Connector]
		if !ok {
			return apperror.New(apperror.CodeProviderError,
				apperror.WithContext(fmt.Sprintf("no connector registered for %q", m.Connector)))
		}
		price, err := q.GetQuotePrice(ctx, m.Pair, sd, amount)
		if err != nil {
			return apperror.New(apperror.CodeProviderError,
				apperror.WithCause(err),
				apperror.WithContext(fmt.Sprintf("%s %s %s %s", m.Connector, m.Pair, sd, amount)))
		}
		*out = price
		return nil
	})
}

func side(m domain.Market, sd domain.Side, price decimal.Decimal, fees []domain.TokenAmount) domain.QuoteSide {
	return domain.QuoteSide{
		Venue:         m.Venue,
		Connector:     m.Connector,
		Pair:          m.Pair,
		Side:          sd,
		Price:         price,
		QuoteAsset:    m.Pair.Quote,
		ExtraFlatFees: fees,
	}
}
