package app

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const (
	tracerName = "github.com/fd1az/dynamic-arb/business/arbitrage/app"
	meterName  = "github.com/fd1az/dynamic-arb/business/arbitrage"
)

// strategyMetrics holds OTEL metric instruments for the evaluation cycle.
type strategyMetrics struct {
	evaluations    metric.Int64Counter
	ticksSkipped   metric.Int64Counter
	opportunities  metric.Int64Counter
	evalErrors     metric.Int64Counter
	sizesEvaluated metric.Int64Histogram
	bestProfitPct  metric.Float64Histogram
	evalDuration   metric.Float64Histogram
}

func newStrategyMetrics() (*strategyMetrics, error) {
	meter := otel.Meter(meterName)
	m := &strategyMetrics{}
	var err error

	if m.evaluations, err = meter.Int64Counter(
		"arb_evaluations_total",
		metric.WithDescription("Evaluation cycles started"),
		metric.WithUnit("{cycle}"),
	); err != nil {
		return nil, err
	}

	if m.ticksSkipped, err = meter.Int64Counter(
		"arb_ticks_skipped_total",
		metric.WithDescription("Ticks that did not start an evaluation, by reason"),
		metric.WithUnit("{tick}"),
	); err != nil {
		return nil, err
	}

	if m.opportunities, err = meter.Int64Counter(
		"arb_opportunities_total",
		metric.WithDescription("Create execution actions queued"),
		metric.WithUnit("{action}"),
	); err != nil {
		return nil, err
	}

	if m.evalErrors, err = meter.Int64Counter(
		"arb_evaluation_errors_total",
		metric.WithDescription("Evaluation cycles that failed or panicked"),
		metric.WithUnit("{error}"),
	); err != nil {
		return nil, err
	}

	if m.sizesEvaluated, err = meter.Int64Histogram(
		"arb_sizes_evaluated",
		metric.WithDescription("Trade sizes priced per scan"),
		metric.WithUnit("{size}"),
		metric.WithExplicitBucketBoundaries(1, 5, 10, 25, 50, 100, 250),
	); err != nil {
		return nil, err
	}

	if m.bestProfitPct, err = meter.Float64Histogram(
		"arb_max_seen_profit_pct",
		metric.WithDescription("Best CEX-buy profit seen per scan, in percent"),
		metric.WithUnit("%"),
		metric.WithExplicitBucketBoundaries(-5, -1, -0.5, -0.1, 0, 0.1, 0.25, 0.5, 1, 2, 5),
	); err != nil {
		return nil, err
	}

	if m.evalDuration, err = meter.Float64Histogram(
		"arb_evaluation_duration_ms",
		metric.WithDescription("Wall time of one evaluation cycle"),
		metric.WithUnit("ms"),
		metric.WithExplicitBucketBoundaries(10, 50, 100, 250, 500, 1000, 2500, 5000, 10000),
	); err != nil {
		return nil, err
	}

	return m, nil
}
