// Package main is the entry point for the CEX-DEX dynamic arbitrage strategy.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/fd1az/dynamic-arb/business/arbitrage"
	arbitrageApp "github.com/fd1az/dynamic-arb/business/arbitrage/app"
	arbitrageDI "github.com/fd1az/dynamic-arb/business/arbitrage/di"
	arbitrageInfra "github.com/fd1az/dynamic-arb/business/arbitrage/infra"
	"github.com/fd1az/dynamic-arb/business/blockchain"
	"github.com/fd1az/dynamic-arb/business/execution"
	executionDI "github.com/fd1az/dynamic-arb/business/execution/di"
	"github.com/fd1az/dynamic-arb/business/pricing"
	pricingDI "github.com/fd1az/dynamic-arb/business/pricing/di"
	"github.com/fd1az/dynamic-arb/internal/apm"
	"github.com/fd1az/dynamic-arb/internal/config"
	"github.com/fd1az/dynamic-arb/internal/di"
	"github.com/fd1az/dynamic-arb/internal/health"
	"github.com/fd1az/dynamic-arb/internal/logger"
	"github.com/fd1az/dynamic-arb/internal/metrics"
	"github.com/fd1az/dynamic-arb/internal/monolith"
	"github.com/fd1az/dynamic-arb/pkg/ui"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	configPath := flag.String("config", "", "Path to configuration file")
	cliMode := flag.Bool("cli", false, "Run in CLI mode with logs (no TUI)")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("dynamic-arb %s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	if err := config.LoadEnvFiles(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// TUI is the default, CLI is for debugging
	if err := run(ctx, *configPath, !*cliMode); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string, tuiMode bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg.App.TUIMode = tuiMode

	// The TUI owns the terminal, so logs are discarded there.
	var out io.Writer = os.Stderr
	if tuiMode {
		out = io.Discard
	}
	log := logger.New(out, logger.ParseLevel(cfg.App.LogLevel), cfg.App.Name, nil)
	log.Info(ctx, "starting dynamic arbitrage",
		"version", version,
		"environment", cfg.App.Environment,
	)

	tel, err := setupTelemetry(cfg, log)
	if err != nil {
		return err
	}
	defer tel.shutdown(log)

	mono, err := monolith.New(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to create monolith: %w", err)
	}
	defer func() {
		if err := mono.Close(); err != nil {
			log.Error(context.Background(), "shutdown", "error", err)
		}
	}()

	// Dependency order: pricing needs the gas source, arbitrage needs pricing
	// and execution.
	modules := []monolith.Module{
		&blockchain.Module{},
		&pricing.Module{},
		&execution.Module{},
		&arbitrage.Module{},
	}
	if err := mono.RegisterModules(modules...); err != nil {
		return fmt.Errorf("failed to register modules: %w", err)
	}

	healthServer := health.NewServer(cfg.Health.Port, version, log)
	mono.Go("health", healthServer.Run)
	if tel.metrics != nil {
		mono.Go("metrics", tel.metrics.Run)
	}

	if !tuiMode {
		return serve(ctx, mono, modules, healthServer, nil)
	}
	return runTUI(ctx, cfg, mono, modules, healthServer)
}

// serve starts the modules and blocks until every worker has stopped.
func serve(ctx context.Context, mono *monolith.App, modules []monolith.Module, hs *health.Server, program *ui.Program) error {
	if err := mono.StartModules(ctx, modules...); err != nil {
		return fmt.Errorf("failed to start modules: %w", err)
	}
	registerHealthChecks(mono, hs)

	if program != nil {
		for name := range pricingDI.GetConnectors(mono.Services()) {
			program.Send(ui.ConnectionStatusMsg{Name: name, Connected: true})
		}
	}

	mono.Logger().Info(ctx, "all modules started")
	err := mono.Run(ctx)
	mono.Logger().Info(context.Background(), "shutting down")
	return err
}

func runTUI(ctx context.Context, cfg *config.Config, mono *monolith.App, modules []monolith.Module, hs *health.Server) error {
	strategyCfg, err := cfg.Arbitrage.StrategyConfig()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	program := ui.NewProgram()
	di.RegisterToken(mono.Container(), arbitrageDI.Reporter, func(di.ServiceRegistry) arbitrageApp.Reporter {
		return arbitrageInfra.NewTUIReporter(program, strategyCfg)
	})

	// Send blocks until the program's event loop is running, so the modules
	// start alongside it rather than before.
	errc := make(chan error, 1)
	go func() {
		err := serve(ctx, mono, modules, hs, program)
		if err != nil && !errors.Is(err, context.Canceled) {
			program.Send(ui.ErrorMsg{Error: err})
		}
		program.Quit()
		errc <- err
	}()

	if err := program.Run(); err != nil {
		cancel()
		<-errc
		return fmt.Errorf("TUI error: %w", err)
	}

	cancel()
	return <-errc
}

func registerHealthChecks(mono *monolith.App, hs *health.Server) {
	cfg := mono.Config()
	sr := mono.Services()

	if pinger, ok := executionDI.GetJournal(sr).(interface{ Ping(context.Context) error }); ok {
		hs.RegisterCheck("journal", health.PingCheck(pinger.Ping))
	}
	if rdb := executionDI.GetRedisClient(sr); rdb != nil {
		hs.RegisterCheck("redis", health.PingCheck(func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}))
	}
	scheduler := arbitrageDI.GetScheduler(sr)
	hs.RegisterCheck("strategy", health.FreshnessCheck(scheduler.LastTick, cfg.Health.MaxTickAge))
}

type telemetry struct {
	traces  apm.TraceProvider
	meters  metrics.MetricProvider
	metrics *metrics.Server
}

func setupTelemetry(cfg *config.Config, log logger.LoggerInterface) (*telemetry, error) {
	if !cfg.Telemetry.Enabled {
		return &telemetry{}, nil
	}
	tc := cfg.Telemetry

	traces, err := apm.NewTraceProvider(apm.Config{
		ServiceName: tc.ServiceName,
		Provider:    apm.Provider(tc.Exporter),
		Endpoint:    tc.TraceEndpoint(),
		Headers:     tc.OTLPHeaders,
		Insecure:    tc.Insecure,
	}, log)
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	opts := []metrics.Option{
		metrics.WithServiceName(tc.ServiceName),
		metrics.WithExporter(metrics.Prometheus()),
	}
	if tc.Exporter == string(apm.OTLPProvider) && tc.OTLPEndpoint != "" {
		opts = append(opts, metrics.WithExporter(
			metrics.OTLP(tc.OTLPEndpoint, apm.ParseHeaders(tc.OTLPHeaders), tc.Insecure)))
	}
	meters, err := metrics.NewMetricProvider(registry, opts...)
	if err != nil {
		_ = traces.Stop()
		return nil, err
	}

	return &telemetry{
		traces:  traces,
		meters:  meters,
		metrics: metrics.NewServer(registry, log,
			metrics.WithPort(strconv.Itoa(tc.PrometheusPort)),
			metrics.WithRuntimeMetrics()),
	}, nil
}

func (t *telemetry) shutdown(log logger.LoggerInterface) {
	ctx := context.Background()
	if t.meters != nil {
		if err := t.meters.Shutdown(ctx); err != nil {
			log.Warn(ctx, "meter provider shutdown", "error", err)
		}
	}
	if t.traces != nil {
		if err := t.traces.Stop(); err != nil {
			log.Warn(ctx, "trace provider shutdown", "error", err)
		}
	}
}
