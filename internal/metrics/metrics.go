// Package metrics installs the global OpenTelemetry meter provider and serves
// the Prometheus scrape endpoint.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.10.0"

	"github.com/fd1az/dynamic-arb/internal/logger"
)

const defaultPromPort = "2223"

// MetricProvider is the installed meter provider.
type MetricProvider interface {
	Meter(name string, options ...metric.MeterOption) metric.Meter
	Shutdown(ctx context.Context) error
}

func newReader(ctx context.Context, e Exporter, interval time.Duration, registry *prometheus.Registry) (sdkmetric.Reader, error) {
	switch e.Kind {
	case ExportPrometheus:
		return otelprom.New(otelprom.WithRegisterer(registry))
	case ExportOTLP:
		opts := []otlpmetricgrpc.Option{
			otlpmetricgrpc.WithEndpointURL(e.Endpoint),
			otlpmetricgrpc.WithHeaders(e.Headers),
		}
		if e.Insecure {
			opts = append(opts, otlpmetricgrpc.WithInsecure())
		}
		exp, err := otlpmetricgrpc.New(ctx, opts...)
		if err != nil {
			return nil, err
		}
		var periodic []sdkmetric.PeriodicReaderOption
		if interval > 0 {
			periodic = append(periodic, sdkmetric.WithInterval(interval))
		}
		return sdkmetric.NewPeriodicReader(exp, periodic...), nil
	default:
		return nil, fmt.Errorf("unknown exporter %q", e.Kind)
	}
}

// NewMetricProvider builds the meter provider and installs it globally.
// Prometheus collectors are registered on registry.
func NewMetricProvider(registry *prometheus.Registry, opts ...Option) (MetricProvider, error) {
	var cfg Config
	for _, opt := range opts {
		opt(&cfg)
	}

	providerOpts := []sdkmetric.Option{
		sdkmetric.WithResource(resource.NewSchemaless(semconv.ServiceNameKey.String(cfg.ServiceName))),
	}
	for _, e := range cfg.Exporters {
		reader, err := newReader(context.Background(), e, cfg.ExportInterval, registry)
		if err != nil {
			return nil, fmt.Errorf("metrics: %s exporter: %w", e.Kind, err)
		}
		providerOpts = append(providerOpts, sdkmetric.WithReader(reader))
	}

	mp := sdkmetric.NewMeterProvider(providerOpts...)
	otel.SetMeterProvider(mp)
	return mp, nil
}

// Server serves /metrics from a Prometheus registry.
type Server struct {
	server *http.Server
	logger logger.LoggerInterface
}

// NewServer creates a scrape server for registry.
func NewServer(registry *prometheus.Registry, log logger.LoggerInterface, opts ...ServerOption) *Server {
	cfg := serverConfig{port: defaultPromPort}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.runtimeMetrics {
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}))

	return &Server{
		server: &http.Server{
			Addr:              ":" + cfg.port,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: log,
	}
}

// Handler returns the scrape handler.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Run serves until ctx is cancelled, then shuts down.
func (s *Server) Run(ctx context.Context) error {
	errc := make(chan error, 1)
	go func() {
		s.logger.Info(ctx, "serving metrics", "addr", s.server.Addr, "path", "/metrics")
		errc <- s.server.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("metrics server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.server.Shutdown(shutdownCtx)
	}
}
