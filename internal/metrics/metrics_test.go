package metrics

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/metric"

	"github.com/fd1az/dynamic-arb/internal/logger"
)

func TestServer_ExposesOtelInstruments(t *testing.T) {
	registry := prometheus.NewRegistry()
	mp, err := NewMetricProvider(registry,
		WithServiceName("test"),
		WithExporter(Prometheus()),
	)
	if err != nil {
		t.Fatalf("provider: %v", err)
	}
	defer mp.Shutdown(context.Background())

	counter, err := mp.Meter("test").Int64Counter("arb_test_events_total", metric.WithDescription("events"))
	if err != nil {
		t.Fatal(err)
	}
	counter.Add(context.Background(), 3)

	srv := httptest.NewServer(NewServer(registry, logger.NewNop(), WithPort("0")).Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	if !strings.Contains(string(body), "arb_test_events_total") {
		t.Errorf("metric missing from scrape:\n%s", body)
	}
}

func TestServer_RuntimeMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	srv := httptest.NewServer(NewServer(registry, logger.NewNop(), WithRuntimeMetrics()).Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	if !strings.Contains(string(body), "go_goroutines") {
		t.Error("runtime collector missing from scrape")
	}
}

func TestNewMetricProvider_UnknownExporter(t *testing.T) {
	_, err := NewMetricProvider(prometheus.NewRegistry(), WithExporter(Exporter{Kind: "statsd"}))
	if err == nil || !strings.Contains(err.Error(), "statsd") {
		t.Fatalf("err = %v", err)
	}
}

func TestServer_RunStopsOnCancel(t *testing.T) {
	s := NewServer(prometheus.NewRegistry(), logger.NewNop(), WithPort("0"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := s.Run(ctx); err != nil {
		t.Fatalf("run: %v", err)
	}
}
