package metrics

import "time"

// ExporterKind names a meter reader backend.
type ExporterKind string

const (
	ExportPrometheus ExporterKind = "prometheus"
	ExportOTLP       ExporterKind = "otlp"
)

// Exporter is one destination for meter readings.
type Exporter struct {
	Kind     ExporterKind
	Endpoint string
	Headers  map[string]string
	Insecure bool
}

// Prometheus exposes readings through the scrape registry.
func Prometheus() Exporter {
	return Exporter{Kind: ExportPrometheus}
}

// OTLP pushes readings to a collector over gRPC.
func OTLP(endpoint string, headers map[string]string, insecure bool) Exporter {
	return Exporter{Kind: ExportOTLP, Endpoint: endpoint, Headers: headers, Insecure: insecure}
}

// Config describes the meter provider.
type Config struct {
	ServiceName    string
	Exporters      []Exporter
	ExportInterval time.Duration // OTLP push period; zero keeps the SDK default
}

type Option func(*Config)

func WithExporter(e Exporter) Option {
	return func(c *Config) { c.Exporters = append(c.Exporters, e) }
}

func WithServiceName(name string) Option {
	return func(c *Config) { c.ServiceName = name }
}

func WithExportInterval(d time.Duration) Option {
	return func(c *Config) { c.ExportInterval = d }
}

type serverConfig struct {
	port           string
	runtimeMetrics bool
}

// ServerOption configures the scrape server.
type ServerOption func(*serverConfig)

func WithPort(port string) ServerOption {
	return func(c *serverConfig) { c.port = port }
}

// WithRuntimeMetrics adds the Go runtime and process collectors to the registry.
func WithRuntimeMetrics() ServerOption {
	return func(c *serverConfig) { c.runtimeMetrics = true }
}
