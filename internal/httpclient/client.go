package httpclient

import (
	"context"
	"net"
	"net/http"
	"net/http/httptrace"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/httptrace/otelhttptrace"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	instrumentationName = "github.com/fd1az/dynamic-arb/internal/httpclient"

	defaultTimeout         = 10 * time.Second
	defaultDialKeepAlive   = 30 * time.Second
	defaultMaxConnsPerHost = 8
	defaultIdleConnTimeout = 90 * time.Second
)

// Client issues requests against one provider.
type Client interface {
	NewRequest(opts ...RequestOption) Request
}

// InstrumentedClient is an http.Client with otelhttp transport, a request
// counter and a latency histogram.
type InstrumentedClient struct {
	client        *http.Client
	provider      string
	baseURL       string
	headers       map[string]string
	traceResponse bool

	tracer   trace.Tracer
	requests metric.Int64Counter
	latency  metric.Float64Histogram
}

var _ Client = (*InstrumentedClient)(nil)

// New creates an InstrumentedClient.
func New(opts ...ClientOption) (*InstrumentedClient, error) {
	o := &clientOptions{provider: "default", timeout: defaultTimeout}
	for _, opt := range opts {
		opt(o)
	}

	httpClient := o.client
	if httpClient == nil {
		httpClient = &http.Client{
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				DialContext: (&net.Dialer{
					KeepAlive: defaultDialKeepAlive,
				}).DialContext,
				MaxConnsPerHost:     defaultMaxConnsPerHost,
				MaxIdleConnsPerHost: defaultMaxConnsPerHost,
				IdleConnTimeout:     defaultIdleConnTimeout,
			},
		}
	}
	httpClient.Timeout = o.timeout

	base := httpClient.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	httpClient.Transport = otelhttp.NewTransport(base,
		otelhttp.WithClientTrace(func(ctx context.Context) *httptrace.ClientTrace {
			return otelhttptrace.NewClientTrace(ctx)
		}),
	)

	tracer := o.tracer
	if tracer == nil {
		tracer = otel.Tracer(instrumentationName)
	}

	meter := otel.Meter(instrumentationName,
		metric.WithInstrumentationAttributes(attribute.String("provider", o.provider)))

	requests, err := meter.Int64Counter("http_client_requests_total",
		metric.WithDescription("HTTP requests by provider, endpoint and outcome"))
	if err != nil {
		return nil, err
	}
	latency, err := meter.Float64Histogram("http_client_request_duration_ms",
		metric.WithDescription("HTTP request latency"),
		metric.WithUnit("ms"))
	if err != nil {
		return nil, err
	}

	headers := make(map[string]string, len(o.headers))
	for k, v := range o.headers {
		headers[k] = v
	}

	return &InstrumentedClient{
		client:        httpClient,
		provider:      o.provider,
		baseURL:       o.baseURL,
		headers:       headers,
		traceResponse: o.traceResponse,
		tracer:        tracer,
		requests:      requests,
		latency:       latency,
	}, nil
}

// NewRequest starts a request carrying the client's default headers.
func (c *InstrumentedClient) NewRequest(opts ...RequestOption) Request {
	o := requestOptions{}
	for _, opt := range opts {
		opt(&o)
	}

	headers := make(http.Header, len(c.headers))
	for k, v := range c.headers {
		headers.Set(k, v)
	}

	return &request{
		client:  c,
		opts:    o,
		headers: headers,
	}
}
