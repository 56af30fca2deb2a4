// Package httpclient provides the instrumented HTTP client used by the REST
// venue connectors. Every request is traced, counted and timed per provider
// and endpoint.
package httpclient

import (
	"net/http"
	"time"

	"go.opentelemetry.io/otel/trace"
)

type clientOptions struct {
	client        *http.Client
	provider      string
	timeout       time.Duration
	headers       map[string]string
	baseURL       string
	traceResponse bool
	tracer        trace.Tracer
}

// ClientOption configures an InstrumentedClient.
type ClientOption func(*clientOptions)

// WithHTTPClient uses c instead of a pooled default client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(o *clientOptions) {
		o.client = c
	}
}

// WithProviderName labels metrics and spans, e.g. "binance".
func WithProviderName(name string) ClientOption {
	return func(o *clientOptions) {
		o.provider = name
	}
}

func WithTimeout(timeout time.Duration) ClientOption {
	return func(o *clientOptions) {
		o.timeout = timeout
	}
}

// WithHeaders sets headers sent with every request.
func WithHeaders(headers map[string]string) ClientOption {
	return func(o *clientOptions) {
		o.headers = headers
	}
}

func WithBaseURL(url string) ClientOption {
	return func(o *clientOptions) {
		o.baseURL = url
	}
}

// WithTracer starts request spans on tracer instead of the global one.
func WithTracer(tracer trace.Tracer) ClientOption {
	return func(o *clientOptions) {
		o.tracer = tracer
	}
}

// WithResponseTracing attaches response bodies to request spans.
func WithResponseTracing() ClientOption {
	return func(o *clientOptions) {
		o.traceResponse = true
	}
}

type requestOptions struct {
	endpoint     string
	errorHandler ResponseErrorHandler
	traceHeaders bool
	redacted     map[string]bool
}

// RequestOption configures a single request.
type RequestOption func(*requestOptions)

// ResponseErrorHandler maps a response to an error. It runs for every
// response, successful or not.
type ResponseErrorHandler func(statusCode int, body []byte) error

// WithEndpoint names the endpoint in metrics, e.g. "depth".
func WithEndpoint(name string) RequestOption {
	return func(o *requestOptions) {
		o.endpoint = name
	}
}

func WithErrorHandler(handler ResponseErrorHandler) RequestOption {
	return func(o *requestOptions) {
		o.errorHandler = handler
	}
}

// WithHeaderTracing attaches request headers to the span, masking the named
// ones.
func WithHeaderTracing(redact ...string) RequestOption {
	return func(o *requestOptions) {
		o.traceHeaders = true
		o.redacted = make(map[string]bool, len(redact))
		for _, h := range redact {
			o.redacted[http.CanonicalHeaderKey(h)] = true
		}
	}
}
