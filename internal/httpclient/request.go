package httpclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Request builds and sends one GET request.
type Request interface {
	SetHeader(key, value string) Request
	SetQueryParam(key, value string) Request

	// SetRawQuery appends an already encoded query string verbatim, after any
	// params set with SetQueryParam. Signed APIs need the exact bytes they signed.
	SetRawQuery(query string) Request

	// SetResult decodes a successful JSON body into result.
	SetResult(result any) Request

	Get(ctx context.Context, path string) (*Response, error)
}

// Response wraps http.Response with the body already read.
type Response struct {
	*http.Response
	body []byte
}

func (r *Response) Body() []byte {
	return r.body
}

func (r *Response) String() string {
	return string(r.body)
}

// IsError reports a status of 400 or above.
func (r *Response) IsError() bool {
	return r.StatusCode >= 400
}

type request struct {
	client   *InstrumentedClient
	opts     requestOptions
	headers  http.Header
	query    url.Values
	rawQuery string
	result   any
}

func (r *request) SetHeader(key, value string) Request {
	r.headers.Set(key, value)
	return r
}

func (r *request) SetQueryParam(key, value string) Request {
	if r.query == nil {
		r.query = make(url.Values)
	}
	r.query.Set(key, value)
	return r
}

func (r *request) SetRawQuery(query string) Request {
	r.rawQuery = query
	return r
}

func (r *request) SetResult(result any) Request {
	r.result = result
	return r
}

func (r *request) Get(ctx context.Context, path string) (*Response, error) {
	c := r.client
	ctx, span := c.tracer.Start(ctx, "http.get",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.path", path),
			attribute.String("provider", c.provider),
			attribute.String("endpoint", r.opts.endpoint),
		),
	)
	defer span.End()

	start := time.Now()
	resp, err := r.do(ctx, span, path)
	r.record(ctx, start, resp, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return resp, err
	}
	return resp, nil
}

func (r *request) do(ctx context.Context, span trace.Span, path string) (*Response, error) {
	c := r.client

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.url(path), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header = r.headers.Clone()
	if r.opts.traceHeaders {
		r.traceHeaders(span, req.Header)
	}

	httpResp, err := c.client.Do(req)
	if err != nil {
		var netErr net.Error
		if errors.Is(err, context.Canceled) {
			span.SetAttributes(attribute.Bool("context.cancelled", true))
		}
		if errors.As(err, &netErr) && netErr.Timeout() {
			span.SetAttributes(attribute.Bool("request.timeout", true))
		}
		return nil, err
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	span.SetAttributes(attribute.Int("http.status_code", httpResp.StatusCode))
	if c.traceResponse {
		span.AddEvent("response.body", trace.WithAttributes(
			attribute.String("http.response_body", string(body)),
		))
	}

	resp := &Response{Response: httpResp, body: body}

	if h := r.opts.errorHandler; h != nil {
		if err := h(httpResp.StatusCode, body); err != nil {
			return resp, err
		}
	}
	if resp.IsError() {
		return resp, fmt.Errorf("%s %s: %s", c.provider, path, httpResp.Status)
	}

	if r.result != nil && len(body) > 0 {
		if err := json.Unmarshal(body, r.result); err != nil {
			return resp, fmt.Errorf("decode response: %w", err)
		}
	}
	return resp, nil
}

func (r *request) url(path string) string {
	full := path
	if base := r.client.baseURL; base != "" && !strings.HasPrefix(path, "http") {
		full = strings.TrimSuffix(base, "/") + "/" + strings.TrimPrefix(path, "/")
	}

	q := r.query.Encode()
	switch {
	case q != "" && r.rawQuery != "":
		q += "&" + r.rawQuery
	case q == "":
		q = r.rawQuery
	}
	if q == "" {
		return full
	}
	if strings.Contains(full, "?") {
		return full + "&" + q
	}
	return full + "?" + q
}

func (r *request) record(ctx context.Context, start time.Time, resp *Response, err error) {
	attrs := []attribute.KeyValue{
		attribute.String("provider", r.client.provider),
		attribute.String("endpoint", r.opts.endpoint),
		attribute.Bool("success", err == nil),
	}
	if resp != nil {
		attrs = append(attrs, attribute.Int("status", resp.StatusCode))
	}
	set := metric.WithAttributes(attrs...)

	r.client.requests.Add(ctx, 1, set)
	r.client.latency.Record(ctx, float64(time.Since(start).Microseconds())/1000, set)
}

func (r *request) traceHeaders(span trace.Span, headers http.Header) {
	attrs := make([]attribute.KeyValue, 0, len(headers))
	for k, values := range headers {
		v := strings.Join(values, ",")
		if r.opts.redacted[k] {
			v = "*****"
		}
		attrs = append(attrs, attribute.String("http.request.header."+strings.ToLower(k), v))
	}
	if len(attrs) > 0 {
		span.AddEvent("request.headers", trace.WithAttributes(attrs...))
	}
}
