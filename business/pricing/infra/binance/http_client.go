package binance

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/dynamic-arb/internal/apperror"
	"github.com/fd1az/dynamic-arb/internal/httpclient"
	"github.com/fd1az/dynamic-arb/internal/logger"
	"github.com/fd1az/dynamic-arb/internal/ratelimit"
)

const (
	tracerName = "github.com/fd1az/dynamic-arb/business/pricing/infra/binance"

	BaseAPIURL   = "https://api.binance.com"
	BaseAPIURLUS = "https://api.binance.us"

	depthEndpoint        = "/api/v3/depth"
	exchangeInfoEndpoint = "/api/v3/exchangeInfo"
	accountEndpoint      = "/api/v3/account"

	apiKeyHeader = "X-MBX-APIKEY"

	httpTimeout = 10 * time.Second
)

var validDepthLimits = map[int]bool{5: true, 10: true, 20: true, 50: true, 100: true, 500: true, 1000: true, 5000: true}

// Request weights charged against the per-minute budget.
const (
	weightExchangeInfo = 20
	weightAccount      = 20
)

func depthWeight(limit int) int {
	switch {
	case limit <= 100:
		return 5
	case limit <= 500:
		return 25
	case limit <= 1000:
		return 50
	default:
		return 250
	}
}

// HTTPClientConfig holds configuration for the Binance HTTP client.
type HTTPClientConfig struct {
	BaseURL    string
	APIKey     string
	APISecret  string
	RecvWindow time.Duration
	Timeout    time.Duration
	// RequestsPerMinute is the request weight budget, not a request count.
	RequestsPerMinute int
}

// DefaultHTTPClientConfig returns sensible defaults.
func DefaultHTTPClientConfig() HTTPClientConfig {
	return HTTPClientConfig{
		BaseURL:           BaseAPIURL,
		RecvWindow:        5 * time.Second,
		Timeout:           httpTimeout,
		RequestsPerMinute: 1200,
	}
}

// HTTPClient provides rate-limited Binance REST API access.
type HTTPClient struct {
	client  httpclient.Client
	config  HTTPClientConfig
	limiter *ratelimit.Limiter
	logger  logger.LoggerInterface
	tracer  trace.Tracer
	now     func() time.Time
}

// NewHTTPClient creates a new Binance HTTP client.
func NewHTTPClient(cfg HTTPClientConfig, log logger.LoggerInterface) (*HTTPClient, error) {
	def := DefaultHTTPClientConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.BaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = def.RequestsPerMinute
	}

	tracer := otel.Tracer(tracerName)

	client, err := httpclient.New(
		httpclient.WithProviderName(ConnectorName),
		httpclient.WithBaseURL(cfg.BaseURL),
		httpclient.WithTimeout(cfg.Timeout),
		httpclient.WithTracer(tracer),
		httpclient.WithResponseTracing(),
		httpclient.WithHeaders(map[string]string{
			"Accept": "application/json",
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}

	return &HTTPClient{
		client:  client,
		config:  cfg,
		limiter: ratelimit.New(cfg.RequestsPerMinute),
		logger:  log,
		tracer:  tracer,
		now:     time.Now,
	}, nil
}

// HasCredentials reports whether signed endpoints can be called.
func (c *HTTPClient) HasCredentials() bool {
	return c.config.APIKey != "" && c.config.APISecret != ""
}

// GetDepth fetches the orderbook depth for a symbol.
func (c *HTTPClient) GetDepth(ctx context.Context, symbol string, limit int) (*DepthResponse, error) {
	ctx, span := c.tracer.Start(ctx, "binance.http.get_depth",
		trace.WithAttributes(
			attribute.String("symbol", symbol),
			attribute.Int("limit", limit),
		),
	)
	defer span.End()

	if !validDepthLimits[limit] {
		limit = 100
	}

	if err := c.limiter.WaitN(ctx, depthWeight(limit)); err != nil {
		return nil, err
	}

	var result DepthResponse
	_, err := c.client.NewRequest(
		httpclient.WithEndpoint("depth"),
		httpclient.WithErrorHandler(binanceErrorHandler),
	).
		SetQueryParam("symbol", symbol).
		SetQueryParam("limit", strconv.Itoa(limit)).
		SetResult(&result).
		Get(ctx, depthEndpoint)
	if err != nil {
		span.RecordError(err)
		return nil, classify(err, apperror.CodeOrderbookFetchFailed, "depth "+symbol)
	}

	span.SetAttributes(
		attribute.Int("bids", len(result.Bids)),
		attribute.Int("asks", len(result.Asks)),
	)
	c.logger.Debug(ctx, "fetched depth", "symbol", symbol, "bids", len(result.Bids), "asks", len(result.Asks))

	return &result, nil
}

// GetSymbolInfo fetches the trading rules of one symbol.
func (c *HTTPClient) GetSymbolInfo(ctx context.Context, symbol string) (*SymbolInfo, error) {
	ctx, span := c.tracer.Start(ctx, "binance.http.get_exchange_info",
		trace.WithAttributes(attribute.String("symbol", symbol)),
	)
	defer span.End()

	if err := c.limiter.WaitN(ctx, weightExchangeInfo); err != nil {
		return nil, err
	}

	var result ExchangeInfoResponse
	_, err := c.client.NewRequest(
		httpclient.WithEndpoint("exchange_info"),
		httpclient.WithErrorHandler(binanceErrorHandler),
	).
		SetQueryParam("symbol", symbol).
		SetResult(&result).
		Get(ctx, exchangeInfoEndpoint)
	if err != nil {
		span.RecordError(err)
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Code == -1121 {
			return nil, apperror.New(apperror.CodeSymbolNotListed, apperror.WithCause(err), apperror.WithContext(symbol))
		}
		return nil, classify(err, apperror.CodeBinanceAPIError, "exchange info "+symbol)
	}

	for i := range result.Symbols {
		if result.Symbols[i].Symbol == symbol {
			return &result.Symbols[i], nil
		}
	}
	return nil, apperror.New(apperror.CodeSymbolNotListed, apperror.WithContext(symbol))
}

// GetAccount fetches spot balances. Requires credentials.
func (c *HTTPClient) GetAccount(ctx context.Context) (*AccountResponse, error) {
	ctx, span := c.tracer.Start(ctx, "binance.http.get_account")
	defer span.End()

	if !c.HasCredentials() {
		return nil, apperror.New(apperror.CodeConfigurationError,
			apperror.WithContext("binance api key and secret are required for account access"))
	}

	if err := c.limiter.WaitN(ctx, weightAccount); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("omitZeroBalances", "true")

	var result AccountResponse
	_, err := c.client.NewRequest(
		httpclient.WithEndpoint("account"),
		httpclient.WithErrorHandler(binanceErrorHandler),
		httpclient.WithHeaderTracing(apiKeyHeader),
	).
		SetHeader(apiKeyHeader, c.config.APIKey).
		SetRawQuery(c.sign(params)).
		SetResult(&result).
		Get(ctx, accountEndpoint)
	if err != nil {
		span.RecordError(err)
		return nil, classify(err, apperror.CodeBalanceUnavailable, "account")
	}

	span.SetAttributes(attribute.Int("balances", len(result.Balances)))
	return &result, nil
}

// sign adds timestamp and recvWindow to params and appends the HMAC-SHA256
// signature of the encoded query.
func (c *HTTPClient) sign(params url.Values) string {
	params.Set("timestamp", strconv.FormatInt(c.now().UnixMilli(), 10))
	if c.config.RecvWindow > 0 {
		params.Set("recvWindow", strconv.FormatInt(c.config.RecvWindow.Milliseconds(), 10))
	}
	query := params.Encode()

	mac := hmac.New(sha256.New, []byte(c.config.APISecret))
	mac.Write([]byte(query))
	return query + "&signature=" + hex.EncodeToString(mac.Sum(nil))
}

// rateLimitedError marks 418/429 responses.
type rateLimitedError struct {
	status int
	err    error
}

func (e *rateLimitedError) Error() string { return fmt.Sprintf("HTTP %d: %v", e.status, e.err) }
func (e *rateLimitedError) Unwrap() error { return e.err }

// binanceErrorHandler parses Binance API error responses.
func binanceErrorHandler(statusCode int, body []byte) error {
	if statusCode < 400 {
		return nil
	}

	var err error
	var apiErr APIError
	if jerr := json.Unmarshal(body, &apiErr); jerr == nil && apiErr.Code != 0 {
		err = &apiErr
	} else {
		err = fmt.Errorf("HTTP %d: %s", statusCode, string(body))
	}

	if statusCode == http.StatusTooManyRequests || statusCode == http.StatusTeapot {
		return &rateLimitedError{status: statusCode, err: err}
	}
	return err
}

func classify(err error, code apperror.Code, what string) error {
	var rl *rateLimitedError
	if errors.As(err, &rl) {
		code = apperror.CodeBinanceRateLimited
	}
	return apperror.New(code, apperror.WithCause(err), apperror.WithContext(what))
}
