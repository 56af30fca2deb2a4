// Package config provides configuration loading and validation.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"reflect"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	arbdomain "github.com/fd1az/dynamic-arb/business/arbitrage/domain"
	pricing "github.com/fd1az/dynamic-arb/business/pricing/domain"
	"github.com/fd1az/dynamic-arb/internal/asset"
)

// Config holds all application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Ethereum  EthereumConfig  `mapstructure:"ethereum"`
	Binance   BinanceConfig   `mapstructure:"binance"`
	Uniswap   UniswapConfig   `mapstructure:"uniswap"`
	Arbitrage ArbitrageConfig `mapstructure:"arbitrage"`
	Execution ExecutionConfig `mapstructure:"execution"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Health    HealthConfig    `mapstructure:"health"`
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level"`
	TUIMode     bool   `mapstructure:"-"` // Set at runtime, not from config file
}

// EthereumConfig holds Ethereum node configuration.
type EthereumConfig struct {
	HTTPURL string            `mapstructure:"http_url"`
	ChainID uint64            `mapstructure:"chain_id"`
	Tokens  []asset.TokenSpec `mapstructure:"tokens"`
	// Wallet whose balances the DEX connector reads. Empty selects paper balances.
	Wallet string    `mapstructure:"wallet"`
	Gas    GasConfig `mapstructure:"gas"`
}

// GasConfig tunes the gas price oracle.
type GasConfig struct {
	RefreshInterval time.Duration   `mapstructure:"refresh_interval"`
	MaxGwei         decimal.Decimal `mapstructure:"max_gwei"` // zero disables the ceiling
}

// WalletAddress returns the configured wallet, or the zero address.
func (c EthereumConfig) WalletAddress() common.Address {
	if c.Wallet == "" {
		return common.Address{}
	}
	return common.HexToAddress(c.Wallet)
}

// BinanceConfig holds Binance REST configuration.
type BinanceConfig struct {
	BaseURL           string                     `mapstructure:"base_url"` // https://api.binance.com or https://api.binance.us
	APIKey            string                     `mapstructure:"api_key"`
	APISecret         string                     `mapstructure:"api_secret"`
	RecvWindow        time.Duration              `mapstructure:"recv_window"`
	RequestsPerMinute int                        `mapstructure:"requests_per_minute"`
	DepthLimit        int                        `mapstructure:"depth_limit"`
	DepthTTL          time.Duration              `mapstructure:"depth_ttl"`
	BalanceTTL        time.Duration              `mapstructure:"balance_ttl"`
	PaperBalances     map[string]decimal.Decimal `mapstructure:"paper_balances"`
}

// UniswapConfig holds Uniswap V3 settings.
type UniswapConfig struct {
	QuoterAddress string                     `mapstructure:"quoter_address"`
	FeeTier       uint32                     `mapstructure:"fee_tier"`
	SwapGasUnits  uint64                     `mapstructure:"swap_gas_units"`
	BalanceTTL    time.Duration              `mapstructure:"balance_ttl"`
	PaperBalances map[string]decimal.Decimal `mapstructure:"paper_balances"`
}

// QuoterAddressHex returns the quoter address as common.Address.
func (c UniswapConfig) QuoterAddressHex() common.Address {
	return common.HexToAddress(c.QuoterAddress)
}

// MarketConfig names a connector and the pair traded on it.
type MarketConfig struct {
	Connector string `mapstructure:"connector"`
	Pair      string `mapstructure:"pair"`
}

// ArbitrageConfig holds the strategy parameters.
type ArbitrageConfig struct {
	CEX MarketConfig `mapstructure:"cex"`
	DEX MarketConfig `mapstructure:"dex"`

	MinProfitability decimal.Decimal `mapstructure:"min_profitability"`
	SizeIncrement    decimal.Decimal `mapstructure:"size_increment"`
	MaxOrderAmount   decimal.Decimal `mapstructure:"max_order_amount"`
	MaxCEXNotional   decimal.Decimal `mapstructure:"max_cex_notional"`

	CEXFee decimal.Decimal `mapstructure:"cex_fee"`
	DEXFee decimal.Decimal `mapstructure:"dex_fee"`

	GasToken            string          `mapstructure:"gas_token"`
	GasTokenPriceQuote  decimal.Decimal `mapstructure:"gas_token_price_quote"`
	QuoteConversionRate decimal.Decimal `mapstructure:"quote_conversion_rate"`

	MaxConcurrentExecutors   int           `mapstructure:"max_concurrent_executors"`
	NoOpportunityLogInterval time.Duration `mapstructure:"no_opportunity_log_interval"`
	TickInterval             time.Duration `mapstructure:"tick_interval"`
}

// StrategyConfig maps the section onto the strategy's domain config. Business
// rules are checked by StrategyConfig.Validate.
func (c ArbitrageConfig) StrategyConfig() (arbdomain.StrategyConfig, error) {
	cexPair, err := pricing.ParsePair(c.CEX.Pair)
	if err != nil {
		return arbdomain.StrategyConfig{}, fmt.Errorf("arbitrage.cex.pair: %w", err)
	}
	dexPair, err := pricing.ParsePair(c.DEX.Pair)
	if err != nil {
		return arbdomain.StrategyConfig{}, fmt.Errorf("arbitrage.dex.pair: %w", err)
	}

	return arbdomain.StrategyConfig{
		CEXConnector:             c.CEX.Connector,
		CEXPair:                  cexPair,
		DEXConnector:             c.DEX.Connector,
		DEXPair:                  dexPair,
		MinProfitability:         c.MinProfitability,
		SizeIncrement:            c.SizeIncrement,
		MaxOrderAmount:           c.MaxOrderAmount,
		MaxCEXNotional:           c.MaxCEXNotional,
		CEXFee:                   c.CEXFee,
		DEXFee:                   c.DEXFee,
		GasToken:                 strings.ToUpper(c.GasToken),
		GasTokenPriceQuote:       c.GasTokenPriceQuote,
		QuoteConversionRate:      c.QuoteConversionRate,
		MaxConcurrentExecutors:   c.MaxConcurrentExecutors,
		NoOpportunityLogInterval: c.NoOpportunityLogInterval,
	}, nil
}

// ExecutionConfig configures the execution handoff.
type ExecutionConfig struct {
	// Journal is "memory" or "sqlite".
	Journal    string        `mapstructure:"journal"`
	SQLitePath string        `mapstructure:"sqlite_path"`
	PaperHold  time.Duration `mapstructure:"paper_hold"`
	Redis      RedisConfig   `mapstructure:"redis"`
}

// RedisConfig configures the execution bus. An empty Addr keeps executions
// in process.
type RedisConfig struct {
	Addr              string `mapstructure:"addr"`
	Password          string `mapstructure:"password"`
	DB                int    `mapstructure:"db"`
	ActionsStream     string `mapstructure:"actions_stream"`
	CompletionChannel string `mapstructure:"completion_channel"`
}

// TelemetryConfig holds observability configuration.
type TelemetryConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	ServiceName    string `mapstructure:"service_name"`
	Exporter       string `mapstructure:"exporter"` // otlp, otlphttp, zipkin, stdout, none
	OTLPEndpoint   string `mapstructure:"otlp_endpoint"`
	OTLPHeaders    string `mapstructure:"otlp_headers"`
	Insecure       bool   `mapstructure:"insecure"`
	ZipkinEndpoint string `mapstructure:"zipkin_endpoint"`
	PrometheusPort int    `mapstructure:"prometheus_port"`
}

// TraceEndpoint returns the endpoint of the configured exporter.
func (c TelemetryConfig) TraceEndpoint() string {
	if c.Exporter == "zipkin" {
		return c.ZipkinEndpoint
	}
	return c.OTLPEndpoint
}

// HealthConfig configures the health server.
type HealthConfig struct {
	Port int `mapstructure:"port"`
	// MaxTickAge marks the service unready when the scheduler stalls.
	MaxTickAge time.Duration `mapstructure:"max_tick_age"`
}

// LoadEnvFiles loads .env style files into the process environment. Missing
// files are ignored.
func LoadEnvFiles(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// Load loads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Environment variables
	v.SetEnvPrefix("ARB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bindEnvVars(v)
	setDefaults(v)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(decodeHook())); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func decodeHook() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		decimalHook(),
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)
}

// decimalHook decodes strings and numbers into decimal.Decimal. Strings keep
// their exact digits, so configuration should quote fractional values.
func decimalHook() mapstructure.DecodeHookFuncType {
	decType := reflect.TypeOf(decimal.Decimal{})
	return func(_ reflect.Type, to reflect.Type, data any) (any, error) {
		if to != decType {
			return data, nil
		}
		switch v := data.(type) {
		case string:
			return decimal.NewFromString(strings.TrimSpace(v))
		case float64:
			return decimal.NewFromFloat(v), nil
		case float32:
			return decimal.NewFromFloat32(v), nil
		case int:
			return decimal.NewFromInt(int64(v)), nil
		case int64:
			return decimal.NewFromInt(v), nil
		case uint64:
			return decimal.NewFromUint64(v), nil
		case decimal.Decimal:
			return v, nil
		default:
			return data, nil
		}
	}
}

func bindEnvVars(v *viper.Viper) {
	// App
	v.BindEnv("app.name", "ARB_APP_NAME", "SERVICE_NAME")
	v.BindEnv("app.environment", "ARB_ENVIRONMENT", "ENVIRONMENT")
	v.BindEnv("app.log_level", "ARB_LOG_LEVEL", "LOG_LEVEL")

	// Ethereum
	v.BindEnv("ethereum.http_url", "ARB_ETH_HTTP_URL", "ETH_HTTP_URL")
	v.BindEnv("ethereum.chain_id", "ARB_ETH_CHAIN_ID", "ETH_CHAIN_ID")
	v.BindEnv("ethereum.wallet", "ARB_ETH_WALLET", "ETH_WALLET")

	// Binance
	v.BindEnv("binance.base_url", "ARB_BINANCE_BASE_URL", "BINANCE_BASE_URL")
	v.BindEnv("binance.api_key", "ARB_BINANCE_API_KEY", "BINANCE_API_KEY")
	v.BindEnv("binance.api_secret", "ARB_BINANCE_API_SECRET", "BINANCE_API_SECRET")

	// Uniswap
	v.BindEnv("uniswap.quoter_address", "ARB_UNISWAP_QUOTER", "UNISWAP_QUOTER")

	// Execution
	v.BindEnv("execution.redis.addr", "ARB_REDIS_ADDR", "REDIS_ADDR")
	v.BindEnv("execution.redis.password", "ARB_REDIS_PASSWORD", "REDIS_PASSWORD")

	// Telemetry
	v.BindEnv("telemetry.enabled", "ARB_OTEL_ENABLED", "OTEL_ENABLED")
	v.BindEnv("telemetry.service_name", "ARB_OTEL_SERVICE_NAME", "OTEL_SERVICE_NAME")
	v.BindEnv("telemetry.otlp_endpoint", "ARB_OTEL_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT")
	v.BindEnv("telemetry.otlp_headers", "ARB_OTEL_HEADERS", "OTEL_EXPORTER_OTLP_HEADERS")
}

func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "dynamic-arb")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	// Ethereum defaults
	v.SetDefault("ethereum.chain_id", asset.ChainIDEthereum)
	v.SetDefault("ethereum.gas.refresh_interval", "12s")
	v.SetDefault("ethereum.gas.max_gwei", "500")
	v.SetDefault("ethereum.tokens", []map[string]any{
		{"symbol": "VIRTUAL", "address": "0x44ff8620b8cA30902395A7bD3F2407e1A091BF73", "decimals": 18},
	})

	// Binance defaults
	v.SetDefault("binance.base_url", "https://api.binance.com")
	v.SetDefault("binance.recv_window", "5s")
	v.SetDefault("binance.requests_per_minute", 1200)
	v.SetDefault("binance.depth_limit", 100)
	v.SetDefault("binance.depth_ttl", "1s")
	v.SetDefault("binance.balance_ttl", "5s")
	v.SetDefault("binance.paper_balances", map[string]any{"USDT": "10000", "VIRTUAL": "0"})

	// Uniswap V3 Mainnet defaults
	v.SetDefault("uniswap.quoter_address", "0x61fFE014bA17989E743c5F6cB21bF9697530B21e")
	v.SetDefault("uniswap.fee_tier", 3000) // 0.3%
	v.SetDefault("uniswap.swap_gas_units", 180000)
	v.SetDefault("uniswap.balance_ttl", "12s")
	v.SetDefault("uniswap.paper_balances", map[string]any{"VIRTUAL": "1000", "USDC": "0", "ETH": "1"})

	// Arbitrage defaults
	v.SetDefault("arbitrage.cex.connector", "binance")
	v.SetDefault("arbitrage.cex.pair", "VIRTUAL-USDT")
	v.SetDefault("arbitrage.dex.connector", "uniswap")
	v.SetDefault("arbitrage.dex.pair", "VIRTUAL-USDC")
	v.SetDefault("arbitrage.min_profitability", "0.001")
	v.SetDefault("arbitrage.size_increment", "1")
	v.SetDefault("arbitrage.max_order_amount", "100")
	v.SetDefault("arbitrage.max_cex_notional", "1000")
	v.SetDefault("arbitrage.cex_fee", "0.001")
	v.SetDefault("arbitrage.dex_fee", "0.0005")
	v.SetDefault("arbitrage.gas_token", "ETH")
	v.SetDefault("arbitrage.gas_token_price_quote", "2500")
	v.SetDefault("arbitrage.quote_conversion_rate", "1")
	v.SetDefault("arbitrage.max_concurrent_executors", 1)
	v.SetDefault("arbitrage.no_opportunity_log_interval", "30s")
	v.SetDefault("arbitrage.tick_interval", "1s")

	// Execution defaults
	v.SetDefault("execution.journal", "memory")
	v.SetDefault("execution.sqlite_path", "executions.db")
	v.SetDefault("execution.paper_hold", "10s")
	v.SetDefault("execution.redis.actions_stream", "arb:actions")
	v.SetDefault("execution.redis.completion_channel", "arb:executions:done")

	// Telemetry defaults
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", "dynamic-arb")
	v.SetDefault("telemetry.exporter", "otlp")
	v.SetDefault("telemetry.zipkin_endpoint", "http://localhost:9411/api/v2/spans")
	v.SetDefault("telemetry.prometheus_port", 9090)

	// Health defaults
	v.SetDefault("health.port", 8080)
	v.SetDefault("health.max_tick_age", "30s")
}

// normalize restores the symbol case viper drops from map keys.
func (c *Config) normalize() {
	c.Binance.PaperBalances = upperKeys(c.Binance.PaperBalances)
	c.Uniswap.PaperBalances = upperKeys(c.Uniswap.PaperBalances)
	for i := range c.Ethereum.Tokens {
		c.Ethereum.Tokens[i].Symbol = strings.ToUpper(c.Ethereum.Tokens[i].Symbol)
	}
}

func upperKeys(m map[string]decimal.Decimal) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(m))
	for k, v := range m {
		out[strings.ToUpper(k)] = v
	}
	return out
}

// Validate checks infrastructure settings. Strategy rules are validated by
// the arbitrage domain.
func (c *Config) Validate() error {
	if c.Ethereum.HTTPURL == "" {
		return fmt.Errorf("ethereum.http_url is required")
	}
	if c.Ethereum.Gas.MaxGwei.IsNegative() {
		return fmt.Errorf("ethereum.gas.max_gwei must not be negative")
	}
	if c.Ethereum.Wallet != "" && !common.IsHexAddress(c.Ethereum.Wallet) {
		return fmt.Errorf("invalid ethereum.wallet: %s", c.Ethereum.Wallet)
	}
	for _, t := range c.Ethereum.Tokens {
		if !common.IsHexAddress(t.Address) {
			return fmt.Errorf("invalid address for token %s: %s", t.Symbol, t.Address)
		}
	}
	if !common.IsHexAddress(c.Uniswap.QuoterAddress) {
		return fmt.Errorf("invalid uniswap.quoter_address: %s", c.Uniswap.QuoterAddress)
	}
	if (c.Binance.APIKey == "") != (c.Binance.APISecret == "") {
		return fmt.Errorf("binance.api_key and binance.api_secret must be set together")
	}
	switch c.Execution.Journal {
	case "memory":
	case "sqlite":
		if c.Execution.SQLitePath == "" {
			return fmt.Errorf("execution.sqlite_path is required for the sqlite journal")
		}
	default:
		return fmt.Errorf("unknown execution.journal %q", c.Execution.Journal)
	}
	if c.Arbitrage.TickInterval <= 0 {
		return fmt.Errorf("arbitrage.tick_interval must be positive")
	}
	return nil
}
