package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fd1az/dynamic-arb/internal/apperror"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_DefaultsAndOverrides(t *testing.T) {
	path := writeFile(t, "config.yaml", `
ethereum:
  http_url: http://localhost:8545
binance:
  paper_balances:
    usdt: "2500.50"
arbitrage:
  min_profitability: "0.004"
  max_order_amount: 250
  no_opportunity_log_interval: 1m
execution:
  journal: sqlite
  sqlite_path: /tmp/arb.db
`)
	t.Setenv("ARB_BINANCE_API_KEY", "")
	t.Setenv("ARB_ARBITRAGE_SIZE_INCREMENT", "2.5")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	decs := []struct {
		name string
		got  decimal.Decimal
		want string
	}{
		{"min_profitability", cfg.Arbitrage.MinProfitability, "0.004"},
		{"max_order_amount", cfg.Arbitrage.MaxOrderAmount, "250"},
		{"size_increment from env", cfg.Arbitrage.SizeIncrement, "2.5"},
		{"cex_fee default", cfg.Arbitrage.CEXFee, "0.001"},
		{"gas price default", cfg.Arbitrage.GasTokenPriceQuote, "2500"},
		{"paper usdt", cfg.Binance.PaperBalances["USDT"], "2500.5"},
		{"gas ceiling default", cfg.Ethereum.Gas.MaxGwei, "500"},
	}
	for _, d := range decs {
		if !d.got.Equal(decimal.RequireFromString(d.want)) {
			t.Errorf("%s = %s, want %s", d.name, d.got, d.want)
		}
	}

	if cfg.Arbitrage.NoOpportunityLogInterval != time.Minute {
		t.Errorf("no_opportunity_log_interval = %s", cfg.Arbitrage.NoOpportunityLogInterval)
	}
	if cfg.Ethereum.Gas.RefreshInterval != 12*time.Second {
		t.Errorf("gas refresh_interval = %s", cfg.Ethereum.Gas.RefreshInterval)
	}
	if cfg.Arbitrage.TickInterval != time.Second {
		t.Errorf("tick_interval = %s", cfg.Arbitrage.TickInterval)
	}
	if cfg.Execution.Journal != "sqlite" || cfg.Execution.Redis.ActionsStream != "arb:actions" {
		t.Errorf("execution = %+v", cfg.Execution)
	}
	if len(cfg.Ethereum.Tokens) != 1 || cfg.Ethereum.Tokens[0].Symbol != "VIRTUAL" || cfg.Ethereum.Tokens[0].Decimals != 18 {
		t.Errorf("tokens = %+v", cfg.Ethereum.Tokens)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing rpc", "ethereum:\n  http_url: \"\"\n"},
		{"bad wallet", "ethereum:\n  http_url: http://x\n  wallet: nope\n"},
		{"unknown journal", "ethereum:\n  http_url: http://x\nexecution:\n  journal: postgres\n"},
		{"negative gas ceiling", "ethereum:\n  http_url: http://x\n  gas:\n    max_gwei: \"-1\"\n"},
		{"bad decimal", "ethereum:\n  http_url: http://x\narbitrage:\n  cex_fee: abc\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("ARB_ETH_HTTP_URL", "")
			t.Setenv("ETH_HTTP_URL", "")
			if _, err := Load(writeFile(t, "config.yaml", tt.body)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestArbitrageConfig_StrategyConfig(t *testing.T) {
	path := writeFile(t, "config.yaml", "ethereum:\n  http_url: http://x\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	sc, err := cfg.Arbitrage.StrategyConfig()
	if err != nil {
		t.Fatalf("StrategyConfig: %v", err)
	}
	if err := sc.Validate(); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}
	if sc.CEXPair.String() != "VIRTUAL-USDT" || sc.DEXPair.String() != "VIRTUAL-USDC" {
		t.Errorf("pairs = %s / %s", sc.CEXPair, sc.DEXPair)
	}

	cfg.Arbitrage.MinProfitability = decimal.Zero
	sc, _ = cfg.Arbitrage.StrategyConfig()
	if err := sc.Validate(); !apperror.HasCode(err, apperror.CodeConfigurationError) {
		t.Errorf("zero min_profitability: got %v", err)
	}

	cfg.Arbitrage.CEX.Pair = "VIRTUAL"
	if _, err := cfg.Arbitrage.StrategyConfig(); err == nil {
		t.Error("expected pair parse error")
	}
}

func TestLoadEnvFiles(t *testing.T) {
	path := writeFile(t, ".env", "ARB_TEST_DOTENV=loaded\n")
	t.Setenv("ARB_TEST_DOTENV", "")
	os.Unsetenv("ARB_TEST_DOTENV")

	if err := LoadEnvFiles(path, filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Fatalf("LoadEnvFiles: %v", err)
	}
	if got := os.Getenv("ARB_TEST_DOTENV"); got != "loaded" {
		t.Errorf("ARB_TEST_DOTENV = %q", got)
	}
}
