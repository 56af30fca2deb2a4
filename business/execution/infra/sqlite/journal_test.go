package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	arb "github.com/fd1az/dynamic-arb/business/arbitrage/domain"
	"github.com/fd1az/dynamic-arb/business/execution/domain"
	pricing "github.com/fd1az/dynamic-arb/business/pricing/domain"
	"github.com/fd1az/dynamic-arb/internal/apperror"
)

func openTest(t *testing.T, dsn string) *Journal {
	t.Helper()
	j, err := Open(context.Background(), dsn)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { j.Close() })
	return j
}

func testAction(id string) arb.CreateExecutionAction {
	return arb.CreateExecutionAction{
		ID:                 id,
		Buying:             arb.ConnectorPair{Connector: "binance", Pair: pricing.MustParsePair("VIRTUAL-USDT")},
		Selling:            arb.ConnectorPair{Connector: "uniswap", Pair: pricing.MustParsePair("VIRTUAL-USDC")},
		OrderAmount:        decimal.RequireFromString("12.5"),
		MinProfitability:   decimal.RequireFromString("0.003"),
		GasConversionPrice: decimal.RequireFromString("0.0004"),
		CreatedAt:          time.Unix(50, 0).UTC(),
	}
}

func TestJournal_RoundTrip(t *testing.T) {
	ctx := context.Background()
	j := openTest(t, "file::memory:?cache=shared")

	created := time.Unix(100, 0)
	e := domain.NewExecution(testAction("x1"), created)
	if err := j.Save(ctx, e); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := j.Save(ctx, domain.NewExecution(testAction("x2"), created.Add(time.Second))); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := j.Get(ctx, "x1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !got.IsActive() || !got.CreatedAt.Equal(created) {
		t.Errorf("execution = %+v", got)
	}
	if !got.Action.OrderAmount.Equal(decimal.RequireFromString("12.5")) || got.Action.Selling.Pair.Quote != "USDC" {
		t.Errorf("action = %+v", got.Action)
	}

	if err := got.Close(domain.StatusCompleted, created.Add(time.Minute)); err != nil {
		t.Fatal(err)
	}
	if err := j.Save(ctx, got); err != nil {
		t.Fatalf("update: %v", err)
	}

	list, err := j.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 || list[0].ID != "x1" || list[0].Status != domain.StatusCompleted || !list[1].IsActive() {
		t.Errorf("list = %+v", list)
	}

	if _, err := j.Get(ctx, "nope"); !apperror.HasCode(err, apperror.CodeExecutionNotFound) {
		t.Errorf("missing: %v", err)
	}
}

func TestJournal_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "executions.db")

	j, err := Open(ctx, path)
	if err != nil {
		t.Fatal(err)
	}
	if err := j.Save(ctx, domain.NewExecution(testAction("persist"), time.Unix(1, 0))); err != nil {
		t.Fatal(err)
	}
	j.Close()

	reopened := openTest(t, path)
	if err := reopened.Ping(ctx); err != nil {
		t.Fatalf("ping: %v", err)
	}
	if _, err := reopened.Get(ctx, "persist"); err != nil {
		t.Fatalf("get after reopen: %v", err)
	}
}
