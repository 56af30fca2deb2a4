package redis

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	arb "github.com/fd1az/dynamic-arb/business/arbitrage/domain"
	"github.com/fd1az/dynamic-arb/business/execution/domain"
	"github.com/fd1az/dynamic-arb/internal/logger"
)

func newTestBus(t *testing.T) (*Bus, *miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	bus := NewBus(rdb, Config{
		ActionsStream:     "arb:actions",
		CompletionChannel: "arb:executions:done",
	}, logger.NewNop())
	return bus, mr, rdb
}

func TestBus_Publish(t *testing.T) {
	bus, _, rdb := newTestBus(t)
	ctx := context.Background()

	action := arb.CreateExecutionAction{ID: "act-1", OrderAmount: decimal.RequireFromString("7.5")}
	if err := bus.Publish(ctx, action); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if err := bus.Ping(ctx); err != nil {
		t.Fatalf("ping: %v", err)
	}

	msgs, err := rdb.XRange(ctx, "arb:actions", "-", "+").Result()
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 1 {
		t.Fatalf("stream has %d entries, want 1", len(msgs))
	}
	if msgs[0].Values["id"] != "act-1" {
		t.Errorf("id = %v", msgs[0].Values["id"])
	}

	var got arb.CreateExecutionAction
	if err := json.Unmarshal([]byte(msgs[0].Values["action"].(string)), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !got.OrderAmount.Equal(action.OrderAmount) {
		t.Errorf("amount = %s", got.OrderAmount)
	}
}

type completions struct {
	mu   sync.Mutex
	seen map[string]domain.Status
	done chan struct{}
}

func (c *completions) handle(_ context.Context, id string, status domain.Status) error {
	c.mu.Lock()
	c.seen[id] = status
	c.mu.Unlock()
	c.done <- struct{}{}
	return nil
}

func TestBus_ListenCompletions(t *testing.T) {
	bus, _, rdb := newTestBus(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := &completions{seen: make(map[string]domain.Status), done: make(chan struct{}, 4)}
	errc := make(chan error, 1)
	go func() { errc <- bus.ListenCompletions(ctx, c.handle) }()

	// Wait for the subscription before publishing.
	deadline := time.Now().Add(2 * time.Second)
	for {
		n, _ := rdb.PubSubNumSub(ctx, "arb:executions:done").Result()
		if n["arb:executions:done"] > 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("subscriber never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	for _, payload := range []string{
		`not json`,
		`{"id":"x","status":"exploded"}`,
		`{"id":"a1","status":"completed"}`,
		`{"id":"a2","status":"failed"}`,
	} {
		if err := rdb.Publish(ctx, "arb:executions:done", payload).Err(); err != nil {
			t.Fatal(err)
		}
	}

	for i := 0; i < 2; i++ {
		select {
		case <-c.done:
		case <-time.After(2 * time.Second):
			t.Fatal("completion not applied")
		}
	}

	c.mu.Lock()
	if c.seen["a1"] != domain.StatusCompleted || c.seen["a2"] != domain.StatusFailed || len(c.seen) != 2 {
		t.Errorf("seen = %v", c.seen)
	}
	c.mu.Unlock()

	cancel()
	select {
	case err := <-errc:
		if err != nil {
			t.Errorf("listen: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("ListenCompletions did not return")
	}
}
