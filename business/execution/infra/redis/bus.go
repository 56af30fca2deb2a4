// Package redis connects the execution service to an external executor over
// Redis: actions go out on a stream, completions come back on pub/sub.
package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	arb "github.com/fd1az/dynamic-arb/business/arbitrage/domain"
	"github.com/fd1az/dynamic-arb/business/execution/app"
	"github.com/fd1az/dynamic-arb/business/execution/domain"
	"github.com/fd1az/dynamic-arb/internal/apperror"
	"github.com/fd1az/dynamic-arb/internal/logger"
)

// streamMaxLen bounds the action stream via XADD MAXLEN ~.
const streamMaxLen int64 = 10000

var _ app.Publisher = (*Bus)(nil)

// Config names the Redis keys the bus uses.
type Config struct {
	ActionsStream     string
	CompletionChannel string
}

// Completion is the message an executor publishes when it finishes.
type Completion struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// CompletionHandler applies a completion.
type CompletionHandler func(ctx context.Context, id string, status domain.Status) error

// Bus publishes actions and consumes completions.
type Bus struct {
	rdb    *redis.Client
	cfg    Config
	logger logger.LoggerInterface
}

// NewBus creates a Bus on rdb.
func NewBus(rdb *redis.Client, cfg Config, log logger.LoggerInterface) *Bus {
	return &Bus{rdb: rdb, cfg: cfg, logger: log}
}

// Publish appends the action JSON to the actions stream.
func (b *Bus) Publish(ctx context.Context, action arb.CreateExecutionAction) error {
	payload, err := json.Marshal(action)
	if err != nil {
		return fmt.Errorf("redis: encode action: %w", err)
	}

	args := &redis.XAddArgs{
		Stream: b.cfg.ActionsStream,
		MaxLen: streamMaxLen,
		Approx: true,
		Values: map[string]interface{}{
			"id":     action.ID,
			"action": payload,
		},
	}
	if err := b.rdb.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("redis: stream append %s: %w", b.cfg.ActionsStream, err)
	}
	return nil
}

// ListenCompletions subscribes to the completion channel and applies each
// message with handle until ctx is cancelled. Malformed messages and handler
// errors are logged and skipped.
func (b *Bus) ListenCompletions(ctx context.Context, handle CompletionHandler) error {
	pubsub := b.rdb.Subscribe(ctx, b.cfg.CompletionChannel)
	defer pubsub.Close()

	// Verify the subscription is established by receiving the confirmation.
	if _, err := pubsub.Receive(ctx); err != nil {
		return apperror.New(apperror.CodeServiceUnavailable, apperror.WithCause(err),
			apperror.WithContext("subscribe "+b.cfg.CompletionChannel))
	}
	b.logger.Info(ctx, "listening for execution completions", "channel", b.cfg.CompletionChannel)

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			b.apply(ctx, msg.Payload, handle)
		}
	}
}

func (b *Bus) apply(ctx context.Context, payload string, handle CompletionHandler) {
	var c Completion
	if err := json.Unmarshal([]byte(payload), &c); err != nil {
		b.logger.Warn(ctx, "malformed completion", "payload", payload, "error", err)
		return
	}
	status, err := domain.ParseStatus(c.Status)
	if err != nil || c.ID == "" {
		b.logger.Warn(ctx, "invalid completion", "id", c.ID, "status", c.Status)
		return
	}
	if err := handle(ctx, c.ID, status); err != nil {
		b.logger.Error(ctx, "failed to apply completion", "id", c.ID, "status", c.Status, "error", err)
	}
}

// Ping checks the Redis connection.
func (b *Bus) Ping(ctx context.Context) error {
	return b.rdb.Ping(ctx).Err()
}
