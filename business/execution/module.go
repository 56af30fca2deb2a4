// Package execution implements the execution bounded context: it records the
// actions the strategy creates and tracks them until an executor reports
// completion.
package execution

import (
	"context"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/fd1az/dynamic-arb/business/execution/app"
	executionDI "github.com/fd1az/dynamic-arb/business/execution/di"
	"github.com/fd1az/dynamic-arb/business/execution/infra/memory"
	"github.com/fd1az/dynamic-arb/business/execution/infra/redis"
	"github.com/fd1az/dynamic-arb/business/execution/infra/sqlite"
	"github.com/fd1az/dynamic-arb/internal/config"
	"github.com/fd1az/dynamic-arb/internal/di"
	"github.com/fd1az/dynamic-arb/internal/logger"
	"github.com/fd1az/dynamic-arb/internal/monolith"
)

const openTimeout = 5 * time.Second

// Module implements the execution bounded context.
type Module struct{}

// RegisterServices registers all execution services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, executionDI.Journal, func(sr di.ServiceRegistry) app.Journal {
		cfg := sr.Get(monolith.KeyConfig).(*config.Config)
		if cfg.Execution.Journal != "sqlite" {
			return memory.NewJournal()
		}

		ctx, cancel := context.WithTimeout(context.Background(), openTimeout)
		defer cancel()
		journal, err := sqlite.Open(ctx, cfg.Execution.SQLitePath)
		if err != nil {
			panic("failed to open execution journal: " + err.Error())
		}
		return journal
	})

	di.RegisterToken(c, executionDI.RedisClient, func(sr di.ServiceRegistry) *goredis.Client {
		cfg := sr.Get(monolith.KeyConfig).(*config.Config)
		if cfg.Execution.Redis.Addr == "" {
			return nil
		}
		return goredis.NewClient(&goredis.Options{
			Addr:     cfg.Execution.Redis.Addr,
			Password: cfg.Execution.Redis.Password,
			DB:       cfg.Execution.Redis.DB,
		})
	})

	di.RegisterToken(c, executionDI.Bus, func(sr di.ServiceRegistry) *redis.Bus {
		rdb := executionDI.GetRedisClient(sr)
		if rdb == nil {
			return nil
		}
		cfg := sr.Get(monolith.KeyConfig).(*config.Config)
		log := sr.Get(monolith.KeyLogger).(logger.LoggerInterface)
		return redis.NewBus(rdb, redis.Config{
			ActionsStream:     cfg.Execution.Redis.ActionsStream,
			CompletionChannel: cfg.Execution.Redis.CompletionChannel,
		}, log)
	})

	di.RegisterToken(c, executionDI.ExecutionService, func(sr di.ServiceRegistry) *app.Service {
		log := sr.Get(monolith.KeyLogger).(logger.LoggerInterface)

		// A nil *redis.Bus must not become a non-nil Publisher.
		var publisher app.Publisher
		if bus := executionDI.GetBus(sr); bus != nil {
			publisher = bus
		}
		return app.NewService(executionDI.GetJournal(sr), publisher, log)
	})

	return nil
}

// Startup connects the completion source: the Redis bus when configured,
// otherwise the paper settler.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()
	cfg := mono.Config()
	sr := mono.Services()

	journal := executionDI.GetJournal(sr)
	if closer, ok := journal.(interface{ Close() error }); ok {
		mono.OnClose(closer.Close)
	}
	svc := executionDI.GetExecutionService(sr)

	bus := executionDI.GetBus(sr)
	if bus == nil {
		settler := app.NewPaperSettler(svc, cfg.Execution.PaperHold, log)
		mono.Go("paper-settler", settler.Run)
		log.Info(ctx, "execution module started", "mode", "paper", "journal", cfg.Execution.Journal, "hold", cfg.Execution.PaperHold.String())
		return nil
	}

	mono.OnClose(executionDI.GetRedisClient(sr).Close)

	pingCtx, cancel := context.WithTimeout(ctx, openTimeout)
	defer cancel()
	if err := bus.Ping(pingCtx); err != nil {
		return err
	}

	mono.Go("execution-completions", func(ctx context.Context) error {
		return bus.ListenCompletions(ctx, svc.Complete)
	})

	log.Info(ctx, "execution module started",
		"mode", "redis",
		"journal", cfg.Execution.Journal,
		"stream", cfg.Execution.Redis.ActionsStream,
		"channel", cfg.Execution.Redis.CompletionChannel)
	return nil
}
