// Package di contains dependency injection tokens for the execution context.
package di

import (
	goredis "github.com/redis/go-redis/v9"

	"github.com/fd1az/dynamic-arb/business/execution/app"
	"github.com/fd1az/dynamic-arb/business/execution/infra/redis"
	"github.com/fd1az/dynamic-arb/internal/di"
)

// Public service tokens - exposed to other modules
var (
	ExecutionService = di.NewToken[*app.Service]("execution.Service")
	Journal          = di.NewToken[app.Journal]("execution.Journal")
)

// Private dependency tokens - internal to execution module
var (
	// RedisClient is nil when no executor bus is configured.
	RedisClient = di.NewToken[*goredis.Client]("execution:redisClient")
	Bus         = di.NewToken[*redis.Bus]("execution:bus")
)

func GetExecutionService(c di.ServiceRegistry) *app.Service {
	return di.GetToken(c, ExecutionService)
}

func GetJournal(c di.ServiceRegistry) app.Journal {
	return di.GetToken(c, Journal)
}

func GetRedisClient(c di.ServiceRegistry) *goredis.Client {
	return di.GetToken(c, RedisClient)
}

func GetBus(c di.ServiceRegistry) *redis.Bus {
	return di.GetToken(c, Bus)
}
