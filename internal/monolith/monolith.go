// Package monolith provides the application container and module interface.
package monolith

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/errgroup"

	"github.com/fd1az/dynamic-arb/internal/asset"
	"github.com/fd1az/dynamic-arb/internal/config"
	"github.com/fd1az/dynamic-arb/internal/di"
	"github.com/fd1az/dynamic-arb/internal/logger"
)

// Well-known container keys for the shared infrastructure.
const (
	KeyConfig        = "config"
	KeyLogger        = "logger"
	KeyEthClient     = "ethClient"
	KeyAssetRegistry = "assetRegistry"
)

// Worker is a long-running task owned by the application. It returns nil
// when ctx is cancelled.
type Worker func(ctx context.Context) error

// Monolith is the main application container providing access to shared infrastructure.
type Monolith interface {
	Config() *config.Config
	Logger() logger.LoggerInterface
	EthClient() *ethclient.Client
	AssetRegistry() *asset.Registry
	Services() di.ServiceRegistry

	// Go registers a worker started by Run.
	Go(name string, w Worker)
	// OnClose registers a release hook. Hooks run in reverse order.
	OnClose(fn func() error)
}

// Module represents a bounded context module that can register services and start up.
type Module interface {
	RegisterServices(di.Container) error
	Startup(context.Context, Monolith) error
}

type namedWorker struct {
	name string
	run  Worker
}

// App implements Monolith.
type App struct {
	config        *config.Config
	logger        logger.LoggerInterface
	ethClient     *ethclient.Client
	assetRegistry *asset.Registry
	container     di.Container

	mu      sync.Mutex
	workers []namedWorker
	closers []func() error
}

// New creates the container. The Ethereum client is dialled lazily over
// HTTP, so no request is made here.
func New(ctx context.Context, cfg *config.Config, log logger.LoggerInterface) (*App, error) {
	rpcClient, err := rpc.DialOptions(ctx, cfg.Ethereum.HTTPURL, rpc.WithHTTPClient(&http.Client{
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}))
	if err != nil {
		return nil, fmt.Errorf("dial ethereum: %w", err)
	}
	ethClient := ethclient.NewClient(rpcClient)

	assetRegistry := asset.DefaultRegistry()
	if err := assetRegistry.RegisterSpecs(cfg.Ethereum.ChainID, cfg.Ethereum.Tokens); err != nil {
		ethClient.Close()
		return nil, err
	}

	container := di.NewContainer()

	container.Register(KeyConfig, cfg)
	container.Register(KeyLogger, log)
	container.Register(KeyEthClient, ethClient)
	container.Register(KeyAssetRegistry, assetRegistry)

	return &App{
		config:        cfg,
		logger:        log,
		ethClient:     ethClient,
		assetRegistry: assetRegistry,
		container:     container,
	}, nil
}

func (a *App) Config() *config.Config {
	return a.config
}

func (a *App) Logger() logger.LoggerInterface {
	return a.logger
}

func (a *App) EthClient() *ethclient.Client {
	return a.ethClient
}

func (a *App) AssetRegistry() *asset.Registry {
	return a.assetRegistry
}

func (a *App) Services() di.ServiceRegistry {
	return a.container
}

// Container returns the DI container for module registration.
func (a *App) Container() di.Container {
	return a.container
}

func (a *App) Go(name string, w Worker) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.workers = append(a.workers, namedWorker{name: name, run: w})
}

func (a *App) OnClose(fn func() error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.closers = append(a.closers, fn)
}

// RegisterModules registers all provided modules.
func (a *App) RegisterModules(modules ...Module) error {
	for _, m := range modules {
		if err := m.RegisterServices(a.container); err != nil {
			return err
		}
	}
	return nil
}

// StartModules starts all provided modules. A factory that panics while a
// module resolves its services is reported as that module's error.
func (a *App) StartModules(ctx context.Context, modules ...Module) error {
	for _, m := range modules {
		if err := a.startModule(ctx, m); err != nil {
			return err
		}
	}
	return nil
}

func (a *App) startModule(ctx context.Context, m Module) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("start %T: %v", m, r)
		}
	}()
	return m.Startup(ctx, a)
}

// Run starts every registered worker and blocks until all have returned. The
// first worker error cancels the others.
func (a *App) Run(ctx context.Context) error {
	a.mu.Lock()
	workers := append([]namedWorker(nil), a.workers...)
	a.mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)
	for _, w := range workers {
		g.Go(func() error {
			a.logger.Debug(gctx, "worker started", "worker", w.name)
			if err := w.run(gctx); err != nil {
				a.logger.Error(gctx, "worker failed", "worker", w.name, "error", err)
				return fmt.Errorf("%s: %w", w.name, err)
			}
			a.logger.Debug(gctx, "worker stopped", "worker", w.name)
			return nil
		})
	}
	return g.Wait()
}

// Close runs the release hooks in reverse order and closes the Ethereum
// client.
func (a *App) Close() error {
	a.mu.Lock()
	closers := a.closers
	a.closers = nil
	a.mu.Unlock()

	var errs []error
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	if a.ethClient != nil {
		a.ethClient.Close()
	}
	return errors.Join(errs...)
}
