package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/awmpietro/golang-execution-graph/internal/app"
	"github.com/awmpietro/golang-execution-graph/internal/config"
	"github.com/awmpietro/golang-execution-graph/internal/metrics"
	"github.com/awmpietro/golang-execution-graph/internal/workflow"
	"github.com/awmpietro/golang-execution-graph/internal/workflow/cache"
)

// Runtime is the wired service plus what must be released on shutdown.
type Runtime struct {
	Service  *app.Service
	Registry *prometheus.Registry

	observer *workflow.AsyncUpdateObserver
	redis    *redis.Client
	logger   *zap.Logger
}

func New(ctx context.Context, cfg config.Runtime, logger *zap.Logger) (*Runtime, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector(reg)

	observer := workflow.NewAsyncUpdateObserver(
		workflow.UpdateObservers{workflow.NewUpdateLogger(logger), collector},
		cfg.ObsBuffer,
	)

	rt := &Runtime{Registry: reg, observer: observer, logger: logger}

	c, err := rt.newCache(ctx, cfg)
	if err != nil {
		observer.Close()
		return nil, err
	}

	compiler := workflow.NewCompiler(workflow.WithTerminalNames(cfg.TerminalNames...))
	replayer := workflow.NewReplayer(workflow.WithUpdateObserver(observer))
	rt.Service = app.NewService(compiler, replayer, c,
		app.WithRenderObserver(collector),
		app.WithLogger(logger),
	)
	return rt, nil
}

func (rt *Runtime) newCache(ctx context.Context, cfg config.Runtime) (app.Cache, error) {
	if cfg.CacheBackend != "redis" {
		return cache.NewInMemory(cfg.CacheMaxItems), nil
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		// the cache degrades to local compiles, so an unreachable redis is not fatal
		rt.logger.Warn("redis not reachable at startup", zap.Error(err))
	}
	rt.redis = client
	return cache.NewRedis(client, cfg.CacheTTL, rt.logger), nil
}

func (rt *Runtime) Close() {
	rt.observer.Close()
	if dropped := rt.observer.Dropped(); dropped > 0 {
		rt.logger.Warn("replay updates dropped by observer", zap.Uint64("dropped", dropped))
	}
	if rt.redis != nil {
		if err := rt.redis.Close(); err != nil {
			rt.logger.Warn("failed to close redis client", zap.Error(err))
		}
	}
}
