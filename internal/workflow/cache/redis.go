package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/awmpietro/golang-execution-graph/internal/workflow"
)

const keyPrefix = "workflow:graph:"

// Redis shares compiled skeletons between instances. Redis failures degrade
// to compiling locally; they are logged, never returned.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
	group  singleflight.Group
}

func NewRedis(client *redis.Client, ttl time.Duration, logger *zap.Logger) *Redis {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Redis{client: client, ttl: ttl, logger: logger}
}

func (c *Redis) GetOrCompute(ctx context.Context, raw []byte, fn ComputeFunc) (*workflow.Graph, error) {
	key := keyPrefix + Key(raw)

	v, err, _ := c.group.Do(key, func() (any, error) {
		if g, ok := c.load(ctx, key); ok {
			return g, nil
		}
		g, err := safeCompute(fn)
		if err != nil {
			return nil, err
		}
		c.store(ctx, key, g)
		return g, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*workflow.Graph), nil
}

func (c *Redis) load(ctx context.Context, key string) (*workflow.Graph, bool) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("graph cache read failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}

	g := workflow.NewGraph()
	if err := json.Unmarshal(data, g); err != nil {
		c.logger.Warn("graph cache entry is corrupt", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return g, true
}

func (c *Redis) store(ctx context.Context, key string, g *workflow.Graph) {
	data, err := json.Marshal(g)
	if err != nil {
		c.logger.Warn("failed to encode graph for cache", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn("graph cache write failed", zap.String("key", key), zap.Error(err))
	}
}
