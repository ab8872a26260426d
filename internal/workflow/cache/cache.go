package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/awmpietro/golang-execution-graph/internal/workflow"
)

type ComputeFunc func() (*workflow.Graph, error)

// InMemory holds compiled skeletons keyed by the sha256 of the raw
// definition. Callers must clone a returned graph before replaying onto it.
type InMemory struct {
	mu    sync.RWMutex
	max   int
	items map[string]*workflow.Graph
	group singleflight.Group
}

func NewInMemory(max int) *InMemory {
	return &InMemory{
		max:   max,
		items: make(map[string]*workflow.Graph, max),
	}
}

func (c *InMemory) GetOrCompute(ctx context.Context, raw []byte, fn ComputeFunc) (*workflow.Graph, error) {
	key := Key(raw)

	if g, ok := c.get(key); ok {
		return g, nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		if g, ok := c.get(key); ok {
			return g, nil
		}
		g, err := safeCompute(fn)
		if err != nil {
			return nil, err
		}
		c.put(key, g)
		return g, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*workflow.Graph), nil
}

func (c *InMemory) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

func (c *InMemory) get(key string) (*workflow.Graph, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	g, ok := c.items[key]
	return g, ok
}

func (c *InMemory) put(key string, g *workflow.Graph) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.items) < c.max {
		c.items[key] = g
	}
}

func Key(raw []byte) string {
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

func safeCompute(fn ComputeFunc) (g *workflow.Graph, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("compile panicked: %v", r)
		}
	}()
	return fn()
}
