package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/awmpietro/golang-execution-graph/internal/workflow"
)

func sampleGraph() *workflow.Graph {
	g := workflow.NewGraph()
	g.AddNode(workflow.Node{ID: workflow.StartID, Label: workflow.StartID, Status: workflow.StatusNotStarted})
	g.AddNode(workflow.Node{ID: workflow.EndID, Label: workflow.EndID, Status: workflow.StatusNotStarted})
	return g
}

func TestInMemory_GetOrCompute_DeduplicatesConcurrentSameKey(t *testing.T) {
	c := NewInMemory(16)
	var calls atomic.Int32

	fn := func() (*workflow.Graph, error) {
		calls.Add(1)
		time.Sleep(30 * time.Millisecond)
		return sampleGraph(), nil
	}

	const n = 20
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.GetOrCompute(context.Background(), []byte("same-key"), fn)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, 1, c.Len())
}

func TestInMemory_GetOrCompute_ErrorIsNotCached(t *testing.T) {
	c := NewInMemory(16)
	var calls atomic.Int32

	_, err := c.GetOrCompute(context.Background(), []byte("k"), func() (*workflow.Graph, error) {
		calls.Add(1)
		return nil, errors.New("boom")
	})
	require.Error(t, err)

	_, err = c.GetOrCompute(context.Background(), []byte("k"), func() (*workflow.Graph, error) {
		calls.Add(1)
		return sampleGraph(), nil
	})
	require.NoError(t, err)

	assert.Equal(t, int32(2), calls.Load())
}

func TestInMemory_GetOrCompute_PanicDoesNotBlockWaiters(t *testing.T) {
	c := NewInMemory(16)
	var calls atomic.Int32

	const n = 8
	var wg sync.WaitGroup
	errs := make(chan error, n)
	start := make(chan struct{})

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := c.GetOrCompute(context.Background(), []byte("panic-key"), func() (*workflow.Graph, error) {
				calls.Add(1)
				time.Sleep(50 * time.Millisecond)
				panic("boom")
			})
			errs <- err
		}()
	}
	close(start)

	wg.Wait()
	close(errs)

	for err := range errs {
		assert.Error(t, err)
	}
	assert.Equal(t, 0, c.Len())
}

func TestInMemory_RespectsMaxItems(t *testing.T) {
	c := NewInMemory(1)
	ctx := context.Background()

	_, err := c.GetOrCompute(ctx, []byte("a"), func() (*workflow.Graph, error) { return sampleGraph(), nil })
	require.NoError(t, err)
	_, err = c.GetOrCompute(ctx, []byte("b"), func() (*workflow.Graph, error) { return sampleGraph(), nil })
	require.NoError(t, err)

	assert.Equal(t, 1, c.Len())
}

func TestKey_IsStableSHA256(t *testing.T) {
	assert.Equal(t, Key([]byte("x")), Key([]byte("x")))
	assert.NotEqual(t, Key([]byte("x")), Key([]byte("y")))
	assert.Len(t, Key([]byte("x")), 64)
}
