package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/awmpietro/golang-execution-graph/internal/workflow"
)

// unreachableClient points at a port nothing listens on, so every command
// fails fast with a dial error.
func unreachableClient() *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
}

func TestRedis_FallsBackToComputeWhenUnavailable(t *testing.T) {
	client := unreachableClient()
	defer client.Close()

	core, logs := observer.New(zap.WarnLevel)
	c := NewRedis(client, time.Minute, zap.New(core))

	calls := 0
	g, err := c.GetOrCompute(context.Background(), []byte(`{"A":{"Type":"Succeed"}}`), func() (*workflow.Graph, error) {
		calls++
		return sampleGraph(), nil
	})
	require.NoError(t, err)
	require.NotNil(t, g)

	assert.Equal(t, 1, calls)
	assert.Equal(t, 2, logs.FilterMessageSnippet("graph cache").Len())
}

func TestRedis_ComputeErrorIsReturned(t *testing.T) {
	client := unreachableClient()
	defer client.Close()

	c := NewRedis(client, time.Minute, nil)
	_, err := c.GetOrCompute(context.Background(), []byte("bad"), func() (*workflow.Graph, error) {
		return nil, workflow.ErrEmptyDefinition
	})
	assert.ErrorIs(t, err, workflow.ErrEmptyDefinition)
}

func TestRedis_StoresThenServesFromRedis(t *testing.T) {
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	defer client.Close()

	raw := []byte(`{"Route":{"Type":"Choice","Choices":[{"Variable":"$.ok","BooleanEquals":true,"Next":"Done"}],"Default":"Done"},"Done":{"Type":"Succeed"}}`)
	compile := func() (*workflow.Graph, error) {
		return workflow.NewCompiler().Compile(raw)
	}

	first, err := NewRedis(client, time.Minute, nil).GetOrCompute(context.Background(), raw, compile)
	require.NoError(t, err)

	require.True(t, srv.Exists(keyPrefix+Key(raw)))
	assert.Equal(t, time.Minute, srv.TTL(keyPrefix+Key(raw)))

	// a fresh instance has no in-process state, so this must come from redis
	calls := 0
	second, err := NewRedis(client, time.Minute, nil).GetOrCompute(context.Background(), raw, func() (*workflow.Graph, error) {
		calls++
		return compile()
	})
	require.NoError(t, err)
	assert.Zero(t, calls)

	assert.Equal(t, first.Nodes, second.Nodes)
	require.Len(t, second.Edges, len(first.Edges))
	for i := range first.Edges {
		assert.Equal(t, first.Edges[i].From, second.Edges[i].From)
		assert.Equal(t, first.Edges[i].To, second.Edges[i].To)
		assert.Equal(t, first.Edges[i].Expression, second.Edges[i].Expression)
	}

	require.True(t, second.SetStatus("Done", workflow.StatusSuccess))
	n, ok := second.Node("Done")
	require.True(t, ok)
	assert.Equal(t, workflow.StatusSuccess, n.Status)

	replayed := second.Clone()
	workflow.NewReplayer().Replay(replayed, []workflow.Event{
		{Type: workflow.EventChoiceStateEntered, StateEnteredEventDetails: &workflow.StateEnteredDetails{Name: "Route", Input: `{"ok":true}`}},
	})
	out := replayed.Outgoing("Route")
	require.Len(t, out, 2)
	assert.True(t, replayed.Edges[out[0]].Taken)
	assert.False(t, replayed.Edges[out[1]].Taken)
}

func TestRedis_CorruptEntryIsRecompiled(t *testing.T) {
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	defer client.Close()

	raw := []byte(`{"A":{"Type":"Succeed"}}`)
	require.NoError(t, srv.Set(keyPrefix+Key(raw), "not json"))

	core, logs := observer.New(zap.WarnLevel)
	calls := 0
	_, err := NewRedis(client, time.Minute, zap.New(core)).GetOrCompute(context.Background(), raw, func() (*workflow.Graph, error) {
		calls++
		return sampleGraph(), nil
	})
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, logs.FilterMessage("graph cache entry is corrupt").Len())
}
