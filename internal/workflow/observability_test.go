package workflow

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type countingObserver struct {
	mu      sync.Mutex
	updates []Update
}

func (c *countingObserver) ObserveUpdate(u Update) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.updates = append(c.updates, u)
}

func (c *countingObserver) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.updates)
}

func TestAsyncUpdateObserver_DeliversUpdatesOnClose(t *testing.T) {
	spy := &countingObserver{}
	async := NewAsyncUpdateObserver(spy, 8)

	async.ObserveUpdate(Update{Target: "Start", Matched: true})
	async.ObserveUpdate(Update{Target: "Ghost"})
	async.Close()

	assert.Equal(t, 2, spy.Count())
}

func TestAsyncUpdateObserver_DropsWhenBufferIsFull(t *testing.T) {
	block := make(chan struct{})
	slow := &blockingObserver{release: block}
	async := NewAsyncUpdateObserver(slow, 1)

	for i := 0; i < 100; i++ {
		async.ObserveUpdate(Update{Target: "n"})
	}
	close(block)
	async.Close()

	assert.Greater(t, async.Dropped(), uint64(0))
}

type blockingObserver struct {
	release chan struct{}
}

func (b *blockingObserver) ObserveUpdate(Update) {
	<-b.release
}

func TestAsyncUpdateObserver_CloseDuringConcurrentObserveDoesNotPanic(t *testing.T) {
	async := NewAsyncUpdateObserver(&countingObserver{}, 32)

	const workers = 8
	const perWorker = 200
	var wg sync.WaitGroup
	var panics atomic.Int32

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() {
				if recover() != nil {
					panics.Add(1)
				}
			}()
			for j := 0; j < perWorker; j++ {
				async.ObserveUpdate(Update{Target: "n"})
			}
		}()
	}

	time.Sleep(time.Millisecond)
	async.Close()
	wg.Wait()

	assert.Zero(t, panics.Load())
}

func TestAsyncUpdateObserver_ObserveAfterCloseIsDropped(t *testing.T) {
	async := NewAsyncUpdateObserver(nil, 4)
	async.Close()
	async.ObserveUpdate(Update{})
	async.Close()

	assert.Equal(t, uint64(1), async.Dropped())
}

func TestUpdateLogger_LogsUnmatchedTargets(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := NewUpdateLogger(zap.New(core))

	l.ObserveUpdate(Update{EventType: "TaskStateEntered", Target: "Ghost", Status: StatusInProgress})
	l.ObserveUpdate(Update{EventType: "ExecutionStarted", Target: StartID, Status: StatusNormal, Matched: true})

	require.Equal(t, 2, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "replay update matched no node", entry.Message)
	assert.Equal(t, "Ghost", entry.ContextMap()["target"])
	for _, e := range logs.All() {
		assert.Equal(t, zap.DebugLevel, e.Level, e.Message)
	}
}

func TestUpdateLogger_SilentAboveDebug(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	l := NewUpdateLogger(zap.New(core))

	l.ObserveUpdate(Update{EventType: "TaskStateEntered", Target: "Ghost", Status: StatusInProgress})

	assert.Zero(t, logs.Len())
}

func TestUpdateObservers_FanOut(t *testing.T) {
	a, b := &countingObserver{}, &countingObserver{}
	UpdateObservers{a, nil, b}.ObserveUpdate(Update{Target: "x"})

	assert.Equal(t, 1, a.Count())
	assert.Equal(t, 1, b.Count())
}
