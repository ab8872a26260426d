package workflow

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// Update describes one status write attempted during replay.
type Update struct {
	EventType string
	Target    string
	Status    Status
	Matched   bool
}

type UpdateObserver interface {
	ObserveUpdate(u Update)
}

// UpdateObservers fans an update out to every observer in order.
type UpdateObservers []UpdateObserver

func (obs UpdateObservers) ObserveUpdate(u Update) {
	for _, o := range obs {
		if o != nil {
			o.ObserveUpdate(u)
		}
	}
}

// UpdateLogger logs every status write at debug level; writes that found no
// node get their own message so they can be filtered.
type UpdateLogger struct {
	logger *zap.Logger
}

func NewUpdateLogger(logger *zap.Logger) *UpdateLogger {
	return &UpdateLogger{logger: logger}
}

func (l *UpdateLogger) ObserveUpdate(u Update) {
	if l == nil || l.logger == nil {
		return
	}
	fields := []zap.Field{
		zap.String("event_type", u.EventType),
		zap.String("target", u.Target),
		zap.String("status", string(u.Status)),
	}
	if !u.Matched {
		l.logger.Debug("replay update matched no node", fields...)
		return
	}
	l.logger.Debug("replay update applied", fields...)
}

type AsyncUpdateObserver struct {
	next    UpdateObserver
	updates chan Update
	once    sync.Once
	mu      sync.RWMutex
	closed  bool
	wg      sync.WaitGroup
	dropped atomic.Uint64
}

func NewAsyncUpdateObserver(next UpdateObserver, buffer int) *AsyncUpdateObserver {
	if buffer <= 0 {
		buffer = 1
	}

	o := &AsyncUpdateObserver{
		next:    next,
		updates: make(chan Update, buffer),
	}

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		for u := range o.updates {
			if o.next == nil {
				continue
			}
			o.next.ObserveUpdate(u)
		}
	}()

	return o
}

func (o *AsyncUpdateObserver) ObserveUpdate(u Update) {
	if o == nil {
		return
	}
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.closed {
		o.dropped.Add(1)
		return
	}
	select {
	case o.updates <- u:
	default:
		o.dropped.Add(1)
	}
}

func (o *AsyncUpdateObserver) Dropped() uint64 {
	if o == nil {
		return 0
	}
	return o.dropped.Load()
}

// Close stops accepting updates and waits until buffered ones are delivered.
func (o *AsyncUpdateObserver) Close() {
	if o == nil {
		return
	}
	o.once.Do(func() {
		o.mu.Lock()
		o.closed = true
		close(o.updates)
		o.mu.Unlock()
		o.wg.Wait()
	})
}
