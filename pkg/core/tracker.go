package core

import (
	"context"
	"sync"
	"time"

	"github.com/oceanbase/decaymem-go/pkg/observe"
	"github.com/oceanbase/decaymem-go/pkg/storage"
)

// accessUpdate rewrites the payload of one retrieved memory.
type accessUpdate struct {
	id      string
	payload map[string]interface{}
}

// accessTracker applies retrieval statistics in the background so Retrieve
// never waits on index writes. Updates are best effort: a full queue drops
// the update and failures are only logged. Concurrent retrievals of the same
// memory race and the last write wins.
type accessTracker struct {
	index   storage.VectorStore
	obs     *observe.Observer
	timeout time.Duration
	queue   chan accessUpdate

	mu       sync.Mutex
	inflight int
	idle     chan struct{}
	closed   bool

	workers sync.WaitGroup
}

func newAccessTracker(index storage.VectorStore, obs *observe.Observer, workers, queueSize int, timeout time.Duration) *accessTracker {
	t := &accessTracker{
		index:   index,
		obs:     obs,
		timeout: timeout,
		queue:   make(chan accessUpdate, queueSize),
		idle:    make(chan struct{}),
	}
	close(t.idle)

	t.workers.Add(workers)
	for i := 0; i < workers; i++ {
		go t.run()
	}
	return t
}

// enqueue schedules an update. It never blocks.
func (t *accessTracker) enqueue(u accessUpdate) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return false
	}
	select {
	case t.queue <- u:
	default:
		t.obs.Log().Warn().Str("id", u.id).Msg("access queue full, dropping update")
		return false
	}
	if t.inflight == 0 {
		t.idle = make(chan struct{})
	}
	t.inflight++
	return true
}

func (t *accessTracker) run() {
	defer t.workers.Done()
	for u := range t.queue {
		t.apply(u)
		t.done()
	}
}

func (t *accessTracker) apply(u accessUpdate) {
	ctx, cancel := context.WithTimeout(context.Background(), t.timeout)
	defer cancel()

	if err := t.index.SetPayload(ctx, u.id, u.payload); err != nil {
		t.obs.Log().Warn().Str("id", u.id).Err(err).Msg("failed to update access statistics")
	}
}

func (t *accessTracker) done() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.inflight--
	if t.inflight == 0 {
		close(t.idle)
	}
}

// flush waits until every update enqueued so far has been applied.
func (t *accessTracker) flush(ctx context.Context) error {
	t.mu.Lock()
	idle := t.idle
	t.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// close stops accepting updates and waits for the queued ones.
func (t *accessTracker) close() {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	t.closed = true
	close(t.queue)
	t.mu.Unlock()

	t.workers.Wait()
}
