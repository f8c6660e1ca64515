package core

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oceanbase/decaymem-go/pkg/observe"
	"github.com/oceanbase/decaymem-go/pkg/storage"
	"github.com/oceanbase/decaymem-go/pkg/storage/memory"
)

// gatedStore blocks SetPayload until release is closed.
type gatedStore struct {
	storage.VectorStore
	release chan struct{}

	mu    sync.Mutex
	calls int
	err   error
}

func (s *gatedStore) SetPayload(ctx context.Context, id string, payload map[string]interface{}) error {
	<-s.release
	s.mu.Lock()
	s.calls++
	err := s.err
	s.mu.Unlock()
	if err != nil {
		return err
	}
	return s.VectorStore.SetPayload(ctx, id, payload)
}

func (s *gatedStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func TestAccessTrackerFlush(t *testing.T) {
	store := &gatedStore{VectorStore: memory.NewClient(), release: make(chan struct{})}
	tr := newAccessTracker(store, observe.Nop(), 2, 8, time.Second)
	defer tr.close()

	require.NoError(t, tr.flush(context.Background()), "idle tracker flushes immediately")

	for i := 0; i < 3; i++ {
		assert.True(t, tr.enqueue(accessUpdate{id: "missing"}))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, tr.flush(ctx), context.DeadlineExceeded)

	close(store.release)
	require.NoError(t, tr.flush(context.Background()))
	assert.Equal(t, 3, store.count())
}

func TestAccessTrackerDropsWhenFull(t *testing.T) {
	store := &gatedStore{VectorStore: memory.NewClient(), release: make(chan struct{})}
	tr := newAccessTracker(store, observe.Nop(), 1, 1, time.Second)

	accepted := 0
	for i := 0; i < 10; i++ {
		if tr.enqueue(accessUpdate{id: "x"}) {
			accepted++
		}
	}
	// One update held by the worker, one in the queue at most.
	assert.LessOrEqual(t, accepted, 2)
	assert.GreaterOrEqual(t, accepted, 1)

	close(store.release)
	tr.close()
	assert.Equal(t, accepted, store.count())
	assert.False(t, tr.enqueue(accessUpdate{id: "x"}), "closed tracker rejects updates")
}

func TestAccessTrackerSwallowsErrors(t *testing.T) {
	release := make(chan struct{})
	close(release)
	store := &gatedStore{VectorStore: memory.NewClient(), release: release, err: errors.New("write failed")}
	tr := newAccessTracker(store, observe.Nop(), 1, 4, time.Second)
	defer tr.close()

	tr.enqueue(accessUpdate{id: "a"})
	tr.enqueue(accessUpdate{id: "b"})
	require.NoError(t, tr.flush(context.Background()))
	assert.Equal(t, 2, store.count())
}
