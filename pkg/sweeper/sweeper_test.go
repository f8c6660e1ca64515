package sweeper_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oceanbase/decaymem-go/pkg/core"
	"github.com/oceanbase/decaymem-go/pkg/sweeper"
)

type countingCleaner struct {
	calls atomic.Int32
	err   error
}

func (c *countingCleaner) Cleanup(ctx context.Context) (*core.CleanupResult, error) {
	c.calls.Add(1)
	if c.err != nil {
		return nil, c.err
	}
	return &core.CleanupResult{Scanned: 1}, nil
}

func TestNew(t *testing.T) {
	cleaner := &countingCleaner{}
	tests := []struct {
		name    string
		cfg     sweeper.Config
		wantErr bool
	}{
		{"cron", sweeper.Config{Schedule: "*/5 * * * *"}, false},
		{"interval", sweeper.Config{Interval: time.Minute}, false},
		{"neither", sweeper.Config{}, true},
		{"both", sweeper.Config{Schedule: "* * * * *", Interval: time.Minute}, true},
		{"bad cron", sweeper.Config{Schedule: "sometimes"}, true},
		{"negative interval", sweeper.Config{Interval: -time.Second}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := sweeper.New(cleaner, tt.cfg, nil)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}

	_, err := sweeper.New(nil, sweeper.Config{Interval: time.Minute}, nil)
	assert.Error(t, err)
}

func TestNext(t *testing.T) {
	ref := time.Date(2024, 3, 15, 10, 7, 30, 0, time.UTC)

	s, err := sweeper.New(&countingCleaner{}, sweeper.Config{Schedule: "*/15 * * * *"}, nil)
	require.NoError(t, err)
	next, err := s.Next(ref)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 15, 10, 15, 0, 0, time.UTC), next)

	s, err = sweeper.New(&countingCleaner{}, sweeper.Config{Interval: time.Hour}, nil)
	require.NoError(t, err)
	next, err = s.Next(ref)
	require.NoError(t, err)
	assert.Equal(t, ref.Add(time.Hour), next)
}

func TestRun(t *testing.T) {
	for _, cleanErr := range []error{nil, errors.New("index offline")} {
		cleaner := &countingCleaner{err: cleanErr}
		s, err := sweeper.New(cleaner, sweeper.Config{Interval: 5 * time.Millisecond}, nil)
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- s.Run(ctx) }()

		require.Eventually(t, func() bool { return cleaner.calls.Load() >= 3 }, 2*time.Second, time.Millisecond)
		cancel()
		select {
		case err := <-done:
			assert.ErrorIs(t, err, context.Canceled)
		case <-time.After(2 * time.Second):
			t.Fatal("Run did not return after cancel")
		}
	}
}
