package history

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRetentionJobPrunes(t *testing.T) {
	store := newTestStore(t)
	_, err := store.LogExtraction(Event{Action: ActionView, UserID: "alice", Success: true})
	require.NoError(t, err)

	// Negative retention puts the cutoff in the future, so the immediate
	// prune removes the event just written.
	job := NewRetentionJob(store, -time.Minute, time.Hour, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	job.Run(ctx)

	entries, err := store.SearchHistory(SearchFilters{})
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRetentionJobStopsOnCancel(t *testing.T) {
	store := newTestStore(t)
	job := NewRetentionJob(store, time.Hour, time.Millisecond, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		job.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("retention job did not stop after cancel")
	}
}
