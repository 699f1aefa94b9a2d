package sync

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRefreshCoordinator_RunsImmediatelyWhenIdle(t *testing.T) {
	var mu sync.Mutex
	var reasons []string

	c := NewRefreshCoordinator(func(_ context.Context, req *RefreshRequest) {
		mu.Lock()
		reasons = append(reasons, req.Reason)
		mu.Unlock()
	})

	c.Schedule(context.Background(), &RefreshRequest{Reason: "startup"})
	c.Wait()

	assert.Equal(t, []string{"startup"}, reasons)
}

func TestRefreshCoordinator_CoalescesToLastRequest(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})

	var mu sync.Mutex
	var runs []*RefreshRequest

	c := NewRefreshCoordinator(func(_ context.Context, req *RefreshRequest) {
		mu.Lock()
		runs = append(runs, req)
		first := len(runs) == 1
		mu.Unlock()
		if first {
			close(started)
			<-release
		}
	})

	c.Schedule(context.Background(), &RefreshRequest{Reason: "first"})
	<-started

	// three triggers land while the first pass is running; only the last
	// survives the pending slot
	c.Schedule(context.Background(), &RefreshRequest{Reason: "watcher"})
	c.Schedule(context.Background(), &RefreshRequest{Reason: "timer"})
	c.Schedule(context.Background(), &RefreshRequest{FetchRemote: true, Reason: "manual"})
	close(release)

	c.Wait()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, runs, 2)
	assert.Equal(t, "first", runs[0].Reason)
	assert.Equal(t, "manual", runs[1].Reason)
	assert.True(t, runs[1].FetchRemote)
}

func TestRefreshCoordinator_SequentialRequestsEachRun(t *testing.T) {
	var mu sync.Mutex
	count := 0

	c := NewRefreshCoordinator(func(_ context.Context, _ *RefreshRequest) {
		mu.Lock()
		count++
		mu.Unlock()
	})

	for i := 0; i < 3; i++ {
		c.Schedule(context.Background(), &RefreshRequest{Reason: "tick"})
		c.Wait()
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 3, count)
}

func TestRefreshCoordinator_CancelledContextSkipsRun(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ran := make(chan struct{}, 1)
	c := NewRefreshCoordinator(func(_ context.Context, _ *RefreshRequest) {
		ran <- struct{}{}
	})

	c.Schedule(ctx, &RefreshRequest{Reason: "late"})
	c.Wait()

	select {
	case <-ran:
		t.Fatal("pass ran despite cancelled context")
	case <-time.After(50 * time.Millisecond):
	}
}
