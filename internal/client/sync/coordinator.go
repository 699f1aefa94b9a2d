package sync

import (
	"context"
	"log/slog"
	"sync"
)

// RefreshRequest carries the parameters of one reconciliation trigger.
type RefreshRequest struct {
	// FetchRemote forces a fresh remote snapshot; otherwise the last
	// successful snapshot may be reused.
	FetchRemote bool
	// Reason tags the trigger for logs.
	Reason string
}

// RefreshCoordinator serializes reconciliation passes. It is a two-state
// machine (Idle, Running): a request while Idle runs immediately; a request
// while Running overwrites any previously queued request (last wins, no
// queue) and is guaranteed to execute exactly once after the in-flight pass
// completes, before returning to Idle. At most one pass runs at a time.
type RefreshCoordinator struct {
	run func(ctx context.Context, req *RefreshRequest)

	mu      sync.Mutex
	running bool
	pending *RefreshRequest
	wg      sync.WaitGroup
}

func NewRefreshCoordinator(run func(ctx context.Context, req *RefreshRequest)) *RefreshCoordinator {
	return &RefreshCoordinator{run: run}
}

// Schedule submits a refresh request. It never blocks on the pass itself.
func (c *RefreshCoordinator) Schedule(ctx context.Context, req *RefreshRequest) {
	c.mu.Lock()
	if c.running {
		if c.pending != nil {
			slog.Debug("refresh coalesced", "dropped", c.pending.Reason, "kept", req.Reason)
		}
		c.pending = req
		c.mu.Unlock()
		return
	}
	c.running = true
	c.mu.Unlock()

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.loop(ctx, req)
	}()
}

func (c *RefreshCoordinator) loop(ctx context.Context, req *RefreshRequest) {
	for {
		if ctx.Err() == nil {
			c.run(ctx, req)
		}

		c.mu.Lock()
		if c.pending == nil {
			c.running = false
			c.mu.Unlock()
			return
		}
		req = c.pending
		c.pending = nil
		c.mu.Unlock()
	}
}

// Wait blocks until the in-flight pass (and its pending follow-up, if any)
// has finished. Used on shutdown and in tests.
func (c *RefreshCoordinator) Wait() {
	c.wg.Wait()
}
