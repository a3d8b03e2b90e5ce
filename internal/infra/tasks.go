package infra

import (
	"context"
	"sync"
	"time"
)

// TaskGroup runs detached background tasks. The spawning request handler
// returns immediately; Wait lets the process drain in-flight tasks during
// shutdown instead of killing them with the server.
type TaskGroup struct {
	wg      sync.WaitGroup
	timeout time.Duration
}

// NewTaskGroup creates a TaskGroup. timeout bounds each task's context; a
// non-positive timeout leaves tasks unbounded.
func NewTaskGroup(timeout time.Duration) *TaskGroup {
	return &TaskGroup{timeout: timeout}
}

// Go spawns fn on its own goroutine with a context detached from any
// request lifecycle, so the task keeps running after the caller returns.
func (g *TaskGroup) Go(fn func(ctx context.Context)) {
	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		ctx := context.Background()
		if g.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, g.timeout)
			defer cancel()
		}
		fn(ctx)
	}()
}

// Wait blocks until every spawned task has finished or ctx is done.
func (g *TaskGroup) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		g.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
