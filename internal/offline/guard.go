package offline

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

const drainKey = "drain"

// SyncGuard allows at most one drain in flight. Callers arriving while a
// drain runs wait for it and receive the same result. The slot is released
// when the drain returns, whatever the outcome.
type SyncGuard struct {
	group singleflight.Group

	mu      sync.Mutex
	waiting int
	runs    int
}

func NewSyncGuard() *SyncGuard { return &SyncGuard{} }

// Do runs fn unless a run is already in flight, in which case it joins it.
// fn gets a context detached from the caller's cancellation, since other
// callers may be waiting on it; ctx only bounds how long this caller waits.
func (g *SyncGuard) Do(ctx context.Context, fn func(context.Context) (int, error)) (int, error) {
	runCtx := context.WithoutCancel(ctx)

	g.mu.Lock()
	ch := g.group.DoChan(drainKey, func() (interface{}, error) {
		g.mu.Lock()
		g.runs++
		g.mu.Unlock()
		return fn(runCtx)
	})
	g.waiting++
	g.mu.Unlock()

	defer func() {
		g.mu.Lock()
		g.waiting--
		g.mu.Unlock()
	}()

	select {
	case res := <-ch:
		n, _ := res.Val.(int)
		return n, res.Err
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

// Waiting is the number of callers currently blocked in Do.
func (g *SyncGuard) Waiting() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.waiting
}

// Runs is the number of drains actually executed.
func (g *SyncGuard) Runs() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.runs
}
