package flight

import (
	"context"
	"sync"
	"time"
)

// Result is the settled outcome of a flight, fanned out to every caller
// that joined it.
type Result struct {
	Token string
	Err   error
}

type call struct {
	waiters []chan Result
}

// Group serializes concurrent demands for one operation into a single
// execution. The pending call reference is stored under the group mutex
// before the leader performs any I/O, so a caller can never observe "no
// refresh in flight" while another caller is about to start one. Waiters
// are released in arrival order with the same Result.
type Group struct {
	mu      sync.Mutex
	pending *call
}

// InFlight reports whether an execution is currently pending.
func (g *Group) InFlight() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.pending != nil
}

// Do executes fn exactly once per flight. The first caller becomes the
// leader and runs fn; every caller arriving before fn settles joins the
// pending call and receives the leader's Result. started reports whether
// this caller was the leader.
//
// The leader runs fn on a context detached from its own cancellation so
// one impatient caller cannot fail the flight for everyone else; timeout
// bounds the execution instead. A joiner whose ctx is done before the
// flight settles abandons the wait with ctx.Err(), while the flight keeps
// running for the remaining callers.
func (g *Group) Do(ctx context.Context, timeout time.Duration, fn func(context.Context) (string, error)) (Result, bool) {
	ch := make(chan Result, 1)

	g.mu.Lock()
	if g.pending != nil {
		g.pending.waiters = append(g.pending.waiters, ch)
		g.mu.Unlock()

		select {
		case res := <-ch:
			return res, false
		case <-ctx.Done():
			return Result{Err: ctx.Err()}, false
		}
	}

	c := &call{waiters: []chan Result{ch}}
	g.pending = c
	g.mu.Unlock()

	runCtx := context.WithoutCancel(ctx)
	if timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(runCtx, timeout)
		defer cancel()
	}

	token, err := fn(runCtx)
	res := Result{Token: token, Err: err}

	g.mu.Lock()
	g.pending = nil
	waiters := c.waiters
	g.mu.Unlock()

	// Buffered channels: delivery never blocks, even on abandoned waiters.
	for _, w := range waiters {
		w <- res
	}

	return res, true
}
