package flight

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestDoRunsLeaderOnce(t *testing.T) {
	var g Group
	var calls atomic.Int64
	gate := make(chan struct{})

	const n = 16
	results := make([]Result, n)
	started := make([]bool, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], started[i] = g.Do(context.Background(), 0, func(context.Context) (string, error) {
				calls.Add(1)
				<-gate
				return "T2", nil
			})
		}(i)
	}

	// Wait for the leader to be inside fn, then let the rest pile up.
	deadline := time.After(2 * time.Second)
	for !g.InFlight() {
		select {
		case <-deadline:
			t.Fatal("flight never started")
		default:
			time.Sleep(time.Millisecond)
		}
	}
	time.Sleep(10 * time.Millisecond)
	close(gate)
	wg.Wait()

	if got := calls.Load(); got != 1 {
		t.Fatalf("expected 1 execution, got %d", got)
	}
	leaders := 0
	for i := 0; i < n; i++ {
		if results[i].Token != "T2" || results[i].Err != nil {
			t.Fatalf("caller %d: unexpected result %+v", i, results[i])
		}
		if started[i] {
			leaders++
		}
	}
	if leaders != 1 {
		t.Fatalf("expected exactly 1 leader, got %d", leaders)
	}
}

func TestDoPropagatesError(t *testing.T) {
	var g Group
	sentinel := errors.New("upstream down")

	res, started := g.Do(context.Background(), 0, func(context.Context) (string, error) {
		return "", sentinel
	})

	if !started {
		t.Fatal("expected caller to lead")
	}
	if !errors.Is(res.Err, sentinel) || res.Token != "" {
		t.Fatalf("unexpected result %+v", res)
	}
	if g.InFlight() {
		t.Fatal("expected pending call cleared after failure")
	}
}

func TestDoSequentialFlightsAreIndependent(t *testing.T) {
	var g Group
	var calls int

	for i := 0; i < 3; i++ {
		res, started := g.Do(context.Background(), 0, func(context.Context) (string, error) {
			calls++
			return "T", nil
		})
		if !started || res.Err != nil {
			t.Fatalf("flight %d: started=%v err=%v", i, started, res.Err)
		}
	}
	if calls != 3 {
		t.Fatalf("expected 3 executions, got %d", calls)
	}
}

func TestJoinerCancellationAbandonsWait(t *testing.T) {
	var g Group
	gate := make(chan struct{})
	leaderDone := make(chan Result, 1)

	go func() {
		res, _ := g.Do(context.Background(), 0, func(context.Context) (string, error) {
			<-gate
			return "T2", nil
		})
		leaderDone <- res
	}()

	deadline := time.After(2 * time.Second)
	for !g.InFlight() {
		select {
		case <-deadline:
			t.Fatal("flight never started")
		default:
			time.Sleep(time.Millisecond)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, started := g.Do(ctx, 0, func(context.Context) (string, error) {
		t.Error("joiner must not execute fn")
		return "", nil
	})
	if started {
		t.Fatal("expected caller to join, not lead")
	}
	if !errors.Is(res.Err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", res.Err)
	}

	// The flight keeps running and settles normally for the leader.
	close(gate)
	select {
	case leaderRes := <-leaderDone:
		if leaderRes.Token != "T2" || leaderRes.Err != nil {
			t.Fatalf("unexpected leader result %+v", leaderRes)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("leader never settled")
	}
}

func TestLeaderDetachedFromCallerCancellation(t *testing.T) {
	var g Group

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, started := g.Do(ctx, time.Second, func(runCtx context.Context) (string, error) {
		if err := runCtx.Err(); err != nil {
			return "", err
		}
		return "T2", nil
	})
	if !started {
		t.Fatal("expected caller to lead")
	}
	if res.Err != nil || res.Token != "T2" {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestTimeoutBoundsLeader(t *testing.T) {
	var g Group

	res, started := g.Do(context.Background(), 20*time.Millisecond, func(runCtx context.Context) (string, error) {
		select {
		case <-runCtx.Done():
			return "", runCtx.Err()
		case <-time.After(2 * time.Second):
			return "T2", nil
		}
	})
	if !started {
		t.Fatal("expected caller to lead")
	}
	if !errors.Is(res.Err, context.DeadlineExceeded) {
		t.Fatalf("expected DeadlineExceeded, got %v", res.Err)
	}
	if g.InFlight() {
		t.Fatal("expected pending call cleared after timeout")
	}
}

func TestAllJoinersReceiveResult(t *testing.T) {
	var g Group
	gate := make(chan struct{})

	go g.Do(context.Background(), 0, func(context.Context) (string, error) {
		<-gate
		return "T2", nil
	})

	deadline := time.After(2 * time.Second)
	for !g.InFlight() {
		select {
		case <-deadline:
			t.Fatal("flight never started")
		default:
			time.Sleep(time.Millisecond)
		}
	}

	var order []int
	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			// Stagger arrivals so every caller joins before the flight settles.
			time.Sleep(time.Duration(i*10) * time.Millisecond)
			res, _ := g.Do(context.Background(), 0, func(context.Context) (string, error) {
				return "", errors.New("unexpected leader")
			})
			if res.Err != nil {
				t.Errorf("joiner %d: %v", i, res.Err)
				return
			}
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
		}(i)
	}

	time.Sleep(80 * time.Millisecond)
	close(gate)
	wg.Wait()

	if len(order) != 4 {
		t.Fatalf("expected 4 joiners, got %d", len(order))
	}
}
