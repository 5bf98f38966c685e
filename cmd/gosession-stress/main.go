package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/credstore"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func main() {
	var (
		workers   = flag.Int("workers", 256, "number of concurrent callers per wave")
		waves     = flag.Int("waves", 200, "number of forced rotation waves")
		delay     = flag.Duration("upstream-delay", 2*time.Millisecond, "simulated upstream refresh latency")
		redisAddr = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
		namespace = flag.String("namespace", "gosession-stress", "credential key namespace")
	)
	flag.Parse()

	if *workers <= 0 || *waves <= 0 {
		fmt.Fprintln(os.Stderr, "workers and waves must be > 0")
		os.Exit(2)
	}

	ctx := context.Background()

	addr := *redisAddr
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}

	var (
		cleanup func()
		client  *redis.Client
	)
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to start miniredis: %v\n", err)
			os.Exit(1)
		}
		addr = mr.Addr()
		client = redis.NewClient(&redis.Options{Addr: addr})
		cleanup = func() {
			_ = client.Close()
			mr.Close()
		}
		fmt.Printf("using miniredis at %s\n", addr)
	} else {
		client = redis.NewClient(&redis.Options{Addr: addr})
		cleanup = func() { _ = client.Close() }
		fmt.Printf("using redis at %s\n", addr)
	}
	defer cleanup()

	api := &stubAPI{delay: *delay}

	manager, err := goSession.New().
		WithAPI(api).
		WithStore(credstore.NewRedisStore(client, *namespace)).
		WithMetricsEnabled(true).
		WithLatencyHistograms(true).
		Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "build failed: %v\n", err)
		os.Exit(1)
	}
	defer manager.Close()

	if _, err := manager.Login(ctx, "stress@example.com", "stress-password-1"); err != nil {
		fmt.Fprintf(os.Stderr, "login failed: %v\n", err)
		os.Exit(1)
	}

	stats := runRotationWaves(ctx, manager, *waves, *workers)

	fmt.Println("---- results ----")
	printStats("ensure", stats)

	snapshot := manager.MetricsSnapshot()
	fmt.Printf("waves=%d upstream_refreshes=%d coalesced=%d refresh_success=%d\n",
		*waves,
		api.refreshes.Load(),
		snapshot.Counters[goSession.MetricRefreshCoalesced],
		snapshot.Counters[goSession.MetricRefreshSuccess],
	)
	if got := api.refreshes.Load(); got != int64(*waves) {
		fmt.Fprintf(os.Stderr, "expected exactly one upstream refresh per wave, got %d\n", got)
		os.Exit(1)
	}
}

// runRotationWaves forces one token rotation per wave and slams it with
// concurrent EnsureFreshToken callers. Every caller in a wave must settle
// on the same rotated token from a single upstream call.
func runRotationWaves(ctx context.Context, manager *goSession.Manager, waves, workers int) phaseStats {
	var (
		failures  int64
		latencies = make([]time.Duration, 0, waves*workers)
		mu        sync.Mutex
	)

	start := time.Now()
	for wave := 0; wave < waves; wave++ {
		manager.MarkTokenRejected(manager.CurrentToken())

		var wg sync.WaitGroup
		for w := 0; w < workers; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				t0 := time.Now()
				_, err := manager.EnsureFreshToken(ctx)
				d := time.Since(t0)
				if err != nil {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}()
		}
		wg.Wait()
	}
	total := time.Since(start)
	return computeStats(total, latencies, failures)
}

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	opsPerS  float64
}

func computeStats(total time.Duration, samples []time.Duration, failures int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
		opsPerS:  float64(len(samples)) / total.Seconds(),
	}
}

func percentile(samples []time.Duration, p int) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	if p <= 0 {
		return samples[0]
	}
	if p >= 100 {
		return samples[len(samples)-1]
	}
	idx := (len(samples) - 1) * p / 100
	return samples[idx]
}

func printStats(name string, s phaseStats) {
	fmt.Printf("%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name,
		s.ops,
		s.failures,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}

// stubAPI is an in-process auth backend that mints sequential opaque
// tokens and counts upstream refresh calls.
type stubAPI struct {
	delay     time.Duration
	refreshes atomic.Int64
	seq       atomic.Int64
}

func (a *stubAPI) Login(ctx context.Context, email, password string) (*goSession.Credentials, error) {
	n := a.seq.Add(1)
	return &goSession.Credentials{
		TokenPair: goSession.TokenPair{
			AccessToken:  fmt.Sprintf("access-%d", n),
			RefreshToken: fmt.Sprintf("refresh-%d", n),
		},
		User: goSession.UserProfile{ID: "u1", DisplayName: "Stress User", Role: "member"},
	}, nil
}

func (a *stubAPI) Register(ctx context.Context, input goSession.RegisterInput) (*goSession.Credentials, error) {
	return a.Login(ctx, input.Email, input.Password)
}

func (a *stubAPI) Refresh(ctx context.Context, refreshToken string) (*goSession.TokenPair, error) {
	a.refreshes.Add(1)
	if a.delay > 0 {
		select {
		case <-time.After(a.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	n := a.seq.Add(1)
	return &goSession.TokenPair{
		AccessToken:  fmt.Sprintf("access-%d", n),
		RefreshToken: fmt.Sprintf("refresh-%d", n),
	}, nil
}

func (a *stubAPI) FetchProfile(ctx context.Context, accessToken string) (*goSession.UserProfile, error) {
	return &goSession.UserProfile{ID: "u1", DisplayName: "Stress User", Role: "member"}, nil
}
