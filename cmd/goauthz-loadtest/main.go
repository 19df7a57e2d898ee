package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/MrEthical07/goAuthz"
	"github.com/MrEthical07/goAuthz/credential"
	"github.com/MrEthical07/goAuthz/identity"
	"github.com/MrEthical07/goAuthz/permission"
)

type sessionState struct {
	mu  sync.Mutex
	pkg *goAuthz.TokenPackage
}

func main() {
	var (
		users       = flag.Int("users", 10000, "number of users to log in")
		concurrency = flag.Int("concurrency", 256, "number of concurrent workers")
		ops         = flag.Int("ops", 200000, "operations per phase (authorize + refresh)")
		redisAddr   = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
		prefix      = flag.String("prefix", "azlt", "record key prefix")
	)
	flag.Parse()

	if *users <= 0 || *concurrency <= 0 || *ops <= 0 {
		fmt.Fprintln(os.Stderr, "users, concurrency, and ops must be > 0")
		os.Exit(2)
	}

	ctx := context.Background()

	addr := *redisAddr
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}

	var (
		cleanup func()
		client  redis.UniversalClient
	)
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to start miniredis: %v\n", err)
			os.Exit(1)
		}
		addr = mr.Addr()
		client = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{addr},
		})
		cleanup = func() {
			_ = client.Close()
			mr.Close()
		}
		fmt.Printf("using miniredis at %s\n", addr)
	} else {
		client = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{addr},
		})
		cleanup = func() { _ = client.Close() }
		fmt.Printf("using redis at %s\n", addr)
	}
	defer cleanup()

	store := identity.NewMemoryStore()
	perms := permission.NewStaticSource()
	perms.Grant(permission.Grant{RoleID: "r-load", FunctionID: "f-load", Alias: "load", Permit: permission.Allow})
	for i := 0; i < *users; i++ {
		id := fmt.Sprintf("u-%d", i)
		store.Put(identity.User{ID: id, Account: accountFor(i), Password: "pw"})
		perms.Assign(permission.Membership{TenantID: "t1", UserID: id, RoleID: "r-load"})
	}

	cfg := goAuthz.DefaultConfig()
	cfg.Session.RedisPrefix = *prefix
	cfg.Code.TTL = time.Minute
	cfg.RateLimit.RefreshMaxCalls = *ops + 1

	engine, err := goAuthz.New().
		WithConfig(cfg).
		WithRedis(client).
		WithUserStore(store).
		WithRoleResolver(perms).
		WithFunctionSource(perms).
		Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "build engine: %v\n", err)
		os.Exit(1)
	}
	defer engine.Close()

	states := make([]sessionState, *users)
	fmt.Printf("logging in %d users...\n", *users)
	startSeed := time.Now()
	for i := 0; i < *users; i++ {
		pkg, err := login(ctx, engine, accountFor(i))
		if err != nil {
			fmt.Fprintf(os.Stderr, "login failed: %v\n", err)
			os.Exit(1)
		}
		states[i].pkg = pkg
	}
	fmt.Printf("logged in in %s\n", time.Since(startSeed).Round(time.Millisecond))

	authorizeStats := runPhase(ctx, states, *ops, *concurrency, 7919, func(ctx context.Context, state *sessionState) error {
		state.mu.Lock()
		bearer := state.pkg.AccessToken
		state.mu.Unlock()

		res, err := engine.Authorize(ctx, bearer, "f-load")
		if err != nil {
			return err
		}
		return res.Err()
	})
	refreshStats := runPhase(ctx, states, *ops, *concurrency, 6151, func(ctx context.Context, state *sessionState) error {
		state.mu.Lock()
		defer state.mu.Unlock()

		pkg, err := engine.Refresh(ctx, state.pkg.RefreshToken)
		if err != nil {
			return err
		}
		state.pkg = pkg
		return nil
	})

	fmt.Println("---- results ----")
	printStats("authorize", authorizeStats)
	printStats("refresh", refreshStats)
	snap := engine.MetricsSnapshot()
	fmt.Printf("metrics: authorize_ok=%d refresh_success=%d rate_limit_hit=%d\n",
		snap.Counters[goAuthz.MetricAuthorizeOK],
		snap.Counters[goAuthz.MetricRefreshSuccess],
		snap.Counters[goAuthz.MetricRateLimitHit],
	)
}

func accountFor(i int) string {
	return fmt.Sprintf("load-%d", i)
}

func login(ctx context.Context, engine *goAuthz.Engine, account string) (*goAuthz.TokenPackage, error) {
	code, err := engine.IssueCode(ctx, account, goAuthz.LoginPassword)
	if err != nil {
		return nil, err
	}
	return engine.IssueToken(ctx, goAuthz.TokenRequest{
		Signature: credential.Signature(credential.Hash(account+"pw"), code),
	})
}

func runPhase(ctx context.Context, states []sessionState, ops, concurrency int, seed int64, op func(context.Context, *sessionState) error) phaseStats {
	var (
		g         errgroup.Group
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		worker := w
		g.Go(func() error {
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*seed))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return nil
				}
				state := &states[r.Intn(len(states))]
				t0 := time.Now()
				err := op(ctx, state)
				d := time.Since(t0)
				if err != nil {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		})
	}
	_ = g.Wait()
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
