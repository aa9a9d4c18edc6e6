package main

import (
    "context"
    "fmt"
    "math"
    "os"
    "sort"
    "strconv"
    "time"

    "github.com/soma-lab/relation-core/config"
    "github.com/soma-lab/relation-core/internal/repository"
    "github.com/soma-lab/relation-core/internal/service"
    "github.com/soma-lab/relation-core/pkg/database"
    "github.com/soma-lab/relation-core/pkg/logger"
)

func must[T any](v T, err error) T { if err != nil { panic(err) }; return v }

func pct(vs []time.Duration, p float64) time.Duration {
    if len(vs) == 0 { return 0 }
    xs := append([]time.Duration(nil), vs...)
    sort.Slice(xs, func(i, j int) bool { return xs[i] < xs[j] })
    k := int(math.Ceil(p*float64(len(xs)))) - 1
    if k < 0 { k = 0 }
    if k >= len(xs) { k = len(xs)-1 }
    return xs[k]
}

// 丢弃型网关：基准只关心图写入与任务排空，不投递下游
type discardGateway struct{}

func (discardGateway) Enqueue(ctx context.Context, kind string, actorID, subjectID int64) error { return nil }
func (discardGateway) EnqueueUserAction(ctx context.Context, actorID, subjectID int64, kind string) error { return nil }
func (discardGateway) EnqueuePromotingAction(ctx context.Context, kind string, actorID, subjectID int64) error { return nil }

func main() {
    cfg := must(config.Load())
    if err := logger.Init("warn"); err != nil { panic(err) }
    db := must(database.InitDB(cfg))
    store := repository.NewStore(db)

    ctx := context.Background()

    N := 10000
    if s := os.Getenv("N"); s != "" {
        if n, err := strconv.Atoi(s); err == nil && n > 0 { N = n }
    }
    CONC := 1
    if s := os.Getenv("CONC"); s != "" {
        if c, err := strconv.Atoi(s); err == nil && c > 0 { CONC = c }
    }
    PAGE := 50
    if s := os.Getenv("PAGE"); s != "" {
        if p, err := strconv.Atoi(s); err == nil && p > 0 { PAGE = p }
    }

    dispatcher := service.NewQueueDispatcher(store.Tasks, 100000)
    stopDispatcher := dispatcher.Start(4)
    worker := service.NewFanoutWorker(store.Tasks, discardGateway{}, discardGateway{}, 4, 128, 20*time.Millisecond, 3)
    stopWorker := worker.Start()

    followingSvc := service.NewFollowingService(store, dispatcher, nil)
    datagen := service.NewDataGenService(store, followingSvc, dispatcher)

    // seed: u0 是大 V，其余用户全部关注 u0
    users := must(datagen.CreateFakeUsers(ctx, N+1, "bench"))
    celeb := users[0]
    fans := users[1:]

    recs := make([]time.Duration, 0, N)
    recCh := make(chan time.Duration, N)
    feed := make(chan int, N)
    for i := 0; i < N; i++ { feed <- i }
    close(feed)

    workers := CONC
    if workers > N { workers = N }
    done := make(chan struct{}, workers)
    t0 := time.Now()
    for w := 0; w < workers; w++ {
        go func() {
            for i := range feed {
                st := time.Now()
                _ = followingSvc.CreateFollowing(ctx, fans[i].ID, celeb.ID)
                recCh <- time.Since(st)
            }
            done <- struct{}{}
        }()
    }
    for w := 0; w < workers; w++ { <-done }
    close(recCh)
    for d := range recCh { recs = append(recs, d) }
    total := time.Since(t0)

    // 等扇出任务排空
    drainStart := time.Now()
    for {
        pending, err := store.Tasks.CountPending(ctx)
        if err != nil || pending == 0 { break }
        if time.Since(drainStart) > 2*time.Minute { break }
        time.Sleep(100 * time.Millisecond)
    }
    drain := time.Since(drainStart)

    q0 := time.Now()
    _, _ = followingSvc.ListFollowers(ctx, celeb.ID, repository.PageRequest{Limit: PAGE})
    followersDur := time.Since(q0)

    followers, _, _ := store.Counters.Totals(ctx, celeb.ID)

    fmt.Printf("N=%d, CONC=%d, PAGE=%d\n", N, CONC, PAGE)
    fmt.Printf("Follow latency total: %v, per op: %v, p50: %v, p95: %v, p99: %v\n",
        total, total/time.Duration(N), pct(recs, 0.50), pct(recs, 0.95), pct(recs, 0.99))
    fmt.Printf("Fanout drain: %v\n", drain)
    fmt.Printf("Query followers(%d) latency: %v\n", PAGE, followersDur)
    fmt.Printf("Celebrity follower count: %d\n", followers)

    _ = stopWorker(ctx)
    _ = stopDispatcher(ctx)
}
