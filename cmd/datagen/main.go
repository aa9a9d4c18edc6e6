package main

import (
    "context"
    "fmt"
    "math/rand"
    "os"
    "strconv"

    "github.com/soma-lab/relation-core/config"
    "github.com/soma-lab/relation-core/internal/repository"
    "github.com/soma-lab/relation-core/internal/service"
    "github.com/soma-lab/relation-core/pkg/database"
    "github.com/soma-lab/relation-core/pkg/logger"
)

func must[T any](v T, err error) T { if err != nil { panic(err) }; return v }

// 造数工具：生成假用户、随机关注与预确认好友对
func main() {
    cfg := must(config.Load())
    if err := logger.Init(cfg.Log.Level); err != nil { panic(err) }
    db := must(database.InitDB(cfg))
    store := repository.NewStore(db)

    ctx := context.Background()

    USERS := 100
    FOLLOWS := 300
    FRIENDS := 50
    if s := os.Getenv("USERS"); s != "" {
        if v, err := strconv.Atoi(s); err == nil && v > 0 { USERS = v }
    }
    if s := os.Getenv("FOLLOWS"); s != "" {
        if v, err := strconv.Atoi(s); err == nil && v > 0 { FOLLOWS = v }
    }
    if s := os.Getenv("FRIENDS"); s != "" {
        if v, err := strconv.Atoi(s); err == nil && v > 0 { FRIENDS = v }
    }

    dispatcher := service.NewQueueDispatcher(store.Tasks, 100000)
    stop := dispatcher.Start(2)
    followingSvc := service.NewFollowingService(store, dispatcher, nil)
    datagen := service.NewDataGenService(store, followingSvc, dispatcher)

    users := must(datagen.CreateFakeUsers(ctx, USERS, "fake"))
    fmt.Printf("created %d users\n", len(users))

    created := 0
    for i := 0; i < FOLLOWS; i++ {
        from := users[rand.Intn(len(users))]
        to := users[rand.Intn(len(users))]
        if from.ID == to.ID { continue }
        if err := followingSvc.CreateFollowing(ctx, from.ID, to.ID); err == nil { created++ }
    }
    fmt.Printf("created %d followings\n", created)

    paired := 0
    for i := 0; i < FRIENDS; i++ {
        a := users[rand.Intn(len(users))]
        b := users[rand.Intn(len(users))]
        if a.ID == b.ID { continue }
        if err := datagen.CreateFakeFriendship(ctx, a.ID, b.ID); err == nil { paired++ }
    }
    fmt.Printf("created %d friendships\n", paired)

    _ = stop(ctx)
}
