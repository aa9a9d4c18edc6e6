package service

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/soma-lab/relation-core/internal/model"
	"github.com/soma-lab/relation-core/internal/repository"
)

func newTestStore(t *testing.T) *repository.Store {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(
		&model.User{},
		&model.Follow{},
		&model.FriendshipInvitation{},
		&model.FanoutTask{},
		&model.UserCounterShard{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return repository.NewStore(db)
}

func createUser(t *testing.T, store *repository.Store, name string) *model.User {
	t.Helper()
	u := &model.User{Username: name, Email: fmt.Sprintf("%s@example.com", name)}
	if err := store.Users.Create(context.Background(), u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

type recordedEvent struct {
	Channel   string
	Kind      string
	ActorID   int64
	SubjectID int64
}

// recordingDispatcher 同步记录扇出事件，断言用
type recordingDispatcher struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (d *recordingDispatcher) Notify(ctx context.Context, kind string, actorID, subjectID int64) {
	d.record(model.FanoutChannelNotification, kind, actorID, subjectID)
}

func (d *recordingDispatcher) IndexSignal(ctx context.Context, kind string, actorID, subjectID int64) {
	d.record(model.FanoutChannelSearch, kind, actorID, subjectID)
}

func (d *recordingDispatcher) PromoteSignal(ctx context.Context, kind string, actorID, subjectID int64) {
	d.record(model.FanoutChannelPromote, kind, actorID, subjectID)
}

func (d *recordingDispatcher) record(channel, kind string, actorID, subjectID int64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, recordedEvent{Channel: channel, Kind: kind, ActorID: actorID, SubjectID: subjectID})
}

func (d *recordingDispatcher) kinds(channel string) []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []string
	for _, e := range d.events {
		if e.Channel == channel {
			out = append(out, e.Kind)
		}
	}
	return out
}

func (d *recordingDispatcher) reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = nil
}

func totals(t *testing.T, store *repository.Store, userID int64) (int, int) {
	t.Helper()
	followers, followings, err := store.Counters.Totals(context.Background(), userID)
	if err != nil {
		t.Fatalf("totals: %v", err)
	}
	return followers, followings
}
