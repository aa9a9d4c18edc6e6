package repository

import (
	"context"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/soma-lab/relation-core/internal/model"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db handle: %v", err)
	}
	// 内存库每个连接各自独立，收紧到单连接
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
	return db
}

func seedUsers(t *testing.T, db *gorm.DB, n int) []*model.User {
	t.Helper()
	repo := NewUserRepository(db)
	users := make([]*model.User, 0, n)
	for i := 0; i < n; i++ {
		u := &model.User{
			Username: "user",
			Email:    "user@example.com",
		}
		if err := repo.Create(context.Background(), u); err != nil {
			t.Fatalf("seed user: %v", err)
		}
		users = append(users, u)
	}
	return users
}
