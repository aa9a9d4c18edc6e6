package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soma-lab/relation-core/internal/model"
)

func TestSingleCounterStore(t *testing.T) {
	db := setupTestDB(t)
	users := seedUsers(t, db, 1)
	store := NewSingleCounterStore(NewUserRepository(db))
	ctx := context.Background()
	id := users[0].ID

	require.NoError(t, store.AddFollowers(ctx, id, 3))
	require.NoError(t, store.AddFollowings(ctx, id, 1))

	followers, followings, err := store.Totals(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 3, followers)
	assert.Equal(t, 1, followings)
}

func TestSingleCounterStoreClampsAtZero(t *testing.T) {
	db := setupTestDB(t)
	users := seedUsers(t, db, 1)
	store := NewSingleCounterStore(NewUserRepository(db))
	ctx := context.Background()
	id := users[0].ID

	require.NoError(t, store.AddFollowers(ctx, id, 1))
	// 重复递减不得出现负数
	require.NoError(t, store.AddFollowers(ctx, id, -1))
	require.NoError(t, store.AddFollowers(ctx, id, -1))
	require.NoError(t, store.AddFollowings(ctx, id, -5))

	followers, followings, err := store.Totals(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 0, followers)
	assert.Equal(t, 0, followings)
}

func TestSingleCounterStoreUnknownUser(t *testing.T) {
	db := setupTestDB(t)
	store := NewSingleCounterStore(NewUserRepository(db))

	followers, followings, err := store.Totals(context.Background(), 404)
	require.NoError(t, err)
	assert.Zero(t, followers)
	assert.Zero(t, followings)
}

func TestShardedCounterStoreTotals(t *testing.T) {
	db := setupTestDB(t)
	users := seedUsers(t, db, 1)
	store := NewShardedCounterStore(db, NewUserRepository(db), 4)
	ctx := context.Background()
	id := users[0].ID

	for i := 0; i < 20; i++ {
		require.NoError(t, store.AddFollowers(ctx, id, 1))
	}
	require.NoError(t, store.AddFollowings(ctx, id, 2))
	require.NoError(t, store.AddFollowers(ctx, id, -3))

	followers, followings, err := store.Totals(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 17, followers)
	assert.Equal(t, 2, followings)
}

func TestShardedCounterStoreReconcile(t *testing.T) {
	db := setupTestDB(t)
	users := seedUsers(t, db, 1)
	userRepo := NewUserRepository(db)
	store := NewShardedCounterStore(db, userRepo, 4)
	ctx := context.Background()
	id := users[0].ID

	for i := 0; i < 10; i++ {
		require.NoError(t, store.AddFollowers(ctx, id, 1))
	}
	require.NoError(t, store.AddFollowings(ctx, id, 4))

	require.NoError(t, store.Reconcile(ctx, id))

	// 折叠后基值落在 users 行，分片清零
	u, err := userRepo.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 10, u.NumberOfFollowers)
	assert.Equal(t, 4, u.NumberOfFollowings)

	var sum struct{ Followers, Followings int }
	require.NoError(t, db.Model(&model.UserCounterShard{}).
		Select("COALESCE(SUM(followers),0) AS followers, COALESCE(SUM(followings),0) AS followings").
		Where("user_id = ?", id).
		Scan(&sum).Error)
	assert.Zero(t, sum.Followers)
	assert.Zero(t, sum.Followings)

	// 折叠不改变对外读数
	followers, followings, err := store.Totals(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 10, followers)
	assert.Equal(t, 4, followings)
}
