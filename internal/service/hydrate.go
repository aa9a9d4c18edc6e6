package service

import (
	"context"

	"github.com/soma-lab/relation-core/internal/cache"
	"github.com/soma-lab/relation-core/internal/repository"
)

// loadUserSnapshots 列表水合：先查缓存，未命中回源数据库并写回。
// snapshots 为 nil 时直接回源。
func loadUserSnapshots(ctx context.Context, store *repository.Store, snapshots *cache.Snapshots, ids []int64) (map[int64]*cache.UserSnapshot, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	result := make(map[int64]*cache.UserSnapshot, len(ids))
	misses := ids
	if snapshots != nil {
		var hits map[int64]*cache.UserSnapshot
		hits, misses = snapshots.GetMany(ctx, ids)
		for id, snap := range hits {
			result[id] = snap
		}
	}
	if len(misses) == 0 {
		return result, nil
	}
	users, err := store.Users.GetAll(ctx, misses)
	if err != nil {
		return nil, err
	}
	loaded := make([]*cache.UserSnapshot, 0, len(users))
	for _, u := range users {
		snap := cache.SnapshotOf(u)
		result[u.ID] = snap
		loaded = append(loaded, snap)
	}
	if snapshots != nil {
		snapshots.SetMany(ctx, loaded)
	}
	return result, nil
}
