package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/soma-lab/relation-core/internal/model"
	"github.com/soma-lab/relation-core/pkg/logger"
)

// UserSnapshot 列表页所需的最小用户信息
type UserSnapshot struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	About    string `json:"about"`
}

func SnapshotOf(u *model.User) *UserSnapshot {
	return &UserSnapshot{ID: u.ID, Username: u.Username, Email: u.Email, About: u.About}
}

// Snapshots 用户快照缓存：列表水合时按 id 批量 MGET，未命中回源后写回。
// 缓存故障只记日志，读路径退化为直查数据库。
type Snapshots struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSnapshots(client *redis.Client, ttl time.Duration) *Snapshots {
	return &Snapshots{client: client, ttl: ttl}
}

func snapshotKey(id int64) string { return fmt.Sprintf("user:snapshot:%d", id) }

// GetMany 返回命中的快照（按 id 索引）与未命中的 id 列表
func (s *Snapshots) GetMany(ctx context.Context, ids []int64) (map[int64]*UserSnapshot, []int64) {
	if len(ids) == 0 {
		return nil, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = snapshotKey(id)
	}
	vals, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		logger.Warn("snapshot cache read failed", zap.Error(err))
		return nil, ids
	}
	hits := make(map[int64]*UserSnapshot, len(ids))
	var misses []int64
	for i, v := range vals {
		raw, ok := v.(string)
		if !ok {
			misses = append(misses, ids[i])
			continue
		}
		var snap UserSnapshot
		if err := json.Unmarshal([]byte(raw), &snap); err != nil {
			misses = append(misses, ids[i])
			continue
		}
		hits[ids[i]] = &snap
	}
	return hits, misses
}

// SetMany 写回快照，失败仅告警
func (s *Snapshots) SetMany(ctx context.Context, snaps []*UserSnapshot) {
	if len(snaps) == 0 {
		return
	}
	pipe := s.client.Pipeline()
	for _, snap := range snaps {
		payload, err := json.Marshal(snap)
		if err != nil {
			continue
		}
		pipe.Set(ctx, snapshotKey(snap.ID), payload, s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		logger.Warn("snapshot cache write failed", zap.Error(err))
	}
}

// Invalidate 用户主档变更后失效
func (s *Snapshots) Invalidate(ctx context.Context, ids ...int64) {
	if len(ids) == 0 {
		return
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = snapshotKey(id)
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		logger.Warn("snapshot cache invalidate failed", zap.Error(err))
	}
}
