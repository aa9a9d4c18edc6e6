package repository

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"
)

const (
	// DefaultPageSize 列表默认页大小
	DefaultPageSize = 20
	// MaxPageSize 列表页大小上限，超出时被钳制
	MaxPageSize = 100
)

// ErrInvalidCursor 游标无法解析（非本服务签发或已损坏）
var ErrInvalidCursor = errors.New("invalid page cursor")

// PageRequest 分页参数：limit 为 0 时取默认值，cursor 为上一页返回的不透明令牌
type PageRequest struct {
	Limit  int
	Cursor string
}

func (p PageRequest) ClampedLimit() int {
	if p.Limit <= 0 {
		return DefaultPageSize
	}
	if p.Limit > MaxPageSize {
		return MaxPageSize
	}
	return p.Limit
}

// cursorKey 游标位置：status 仅用于按状态分段排序的列表，其余列表为空
type cursorKey struct {
	status string
	ts     time.Time
	id     string
}

func encodeCursor(k cursorKey) string {
	raw := fmt.Sprintf("%s|%d|%s", k.status, k.ts.UnixNano(), k.id)
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

func decodeCursor(token string) (cursorKey, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return cursorKey{}, ErrInvalidCursor
	}
	parts := strings.SplitN(string(raw), "|", 3)
	if len(parts) != 3 {
		return cursorKey{}, ErrInvalidCursor
	}
	nanos, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return cursorKey{}, ErrInvalidCursor
	}
	return cursorKey{status: parts[0], ts: time.Unix(0, nanos).UTC(), id: parts[2]}, nil
}

// cursorPage 对按 (created_at, id) 升序的查询执行 keyset 分页。
// 多取一行判断是否还有下一页，避免读取总数。
func cursorPage[T any](q *gorm.DB, p PageRequest, key func(*T) cursorKey) ([]*T, string, error) {
	limit := p.ClampedLimit()
	if p.Cursor != "" {
		k, err := decodeCursor(p.Cursor)
		if err != nil {
			return nil, "", err
		}
		q = q.Where("(created_at > ?) OR (created_at = ? AND id > ?)", k.ts, k.ts, k.id)
	}

	var rows []*T
	if err := q.Order("created_at ASC, id ASC").Limit(limit + 1).Find(&rows).Error; err != nil {
		return nil, "", err
	}
	next := ""
	if len(rows) > limit {
		rows = rows[:limit]
		next = encodeCursor(key(rows[limit-1]))
	}
	return rows, next, nil
}
