package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/xela07ax/icu-console/internal/domain"
	"github.com/xela07ax/icu-console/internal/infra"
)

// SnapshotCache хранит последний зафиксированный снапшот в Redis, чтобы
// консоль после рестарта рендерилась сразу, не дожидаясь первого refresh.
// Кэш строго best-effort: любой его отказ — это warn в логе, не сбой консоли.
type SnapshotCache struct {
	rdb    *redis.Client
	key    string
	ttl    time.Duration
	logger *zap.Logger
}

func NewSnapshotCache(rdb *redis.Client, ttl time.Duration, logger *zap.Logger) *SnapshotCache {
	return &SnapshotCache{
		rdb:    rdb,
		key:    infra.RedisKeySnapshot,
		ttl:    ttl,
		logger: logger.Named("snapshot-cache"),
	}
}

// Save пишет снапшот асинхронно по смыслу: ошибки глотаются, вызывающий
// цикл синхронизации от Redis не зависит. nil-ресивер легален (кэш выключен).
func (c *SnapshotCache) Save(ctx context.Context, snap domain.Snapshot) {
	if c == nil || c.rdb == nil {
		return
	}
	data, err := json.Marshal(snap)
	if err != nil {
		c.logger.Warn("snapshot marshal failed", zap.Error(err))
		return
	}
	if err := c.rdb.Set(ctx, c.key, data, c.ttl).Err(); err != nil {
		c.logger.Warn("snapshot save failed", zap.Error(err))
	}
}

// Load читает последний сохраненный снапшот. Отсутствие ключа — не ошибка.
// Seq обнуляется: кэшированные данные всегда старее любого живого батча.
func (c *SnapshotCache) Load(ctx context.Context) (*domain.Snapshot, error) {
	if c == nil || c.rdb == nil {
		return nil, nil
	}
	data, err := c.rdb.Get(ctx, c.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var snap domain.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, err
	}
	snap.Seq = 0
	return &snap, nil
}
