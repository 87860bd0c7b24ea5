package cancel

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	redisKeyPrefix = "comic:cancel:"
	// DefaultTTL はキャンセルフラグの保持期間です。
	DefaultTTL = 24 * time.Hour
)

// RedisFlag は Redis のキーでキャンセル要求を共有します。複数プロセス間で使えます。
type RedisFlag struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisFlag(rdb *redis.Client, ttl time.Duration) *RedisFlag {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisFlag{rdb: rdb, ttl: ttl}
}

// Key は実行IDに対応する Redis キーを返します。
func Key(runID string) string {
	return redisKeyPrefix + runID
}

func (f *RedisFlag) Cancel(ctx context.Context, runID string) error {
	if err := f.rdb.Set(ctx, Key(runID), "1", f.ttl).Err(); err != nil {
		return fmt.Errorf("キャンセルフラグの設定に失敗しました: %w", err)
	}
	return nil
}

// Canceled は Redis の読み出しに失敗した場合、実行を継続する側に倒します。
func (f *RedisFlag) Canceled(ctx context.Context, runID string) bool {
	n, err := f.rdb.Exists(ctx, Key(runID)).Result()
	if err != nil {
		slog.WarnContext(ctx, "キャンセルフラグの確認に失敗したのだ", "run_id", runID, "error", err)
		return false
	}
	return n > 0
}
