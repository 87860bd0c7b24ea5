package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shouni/go-comic-kit/pkg/domain"
)

const (
	redisKeyPrefix   = "comic:blob:"
	redisDialTimeout = 10 * time.Second
	redisIOTimeout   = 30 * time.Second
)

// RedisStore は Redis に画像レコードを保存します。SETNX で既存キーを上書きしません。
type RedisStore struct {
	rdb *redis.Client
}

// NewRedisStore は URL から Redis に接続し、疎通を確認します。
func NewRedisStore(ctx context.Context, rawURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("Redis URL の解析に失敗しました: %w", err)
	}
	opts.DialTimeout = redisDialTimeout
	opts.ReadTimeout = redisIOTimeout
	opts.WriteTimeout = redisIOTimeout

	rdb := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, redisDialTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("Redis への接続確認に失敗しました: %w", err)
	}
	slog.InfoContext(ctx, "Redis ブロブストアに接続したのだ", "addr", opts.Addr)
	return &RedisStore{rdb: rdb}, nil
}

// Client は内部の Redis クライアントを返します。キャンセルフラグと接続を共有するために使います。
func (s *RedisStore) Client() *redis.Client {
	return s.rdb
}

func (s *RedisStore) Put(ctx context.Context, img *domain.Image) (string, error) {
	raw, err := encodeRecord(img)
	if err != nil {
		return "", err
	}
	key := NewKey()
	ok, err := s.rdb.SetNX(ctx, redisKeyPrefix+key, raw, 0).Result()
	if err != nil {
		return "", fmt.Errorf("Redis への書き込みに失敗しました: %w", err)
	}
	if !ok {
		return "", ErrKeyExists
	}
	return key, nil
}

func (s *RedisStore) Get(ctx context.Context, key string) (*domain.Image, error) {
	raw, err := s.rdb.Get(ctx, redisKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("Redis からの読み込みに失敗しました: %w", err)
	}
	return decodeRecord(raw)
}

func (s *RedisStore) Close() error {
	return s.rdb.Close()
}
