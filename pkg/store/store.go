// Package store は生成画像を保存するブロブストアを提供します。
// 保存は追記のみで、既存キーの上書きは行いません。
package store

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shouni/go-comic-kit/pkg/domain"
)

// ErrKeyExists は既に存在するキーへの書き込みを示します。
var ErrKeyExists = errors.New("blob key already exists")

// Store は画像ブロブの保存先です。Get は存在しないキーに対して nil, nil を返します。
type Store interface {
	Put(ctx context.Context, img *domain.Image) (string, error)
	Get(ctx context.Context, key string) (*domain.Image, error)
	Close() error
}

// NewKey は img_<unixミリ秒>_<ランダム> 形式のキーを生成します。
func NewKey() string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return fmt.Sprintf("img_%d_%s", time.Now().UnixMilli(), id[:9])
}

// record はファイルや Redis に保存する永続化形式です。
type record struct {
	Base64   string `json:"base64"`
	MIMEType string `json:"mimeType"`
}

func validateImage(img *domain.Image) error {
	if img == nil || len(img.Data) == 0 {
		return errors.New("空の画像は保存できません")
	}
	return nil
}

func encodeRecord(img *domain.Image) ([]byte, error) {
	if err := validateImage(img); err != nil {
		return nil, err
	}
	mime := img.MIMEType
	if mime == "" {
		mime = domain.DefaultImageMIMEType
	}
	return json.Marshal(record{
		Base64:   base64.StdEncoding.EncodeToString(img.Data),
		MIMEType: mime,
	})
}

func decodeRecord(raw []byte) (*domain.Image, error) {
	var rec record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("画像レコードのデコードに失敗しました: %w", err)
	}
	data, err := base64.StdEncoding.DecodeString(rec.Base64)
	if err != nil {
		return nil, fmt.Errorf("画像データの base64 デコードに失敗しました: %w", err)
	}
	return &domain.Image{Data: data, MIMEType: rec.MIMEType}, nil
}

// Open は URL のスキームに応じたストアを開きます。
//
//	memory://            プロセス内メモリ
//	file:///path/to/dir  ローカルディレクトリ（スキーム無しのパスも可）
//	redis://host:6379/0  Redis
func Open(ctx context.Context, rawURL string) (Store, error) {
	switch {
	case rawURL == "memory://" || rawURL == "memory":
		return NewMemoryStore(), nil
	case strings.HasPrefix(rawURL, "redis://"), strings.HasPrefix(rawURL, "rediss://"):
		return NewRedisStore(ctx, rawURL)
	default:
		dir := strings.TrimPrefix(rawURL, "file://")
		if dir == "" {
			return nil, fmt.Errorf("ブロブストアの URL が空です")
		}
		return NewFileStore(dir)
	}
}
