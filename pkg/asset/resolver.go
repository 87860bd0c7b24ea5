package asset

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/shouni/go-comic-kit/pkg/domain"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

const (
	// DefaultCacheExpiration はデコード済み参照画像のキャッシュ保持時間です。
	DefaultCacheExpiration = 30 * time.Minute
	// DefaultCleanupInterval は期限切れエントリの掃除間隔です。
	DefaultCleanupInterval = 1 * time.Hour
)

// ImageGetter はブロブストアの読み出し側の契約です。存在しないキーは nil, nil を返します。
type ImageGetter interface {
	Get(ctx context.Context, key string) (*domain.Image, error)
}

// Resolver はアセットID参照を、画像データ付きのアセットに解決します。
// ストアのキーは不変なので、取得した画像はキーごとにキャッシュします。
type Resolver struct {
	store     ImageGetter
	imgCache  *cache.Cache
	fetchOnce singleflight.Group
	mu        sync.Mutex
	fetches   int
}

// NewResolver は Resolver を生成します。imgCache が nil なら既定の設定で作成します。
func NewResolver(store ImageGetter, imgCache *cache.Cache) *Resolver {
	if imgCache == nil {
		imgCache = cache.New(DefaultCacheExpiration, DefaultCleanupInterval)
	}
	return &Resolver{store: store, imgCache: imgCache}
}

// Resolve は ids の順序を保ったまま、assets に存在するアセットを解決して返します。
// assets に無いIDは黙って取り除きます。画像の取得はアセットごとに並列で行い、
// 取得に失敗した画像は nil として扱います。エラーを返すのはコンテキストが終了した場合だけです。
func (r *Resolver) Resolve(ctx context.Context, ids []string, assets []domain.Asset) ([]domain.ResolvedAsset, error) {
	byID := make(map[string]domain.Asset, len(assets))
	for _, a := range assets {
		byID[a.ID] = a
	}

	matched := make([]domain.Asset, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		a, ok := byID[id]
		if !ok {
			slog.DebugContext(ctx, "存在しないアセットIDを読み飛ばすのだ", "asset_id", id)
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		matched = append(matched, a)
	}

	resolved := make([]domain.ResolvedAsset, len(matched))
	eg, egCtx := errgroup.WithContext(ctx)
	for i, a := range matched {
		resolved[i] = domain.ResolvedAsset{Asset: a}
		if !a.HasImage() {
			continue
		}
		eg.Go(func() error {
			img, err := r.image(egCtx, a.ImageRef)
			if err != nil {
				if ctxErr := egCtx.Err(); ctxErr != nil {
					return ctxErr
				}
				slog.WarnContext(egCtx, "参照画像の取得に失敗したため画像なしで続行するのだ",
					"asset_id", a.ID, "image_ref", a.ImageRef, "error", err)
				return nil
			}
			resolved[i].Image = img
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, fmt.Errorf("参照アセットの解決が中断されました: %w", err)
	}
	return resolved, nil
}

// image はキャッシュを確認し、無ければ singleflight で1回だけストアから取得します。
func (r *Resolver) image(ctx context.Context, key string) (*domain.Image, error) {
	if v, ok := r.imgCache.Get(key); ok {
		return v.(*domain.Image).Clone(), nil
	}

	val, err, _ := r.fetchOnce.Do(key, func() (interface{}, error) {
		if v, ok := r.imgCache.Get(key); ok {
			return v, nil
		}
		r.mu.Lock()
		r.fetches++
		r.mu.Unlock()

		img, err := r.store.Get(ctx, key)
		if err != nil {
			return nil, err
		}
		if img == nil {
			// 見つからない画像はキャッシュしない
			return (*domain.Image)(nil), nil
		}
		r.imgCache.Set(key, img, cache.DefaultExpiration)
		return img, nil
	})
	if err != nil {
		return nil, err
	}

	img, ok := val.(*domain.Image)
	if !ok {
		return nil, fmt.Errorf("unexpected return type from singleflight: %T", val)
	}
	return img.Clone(), nil
}

// Fetches はストアへの実取得回数を返します。
func (r *Resolver) Fetches() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.fetches
}
