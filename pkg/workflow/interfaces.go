package workflow

import (
	"context"

	"github.com/shouni/go-comic-kit/pkg/domain"
	"github.com/shouni/go-comic-kit/pkg/generator"
)

// Planner は物語テキストからストーリーボードを作成します。
type Planner interface {
	Plan(ctx context.Context, story, style string, characterNames []string) (*domain.StoryboardPlan, error)
}

// PanelRenderer は1コマの画像を生成します。
type PanelRenderer interface {
	Render(ctx context.Context, req generator.PanelRequest) (*domain.Image, error)
}

// ReferenceResolver はアセットIDを画像付きアセットに解決します。
type ReferenceResolver interface {
	Resolve(ctx context.Context, ids []string, assets []domain.Asset) ([]domain.ResolvedAsset, error)
}

// BlobStore はブロブストアのうちワークフローが使う操作です。
type BlobStore interface {
	Put(ctx context.Context, img *domain.Image) (string, error)
	Get(ctx context.Context, key string) (*domain.Image, error)
}

// Observer は状態遷移イベントを受け取るコールバックです。実行中のゴルーチンから同期的に呼ばれます。
type Observer func(domain.StatusEvent)
