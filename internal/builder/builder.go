package builder

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shouni/go-comic-kit/internal/config"
	"github.com/shouni/go-comic-kit/pkg/asset"
	"github.com/shouni/go-comic-kit/pkg/cancel"
	"github.com/shouni/go-comic-kit/pkg/gemini"
	"github.com/shouni/go-comic-kit/pkg/generator"
	"github.com/shouni/go-comic-kit/pkg/prompts"
	"github.com/shouni/go-comic-kit/pkg/publisher"
	"github.com/shouni/go-comic-kit/pkg/store"
	"github.com/shouni/go-comic-kit/pkg/workflow"
	"google.golang.org/genai"
)

const (
	defaultGeminiTemperature = float32(0.7)
	cancelFlagTTL            = 24 * time.Hour
)

// BuildOptions は構築時の追加設定です。
type BuildOptions struct {
	// WithAI が false の場合は Gemini クライアントを作らないのだ（publish など）。
	WithAI bool
	// Observer はすべての実行のイベントを受け取ります。
	Observer workflow.Observer
}

// BuildAppContext は設定からストア、キャンセルフラグ、生成系の部品をすべて組み立てます。
func BuildAppContext(ctx context.Context, cfg *config.Config, opts BuildOptions) (*AppContext, error) {
	if err := cfg.Validate(opts.WithAI); err != nil {
		return nil, err
	}

	bs, err := store.Open(ctx, cfg.BlobStoreURL)
	if err != nil {
		return nil, fmt.Errorf("ブロブストアの初期化に失敗しました: %w", err)
	}
	app := &AppContext{
		Config:    cfg,
		Store:     bs,
		Canceler:  buildCanceler(bs),
		Publisher: publisher.NewComicPublisher(publisher.LocalWriter{}, bs),
	}
	if !opts.WithAI {
		return app, nil
	}

	client, err := InitializeAIClient(ctx, cfg)
	if err != nil {
		_ = app.Close()
		return nil, err
	}

	textBuilder, err := prompts.NewTextPromptBuilder()
	if err != nil {
		_ = app.Close()
		return nil, fmt.Errorf("プロンプトビルダーの初期化に失敗しました: %w", err)
	}

	app.Planner = generator.NewStoryboardPlanner(client, textBuilder)
	panelClient := client.WithAspectRatio(generator.PanelAspectRatio)
	renderer := generator.NewPanelRenderer(panelClient, prompts.NewPanelPromptBuilder(""))
	resolver := asset.NewResolver(bs, nil)

	app.Orchestrator = workflow.NewOrchestrator(app.Planner, renderer, resolver, bs, workflow.Options{
		Interval: cfg.PanelInterval,
		Canceler: app.Canceler,
		Observer: opts.Observer,
	})
	app.Studio = workflow.NewStudio(
		generator.NewAssetSheetGenerator(client.WithAspectRatio(generator.SheetAspectRatio)),
		generator.NewImageEditor(client, client),
		bs,
	)

	slog.DebugContext(ctx, "アプリケーションを構築したのだ",
		"text_model", cfg.GeminiModel,
		"image_model", cfg.GeminiImageModel,
		"blob_store", cfg.BlobStoreURL,
		"interval", cfg.PanelInterval)
	return app, nil
}

// buildCanceler はストアが Redis ならキャンセルフラグも同じ Redis に置き、それ以外はプロセス内で持ちます。
func buildCanceler(bs store.Store) cancel.Flag {
	if rs, ok := bs.(*store.RedisStore); ok {
		return cancel.NewRedisFlag(rs.Client(), cancelFlagTTL)
	}
	return cancel.NewMemoryFlag()
}

// InitializeAIClient は gemini クライアントを初期化します。
func InitializeAIClient(ctx context.Context, cfg *config.Config) (*gemini.Client, error) {
	client, err := gemini.NewClient(ctx, gemini.Config{
		APIKey:        cfg.GeminiAPIKey,
		TextModel:     cfg.GeminiModel,
		ImageModel:    cfg.GeminiImageModel,
		AnalysisModel: cfg.GeminiAnalysisModel,
		Temperature:   genai.Ptr(defaultGeminiTemperature),
	})
	if err != nil {
		return nil, fmt.Errorf("AIクライアントの初期化に失敗しました: %w", err)
	}
	return client, nil
}
