package builder

import (
	"errors"

	"github.com/shouni/go-comic-kit/internal/config"
	"github.com/shouni/go-comic-kit/pkg/cancel"
	"github.com/shouni/go-comic-kit/pkg/generator"
	"github.com/shouni/go-comic-kit/pkg/publisher"
	"github.com/shouni/go-comic-kit/pkg/store"
	"github.com/shouni/go-comic-kit/pkg/workflow"
)

// AppContext は、アプリケーション実行に必要な共通コンテキストを保持する
// これを各コマンドに渡すことで、依存関係の注入を簡素化します。
type AppContext struct {
	Config       *config.Config               // Configは、環境変数とフラグから組み立てた設定です。
	Store        store.Store                  // Storeは、画像を保存するブロブストアです。
	Canceler     cancel.Flag                  // Cancelerは、実行単位のキャンセルフラグです。
	Planner      *generator.StoryboardPlanner // Plannerは、物語からストーリーボードを作るプランナーです。AIを使わないコマンドでは nil です。
	Orchestrator *workflow.Orchestrator       // Orchestratorは、コマを順番に描画する実行本体です。AIを使わないコマンドでは nil です。
	Studio       *workflow.Studio             // Studioは、アセット生成と画像編集をまとめたサービスです。AIを使わないコマンドでは nil です。
	Publisher    *publisher.ComicPublisher    // Publisherは、プロジェクトを画像と Markdown に書き出します。
}

// Close は保持しているリソースを解放します。
func (a *AppContext) Close() error {
	if a == nil || a.Store == nil {
		return nil
	}
	if err := a.Store.Close(); err != nil {
		return errors.Join(errors.New("ブロブストアのクローズに失敗しました"), err)
	}
	return nil
}
