package cmd

import (
	"context"
	"log/slog"
	"sync"

	"github.com/shouni/go-comic-kit/internal/builder"
	"github.com/shouni/go-comic-kit/pkg/project"
	"github.com/shouni/go-comic-kit/pkg/server"
	"github.com/shouni/go-comic-kit/pkg/workflow"

	"github.com/spf13/cobra"
)

var serveAddr string

// serveCmd は、実行の開始、進捗の配信、キャンセルを受け付ける HTTP API を起動するのだ。
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "HTTP API サーバーを起動するのだ。",
	Long: `POST /api/runs で物語を受け付けてバックグラウンドで生成し、
GET /api/runs/{id}/events の WebSocket で状態の変化を配信するのだ。
--project を指定すると、成功したコマをそのプロジェクトに追加するのだ。`,
	RunE: serveCommand,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "待ち受けアドレスなのだ（未指定なら SERVER_ADDR）。")
	serveCmd.Flags().DurationVar(&opts.Interval, "interval", 0, "コマ生成の最小間隔なのだ（未指定なら PANEL_INTERVAL）。")
}

func serveCommand(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	app, err := buildApp(cmd, builder.BuildOptions{WithAI: true})
	if err != nil {
		return err
	}
	defer closeApp(app)

	srv := server.New(ctx, app.Orchestrator, app.Store, app.Canceler)
	srv.DefaultStyle = app.Config.Style
	if cmd.Flags().Changed("project") {
		srv.OnCommit = projectCommitter(opts.ProjectFile)
	}

	addr := serveAddr
	if addr == "" {
		addr = app.Config.ServerAddr
	}
	return srv.ListenAndServe(ctx, addr)
}

// projectCommitter は実行結果の成功したコマをプロジェクトYAMLに追加する関数を返すのだ。
func projectCommitter(path string) func(context.Context, *workflow.RunResult) {
	var mu sync.Mutex
	return func(ctx context.Context, res *workflow.RunResult) {
		pages := workflow.CommitPages(res)
		if len(pages) == 0 {
			return
		}
		mu.Lock()
		defer mu.Unlock()

		proj, err := project.Load(path)
		if err != nil {
			slog.ErrorContext(ctx, "プロジェクトの読み込みに失敗したのだ", "run_id", res.RunID, "error", err)
			return
		}
		proj.AppendPages(pages)
		if err := project.Save(path, proj); err != nil {
			slog.ErrorContext(ctx, "プロジェクトの保存に失敗したのだ", "run_id", res.RunID, "error", err)
			return
		}
		slog.InfoContext(ctx, "プロジェクトにページを追加したのだ", "run_id", res.RunID, "pages", len(pages))
	}
}
