package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/shouni/go-comic-kit/internal/builder"
	"github.com/shouni/go-comic-kit/internal/config"

	"github.com/spf13/cobra"
)

const appName = "comic-kit"

// opts は各サブコマンドのフラグが書き込む実行時パラメータなのだ。
var opts config.GenerateOptions

var rootCmd = &cobra.Command{
	Use:           appName,
	Short:         "物語からストーリーボードを作り、コマ画像を1枚ずつ生成するのだ。",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		setupLogger(opts.Verbose)
		return config.LoadEnv()
	},
}

// addAppFlags は、アプリケーション全般に適用されるグローバルフラグを定義するのだ。
func addAppFlags(rootCmd *cobra.Command) {
	rootCmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "デバッグログを出力するのだ。")
	rootCmd.PersistentFlags().StringVarP(&opts.ProjectFile, "project", "p", config.DefaultProjectFile, "プロジェクトYAMLのパスなのだ。")
	rootCmd.PersistentFlags().StringVar(&opts.Style, "style", "", "画風を指定するのだ（未指定ならプロジェクトの画風）。")
}

func init() {
	addAppFlags(rootCmd)
	rootCmd.AddCommand(storyCmd, planCmd, assetCmd, editCmd, analyzeCmd, publishCmd, serveCmd)
}

func setupLogger(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

// loadConfig は環境変数を読み込み、フラグで上書きした設定を返すのだ。
func loadConfig(cmd *cobra.Command) *config.Config {
	cfg := config.LoadConfig()
	cfg.ApplyOptions(opts, cmd.Flags().Changed("interval"))
	return cfg
}

// buildApp は設定を検証してアプリケーションを組み立てるのだ。
// Gemini APIを利用するコマンドでは、APIキーの存在チェックは欠かせないのだ！
func buildApp(cmd *cobra.Command, bo builder.BuildOptions) (*builder.AppContext, error) {
	cfg := loadConfig(cmd)
	app, err := builder.BuildAppContext(cmd.Context(), cfg, bo)
	if err != nil {
		return nil, fmt.Errorf("アプリケーションの初期化に失敗したのだ: %w", err)
	}
	return app, nil
}

func closeApp(app *builder.AppContext) {
	if err := app.Close(); err != nil {
		slog.Warn("リソースの解放に失敗したのだ", "error", err)
	}
}

// Execute は、アプリケーションのメインエントリポイントなのだ。
// main.go から呼び出されて、cobra のコマンドライン解析を開始するのだよ。
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		slog.Error("コマンドの実行に失敗したのだ", "error", err)
		stop()
		os.Exit(1)
	}
}
