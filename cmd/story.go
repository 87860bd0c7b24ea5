package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/shouni/go-comic-kit/internal/builder"
	"github.com/shouni/go-comic-kit/pkg/domain"
	"github.com/shouni/go-comic-kit/pkg/project"
	"github.com/shouni/go-comic-kit/pkg/publisher"
	"github.com/shouni/go-comic-kit/pkg/workflow"

	"github.com/spf13/cobra"
)

// storyCmd は、物語からストーリーボードを作り、全コマを順番に生成してプロジェクトに追加するのだ！
var storyCmd = &cobra.Command{
	Use:   "story",
	Short: "物語テキストから漫画のページを生成してプロジェクトに追加するのだ。",
	Long: `物語テキストをストーリーボード（ページとコマ）に分解し、コマ画像を1枚ずつ生成するのだ。
同じページの中では直前のコマを参照して絵の連続性を保つのだよ。
生成に成功したコマだけがプロジェクトYAMLに追加されるのだ。`,
	Example: "  comic-kit story --story-file story.txt --project output/comic.yaml --style Manga",
	RunE:    storyCommand,
}

func init() {
	storyCmd.Flags().StringVarP(&opts.StoryFile, "story-file", "f", "", "物語テキストのパス（'-'で標準入力なのだ）。")
	storyCmd.Flags().DurationVar(&opts.Interval, "interval", 0, "コマ生成の最小間隔なのだ（未指定なら PANEL_INTERVAL）。")
	storyCmd.Flags().StringVarP(&opts.OutputDir, "out", "o", "", "指定すると生成後にこのディレクトリへ書き出すのだ。")
	storyCmd.Flags().BoolVar(&opts.HTML, "html", false, "書き出し時に HTML も生成するのだ。")
}

// storyCommand は、story サブコマンドの実行ロジック本体なのだ。
func storyCommand(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	story, err := readStory(opts.StoryFile)
	if err != nil {
		return err
	}
	proj, err := project.Load(opts.ProjectFile)
	if err != nil {
		return err
	}

	app, err := buildApp(cmd, builder.BuildOptions{WithAI: true, Observer: logProgress})
	if err != nil {
		return err
	}
	defer closeApp(app)

	style := pinStyle(proj, opts.Style, app.Config.Style)
	slog.InfoContext(ctx, "漫画の生成を開始するのだ！",
		"project", opts.ProjectFile,
		"style", style,
		"characters", len(proj.Characters),
		"interval", app.Config.PanelInterval)

	res, err := app.Orchestrator.Run(ctx, workflow.RunRequest{
		Story:         story,
		Style:         style,
		Characters:    proj.CharacterRoster(),
		Locations:     proj.LocationRoster(),
		PanelTemplate: proj.PromptTemplates.Panel,
	})
	if err != nil {
		var pe *domain.PlanningError
		if errors.As(err, &pe) && pe.RateLimited() {
			return fmt.Errorf("%s: %w", pe.Hint(), err)
		}
		return fmt.Errorf("ストーリーボードの生成に失敗したのだ: %w", err)
	}

	pages := workflow.CommitPages(res)
	proj.AppendPages(pages)
	if err := project.Save(opts.ProjectFile, proj); err != nil {
		return err
	}

	slog.InfoContext(ctx, "生成が完了したのだ！",
		"done", res.Count(domain.StatusDone),
		"error", res.Count(domain.StatusError),
		"pending", res.Count(domain.StatusPending),
		"pages_added", len(pages),
		"canceled", res.Canceled)

	if opts.OutputDir != "" {
		return publishProject(cmd, app, proj)
	}
	return nil
}

// resolveStyle は --style、プロジェクトに保存された画風、環境変数の順に画風を決めるのだ。
func resolveStyle(proj *domain.Project, flagStyle, envStyle string) string {
	if s := strings.TrimSpace(flagStyle); s != "" {
		return s
	}
	if s := strings.TrimSpace(proj.Style); s != "" {
		return s
	}
	return envStyle
}

// pinStyle は画風を決め、プロジェクトに未設定ならその画風で固定するのだ。
func pinStyle(proj *domain.Project, flagStyle, envStyle string) string {
	style := resolveStyle(proj, flagStyle, envStyle)
	if strings.TrimSpace(proj.Style) == "" {
		proj.Style = style
	}
	return style
}

func logProgress(ev domain.StatusEvent) {
	if !ev.To.Terminal() {
		return
	}
	slog.Info("進捗なのだ",
		"page", ev.PageIndex+1,
		"panel", ev.PanelIndex+1,
		"status", ev.To,
		"progress", fmt.Sprintf("%d/%d", ev.Completed, ev.Total))
}

func publishProject(cmd *cobra.Command, app *builder.AppContext, proj *domain.Project) error {
	res, err := app.Publisher.Publish(cmd.Context(), proj, publisher.Options{OutputDir: opts.OutputDir, HTML: opts.HTML})
	if err != nil {
		return fmt.Errorf("書き出しに失敗したのだ: %w", err)
	}
	slog.Info("書き出しが完了したのだ", "markdown", res.MarkdownPath, "html", res.HTMLPath, "images", len(res.ImagePaths), "missing", len(res.Missing))
	return nil
}

// readStory はファイルまたは標準入力から物語テキストを読み込むのだ。
func readStory(path string) (string, error) {
	var raw []byte
	var err error
	switch {
	case path == "-" || (path == "" && isStdin()):
		raw, err = io.ReadAll(os.Stdin)
	case path == "":
		return "", fmt.Errorf("物語テキスト（--story-file）を指定してほしいのだ")
	default:
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("物語テキストの読み込みに失敗しました: %w", err)
	}
	story := strings.TrimSpace(string(raw))
	if story == "" {
		return "", fmt.Errorf("物語テキストが空なのだ")
	}
	return story, nil
}

func isStdin() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}
