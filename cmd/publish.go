package cmd

import (
	"github.com/shouni/go-comic-kit/internal/builder"
	"github.com/shouni/go-comic-kit/internal/config"
	"github.com/shouni/go-comic-kit/pkg/project"

	"github.com/spf13/cobra"
)

// publishCmd は、プロジェクトのコマ画像とストーリーボード Markdown を書き出すのだ。
// AI は使わないので GEMINI_API_KEY は不要なのだ。
var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "プロジェクトを画像と Markdown に書き出すのだ。",
	RunE:  publishCommand,
}

func init() {
	publishCmd.Flags().StringVarP(&opts.OutputDir, "out", "o", config.DefaultPublishDir, "書き出し先のディレクトリなのだ。")
	publishCmd.Flags().BoolVar(&opts.HTML, "html", false, "HTML も生成するのだ。")
}

func publishCommand(cmd *cobra.Command, args []string) error {
	proj, err := project.Load(opts.ProjectFile)
	if err != nil {
		return err
	}
	app, err := buildApp(cmd, builder.BuildOptions{})
	if err != nil {
		return err
	}
	defer closeApp(app)

	return publishProject(cmd, app, proj)
}
