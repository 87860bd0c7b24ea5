package cmd

import (
	"fmt"
	"os"

	"github.com/shouni/go-comic-kit/internal/builder"
	"github.com/shouni/go-comic-kit/pkg/project"

	"github.com/spf13/cobra"
)

// planCmd は、ストーリーボードの作成だけを行い、画像は生成しないのだ。
var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "物語テキストからストーリーボードだけを作成して YAML で出力するのだ。",
	Long: `物語テキストをページとコマに分解した計画を標準出力に YAML で書き出すのだ。
画像生成は行わないので、構成の確認に便利なのだ。`,
	RunE: planCommand,
}

func init() {
	planCmd.Flags().StringVarP(&opts.StoryFile, "story-file", "f", "", "物語テキストのパス（'-'で標準入力なのだ）。")
}

func planCommand(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	story, err := readStory(opts.StoryFile)
	if err != nil {
		return err
	}
	proj, err := project.Load(opts.ProjectFile)
	if err != nil {
		return err
	}

	app, err := buildApp(cmd, builder.BuildOptions{WithAI: true})
	if err != nil {
		return err
	}
	defer closeApp(app)

	roster := proj.CharacterRoster()
	plan, err := app.Planner.Plan(ctx, story, resolveStyle(proj, opts.Style, app.Config.Style), roster.Names())
	if err != nil {
		return fmt.Errorf("ストーリーボードの生成に失敗したのだ: %w", err)
	}

	raw, err := project.EncodePlan(plan)
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(raw)
	return err
}
