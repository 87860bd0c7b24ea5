package cmd

import (
	"fmt"
	"log/slog"

	"github.com/shouni/go-comic-kit/internal/builder"

	"github.com/spf13/cobra"
)

// editCmd は、保存済みの画像を指示に従って編集し、新しいキーで保存するのだ。
// 元の画像は上書きしないのだ。
var editCmd = &cobra.Command{
	Use:   "edit",
	Short: "保存済みの画像を編集して新しいキーで保存するのだ。",
	RunE:  editCommand,
}

// analyzeCmd は、保存済みの画像について質問し、回答を出力するのだ。
var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "保存済みの画像について質問するのだ。",
	RunE:  analyzeCommand,
}

func init() {
	editCmd.Flags().StringVarP(&opts.ImageKey, "key", "k", "", "編集する画像のブロブキーなのだ。")
	editCmd.Flags().StringVarP(&opts.Instruction, "instruction", "i", "", "編集の指示なのだ。")
	_ = editCmd.MarkFlagRequired("key")
	_ = editCmd.MarkFlagRequired("instruction")

	analyzeCmd.Flags().StringVarP(&opts.ImageKey, "key", "k", "", "解析する画像のブロブキーなのだ。")
	analyzeCmd.Flags().StringVarP(&opts.Question, "question", "q", "", "画像についての質問なのだ。")
	_ = analyzeCmd.MarkFlagRequired("key")
	_ = analyzeCmd.MarkFlagRequired("question")
}

func editCommand(cmd *cobra.Command, args []string) error {
	app, err := buildApp(cmd, builder.BuildOptions{WithAI: true})
	if err != nil {
		return err
	}
	defer closeApp(app)

	newKey, err := app.Studio.EditImage(cmd.Context(), opts.ImageKey, opts.Instruction)
	if err != nil {
		return fmt.Errorf("画像の編集に失敗したのだ: %w", err)
	}
	slog.Info("編集した画像を保存したのだ", "source", opts.ImageKey, "image_ref", newKey)
	fmt.Fprintln(cmd.OutOrStdout(), newKey)
	return nil
}

func analyzeCommand(cmd *cobra.Command, args []string) error {
	app, err := buildApp(cmd, builder.BuildOptions{WithAI: true})
	if err != nil {
		return err
	}
	defer closeApp(app)

	answer, err := app.Studio.AnalyzeImage(cmd.Context(), opts.ImageKey, opts.Question)
	if err != nil {
		return fmt.Errorf("画像の解析に失敗したのだ: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), answer)
	return nil
}
