package cmd

import (
	"fmt"
	"log/slog"

	"github.com/shouni/go-comic-kit/internal/builder"
	"github.com/shouni/go-comic-kit/pkg/domain"
	"github.com/shouni/go-comic-kit/pkg/project"
	"github.com/shouni/go-comic-kit/pkg/workflow"

	"github.com/spf13/cobra"
)

// assetCmd は、キャラクターシートやロケーションの参照画像を生成してプロジェクトに登録するのだ。
var assetCmd = &cobra.Command{
	Use:     "asset",
	Short:   "キャラクターやロケーションの参照画像を生成するのだ。",
	Example: `  comic-kit asset --kind character --name Zephyr --description "silver hair, red scarf"`,
	RunE:    assetCommand,
}

func init() {
	assetCmd.Flags().StringVarP(&opts.AssetKind, "kind", "k", string(domain.AssetCharacter), "アセットの種別（character または location）なのだ。")
	assetCmd.Flags().StringVarP(&opts.AssetName, "name", "n", "", "アセットの名前なのだ。")
	assetCmd.Flags().StringVarP(&opts.Description, "description", "d", "", "見た目の説明なのだ。")
	assetCmd.Flags().StringVarP(&opts.ReferenceKey, "reference", "r", "", "参照にする画像のブロブキーなのだ。")
	_ = assetCmd.MarkFlagRequired("name")
}

func assetCommand(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	kind := domain.AssetKind(opts.AssetKind)
	if !kind.Valid() {
		return fmt.Errorf("--kind は character か location を指定してほしいのだ: %q", opts.AssetKind)
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

	style := pinStyle(proj, opts.Style, app.Config.Style)
	a, err := app.Studio.CreateAsset(ctx, proj, workflow.AssetRequest{
		Kind:         kind,
		Name:         opts.AssetName,
		Description:  opts.Description,
		ReferenceKey: opts.ReferenceKey,
		Style:        style,
	})
	if err != nil {
		return fmt.Errorf("%sの生成に失敗したのだ: %w", kind.Label(), err)
	}
	if err := project.Save(opts.ProjectFile, proj); err != nil {
		return err
	}

	slog.InfoContext(ctx, "アセットを保存したのだ", "kind", a.Kind, "name", a.Name, "id", a.ID, "image_ref", a.ImageRef)
	fmt.Fprintln(cmd.OutOrStdout(), a.ImageRef)
	return nil
}
