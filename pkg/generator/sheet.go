package generator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shouni/go-comic-kit/pkg/domain"
	"github.com/shouni/go-comic-kit/pkg/prompts"
)

// AssetSheetRequest はキャラクターシートやロケーション画像の生成依頼です。
type AssetSheetRequest struct {
	Kind        domain.AssetKind
	Name        string
	Description string
	Style       string
	Template    string
	Reference   *domain.Image
}

// AssetSheetGenerator はアセットの参照画像を生成します。
type AssetSheetGenerator struct {
	gen ImageGenerator
}

func NewAssetSheetGenerator(gen ImageGenerator) *AssetSheetGenerator {
	return &AssetSheetGenerator{gen: gen}
}

// Generate は参照画像を1枚生成します。
func (g *AssetSheetGenerator) Generate(ctx context.Context, req AssetSheetRequest) (*domain.Image, error) {
	if !req.Kind.Valid() {
		return nil, fmt.Errorf("不明なアセット種別です: %q", req.Kind)
	}
	if strings.TrimSpace(req.Name) == "" {
		return nil, fmt.Errorf("アセット名は必須です")
	}

	prompt := prompts.BuildAssetSheet(prompts.AssetSheetInput{
		Kind:         req.Kind,
		Name:         req.Name,
		Description:  req.Description,
		Style:        req.Style,
		Template:     req.Template,
		HasReference: req.Reference != nil,
	})

	var refs []*domain.Image
	if req.Reference != nil {
		refs = append(refs, req.Reference)
	}

	slog.InfoContext(ctx, "アセット画像を生成するのだ", "kind", req.Kind, "name", req.Name, "with_reference", req.Reference != nil)
	img, err := g.gen.GenerateImage(ctx, prompt, refs)
	if err != nil {
		return nil, fmt.Errorf("アセット画像 %q の生成に失敗しました: %w", req.Name, err)
	}
	return img, nil
}
