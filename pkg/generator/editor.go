package generator

import (
	"context"
	"fmt"
	"strings"

	"github.com/shouni/go-comic-kit/pkg/domain"
	"github.com/shouni/go-comic-kit/pkg/prompts"
)

// ImageEditor は既存画像の編集と解析を行います。元の画像は変更しません。
type ImageEditor struct {
	gen      ImageGenerator
	analyzer ImageAnalyzer
}

func NewImageEditor(gen ImageGenerator, analyzer ImageAnalyzer) *ImageEditor {
	return &ImageEditor{gen: gen, analyzer: analyzer}
}

// Edit は指示に従って編集した新しい画像を返します。
func (e *ImageEditor) Edit(ctx context.Context, src *domain.Image, instruction string) (*domain.Image, error) {
	if src == nil {
		return nil, fmt.Errorf("編集元の画像がありません")
	}
	if strings.TrimSpace(instruction) == "" {
		return nil, fmt.Errorf("編集指示は必須です")
	}
	img, err := e.gen.GenerateImage(ctx, prompts.BuildEdit(instruction), []*domain.Image{src})
	if err != nil {
		return nil, fmt.Errorf("画像の編集に失敗しました: %w", err)
	}
	return img, nil
}

// Analyze は画像についての質問に答えるテキストを返します。
func (e *ImageEditor) Analyze(ctx context.Context, src *domain.Image, question string) (string, error) {
	if src == nil {
		return "", fmt.Errorf("解析対象の画像がありません")
	}
	if e.analyzer == nil {
		return "", fmt.Errorf("画像解析クライアントが設定されていません")
	}
	text, err := e.analyzer.AnalyzeImage(ctx, question, []*domain.Image{src})
	if err != nil {
		return "", fmt.Errorf("画像の解析に失敗しました: %w", err)
	}
	return strings.TrimSpace(text), nil
}
