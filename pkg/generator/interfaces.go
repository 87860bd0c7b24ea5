package generator

import (
	"context"

	"github.com/shouni/go-comic-kit/pkg/domain"
	"google.golang.org/genai"
)

// StructuredGenerator はレスポンススキーマ付きのテキスト生成を行います。
type StructuredGenerator interface {
	GenerateStructured(ctx context.Context, prompt string, schema *genai.Schema) (string, error)
}

// ImageGenerator はプロンプトと参照画像から画像を1枚生成します。
// refs の並び順はそのまま優先度として扱われます。
type ImageGenerator interface {
	GenerateImage(ctx context.Context, prompt string, refs []*domain.Image) (*domain.Image, error)
}

// ImageAnalyzer は画像についてのテキスト解析を行います。
type ImageAnalyzer interface {
	AnalyzeImage(ctx context.Context, prompt string, images []*domain.Image) (string, error)
}
