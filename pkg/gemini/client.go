// Package gemini は生成系インターフェースを google.golang.org/genai で実装するアダプタです。
package gemini

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shouni/go-comic-kit/pkg/domain"
	"google.golang.org/genai"
)

const (
	DefaultTextModel     = "gemini-2.5-pro"
	DefaultImageModel    = "gemini-2.5-flash-image"
	DefaultAnalysisModel = "gemini-2.5-flash"

	defaultTemperature = float32(0.7)
	jsonMIMEType       = "application/json"
	modalityImage      = "IMAGE"
)

// contentGenerator は genai.Models のうち本パッケージが使う部分です。
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Config は Gemini クライアントの設定です。
type Config struct {
	APIKey        string
	TextModel     string
	ImageModel    string
	AnalysisModel string
	Temperature   *float32
	AspectRatio   string
}

// Client は構造化テキスト生成、画像生成、画像解析を提供します。
type Client struct {
	models        contentGenerator
	textModel     string
	imageModel    string
	analysisModel string
	temperature   *float32
	aspectRatio   string
}

// NewClient は Gemini API バックエンドの genai クライアントを初期化します。
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY が設定されていません")
	}
	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("AIクライアントの初期化に失敗しました: %w", err)
	}
	return newClient(gc.Models, cfg), nil
}

func newClient(models contentGenerator, cfg Config) *Client {
	c := &Client{
		models:        models,
		textModel:     firstNonEmpty(cfg.TextModel, DefaultTextModel),
		imageModel:    firstNonEmpty(cfg.ImageModel, DefaultImageModel),
		analysisModel: firstNonEmpty(cfg.AnalysisModel, DefaultAnalysisModel),
		temperature:   cfg.Temperature,
		aspectRatio:   cfg.AspectRatio,
	}
	if c.temperature == nil {
		c.temperature = genai.Ptr(defaultTemperature)
	}
	return c
}

// WithAspectRatio は画像生成のアスペクト比だけを変えたクライアントを返します。
func (c *Client) WithAspectRatio(ratio string) *Client {
	cp := *c
	cp.aspectRatio = ratio
	return &cp
}

// GenerateStructured はレスポンススキーマで出力を制約した JSON テキストを返します。
func (c *Client) GenerateStructured(ctx context.Context, prompt string, schema *genai.Schema) (string, error) {
	contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}
	config := &genai.GenerateContentConfig{
		Temperature:      c.temperature,
		ResponseMIMEType: jsonMIMEType,
		ResponseSchema:   schema,
	}

	start := time.Now()
	resp, err := c.models.GenerateContent(ctx, c.textModel, contents, config)
	if err != nil {
		return "", classify(err)
	}
	slog.DebugContext(ctx, "構造化生成が完了したのだ", "model", c.textModel, "duration", time.Since(start).Round(time.Millisecond))
	return extractText(resp), nil
}

// GenerateImage は参照画像を先頭に、プロンプトを末尾に並べて画像を1枚生成します。
func (c *Client) GenerateImage(ctx context.Context, prompt string, refs []*domain.Image) (*domain.Image, error) {
	parts := imageParts(refs)
	parts = append(parts, genai.NewPartFromText(prompt))

	config := &genai.GenerateContentConfig{
		Temperature:        c.temperature,
		ResponseModalities: []string{modalityImage},
	}
	if c.aspectRatio != "" {
		config.ImageConfig = &genai.ImageConfig{AspectRatio: c.aspectRatio}
	}

	start := time.Now()
	resp, err := c.models.GenerateContent(ctx, c.imageModel, []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}, config)
	if err != nil {
		return nil, classify(err)
	}
	img := extractImage(resp)
	if img == nil {
		return nil, domain.ErrNoImage
	}
	slog.DebugContext(ctx, "画像生成が完了したのだ",
		"model", c.imageModel, "references", len(refs), "bytes", len(img.Data),
		"duration", time.Since(start).Round(time.Millisecond))
	return img, nil
}

// AnalyzeImage は画像と質問文から解析テキストを返します。
func (c *Client) AnalyzeImage(ctx context.Context, prompt string, images []*domain.Image) (string, error) {
	parts := imageParts(images)
	parts = append(parts, genai.NewPartFromText(prompt))

	resp, err := c.models.GenerateContent(ctx, c.analysisModel, []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}, &genai.GenerateContentConfig{
		Temperature: genai.Ptr[float32](0.3),
	})
	if err != nil {
		return "", classify(err)
	}
	return extractText(resp), nil
}

func imageParts(images []*domain.Image) []*genai.Part {
	parts := make([]*genai.Part, 0, len(images)+1)
	for _, img := range images {
		if img == nil || len(img.Data) == 0 {
			continue
		}
		mime := firstNonEmpty(img.MIMEType, domain.DefaultImageMIMEType)
		parts = append(parts, genai.NewPartFromBytes(img.Data, mime))
	}
	return parts
}

// extractImage は最初の候補から最初のインライン画像を取り出します。
func extractImage(resp *genai.GenerateContentResponse) *domain.Image {
	if resp == nil {
		return nil
	}
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part != nil && part.InlineData != nil && len(part.InlineData.Data) > 0 {
				return &domain.Image{
					Data:     part.InlineData.Data,
					MIMEType: firstNonEmpty(part.InlineData.MIMEType, domain.DefaultImageMIMEType),
				}
			}
		}
	}
	return nil
}

// extractText は最初の候補のテキストパートを連結します。思考パートは除外します。
func extractText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0] == nil || resp.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part == nil || part.Thought {
			continue
		}
		sb.WriteString(part.Text)
	}
	return sb.String()
}

func firstNonEmpty(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
