package generator

import (
	"context"
	"log/slog"
	"time"

	"github.com/shouni/go-comic-kit/pkg/domain"
	"github.com/shouni/go-comic-kit/pkg/prompts"
)

// PanelRequest は1コマの描画に必要な入力です。
type PanelRequest struct {
	SceneDescription string
	Dialogue         string
	Characters       []domain.ResolvedAsset
	Locations        []domain.ResolvedAsset
	Expressions      []domain.CharacterExpression
	Style            string
	Template         string
	AdvancedPrompt   string
	CameraAngle      string
	Lighting         string
	// Previous は同じページ内で直前に生成されたコマ画像です。無ければ nil です。
	Previous *domain.Image
}

// PanelRenderer はコマ用プロンプトを組み立てて画像生成を1回だけ呼び出します。
// 再試行は行いません。
type PanelRenderer struct {
	gen     ImageGenerator
	builder prompts.PanelPrompt
}

// NewPanelRenderer は PanelRenderer を生成します。builder が nil なら既定テンプレートを使います。
func NewPanelRenderer(gen ImageGenerator, builder prompts.PanelPrompt) *PanelRenderer {
	if builder == nil {
		builder = prompts.NewPanelPromptBuilder("")
	}
	return &PanelRenderer{gen: gen, builder: builder}
}

// Prompt は req から最終プロンプトを組み立てます。
func (r *PanelRenderer) Prompt(req PanelRequest) string {
	return r.builder.Build(prompts.PanelPromptInput{
		Template:         req.Template,
		Style:            req.Style,
		SceneDescription: req.SceneDescription,
		Dialogue:         req.Dialogue,
		Characters:       req.Characters,
		Locations:        req.Locations,
		Expressions:      req.Expressions,
		CameraAngle:      req.CameraAngle,
		Lighting:         req.Lighting,
		AdvancedPrompt:   req.AdvancedPrompt,
		HasPrevious:      req.Previous != nil,
	})
}

// Render はコマ画像を生成します。失敗時は *domain.RenderError を返します。
func (r *PanelRenderer) Render(ctx context.Context, req PanelRequest) (*domain.Image, error) {
	prompt := r.Prompt(req)
	refs := Attachments(req)

	start := time.Now()
	img, err := r.gen.GenerateImage(ctx, prompt, refs)
	if err != nil {
		return nil, &domain.RenderError{Err: err}
	}
	if img == nil || len(img.Data) == 0 {
		return nil, &domain.RenderError{Err: domain.ErrNoImage}
	}
	slog.DebugContext(ctx, "コマ画像を生成したのだ",
		"references", len(refs), "continuation", req.Previous != nil,
		"duration", time.Since(start).Round(time.Millisecond))
	return img, nil
}

// Attachments は添付画像をキャラクター、ロケーション、直前のコマの順で返します。
// 先に並ぶ画像ほどモデルが強く参照するため、この順序は固定です。
func Attachments(req PanelRequest) []*domain.Image {
	refs := make([]*domain.Image, 0, len(req.Characters)+len(req.Locations)+1)
	for _, c := range req.Characters {
		if c.Image != nil {
			refs = append(refs, c.Image)
		}
	}
	for _, l := range req.Locations {
		if l.Image != nil {
			refs = append(refs, l.Image)
		}
	}
	if req.Previous != nil {
		refs = append(refs, req.Previous)
	}
	return refs
}
