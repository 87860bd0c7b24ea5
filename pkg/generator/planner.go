package generator

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/shouni/go-comic-kit/pkg/domain"
	"github.com/shouni/go-comic-kit/pkg/prompts"
)

var jsonBlockRegex = regexp.MustCompile("(?s)```(?:json)?\\s*(.*\\S)\\s*```")

// planResponse はモデル応答の受け取り用の型です。必須項目の欠落を検出するため dialogue はポインタにしています。
type planResponse struct {
	Pages []pageResponse `json:"pages" validate:"required,min=1,dive"`
}

type pageResponse struct {
	Layout string          `json:"layout" validate:"required,layout"`
	Panels []panelResponse `json:"panels" validate:"required,min=1,dive"`
}

type panelResponse struct {
	SceneDescription  string   `json:"scene_description" validate:"required"`
	Dialogue          *string  `json:"dialogue" validate:"required"`
	CharactersPresent []string `json:"characters_present" validate:"required"`
}

// StoryboardPlanner は物語テキストをページとコマの計画に分解します。
type StoryboardPlanner struct {
	gen     StructuredGenerator
	prompts prompts.ScriptPrompt
}

// NewStoryboardPlanner は StoryboardPlanner を生成します。
func NewStoryboardPlanner(gen StructuredGenerator, pb prompts.ScriptPrompt) *StoryboardPlanner {
	return &StoryboardPlanner{gen: gen, prompts: pb}
}

// Plan は1回の構造化生成呼び出しでストーリーボードを作成します。
// 失敗時は部分的な計画を返さず、常に *domain.PlanningError を返します。
func (p *StoryboardPlanner) Plan(ctx context.Context, story, style string, characterNames []string) (*domain.StoryboardPlan, error) {
	if strings.TrimSpace(story) == "" {
		return nil, &domain.PlanningError{Reason: "ストーリーが空です", Err: domain.ErrStructure}
	}

	finalPrompt, err := p.prompts.Build(prompts.ModeStoryboard, prompts.NewStoryboardData(story, style, characterNames))
	if err != nil {
		return nil, &domain.PlanningError{Reason: "プロンプト生成", Err: err}
	}

	slog.InfoContext(ctx, "ストーリーボードを生成するのだ", "style", style, "characters", len(characterNames))
	raw, err := p.gen.GenerateStructured(ctx, finalPrompt, StoryboardSchema())
	if err != nil {
		return nil, &domain.PlanningError{Reason: "API 呼び出し", Err: err}
	}

	plan, err := ParsePlan(raw)
	if err != nil {
		return nil, &domain.PlanningError{Reason: "応答の検証", RawResponse: raw, Err: err}
	}

	slog.InfoContext(ctx, "ストーリーボードが完成したのだ", "pages", len(plan.Pages), "panels", plan.PanelCount())
	return plan, nil
}

// ParsePlan はモデルの生応答を検証済みの StoryboardPlan に変換します。
func ParsePlan(raw string) (*domain.StoryboardPlan, error) {
	rawJSON := extractJSON(raw)

	var resp planResponse
	if err := json.Unmarshal([]byte(rawJSON), &resp); err != nil {
		return nil, fmt.Errorf("%w: JSON の解析に失敗しました (応答抜粋: %q): %v", domain.ErrStructure, truncateString(raw, rawExcerptLen), err)
	}
	if err := planValidator.Struct(resp); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrStructure, describeValidation(err))
	}

	plan := &domain.StoryboardPlan{Pages: make([]domain.PlannedPage, 0, len(resp.Pages))}
	for _, pg := range resp.Pages {
		page := domain.PlannedPage{
			Layout: domain.Layout(pg.Layout),
			Panels: make([]domain.PlannedPanel, 0, len(pg.Panels)),
		}
		for _, pn := range pg.Panels {
			page.Panels = append(page.Panels, domain.PlannedPanel{
				SceneDescription:      strings.TrimSpace(pn.SceneDescription),
				Dialogue:              strings.TrimSpace(*pn.Dialogue),
				CharacterNamesPresent: pn.CharactersPresent,
			})
		}
		plan.Pages = append(plan.Pages, page)
	}

	if err := ValidatePlan(plan); err != nil {
		return nil, err
	}
	return plan, nil
}

// extractJSON はコードフェンスや前置きを取り除いて JSON 部分を取り出します。
func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)

	if matches := jsonBlockRegex.FindStringSubmatch(raw); len(matches) > 1 {
		return matches[1]
	}
	first := strings.Index(raw, "{")
	last := strings.LastIndex(raw, "}")
	if first != -1 && last > first {
		return raw[first : last+1]
	}
	return raw
}

// truncateString は s を最大 maxLen 文字（rune 単位）に切り詰めます。
func truncateString(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}
