package prompts

import (
	"fmt"
	"strings"

	"github.com/shouni/go-comic-kit/pkg/domain"
)

const (
	// DefaultCameraAngle はカメラアングル未指定時の補完文です。
	DefaultCameraAngle = "A standard eye-level medium shot."
	// DefaultLighting はライティング未指定時の補完文です。
	DefaultLighting = "Standard, neutral lighting."
	// DefaultAdvancedPrompt は撮影メモ未指定時の補完文です。
	DefaultAdvancedPrompt = "None."
	// DefaultExpressions は表情指定が無いときの補完文です。
	DefaultExpressions = "Not specified."

	CharacterSectionHeader = "**Character References:**"
	LocationSectionHeader  = "**Location/Background References:**"

	// ContinuationContext は直前のコマ画像がある場合の継続指示です。
	ContinuationContext = "This panel directly continues the previous one, which is attached as an image. Keep the background, lighting and character poses from it. The Core Action/Change below describes ONLY what differs from that panel."
	// NewSceneContext は直前のコマ画像が無い場合の指示です。
	NewSceneContext = "This panel opens a new scene. Establish the environment and the characters from the scene description."
)

// PanelPromptInput はコマプロンプトの組み立てに必要な情報です。
type PanelPromptInput struct {
	Template         string
	Style            string
	SceneDescription string
	Dialogue         string
	Characters       []domain.ResolvedAsset
	Locations        []domain.ResolvedAsset
	Expressions      []domain.CharacterExpression
	CameraAngle      string
	Lighting         string
	AdvancedPrompt   string
	HasPrevious      bool
}

// PanelPromptBuilder はテンプレートエンジンを使ってコマ用プロンプトを構築します。
type PanelPromptBuilder struct {
	defaultTemplate string
}

// NewPanelPromptBuilder は既定テンプレートを持つビルダーを生成します。
// tmpl が空なら DefaultPanelPrompt を使います。
func NewPanelPromptBuilder(tmpl string) *PanelPromptBuilder {
	if tmpl == "" {
		tmpl = DefaultPanelPrompt
	}
	return &PanelPromptBuilder{defaultTemplate: tmpl}
}

// Build はコマ用の最終プロンプトを返します。
func (b *PanelPromptBuilder) Build(in PanelPromptInput) string {
	tmpl := in.Template
	if tmpl == "" {
		tmpl = b.defaultTemplate
	}

	fields := PanelFields{
		Style:                in.Style,
		StyleEnhancers:       StyleEnhancers(in.Style),
		CharacterSection:     CharacterSection(in.Characters),
		LocationSection:      LocationSection(in.Locations),
		SceneContext:         SceneContext(in.HasPrevious),
		CameraAngle:          orDefault(in.CameraAngle, DefaultCameraAngle),
		Lighting:             orDefault(in.Lighting, DefaultLighting),
		AdvancedPrompt:       orDefault(in.AdvancedPrompt, DefaultAdvancedPrompt),
		SceneDescription:     in.SceneDescription,
		CharacterExpressions: ExpressionLine(in.Expressions, in.Characters),
		Dialogue:             in.Dialogue,
	}
	return Render(tmpl, fields.Fields())
}

// CharacterSection はキャラクター参照セクションを返します。キャラクターが居なければ空文字です。
func CharacterSection(chars []domain.ResolvedAsset) string {
	if len(chars) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(CharacterSectionHeader)
	sb.WriteString("\n")
	for _, c := range chars {
		sb.WriteString(fmt.Sprintf("- Reference sheet for %q.\n", c.Name))
	}
	sb.WriteString("CRITICAL: Match every character exactly to their reference sheet. Face, hair, clothing and colors must not drift.\n")
	return sb.String()
}

// LocationSection はロケーション参照セクションを返します。ロケーションが無ければ空文字です。
func LocationSection(locs []domain.ResolvedAsset) string {
	if len(locs) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(LocationSectionHeader)
	sb.WriteString("\n")
	for _, l := range locs {
		sb.WriteString(fmt.Sprintf("- Reference image for the location %q.\n", l.Name))
	}
	sb.WriteString("Use the location references as the main guide for the background and setting.\n")
	return sb.String()
}

// SceneContext は継続性の指示文を返します。
func SceneContext(hasPrevious bool) string {
	if hasPrevious {
		return ContinuationContext
	}
	return NewSceneContext
}

// ExpressionLine は "X has a happy expression." 形式の表情指定を組み立てます。
// 解決できないキャラクターIDや空の表情は無視します。
func ExpressionLine(exprs []domain.CharacterExpression, chars []domain.ResolvedAsset) string {
	names := make(map[string]string, len(chars))
	for _, c := range chars {
		names[c.ID] = c.Name
	}

	var parts []string
	for _, e := range exprs {
		name, ok := names[e.CharacterID]
		if !ok || strings.TrimSpace(e.Expression) == "" {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s has a %s expression.", name, strings.ToLower(e.Expression)))
	}
	if len(parts) == 0 {
		return DefaultExpressions
	}
	return strings.Join(parts, " ")
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
