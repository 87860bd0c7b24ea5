package prompts

import (
	_ "embed"
	"strings"

	"github.com/shouni/go-comic-kit/pkg/domain"
)

const ModeStoryboard = "storyboard"

// LayoutOption はディレクター用プロンプトに列挙するレイアウト情報です。
type LayoutOption struct {
	Name       string
	PanelCount int
}

// TemplateData はディレクター用プロンプトのテンプレートに渡すデータ構造です。
type TemplateData struct {
	Story      string
	Style      string
	Characters []string
	Layouts    []LayoutOption
}

// CharacterList はキャラクター名をカンマ区切りで返します。
func (d TemplateData) CharacterList() string {
	return strings.Join(d.Characters, ", ")
}

// NewStoryboardData は全レイアウトを列挙した TemplateData を生成します。
func NewStoryboardData(story, style string, characters []string) TemplateData {
	layouts := domain.AllLayouts()
	opts := make([]LayoutOption, 0, len(layouts))
	for _, l := range layouts {
		opts = append(opts, LayoutOption{Name: string(l), PanelCount: l.PanelCount()})
	}
	return TemplateData{
		Story:      story,
		Style:      style,
		Characters: characters,
		Layouts:    opts,
	}
}

var (
	//go:embed storyboard.md
	StoryboardPrompt string
)

// allTemplates はモードとテンプレート文字列を紐づけるマップなのだ。
var allTemplates = map[string]string{
	ModeStoryboard: StoryboardPrompt,
}
