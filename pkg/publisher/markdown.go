package publisher

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"

	"github.com/shouni/go-comic-kit/pkg/domain"
)

const (
	placeholder          = "placeholder.png"
	defaultNarrationName = "narration"
	evenPanelTail        = "top"
	evenPanelBottom      = "10%"
	evenPanelLeft        = "10%"
	oddPanelTail         = "bottom"
	oddPanelTop          = "10%"
	oddPanelRight        = "10%"
)

var tagRegex = regexp.MustCompile(`\[[^\]]+\]`)

// MarkdownBuilder はプロジェクトのページとコマを Markdown のストーリーボードに整形します。
type MarkdownBuilder struct{}

func NewMarkdownBuilder() *MarkdownBuilder {
	return &MarkdownBuilder{}
}

// Build は images (コマID -> 相対パス) を使って Markdown を生成します。
// 画像が無いコマにはプレースホルダーを入れます。
func (mb *MarkdownBuilder) Build(p *domain.Project, images map[string]string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", p.Title)
	if p.Style != "" {
		fmt.Fprintf(&sb, "- style: %s\n\n", p.Style)
	}

	roster := p.CharacterRoster()
	idx := 0
	for _, page := range p.Pages {
		fmt.Fprintf(&sb, "## Page %d\n", page.PageNumber)
		fmt.Fprintf(&sb, "- layout: %s\n", page.Layout)
		if g, ok := page.Layout.Geometry(); ok {
			fmt.Fprintf(&sb, "- grid: %dx%d\n", g.Cols, g.Rows)
		}
		sb.WriteString("\n")

		for _, panel := range page.Panels {
			img, ok := images[panel.ID]
			if !ok {
				img = placeholder
			}
			fmt.Fprintf(&sb, "### Panel: %s\n\n", img)
			fmt.Fprintf(&sb, "![%s](%s)\n\n", escapeAlt(panel.Description), img)

			if text := strings.TrimSpace(tagRegex.ReplaceAllString(panel.Dialogue, "")); text != "" {
				fmt.Fprintf(&sb, "- speaker: %s\n", speakerClass(speakerName(roster, panel)))
				fmt.Fprintf(&sb, "- type: %s\n", bubbleType(panel.Dialogue))
				fmt.Fprintf(&sb, "- text: %s\n", text)
				sb.WriteString(dialogueStyle(idx))
			} else {
				sb.WriteString("- type: none\n")
			}
			sb.WriteString("\n")
			idx++
		}
	}
	return sb.String()
}

// speakerName はコマの最初の登場キャラクター名を返します。いなければナレーション扱いです。
func speakerName(roster domain.Roster, panel domain.Panel) string {
	for _, id := range panel.CharacterIDs {
		if a, ok := roster.FindByID(id); ok {
			return a.Name
		}
	}
	return defaultNarrationName
}

// speakerClass は日本語名なども含めて CSS で安全に使えるクラス名に変換します。
func speakerClass(name string) string {
	sum := sha256.Sum256([]byte(name))
	return "speaker-" + hex.EncodeToString(sum[:])[:10]
}

// bubbleType はセリフのメタタグから吹き出しの種類を判定します。
func bubbleType(dialogue string) string {
	switch {
	case strings.Contains(dialogue, "[shout]"):
		return "shout"
	case strings.Contains(dialogue, "[thought]"):
		return "thought"
	default:
		return "normal"
	}
}

func dialogueStyle(idx int) string {
	if idx%2 == 0 {
		return fmt.Sprintf("- tail: %s\n- bottom: %s\n- left: %s\n", evenPanelTail, evenPanelBottom, evenPanelLeft)
	}
	return fmt.Sprintf("- tail: %s\n- top: %s\n- right: %s\n", oddPanelTail, oddPanelTop, oddPanelRight)
}

func escapeAlt(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "[", "(")
	return strings.ReplaceAll(s, "]", ")")
}
