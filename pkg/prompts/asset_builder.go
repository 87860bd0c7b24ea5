package prompts

import (
	"fmt"
	"strings"

	"github.com/shouni/go-comic-kit/pkg/domain"
)

// editSuffix は画像編集指示の末尾に付ける品質指定です。
const editSuffix = ". High quality, professional edit."

// AssetSheetInput はアセットシート用プロンプトの入力です。
type AssetSheetInput struct {
	Kind         domain.AssetKind
	Name         string
	Description  string
	Style        string
	Template     string
	HasReference bool
}

// BuildAssetSheet はキャラクターまたはロケーションの参照画像用プロンプトを返します。
// 参照画像がある場合は、1行目の直後に参照画像を最優先する指示を差し込みます。
func BuildAssetSheet(in AssetSheetInput) string {
	tmpl := in.Template
	if tmpl == "" {
		if in.Kind == domain.AssetLocation {
			tmpl = DefaultLocationPrompt
		} else {
			tmpl = DefaultCharacterPrompt
		}
	}

	prompt := Render(tmpl, AssetFields{
		Name:           in.Name,
		Style:          in.Style,
		StyleEnhancers: StyleEnhancers(in.Style),
		Description:    in.Description,
	}.Fields())

	if !in.HasReference {
		return prompt
	}

	instruction := fmt.Sprintf("CRITICAL: Use the provided image as the primary visual reference for the %s's appearance. Keep its defining features while applying the requested style.", in.Kind.Label())
	first, rest, found := strings.Cut(prompt, "\n")
	if !found {
		return first + "\n" + instruction
	}
	return first + "\n" + instruction + "\n" + rest
}

// BuildEdit は画像編集用の指示文を返します。
func BuildEdit(instruction string) string {
	return strings.TrimSpace(instruction) + editSuffix
}
