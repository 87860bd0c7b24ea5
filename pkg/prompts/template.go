package prompts

import (
	"sort"
	"strings"
)

const (
	openDelim  = "{{"
	closeDelim = "}}"
)

// Placeholder はテンプレート中の {{name}} トークン名です。
type Placeholder string

// テンプレート語彙
const (
	PhName                       Placeholder = "name"
	PhStyle                      Placeholder = "style"
	PhStyleEnhancers             Placeholder = "style_enhancers"
	PhDescription                Placeholder = "description"
	PhCharacterReferencesSection Placeholder = "character_references_section"
	PhLocationReferencesSection  Placeholder = "location_references_section"
	PhSceneContext               Placeholder = "scene_context"
	PhCameraAngle                Placeholder = "camera_angle"
	PhLighting                   Placeholder = "lighting"
	PhAdvancedPrompt             Placeholder = "advanced_prompt"
	PhSceneDescription           Placeholder = "scene_description"
	PhCharacterExpressions       Placeholder = "character_expressions"
	PhDialogue                   Placeholder = "dialogue"
)

// Fields はプレースホルダーと置換値の対応です。
type Fields map[Placeholder]string

// Render はテンプレートを1パスで走査し、Fields にあるプレースホルダーを置換します。
// Fields に無いプレースホルダーはそのまま残します。置換後の値は再走査しません。
func Render(tmpl string, fields Fields) string {
	var sb strings.Builder
	sb.Grow(len(tmpl))

	rest := tmpl
	for {
		start, end, ok := nextToken(rest)
		if !ok {
			sb.WriteString(rest)
			break
		}
		sb.WriteString(rest[:start])
		name := Placeholder(strings.TrimSpace(rest[start+len(openDelim) : end]))
		if v, ok := fields[name]; ok {
			sb.WriteString(v)
		} else {
			sb.WriteString(rest[start : end+len(closeDelim)])
		}
		rest = rest[end+len(closeDelim):]
	}
	return sb.String()
}

// Placeholders はテンプレートが参照するプレースホルダー名を重複なしでソートして返します。
func Placeholders(tmpl string) []Placeholder {
	set := make(map[Placeholder]struct{})
	rest := tmpl
	for {
		start, end, ok := nextToken(rest)
		if !ok {
			break
		}
		if name := strings.TrimSpace(rest[start+len(openDelim) : end]); name != "" {
			set[Placeholder(name)] = struct{}{}
		}
		rest = rest[end+len(closeDelim):]
	}

	out := make([]Placeholder, 0, len(set))
	for p := range set {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// nextToken は s の中で最初に閉じられるトークンの位置を返します。
// start は "{{" の位置、end は対応する "}}" の位置です。
// 対応する "}}" を持たない "{{" は飛ばされ、ただの文字として残ります。
func nextToken(s string) (start, end int, ok bool) {
	first := strings.Index(s, openDelim)
	if first < 0 {
		return 0, 0, false
	}
	end = strings.Index(s[first+len(openDelim):], closeDelim)
	if end < 0 {
		return 0, 0, false
	}
	end += first + len(openDelim)
	start = first + strings.LastIndex(s[first:end], openDelim)
	return start, end, true
}

// Missing はテンプレートが参照しているのに Fields に無いプレースホルダーを返します。
func Missing(tmpl string, fields Fields) []Placeholder {
	var missing []Placeholder
	for _, p := range Placeholders(tmpl) {
		if _, ok := fields[p]; !ok {
			missing = append(missing, p)
		}
	}
	return missing
}
