package generator

import (
	"github.com/shouni/go-comic-kit/pkg/domain"
	"google.golang.org/genai"
)

// StoryboardSchema はストーリーボード応答を制約するレスポンススキーマを返します。
func StoryboardSchema() *genai.Schema {
	panel := &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"scene_description": {
				Type:        genai.TypeString,
				Description: "A concise visual description of what happens in the panel.",
			},
			"dialogue": {
				Type:        genai.TypeString,
				Description: "Dialogue or caption text for the panel. Empty string if none.",
			},
			"characters_present": {
				Type:        genai.TypeArray,
				Description: "Names of the characters visible in the panel, taken only from the provided list.",
				Items:       &genai.Schema{Type: genai.TypeString},
			},
		},
		Required: []string{"scene_description", "dialogue", "characters_present"},
	}

	page := &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"layout": {
				Type:        genai.TypeString,
				Description: "Page layout tag. The number of panels must match the layout.",
				Enum:        domain.LayoutNames(),
			},
			"panels": {
				Type:  genai.TypeArray,
				Items: panel,
			},
		},
		Required: []string{"layout", "panels"},
	}

	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"pages": {
				Type:        genai.TypeArray,
				Description: "Comic pages in reading order.",
				Items:       page,
			},
		},
		Required: []string{"pages"},
	}
}
