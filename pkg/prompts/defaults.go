package prompts

import "github.com/shouni/go-comic-kit/pkg/domain"

// DefaultCharacterPrompt はキャラクターデザインシート生成用の既定テンプレートです。
const DefaultCharacterPrompt = `Draw a professional character model sheet for a comic book character called "{{name}}".
Art style: {{style}}, featuring {{style_enhancers}}.
Character description: "{{description}}".
Show the full body from the front, from the side, and from behind.
Use a plain, neutral white background so every detail reads clearly.
The sheet is a consistency reference for later panels. High detail, clean lines, professional concept art.
Negative prompt: blurry output, malformed limbs, details that differ between views.`

// DefaultLocationPrompt はロケーション参照画像生成用の既定テンプレートです。
const DefaultLocationPrompt = `Paint a professional concept art piece for a comic book location called "{{name}}".
Art style: {{style}}, featuring {{style_enhancers}}.
Location description: "{{description}}".
Establish the mood of the place and its most recognisable features.
Use composition, lighting and atmosphere to make the setting memorable.
The image is a consistency reference for later panels. High detail, clean lines, professional concept art.
Negative prompt: blurry output, generic design, inconsistent lighting.`

// DefaultPanelPrompt はコマ画像生成用の既定テンプレートです。
const DefaultPanelPrompt = `You are a professional comic artist. Draw one high-quality comic panel, using the attached reference images.

**Style:** Render the panel in a "{{style}}" style with these elements: {{style_enhancers}}.

{{character_references_section}}
{{location_references_section}}
**Scene Context & Continuity:**
{{scene_context}}
When a scene context image is attached it is the panel that comes *right before* this one. Treat it as the main visual guide for environment, lighting, character placement and poses.
Keep continuity. Unless the scene details call for a major change, keep the same background and lighting, and let poses follow on naturally from the previous panel.

**Composition Directives:**
- **Camera Angle:** {{camera_angle}}
- **Lighting Style:** {{lighting}}
- **Advanced Cinematography Notes:** {{advanced_prompt}} (Extra shot instructions beyond the directives above.)

**Scene Details:**
- **Core Action/Change:** {{scene_description}} (Only what is NEW or DIFFERENT in this panel.)
- **Character Expressions:** {{character_expressions}}

**Dialogue/Caption (optional):** "{{dialogue}}"
If there is dialogue, leave room for a speech bubble but DO NOT draw the bubble or any lettering.

**Instructions:**
- Output ONLY the panel image.
- No text, borders or annotations inside the image.
- Negative prompt: ugly, deformed, blurry, extra limbs, inconsistent character design, inconsistent backgrounds, sudden lighting or pose changes, text, watermarks, clothing or appearance changing between panels.`

// DefaultSettings は既定テンプレート一式を返します。
func DefaultSettings() domain.PromptSettings {
	return domain.PromptSettings{
		Character: DefaultCharacterPrompt,
		Panel:     DefaultPanelPrompt,
		Location:  DefaultLocationPrompt,
	}
}

// WithDefaults は空のテンプレートを既定値で補ったコピーを返します。
func WithDefaults(s domain.PromptSettings) domain.PromptSettings {
	d := DefaultSettings()
	if s.Character == "" {
		s.Character = d.Character
	}
	if s.Panel == "" {
		s.Panel = d.Panel
	}
	if s.Location == "" {
		s.Location = d.Location
	}
	return s
}
