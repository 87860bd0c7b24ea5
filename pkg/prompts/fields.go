package prompts

// PanelFields はコマテンプレートの全プレースホルダーを型付きで保持します。
// フィールドを埋め忘れてもゼロ値の空文字に置換され、トークンが残りません。
type PanelFields struct {
	Style                string
	StyleEnhancers       string
	CharacterSection     string
	LocationSection      string
	SceneContext         string
	CameraAngle          string
	Lighting             string
	AdvancedPrompt       string
	SceneDescription     string
	CharacterExpressions string
	Dialogue             string
}

// Fields は置換マップに変換します。
func (f PanelFields) Fields() Fields {
	return Fields{
		PhStyle:                      f.Style,
		PhStyleEnhancers:             f.StyleEnhancers,
		PhCharacterReferencesSection: f.CharacterSection,
		PhLocationReferencesSection:  f.LocationSection,
		PhSceneContext:               f.SceneContext,
		PhCameraAngle:                f.CameraAngle,
		PhLighting:                   f.Lighting,
		PhAdvancedPrompt:             f.AdvancedPrompt,
		PhSceneDescription:           f.SceneDescription,
		PhCharacterExpressions:       f.CharacterExpressions,
		PhDialogue:                   f.Dialogue,
	}
}

// AssetFields はアセットシートテンプレートのプレースホルダーです。
type AssetFields struct {
	Name           string
	Style          string
	StyleEnhancers string
	Description    string
}

// Fields は置換マップに変換します。
func (f AssetFields) Fields() Fields {
	return Fields{
		PhName:           f.Name,
		PhStyle:          f.Style,
		PhStyleEnhancers: f.StyleEnhancers,
		PhDescription:    f.Description,
	}
}
