package domain

// PlannedPanel はストーリーボード上の1コマです。
// キャラクターは名前で参照し、IDへの解決はオーケストレーターが行います。
type PlannedPanel struct {
	SceneDescription      string   `json:"scene_description" yaml:"scene_description" validate:"required"`
	Dialogue              string   `json:"dialogue" yaml:"dialogue"`
	CharacterNamesPresent []string `json:"characters_present" yaml:"characters_present"`
}

// PlannedPage はストーリーボード上の1ページです。
type PlannedPage struct {
	Layout Layout         `json:"layout" yaml:"layout" validate:"required,layout"`
	Panels []PlannedPanel `json:"panels" yaml:"panels" validate:"required,min=1,dive"`
}

// StoryboardPlan は物語テキストからページとコマに分解された計画です。
type StoryboardPlan struct {
	Pages []PlannedPage `json:"pages" yaml:"pages" validate:"required,min=1,dive"`
}

// PanelCount は計画全体のコマ数を返します。
func (sp StoryboardPlan) PanelCount() int {
	n := 0
	for _, p := range sp.Pages {
		n += len(p.Panels)
	}
	return n
}
