package domain

// CharacterExpression はコマ内のキャラクターの表情指定です。
type CharacterExpression struct {
	CharacterID string `json:"characterId" yaml:"characterId"`
	Expression  string `json:"expression" yaml:"expression"`
}

// Panel は漫画の1コマの構成、セリフ、生成画像を保持します。
// ImageRef は描画に成功するまで空で、編集時は新しいキーに差し替えます。
type Panel struct {
	ID                   string                `json:"id" yaml:"id"`
	Description          string                `json:"description" yaml:"description"`
	Dialogue             string                `json:"dialogue" yaml:"dialogue"`
	CharacterIDs         []string              `json:"characterIds" yaml:"characterIds"`
	LocationIDs          []string              `json:"locationIds,omitempty" yaml:"locationIds,omitempty"`
	ImageRef             string                `json:"imageRef,omitempty" yaml:"imageRef,omitempty"`
	CameraAngle          string                `json:"cameraAngle,omitempty" yaml:"cameraAngle,omitempty"`
	Lighting             string                `json:"lighting,omitempty" yaml:"lighting,omitempty"`
	CharacterExpressions []CharacterExpression `json:"characterExpressions,omitempty" yaml:"characterExpressions,omitempty"`
}

// ComicPage は1ページ分のレイアウトとコマを表します。
type ComicPage struct {
	ID         string  `json:"id" yaml:"id"`
	PageNumber int     `json:"pageNumber" yaml:"pageNumber"`
	Layout     Layout  `json:"layout" yaml:"layout"`
	Panels     []Panel `json:"panels" yaml:"panels"`
}

// Consistent はコマ数がレイアウトの規定数と一致するかを返します。
func (p ComicPage) Consistent() bool {
	return p.Layout.Valid() && len(p.Panels) == p.Layout.PanelCount()
}

// PromptSettings はプロジェクト単位で差し替え可能なプロンプトテンプレートです。
type PromptSettings struct {
	Character string `json:"character" yaml:"character"`
	Panel     string `json:"panel" yaml:"panel"`
	Location  string `json:"location" yaml:"location"`
}

// Project はアセット、ページ、画風をまとめた作品単位です。
type Project struct {
	ID              string         `json:"id" yaml:"id"`
	Title           string         `json:"title" yaml:"title"`
	Style           string         `json:"style" yaml:"style"`
	Characters      []Asset        `json:"characters" yaml:"characters"`
	Locations       []Asset        `json:"locations" yaml:"locations"`
	Pages           []ComicPage    `json:"pages" yaml:"pages"`
	StoryboardNotes string         `json:"storyboardNotes,omitempty" yaml:"storyboardNotes,omitempty"`
	PromptTemplates PromptSettings `json:"promptTemplates" yaml:"promptTemplates"`
}

// CharacterRoster はキャラクター一覧をロスターとして返します。
func (p *Project) CharacterRoster() Roster {
	return Roster(p.Characters).Snapshot()
}

// LocationRoster はロケーション一覧をロスターとして返します。
func (p *Project) LocationRoster() Roster {
	return Roster(p.Locations).Snapshot()
}

// UpsertAsset は ID が一致するアセットを置き換え、無ければ追加します。
func (p *Project) UpsertAsset(a Asset) {
	list := &p.Characters
	if a.Kind == AssetLocation {
		list = &p.Locations
	}
	for i := range *list {
		if (*list)[i].ID == a.ID {
			(*list)[i] = a
			return
		}
	}
	*list = append(*list, a)
}

// AppendPages はページ番号を振り直しながらページを追加します。
func (p *Project) AppendPages(pages []ComicPage) {
	next := len(p.Pages) + 1
	for _, page := range pages {
		page.PageNumber = next
		next++
		p.Pages = append(p.Pages, page)
	}
}
