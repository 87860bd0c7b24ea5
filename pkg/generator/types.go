package generator

const (
	// PanelAspectRatio は単体パネル（1コマ）の推奨アスペクト比です。
	PanelAspectRatio = "1:1"
	// SheetAspectRatio はキャラクターシートの推奨アスペクト比です。
	SheetAspectRatio = "16:9"

	// rawExcerptLen はエラーメッセージに含める応答抜粋の長さです。
	rawExcerptLen = 200
)
